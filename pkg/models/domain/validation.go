package domain

// QuotaInfo is a point-in-time snapshot of family quota in a region.
type QuotaInfo struct {
	Used      int32
	Limit     int32
	Available int32
}

// UsagePercent reports used quota as a percentage of the limit.
func (q *QuotaInfo) UsagePercent() float64 {
	if q.Limit <= 0 {
		return 0
	}
	return float64(q.Used) / float64(q.Limit) * 100
}

// ValidationOutcome is the result of checking one SKU against live
// restriction, zone, and quota data. It is valid for one analysis run
// only; quota drifts over time.
type ValidationOutcome struct {
	Valid          bool
	Issues         []string
	Quota          *QuotaInfo
	AvailableZones []string
}
