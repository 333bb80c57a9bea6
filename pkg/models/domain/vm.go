package domain

// VM describes a running virtual machine as discovered from the
// management API, enriched in place with metrics and pricing.
// Identity fields (Name, ResourceGroup, Location, ID) are never
// mutated after discovery.
type VM struct {
	Name          string
	ResourceGroup string
	Location      string
	Size          string // current SKU name
	ID            string
	PowerState    string
	OSType        string
	Tags          map[string]string

	// Utilization summaries over the lookback window. Nil means the
	// metric was not available for this VM.
	AvgCPU        *float64
	MaxCPU        *float64
	AvgMemory     *float64
	MaxMemory     *float64
	AvgDiskIOPS   *float64
	AvgNetworkIn  *float64
	AvgNetworkOut *float64

	HourlyPrice  float64
	MonthlyPrice float64

	DataDiskCount int
	NICCount      int
}

// HoursPerMonth is the averaged hour count used to convert hourly
// retail prices to monthly cost throughout the system.
const HoursPerMonth = 730
