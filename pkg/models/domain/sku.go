package domain

import "strings"

// Feature names as mapped from the catalog capability keys.
const (
	FeaturePremiumStorage        = "PremiumStorage"
	FeatureAcceleratedNetworking = "AcceleratedNetworking"
	FeatureEphemeralOSDisk       = "EphemeralOSDisk"
	FeatureSpotCapable           = "SpotCapable"
	FeatureEncryptionAtHost      = "EncryptionAtHost"
	FeatureUltraSSD              = "UltraSSD"
	FeatureNestedVirtualization  = "NestedVirtualization"
)

// SKURestriction is one restriction entry from the catalog, already
// filtered to the region the SKU was listed for.
type SKURestriction struct {
	Type       string // "Location" or "Zone"
	ReasonCode string // e.g. "QuotaId", "NotAvailableForSubscription"
	Locations  []string
	Zones      []string
}

// SKU describes a purchasable instance type for one region. Instances
// are never mutated after creation; catalog cache entries are replaced
// wholesale on refresh.
type SKU struct {
	Name           string
	Family         string
	VCPUs          int
	MemoryGB       float64
	MaxDataDisks   int
	MaxIOPS        int
	MaxNetworkMbps int
	Generation     string // HyperVGenerations label, e.g. "V1,V2"
	Features       []string

	IsRestricted   bool
	Restrictions   []SKURestriction
	AvailableZones []string
}

// HasFeature reports whether the SKU carries the named capability.
func (s *SKU) HasFeature(name string) bool {
	for _, f := range s.Features {
		if f == name {
			return true
		}
	}
	return false
}

// AvailableInZone reports zone availability; a SKU with no zone list
// has no zone restrictions.
func (s *SKU) AvailableInZone(zone string) bool {
	if len(s.AvailableZones) == 0 {
		return true
	}
	for _, z := range s.AvailableZones {
		if z == zone {
			return true
		}
	}
	return false
}

// RestrictionReason renders a human-readable summary of why the SKU is
// restricted, or "" when it is not.
func (s *SKU) RestrictionReason() string {
	if len(s.Restrictions) == 0 {
		return ""
	}
	var reasons []string
	for _, r := range s.Restrictions {
		switch {
		case r.ReasonCode == "NotAvailableForSubscription":
			reasons = append(reasons, "Not available for this subscription type")
		case r.ReasonCode == "QuotaId":
			reasons = append(reasons, "Quota restriction")
		case r.Type == "Zone":
			reasons = append(reasons, "Zone restricted: "+strings.Join(r.Zones, ", "))
		}
	}
	return strings.Join(reasons, "; ")
}
