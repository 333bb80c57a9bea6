package config

import "strings"

// GenerationMap maps an older SKU to its current-generation successor.
// Used for the generation-upgrade evaluation; a target is only ever
// proposed when it is present and cheaper in the VM's region.
var GenerationMap = map[string]string{
	"Standard_D2_v3":   "Standard_D2s_v5",
	"Standard_D4_v3":   "Standard_D4s_v5",
	"Standard_D8_v3":   "Standard_D8s_v5",
	"Standard_D16_v3":  "Standard_D16s_v5",
	"Standard_D2s_v3":  "Standard_D2s_v5",
	"Standard_D4s_v3":  "Standard_D4s_v5",
	"Standard_D8s_v3":  "Standard_D8s_v5",
	"Standard_D16s_v3": "Standard_D16s_v5",
	"Standard_D2_v4":   "Standard_D2s_v5",
	"Standard_D4_v4":   "Standard_D4s_v5",
	"Standard_D8_v4":   "Standard_D8s_v5",
	"Standard_E2_v3":   "Standard_E2s_v5",
	"Standard_E4_v3":   "Standard_E4s_v5",
	"Standard_E8_v3":   "Standard_E8s_v5",
	"Standard_E2s_v3":  "Standard_E2s_v5",
	"Standard_E4s_v3":  "Standard_E4s_v5",
	"Standard_E8s_v3":  "Standard_E8s_v5",
	"Standard_F2s_v2":  "Standard_F2s_v2",
	"Standard_DS1_v2":  "Standard_D2s_v5",
	"Standard_DS2_v2":  "Standard_D2s_v5",
	"Standard_DS3_v2":  "Standard_D4s_v5",
	"Standard_DS4_v2":  "Standard_D8s_v5",
	"Standard_D1_v2":   "Standard_D2s_v5",
	"Standard_D2_v2":   "Standard_D2s_v5",
	"Standard_D3_v2":   "Standard_D4s_v5",
	"Standard_D4_v2":   "Standard_D8s_v5",
	"Standard_A2":      "Standard_D2s_v5",
	"Standard_A4":      "Standard_D4s_v5",
}

// GenerationTarget resolves a SKU against GenerationMap. Exact match
// first, then longest matching key prefix, so lookup order is
// deterministic regardless of map iteration.
func GenerationTarget(sku string) (string, bool) {
	if t, ok := GenerationMap[sku]; ok {
		return t, true
	}
	best := ""
	target := ""
	for k, v := range GenerationMap {
		if strings.HasPrefix(sku, k) && len(k) > len(best) {
			best = k
			target = v
		}
	}
	return target, best != ""
}

// RegionAlternatives lists regions considered close enough to serve as
// a price-comparison alternative for the key region.
var RegionAlternatives = map[string][]string{
	"eastus":         {"eastus2", "centralus", "canadacentral"},
	"eastus2":        {"eastus", "centralus", "canadacentral"},
	"westus":         {"westus2", "westus3", "westcentralus"},
	"westus2":        {"westus", "westus3", "westcentralus"},
	"westus3":        {"westus2", "westus", "southcentralus"},
	"centralus":      {"eastus", "eastus2", "northcentralus"},
	"northcentralus": {"centralus", "eastus2", "canadacentral"},
	"southcentralus": {"centralus", "westus3", "northcentralus"},
	"westeurope":     {"northeurope", "francecentral", "germanywestcentral"},
	"northeurope":    {"westeurope", "uksouth", "norwayeast"},
	"uksouth":        {"ukwest", "westeurope", "northeurope"},
	"ukwest":         {"uksouth", "northeurope"},
	"francecentral":  {"westeurope", "germanywestcentral"},
	"germanywestcentral": {"westeurope", "francecentral", "switzerlandnorth"},
	"swedencentral":  {"norwayeast", "northeurope"},
	"southeastasia":  {"eastasia", "australiaeast"},
	"eastasia":       {"southeastasia", "japaneast"},
	"japaneast":      {"japanwest", "koreacentral", "eastasia"},
	"australiaeast":  {"australiasoutheast", "southeastasia"},
	"canadacentral":  {"canadaeast", "eastus", "eastus2"},
	"brazilsouth":    {"eastus2", "southcentralus"},
	"centralindia":   {"southindia", "westindia"},
}

// AdjacentRegions returns the alternatives for a region, using the
// same key normalization the price caches use.
func AdjacentRegions(region string) []string {
	key := strings.ReplaceAll(strings.ToLower(region), " ", "")
	return RegionAlternatives[key]
}
