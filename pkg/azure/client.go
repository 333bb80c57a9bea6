// Package azure wraps the management-plane SDK clients behind the
// narrow interfaces the analysis engine consumes. All algorithmic
// decisions live elsewhere; this layer only maps wire shapes onto
// domain structs.
package azure

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/advisor/armadvisor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/rs/zerolog"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// Client bundles the compute, monitor, and advisor clients for one
// subscription. It satisfies the engine's Inventory, Catalog,
// AdvisorSource, and ConstraintChecker contracts.
type Client struct {
	subscriptionID string
	vms            *armcompute.VirtualMachinesClient
	skus           *armcompute.ResourceSKUsClient
	usage          *armcompute.UsageClient
	metrics        *armmonitor.MetricsClient
	advisor        *armadvisor.RecommendationsClient

	// catalogIndex keeps per-region SKU lookups (plus their quota
	// family names) for the constraint checker. Insert-only per run.
	mu           sync.Mutex
	catalogIndex map[string]map[string]catalogEntry
}

type catalogEntry struct {
	sku       *domain.SKU
	armFamily string
}

func NewClient(subscriptionID string, cred azcore.TokenCredential) (*Client, error) {
	vms, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create VM client: %w", err)
	}
	skus, err := armcompute.NewResourceSKUsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SKU client: %w", err)
	}
	usage, err := armcompute.NewUsageClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage client: %w", err)
	}
	metrics, err := armmonitor.NewMetricsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	advisor, err := armadvisor.NewRecommendationsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create advisor client: %w", err)
	}
	return &Client{
		subscriptionID: subscriptionID,
		vms:            vms,
		skus:           skus,
		usage:          usage,
		metrics:        metrics,
		advisor:        advisor,
		catalogIndex:   make(map[string]map[string]catalogEntry),
	}, nil
}

// ListVMs returns the running inventory, optionally scoped to one
// resource group. Power state comes from the instance view; VMs whose
// instance view cannot be fetched keep an empty power state.
func (c *Client) ListVMs(ctx context.Context, resourceGroup string) ([]*domain.VM, error) {
	logger := zerolog.Ctx(ctx)
	var out []*domain.VM

	pager := c.vms.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to page VMs: %w", err)
		}
		for _, v := range page.Value {
			vm := mapVM(v)
			if vm == nil {
				continue
			}
			if resourceGroup != "" && !strings.EqualFold(vm.ResourceGroup, resourceGroup) {
				continue
			}
			view, err := c.vms.InstanceView(ctx, vm.ResourceGroup, vm.Name, nil)
			if err != nil {
				logger.Debug().Err(err).Str("vm", vm.Name).Msg("instance view unavailable")
			} else {
				vm.PowerState = powerState(view.Statuses)
			}
			out = append(out, vm)
		}
	}
	return out, nil
}

func mapVM(v *armcompute.VirtualMachine) *domain.VM {
	if v == nil || v.Name == nil || v.ID == nil || v.Properties == nil {
		return nil
	}
	vm := &domain.VM{
		Name:          *v.Name,
		ID:            *v.ID,
		ResourceGroup: resourceGroupFromID(*v.ID),
		Tags:          map[string]string{},
	}
	if v.Location != nil {
		vm.Location = *v.Location
	}
	for k, val := range v.Tags {
		if val != nil {
			vm.Tags[k] = *val
		}
	}
	if hw := v.Properties.HardwareProfile; hw != nil && hw.VMSize != nil {
		vm.Size = string(*hw.VMSize)
	}
	if sp := v.Properties.StorageProfile; sp != nil {
		vm.DataDiskCount = len(sp.DataDisks)
		if sp.OSDisk != nil && sp.OSDisk.OSType != nil {
			vm.OSType = string(*sp.OSDisk.OSType)
		}
	}
	if np := v.Properties.NetworkProfile; np != nil {
		vm.NICCount = len(np.NetworkInterfaces)
	}
	return vm
}

func resourceGroupFromID(id string) string {
	parts := strings.Split(id, "/")
	for i := 0; i < len(parts)-1; i++ {
		if strings.EqualFold(parts[i], "resourceGroups") {
			return parts[i+1]
		}
	}
	return ""
}

func powerState(statuses []*armcompute.InstanceViewStatus) string {
	for _, s := range statuses {
		if s.Code != nil && strings.HasPrefix(*s.Code, "PowerState/") {
			return strings.TrimPrefix(*s.Code, "PowerState/")
		}
	}
	return ""
}

// EnrichMetrics fills the VM's utilization summaries from the monitor
// API over the lookback window. memoryGB converts available-memory
// samples into used-percent; zero disables the memory metrics.
func (c *Client) EnrichMetrics(ctx context.Context, vm *domain.VM, lookbackDays int, memoryGB float64) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookbackDays)
	timespan := fmt.Sprintf("%s/%s", start.Format(time.RFC3339), end.Format(time.RFC3339))

	resp, err := c.metrics.List(ctx, vm.ID, &armmonitor.MetricsClientListOptions{
		Timespan:    to.Ptr(timespan),
		Interval:    to.Ptr("PT1H"),
		Metricnames: to.Ptr("Percentage CPU,Available Memory Bytes,Disk Read Operations/Sec,Disk Write Operations/Sec,Network In Total,Network Out Total"),
		Aggregation: to.Ptr("Average,Maximum"),
	})
	if err != nil {
		return fmt.Errorf("failed to query metrics for %s: %w", vm.Name, err)
	}

	var diskRead, diskWrite *float64
	for _, metric := range resp.Value {
		if metric.Name == nil || metric.Name.Value == nil {
			continue
		}
		avg, max := summarize(metric)
		switch *metric.Name.Value {
		case "Percentage CPU":
			vm.AvgCPU, vm.MaxCPU = avg, max
		case "Available Memory Bytes":
			vm.AvgMemory = availableToUsedPercent(avg, memoryGB)
			// Peak memory use corresponds to the lowest availability,
			// which hourly Maximum aggregation cannot express; the
			// average-based figure is reused as a floor.
			vm.MaxMemory = availableToUsedPercent(avg, memoryGB)
		case "Disk Read Operations/Sec":
			diskRead = avg
		case "Disk Write Operations/Sec":
			diskWrite = avg
		case "Network In Total":
			vm.AvgNetworkIn = avg
		case "Network Out Total":
			vm.AvgNetworkOut = avg
		}
	}
	if diskRead != nil || diskWrite != nil {
		total := 0.0
		if diskRead != nil {
			total += *diskRead
		}
		if diskWrite != nil {
			total += *diskWrite
		}
		vm.AvgDiskIOPS = &total
	}
	return nil
}

// summarize reduces a metric's time series to (avg of averages, max of
// maximums). Nil when no data points exist.
func summarize(metric *armmonitor.Metric) (*float64, *float64) {
	var sum float64
	var count int
	var peak *float64
	for _, series := range metric.Timeseries {
		for _, point := range series.Data {
			if point.Average != nil {
				sum += *point.Average
				count++
			}
			if point.Maximum != nil && (peak == nil || *point.Maximum > *peak) {
				v := *point.Maximum
				peak = &v
			}
		}
	}
	var avg *float64
	if count > 0 {
		v := sum / float64(count)
		avg = &v
	}
	return avg, peak
}

// availableToUsedPercent converts average available bytes into a
// used-memory percentage, clamped to 0..100.
func availableToUsedPercent(availableBytes *float64, memoryGB float64) *float64 {
	if availableBytes == nil || memoryGB <= 0 {
		return nil
	}
	total := memoryGB * 1024 * 1024 * 1024
	used := (total - *availableBytes) / total * 100
	if used < 0 {
		used = 0
	}
	if used > 100 {
		used = 100
	}
	return &used
}

// ListSKUs returns the VM sizes purchasable in a region. Restricted
// sizes are dropped unless includeRestricted is set; either way the
// full region index is retained for later constraint checks.
func (c *Client) ListSKUs(ctx context.Context, region string, includeRestricted bool) ([]*domain.SKU, error) {
	key := strings.ReplaceAll(strings.ToLower(region), " ", "")
	index := make(map[string]catalogEntry)
	var out []*domain.SKU

	pager := c.skus.NewListPager(&armcompute.ResourceSKUsClientListOptions{
		Filter: to.Ptr(fmt.Sprintf("location eq '%s'", key)),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to page SKUs for %s: %w", region, err)
		}
		for _, raw := range page.Value {
			if raw.ResourceType == nil || *raw.ResourceType != "virtualMachines" || raw.Name == nil {
				continue
			}
			sku := mapSKU(raw)
			armFamily := ""
			if raw.Family != nil {
				armFamily = *raw.Family
			}
			index[sku.Name] = catalogEntry{sku: sku, armFamily: armFamily}
			if sku.IsRestricted && !includeRestricted {
				continue
			}
			out = append(out, sku)
		}
	}

	c.mu.Lock()
	c.catalogIndex[key] = index
	c.mu.Unlock()
	return out, nil
}

// mapSKU flattens the catalog API's string-keyed capability list into
// the closed descriptor the engine works with. Unknown capability keys
// are dropped here, never threaded through the core.
func mapSKU(raw *armcompute.ResourceSKU) *domain.SKU {
	sku := &domain.SKU{Name: *raw.Name}
	if raw.Family != nil {
		sku.Family = *raw.Family
	}

	for _, capability := range raw.Capabilities {
		if capability.Name == nil || capability.Value == nil {
			continue
		}
		value := *capability.Value
		switch *capability.Name {
		case "vCPUs":
			sku.VCPUs = parseInt(value)
		case "MemoryGB":
			sku.MemoryGB = parseFloat(value)
		case "MaxDataDiskCount":
			sku.MaxDataDisks = parseInt(value)
		case "UncachedDiskIOPS":
			sku.MaxIOPS = parseInt(value)
		case "MaxNetworkInterfaces":
			// informational only
		case "CombinedTempDiskAndCachedIOPS":
			if sku.MaxIOPS == 0 {
				sku.MaxIOPS = parseInt(value)
			}
		case "MaxBandwidthMbps", "AcceleratedNetworkingBandwidthMbps":
			if mbps := parseInt(value); mbps > sku.MaxNetworkMbps {
				sku.MaxNetworkMbps = mbps
			}
		case "HyperVGenerations":
			sku.Generation = value
		case "PremiumIO":
			addFeatureIf(sku, value, domain.FeaturePremiumStorage)
		case "AcceleratedNetworkingEnabled":
			addFeatureIf(sku, value, domain.FeatureAcceleratedNetworking)
		case "EphemeralOSDiskSupported":
			addFeatureIf(sku, value, domain.FeatureEphemeralOSDisk)
		case "LowPriorityCapable":
			addFeatureIf(sku, value, domain.FeatureSpotCapable)
		case "EncryptionAtHostSupported":
			addFeatureIf(sku, value, domain.FeatureEncryptionAtHost)
		case "UltraSSDAvailable":
			addFeatureIf(sku, value, domain.FeatureUltraSSD)
		case "NestedVirtualizationSupported":
			addFeatureIf(sku, value, domain.FeatureNestedVirtualization)
		case "CpuArchitectureType":
			sku.Features = append(sku.Features, "Arch:"+value)
		case "ConfidentialComputingType":
			sku.Features = append(sku.Features, "Confidential:"+value)
		}
	}

	for _, r := range raw.Restrictions {
		restriction := domain.SKURestriction{}
		if r.Type != nil {
			restriction.Type = string(*r.Type)
		}
		if r.ReasonCode != nil {
			restriction.ReasonCode = string(*r.ReasonCode)
		}
		if info := r.RestrictionInfo; info != nil {
			for _, loc := range info.Locations {
				if loc != nil {
					restriction.Locations = append(restriction.Locations, *loc)
				}
			}
			for _, z := range info.Zones {
				if z != nil {
					restriction.Zones = append(restriction.Zones, *z)
				}
			}
		}
		sku.Restrictions = append(sku.Restrictions, restriction)
		if restriction.Type == "Location" {
			sku.IsRestricted = true
		}
	}

	for _, info := range raw.LocationInfo {
		for _, z := range info.Zones {
			if z != nil {
				sku.AvailableZones = append(sku.AvailableZones, *z)
			}
		}
	}
	return sku
}

func addFeatureIf(sku *domain.SKU, value, feature string) {
	if strings.EqualFold(value, "True") {
		sku.Features = append(sku.Features, feature)
	}
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ValidateSKU checks restriction, capability, and quota constraints
// for deploying the SKU in a location. It relies on the catalog index
// built by ListSKUs; a SKU outside the index is reported as not
// present in the region.
func (c *Client) ValidateSKU(ctx context.Context, skuName, location string, requiredVCPUs int, requiredFeatures []string) (*domain.ValidationOutcome, error) {
	key := strings.ReplaceAll(strings.ToLower(location), " ", "")

	c.mu.Lock()
	index, ok := c.catalogIndex[key]
	c.mu.Unlock()
	if !ok {
		if _, err := c.ListSKUs(ctx, location, true); err != nil {
			return nil, err
		}
		c.mu.Lock()
		index = c.catalogIndex[key]
		c.mu.Unlock()
	}

	outcome := &domain.ValidationOutcome{Valid: true}
	entry, ok := index[skuName]
	if !ok {
		outcome.Valid = false
		outcome.Issues = append(outcome.Issues, fmt.Sprintf("SKU not available in %s", location))
		return outcome, nil
	}
	sku := entry.sku

	if sku.IsRestricted {
		outcome.Valid = false
		outcome.Issues = append(outcome.Issues, sku.RestrictionReason())
	}
	if requiredVCPUs > 0 && sku.VCPUs < requiredVCPUs {
		outcome.Valid = false
		outcome.Issues = append(outcome.Issues, fmt.Sprintf("provides %d vCPUs, %d required", sku.VCPUs, requiredVCPUs))
	}
	for _, f := range requiredFeatures {
		if !sku.HasFeature(f) {
			outcome.Valid = false
			outcome.Issues = append(outcome.Issues, fmt.Sprintf("missing required capability %s", f))
		}
	}
	outcome.AvailableZones = sku.AvailableZones

	quota, err := c.familyQuota(ctx, key, entry.armFamily)
	if err != nil {
		// Quota API failure leaves the restriction verdict standing.
		zerolog.Ctx(ctx).Debug().Err(err).Str("sku", skuName).Msg("quota lookup failed")
		return outcome, nil
	}
	if quota != nil {
		outcome.Quota = quota
		if requiredVCPUs > 0 && quota.Available < int32(requiredVCPUs) {
			outcome.Valid = false
			outcome.Issues = append(outcome.Issues,
				fmt.Sprintf("insufficient quota: %d vCPUs available, %d required", quota.Available, requiredVCPUs))
		}
	}
	return outcome, nil
}

func (c *Client) familyQuota(ctx context.Context, location, armFamily string) (*domain.QuotaInfo, error) {
	if armFamily == "" {
		return nil, nil
	}
	pager := c.usage.NewListPager(location, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to page quota usage: %w", err)
		}
		for _, u := range page.Value {
			if u.Name == nil || u.Name.Value == nil || !strings.EqualFold(*u.Name.Value, armFamily) {
				continue
			}
			q := &domain.QuotaInfo{}
			if u.CurrentValue != nil {
				q.Used = *u.CurrentValue
			}
			if u.Limit != nil {
				q.Limit = int32(*u.Limit)
			}
			q.Available = q.Limit - q.Used
			return q, nil
		}
	}
	return nil, nil
}

// CostRecommendations returns advisor cost hints for VM resources.
func (c *Client) CostRecommendations(ctx context.Context) ([]*domain.AdvisorRecommendation, error) {
	var out []*domain.AdvisorRecommendation
	pager := c.advisor.NewListPager(&armadvisor.RecommendationsClientListOptions{
		Filter: to.Ptr("Category eq 'Cost'"),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to page advisor recommendations: %w", err)
		}
		for _, raw := range page.Value {
			if raw.Properties == nil {
				continue
			}
			props := raw.Properties
			if props.ImpactedField == nil || !strings.EqualFold(*props.ImpactedField, "Microsoft.Compute/virtualMachines") {
				continue
			}
			rec := &domain.AdvisorRecommendation{}
			if props.ImpactedValue != nil {
				rec.ResourceName = *props.ImpactedValue
			}
			for k, v := range props.ExtendedProperties {
				if v == nil {
					continue
				}
				switch k {
				case "currentSku":
					rec.CurrentSKU = *v
				case "targetSku":
					rec.TargetSKU = *v
				case "savingsAmount", "annualSavingsAmount":
					if rec.Savings == 0 {
						rec.Savings = tolerantFloat(*v)
					}
				case "savingsPercentage":
					rec.SavingsPercent = tolerantFloat(*v)
				}
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// tolerantFloat parses advisor extended-property numbers, which arrive
// as strings with occasional currency noise.
func tolerantFloat(s string) float64 {
	cleaned := strings.TrimSpace(strings.Trim(s, "$USD "))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
