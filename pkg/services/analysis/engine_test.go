package analysis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/scoring"
)

type fakeInventory struct {
	vms       []*domain.VM
	listErr   error
	metricsFn func(ctx context.Context, vm *domain.VM) error
	inFlight  int32
	maxSeen   int32
}

func (f *fakeInventory) ListVMs(ctx context.Context, resourceGroup string) ([]*domain.VM, error) {
	return f.vms, f.listErr
}

func (f *fakeInventory) EnrichMetrics(ctx context.Context, vm *domain.VM, lookbackDays int, memoryGB float64) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, cur) {
			break
		}
	}
	if f.metricsFn != nil {
		return f.metricsFn(ctx, vm)
	}
	return nil
}

type fakeCatalog struct {
	skus map[string][]*domain.SKU
	err  error
}

func (f *fakeCatalog) ListSKUs(ctx context.Context, region string, includeRestricted bool) ([]*domain.SKU, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.skus[regionKey(region)], nil
}

type fakePrices struct {
	hourly map[string]float64 // key: sku:region
}

func (f *fakePrices) key(sku, region string) string { return sku + ":" + regionKey(region) }

func (f *fakePrices) Price(ctx context.Context, sku, region, osType string) (float64, bool, error) {
	p, ok := f.hourly[f.key(sku, region)]
	return p, ok, nil
}

func (f *fakePrices) Prices(ctx context.Context, sku string, regions []string, osType string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, r := range regions {
		if p, ok := f.hourly[f.key(sku, r)]; ok {
			out[r] = p
		}
	}
	return out, nil
}

type fakeChecker struct {
	outcomes map[string]*domain.ValidationOutcome
}

func (f *fakeChecker) ValidateSKU(ctx context.Context, sku, location string, requiredVCPUs int, requiredFeatures []string) (*domain.ValidationOutcome, error) {
	if o, ok := f.outcomes[sku]; ok {
		return o, nil
	}
	return &domain.ValidationOutcome{Valid: true}, nil
}

func metrics(avgCPU, maxCPU float64) func(ctx context.Context, vm *domain.VM) error {
	return func(ctx context.Context, vm *domain.VM) error {
		a, m := avgCPU, maxCPU
		vm.AvgCPU = &a
		vm.MaxCPU = &m
		return nil
	}
}

func westEuropeCatalog() map[string][]*domain.SKU {
	return map[string][]*domain.SKU{
		"westeurope": {
			{Name: "Standard_D2s_v3", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 3000},
			{Name: "Standard_D4s_v3", VCPUs: 4, MemoryGB: 16, MaxDataDisks: 8, MaxNetworkMbps: 6000},
			{Name: "Standard_D2s_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 12500},
			{Name: "Standard_D2as_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 12500},
		},
	}
}

func standardPrices() *fakePrices {
	return &fakePrices{hourly: map[string]float64{
		"Standard_D2s_v3:westeurope":  0.200,
		"Standard_D4s_v3:westeurope":  0.384,
		"Standard_D2s_v5:westeurope":  0.096,
		"Standard_D2as_v5:westeurope": 0.110,
	}}
}

func newTestEngine(inv *fakeInventory, opts Options) *Engine {
	if opts.Policy.Weights.Price == 0 {
		opts.Policy = scoring.DefaultPolicy()
	}
	return NewEngine(inv, &fakeCatalog{skus: westEuropeCatalog()}, standardPrices(), &fakeChecker{}, opts)
}

func TestAnalyzeSubscriptionShutdownScenario(t *testing.T) {
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "idle-01", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"}},
		metricsFn: metrics(3, 8),
	}
	report, err := newTestEngine(inv, Options{}).AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, domain.RecommendationShutdown, r.Type)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
	assert.InDelta(t, 0.384*domain.HoursPerMonth, r.PotentialSavings, 0.001)
	assert.Equal(t, 1, report.TypeCounts[string(domain.RecommendationShutdown)])
}

func TestAnalyzeSubscriptionGenerationUpgrade(t *testing.T) {
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "app-01", Location: "westeurope", Size: "Standard_D2s_v3", OSType: "Linux"}},
		metricsFn: metrics(50, 70),
	}
	report, err := newTestEngine(inv, Options{}).AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, "Standard_D2s_v5", r.GenerationUpgrade)
	assert.Equal(t, domain.RecommendationGenerationUpgrade, r.Type)
	wantSavings := (0.200 - 0.096) * domain.HoursPerMonth
	assert.InDelta(t, wantSavings, r.PotentialSavings, 0.001)
}

func TestAnalyzeSubscriptionPromotion(t *testing.T) {
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "app-02", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"}},
		metricsFn: metrics(12, 45),
	}
	checker := &fakeChecker{outcomes: map[string]*domain.ValidationOutcome{
		"Standard_D2s_v5": {Valid: false, Issues: []string{"Quota restriction"}},
	}}
	engine := NewEngine(inv, &fakeCatalog{skus: westEuropeCatalog()}, standardPrices(), checker,
		Options{Policy: scoring.DefaultPolicy()})

	report, err := engine.AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	require.NotEmpty(t, r.Candidates)
	assert.True(t, r.Candidates[0].Valid)
	assert.NotEqual(t, "Standard_D2s_v5", r.Candidates[0].SKU)
	assert.True(t, r.DeploymentFeasible)
}

func TestAnalyzeSubscriptionShutdownPriorityIgnoresSavingsTier(t *testing.T) {
	prices := &fakePrices{hourly: map[string]float64{
		"Standard_B2s:westeurope": 0.041,
	}}
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "idle-cheap-01", Location: "westeurope", Size: "Standard_B2s", OSType: "Linux"}},
		metricsFn: metrics(3, 8),
	}
	engine := NewEngine(inv, &fakeCatalog{skus: westEuropeCatalog()}, prices, &fakeChecker{},
		Options{Policy: scoring.DefaultPolicy()})

	report, err := engine.AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	// Monthly saving lands far below the Medium tier; the shutdown call
	// still carries High priority.
	r := report.Results[0]
	assert.Equal(t, domain.RecommendationShutdown, r.Type)
	assert.Less(t, r.PotentialSavings, priorityMediumSavings)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
}

func TestAnalyzeSubscriptionSuggestsAlternativesWhenBlocked(t *testing.T) {
	catalog := map[string][]*domain.SKU{
		"westeurope": {
			{Name: "Standard_D4s_v3", VCPUs: 4, MemoryGB: 16, MaxDataDisks: 8, MaxNetworkMbps: 6000},
			{Name: "Standard_D2s_v3", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 3000},
			{Name: "Standard_D2s_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 12500},
			{Name: "Standard_D2as_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 12500},
			{Name: "Standard_D2ads_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4, MaxNetworkMbps: 12500},
		},
	}
	prices := &fakePrices{hourly: map[string]float64{
		"Standard_D4s_v3:westeurope":   0.384,
		"Standard_D2s_v3:westeurope":   0.200,
		"Standard_D2s_v5:westeurope":   0.096,
		"Standard_D2as_v5:westeurope":  0.110,
		"Standard_D2ads_v5:westeurope": 0.150,
	}}
	blocked := &domain.ValidationOutcome{Valid: false, Issues: []string{"Quota restriction"}}
	checker := &fakeChecker{outcomes: map[string]*domain.ValidationOutcome{
		"Standard_D2s_v5":   blocked,
		"Standard_D2as_v5":  blocked,
		"Standard_D2ads_v5": blocked,
	}}
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "app-04", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"}},
		metricsFn: metrics(12, 45),
	}
	engine := NewEngine(inv, &fakeCatalog{skus: catalog}, prices, checker,
		Options{Policy: scoring.DefaultPolicy()})

	report, err := engine.AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.False(t, r.DeploymentFeasible)
	require.NotEmpty(t, r.AlternativeSKUs)
	assert.Equal(t, "Standard_D2s_v3", r.AlternativeSKUs[0].SKU)
	for _, alt := range r.AlternativeSKUs {
		assert.NotContains(t, []string{"Standard_D2s_v5", "Standard_D2as_v5", "Standard_D2ads_v5"}, alt.SKU)
	}
}

func TestAnalyzeSubscriptionWorkerCeiling(t *testing.T) {
	var vms []*domain.VM
	for i := 0; i < 20; i++ {
		vms = append(vms, &domain.VM{Name: "vm", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"})
	}
	inv := &fakeInventory{
		vms: vms,
		metricsFn: func(ctx context.Context, vm *domain.VM) error {
			time.Sleep(10 * time.Millisecond)
			return metrics(50, 70)(ctx, vm)
		},
	}
	report, err := newTestEngine(inv, Options{Workers: 3}).AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, report.AnalyzedVMs)
	assert.LessOrEqual(t, inv.maxSeen, int32(3))
}

func TestAnalyzeSubscriptionFailureIsolation(t *testing.T) {
	inv := &fakeInventory{
		vms: []*domain.VM{
			{Name: "good-01", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"},
			{Name: "stuck-01", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"},
			{Name: "good-02", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"},
		},
		metricsFn: func(ctx context.Context, vm *domain.VM) error {
			if vm.Name == "stuck-01" {
				<-ctx.Done()
				return ctx.Err()
			}
			return metrics(50, 70)(ctx, vm)
		},
	}
	report, err := newTestEngine(inv, Options{VMTimeout: 50 * time.Millisecond}).AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalVMs)
	assert.Equal(t, 2, report.AnalyzedVMs)
	for _, r := range report.Results {
		assert.NotEqual(t, "stuck-01", r.VM.Name)
	}
}

func TestAnalyzeSubscriptionInventoryFailureAborts(t *testing.T) {
	inv := &fakeInventory{listErr: errors.New("subscription not found")}
	_, err := newTestEngine(inv, Options{}).AnalyzeSubscription(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list VMs")
}

func TestAnalyzeSubscriptionReportTotalsAndOrder(t *testing.T) {
	inv := &fakeInventory{
		vms: []*domain.VM{
			{Name: "busy-01", Location: "westeurope", Size: "Standard_D2s_v3", OSType: "Linux"},
			{Name: "idle-01", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"},
		},
		metricsFn: func(ctx context.Context, vm *domain.VM) error {
			if vm.Name == "idle-01" {
				return metrics(3, 8)(ctx, vm)
			}
			return metrics(50, 70)(ctx, vm)
		},
	}
	report, err := newTestEngine(inv, Options{}).AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.TotalVMs)
	assert.Equal(t, 2, report.AnalyzedVMs)
	assert.InDelta(t, (0.200+0.384)*domain.HoursPerMonth, report.TotalCost, 0.001)

	// Idle VM's full-cost saving beats the other's upgrade saving.
	assert.Equal(t, "idle-01", report.Results[0].VM.Name)
	assert.GreaterOrEqual(t, report.Results[0].PotentialSavings, report.Results[1].PotentialSavings)

	var sum float64
	for _, r := range report.Results {
		sum += r.PotentialSavings
	}
	assert.InDelta(t, sum, report.PotentialSavings, 0.001)
}

func TestAnalyzeSubscriptionRegionMove(t *testing.T) {
	prices := &fakePrices{hourly: map[string]float64{
		"Standard_M64s:westeurope":  1.000,
		"Standard_M64s:northeurope": 0.700,
	}}
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "big-01", Location: "westeurope", Size: "Standard_M64s", OSType: "Linux"}},
		metricsFn: metrics(50, 70),
	}
	// Catalog lacks the current SKU, so ranking stays empty and the
	// cheaper adjacent region is the only savings source.
	engine := NewEngine(inv, &fakeCatalog{skus: westEuropeCatalog()}, prices, &fakeChecker{},
		Options{Policy: scoring.DefaultPolicy()})

	report, err := engine.AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, domain.RecommendationRegionMove, r.Type)
	require.NotEmpty(t, r.RegionAlternatives)
	assert.Equal(t, "northeurope", r.RegionAlternatives[0].Region)
	assert.InDelta(t, 0.3*domain.HoursPerMonth, r.PotentialSavings, 0.001)
	assert.Empty(t, r.Candidates)
}

func TestAnalyzeSubscriptionAdvisorHint(t *testing.T) {
	inv := &fakeInventory{
		vms:       []*domain.VM{{Name: "app-03", Location: "westeurope", Size: "Standard_D4s_v3", OSType: "Linux"}},
		metricsFn: metrics(12, 45),
	}
	advisor := &fakeAdvisor{recs: []*domain.AdvisorRecommendation{
		{ResourceName: "app-03", CurrentSKU: "Standard_D4s_v3", TargetSKU: "Standard_D2s_v5", Savings: 999},
	}}
	engine := newTestEngine(inv, Options{}).WithAdvisor(advisor)

	report, err := engine.AnalyzeSubscription(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	require.NotNil(t, r.Advisor)
	assert.Equal(t, 999.0, r.PotentialSavings)
	assert.Equal(t, domain.PriorityHigh, r.Priority)
}

type fakeAdvisor struct {
	recs []*domain.AdvisorRecommendation
	err  error
}

func (f *fakeAdvisor) CostRecommendations(ctx context.Context) ([]*domain.AdvisorRecommendation, error) {
	return f.recs, f.err
}
