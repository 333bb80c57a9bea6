// Package analysis orchestrates a full rightsizing run: discovery,
// cache prefetch, bounded-concurrency per-VM analysis, and report
// aggregation.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/config"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/ai"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/scoring"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/validation"
)

// Shutdown thresholds: a VM this idle is cheaper off than resized.
const (
	shutdownAvgCPU = 5.0
	shutdownMaxCPU = 10.0
)

// Priority tiers by absolute monthly savings.
const (
	priorityHighSavings   = 500.0
	priorityMediumSavings = 100.0
)

// Options tunes one analysis run.
type Options struct {
	Subscription  string
	ResourceGroup string
	Workers       int
	LookbackDays  int
	VMTimeout     time.Duration
	BatchTimeout  time.Duration
	Policy        scoring.Policy
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = 10
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = 30
	}
	if o.VMTimeout <= 0 {
		o.VMTimeout = 60 * time.Second
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = 5 * time.Minute
	}
}

// Engine wires the collaborators together for one or more runs. All
// collaborators are injected; advisor, recommender, and store may be
// nil, degrading those features gracefully.
type Engine struct {
	inventory   Inventory
	catalog     Catalog
	prices      PriceSource
	advisor     AdvisorSource
	validator   *validation.Validator
	recommender *ai.Recommender
	store       Store
	opts        Options

	catalogs   *catalogCache
	priceTable *priceCache
}

func NewEngine(inventory Inventory, catalog Catalog, prices PriceSource, checker validation.ConstraintChecker, opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		inventory:  inventory,
		catalog:    catalog,
		prices:     prices,
		validator:  validation.New(checker),
		opts:       opts,
		catalogs:   newCatalogCache(),
		priceTable: newPriceCache(),
	}
}

// WithAdvisor attaches a platform advisor hint source.
func (e *Engine) WithAdvisor(a AdvisorSource) *Engine {
	e.advisor = a
	return e
}

// WithRecommender enables AI arbitration per VM plus the executive
// summary.
func (e *Engine) WithRecommender(r *ai.Recommender) *Engine {
	e.recommender = r
	return e
}

// WithStore persists finished reports.
func (e *Engine) WithStore(s Store) *Engine {
	e.store = s
	return e
}

// AnalyzeSubscription runs the full pipeline and returns the finished
// report, results sorted by descending potential savings. Only total
// inability to list the inventory aborts the run; per-VM failures are
// logged and excluded.
func (e *Engine) AnalyzeSubscription(ctx context.Context) (*domain.AnalysisReport, error) {
	logger := zerolog.Ctx(ctx)

	vms, err := e.inventory.ListVMs(ctx, e.opts.ResourceGroup)
	if err != nil {
		return nil, fmt.Errorf("failed to list VMs: %w", err)
	}
	logger.Info().Int("vms", len(vms)).Msg("discovered inventory")

	advisorByName := e.fetchAdvisorHints(ctx)
	e.prefetch(ctx, vms)

	report := &domain.AnalysisReport{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Subscription: e.opts.Subscription,
		TotalVMs:     len(vms),
		TypeCounts:   make(map[string]int),
	}

	batchCtx, cancel := context.WithTimeout(ctx, e.opts.BatchTimeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(e.opts.Workers)
	for _, vm := range vms {
		vm := vm
		g.Go(func() error {
			vmCtx, cancel := context.WithTimeout(gctx, e.opts.VMTimeout)
			defer cancel()

			result, err := e.analyzeVM(vmCtx, vm, advisorByName)
			if err != nil {
				logger.Warn().Err(err).Str("vm", vm.Name).Msg("excluding VM from report")
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			report.Results = append(report.Results, result)
			report.AnalyzedVMs++
			report.TotalCost += vm.MonthlyPrice
			report.PotentialSavings += result.PotentialSavings
			report.TypeCounts[string(result.Type)]++
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(report.Results, func(i, j int) bool {
		return report.Results[i].PotentialSavings > report.Results[j].PotentialSavings
	})

	if e.recommender != nil {
		summary, err := e.recommender.Summarize(ctx, report)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping executive summary")
		} else {
			report.ExecutiveSummary = summary
		}
	}

	if e.store != nil {
		if err := e.store.SaveReport(ctx, report); err != nil {
			logger.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to persist report")
		}
	}
	return report, nil
}

// fetchAdvisorHints indexes advisor cost recommendations by resource
// name. Failures degrade to no hints.
func (e *Engine) fetchAdvisorHints(ctx context.Context) map[string]*domain.AdvisorRecommendation {
	hints := make(map[string]*domain.AdvisorRecommendation)
	if e.advisor == nil {
		return hints
	}
	recs, err := e.advisor.CostRecommendations(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("advisor hints unavailable")
		return hints
	}
	for _, r := range recs {
		hints[r.ResourceName] = r
	}
	return hints
}

// prefetch warms the catalog cache per distinct region and the price
// cache per VM's current SKU. Failures are swallowed; a failed
// prefetch is just a cache miss handled lazily later.
func (e *Engine) prefetch(ctx context.Context, vms []*domain.VM) {
	regions := make(map[string]string)
	for _, vm := range vms {
		regions[regionKey(vm.Location)] = vm.Location
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, region := range regions {
		region := region
		g.Go(func() error {
			if _, err := e.regionSKUs(gctx, region); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("region", region).Msg("catalog prefetch failed")
			}
			return nil
		})
	}
	for _, vm := range vms {
		vm := vm
		g.Go(func() error {
			e.price(gctx, vm.Size, vm.Location, vm.OSType)
			return nil
		})
	}
	_ = g.Wait()
}

// analyzeVM runs the per-instance pipeline: enrich, classify, score,
// validate, arbitrate. Everything here is sequential within the task.
func (e *Engine) analyzeVM(ctx context.Context, vm *domain.VM, advisorByName map[string]*domain.AdvisorRecommendation) (*domain.RightsizingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	if hourly, ok := e.price(ctx, vm.Size, vm.Location, vm.OSType); ok {
		vm.HourlyPrice = hourly
		vm.MonthlyPrice = hourly * domain.HoursPerMonth
	}

	catalog, err := e.regionSKUs(ctx, vm.Location)
	if err != nil {
		logger.Warn().Err(err).Str("vm", vm.Name).Msg("no catalog for region, scoring skipped")
	}

	var currentMemoryGB float64
	for _, s := range catalog {
		if s.Name == vm.Size {
			currentMemoryGB = s.MemoryGB
			break
		}
	}
	if err := e.inventory.EnrichMetrics(ctx, vm, e.opts.LookbackDays, currentMemoryGB); err != nil {
		logger.Warn().Err(err).Str("vm", vm.Name).Msg("metrics unavailable")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &domain.RightsizingResult{
		VM:                 vm,
		Type:               domain.RecommendationNone,
		Priority:           domain.PriorityLow,
		DeploymentFeasible: true,
	}

	// An essentially idle VM short-circuits everything else; the saving
	// is its entire current cost.
	if vm.AvgCPU != nil && vm.MaxCPU != nil &&
		*vm.AvgCPU < shutdownAvgCPU && *vm.MaxCPU < shutdownMaxCPU {
		result.Type = domain.RecommendationShutdown
		result.PotentialSavings = vm.MonthlyPrice
		result.Priority = domain.PriorityHigh
		return result, nil
	}

	e.evaluateGenerationUpgrade(ctx, vm, catalog, result)

	if adv, ok := advisorByName[vm.Name]; ok {
		result.Advisor = adv
		consider(result, domain.RecommendationRightsize, adv.Savings)
	}

	priceFn := func(sku, region, osType string) (float64, bool) {
		return e.price(ctx, sku, region, osType)
	}
	result.Candidates = scoring.Rank(vm, catalog, priceFn, e.opts.Policy)
	if len(result.Candidates) == 0 && len(catalog) > 0 {
		logger.Debug().Str("vm", vm.Name).Str("size", vm.Size).Msg("no candidates ranked")
	}
	e.validator.ValidateTop(ctx, vm, result)
	if !result.DeploymentFeasible {
		result.AlternativeSKUs = e.suggestAlternatives(result, catalog)
	}

	if e.recommender != nil {
		rec, err := e.recommender.Recommend(ctx, vm, result.Candidates)
		if err != nil {
			logger.Warn().Err(err).Str("vm", vm.Name).Msg("AI recommendation unavailable")
		} else if rec != nil {
			result.AI = rec
			consider(result, domain.RecommendationRightsize, rec.Savings)
		}
	}

	e.evaluateRegionAlternatives(ctx, vm, result)

	if len(result.Candidates) > 0 {
		consider(result, domain.RecommendationRightsize, result.Candidates[0].Savings)
	}

	result.Priority = priorityFor(result.PotentialSavings)
	return result, nil
}

// suggestAlternatives offers SKUs similar in shape to the blocked top
// candidate so the report still shows a deployable path. Candidates
// already confirmed blocked are excluded from the suggestions.
func (e *Engine) suggestAlternatives(result *domain.RightsizingResult, catalog []*domain.SKU) []domain.SKUSuggestion {
	if len(result.Candidates) == 0 {
		return nil
	}
	var target *domain.SKU
	for _, s := range catalog {
		if s.Name == result.Candidates[0].SKU {
			target = s
			break
		}
	}
	exclude := make(map[string]bool)
	for _, c := range result.Candidates {
		if !c.Valid && len(c.Issues) > 0 {
			exclude[c.SKU] = true
		}
	}
	return validation.SimilarSKUs(target, catalog, exclude)
}

// evaluateGenerationUpgrade proposes the mapped successor SKU only
// when it is present in the region's catalog and priced below current.
// An unavailable or pricier target is silently withheld.
func (e *Engine) evaluateGenerationUpgrade(ctx context.Context, vm *domain.VM, catalog []*domain.SKU, result *domain.RightsizingResult) {
	target, ok := config.GenerationTarget(vm.Size)
	if !ok || target == vm.Size || vm.MonthlyPrice <= 0 {
		return
	}
	present := false
	for _, s := range catalog {
		if s.Name == target {
			present = true
			break
		}
	}
	if !present {
		return
	}
	hourly, ok := e.price(ctx, target, vm.Location, vm.OSType)
	if !ok {
		return
	}
	monthly := hourly * domain.HoursPerMonth
	if monthly >= vm.MonthlyPrice {
		return
	}
	result.GenerationUpgrade = target
	consider(result, domain.RecommendationGenerationUpgrade, vm.MonthlyPrice-monthly)
}

// evaluateRegionAlternatives checks the static adjacency table for
// regions where the current SKU is strictly cheaper.
func (e *Engine) evaluateRegionAlternatives(ctx context.Context, vm *domain.VM, result *domain.RightsizingResult) {
	adjacent := config.AdjacentRegions(vm.Location)
	if len(adjacent) == 0 || vm.MonthlyPrice <= 0 {
		return
	}
	prices, err := e.prices.Prices(ctx, vm.Size, adjacent, vm.OSType)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("vm", vm.Name).Msg("region price comparison unavailable")
		return
	}
	var alternatives []domain.RegionAlternative
	for region, hourly := range prices {
		monthly := hourly * domain.HoursPerMonth
		if monthly < vm.MonthlyPrice {
			alternatives = append(alternatives, domain.RegionAlternative{
				Region:       region,
				MonthlyPrice: monthly,
				Savings:      vm.MonthlyPrice - monthly,
			})
		}
	}
	if len(alternatives) == 0 {
		return
	}
	sort.Slice(alternatives, func(i, j int) bool {
		return alternatives[i].Savings > alternatives[j].Savings
	})
	result.RegionAlternatives = alternatives
	consider(result, domain.RecommendationRegionMove, alternatives[0].Savings)
}

// consider applies the savings-precedence rule: the recommendation
// type always tracks whichever savings source is currently largest,
// with ties keeping the earlier source.
func consider(result *domain.RightsizingResult, typ domain.RecommendationType, savings float64) {
	if savings > 0 && savings > result.PotentialSavings {
		result.PotentialSavings = savings
		result.Type = typ
	}
}

func priorityFor(savings float64) domain.Priority {
	switch {
	case savings > priorityHighSavings:
		return domain.PriorityHigh
	case savings > priorityMediumSavings:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// regionSKUs resolves the catalog for a region through the insert-only
// cache.
func (e *Engine) regionSKUs(ctx context.Context, region string) ([]*domain.SKU, error) {
	if skus, ok := e.catalogs.get(region); ok {
		return skus, nil
	}
	skus, err := e.catalog.ListSKUs(ctx, region, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list SKUs for %s: %w", region, err)
	}
	e.catalogs.put(region, skus)
	return skus, nil
}

// price resolves an hourly price through the cache. Lookup errors are
// treated as unknown price and not cached.
func (e *Engine) price(ctx context.Context, sku, region, osType string) (float64, bool) {
	if p, ok := e.priceTable.get(sku, region, osType); ok {
		return p, true
	}
	p, ok, err := e.prices.Price(ctx, sku, region, osType)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("sku", sku).Str("region", region).Msg("price lookup failed")
		return 0, false
	}
	if !ok {
		return 0, false
	}
	e.priceTable.put(sku, region, osType, p)
	return p, true
}
