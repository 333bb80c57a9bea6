package analysis

import (
	"context"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// Inventory lists the VMs in scope and enriches them with utilization
// metrics over a lookback window. memoryGB is the current SKU's memory
// size, needed to convert available-memory samples to used-percent.
type Inventory interface {
	ListVMs(ctx context.Context, resourceGroup string) ([]*domain.VM, error)
	EnrichMetrics(ctx context.Context, vm *domain.VM, lookbackDays int, memoryGB float64) error
}

// Catalog returns the purchasable SKUs for a region.
type Catalog interface {
	ListSKUs(ctx context.Context, region string, includeRestricted bool) ([]*domain.SKU, error)
}

// PriceSource resolves retail prices. Price returns ok=false when no
// price is known for the tuple; that is not an error. Prices is the
// batch variant across regions.
type PriceSource interface {
	Price(ctx context.Context, sku, region, osType string) (float64, bool, error)
	Prices(ctx context.Context, sku string, regions []string, osType string) (map[string]float64, error)
}

// AdvisorSource supplies platform cost recommendations matched later
// to VMs by resource name.
type AdvisorSource interface {
	CostRecommendations(ctx context.Context) ([]*domain.AdvisorRecommendation, error)
}

// Store persists a finished report. Optional; a nil store means the
// report is only returned to the caller.
type Store interface {
	SaveReport(ctx context.Context, report *domain.AnalysisReport) error
}
