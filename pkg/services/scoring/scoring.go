// Package scoring turns a regional SKU catalog into a ranked shortlist
// of replacement candidates for one VM.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/skuname"
)

// MaxCandidates is the length of the ranked shortlist.
const MaxCandidates = 10

// PriceFunc resolves the hourly retail price for a SKU in a region for
// an OS family. The second return is false when no price is known;
// unpriced SKUs are never recommended.
type PriceFunc func(sku, region, osType string) (float64, bool)

// Weights is the scoring weight vector. Callers keep the four values
// summing to 1.0.
type Weights struct {
	Price       float64
	Performance float64
	Generation  float64
	Features    float64
}

// Policy carries the knobs of one scoring pass.
type Policy struct {
	LowCPUThreshold  float64
	HighCPUThreshold float64
	ShrinkFactor     float64
	GrowFactor       float64

	GenerationLeap       int
	AllowOlderThanTarget bool

	SameFamilyOnly   bool
	ExcludeBurstable bool
	CheckDisks       bool
	CheckNetwork     bool

	Weights Weights
}

// DefaultPolicy mirrors the shipped configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		LowCPUThreshold:      20,
		HighCPUThreshold:     80,
		ShrinkFactor:         0.5,
		GrowFactor:           1.5,
		GenerationLeap:       2,
		AllowOlderThanTarget: true,
		ExcludeBurstable:     true,
		CheckDisks:           true,
		CheckNetwork:         true,
		Weights:              Weights{Price: 0.35, Performance: 0.25, Generation: 0.20, Features: 0.20},
	}
}

// Rank scores every catalog SKU against the VM and returns the top
// candidates by descending score. If the VM's current SKU is absent
// from the catalog (retired sizes), the result is empty; callers
// report this rather than failing the VM.
func Rank(vm *domain.VM, catalog []*domain.SKU, price PriceFunc, p Policy) []*domain.Candidate {
	var current *domain.SKU
	for _, s := range catalog {
		if s.Name == vm.Size {
			current = s
			break
		}
	}
	if current == nil {
		return nil
	}

	factor := 1.0
	if vm.AvgCPU != nil && *vm.AvgCPU < p.LowCPUThreshold {
		factor = p.ShrinkFactor
	}
	if vm.MaxCPU != nil && *vm.MaxCPU > p.HighCPUThreshold {
		factor = p.GrowFactor
	}

	minVCPUs := math.Max(1, float64(current.VCPUs)*factor*0.5)
	maxVCPUs := float64(current.VCPUs) * factor * 1.5
	minMem := math.Max(1, current.MemoryGB*factor*0.5)
	maxMem := current.MemoryGB * factor * 1.5

	currentMonthly := vm.MonthlyPrice
	if currentMonthly <= 0 {
		if hourly, ok := price(current.Name, vm.Location, vm.OSType); ok {
			currentMonthly = hourly * domain.HoursPerMonth
		}
	}

	currentVersion := skuname.VersionNumber(current.Name)
	targetVersion := currentVersion + p.GenerationLeap
	family := skuname.Family(current.Name)

	type scored struct {
		sku     *domain.SKU
		monthly float64
		score   float64
	}
	var survivors []scored

	for _, cand := range catalog {
		if cand.Name == current.Name {
			continue
		}
		if float64(cand.VCPUs) < minVCPUs || float64(cand.VCPUs) > maxVCPUs {
			continue
		}
		if cand.MemoryGB < minMem || cand.MemoryGB > maxMem {
			continue
		}
		if p.CheckDisks && cand.MaxDataDisks < vm.DataDiskCount {
			continue
		}
		if p.CheckNetwork && current.MaxNetworkMbps >= 1000 &&
			cand.MaxNetworkMbps > 0 && cand.MaxNetworkMbps < 1000 {
			continue
		}
		if p.SameFamilyOnly && skuname.Family(cand.Name) != family {
			continue
		}
		if p.ExcludeBurstable && strings.HasPrefix(cand.Name, "Standard_B") {
			continue
		}
		candVersion := skuname.VersionNumber(cand.Name)
		if candVersion < currentVersion {
			continue
		}
		if !p.AllowOlderThanTarget && candVersion < targetVersion {
			continue
		}

		hourly, ok := price(cand.Name, vm.Location, vm.OSType)
		if !ok {
			continue
		}
		monthly := hourly * domain.HoursPerMonth

		score := p.Weights.Price*priceScore(monthly, currentMonthly) +
			p.Weights.Performance*performanceScore(cand, current) +
			p.Weights.Generation*generationScore(candVersion, targetVersion, p.GenerationLeap) +
			p.Weights.Features*featureScore(cand)
		survivors = append(survivors, scored{sku: cand, monthly: monthly, score: score})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].score > survivors[j].score
	})
	if len(survivors) > MaxCandidates {
		survivors = survivors[:MaxCandidates]
	}

	out := make([]*domain.Candidate, 0, len(survivors))
	for _, s := range survivors {
		c := &domain.Candidate{
			SKU:          s.sku.Name,
			VCPUs:        s.sku.VCPUs,
			MemoryGB:     s.sku.MemoryGB,
			MonthlyPrice: s.monthly,
			Score:        s.score,
			Valid:        true,
		}
		if currentMonthly > 0 {
			c.Savings = currentMonthly - s.monthly
			c.SavingsPercent = c.Savings / currentMonthly * 100
		}
		out = append(out, c)
	}
	return out
}

// priceScore maps the candidate/current monthly price ratio onto
// 0..100: free scores 100, double the current price or more scores 0.
func priceScore(candidateMonthly, currentMonthly float64) float64 {
	if currentMonthly <= 0 {
		return 0
	}
	ratio := candidateMonthly / currentMonthly
	return math.Max(0, (2-ratio)*50)
}

// performanceScore penalizes over- and under-provisioning symmetrically
// relative to the current SKU's own resources.
func performanceScore(cand, current *domain.SKU) float64 {
	vcpuFit := 0.0
	if current.VCPUs > 0 {
		ratio := float64(cand.VCPUs) / float64(current.VCPUs)
		vcpuFit = math.Max(0, 100-math.Abs(1-ratio)*100)
	}
	memFit := 0.0
	if current.MemoryGB > 0 {
		ratio := cand.MemoryGB / current.MemoryGB
		memFit = math.Max(0, 100-math.Abs(1-ratio)*100)
	}
	return (vcpuFit + memFit) / 2
}

func generationScore(candVersion, targetVersion, leap int) float64 {
	if leap <= 0 {
		return math.Min(100, float64(candVersion)*20)
	}
	score := math.Max(0, 100-15*math.Abs(float64(candVersion-targetVersion)))
	if candVersion >= targetVersion {
		score = math.Min(100, score+10)
	}
	return score
}

func featureScore(s *domain.SKU) float64 {
	score := 0.0
	if s.HasFeature(domain.FeaturePremiumStorage) {
		score += 30
	}
	if s.HasFeature(domain.FeatureAcceleratedNetworking) {
		score += 30
	}
	if s.HasFeature(domain.FeatureEphemeralOSDisk) {
		score += 20
	}
	return math.Min(100, score)
}
