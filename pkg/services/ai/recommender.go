// Package ai asks a text-completion provider to arbitrate rightsizing
// trade-offs and turns its free-form output into normalized
// recommendations.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/retry"
)

// maxPromptCandidates caps how many scored candidates are embedded in
// a prompt.
const maxPromptCandidates = 20

// Provider is a pluggable text-completion backend.
type Provider interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Recommender wraps a Provider with a global concurrency limit and a
// transient-failure retry. One Recommender is shared across all
// concurrent VM analyses; its semaphore bounds outbound model calls
// independently of the analysis worker width.
type Recommender struct {
	provider Provider
	sem      *semaphore.Weighted
	policy   retry.Policy
}

func NewRecommender(provider Provider, maxParallel int64) *Recommender {
	if maxParallel <= 0 {
		maxParallel = 5
	}
	return &Recommender{
		provider: provider,
		sem:      semaphore.NewWeighted(maxParallel),
		policy: retry.Policy{
			Attempts:  3,
			BaseDelay: time.Second,
			Transient: retry.TransientText,
		},
	}
}

// Recommend asks the provider for a rightsizing verdict on one VM. A
// (nil, nil) return means the model produced no usable structure; that
// is a normal outcome, not a failure.
func (r *Recommender) Recommend(ctx context.Context, vm *domain.VM, candidates []*domain.Candidate) (*domain.AIRecommendation, error) {
	prompt := buildPrompt(vm, candidates)

	text, err := r.complete(ctx, prompt, 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion for %s: %w", vm.Name, err)
	}

	raw, ok := ExtractJSON(text)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("vm", vm.Name).Msg("completion carried no parseable recommendation")
		return nil, nil
	}
	return normalize(raw, vm.Size), nil
}

// Summarize produces a free-text executive summary over a finished
// report.
func (r *Recommender) Summarize(ctx context.Context, report *domain.AnalysisReport) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a cloud cost analyst. Summarize this VM rightsizing analysis for an executive audience in at most 200 words.\n\n")
	fmt.Fprintf(&b, "VMs analyzed: %d of %d\n", report.AnalyzedVMs, report.TotalVMs)
	fmt.Fprintf(&b, "Current monthly cost: $%.2f\n", report.TotalCost)
	fmt.Fprintf(&b, "Potential monthly savings: $%.2f\n", report.PotentialSavings)
	for typ, count := range report.TypeCounts {
		fmt.Fprintf(&b, "- %s: %d\n", typ, count)
	}
	text, err := r.complete(ctx, b.String(), 512)
	if err != nil {
		return "", fmt.Errorf("failed to summarize report: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (r *Recommender) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	var text string
	err := r.policy.Do(ctx, func() error {
		var err error
		text, err = r.provider.Complete(ctx, prompt, maxTokens)
		return err
	})
	return text, err
}

func buildPrompt(vm *domain.VM, candidates []*domain.Candidate) string {
	var b strings.Builder
	b.WriteString("You are an expert in VM rightsizing. Recommend the best size for this VM.\n\n")
	fmt.Fprintf(&b, "VM: %s\n", vm.Name)
	fmt.Fprintf(&b, "Current size: %s\n", vm.Size)
	fmt.Fprintf(&b, "Region: %s, OS: %s\n", vm.Location, vm.OSType)
	fmt.Fprintf(&b, "Environment: %s\n", inferEnvironment(vm))
	fmt.Fprintf(&b, "Workload: %s\n", inferWorkload(vm.Name))
	fmt.Fprintf(&b, "Current monthly cost: $%.2f\n", vm.MonthlyPrice)

	b.WriteString("\nUtilization over the lookback window:\n")
	writeMetric(&b, "Avg CPU %", vm.AvgCPU)
	writeMetric(&b, "Max CPU %", vm.MaxCPU)
	writeMetric(&b, "Avg memory %", vm.AvgMemory)
	writeMetric(&b, "Max memory %", vm.MaxMemory)
	writeMetric(&b, "Avg disk IOPS", vm.AvgDiskIOPS)

	b.WriteString("\nCandidate sizes (ranked):\n")
	n := len(candidates)
	if n > maxPromptCandidates {
		n = maxPromptCandidates
	}
	for i := 0; i < n; i++ {
		c := candidates[i]
		fmt.Fprintf(&b, "%d. %s (%d vCPU, %.0f GB) $%.2f/month, saves $%.2f\n",
			i+1, c.SKU, c.VCPUs, c.MemoryGB, c.MonthlyPrice, c.Savings)
	}

	b.WriteString(`
Respond with only a JSON object:
{
  "recommended_sku": "...",
  "confidence": "High|Medium|Low",
  "reasoning": "...",
  "risk_assessment": "...",
  "estimated_monthly_savings": 0.0,
  "migration_complexity": "Low|Medium|High",
  "recommended_actions": ["..."]
}
`)
	return b.String()
}

func writeMetric(b *strings.Builder, label string, v *float64) {
	if v == nil {
		fmt.Fprintf(b, "- %s: unavailable\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %.1f\n", label, *v)
}
