// Package validation checks ranked candidates against live quota,
// zone, and restriction data and reorders the list so the top
// recommendation is never a SKU confirmed as blocked.
package validation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// topN is how many ranked candidates get validated per VM. Validation
// hits live quota APIs, so the full top-10 is deliberately not checked.
const topN = 3

// quotaWarnPercent is the usage level above which the chosen candidate
// gets a non-blocking quota warning.
const quotaWarnPercent = 80.0

// ConstraintChecker is the live deployability lookup. Implementations
// wrap the platform's quota, restriction, and zone APIs.
type ConstraintChecker interface {
	ValidateSKU(ctx context.Context, sku, location string, requiredVCPUs int, requiredFeatures []string) (*domain.ValidationOutcome, error)
}

type Validator struct {
	checker ConstraintChecker
}

func New(checker ConstraintChecker) *Validator {
	return &Validator{checker: checker}
}

// ValidateTop validates the first three candidates of the result and
// promotes the first confirmed-deployable one to the front. When every
// checked candidate is confirmed blocked, the result is flagged as not
// deployment-feasible with the restriction messages accumulated.
// Checker errors leave a candidate's validity untouched; an inability
// to check is not evidence of infeasibility.
func (v *Validator) ValidateTop(ctx context.Context, vm *domain.VM, result *domain.RightsizingResult) {
	logger := zerolog.Ctx(ctx)
	candidates := result.Candidates
	if len(candidates) == 0 {
		return
	}

	n := topN
	if len(candidates) < n {
		n = len(candidates)
	}

	firstValid := -1
	checked := 0
	outcomes := make([]*domain.ValidationOutcome, n)
	for i := 0; i < n; i++ {
		c := candidates[i]
		outcome, err := v.checker.ValidateSKU(ctx, c.SKU, vm.Location, c.VCPUs, nil)
		if err != nil {
			logger.Warn().Err(err).Str("vm", vm.Name).Str("sku", c.SKU).
				Msg("could not confirm deployability")
			continue
		}
		checked++
		outcomes[i] = outcome
		c.Valid = outcome.Valid
		c.Issues = append(c.Issues, outcome.Issues...)
		if outcome.Valid && firstValid == -1 {
			firstValid = i
		}
	}

	switch {
	case firstValid > 0:
		promoted := candidates[firstValid]
		outcome := outcomes[firstValid]
		copy(candidates[1:firstValid+1], candidates[:firstValid])
		candidates[0] = promoted
		outcomes[firstValid] = outcomes[0]
		outcomes[0] = outcome
		logger.Debug().Str("vm", vm.Name).Str("sku", promoted.SKU).Int("from", firstValid).
			Msg("promoted first deployable candidate")
	case firstValid == -1 && checked > 0:
		result.DeploymentFeasible = false
		for i := 0; i < n; i++ {
			c := candidates[i]
			for _, issue := range c.Issues {
				result.ConstraintIssues = append(result.ConstraintIssues,
					fmt.Sprintf("%s: %s", c.SKU, issue))
			}
		}
	}

	if outcome := outcomes[0]; outcome != nil && outcome.Quota != nil {
		if pct := outcome.Quota.UsagePercent(); pct >= quotaWarnPercent {
			result.QuotaWarnings = append(result.QuotaWarnings,
				fmt.Sprintf("%s family quota at %.0f%% in %s", candidates[0].SKU, pct, vm.Location))
		}
	}
}
