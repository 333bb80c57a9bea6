package ai

import (
	"strconv"
	"strings"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// normalize coerces a parsed completion object into a well-formed
// recommendation: enums forced into their closed sets, savings clamped
// non-negative, an empty SKU replaced with the VM's current size.
func normalize(raw map[string]any, currentSKU string) *domain.AIRecommendation {
	rec := &domain.AIRecommendation{
		SKU:        stringField(raw, "recommended_sku"),
		Confidence: enumField(raw, "confidence"),
		Reasoning:  stringField(raw, "reasoning"),
		Risk:       stringField(raw, "risk_assessment"),
		Savings:    floatField(raw, "estimated_monthly_savings"),
		Complexity: enumField(raw, "migration_complexity"),
		Actions:    listField(raw, "recommended_actions"),
	}
	if rec.SKU == "" {
		rec.SKU = currentSKU
	}
	if rec.Savings < 0 {
		rec.Savings = 0
	}
	return rec
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func enumField(raw map[string]any, key string) domain.Confidence {
	s, _ := raw[key].(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return domain.ConfidenceHigh
	case "low":
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceMedium
	}
}

func floatField(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(v, "$"))
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	case int:
		return float64(v)
	}
	return 0
}

func listField(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
