package validation

import (
	"sort"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

const (
	maxSuggestions      = 5
	similarityThreshold = 60
)

// SimilarSKUs finds catalog SKUs close in shape to a blocked target so
// a report can still offer a deployable path. Similarity is the share
// of key specifications (vCPUs, memory, data disks, premium storage,
// accelerated networking) the two SKUs agree on, as a percentage;
// matches below 60 are dropped. Results come back sorted by descending
// similarity, at most five, with catalog order breaking ties.
func SimilarSKUs(target *domain.SKU, catalog []*domain.SKU, exclude map[string]bool) []domain.SKUSuggestion {
	if target == nil {
		return nil
	}

	var suggestions []domain.SKUSuggestion
	for _, s := range catalog {
		if s.Name == target.Name || exclude[s.Name] || s.IsRestricted {
			continue
		}
		sim := similarity(target, s)
		if sim < similarityThreshold {
			continue
		}
		suggestions = append(suggestions, domain.SKUSuggestion{
			SKU:            s.Name,
			Family:         s.Family,
			VCPUs:          s.VCPUs,
			MemoryGB:       s.MemoryGB,
			Similarity:     sim,
			AvailableZones: s.AvailableZones,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// similarity scores agreement on the five key specifications, each
// weighted equally.
func similarity(a, b *domain.SKU) int {
	matches := 0
	if a.VCPUs == b.VCPUs {
		matches++
	}
	if a.MemoryGB == b.MemoryGB {
		matches++
	}
	if a.MaxDataDisks == b.MaxDataDisks {
		matches++
	}
	if a.HasFeature(domain.FeaturePremiumStorage) == b.HasFeature(domain.FeaturePremiumStorage) {
		matches++
	}
	if a.HasFeature(domain.FeatureAcceleratedNetworking) == b.HasFeature(domain.FeatureAcceleratedNetworking) {
		matches++
	}
	return matches * 100 / 5
}
