package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

func similarTarget() *domain.SKU {
	return &domain.SKU{
		Name:         "Standard_D2s_v5",
		Family:       "standardDSv5Family",
		VCPUs:        2,
		MemoryGB:     8,
		MaxDataDisks: 4,
		Features:     []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking},
	}
}

func TestSimilarSKUsRanksBySpecOverlap(t *testing.T) {
	target := similarTarget()
	catalog := []*domain.SKU{
		target,
		{Name: "Standard_D2as_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4,
			Features: []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking}},
		{Name: "Standard_D2ds_v5", VCPUs: 2, MemoryGB: 8, MaxDataDisks: 8,
			Features: []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking}},
		{Name: "Standard_E2s_v5", VCPUs: 2, MemoryGB: 16, MaxDataDisks: 8,
			Features: []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking}},
	}

	got := SimilarSKUs(target, catalog, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "Standard_D2as_v5", got[0].SKU)
	assert.Equal(t, 100, got[0].Similarity)
	assert.Equal(t, "Standard_D2ds_v5", got[1].SKU)
	assert.Equal(t, 80, got[1].Similarity)
	assert.Equal(t, "Standard_E2s_v5", got[2].SKU)
	assert.Equal(t, 60, got[2].Similarity)
}

func TestSimilarSKUsDropsBelowThreshold(t *testing.T) {
	target := similarTarget()
	catalog := []*domain.SKU{
		target,
		// Only the feature pair matches: 40%.
		{Name: "Standard_D8s_v5", VCPUs: 8, MemoryGB: 32, MaxDataDisks: 16,
			Features: []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking}},
	}
	assert.Empty(t, SimilarSKUs(target, catalog, nil))
}

func TestSimilarSKUsSkipsRestrictedAndExcluded(t *testing.T) {
	target := similarTarget()
	twin := func(name string) *domain.SKU {
		return &domain.SKU{Name: name, VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4,
			Features: []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking}}
	}
	restricted := twin("Standard_D2as_v5")
	restricted.IsRestricted = true
	catalog := []*domain.SKU{target, restricted, twin("Standard_D2ds_v5"), twin("Standard_D2ads_v5")}

	got := SimilarSKUs(target, catalog, map[string]bool{"Standard_D2ds_v5": true})
	require.Len(t, got, 1)
	assert.Equal(t, "Standard_D2ads_v5", got[0].SKU)
}

func TestSimilarSKUsCapsAtFive(t *testing.T) {
	target := similarTarget()
	catalog := []*domain.SKU{target}
	for i := 0; i < 8; i++ {
		catalog = append(catalog, &domain.SKU{
			Name: fmt.Sprintf("Standard_D2s_v5_%d", i), VCPUs: 2, MemoryGB: 8, MaxDataDisks: 4,
			Features:       []string{domain.FeaturePremiumStorage, domain.FeatureAcceleratedNetworking},
			AvailableZones: []string{"1", "2"},
		})
	}

	got := SimilarSKUs(target, catalog, nil)
	require.Len(t, got, 5)
	// Catalog order breaks ties.
	assert.Equal(t, "Standard_D2s_v5_0", got[0].SKU)
	assert.Equal(t, []string{"1", "2"}, got[0].AvailableZones)
}

func TestSimilarSKUsNilTarget(t *testing.T) {
	assert.Nil(t, SimilarSKUs(nil, []*domain.SKU{similarTarget()}, nil))
}
