package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

func sampleReport() *domain.AnalysisReport {
	return &domain.AnalysisReport{
		RunID:            "a2f1c9d0-0000-4000-8000-000000000001",
		GeneratedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Subscription:     "sub-1",
		TotalVMs:         2,
		AnalyzedVMs:      2,
		TotalCost:        426.32,
		PotentialSavings: 286.40,
		TypeCounts:       map[string]int{"rightsize": 1, "shutdown": 1},
		Results: []*domain.RightsizingResult{
			{
				VM: &domain.VM{Name: "idle-01", ResourceGroup: "rg-a", Location: "westeurope",
					Size: "Standard_D2s_v3", MonthlyPrice: 146.0},
				Type:               domain.RecommendationShutdown,
				Priority:           domain.PriorityHigh,
				PotentialSavings:   146.0,
				DeploymentFeasible: true,
			},
			{
				VM: &domain.VM{Name: "app-01", ResourceGroup: "rg-a", Location: "westeurope",
					Size: "Standard_D4s_v3", MonthlyPrice: 280.32},
				Type:               domain.RecommendationRightsize,
				Priority:           domain.PriorityMedium,
				PotentialSavings:   140.40,
				DeploymentFeasible: true,
				Candidates: []*domain.Candidate{
					{SKU: "Standard_D2s_v5", VCPUs: 2, MemoryGB: 8, MonthlyPrice: 139.92, Valid: true},
				},
			},
		},
	}
}

func TestHandleJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport(), FormatJSON))

	var decoded domain.AnalysisReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a2f1c9d0-0000-4000-8000-000000000001", decoded.RunID)
	assert.Len(t, decoded.Results, 2)
	assert.Equal(t, domain.RecommendationShutdown, decoded.Results[0].Type)
}

func TestHandleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport(), FormatCSV))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "vm_name", rows[0][0])
	assert.Equal(t, "idle-01", rows[1][0])
	assert.Equal(t, "shutdown", rows[1][5])
	assert.Equal(t, "146.00", rows[1][7])
	assert.Equal(t, "", rows[1][8])
	assert.Equal(t, "Standard_D2s_v5", rows[2][8])
}

func TestHandleHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport(), FormatHTML))

	html := buf.String()
	assert.Contains(t, html, "idle-01")
	assert.Contains(t, html, "Standard_D2s_v5")
	assert.Contains(t, html, "priority-High")
	assert.Contains(t, html, "$286.40")
}

func TestHandleDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReporter(&buf).Handle(sampleReport(), ""))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestHandleUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewReporter(&buf).Handle(sampleReport(), "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}
