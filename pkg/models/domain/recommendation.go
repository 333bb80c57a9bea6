package domain

import "time"

// RecommendationType classifies the action a result proposes.
type RecommendationType string

const (
	RecommendationRightsize         RecommendationType = "rightsize"
	RecommendationShutdown          RecommendationType = "shutdown"
	RecommendationGenerationUpgrade RecommendationType = "generation_upgrade"
	RecommendationRegionMove        RecommendationType = "region_move"
	RecommendationNone              RecommendationType = "none"
)

// Priority tiers by absolute monthly savings.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Confidence is the closed set an AI recommendation's confidence and
// migration complexity are normalized into.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Candidate is one scored replacement SKU for a VM. The scorer fills
// every field except Valid and Issues, which the validator owns.
type Candidate struct {
	SKU            string   `json:"sku"`
	VCPUs          int      `json:"vcpus"`
	MemoryGB       float64  `json:"memory_gb"`
	MonthlyPrice   float64  `json:"monthly_price"`
	Savings        float64  `json:"savings"`
	SavingsPercent float64  `json:"savings_percent"`
	Score          float64  `json:"score"`
	Valid          bool     `json:"valid"`
	Issues         []string `json:"issues,omitempty"`
}

// AIRecommendation is the normalized payload extracted from a model
// completion. Confidence and Complexity are always members of the
// Confidence set; Savings is never negative; SKU is never empty.
type AIRecommendation struct {
	SKU        string     `json:"recommended_sku"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Risk       string     `json:"risk_assessment"`
	Savings    float64    `json:"estimated_monthly_savings"`
	Complexity Confidence `json:"migration_complexity"`
	Actions    []string   `json:"recommended_actions"`
}

// AdvisorRecommendation is a cost hint from the platform advisor
// matched to a VM by resource name.
type AdvisorRecommendation struct {
	ResourceName   string  `json:"resource_name"`
	CurrentSKU     string  `json:"current_sku"`
	TargetSKU      string  `json:"target_sku"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}

// RegionAlternative is an adjacent region where the current SKU is
// strictly cheaper.
type RegionAlternative struct {
	Region       string  `json:"region"`
	MonthlyPrice float64 `json:"monthly_price"`
	Savings      float64 `json:"savings"`
}

// SKUSuggestion is a deployable SKU close in shape to a blocked
// candidate, offered when every validated candidate is confirmed
// unavailable.
type SKUSuggestion struct {
	SKU            string   `json:"sku"`
	Family         string   `json:"family,omitempty"`
	VCPUs          int      `json:"vcpus"`
	MemoryGB       float64  `json:"memory_gb"`
	Similarity     int      `json:"similarity"`
	AvailableZones []string `json:"available_zones,omitempty"`
}

// RightsizingResult is the per-VM outcome of one analysis run.
type RightsizingResult struct {
	VM                 *VM                    `json:"vm"`
	Candidates         []*Candidate           `json:"candidates"`
	Type               RecommendationType     `json:"recommendation_type"`
	Priority           Priority               `json:"priority"`
	PotentialSavings   float64                `json:"potential_savings"`
	DeploymentFeasible bool                   `json:"deployment_feasible"`
	ConstraintIssues   []string               `json:"constraint_issues,omitempty"`
	AlternativeSKUs    []SKUSuggestion        `json:"alternative_skus,omitempty"`
	QuotaWarnings      []string               `json:"quota_warnings,omitempty"`
	GenerationUpgrade  string                 `json:"recommended_generation_upgrade,omitempty"`
	RegionAlternatives []RegionAlternative    `json:"region_alternatives,omitempty"`
	Advisor            *AdvisorRecommendation `json:"advisor,omitempty"`
	AI                 *AIRecommendation      `json:"ai,omitempty"`
}

// ReportSummary is one row of the stored run history.
type ReportSummary struct {
	RunID            string    `json:"run_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	Subscription     string    `json:"subscription"`
	TotalVMs         int       `json:"total_vms"`
	AnalyzedVMs      int       `json:"analyzed_vms"`
	TotalCost        float64   `json:"total_monthly_cost"`
	PotentialSavings float64   `json:"potential_savings"`
}

// AnalysisReport aggregates one run. Results are sorted by descending
// potential savings before the report is returned.
type AnalysisReport struct {
	RunID            string               `json:"run_id"`
	GeneratedAt      time.Time            `json:"generated_at"`
	Subscription     string               `json:"subscription"`
	TotalVMs         int                  `json:"total_vms"`
	AnalyzedVMs      int                  `json:"analyzed_vms"`
	TotalCost        float64              `json:"total_monthly_cost"`
	PotentialSavings float64              `json:"potential_savings"`
	TypeCounts       map[string]int       `json:"recommendation_counts"`
	Results          []*RightsizingResult `json:"results"`
	ExecutiveSummary string               `json:"executive_summary,omitempty"`
}
