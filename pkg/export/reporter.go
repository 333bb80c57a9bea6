// Package export renders a finished analysis report as JSON, CSV, or
// HTML. No analysis logic depends on the chosen rendering.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/models/domain"
)

// Format is a rendering hint for the report sink.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

type Reporter struct {
	writer io.Writer
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{writer: writer}
}

// Handle renders the report in the requested format.
func (r *Reporter) Handle(report *domain.AnalysisReport, format Format) error {
	switch format {
	case FormatJSON, "":
		return r.writeJSON(report)
	case FormatCSV:
		return r.writeCSV(report)
	case FormatHTML:
		return r.writeHTML(report)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func (r *Reporter) writeJSON(report *domain.AnalysisReport) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (r *Reporter) writeCSV(report *domain.AnalysisReport) error {
	w := csv.NewWriter(r.writer)
	header := []string{
		"vm_name", "resource_group", "region", "current_size", "monthly_cost",
		"recommendation_type", "priority", "potential_savings", "top_candidate",
		"deployment_feasible",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range report.Results {
		topCandidate := ""
		if len(result.Candidates) > 0 {
			topCandidate = result.Candidates[0].SKU
		}
		row := []string{
			result.VM.Name,
			result.VM.ResourceGroup,
			result.VM.Location,
			result.VM.Size,
			strconv.FormatFloat(result.VM.MonthlyPrice, 'f', 2, 64),
			string(result.Type),
			string(result.Priority),
			strconv.FormatFloat(result.PotentialSavings, 'f', 2, 64),
			topCandidate,
			strconv.FormatBool(result.DeploymentFeasible),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<title>VM Rightsizing Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.priority-High { color: #b00020; font-weight: bold; }
.priority-Medium { color: #b26a00; }
.summary { background: #f8f8f8; padding: 1em; margin-bottom: 1.5em; }
</style>
</head>
<body>
<h1>VM Rightsizing Report</h1>
<div class="summary">
<p>Run {{.RunID}} generated {{.GeneratedAt.Format "2006-01-02 15:04"}} UTC</p>
<p>Analyzed {{.AnalyzedVMs}} of {{.TotalVMs}} VMs.
Current monthly cost ${{printf "%.2f" .TotalCost}},
potential savings ${{printf "%.2f" .PotentialSavings}}.</p>
{{if .ExecutiveSummary}}<p>{{.ExecutiveSummary}}</p>{{end}}
</div>
<table>
<tr><th>VM</th><th>Region</th><th>Current size</th><th>Monthly cost</th>
<th>Recommendation</th><th>Priority</th><th>Savings</th><th>Top candidate</th></tr>
{{range .Results}}
<tr>
<td>{{.VM.Name}}</td>
<td>{{.VM.Location}}</td>
<td>{{.VM.Size}}</td>
<td>${{printf "%.2f" .VM.MonthlyPrice}}</td>
<td>{{.Type}}</td>
<td class="priority-{{.Priority}}">{{.Priority}}</td>
<td>${{printf "%.2f" .PotentialSavings}}</td>
<td>{{if .Candidates}}{{(index .Candidates 0).SKU}}{{end}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

func (r *Reporter) writeHTML(report *domain.AnalysisReport) error {
	if err := htmlTemplate.Execute(r.writer, report); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}
