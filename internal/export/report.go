package export

import (
	"fmt"
	"html/template"
	"io"
	"time"
)

// ReportData is the rendered content of one periodic report.
type ReportData struct {
	GeneratedAt     time.Time
	Period          string
	TotalAccounts   int64
	TotalCategories int
	InPeriod        int64
	Categories      []ReportCategoryRow
	Recent          []ReportGenerationRow
}

type ReportCategoryRow struct {
	Name     string
	Accounts int
}

type ReportGenerationRow struct {
	GeneratedAt  time.Time
	CategoryName string
	Email        string
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05 UTC") },
}).Parse(`<html>
  <head>
    <title>Acc Hub Report - {{stamp .GeneratedAt}}</title>
    <style>
      body { font-family: Arial, sans-serif; padding: 20px; }
      h1 { color: #333; }
      table { width: 100%; border-collapse: collapse; margin-top: 20px; }
      th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
      th { background-color: #f2f2f2; }
    </style>
  </head>
  <body>
    <h1>Acc Hub Platform Report</h1>
    <p>Generated: {{stamp .GeneratedAt}}</p>
    <p>Report Type: {{.Period}}</p>

    <h2>Statistics</h2>
    <table>
      <tr><th>Metric</th><th>Value</th></tr>
      <tr><td>Total Accounts</td><td>{{.TotalAccounts}}</td></tr>
      <tr><td>Total Categories</td><td>{{.TotalCategories}}</td></tr>
      <tr><td>Generations in Period</td><td>{{.InPeriod}}</td></tr>
    </table>

    <h2>Category Distribution</h2>
    <table>
      <tr><th>Category</th><th>Accounts</th></tr>
{{- range .Categories}}
      <tr><td>{{.Name}}</td><td>{{.Accounts}}</td></tr>
{{- end}}
    </table>

    <h2>Recent Generations</h2>
    <table>
      <tr><th>Date</th><th>Category</th><th>Email</th></tr>
{{- range .Recent}}
      <tr><td>{{stamp .GeneratedAt}}</td><td>{{.CategoryName}}</td><td>{{.Email}}</td></tr>
{{- end}}
    </table>
  </body>
</html>
`))

// WriteReport renders the report as a standalone HTML document.
func WriteReport(w io.Writer, data ReportData) error {
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
