package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReportRendersTables(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	data := ReportData{
		GeneratedAt:     at,
		Period:          "weekly",
		TotalAccounts:   12,
		TotalCategories: 3,
		InPeriod:        7,
		Categories:      []ReportCategoryRow{{Name: "Netflix", Accounts: 5}},
		Recent: []ReportGenerationRow{
			{GeneratedAt: at, CategoryName: "Netflix", Email: "a@b.com"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, data))
	out := buf.String()

	assert.Contains(t, out, "<td>Total Accounts</td><td>12</td>")
	assert.Contains(t, out, "<td>Generations in Period</td><td>7</td>")
	assert.Contains(t, out, "<td>Netflix</td><td>5</td>")
	assert.Contains(t, out, "a@b.com")
	assert.Contains(t, out, "Report Type: weekly")
}

func TestWriteReportEscapesContent(t *testing.T) {
	data := ReportData{
		Period:     "all",
		Categories: []ReportCategoryRow{{Name: "<script>alert(1)</script>", Accounts: 1}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, data))
	assert.NotContains(t, buf.String(), "<script>")
}
