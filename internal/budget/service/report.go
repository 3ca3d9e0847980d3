package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// YearReportPDF renders the fiscal year's allocations and spend as a
// downloadable PDF report.
func (s *BudgetService) YearReportPDF(ctx context.Context, scope tenant.Scope, fiscalYear int) ([]byte, error) {
	summaries, err := s.ListWithSpend(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}
	year, err := s.Summarize(ctx, scope, fiscalYear)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Budget Report - Fiscal Year %d", fiscalYear), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total budget %.2f, spent %.2f, remaining %.2f (%d%%)",
		year.TotalBudget, year.TotalSpent, year.Remaining, year.Utilization), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{48, 36, 28, 28, 22, 24}
	headers := []string{"Category", "Location", "Budget", "Spent", "Used", "Alert"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, sum := range summaries {
		location := "-"
		if sum.LocationID != nil {
			location = *sum.LocationID
		}
		cells := []string{
			sum.Category,
			location,
			fmt.Sprintf("%.2f", sum.Amount),
			fmt.Sprintf("%.2f", sum.Spent),
			fmt.Sprintf("%d%%", sum.Utilization),
			sum.AlertLevel,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(summaries) == 0 {
		pdf.CellFormat(0, 8, "No budget allocations recorded for this year.", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering budget report: %w", err)
	}

	return buf.Bytes(), nil
}
