// Package report renders dashboard summaries as PDF documents.
package report

import (
	"bytes"
	"fmt"

	"github.com/fekuna/stockinator-service/internal/dashboard"
	"github.com/fekuna/stockinator-service/internal/model"
	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "2006-01-02"

func Render(b *model.Business, d *model.DashboardSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(b.Name+" dashboard", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, b.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	last := d.To.AddDate(0, 0, -1)
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s to %s", d.From.Format(dateLayout), last.Format(dateLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	money := func(v string) string { return b.Currency + " " + v }
	summary := [][2]string{
		{"Revenue", money(d.Revenue.StringFixed(2))},
		{"Cost", money(d.Cost.StringFixed(2))},
		{"Profit", money(d.Profit.StringFixed(2))},
		{"Margin", d.Margin.StringFixed(2) + "%"},
		{"Transactions", fmt.Sprintf("%d", d.TransactionCount)},
		{"Items sold", fmt.Sprintf("%d", d.ItemsSold)},
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	for _, row := range summary {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(60, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Top products", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 8, "Product", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Quantity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, "Revenue", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	if len(d.TopProducts) == 0 {
		pdf.CellFormat(170, 8, "No sales in this period", "1", 1, "C", false, 0, "")
	}
	for _, p := range d.TopProducts {
		pdf.CellFormat(90, 8, p.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", p.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, money(p.Revenue.StringFixed(2)), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Sales over time", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(60, 8, "Period", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 8, "Sales", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 8, "Revenue", "1", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, s := range d.Series {
		pdf.CellFormat(60, 8, bucketLabel(d, s), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", s.Count), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 8, money(s.Revenue.StringFixed(2)), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render dashboard pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func bucketLabel(d *model.DashboardSummary, s model.DashboardBucket) string {
	switch d.Bucket {
	case dashboard.BucketHour:
		return s.Start.Format("15:04")
	case dashboard.BucketMonth:
		return s.Start.Format("Jan 2006")
	default:
		return s.Start.Format(dateLayout)
	}
}
