package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"araudit/internal"
)

const (
	sheetSummary   = "Summary"
	sheetAging     = "Aging"
	sheetInvoices  = "Invoices"
	sheetAnomalies = "Anomalies"
)

// ExportDatasetToXLSX writes the dataset as a four-sheet workbook at outputPath.
func ExportDatasetToXLSX(ds internal.Dataset, outputPath string) error {
	f, err := buildWorkbook(ds)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// WriteDatasetXLSX streams the workbook to w.
func WriteDatasetXLSX(ds internal.Dataset, w io.Writer) error {
	f, err := buildWorkbook(ds)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

func buildWorkbook(ds internal.Dataset) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetAging, sheetInvoices, sheetAnomalies} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	s := ds.Summary
	writeSheet(f, sheetSummary, []string{"metric", "value"}, [][]any{
		{"total_receivables", money(s.TotalReceivables)},
		{"total_overdue", money(s.TotalOverdue)},
		{"dso", s.DSO},
		{"risk_score", s.RiskScore},
		{"invoice_count", s.InvoiceCount},
		{"customer_count", s.CustomerCount},
	})

	aging := make([][]any, 0, len(ds.Aging))
	for _, entry := range ds.Aging {
		aging = append(aging, []any{string(entry.Bucket), entry.Label, money(entry.Amount), entry.Count})
	}
	writeSheet(f, sheetAging, []string{"bucket", "label", "amount", "count"}, aging)

	invoices := make([][]any, 0, len(ds.Invoices))
	for _, inv := range ds.Invoices {
		invoices = append(invoices, []any{
			inv.ID, inv.CustomerName, inv.InvoiceDate, inv.DueDate,
			money(inv.Amount), money(inv.PaymentAmount), money(inv.Outstanding),
			string(inv.Status), inv.DaysOverdue,
		})
	}
	writeSheet(f, sheetInvoices, []string{
		"id", "customer_name", "invoice_date", "due_date",
		"amount", "payment_amount", "outstanding", "status", "days_overdue",
	}, invoices)

	anomalies := make([][]any, 0, len(ds.Anomalies))
	for _, an := range ds.Anomalies {
		var value any = ""
		if an.Value != nil {
			value = money(*an.Value)
		}
		anomalies = append(anomalies, []any{an.ID, string(an.Type), string(an.Severity), an.Description, value})
	}
	writeSheet(f, sheetAnomalies, []string{"id", "type", "severity", "description", "value"}, anomalies)

	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, row := range rows {
		for j, value := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
