package pipeline

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportDatasetToXLSX(t *testing.T) {
	ds := analyzeText(t, "customer,invoice,due_date,amount\nAcme,A-1,2024-01-01,1500\nAcme,A-1,2026-03-01,-20\n")
	out := filepath.Join(t.TempDir(), "nested", "audit.xlsx")
	require.NoError(t, ExportDatasetToXLSX(ds, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetAging, sheetInvoices, sheetAnomalies}, f.GetSheetList())

	invoices, err := f.GetRows(sheetInvoices)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "id", invoices[0][0])
	assert.Equal(t, "A-1", invoices[1][0])
	assert.Equal(t, "OPEN", invoices[1][7])

	aging, err := f.GetRows(sheetAging)
	require.NoError(t, err)
	assert.Len(t, aging, 6)

	anomalies, err := f.GetRows(sheetAnomalies)
	require.NoError(t, err)
	require.Len(t, anomalies, 3)
	assert.Equal(t, "DUPLICATE_ID", anomalies[1][1])
	assert.Equal(t, "NEGATIVE_AMOUNT", anomalies[2][1])

	risk, err := f.GetCellValue(sheetSummary, "B5")
	require.NoError(t, err)
	assert.Equal(t, "100", risk)
}

func TestWriteDatasetXLSX(t *testing.T) {
	ds := analyzeText(t, "customer,amount\nAcme,10\n")
	var buf bytes.Buffer
	require.NoError(t, WriteDatasetXLSX(ds, &buf))
	assert.Equal(t, InputXLSX, DetectInputType("audit", buf.Bytes()).Type)
}
