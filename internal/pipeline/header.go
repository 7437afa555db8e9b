package pipeline

import (
	"strings"

	"araudit/internal"
	"araudit/internal/util"
)

// Field is a semantic invoice column.
type Field string

const (
	FieldCustomer    Field = "customer name"
	FieldInvoiceNo   Field = "invoice number"
	FieldInvoiceDate Field = "invoice date"
	FieldDueDate     Field = "due date"
	FieldAmount      Field = "amount"
	FieldPayment     Field = "payment"
	FieldOutstanding Field = "outstanding"
)

// headerSynonyms holds English and Indonesian probes per field. Fields resolve
// independently, so one physical column may bind to several fields.
var headerSynonyms = []struct {
	field  Field
	probes []string
}{
	{FieldCustomer, []string{"customer", "client", "name", "pelanggan", "nama", "buyer", "konsumen"}},
	{FieldInvoiceNo, []string{"invoice", "inv_num", "ref", "faktur", "nomor", "no.", "no_faktur", "bukti"}},
	{FieldInvoiceDate, []string{"invoice_date", "date", "inv_date", "tanggal", "tgl", "tgl_faktur", "transaksi"}},
	{FieldDueDate, []string{"due", "due_date", "jatuh_tempo", "tgl_jatuh_tempo", "expire"}},
	{FieldAmount, []string{"amount", "total", "inv_amt", "jumlah", "nilai", "harga", "dpp", "tagihan", "nominal"}},
	{FieldPayment, []string{"payment", "paid", "bayar", "pembayaran", "lunas", "potongan", "received"}},
	{FieldOutstanding, []string{"outstanding", "balance", "sisa", "saldo", "tunggakan", "belum_bayar"}},
}

// ColumnMap maps each semantic field to a column index, -1 when unresolved.
type ColumnMap map[Field]int

// ResolveColumns binds every field to the first header containing one of its probes.
func ResolveColumns(header internal.RawRow) ColumnMap {
	norm := make([]string, 0, len(header))
	for _, h := range header {
		norm = append(norm, util.NormalizeHeader(h))
	}
	cols := ColumnMap{}
	for _, s := range headerSynonyms {
		cols[s.field] = findHeaderIndex(norm, s.probes)
	}
	return cols
}

func (c ColumnMap) Has(f Field) bool {
	idx, ok := c[f]
	return ok && idx >= 0
}

// Cell returns the cleaned value of field f in row, or "" when unmapped or short.
func (c ColumnMap) Cell(row internal.RawRow, f Field) string {
	if !c.Has(f) {
		return ""
	}
	idx := c[f]
	if idx >= len(row) {
		return ""
	}
	return util.CleanCell(row[idx])
}

func probesFor(f Field) []string {
	for _, s := range headerSynonyms {
		if s.field == f {
			return s.probes
		}
	}
	return nil
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}
