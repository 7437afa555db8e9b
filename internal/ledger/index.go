package ledger

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"araudit/internal"
)

// MaxCustomerInvoices caps the invoices returned by CustomerDetails.
const MaxCustomerInvoices = 5

// Index answers read-only questions about one analyzed dataset.
type Index struct {
	dataset    internal.Dataset
	lowerNames []string
}

type CustomerDetails struct {
	Found            bool               `json:"found"`
	InvoiceCount     int                `json:"invoiceCount"`
	TotalOutstanding decimal.Decimal    `json:"totalOutstanding"`
	Invoices         []internal.Invoice `json:"invoices"`
}

func BuildIndex(ds internal.Dataset) *Index {
	idx := &Index{
		dataset:    ds,
		lowerNames: make([]string, len(ds.Invoices)),
	}
	for i, inv := range ds.Invoices {
		idx.lowerNames[i] = strings.ToLower(inv.CustomerName)
	}
	return idx
}

func (x *Index) Dataset() internal.Dataset {
	return internal.Dataset{
		Invoices:  slices.Clone(x.dataset.Invoices),
		Aging:     x.Aging(),
		Anomalies: x.Anomalies(),
		Summary:   x.Summary(),
	}
}

func (x *Index) Summary() internal.AuditSummary {
	return x.dataset.Summary
}

func (x *Index) Aging() []internal.AgingReport {
	return slices.Clone(x.dataset.Aging)
}

func (x *Index) Anomalies() []internal.Anomaly {
	return slices.Clone(x.dataset.Anomalies)
}

// CustomerDetails matches name case-insensitively as a substring of customer
// names. Count and total cover every match; Invoices holds the first five.
func (x *Index) CustomerDetails(name string) CustomerDetails {
	needle := strings.ToLower(strings.TrimSpace(name))
	out := CustomerDetails{TotalOutstanding: decimal.Zero, Invoices: []internal.Invoice{}}
	for i, lower := range x.lowerNames {
		if !strings.Contains(lower, needle) {
			continue
		}
		inv := x.dataset.Invoices[i]
		out.InvoiceCount++
		out.TotalOutstanding = out.TotalOutstanding.Add(inv.Outstanding)
		if len(out.Invoices) < MaxCustomerInvoices {
			out.Invoices = append(out.Invoices, inv)
		}
	}
	out.Found = out.InvoiceCount > 0
	return out
}
