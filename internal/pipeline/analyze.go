package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"araudit/internal"
	"araudit/internal/util"
)

var (
	reconciliationTolerance = decimal.NewFromInt(1)
	// materialityThreshold is the balance at or below which an invoice counts as settled.
	materialityThreshold = decimal.NewFromInt(100)
)

const (
	minStatSample = 6
	outlierSigmas = 3.0
)

type AnalyzeOptions struct {
	// AsOf is the audit reference date. Zero means today.
	AsOf time.Time
}

func (o AnalyzeOptions) referenceDate() time.Time {
	if o.AsOf.IsZero() {
		return util.TruncateDay(time.Now())
	}
	return util.TruncateDay(o.AsOf)
}

// Analyze maps decoded rows onto invoices and derives anomalies, the aging
// schedule and the summary. rows[0] is the header.
func Analyze(rows []internal.RawRow, opts AnalyzeOptions) (internal.Dataset, error) {
	if len(rows) < 2 {
		return internal.Dataset{}, &internal.FormatError{}
	}

	cols := ResolveColumns(rows[0])
	for _, required := range []Field{FieldCustomer, FieldAmount} {
		if !cols.Has(required) {
			return internal.Dataset{}, &internal.SchemaError{Concept: string(required), Probes: probesFor(required)}
		}
	}

	a := &auditor{
		cols:      cols,
		asOf:      opts.referenceDate(),
		headerLen: len(rows[0]),
		seen:      map[string]struct{}{},
		invoices:  make([]internal.Invoice, 0, len(rows)-1),
		anomalies: make([]internal.Anomaly, 0),
	}
	for i := 1; i < len(rows); i++ {
		a.addRow(i, rows[i])
	}
	a.flagUnusualHighValues()

	aging := buildAging(a.invoices)
	return internal.Dataset{
		Invoices:  a.invoices,
		Aging:     aging,
		Anomalies: a.anomalies,
		Summary:   summarize(a.invoices, a.anomalies, aging),
	}, nil
}

// auditor accumulates the state of one Analyze call.
type auditor struct {
	cols      ColumnMap
	asOf      time.Time
	headerLen int
	seen      map[string]struct{}
	invoices  []internal.Invoice
	anomalies []internal.Anomaly
}

func (a *auditor) addRow(rowIndex int, row internal.RawRow) {
	if len(row) < a.headerLen && len(row) < 2 {
		return
	}

	placeholder := fmt.Sprintf("INV-%d", rowIndex)
	id := a.cols.Cell(row, FieldInvoiceNo)
	if id == "" {
		id = placeholder
	}

	var issues []internal.Anomaly
	amount := a.money(row, FieldAmount, id, &issues)
	payment := decimal.Zero
	if a.cols.Has(FieldPayment) {
		payment = a.money(row, FieldPayment, id, &issues)
		if payment.IsNegative() {
			issues = append(issues, negativePayment(id, payment))
			payment = decimal.Zero
		}
	}

	computed := amount.Sub(payment)
	outstanding := computed
	if a.cols.Has(FieldOutstanding) {
		recorded := a.money(row, FieldOutstanding, id, &issues)
		outstanding = recorded
		if diff := recorded.Sub(computed).Abs(); diff.GreaterThan(reconciliationTolerance) {
			a.anomalies = append(a.anomalies, reconciliationError(id, recorded, computed, diff))
			outstanding = computed
		}
	}

	if _, dup := a.seen[id]; dup && id != placeholder {
		a.anomalies = append(a.anomalies, duplicateID(id))
	}
	a.seen[id] = struct{}{}

	if amount.IsNegative() {
		a.anomalies = append(a.anomalies, negativeAmount(id, amount))
	}

	invoiceDate := a.asOf.Format(util.DateLayout)
	if a.cols.Has(FieldInvoiceDate) {
		invoiceDate = a.date(row, FieldInvoiceDate, id, &issues)
	}
	dueDate := invoiceDate
	if a.cols.Has(FieldDueDate) {
		dueDate = a.date(row, FieldDueDate, id, &issues)
	}
	a.anomalies = append(a.anomalies, issues...)

	elapsed := util.DaysBetween(util.MustDate(dueDate), a.asOf)
	status := internal.StatusPartial
	daysOverdue := 0
	switch {
	case !outstanding.GreaterThan(materialityThreshold):
		status = internal.StatusPaid
	case elapsed > 0:
		status = internal.StatusOpen
		daysOverdue = elapsed
	}

	customer := a.cols.Cell(row, FieldCustomer)
	if customer == "" {
		customer = internal.UnnamedCustomer
	}

	a.invoices = append(a.invoices, internal.Invoice{
		ID:            id,
		CustomerName:  customer,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Amount:        amount,
		PaymentAmount: payment,
		Outstanding:   outstanding,
		Status:        status,
		DaysOverdue:   daysOverdue,
	})
}

func (a *auditor) money(row internal.RawRow, f Field, id string, issues *[]internal.Anomaly) decimal.Decimal {
	raw := a.cols.Cell(row, f)
	value, ok := util.ParseAmountOK(raw)
	if !ok {
		*issues = append(*issues, unreadableValue(id, f, raw, "0"))
	}
	return value
}

func (a *auditor) date(row internal.RawRow, f Field, id string, issues *[]internal.Anomaly) string {
	raw := a.cols.Cell(row, f)
	value, ok := util.ParseDateOK(raw, a.asOf)
	if !ok {
		*issues = append(*issues, unreadableValue(id, f, raw, value))
	}
	return value
}

// flagUnusualHighValues marks amounts above mean + 3 population standard
// deviations. Samples below minStatSample are not tested.
func (a *auditor) flagUnusualHighValues() {
	if len(a.invoices) < minStatSample {
		return
	}

	values := make([]float64, len(a.invoices))
	for i, inv := range a.invoices {
		values[i] = inv.Amount.InexactFloat64()
	}
	mean, stddev := meanStdDev(values)
	threshold := mean + outlierSigmas*stddev

	for i, inv := range a.invoices {
		if values[i] > threshold && inv.Amount.IsPositive() {
			a.anomalies = append(a.anomalies, unusualHighValue(inv.ID, inv.Amount))
		}
	}
}

func meanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
