package internal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawRow is one decoded input line, fields in column order.
type RawRow []string

type InvoiceStatus string

const (
	StatusPaid    InvoiceStatus = "PAID"
	StatusPartial InvoiceStatus = "PARTIAL"
	StatusOpen    InvoiceStatus = "OPEN"
)

type AnomalyType string

const (
	AnomalyDuplicateID         AnomalyType = "DUPLICATE_ID"
	AnomalyNegativeAmount      AnomalyType = "NEGATIVE_AMOUNT"
	AnomalyReconciliationError AnomalyType = "RECONCILIATION_ERROR"
	AnomalyUnusualHighValue    AnomalyType = "UNUSUAL_HIGH_VALUE"
	AnomalyDataQuality         AnomalyType = "DATA_QUALITY"
)

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

type AgingBucket string

const (
	BucketCurrent AgingBucket = "CURRENT"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = ">90"
)

// AgingBuckets lists the buckets in report order.
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

var agingLabels = map[AgingBucket]string{
	BucketCurrent: "Belum Jatuh Tempo",
	Bucket1To30:   "1-30 Hari",
	Bucket31To60:  "31-60 Hari",
	Bucket61To90:  "61-90 Hari",
	BucketOver90:  "> 90 Hari",
}

// Label is the dashboard caption of the bucket.
func (b AgingBucket) Label() string {
	return agingLabels[b]
}

// UnnamedCustomer replaces a blank customer name.
const UnnamedCustomer = "Unnamed"

type Invoice struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	InvoiceDate   string          `json:"invoiceDate"`
	DueDate       string          `json:"dueDate"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Status        InvoiceStatus   `json:"status"`
	DaysOverdue   int             `json:"daysOverdue"`
}

type Anomaly struct {
	ID          string           `json:"id"`
	Type        AnomalyType      `json:"type"`
	Description string           `json:"description"`
	Severity    Severity         `json:"severity"`
	Value       *decimal.Decimal `json:"value,omitempty"`
}

type AgingReport struct {
	Bucket AgingBucket     `json:"bucket"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

type AuditSummary struct {
	TotalReceivables decimal.Decimal `json:"totalReceivables"`
	TotalOverdue     decimal.Decimal `json:"totalOverdue"`
	DSO              int             `json:"dso"`
	RiskScore        int             `json:"riskScore"`
	InvoiceCount     int             `json:"invoiceCount"`
	CustomerCount    int             `json:"customerCount"`
}

// Dataset is the normalized result of one analysis pass.
type Dataset struct {
	Invoices  []Invoice     `json:"invoices"`
	Aging     []AgingReport `json:"aging"`
	Anomalies []Anomaly     `json:"anomalies"`
	Summary   AuditSummary  `json:"summary"`
}

// FormatError reports input that cannot be decoded into a header plus data rows.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return "file empty or header missing"
	}
	return e.Reason
}

// SchemaError reports a required column that no header matched.
type SchemaError struct {
	Concept string
	Probes  []string
}

func (e *SchemaError) Error() string {
	if len(e.Probes) == 0 {
		return fmt.Sprintf("required column not found: %s", e.Concept)
	}
	return fmt.Sprintf("required column not found: %s (looked for: %s)", e.Concept, strings.Join(e.Probes, ", "))
}
