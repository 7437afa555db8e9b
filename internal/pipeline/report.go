package pipeline

import (
	"github.com/shopspring/decimal"

	"araudit/internal"
)

var (
	daysPerYear = decimal.NewFromInt(365)
	dsoRiskDays = decimal.NewFromInt(60)
	half        = decimal.NewFromFloat(0.5)
)

const (
	highSeverityPenalty = 10
	dsoPenalty          = 10
	maxRiskScore        = 100
)

func bucketFor(daysOverdue int) internal.AgingBucket {
	switch {
	case daysOverdue <= 0:
		return internal.BucketCurrent
	case daysOverdue <= 30:
		return internal.Bucket1To30
	case daysOverdue <= 60:
		return internal.Bucket31To60
	case daysOverdue <= 90:
		return internal.Bucket61To90
	default:
		return internal.BucketOver90
	}
}

// buildAging reports every bucket, in order, over invoices with a material balance.
func buildAging(invoices []internal.Invoice) []internal.AgingReport {
	report := make([]internal.AgingReport, len(internal.AgingBuckets))
	pos := make(map[internal.AgingBucket]int, len(internal.AgingBuckets))
	for i, b := range internal.AgingBuckets {
		report[i] = internal.AgingReport{Bucket: b, Label: b.Label(), Amount: decimal.Zero}
		pos[b] = i
	}

	for _, inv := range invoices {
		if !inv.Outstanding.GreaterThan(materialityThreshold) {
			continue
		}
		entry := &report[pos[bucketFor(inv.DaysOverdue)]]
		entry.Amount = entry.Amount.Add(inv.Outstanding)
		entry.Count++
	}
	return report
}

func summarize(invoices []internal.Invoice, anomalies []internal.Anomaly, aging []internal.AgingReport) internal.AuditSummary {
	total, overdue, billed := decimal.Zero, decimal.Zero, decimal.Zero
	customers := map[string]struct{}{}
	for _, inv := range invoices {
		total = total.Add(inv.Outstanding)
		billed = billed.Add(inv.Amount)
		if inv.DaysOverdue > 0 {
			overdue = overdue.Add(inv.Outstanding)
		}
		customers[inv.CustomerName] = struct{}{}
	}

	dso := decimal.Zero
	if total.IsPositive() {
		dso = total.Div(nonZero(billed)).Mul(daysPerYear)
	}

	over90 := decimal.Zero
	for _, entry := range aging {
		if entry.Bucket == internal.BucketOver90 {
			over90 = entry.Amount
		}
	}

	high := 0
	for _, an := range anomalies {
		if an.Severity == internal.SeverityHigh {
			high++
		}
	}

	score := over90.Div(nonZero(total)).Mul(decimal.NewFromInt(100)).
		Add(decimal.NewFromInt(int64(highSeverityPenalty * high)))
	if dso.GreaterThan(dsoRiskDays) {
		score = score.Add(decimal.NewFromInt(dsoPenalty))
	}

	return internal.AuditSummary{
		TotalReceivables: total,
		TotalOverdue:     overdue,
		DSO:              roundHalfUp(dso),
		RiskScore:        clamp(roundHalfUp(score), 0, maxRiskScore),
		InvoiceCount:     len(invoices),
		CustomerCount:    len(customers),
	}
}

// nonZero substitutes 1 for a zero denominator.
func nonZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}

func roundHalfUp(d decimal.Decimal) int {
	return int(d.Add(half).Floor().IntPart())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
