package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"araudit/internal"
)

func reconciliationError(id string, recorded, computed, diff decimal.Decimal) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyReconciliationError,
		Description: fmt.Sprintf("Mismatch: recorded outstanding %s != computed %s", recorded, computed),
		Severity:    internal.SeverityMedium,
		Value:       &diff,
	}
}

func duplicateID(id string) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyDuplicateID,
		Description: fmt.Sprintf("Duplicate invoice ID detected: %s", id),
		Severity:    internal.SeverityHigh,
	}
}

func negativeAmount(id string, amount decimal.Decimal) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyNegativeAmount,
		Description: "Negative invoice amount found",
		Severity:    internal.SeverityHigh,
		Value:       &amount,
	}
}

func unusualHighValue(id string, amount decimal.Decimal) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyUnusualHighValue,
		Description: fmt.Sprintf("Invoice amount %s is far above the average", amount.StringFixed(2)),
		Severity:    internal.SeverityMedium,
		Value:       &amount,
	}
}

func negativePayment(id string, payment decimal.Decimal) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyDataQuality,
		Description: fmt.Sprintf("Negative payment %s treated as 0", payment),
		Severity:    internal.SeverityLow,
		Value:       &payment,
	}
}

func unreadableValue(id string, f Field, raw, fallback string) internal.Anomaly {
	return internal.Anomaly{
		ID:          id,
		Type:        internal.AnomalyDataQuality,
		Description: fmt.Sprintf("Unreadable %s %q treated as %s", f, raw, fallback),
		Severity:    internal.SeverityLow,
	}
}
