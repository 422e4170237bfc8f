package risk

import (
	"fmt"
	"math"
)

// InvalidRecordError reports the first malformed input record found.
// Malformed records are a caller contract violation; the analyzer fails
// fast rather than producing NaN-tainted results.
type InvalidRecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid trade record %d: %s %s", e.Index, e.Field, e.Reason)
}

func badPrice(v float64) string {
	switch {
	case math.IsNaN(v):
		return "is NaN"
	case math.IsInf(v, 0):
		return "is infinite"
	case v < 0:
		return "is negative"
	}
	return ""
}

// ValidateTrades checks every record up front and returns an
// *InvalidRecordError naming the offending field, or nil.
func ValidateTrades(trades []Trade) error {
	for i, t := range trades {
		if t.PurchaseTime <= 0 {
			return &InvalidRecordError{Index: i, Field: "purchase_time", Reason: "must be a positive Unix timestamp"}
		}
		if reason := badPrice(t.BuyPrice); reason != "" {
			return &InvalidRecordError{Index: i, Field: "buy_price", Reason: reason}
		}
		if reason := badPrice(t.SellPrice); reason != "" {
			return &InvalidRecordError{Index: i, Field: "sell_price", Reason: reason}
		}
	}
	return nil
}
