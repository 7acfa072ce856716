package postgres

import (
	"github.com/shopspring/decimal"
)

// parseNumeric converts a NUMERIC column selected as text into a decimal.
func parseNumeric(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// nullable returns nil for empty strings so optional text columns store NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
