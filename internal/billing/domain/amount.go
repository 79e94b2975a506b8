package domain

import (
	"strconv"
	"strings"
)

var supportedCurrencies = map[string]struct{}{
	"eur": {},
	"usd": {},
}

// NormalizeCurrency lower-cases and validates an ISO currency code
// against the supported two-decimal set.
func NormalizeCurrency(raw string) (string, error) {
	currency := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := supportedCurrencies[currency]; !ok {
		return "", ErrUnsupportedCurrency
	}
	return currency, nil
}

// ParseAmount converts a decimal price string ("29.99") into integer
// minor units (2999). At most two decimal places are accepted.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(raw, ".")
	if whole == "" {
		whole = "0"
	}
	// Digits only: ParseInt would accept a sign inside either part.
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return 0, ErrInvalidAmount
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	frac = frac + strings.Repeat("0", 2-len(frac))

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	amount := units*100 + cents
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DeriveYearlyAmount computes the annual charge from a monthly amount
// and a whole-percent discount, rounded to the nearest minor unit.
func DeriveYearlyAmount(monthly int64, discountPct int64) int64 {
	if discountPct < 0 {
		discountPct = 0
	}
	if discountPct > 100 {
		discountPct = 100
	}
	gross := monthly * 12
	return (gross*(100-discountPct) + 50) / 100
}
