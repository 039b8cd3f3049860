package payment

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmptyPayment   = errors.New("empty payment")
	ErrInvalidPayment = errors.New("invalid payment")
)

var (
	productRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)[*xх](\d+(?:\.\d+)?)$`)
	numberRe  = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Parse evaluates a payment expression in hryvnias. Accepted forms:
// a plain number ("500", "350.50") or "count*rate" with "*", "x" or the
// cyrillic "х" as the multiplier sign ("2*350", "2x350"). A trailing
// "грн"/"uah" and comma decimal separators are tolerated.
func Parse(raw string) (float64, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, "грн", "")
	value = strings.ReplaceAll(value, "uah", "")
	value = strings.ReplaceAll(value, ",", ".")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return 0, ErrEmptyPayment
	}

	if m := productRe.FindStringSubmatch(value); m != nil {
		count, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidPayment, raw)
		}
		rate, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidPayment, raw)
		}
		return count * rate, nil
	}

	if numberRe.MatchString(value) {
		amount, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidPayment, raw)
		}
		return amount, nil
	}

	return 0, fmt.Errorf("%w: %s", ErrInvalidPayment, raw)
}

// FormatUAH renders an amount for chat output: integral values without
// a fraction, everything else with two decimals.
func FormatUAH(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d грн", int64(amount))
	}
	return fmt.Sprintf("%.2f грн", amount)
}
