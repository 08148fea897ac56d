// Package core provides money parsing and handling utilities.
//
// Amounts are whole VND; there are no fractional units. Input may carry
// thousands separators ("500.000" or "500,000") and a currency suffix.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts user input to a positive Money value.
//
// Examples:
//
//	ParseAmount("500000")      -> 500000, nil
//	ParseAmount("500.000")     -> 500000, nil
//	ParseAmount("1,250,000")   -> 1250000, nil
//	ParseAmount("50.000 VNĐ")  -> 50000, nil
//	ParseAmount("12.5")        -> 0, ErrInvalidAmount (not a thousands group)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"VNĐ", "VND", "vnđ", "vnd", "đ", "₫"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	groups := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == ',' })
	if len(groups) == 0 {
		return 0, ErrInvalidAmount
	}
	if len(groups) > 1 {
		// Separators must split the number into thousands groups.
		if len(groups[0]) > 3 || strings.Count(s, ".")+strings.Count(s, ",") != len(groups)-1 {
			return 0, ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, ErrInvalidAmount
			}
		}
	}
	digits := strings.Join(groups, "")
	for _, r := range digits {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return Money(v), nil
}

// String formats the amount with "." thousands separators, e.g. 1.250.000.
func (m Money) String() string {
	v := int64(m)
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Display appends the currency, as shown to staff.
func (m Money) Display() string {
	return m.String() + " VNĐ"
}

// UnmarshalJSON accepts integral JSON numbers (including 500000.0, which
// older exports produced) and amount strings. Strings are read the way
// ParseAmount reads user input, so "500.000" is five hundred thousand; an
// empty string is zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = 0
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if serr := json.Unmarshal(data, &s); serr != nil {
			return fmt.Errorf("amount: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = 0
			return nil
		}
		if v, perr := ParseAmount(s); perr == nil {
			*m = v
			return nil
		}
		n = json.Number(s)
	}
	if v, err := n.Int64(); err == nil {
		*m = Money(v)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return fmt.Errorf("amount %s: %w", n, ErrInvalidAmount)
	}
	*m = Money(int64(f))
	return nil
}
