// Package money holds the monetary helpers shared by the calculators: exact decimal
// arithmetic, lenient parsing of French-formatted amounts and display formatting.
package money

import (
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in euros. Calculators never round it; rounding to
// cents happens only in Round and Format.
type Money = decimal.Decimal

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
)

// New builds an amount from a literal such as "31865" or "3.870". It panics on a
// malformed literal and is meant for static tables.
func New(s string) Money {
	return decimal.RequireFromString(s)
}

// Int builds an amount from a whole number of euros.
func Int(n int64) Money {
	return decimal.NewFromInt(n)
}

// Percent returns amount × pct / 100 without any rounding.
func Percent(amount, pct Money) Money {
	return amount.Mul(pct).Shift(-2)
}

// Round rounds half away from zero to cents.
func Round(m Money) Money {
	return m.Round(2)
}

// Clamp floors m at zero.
func Clamp(m Money) Money {
	if m.IsNegative() {
		return Zero
	}
	return m
}

func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

var (
	spaceReplacer = strings.NewReplacer(
		" ", "", "\u00a0", "", "\u202f", "", "\t", "", "'", "",
		"€", "", "euros", "", "Euros", "", "EUROS", "", "EUR", "", "eur", "",
	)
	dotThousands   = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
	commaThousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3}){2,}$`)
	plainNumber    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// Parse reads an amount written the French way ("250 000,50 €", "250.000,50") or the
// plain way ("250000.50"). It reports false when the text is not a number.
func Parse(s string) (Money, bool) {
	s = spaceReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return Zero, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if commaThousands.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		if dotThousands.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if !plainNumber.MatchString(s) {
		return Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, false
	}
	return d, true
}

// Format renders m rounded to cents with French grouping: "1 234,56 €".
func Format(m Money) string {
	return FormatNumber(m) + " €"
}

// FormatNumber is Format without the currency sign.
func FormatNumber(m Money) string {
	s := m.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent renders a percentage with up to three decimals: "3,87 %".
func FormatPercent(p Money) string {
	s := p.Round(3).String()
	return strings.Replace(s, ".", ",", 1) + " %"
}

// Input is an amount as typed by a user. Values that are missing or not numeric decode
// to an invalid Input instead of failing the whole request.
type Input struct {
	Value Money
	Valid bool
}

// Amount wraps a known value.
func Amount(m Money) Input {
	return Input{Value: m, Valid: true}
}

func (in *Input) UnmarshalJSON(b []byte) error {
	*in = Input{}
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, ok := Parse(s); ok {
			*in = Input{Value: v, Valid: true}
		}
		return nil
	}
	if v, err := decimal.NewFromString(raw); err == nil {
		*in = Input{Value: v, Valid: true}
	}
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	if !in.Valid {
		return []byte("null"), nil
	}
	return []byte(in.Value.String()), nil
}

// Usable reports whether the input holds a non-negative amount.
func (in Input) Usable() bool {
	return in.Valid && !in.Value.IsNegative()
}
