package rates

import (
	"fmt"
	"strings"

	"notaria-engine/internal/money"
)

// ValidateSchedule checks that tiers start at 0, are contiguous and sorted, and that only
// the last one is unbounded.
func ValidateSchedule(s Schedule) error {
	if len(s) == 0 {
		return fmt.Errorf("empty schedule")
	}
	if !s[0].Min.IsZero() {
		return fmt.Errorf("first tier starts at %s, want 0", s[0].Min)
	}
	for i, t := range s {
		if t.Rate.IsNegative() {
			return fmt.Errorf("tier %d: negative rate %s", i, t.Rate)
		}
		last := i == len(s)-1
		if last {
			if !t.Unbounded() {
				return fmt.Errorf("tier %d: last tier must be unbounded", i)
			}
			continue
		}
		if t.Unbounded() {
			return fmt.Errorf("tier %d: only the last tier may be unbounded", i)
		}
		if !t.Max.GreaterThan(t.Min) {
			return fmt.Errorf("tier %d: max %s not above min %s", i, t.Max, t.Min)
		}
		if !s[i+1].Min.Equal(*t.Max) {
			return fmt.Errorf("tier %d: gap or overlap between %s and %s", i, t.Max, s[i+1].Min)
		}
	}
	return nil
}

// Validate checks every table invariant.
func (t *Tables) Validate() error {
	for dt, cfg := range t.DeedTypes {
		if !cfg.Tariffed {
			continue
		}
		if err := ValidateSchedule(cfg.Emoluments); err != nil {
			return fmt.Errorf("deed type %s: %w", dt, err)
		}
	}

	for rel, rule := range t.Kinship {
		if rule.Allowance.IsNegative() {
			return fmt.Errorf("relation %s: negative allowance", rel)
		}
		if err := ValidateSchedule(rule.Duty); err != nil {
			return fmt.Errorf("relation %s: %w", rel, err)
		}
	}

	if len(t.Usufruct) == 0 || t.Usufruct[len(t.Usufruct)-1].BelowAge != 0 {
		return fmt.Errorf("usufruct scale must end with an open bracket")
	}
	prev := money.Hundred
	prevAge := 0
	for i, b := range t.Usufruct {
		if b.Percent.IsNegative() || b.Percent.GreaterThan(prev) {
			return fmt.Errorf("usufruct bracket %d: percent %s must decrease within [0, 100]", i, b.Percent)
		}
		if b.BelowAge != 0 && b.BelowAge <= prevAge {
			return fmt.Errorf("usufruct bracket %d: ages must increase", i)
		}
		prev, prevAge = b.Percent, b.BelowAge
	}

	for code, terr := range t.Territories {
		if !ValidDepartment(code) {
			return fmt.Errorf("territory %q: not a department code", code)
		}
		if terr.VATExempt && !terr.VATRate.IsZero() {
			return fmt.Errorf("territory %s: VAT-exempt territory with VAT %s", code, terr.VATRate)
		}
		if !strings.HasPrefix(code, "97") && !terr.SurchargePercent.IsZero() {
			return fmt.Errorf("territory %s: metropolitan department with surcharge", code)
		}
	}
	if !t.DefaultTerritory.SurchargePercent.IsZero() {
		return fmt.Errorf("default territory must not carry a surcharge")
	}
	return nil
}
