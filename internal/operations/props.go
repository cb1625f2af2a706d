package operations

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/model"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// fastParseDate parses "YYYY-MM-DD" without going through time.Parse layouts.
// Returns zero time and false on invalid input.
func fastParseDate(s string) (time.Time, bool) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return time.Time{}, false
		}
	}
	y := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	m := time.Month(int(s[5]-'0')*10 + int(s[6]-'0'))
	d := int(s[8]-'0')*10 + int(s[9]-'0')
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func decodeProps(op *model.Operation, v any) *model.CalculationMessage {
	if len(op.OperationProperties) == 0 {
		return nil
	}
	if err := json.Unmarshal(op.OperationProperties, v); err != nil {
		msg := model.Critical("INVALID_PROPERTIES", fmt.Sprintf("Operation properties cannot be decoded: %v", err))
		return &msg
	}
	return nil
}

// failure turns a calculator error into the CRITICAL message matching its sentinel.
func failure(err error) model.CalculationMessage {
	switch {
	case errors.Is(err, calc.ErrMissingAmount):
		return model.Critical("MISSING_AMOUNT", "Principal amount is missing or not numeric")
	case errors.Is(err, rates.ErrUnknownDeedType):
		return model.Critical("UNKNOWN_DEED_TYPE", err.Error())
	case errors.Is(err, rates.ErrUnknownDepartment):
		return model.Critical("INVALID_DEPARTMENT", err.Error())
	case errors.Is(err, rates.ErrUnknownRelation):
		return model.Critical("UNKNOWN_RELATION", err.Error())
	}
	return model.Critical("CALCULATION_FAILED", err.Error())
}

// checks collects the validation messages shared by the fee operations. Each method
// is a no-op once a CRITICAL has been recorded.
type checks struct {
	tables *rates.Tables
	msgs   []model.CalculationMessage
	failed bool
}

func (c *checks) critical(code, message string) {
	if c.failed {
		return
	}
	c.msgs = append(c.msgs, model.Critical(code, message))
	c.failed = true
}

func (c *checks) warn(code, message string) {
	if c.failed {
		return
	}
	c.msgs = append(c.msgs, model.Warning(code, message))
}

func (c *checks) props(msg *model.CalculationMessage) {
	if msg != nil && !c.failed {
		c.msgs = append(c.msgs, *msg)
		c.failed = true
	}
}

func (c *checks) amount(in money.Input) {
	if !in.Usable() {
		c.critical("MISSING_AMOUNT", "Principal amount is missing or not numeric")
	}
}

func (c *checks) deedType(dt rates.DeedType) {
	if _, ok := c.tables.Deed(dt); !ok {
		c.critical("UNKNOWN_DEED_TYPE", fmt.Sprintf("Deed type %q is not supported", dt))
	}
}

func (c *checks) department(code string) {
	if _, ok := c.tables.Territory(code); !ok {
		c.critical("INVALID_DEPARTMENT", fmt.Sprintf("Department %q is not a French department code", code))
	}
}

func (c *checks) propertyType(pt calc.PropertyType) {
	switch pt {
	case "", calc.PropertyExisting:
	case calc.PropertyNew:
		c.warn("VAT_REGIME", "New property is taxed through VAT: no mutation duty is computed")
	default:
		c.critical("INVALID_PROPERTY_TYPE", fmt.Sprintf("Property type %q is not supported", pt))
	}
}

func (c *checks) rebate(apply bool, amount money.Input) {
	if apply && amount.Usable() && !amount.Value.GreaterThan(c.tables.Policy.RebateThreshold) {
		c.warn("REBATE_NOT_APPLICABLE", fmt.Sprintf("The rebate only applies above %s",
			money.Format(c.tables.Policy.RebateThreshold)))
	}
}

func (c *checks) tariffed(dt rates.DeedType) {
	if cfg, ok := c.tables.Deed(dt); ok && !cfg.Tariffed {
		c.warn("NOT_TARIFFED", fmt.Sprintf("%s has no proportional émolument schedule", cfg.Label))
	}
}

func (c *checks) copyPages(n int) {
	if n < 0 {
		c.critical("INVALID_COPY_PAGES", "Copy pages cannot be negative")
	}
}
