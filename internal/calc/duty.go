package calc

import (
	"fmt"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

type PropertyType string

const (
	PropertyExisting PropertyType = "existing"
	// PropertyNew covers VEFA and other new builds, taxed through VAT instead.
	PropertyNew PropertyType = "new"
)

type DutyBreakdown struct {
	Amount           money.Money  `json:"amount"`
	PropertyType     PropertyType `json:"property_type"`
	Department       string       `json:"department,omitempty"`
	VATRegime        bool         `json:"vat_regime"`
	DepartmentalRate money.Money  `json:"departmental_rate"`
	Departmental     money.Money  `json:"departmental"`
	CommunalRate     money.Money  `json:"communal_rate"`
	Communal         money.Money  `json:"communal"`
	AssessmentRate   money.Money  `json:"assessment_rate"`
	AssessmentFee    money.Money  `json:"assessment_fee"`
	Total            money.Money  `json:"total"`
}

// ComputeMutationDuty returns the droits de mutation on an existing property. New
// property owes no transfer duty here.
func ComputeMutationDuty(amount money.Money, terr rates.Territory, pt PropertyType, policy rates.Policy) DutyBreakdown {
	b := DutyBreakdown{
		Amount:           amount,
		PropertyType:     pt,
		DepartmentalRate: terr.MutationDutyRate,
		CommunalRate:     policy.CommunalRate,
		AssessmentRate:   policy.AssessmentRate,
	}
	if pt == PropertyNew {
		b.VATRegime = true
		return b
	}

	b.Departmental = money.Percent(amount, terr.MutationDutyRate)
	b.Communal = money.Percent(amount, policy.CommunalRate)
	b.AssessmentFee = money.Percent(b.Departmental.Add(b.Communal), policy.AssessmentRate)
	b.Total = b.Departmental.Add(b.Communal).Add(b.AssessmentFee)
	return b
}

type MutationDutyInput struct {
	Amount       money.Input  `json:"amount"`
	Department   string       `json:"department"`
	PropertyType PropertyType `json:"property_type"`
}

func (c *Calculator) MutationDuty(in MutationDutyInput) (*DutyBreakdown, error) {
	if !in.Amount.Usable() {
		return nil, ErrMissingAmount
	}
	terr, ok := c.tables.Territory(in.Department)
	if !ok {
		return nil, fmt.Errorf("%w: %q", rates.ErrUnknownDepartment, in.Department)
	}
	pt := in.PropertyType
	if pt == "" {
		pt = PropertyExisting
	}
	b := ComputeMutationDuty(in.Amount.Value, terr, pt, c.tables.Policy)
	b.Department = rates.NormalizeDepartment(in.Department)
	return &b, nil
}
