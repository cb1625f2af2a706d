package operations

import (
	"fmt"
	"strings"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/model"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/scan"
)

// reconcileProps carries what a scan produced. Missing fields are read from RawText.
type reconcileProps struct {
	DeedLabel    string            `json:"deed_label"`
	Amount       money.Input       `json:"amount"`
	RawText      string            `json:"raw_text"`
	Department   string            `json:"department"`
	Relation     rates.Relation    `json:"relation"`
	PropertyType calc.PropertyType `json:"property_type"`
	DonorAge     int               `json:"donor_age"`
}

func (p reconcileProps) input() scan.ReconcileInput {
	in := scan.ReconcileInput{
		DeedLabel:    p.DeedLabel,
		Amount:       p.Amount,
		RawText:      p.RawText,
		Department:   p.Department,
		Relation:     p.Relation,
		PropertyType: p.PropertyType,
		DonorAge:     p.DonorAge,
	}
	if strings.TrimSpace(p.RawText) == "" {
		return in
	}
	if in.DeedLabel == "" {
		in.DeedLabel = extract.Detect(p.RawText).Label
	}
	if in.Amount.Usable() && in.Relation != "" && in.PropertyType != "" && in.DonorAge != 0 {
		return in
	}
	data := extract.Fields(p.RawText)
	if !in.Amount.Usable() {
		in.Amount = data.PrincipalAmount
	}
	if in.Relation == "" {
		in.Relation = data.Relation
	}
	if in.PropertyType == "" {
		in.PropertyType = data.PropertyType
	}
	if in.DonorAge == 0 {
		in.DonorAge = data.DonorAge
	}
	if in.Department == "" && rates.ValidDepartment(data.Department) {
		in.Department = data.Department
	}
	return in
}

type ReconcileHandler struct {
	calc       *calc.Calculator
	reconciler *scan.Reconciler
}

func (h *ReconcileHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	var p reconcileProps
	c := checks{tables: h.calc.Tables()}
	c.props(decodeProps(op, &p))
	if c.failed {
		return c.msgs
	}
	in := p.input()

	c.department(in.Department)
	if in.Relation != "" {
		if _, ok := c.tables.Kin(in.Relation); !ok {
			c.critical("UNKNOWN_RELATION", fmt.Sprintf("Kinship relation %q is not supported", in.Relation))
		}
	}
	c.propertyType(in.PropertyType)
	if !in.Amount.Usable() {
		c.warn("NO_PRINCIPAL_AMOUNT", "No principal amount was provided or found in the text: nothing to reconcile")
	}
	if _, mapped := scan.DeedTypeForLabel(in.DeedLabel); !mapped {
		c.warn("UNMAPPED_DEED_TYPE", fmt.Sprintf("Deed %q is not recognised: figures are computed as a sale", in.DeedLabel))
	}
	return c.msgs
}

func (h *ReconcileHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	var p reconcileProps
	decodeProps(op, &p)
	v, err := h.reconciler.Reconcile(p.input())
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.Verification = v
	if v != nil && v.Alert {
		return []model.CalculationMessage{model.Warning("AMOUNT_DISCREPANCY", v.Message)}
	}
	return nil
}
