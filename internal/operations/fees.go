package operations

import (
	"notaria-engine/internal/calc"
	"notaria-engine/internal/model"
	"notaria-engine/internal/rates"
)

type EmolumentsHandler struct {
	calc *calc.Calculator
}

func emolumentsProps(op *model.Operation) (calc.EmolumentsInput, *model.CalculationMessage) {
	var in calc.EmolumentsInput
	msg := decodeProps(op, &in)
	if in.DeedType == "" {
		in.DeedType = rates.DeedSale
	}
	return in, msg
}

func (h *EmolumentsHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, msg := emolumentsProps(op)
	c := checks{tables: h.calc.Tables()}
	c.props(msg)
	c.amount(in.Amount)
	c.deedType(in.DeedType)
	c.department(in.Department)
	c.tariffed(in.DeedType)
	c.rebate(in.ApplyRebate, in.Amount)
	return c.msgs
}

func (h *EmolumentsHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, _ := emolumentsProps(op)
	b, err := h.calc.Emoluments(in)
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.Emoluments = b
	return nil
}

type MutationDutyHandler struct {
	calc *calc.Calculator
}

func dutyProps(op *model.Operation) (calc.MutationDutyInput, *model.CalculationMessage) {
	var in calc.MutationDutyInput
	return in, decodeProps(op, &in)
}

func (h *MutationDutyHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, msg := dutyProps(op)
	c := checks{tables: h.calc.Tables()}
	c.props(msg)
	c.amount(in.Amount)
	c.department(in.Department)
	c.propertyType(in.PropertyType)
	return c.msgs
}

func (h *MutationDutyHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, _ := dutyProps(op)
	b, err := h.calc.MutationDuty(in)
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.MutationDuty = b
	return nil
}

type AncillaryHandler struct {
	calc *calc.Calculator
}

func ancillaryProps(op *model.Operation) (calc.AncillaryInput, *model.CalculationMessage) {
	var in calc.AncillaryInput
	msg := decodeProps(op, &in)
	if in.DeedType == "" {
		in.DeedType = rates.DeedSale
	}
	return in, msg
}

func (h *AncillaryHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, msg := ancillaryProps(op)
	c := checks{tables: h.calc.Tables()}
	c.props(msg)
	c.amount(in.Amount)
	c.deedType(in.DeedType)
	c.department(in.Department)
	c.copyPages(in.CopyPages)
	return c.msgs
}

func (h *AncillaryHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, _ := ancillaryProps(op)
	b, err := h.calc.Ancillary(in)
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.Ancillary = b
	return nil
}

// AcquisitionHandler computes the full estimate and also fills the individual slots so
// a single operation yields a complete simulation.
type AcquisitionHandler struct {
	calc *calc.Calculator
}

func acquisitionProps(op *model.Operation) (calc.AcquisitionInput, *model.CalculationMessage) {
	var in calc.AcquisitionInput
	msg := decodeProps(op, &in)
	if in.DeedType == "" {
		in.DeedType = rates.DeedSale
	}
	return in, msg
}

func (h *AcquisitionHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, msg := acquisitionProps(op)
	c := checks{tables: h.calc.Tables()}
	c.props(msg)
	c.amount(in.Amount)
	c.deedType(in.DeedType)
	c.department(in.Department)
	c.copyPages(in.CopyPages)
	c.tariffed(in.DeedType)
	if in.DeedType == rates.DeedSale {
		c.propertyType(in.PropertyType)
	}
	c.rebate(in.ApplyRebate, in.Amount)
	return c.msgs
}

func (h *AcquisitionHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	in, _ := acquisitionProps(op)
	costs, err := h.calc.AcquisitionCosts(in)
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.AcquisitionCosts = costs
	emol, anc := costs.Emoluments, costs.Ancillary
	sim.Emoluments = &emol
	sim.Ancillary = &anc
	sim.MutationDuty = costs.MutationDuty
	return nil
}
