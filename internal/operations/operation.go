// Package operations exposes the calculators as named operations applied to a
// simulation. Each operation validates its properties before it is applied.
package operations

import (
	"sort"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/model"
	"notaria-engine/internal/scan"
)

// Handler defines the contract for all operation implementations. Validate reports
// CRITICAL messages that stop processing; Apply writes its result into the simulation.
type Handler interface {
	Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage
	Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage
}

const (
	OpEmoluments       = "compute_emoluments"
	OpMutationDuty     = "compute_mutation_duty"
	OpAncillaryFees    = "compute_ancillary_fees"
	OpAcquisitionCosts = "compute_acquisition_costs"
	OpDonationDuty     = "compute_donation_duty"
	OpReconcileScan    = "reconcile_scan"
)

type Registry struct {
	handlers map[string]Handler
}

// NewRegistry binds every operation to the given calculator. The reconciler must use
// the same calculator.
func NewRegistry(c *calc.Calculator, r *scan.Reconciler) *Registry {
	return &Registry{handlers: map[string]Handler{
		OpEmoluments:       &EmolumentsHandler{calc: c},
		OpMutationDuty:     &MutationDutyHandler{calc: c},
		OpAncillaryFees:    &AncillaryHandler{calc: c},
		OpAcquisitionCosts: &AcquisitionHandler{calc: c},
		OpDonationDuty:     &DonationHandler{calc: c},
		OpReconcileScan:    &ReconcileHandler{calc: c, reconciler: r},
	}}
}

func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered operations in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
