package model

import (
	"notaria-engine/internal/calc"
	"notaria-engine/internal/scan"
)

// Simulation accumulates the results of the operations applied so far. Each operation
// fills one slot; applying the same operation twice replaces the previous result.
type Simulation struct {
	DossierID        string                    `json:"dossier_id,omitempty"`
	Emoluments       *calc.EmolumentsBreakdown `json:"emoluments"`
	MutationDuty     *calc.DutyBreakdown       `json:"mutation_duty"`
	Ancillary        *calc.AncillaryBreakdown  `json:"ancillary_fees"`
	AcquisitionCosts *calc.AcquisitionCosts    `json:"acquisition_costs"`
	Donation         *calc.DonationResult      `json:"donation"`
	Verification     *scan.Verification        `json:"verification"`
}

// Empty reports whether no operation has produced a result yet.
func (s *Simulation) Empty() bool {
	return s.Emoluments == nil && s.MutationDuty == nil && s.Ancillary == nil &&
		s.AcquisitionCosts == nil && s.Donation == nil && s.Verification == nil
}
