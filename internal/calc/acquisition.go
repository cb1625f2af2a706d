package calc

import (
	"fmt"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// AcquisitionCosts is the full "frais de notaire" estimate for a deed.
type AcquisitionCosts struct {
	Amount       money.Money         `json:"amount"`
	DeedType     rates.DeedType      `json:"deed_type"`
	Department   string              `json:"department,omitempty"`
	Emoluments   EmolumentsBreakdown `json:"emoluments"`
	MutationDuty *DutyBreakdown      `json:"mutation_duty,omitempty"`
	Ancillary    AncillaryBreakdown  `json:"ancillary"`
	GrandTotal   money.Money         `json:"grand_total"`
	ShareOfPrice money.Money         `json:"share_of_price"`
}

type AcquisitionInput struct {
	Amount       money.Input    `json:"amount"`
	DeedType     rates.DeedType `json:"deed_type"`
	Department   string         `json:"department"`
	PropertyType PropertyType   `json:"property_type"`
	ApplyRebate  bool           `json:"apply_rebate"`
	CopyPages    int            `json:"copy_pages"`
}

// AcquisitionCosts composes émoluments, mutation duty (sales only) and ancillary fees.
func (c *Calculator) AcquisitionCosts(in AcquisitionInput) (*AcquisitionCosts, error) {
	if in.DeedType == "" {
		in.DeedType = rates.DeedSale
	}
	emol, err := c.Emoluments(EmolumentsInput{
		Amount:      in.Amount,
		DeedType:    in.DeedType,
		Department:  in.Department,
		ApplyRebate: in.ApplyRebate,
	})
	if err != nil {
		return nil, fmt.Errorf("emoluments: %w", err)
	}
	anc, err := c.Ancillary(AncillaryInput{
		Amount:     in.Amount,
		DeedType:   in.DeedType,
		Department: in.Department,
		CopyPages:  in.CopyPages,
	})
	if err != nil {
		return nil, fmt.Errorf("ancillary fees: %w", err)
	}

	costs := &AcquisitionCosts{
		Amount:     in.Amount.Value,
		DeedType:   in.DeedType,
		Department: emol.Department,
		Emoluments: *emol,
		Ancillary:  *anc,
	}
	costs.GrandTotal = emol.TotalTTC.Add(anc.Total)

	if in.DeedType == rates.DeedSale {
		duty, err := c.MutationDuty(MutationDutyInput{
			Amount:       in.Amount,
			Department:   in.Department,
			PropertyType: in.PropertyType,
		})
		if err != nil {
			return nil, fmt.Errorf("mutation duty: %w", err)
		}
		costs.MutationDuty = duty
		costs.GrandTotal = costs.GrandTotal.Add(duty.Total)
	}

	if costs.Amount.IsPositive() {
		costs.ShareOfPrice = costs.GrandTotal.Mul(money.Hundred).Div(costs.Amount)
	}
	return costs, nil
}
