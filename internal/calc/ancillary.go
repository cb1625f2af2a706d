package calc

import (
	"fmt"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

type FeeLine struct {
	Code   string      `json:"code"`
	Label  string      `json:"label"`
	Amount money.Money `json:"amount"`
}

// AncillaryBreakdown groups the débours (no VAT), the formalities and the document
// copies (both subject to VAT).
type AncillaryBreakdown struct {
	Disbursements      []FeeLine   `json:"disbursements"`
	DisbursementsTotal money.Money `json:"disbursements_total"`
	Formalities        []FeeLine   `json:"formalities"`
	FormalitiesHT      money.Money `json:"formalities_ht"`
	FormalitiesTVA     money.Money `json:"formalities_tva"`
	FormalitiesTTC     money.Money `json:"formalities_ttc"`
	CopyPages          int         `json:"copy_pages"`
	CopiesHT           money.Money `json:"copies_ht"`
	CopiesTVA          money.Money `json:"copies_tva"`
	CopiesTTC          money.Money `json:"copies_ttc"`
	VATRate            money.Money `json:"vat_rate"`
	Total              money.Money `json:"total"`
}

// ComputeAncillary sums the fixed fees configured for a deed type. copyPages overrides
// the configured page count when positive.
func ComputeAncillary(amount money.Money, cfg rates.DeedConfig, terr rates.Territory, copyPages int) AncillaryBreakdown {
	b := AncillaryBreakdown{
		Disbursements: []FeeLine{},
		Formalities:   []FeeLine{},
		VATRate:       terr.VATRate,
	}
	vat := func(ht money.Money) money.Money {
		if terr.VATExempt {
			return money.Zero
		}
		return money.Percent(ht, terr.VATRate)
	}

	for _, f := range cfg.Disbursements {
		b.Disbursements = append(b.Disbursements, FeeLine(f))
		b.DisbursementsTotal = b.DisbursementsTotal.Add(f.Amount)
	}
	if sc := cfg.SecurityContribution; sc != nil && amount.IsPositive() {
		csi := money.Max(money.Percent(amount, sc.Rate), sc.Minimum)
		b.Disbursements = append(b.Disbursements, FeeLine{
			Code:   "csi",
			Label:  "Contribution de sécurité immobilière",
			Amount: csi,
		})
		b.DisbursementsTotal = b.DisbursementsTotal.Add(csi)
	}

	for _, f := range cfg.Formalities {
		b.Formalities = append(b.Formalities, FeeLine(f))
		b.FormalitiesHT = b.FormalitiesHT.Add(f.Amount)
	}
	b.FormalitiesTVA = vat(b.FormalitiesHT)
	b.FormalitiesTTC = b.FormalitiesHT.Add(b.FormalitiesTVA)

	b.CopyPages = cfg.CopyPages
	if copyPages > 0 {
		b.CopyPages = copyPages
	}
	b.CopiesHT = cfg.CopyPageFee.Mul(money.Int(int64(b.CopyPages)))
	b.CopiesTVA = vat(b.CopiesHT)
	b.CopiesTTC = b.CopiesHT.Add(b.CopiesTVA)

	b.Total = b.DisbursementsTotal.Add(b.FormalitiesTTC).Add(b.CopiesTTC)
	return b
}

type AncillaryInput struct {
	Amount     money.Input    `json:"amount"`
	DeedType   rates.DeedType `json:"deed_type"`
	Department string         `json:"department"`
	CopyPages  int            `json:"copy_pages"`
}

func (c *Calculator) Ancillary(in AncillaryInput) (*AncillaryBreakdown, error) {
	if !in.Amount.Usable() {
		return nil, ErrMissingAmount
	}
	cfg, ok := c.tables.Deed(in.DeedType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", rates.ErrUnknownDeedType, in.DeedType)
	}
	terr, ok := c.tables.Territory(in.Department)
	if !ok {
		return nil, fmt.Errorf("%w: %q", rates.ErrUnknownDepartment, in.Department)
	}
	b := ComputeAncillary(in.Amount.Value, cfg, terr, in.CopyPages)
	return &b, nil
}
