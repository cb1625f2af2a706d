package calc

import (
	"fmt"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// EmolumentsBreakdown follows the order of the regulated computation:
// bruts → majoration → avant remise → remise → nets → TVA → TTC.
type EmolumentsBreakdown struct {
	Amount           money.Money `json:"amount"`
	DeedType         string      `json:"deed_type,omitempty"`
	Department       string      `json:"department,omitempty"`
	NotTariffed      bool        `json:"not_tariffed,omitempty"`
	Tiers            []Slice     `json:"tiers"`
	Bruts            money.Money `json:"bruts"`
	SurchargePercent money.Money `json:"surcharge_percent"`
	Majoration       money.Money `json:"majoration"`
	AvantRemise      money.Money `json:"avant_remise"`
	RebateApplied    bool        `json:"rebate_applied"`
	Remise20         money.Money `json:"remise_20"`
	Nets             money.Money `json:"nets"`
	VATRate          money.Money `json:"vat_rate"`
	MontantTVA       money.Money `json:"montant_tva"`
	TotalTTC         money.Money `json:"total_ttc"`
}

// ComputeEmoluments applies the tiered schedule, the overseas surcharge, the optional
// rebate on the part above the policy threshold and the territory VAT.
func ComputeEmoluments(amount money.Money, schedule rates.Schedule, terr rates.Territory, applyRebate bool, policy rates.Policy) EmolumentsBreakdown {
	b := EmolumentsBreakdown{
		Amount:           amount,
		SurchargePercent: terr.SurchargePercent,
		VATRate:          terr.VATRate,
	}

	b.Bruts, b.Tiers = Progressive(amount, schedule)
	if terr.SurchargePercent.IsPositive() {
		b.Majoration = money.Percent(b.Bruts, terr.SurchargePercent)
	}
	b.AvantRemise = b.Bruts.Add(b.Majoration)

	// threshold is exclusive: exactly 100 000 € gets no rebate
	if applyRebate && amount.GreaterThan(policy.RebateThreshold) {
		atThreshold, _ := Progressive(policy.RebateThreshold, schedule)
		above := b.Bruts.Sub(atThreshold)
		above = above.Add(money.Percent(above, terr.SurchargePercent))
		b.Remise20 = money.Percent(above, policy.RebateRate)
		b.RebateApplied = true
	}

	b.Nets = b.AvantRemise.Sub(b.Remise20)
	if !terr.VATExempt {
		b.MontantTVA = money.Percent(b.Nets, terr.VATRate)
	}
	b.TotalTTC = b.Nets.Add(b.MontantTVA)
	return b
}

type EmolumentsInput struct {
	Amount      money.Input    `json:"amount"`
	DeedType    rates.DeedType `json:"deed_type"`
	Department  string         `json:"department"`
	ApplyRebate bool           `json:"apply_rebate"`
}

// Emoluments resolves the deed schedule and department, then computes the breakdown.
// Deed types without a proportional tariff give a zero breakdown flagged NotTariffed.
func (c *Calculator) Emoluments(in EmolumentsInput) (*EmolumentsBreakdown, error) {
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

	var b EmolumentsBreakdown
	if cfg.Tariffed {
		b = ComputeEmoluments(in.Amount.Value, cfg.Emoluments, terr, in.ApplyRebate, c.tables.Policy)
	} else {
		b = EmolumentsBreakdown{Amount: in.Amount.Value, NotTariffed: true, Tiers: []Slice{}, VATRate: terr.VATRate}
	}
	b.DeedType = string(in.DeedType)
	b.Department = rates.NormalizeDepartment(in.Department)
	return &b, nil
}
