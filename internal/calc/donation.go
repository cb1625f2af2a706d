package calc

import (
	"fmt"
	"time"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

type Transfer string

const (
	TransferDonation   Transfer = "donation"
	TransferSuccession Transfer = "succession"
)

type GiftType string

const (
	GiftStandard         GiftType = "classique"
	GiftCash             GiftType = "argent"
	GiftCashForResidence GiftType = "argent-residence"
)

type Dismemberment string

const (
	DismemberNone          Dismemberment = ""
	DismemberBareOwnership Dismemberment = "nue-propriete"
	DismemberUsufruct      Dismemberment = "usufruit"
)

type PriorDonation struct {
	Amount money.Money
	Date   time.Time
}

// Dutreil describes a business transfer under a pacte Dutreil. TransferPercent is the
// share of the company transferred, in percent.
type Dutreil struct {
	CollectiveCommitment bool
	IndividualCommitment bool
	CompanyValue         money.Money
	TransferPercent      money.Money
}

func (d *Dutreil) qualifies() bool {
	return d != nil && d.CollectiveCommitment && d.IndividualCommitment
}

type DonationInput struct {
	Transfer      Transfer
	Amount        money.Input
	Beneficiaries int
	Relation      rates.Relation
	DonorAge      int
	GiftType      GiftType
	Disability    bool
	PriorDonation *PriorDonation
	ActDate       time.Time
	Dismemberment Dismemberment
	Dutreil       *Dutreil
}

type AllowanceBreakdown struct {
	General           money.Money `json:"general"`
	PriorDonationUsed money.Money `json:"prior_donation_used"`
	GeneralAvailable  money.Money `json:"general_available"`
	CashGift          money.Money `json:"cash_gift"`
	Residence         money.Money `json:"residence"`
	Disability        money.Money `json:"disability"`
	Total             money.Money `json:"total"`
}

// DonationResult holds per-beneficiary figures; TotalDuty covers every beneficiary.
type DonationResult struct {
	Transfer             Transfer           `json:"transfer"`
	Relation             rates.Relation     `json:"relation"`
	Beneficiaries        int                `json:"beneficiaries"`
	GrossAmount          money.Money        `json:"gross_amount"`
	DutreilReduction     money.Money        `json:"dutreil_reduction"`
	ValueAfterDutreil    money.Money        `json:"value_after_dutreil"`
	Dismemberment        Dismemberment      `json:"dismemberment,omitempty"`
	UsufructPercent      money.Money        `json:"usufruct_percent"`
	TaxableValue         money.Money        `json:"taxable_value"`
	Share                money.Money        `json:"share"`
	Allowances           AllowanceBreakdown `json:"allowances"`
	AllowanceUsed        money.Money        `json:"allowance_used"`
	TaxableBase          money.Money        `json:"taxable_base"`
	Tiers                []Slice            `json:"tiers"`
	Duty                 money.Money        `json:"duty"`
	EffectiveRate        money.Money        `json:"effective_rate"`
	NetToBeneficiary     money.Money        `json:"net_to_beneficiary"`
	TotalDuty            money.Money        `json:"total_duty"`
	SavingsFromAllowance money.Money        `json:"savings_from_allowance"` // duty avoided by the allowance capped at the share
	Suggestions          []string           `json:"suggestions"`
}

// Donation computes gift or inheritance duty. Steps run in a fixed order: Dutreil
// reduction on the gross amount, valuation of the dismembered right on the reduced
// value, split between beneficiaries, allowance stacking, then the relation's schedule.
func (c *Calculator) Donation(in DonationInput) (*DonationResult, error) {
	if !in.Amount.Usable() {
		return nil, ErrMissingAmount
	}
	rule, ok := c.tables.Kin(in.Relation)
	if !ok {
		return nil, fmt.Errorf("%w: %q", rates.ErrUnknownRelation, in.Relation)
	}
	if in.Transfer == "" {
		in.Transfer = TransferDonation
	}
	if in.Beneficiaries < 1 {
		in.Beneficiaries = 1
	}
	policy := c.tables.Policy
	n := money.Int(int64(in.Beneficiaries))

	r := &DonationResult{
		Transfer:      in.Transfer,
		Relation:      in.Relation,
		Beneficiaries: in.Beneficiaries,
		GrossAmount:   in.Amount.Value,
		Dismemberment: in.Dismemberment,
	}

	r.DutreilReduction, r.ValueAfterDutreil = applyDutreil(in.Amount.Value, in.Dutreil, policy)
	r.UsufructPercent, r.TaxableValue = c.applyDismemberment(r.ValueAfterDutreil, in.Dismemberment, in.DonorAge)
	r.Share = r.TaxableValue.Div(n)

	r.Allowances = stackAllowances(rule.Allowance, in, policy)
	r.AllowanceUsed = money.Min(r.Allowances.Total, r.Share)
	r.TaxableBase = money.Clamp(r.Share.Sub(r.Allowances.Total))

	r.Duty, r.Tiers = Progressive(r.TaxableBase, rule.Duty)
	if r.TaxableBase.IsPositive() {
		r.EffectiveRate = r.Duty.Mul(money.Hundred).Div(r.TaxableBase)
	}
	r.NetToBeneficiary = r.GrossAmount.Div(n).Sub(r.Duty)
	r.TotalDuty = r.Duty.Mul(n)

	// Only the allowance actually absorbed by the share counts as saved.
	withoutAllowance, _ := Progressive(r.TaxableBase.Add(r.AllowanceUsed), rule.Duty)
	r.SavingsFromAllowance = withoutAllowance.Sub(r.Duty)

	r.Suggestions = c.suggest(in, r)
	return r, nil
}

func applyDutreil(gross money.Money, d *Dutreil, policy rates.Policy) (reduction, value money.Money) {
	if !d.qualifies() {
		return money.Zero, gross
	}
	transferred := money.Percent(d.CompanyValue, d.TransferPercent)
	reduction = money.Percent(transferred, policy.DutreilReductionRate)
	return reduction, money.Clamp(gross.Sub(reduction))
}

func (c *Calculator) applyDismemberment(value money.Money, kind Dismemberment, donorAge int) (usufruct, taxable money.Money) {
	switch kind {
	case DismemberBareOwnership:
		usufruct = c.tables.UsufructPercent(donorAge)
		return usufruct, money.Percent(value, money.Hundred.Sub(usufruct))
	case DismemberUsufruct:
		usufruct = c.tables.UsufructPercent(donorAge)
		return usufruct, money.Percent(value, usufruct)
	}
	return money.Zero, value
}

// stackAllowances adds the special exemptions to the kinship allowance. A prior gift
// inside the recall period only eats into the kinship allowance.
func stackAllowances(base money.Money, in DonationInput, policy rates.Policy) AllowanceBreakdown {
	a := AllowanceBreakdown{General: base, GeneralAvailable: base}

	if p := in.PriorDonation; p != nil && p.Amount.IsPositive() && withinRecall(p.Date, in.ActDate, policy.RecallYears) {
		a.PriorDonationUsed = money.Min(p.Amount, base)
		a.GeneralAvailable = base.Sub(a.PriorDonationUsed)
	}

	if in.Transfer == TransferDonation && in.Relation.FamilyGiftEligible() {
		cash := in.GiftType == GiftCash || in.GiftType == GiftCashForResidence
		if cash && in.DonorAge > 0 && in.DonorAge < policy.CashGiftMaxDonorAge {
			a.CashGift = policy.CashGiftAllowance
		}
		if in.GiftType == GiftCashForResidence {
			a.Residence = policy.ResidenceExemption
		}
	}

	if in.Disability {
		a.Disability = policy.DisabilityAllowance
	}

	a.Total = a.GeneralAvailable.Add(a.CashGift).Add(a.Residence).Add(a.Disability)
	return a
}

// withinRecall treats an unknown date as inside the period.
func withinRecall(prior, act time.Time, years int) bool {
	if prior.IsZero() || act.IsZero() {
		return true
	}
	return prior.AddDate(years, 0, 0).After(act)
}

func (c *Calculator) suggest(in DonationInput, r *DonationResult) []string {
	out := []string{}
	if in.Transfer != TransferDonation || !r.TaxableBase.IsPositive() {
		return out
	}
	policy := c.tables.Policy

	if in.Dismemberment == DismemberNone && in.DonorAge > 0 {
		bare := c.tables.BareOwnershipPercent(in.DonorAge)
		out = append(out, fmt.Sprintf(
			"Une donation de la nue-propriété ramènerait la valeur taxable à %s de la pleine propriété (donateur de %d ans).",
			money.FormatPercent(bare), in.DonorAge))
	}
	if in.GiftType == GiftStandard || in.GiftType == "" {
		if in.Relation.FamilyGiftEligible() && in.DonorAge > 0 && in.DonorAge < policy.CashGiftMaxDonorAge {
			out = append(out, fmt.Sprintf(
				"Un don familial de sommes d'argent ouvrirait un abattement supplémentaire de %s.",
				money.Format(policy.CashGiftAllowance)))
		}
	}
	if in.PriorDonation == nil {
		out = append(out, fmt.Sprintf(
			"Les abattements se reconstituent tous les %d ans : étaler la transmission permet de les utiliser plusieurs fois.",
			policy.RecallYears))
	}
	if in.Dutreil != nil && !in.Dutreil.qualifies() {
		out = append(out, fmt.Sprintf(
			"La réduction Dutreil suppose un engagement collectif de %d ans et un engagement individuel de %d ans.",
			policy.DutreilCollectiveYrs, policy.DutreilIndividualYrs))
	}
	return out
}
