package operations

import (
	"fmt"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/model"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

const maxDonorAge = 120

type priorDonationProps struct {
	Amount money.Input `json:"amount"`
	Date   string      `json:"date"`
}

type dutreilProps struct {
	CollectiveCommitment bool        `json:"collective_commitment"`
	IndividualCommitment bool        `json:"individual_commitment"`
	CompanyValue         money.Input `json:"company_value"`
	TransferPercent      money.Input `json:"transfer_percent"`
}

type donationProps struct {
	Transfer      calc.Transfer       `json:"transfer"`
	Amount        money.Input         `json:"amount"`
	Beneficiaries int                 `json:"beneficiaries"`
	Relation      rates.Relation      `json:"relation"`
	DonorAge      int                 `json:"donor_age"`
	GiftType      calc.GiftType       `json:"gift_type"`
	Disability    bool                `json:"disability"`
	PriorDonation *priorDonationProps `json:"prior_donation"`
	ActDate       string              `json:"act_date"`
	Dismemberment calc.Dismemberment  `json:"dismemberment"`
	Dutreil       *dutreilProps       `json:"dutreil"`
}

// input converts the properties; the act date defaults to the operation date.
func (p donationProps) input(op *model.Operation) calc.DonationInput {
	in := calc.DonationInput{
		Transfer:      p.Transfer,
		Amount:        p.Amount,
		Beneficiaries: p.Beneficiaries,
		Relation:      p.Relation,
		DonorAge:      p.DonorAge,
		GiftType:      p.GiftType,
		Disability:    p.Disability,
		Dismemberment: p.Dismemberment,
	}
	actDate := p.ActDate
	if actDate == "" {
		actDate = op.ActualAt
	}
	in.ActDate, _ = fastParseDate(actDate)
	if p.PriorDonation != nil {
		date, _ := fastParseDate(p.PriorDonation.Date)
		in.PriorDonation = &calc.PriorDonation{Amount: p.PriorDonation.Amount.Value, Date: date}
	}
	if p.Dutreil != nil {
		in.Dutreil = &calc.Dutreil{
			CollectiveCommitment: p.Dutreil.CollectiveCommitment,
			IndividualCommitment: p.Dutreil.IndividualCommitment,
			CompanyValue:         p.Dutreil.CompanyValue.Value,
			TransferPercent:      p.Dutreil.TransferPercent.Value,
		}
	}
	return in
}

type DonationHandler struct {
	calc *calc.Calculator
}

func (h *DonationHandler) Validate(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	var p donationProps
	c := checks{tables: h.calc.Tables()}
	c.props(decodeProps(op, &p))
	c.amount(p.Amount)

	switch p.Transfer {
	case "", calc.TransferDonation, calc.TransferSuccession:
	default:
		c.critical("INVALID_TRANSFER", fmt.Sprintf("Transfer %q must be donation or succession", p.Transfer))
	}
	if _, ok := c.tables.Kin(p.Relation); !ok {
		c.critical("UNKNOWN_RELATION", fmt.Sprintf("Kinship relation %q is not supported", p.Relation))
	}
	if p.DonorAge < 0 || p.DonorAge > maxDonorAge {
		c.critical("INVALID_DONOR_AGE", fmt.Sprintf("Donor age %d is out of range", p.DonorAge))
	}
	if p.Beneficiaries < 0 {
		c.critical("INVALID_BENEFICIARIES", "Number of beneficiaries cannot be negative")
	}
	switch p.GiftType {
	case "", calc.GiftStandard, calc.GiftCash, calc.GiftCashForResidence:
	default:
		c.critical("INVALID_GIFT_TYPE", fmt.Sprintf("Gift type %q is not supported", p.GiftType))
	}
	switch p.Dismemberment {
	case calc.DismemberNone:
	case calc.DismemberBareOwnership, calc.DismemberUsufruct:
		if p.DonorAge == 0 {
			c.warn("DONOR_AGE_MISSING", "Dismembered rights are valued with the youngest usufruct bracket when the donor age is unknown")
		}
	default:
		c.critical("INVALID_DISMEMBERMENT", fmt.Sprintf("Dismemberment %q is not supported", p.Dismemberment))
	}
	if p.ActDate != "" {
		if _, ok := fastParseDate(p.ActDate); !ok {
			c.critical("INVALID_DATE", fmt.Sprintf("Act date %q is not a YYYY-MM-DD date", p.ActDate))
		}
	}
	if pd := p.PriorDonation; pd != nil && pd.Date != "" {
		if _, ok := fastParseDate(pd.Date); !ok {
			c.critical("INVALID_DATE", fmt.Sprintf("Prior donation date %q is not a YYYY-MM-DD date", pd.Date))
		}
	}
	if d := p.Dutreil; d != nil && !(d.CollectiveCommitment && d.IndividualCommitment) {
		c.warn("DUTREIL_NOT_QUALIFIED", "Both the collective and the individual commitments are required: no Dutreil reduction applied")
	}

	policy := c.tables.Policy
	cash := p.GiftType == calc.GiftCash || p.GiftType == calc.GiftCashForResidence
	if cash && (p.DonorAge == 0 || p.DonorAge >= policy.CashGiftMaxDonorAge) {
		c.warn("CASH_GIFT_NOT_APPLICABLE", fmt.Sprintf("The cash-gift allowance requires a donor younger than %d", policy.CashGiftMaxDonorAge))
	}
	return c.msgs
}

func (h *DonationHandler) Apply(sim *model.Simulation, op *model.Operation) []model.CalculationMessage {
	var p donationProps
	decodeProps(op, &p)
	r, err := h.calc.Donation(p.input(op))
	if err != nil {
		return []model.CalculationMessage{failure(err)}
	}
	sim.Donation = r
	return nil
}
