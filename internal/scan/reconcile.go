// Package scan cross-checks the figures announced in a deed against the figures the
// calculators produce for the same deed.
package scan

import (
	"fmt"
	"strings"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// Category names the reference figure a verification compares.
type Category string

const (
	CategoryMutationDuty Category = "droits_de_mutation"
	CategoryFees         Category = "emoluments"
	CategoryGrandTotal   Category = "total_general"
	CategoryGiftDuty     Category = "droits_de_donation"
)

var categoryLabels = map[Category]string{
	CategoryMutationDuty: "les droits de mutation",
	CategoryFees:         "les émoluments du notaire",
	CategoryGrandTotal:   "le total des frais",
	CategoryGiftDuty:     "les droits de donation ou de succession",
}

type Verification struct {
	DeedType          rates.DeedType         `json:"deed_type"`
	Fallback          bool                   `json:"fallback,omitempty"`
	Category          Category               `json:"category"`
	AnnouncedAmount   *money.Money           `json:"announced_amount"`
	ComputedAmount    money.Money            `json:"computed_amount"`
	Difference        *money.Money           `json:"difference"`
	PercentDifference *money.Money           `json:"percent_difference"`
	Alert             bool                   `json:"alert"`
	Message           string                 `json:"message"`
	Costs             *calc.AcquisitionCosts `json:"costs,omitempty"`
	Donation          *calc.DonationResult   `json:"donation,omitempty"`
}

// Announced reports whether the document stated a reference figure.
func (v *Verification) Announced() bool {
	return v.AnnouncedAmount != nil
}

type ReconcileInput struct {
	DeedLabel    string
	Amount       money.Input
	RawText      string
	Department   string
	Relation     rates.Relation
	PropertyType calc.PropertyType
	DonorAge     int
}

// deedLabels maps detected labels, folded, to deed types.
var deedLabels = map[string]rates.DeedType{
	"vente":                     rates.DeedSale,
	"vente immobiliere":         rates.DeedSale,
	"compromis de vente":        rates.DeedSale,
	"promesse de vente":         rates.DeedSale,
	"vefa":                      rates.DeedSale,
	"donation":                  rates.DeedDonation,
	"donation-partage":          rates.DeedDonation,
	"don manuel":                rates.DeedDonation,
	"succession":                rates.DeedSuccession,
	"declaration de succession": rates.DeedSuccession,
	"attestation de propriete":  rates.DeedSuccession,
	"pret-hypothecaire":         rates.DeedMortgage,
	"pret hypothecaire":         rates.DeedMortgage,
	"pret":                      rates.DeedMortgage,
	"hypotheque":                rates.DeedMortgage,
	"partage":                   rates.DeedPartition,
	"bail":                      rates.DeedLease,
}

// DeedTypeForLabel maps a detected label to a deed type. Unknown labels fall back to a
// sale and report false.
func DeedTypeForLabel(label string) (rates.DeedType, bool) {
	if dt, ok := deedLabels[strings.TrimSpace(extract.Fold(label))]; ok {
		return dt, true
	}
	return rates.DeedSale, false
}

type searchRule struct {
	anchors  []string
	min, max money.Money
}

var (
	dutyBounds  = [2]money.Money{money.Int(100), money.Int(100_000_000)}
	totalBounds = [2]money.Money{money.Int(1000), money.Int(100_000_000)}
)

var searchRules = map[Category]searchRule{
	CategoryMutationDuty: {
		anchors: []string{"droits de mutation", "droits d'enregistrement", "taxe de publicite fonciere"},
		min:     dutyBounds[0], max: dutyBounds[1],
	},
	CategoryFees: {
		anchors: []string{"emoluments", "honoraires du notaire", "remuneration du notaire"},
		min:     dutyBounds[0], max: dutyBounds[1],
	},
	CategoryGrandTotal: {
		anchors: []string{"total general", "total des frais", "frais de notaire", "frais d'acquisition"},
		min:     totalBounds[0], max: totalBounds[1],
	},
	CategoryGiftDuty: {
		anchors: []string{"droits de donation", "droits de succession", "droits a payer", "droits dus"},
		min:     dutyBounds[0], max: dutyBounds[1],
	},
}

// announcedWindow is how far after an anchor an amount is still read as its value.
const announcedWindow = 150

// FindAnnounced returns the largest plausible amount written after one of the
// category's anchors.
func FindAnnounced(text string, cat Category) (money.Money, bool) {
	rule, ok := searchRules[cat]
	if !ok {
		return money.Zero, false
	}
	folded := extract.Fold(text)
	var best money.Money
	found := false
	for _, anchor := range rule.anchors {
		for from := 0; ; {
			i := strings.Index(folded[from:], anchor)
			if i < 0 {
				break
			}
			start := from + i + len(anchor)
			for _, v := range extract.AmountsIn(folded, start, windowEnd(folded, start)) {
				if v.LessThan(rule.min) || v.GreaterThan(rule.max) {
					continue
				}
				if !found || v.GreaterThan(best) {
					best, found = v, true
				}
			}
			from = start
		}
	}
	return best, found
}

// windowEnd stops the search at the end of the anchor's line, or of the next line when
// the figure is printed below its label.
func windowEnd(text string, start int) int {
	end := min(len(text), start+announcedWindow)
	nl := strings.IndexByte(text[start:end], '\n')
	if nl < 0 {
		return end
	}
	if strings.ContainsAny(text[start:start+nl], "0123456789") {
		return start + nl
	}
	if next := strings.IndexByte(text[start+nl+1:end], '\n'); next >= 0 {
		return start + nl + 1 + next
	}
	return end
}

// Compare builds the discrepancy figures. announced must be positive.
func Compare(computed, announced, tolerance money.Money) (diff, pct money.Money, alert bool) {
	diff = computed.Sub(announced)
	pct = diff.Abs().Mul(money.Hundred).Div(announced)
	return diff, pct, pct.GreaterThan(tolerance)
}

type Reconciler struct {
	calc *calc.Calculator
}

func NewReconciler(c *calc.Calculator) *Reconciler {
	return &Reconciler{calc: c}
}

type candidate struct {
	category Category
	computed money.Money
}

// Reconcile recomputes the deed and compares the result with the figure the text
// announces. It returns nil without a principal amount.
func (r *Reconciler) Reconcile(in ReconcileInput) (*Verification, error) {
	if !in.Amount.Usable() {
		return nil, nil
	}
	deedType, mapped := DeedTypeForLabel(in.DeedLabel)

	costs, err := r.calc.AcquisitionCosts(calc.AcquisitionInput{
		Amount:       in.Amount,
		DeedType:     deedType,
		Department:   in.Department,
		PropertyType: in.PropertyType,
	})
	if err != nil {
		return nil, err
	}
	v := &Verification{DeedType: deedType, Fallback: !mapped, Costs: costs}

	// highest priority first
	var candidates []candidate
	if (deedType == rates.DeedDonation || deedType == rates.DeedSuccession) && in.Relation != "" {
		transfer := calc.TransferDonation
		if deedType == rates.DeedSuccession {
			transfer = calc.TransferSuccession
		}
		don, err := r.calc.Donation(calc.DonationInput{
			Transfer: transfer,
			Amount:   in.Amount,
			Relation: in.Relation,
			DonorAge: in.DonorAge,
		})
		if err != nil {
			return nil, err
		}
		v.Donation = don
		candidates = append(candidates, candidate{CategoryGiftDuty, don.TotalDuty})
	}
	if costs.MutationDuty != nil && !costs.MutationDuty.VATRegime {
		candidates = append(candidates, candidate{CategoryMutationDuty, costs.MutationDuty.Total})
	}
	candidates = append(candidates,
		candidate{CategoryFees, costs.Emoluments.TotalTTC},
		candidate{CategoryGrandTotal, costs.GrandTotal},
	)

	for _, c := range candidates {
		announced, ok := FindAnnounced(in.RawText, c.category)
		if !ok {
			continue
		}
		diff, pct, alert := Compare(c.computed, announced, r.calc.Tables().Policy.DiscrepancyTolerance)
		v.Category = c.category
		v.ComputedAmount = c.computed
		v.AnnouncedAmount = &announced
		v.Difference = &diff
		v.PercentDifference = &pct
		v.Alert = alert
		v.Message = verdict(v)
		return v, nil
	}

	v.Category = CategoryGrandTotal
	v.ComputedAmount = costs.GrandTotal
	v.Message = summary(costs, v.Donation)
	return v, nil
}

func verdict(v *Verification) string {
	label := categoryLabels[v.Category]
	if v.Alert {
		return fmt.Sprintf("Écart de %s sur %s : %s annoncés pour %s calculés. Vérifiez le montant auprès de l'étude.",
			money.FormatPercent(*v.PercentDifference), label, money.Format(*v.AnnouncedAmount), money.Format(v.ComputedAmount))
	}
	return fmt.Sprintf("Montant cohérent pour %s : %s annoncés pour %s calculés (écart de %s).",
		label, money.Format(*v.AnnouncedAmount), money.Format(v.ComputedAmount), money.FormatPercent(*v.PercentDifference))
}

func summary(c *calc.AcquisitionCosts, don *calc.DonationResult) string {
	var b strings.Builder
	b.WriteString("Aucun montant de référence n'a été trouvé dans le document. Estimation : ")
	fmt.Fprintf(&b, "émoluments %s", money.Format(c.Emoluments.TotalTTC))
	if c.MutationDuty != nil {
		fmt.Fprintf(&b, ", droits de mutation %s", money.Format(c.MutationDuty.Total))
	}
	fmt.Fprintf(&b, ", frais annexes %s, soit %s au total.", money.Format(c.Ancillary.Total), money.Format(c.GrandTotal))
	if don != nil {
		fmt.Fprintf(&b, " Droits de donation ou de succession estimés : %s.", money.Format(don.TotalDuty))
	}
	return b.String()
}
