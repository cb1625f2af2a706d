package calc

import (
	"strings"

	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// Slice is the part of an amount that falls into one tier.
type Slice struct {
	Label        string      `json:"label"`
	AmountInTier money.Money `json:"amount_in_tier"`
	Rate         money.Money `json:"rate"`
	Amount       money.Money `json:"amount"`
}

// Progressive walks the schedule in order, charging each tier's rate on the part of
// amount that falls inside it, and stops once the amount is exhausted.
func Progressive(amount money.Money, s rates.Schedule) (money.Money, []Slice) {
	total := money.Zero
	slices := []Slice{}
	if len(s) == 0 || !amount.IsPositive() {
		return total, slices
	}

	remaining := amount
	lower := s[0].Min
	for _, tier := range s {
		if !remaining.IsPositive() {
			break
		}
		inTier := remaining
		if !tier.Unbounded() {
			inTier = money.Min(remaining, tier.Max.Sub(lower))
		}
		charged := money.Percent(inTier, tier.Rate)
		slices = append(slices, Slice{
			Label:        tierLabel(tier),
			AmountInTier: inTier,
			Rate:         tier.Rate,
			Amount:       charged,
		})
		total = total.Add(charged)
		remaining = remaining.Sub(inTier)
		if !tier.Unbounded() {
			lower = *tier.Max
		}
	}
	return total, slices
}

func tierLabel(t rates.Tier) string {
	if t.Unbounded() {
		return "au-delà de " + whole(t.Min)
	}
	return "de " + whole(t.Min) + " à " + whole(*t.Max)
}

func whole(m money.Money) string {
	s := money.Format(m)
	if strings.HasSuffix(s, ",00 €") {
		return strings.TrimSuffix(s, ",00 €") + " €"
	}
	return s
}
