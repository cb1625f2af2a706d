package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"notaria-engine/internal/rates"
)

// Fold lower-cases s and strips diacritics so "Hypothèque" and "HYPOTHEQUE" match.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "œ", "oe")
	out = strings.ReplaceAll(out, "Œ", "oe")
	out = strings.ReplaceAll(out, "’", "'")
	return strings.ToLower(out)
}

type keyword struct {
	text   string
	weight int
}

type deedSignature struct {
	deed     rates.DeedType
	label    string
	keywords []keyword
}

var signatures = []deedSignature{
	{rates.DeedSale, "Vente immobilière", []keyword{
		{"acte de vente", 10}, {"prix de vente", 6}, {"promesse de vente", 6}, {"compromis de vente", 6},
		{"vendeur", 4}, {"acquereur", 4}, {"etat futur d'achevement", 8}, {"vefa", 6},
		{"droits de mutation", 3}, {"vend", 1},
	}},
	{rates.DeedDonation, "Donation", []keyword{
		{"donation", 8}, {"donateur", 6}, {"donatrice", 6}, {"donataire", 6}, {"don manuel", 6},
		{"donation-partage", 4}, {"don familial", 5}, {"nue-propriete", 2}, {"usufruit", 2},
	}},
	{rates.DeedSuccession, "Succession", []keyword{
		{"succession", 6}, {"defunt", 6}, {"deces", 4}, {"heritier", 5}, {"legataire", 4},
		{"attestation de propriete", 6}, {"acte de notoriete", 6}, {"de cujus", 6},
	}},
	{rates.DeedMortgage, "Prêt hypothécaire", []keyword{
		{"pret hypothecaire", 10}, {"hypotheque", 6}, {"emprunteur", 6}, {"preteur", 5},
		{"inscription hypothecaire", 6}, {"privilege de preteur de deniers", 6}, {"taux d'interet", 4},
	}},
	{rates.DeedPartition, "Partage", []keyword{
		{"acte de partage", 10}, {"partage", 4}, {"indivision", 6}, {"copartageant", 6}, {"soulte", 5},
	}},
	{rates.DeedLease, "Bail", []keyword{
		{"contrat de bail", 10}, {"bail", 5}, {"bailleur", 6}, {"preneur", 5}, {"loyer", 5}, {"locataire", 5},
	}},
}

// keywordCap bounds how much a single repeated keyword can weigh.
const keywordCap = 3

type Detection struct {
	Type       rates.DeedType `json:"type"`
	Label      string         `json:"label"`
	Confidence int            `json:"confidence"`
}

// Detect scores the text against every deed signature. Confidence combines the lead of
// the best signature over the runner-up with the absolute evidence found.
func Detect(text string) Detection {
	folded := Fold(text)
	best, second := -1, 0
	scores := make([]int, len(signatures))
	for i, sig := range signatures {
		for _, kw := range sig.keywords {
			scores[i] += kw.weight * min(strings.Count(folded, kw.text), keywordCap)
		}
		switch {
		case best < 0 || scores[i] > scores[best]:
			if best >= 0 {
				second = scores[best]
			}
			best = i
		case scores[i] > second:
			second = scores[i]
		}
	}

	top := scores[best]
	if top == 0 {
		return Detection{Type: rates.DeedUnsupported, Label: "Acte non reconnu", Confidence: 0}
	}
	confidence := 100 * top / (top + second)
	if top < 20 {
		confidence = confidence * top / 20
	}
	return Detection{
		Type:       signatures[best].deed,
		Label:      signatures[best].label,
		Confidence: max(1, min(confidence, 100)),
	}
}
