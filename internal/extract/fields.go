package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// ExtractedData gathers what could be read from a deed. Missing fields stay empty.
type ExtractedData struct {
	Amounts         []money.Money     `json:"amounts"`
	PrincipalAmount money.Input       `json:"principal_amount"`
	Dates           []string          `json:"dates"`
	Addresses       []string          `json:"addresses"`
	PostalCode      string            `json:"postal_code,omitempty"`
	Department      string            `json:"department,omitempty"`
	Parties         []string          `json:"parties"`
	Relation        rates.Relation    `json:"relation,omitempty"`
	PropertyType    calc.PropertyType `json:"property_type"`
	DonorAge        int               `json:"donor_age,omitempty"`
}

func Fields(text string) ExtractedData {
	d := ExtractedData{
		Amounts:      FindAmounts(text),
		Dates:        FindDates(text),
		Addresses:    FindAddresses(text),
		Parties:      FindParties(text),
		PropertyType: FindPropertyType(text),
	}
	if v, ok := PrincipalAmount(text); ok {
		d.PrincipalAmount = money.Amount(v)
	}
	if pc, ok := FindPostalCode(text); ok {
		d.PostalCode = pc
		d.Department = DepartmentFromPostalCode(pc)
	}
	if r, ok := FindRelation(text); ok {
		d.Relation = r
	}
	if age, ok := FindDonorAge(text); ok {
		d.DonorAge = age
	}
	return d
}

const amountPattern = `(\d{1,3}(?:[ .\x{00a0}\x{202f}]\d{3})+(?:,\d{1,2})?|\d+(?:[,.]\d{1,2})?)\s?(?:€|euros?\b|eur\b)`

// the leading guard keeps the tail of a longer number from reading as an amount
var amountRe = regexp.MustCompile(`(?i)(?:^|[^\d.,])` + amountPattern)

// FindAmounts returns every euro amount in reading order.
func FindAmounts(text string) []money.Money {
	out := []money.Money{}
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := money.Parse(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// AmountsIn is FindAmounts restricted to text[from:to], clamped to the text.
func AmountsIn(text string, from, to int) []money.Money {
	from = max(0, from)
	to = min(len(text), to)
	if from >= to {
		return nil
	}
	return FindAmounts(text[from:to])
}

var principalAnchor = regexp.MustCompile(`(?i)\b(prix|moyennant|montant|valeur|somme|capital emprunt)`)

const (
	principalWindow  = 120
	principalMinimum = 1000
)

// PrincipalAmount reads the amount that follows a price or value anchor. Without an
// anchor the largest amount of the document is taken.
func PrincipalAmount(text string) (money.Money, bool) {
	floor := money.Int(principalMinimum)
	for _, loc := range principalAnchor.FindAllStringIndex(text, -1) {
		for _, v := range AmountsIn(text, loc[1], loc[1]+principalWindow) {
			if v.GreaterThanOrEqual(floor) {
				return v, true
			}
		}
	}
	var largest money.Money
	found := false
	for _, v := range FindAmounts(text) {
		if v.GreaterThanOrEqual(floor) && (!found || v.GreaterThan(largest)) {
			largest, found = v, true
		}
	}
	return largest, found
}

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	longDateRe    = regexp.MustCompile(`(?i)\b(1er|\d{1,2})\s+(janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre)\s+(\d{4})\b`)
	months        = map[string]time.Month{
		"janvier": time.January, "fevrier": time.February, "mars": time.March, "avril": time.April,
		"mai": time.May, "juin": time.June, "juillet": time.July, "aout": time.August,
		"septembre": time.September, "octobre": time.October, "novembre": time.November, "decembre": time.December,
	}
)

func validDate(y int, m time.Month, d int) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 || y < 1900 || y > 2200 {
		return time.Time{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// FindDates returns ISO dates ("2006-01-02") in reading order without duplicates.
func FindDates(text string) []string {
	type hit struct {
		pos  int
		date string
	}
	var hits []hit
	for _, m := range numericDateRe.FindAllStringSubmatchIndex(text, -1) {
		d, _ := strconv.Atoi(text[m[2]:m[3]])
		mo, _ := strconv.Atoi(text[m[4]:m[5]])
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if t, ok := validDate(y, time.Month(mo), d); ok {
			hits = append(hits, hit{m[0], t.Format(time.DateOnly)})
		}
	}
	for _, m := range longDateRe.FindAllStringSubmatchIndex(text, -1) {
		day := 1
		if ds := text[m[2]:m[3]]; !strings.EqualFold(ds, "1er") {
			day, _ = strconv.Atoi(ds)
		}
		y, _ := strconv.Atoi(text[m[6]:m[7]])
		if t, ok := validDate(y, months[Fold(text[m[4]:m[5]])], day); ok {
			hits = append(hits, hit{m[0], t.Format(time.DateOnly)})
		}
	}

	// numeric and long forms are collected separately; restore reading order
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := []string{}
	seen := map[string]bool{}
	for _, h := range hits {
		if !seen[h.date] {
			seen[h.date] = true
			out = append(out, h.date)
		}
	}
	return out
}

var addressRe = regexp.MustCompile(`(?i)\b\d{1,4}(?:\s?(?:bis|ter))?,?\s+(?:rue|avenue|av\.|boulevard|bd|place|chemin|allée|allee|impasse|route|quai|cours|square|lieu-dit)\s+[^\n,;]{2,60}(?:,\s*\d{5}\s+[^\n,;.]{2,40})?`)

func FindAddresses(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range addressRe.FindAllString(text, -1) {
		m = strings.TrimSpace(strings.TrimRight(m, ". "))
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

var postalCodeRe = regexp.MustCompile(`\b((?:0[1-9]|[1-8]\d|9[0-8])\d{3})\s+([A-ZÀ-Ý][\p{L}'\- ]{1,40})`)

// FindPostalCode returns the first five-digit code followed by a capitalised town name.
func FindPostalCode(text string) (string, bool) {
	m := postalCodeRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DepartmentFromPostalCode maps a postal code to its department: overseas codes keep
// three digits and Corsica splits into 2A and 2B.
func DepartmentFromPostalCode(pc string) string {
	if len(pc) != 5 {
		return ""
	}
	switch {
	case strings.HasPrefix(pc, "97") || strings.HasPrefix(pc, "98"):
		return pc[:3]
	case strings.HasPrefix(pc, "20"):
		if pc < "20200" {
			return "2A"
		}
		return "2B"
	}
	return pc[:2]
}

var partyRe = regexp.MustCompile(`\b(?:M\.|Mme|Mlle|Monsieur|Madame|Mademoiselle)\s+((?:[A-ZÀ-Ý][\p{L}'\-]+)(?:\s+[A-ZÀ-Ý][\p{L}'\-]+){0,3})`)

// FindParties returns the names introduced by a civility in reading order.
func FindParties(text string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, m := range partyRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

var relationRules = []struct {
	re       *regexp.Regexp
	relation rates.Relation
}{
	{regexp.MustCompile(`arriere-petit`), rates.RelationGreatGrandchild},
	{regexp.MustCompile(`petite?s?-(?:enfant|fille|fils)`), rates.RelationGrandchild},
	{regexp.MustCompile(`\b(?:neveu|niece)s?\b`), rates.RelationNephewNiece},
	{regexp.MustCompile(`\b(?:frere|soeur)s?\b`), rates.RelationSibling},
	{regexp.MustCompile(`\b(?:conjoint|epoux|epouse|partenaire)\b|\bpacs\b`), rates.RelationSpouse},
	{regexp.MustCompile(`\b(?:fils|fille|enfant)s?\b`), rates.RelationChild},
}

// FindRelation reads the kinship between the parties. More distant relations are tried
// first since "petit-fils" also contains "fils".
func FindRelation(text string) (rates.Relation, bool) {
	folded := Fold(text)
	for _, rule := range relationRules {
		if rule.re.MatchString(folded) {
			return rule.relation, true
		}
	}
	return "", false
}

var newPropertyMarkers = []string{
	"vefa", "etat futur d'achevement", "logement neuf", "immeuble neuf", "construction neuve",
	"maison neuve", "programme neuf",
}

func FindPropertyType(text string) calc.PropertyType {
	folded := Fold(text)
	for _, m := range newPropertyMarkers {
		if strings.Contains(folded, m) {
			return calc.PropertyNew
		}
	}
	return calc.PropertyExisting
}

var donorAgeRe = regexp.MustCompile(`\bagee?\s+de\s+(\d{2,3})\s+ans\b`)

func FindDonorAge(text string) (int, bool) {
	m := donorAgeRe.FindStringSubmatch(Fold(text))
	if m == nil {
		return 0, false
	}
	age, err := strconv.Atoi(m[1])
	if err != nil || age < 18 || age > 120 {
		return 0, false
	}
	return age, true
}
