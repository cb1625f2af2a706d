// Package rates holds the regulatory tables the calculators read: émolument schedules per
// deed type, department rates, kinship allowances and duty schedules, the usufruct scale
// and the fixed policy amounts. Tables are immutable once built and are injected into the
// calculators; nothing in the calculation path reads them from package state.
package rates

import (
	"errors"
	"regexp"
	"strings"

	"notaria-engine/internal/money"
)

var (
	ErrUnknownDeedType   = errors.New("unknown deed type")
	ErrUnknownDepartment = errors.New("unknown department")
	ErrUnknownRelation   = errors.New("unknown kinship relation")
)

// Tier is one slice of a progressive schedule. Max is nil for the last, unbounded tier.
type Tier struct {
	Min  money.Money  `json:"min" yaml:"min"`
	Max  *money.Money `json:"max,omitempty" yaml:"max,omitempty"`
	Rate money.Money  `json:"rate" yaml:"rate"`
}

func (t Tier) Unbounded() bool {
	return t.Max == nil
}

// Schedule is an ordered list of tiers covering [0, ∞).
type Schedule []Tier

type DeedType string

const (
	DeedSale        DeedType = "vente"
	DeedDonation    DeedType = "donation"
	DeedSuccession  DeedType = "succession"
	DeedMortgage    DeedType = "pret-hypothecaire"
	DeedPartition   DeedType = "partage"
	DeedLease       DeedType = "bail"
	DeedUnsupported DeedType = "non-supporte"
)

// Fee is a fixed line item (formality or disbursement).
type Fee struct {
	Code   string      `json:"code" yaml:"code"`
	Label  string      `json:"label" yaml:"label"`
	Amount money.Money `json:"amount" yaml:"amount"`
}

// SecurityContribution is the contribution de sécurité immobilière collected on deeds
// published at the land registry.
type SecurityContribution struct {
	Rate    money.Money `json:"rate" yaml:"rate"`
	Minimum money.Money `json:"minimum" yaml:"minimum"`
}

type DeedConfig struct {
	Label                string                `json:"label" yaml:"label"`
	Tariffed             bool                  `json:"tariffed" yaml:"tariffed"`
	Emoluments           Schedule              `json:"emoluments,omitempty" yaml:"emoluments,omitempty"`
	Formalities          []Fee                 `json:"formalities,omitempty" yaml:"formalities,omitempty"`
	Disbursements        []Fee                 `json:"disbursements,omitempty" yaml:"disbursements,omitempty"`
	SecurityContribution *SecurityContribution `json:"security_contribution,omitempty" yaml:"security_contribution,omitempty"`
	CopyPages            int                   `json:"copy_pages" yaml:"copy_pages"`
	CopyPageFee          money.Money           `json:"copy_page_fee" yaml:"copy_page_fee"`
}

type Relation string

const (
	RelationChild           Relation = "enfant"
	RelationGrandchild      Relation = "petit-enfant"
	RelationGreatGrandchild Relation = "arriere-petit-enfant"
	RelationSpouse          Relation = "conjoint"
	RelationSibling         Relation = "frere-soeur"
	RelationNephewNiece     Relation = "neveu-niece"
	RelationOther           Relation = "autre"
)

// FamilyGiftEligible reports whether the relation qualifies for the family cash-gift
// allowance and the residence-purchase exemption.
func (r Relation) FamilyGiftEligible() bool {
	switch r {
	case RelationChild, RelationGrandchild, RelationGreatGrandchild, RelationNephewNiece:
		return true
	}
	return false
}

type KinshipRule struct {
	Allowance money.Money `json:"allowance" yaml:"allowance"`
	Duty      Schedule    `json:"duty" yaml:"duty"`
}

// UsufructBracket applies to donors strictly younger than BelowAge. The last bracket
// has BelowAge 0 and catches every older donor.
type UsufructBracket struct {
	BelowAge int         `json:"below_age" yaml:"below_age"`
	Percent  money.Money `json:"percent" yaml:"percent"`
}

type Territory struct {
	Name             string      `json:"name,omitempty" yaml:"name,omitempty"`
	MutationDutyRate money.Money `json:"mutation_duty_rate" yaml:"mutation_duty_rate"`
	VATRate          money.Money `json:"vat_rate" yaml:"vat_rate"`
	SurchargePercent money.Money `json:"dom_tom_surcharge_percent" yaml:"dom_tom_surcharge_percent"`
	VATExempt        bool        `json:"vat_exempt,omitempty" yaml:"vat_exempt,omitempty"`
}

// Policy groups the fixed statutory amounts and rates.
type Policy struct {
	CommunalRate         money.Money `json:"communal_rate" yaml:"communal_rate"`
	AssessmentRate       money.Money `json:"assessment_rate" yaml:"assessment_rate"`
	RebateThreshold      money.Money `json:"rebate_threshold" yaml:"rebate_threshold"`
	RebateRate           money.Money `json:"rebate_rate" yaml:"rebate_rate"`
	CashGiftAllowance    money.Money `json:"cash_gift_allowance" yaml:"cash_gift_allowance"`
	CashGiftMaxDonorAge  int         `json:"cash_gift_max_donor_age" yaml:"cash_gift_max_donor_age"`
	ResidenceExemption   money.Money `json:"residence_exemption" yaml:"residence_exemption"`
	DisabilityAllowance  money.Money `json:"disability_allowance" yaml:"disability_allowance"`
	DutreilReductionRate money.Money `json:"dutreil_reduction_rate" yaml:"dutreil_reduction_rate"`
	RecallYears          int         `json:"recall_years" yaml:"recall_years"`
	DutreilCollectiveYrs int         `json:"dutreil_collective_years" yaml:"dutreil_collective_years"`
	DutreilIndividualYrs int         `json:"dutreil_individual_years" yaml:"dutreil_individual_years"`
	DiscrepancyTolerance money.Money `json:"discrepancy_tolerance" yaml:"discrepancy_tolerance"`
}

// Tables is the full regulatory registry.
type Tables struct {
	Version          string                   `json:"version" yaml:"version"`
	DeedTypes        map[DeedType]DeedConfig  `json:"deed_types" yaml:"deed_types"`
	Kinship          map[Relation]KinshipRule `json:"kinship" yaml:"kinship"`
	Usufruct         []UsufructBracket        `json:"usufruct" yaml:"usufruct"`
	Territories      map[string]Territory     `json:"territories" yaml:"territories"`
	DefaultTerritory Territory                `json:"default_territory" yaml:"default_territory"`
	Policy           Policy                   `json:"policy" yaml:"policy"`
}

// Deed returns the configuration of a deed type.
func (t *Tables) Deed(dt DeedType) (DeedConfig, bool) {
	cfg, ok := t.DeedTypes[dt]
	return cfg, ok
}

// Kin returns the allowance and duty schedule of a relation.
func (t *Tables) Kin(r Relation) (KinshipRule, bool) {
	rule, ok := t.Kinship[r]
	return rule, ok
}

var departmentCode = regexp.MustCompile(`^(0[1-9]|[1-8][0-9]|9[0-5]|2A|2B|97[1-6])$`)

// NormalizeDepartment upper-cases and pads a department code ("1" -> "01", "2a" -> "2A").
func NormalizeDepartment(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 1 && code[0] >= '1' && code[0] <= '9' {
		code = "0" + code
	}
	return code
}

// ValidDepartment reports whether code names a French department.
func ValidDepartment(code string) bool {
	return departmentCode.MatchString(NormalizeDepartment(code))
}

// Territory resolves a department code. Departments without a specific entry get the
// metropolitan default. An empty code also resolves to the default; a malformed code
// reports false.
func (t *Tables) Territory(code string) (Territory, bool) {
	if strings.TrimSpace(code) == "" {
		return t.DefaultTerritory, true
	}
	code = NormalizeDepartment(code)
	if !departmentCode.MatchString(code) {
		return Territory{}, false
	}
	if terr, ok := t.Territories[code]; ok {
		return terr, true
	}
	return t.DefaultTerritory, true
}

// UsufructPercent returns the usufruct share of full ownership for a donor of the given
// age (article 669 CGI scale).
func (t *Tables) UsufructPercent(age int) money.Money {
	for _, b := range t.Usufruct {
		if b.BelowAge == 0 || age < b.BelowAge {
			return b.Percent
		}
	}
	if n := len(t.Usufruct); n > 0 {
		return t.Usufruct[n-1].Percent
	}
	return money.Zero
}

// BareOwnershipPercent is the complement of UsufructPercent.
func (t *Tables) BareOwnershipPercent(age int) money.Money {
	return money.Hundred.Sub(t.UsufructPercent(age))
}

// WithTerritories returns a copy of the tables where the given departments replace the
// built-in entries. The receiver is left untouched.
func (t *Tables) WithTerritories(overrides map[string]Territory) *Tables {
	if len(overrides) == 0 {
		return t
	}
	clone := *t
	clone.Territories = make(map[string]Territory, len(t.Territories)+len(overrides))
	for code, terr := range t.Territories {
		clone.Territories[code] = terr
	}
	for code, terr := range overrides {
		clone.Territories[NormalizeDepartment(code)] = terr
	}
	return &clone
}
