// Package report renders calculation and scan results as French Markdown, and as HTML
// through goldmark.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/model"
	"notaria-engine/internal/money"
	"notaria-engine/internal/scan"
)

var renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

var outcomeLabels = map[string]string{
	model.OutcomeSuccess: "Succès",
	model.OutcomeFailure: "Échec",
}

var levelLabels = map[string]string{
	model.LevelCritical: "Bloquant",
	model.LevelWarning:  "Avertissement",
}

var categoryLabels = map[scan.Category]string{
	scan.CategoryMutationDuty: "Droits de mutation",
	scan.CategoryFees:         "Émoluments",
	scan.CategoryGrandTotal:   "Total des frais",
	scan.CategoryGiftDuty:     "Droits de donation ou de succession",
}

// Markdown renders a calculation response.
func Markdown(resp *model.CalculationResponse) string {
	w := &writer{}
	meta := resp.CalculationMetadata
	w.line("# Estimation des frais d'acte")
	w.line("")
	w.line("- Calcul : `%s`", meta.CalculationID)
	w.line("- Résultat : %s", outcomeLabels[meta.CalculationOutcome])
	w.line("- Barèmes : %s", meta.TablesVersion)
	w.line("")

	if msgs := resp.CalculationResult.Messages; len(msgs) > 0 {
		w.line("## Messages")
		w.line("")
		w.row("Niveau", "Code", "Message")
		w.row("---", "---", "---")
		for _, m := range msgs {
			w.row(levelLabels[m.Level], "`"+m.Code+"`", m.Message)
		}
		w.line("")
	}

	sim := resp.CalculationResult.EndSimulation.Simulation
	if sim.Empty() {
		w.line("_Aucun résultat de calcul._")
		return w.String()
	}
	if c := sim.AcquisitionCosts; c != nil {
		w.acquisition(c)
	} else {
		if sim.Emoluments != nil {
			w.emoluments(sim.Emoluments)
		}
		if sim.MutationDuty != nil {
			w.duty(sim.MutationDuty)
		}
		if sim.Ancillary != nil {
			w.ancillary(sim.Ancillary)
		}
	}
	if sim.Donation != nil {
		w.donation(sim.Donation)
	}
	if sim.Verification != nil {
		w.verification(sim.Verification)
	}
	return w.String()
}

// ScanMarkdown renders the outcome of a document scan.
func ScanMarkdown(rep *scan.Report) string {
	w := &writer{}
	w.line("# Analyse de %s", rep.File)
	w.line("")
	w.line("- Type d'acte détecté : %s (confiance %d %%)", rep.Detection.Label, rep.Detection.Confidence)
	if rep.Data.PrincipalAmount.Valid {
		w.line("- Montant principal : %s", money.Format(rep.Data.PrincipalAmount.Value))
	}
	if rep.Department != "" {
		w.line("- Département : %s", rep.Department)
	}
	if len(rep.Data.Dates) > 0 {
		w.line("- Dates : %s", strings.Join(rep.Data.Dates, ", "))
	}
	if len(rep.Data.Parties) > 0 {
		w.line("- Parties : %s", strings.Join(rep.Data.Parties, ", "))
	}
	w.line("")
	if rep.Verification == nil {
		w.line("_Aucun montant principal n'a été trouvé : aucune vérification possible._")
		return w.String()
	}
	w.verification(rep.Verification)
	return w.String()
}

// HTML renders a calculation response as an HTML fragment.
func HTML(resp *model.CalculationResponse) ([]byte, error) {
	return Render(Markdown(resp))
}

// Render converts Markdown to HTML with GitHub-flavoured tables.
func Render(md string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	strings.Builder
}

func (w *writer) line(format string, args ...any) {
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		fmt.Fprintf(w, format, args...)
	}
	w.WriteByte('\n')
}

func (w *writer) row(cells ...string) {
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	w.line("| %s |", strings.Join(cells, " | "))
}

func (w *writer) amount(label string, m money.Money) {
	w.row(label, money.Format(m))
}

func (w *writer) tiers(tiers []calc.Slice) {
	w.row("Tranche", "Assiette", "Taux", "Montant")
	w.row("---", "---:", "---:", "---:")
	for _, s := range tiers {
		w.row(s.Label, money.Format(s.AmountInTier), money.FormatPercent(s.Rate), money.Format(s.Amount))
	}
	w.line("")
}

func (w *writer) emoluments(e *calc.EmolumentsBreakdown) {
	w.line("## Émoluments du notaire")
	w.line("")
	if e.NotTariffed {
		w.line("Acte non tarifé proportionnellement : émoluments libres.")
		w.line("")
		return
	}
	w.tiers(e.Tiers)
	w.row("Poste", "Montant")
	w.row("---", "---:")
	w.amount("Émoluments bruts", e.Bruts)
	if e.Majoration.IsPositive() {
		w.amount("Majoration DOM-TOM ("+money.FormatPercent(e.SurchargePercent)+")", e.Majoration)
	}
	if e.RebateApplied {
		w.amount("Remise de 20 %", e.Remise20.Neg())
	}
	w.amount("Émoluments nets (HT)", e.Nets)
	w.amount("TVA ("+money.FormatPercent(e.VATRate)+")", e.MontantTVA)
	w.amount("**Total TTC**", e.TotalTTC)
	w.line("")
}

func (w *writer) duty(d *calc.DutyBreakdown) {
	w.line("## Droits de mutation")
	w.line("")
	if d.VATRegime {
		w.line("Bien neuf : la vente relève de la TVA immobilière, pas des droits de mutation.")
		w.line("")
		return
	}
	w.row("Poste", "Taux", "Montant")
	w.row("---", "---:", "---:")
	w.row("Taxe départementale", money.FormatPercent(d.DepartmentalRate), money.Format(d.Departmental))
	w.row("Taxe communale", money.FormatPercent(d.CommunalRate), money.Format(d.Communal))
	w.row("Frais d'assiette", money.FormatPercent(d.AssessmentRate), money.Format(d.AssessmentFee))
	w.row("**Total**", "", money.Format(d.Total))
	w.line("")
}

func (w *writer) ancillary(a *calc.AncillaryBreakdown) {
	w.line("## Frais annexes")
	w.line("")
	w.row("Poste", "Montant")
	w.row("---", "---:")
	for _, f := range a.Disbursements {
		w.amount(f.Label, f.Amount)
	}
	for _, f := range a.Formalities {
		w.amount(f.Label+" (HT)", f.Amount)
	}
	w.amount("TVA sur formalités", a.FormalitiesTVA)
	w.amount(fmt.Sprintf("Copies (%d pages, TTC)", a.CopyPages), a.CopiesTTC)
	w.amount("**Total**", a.Total)
	w.line("")
}

func (w *writer) acquisition(c *calc.AcquisitionCosts) {
	emol, anc := c.Emoluments, c.Ancillary
	w.emoluments(&emol)
	if c.MutationDuty != nil {
		w.duty(c.MutationDuty)
	}
	w.ancillary(&anc)
	w.line("## Total des frais")
	w.line("")
	w.line("**%s**, soit %s du prix.", money.Format(c.GrandTotal), money.FormatPercent(c.ShareOfPrice))
	w.line("")
}

func (w *writer) donation(d *calc.DonationResult) {
	if d.Transfer == calc.TransferSuccession {
		w.line("## Droits de succession")
	} else {
		w.line("## Droits de donation")
	}
	w.line("")
	w.row("Poste", "Montant")
	w.row("---", "---:")
	w.amount("Valeur transmise", d.GrossAmount)
	if d.DutreilReduction.IsPositive() {
		w.amount("Réduction Dutreil", d.DutreilReduction.Neg())
	}
	if d.Dismemberment != calc.DismemberNone {
		w.amount("Valeur taxable ("+string(d.Dismemberment)+")", d.TaxableValue)
	}
	w.amount(fmt.Sprintf("Part par bénéficiaire (%d)", d.Beneficiaries), d.Share)
	w.amount("Abattements disponibles", d.Allowances.Total)
	w.amount("Base taxable", d.TaxableBase)
	w.amount("Droits par bénéficiaire", d.Duty)
	w.amount("**Droits totaux**", d.TotalDuty)
	w.amount("Net par bénéficiaire", d.NetToBeneficiary)
	w.line("")
	if len(d.Tiers) > 0 && d.TaxableBase.IsPositive() {
		w.tiers(d.Tiers)
	}
	if len(d.Suggestions) > 0 {
		w.line("### Pistes d'optimisation")
		w.line("")
		for _, s := range d.Suggestions {
			w.line("- %s", s)
		}
		w.line("")
	}
}

func (w *writer) verification(v *scan.Verification) {
	w.line("## Vérification du document")
	w.line("")
	if v.Fallback {
		w.line("_Type d'acte non reconnu : calcul effectué comme pour une vente._")
		w.line("")
	}
	if v.Announced() {
		w.row("Montant", "Valeur")
		w.row("---", "---:")
		w.row("Catégorie", categoryLabels[v.Category])
		w.amount("Annoncé", *v.AnnouncedAmount)
		w.amount("Calculé", v.ComputedAmount)
		w.amount("Écart", *v.Difference)
		w.row("Écart relatif", money.FormatPercent(*v.PercentDifference))
		w.line("")
	}
	if v.Alert {
		w.line("> **Alerte** : %s", v.Message)
	} else {
		w.line("%s", v.Message)
	}
	w.line("")
}
