package rates

import "notaria-engine/internal/money"

// schedule builds a contiguous schedule from its inner boundaries and one rate per tier
// (len(rates) == len(bounds)+1).
func schedule(bounds []int64, pcts ...string) Schedule {
	s := make(Schedule, 0, len(pcts))
	lower := money.Zero
	for i, pct := range pcts {
		t := Tier{Min: lower, Rate: money.New(pct)}
		if i < len(bounds) {
			upper := money.Int(bounds[i])
			t.Max = &upper
			lower = upper
		}
		s = append(s, t)
	}
	return s
}

var emolumentBounds = []int64{6500, 17000, 60000}

func directLineDuty() Schedule {
	return schedule([]int64{8072, 12109, 15932, 552324, 902838, 1805677},
		"5", "10", "15", "20", "30", "40", "45")
}

func fee(code, label, amount string) Fee {
	return Fee{Code: code, Label: label, Amount: money.New(amount)}
}

func csi() *SecurityContribution {
	return &SecurityContribution{Rate: money.New("0.10"), Minimum: money.Int(15)}
}

// Default builds the 2025–2026 tables. Each call returns an independent value.
func Default() *Tables {
	publication := fee("publication", "Publication au service de la publicité foncière", "92.31")
	etatHypo := fee("etat-hypothecaire", "Demande d'état hypothécaire", "23.08")
	cadastre := fee("cadastre", "Extrait cadastral", "11.54")

	return &Tables{
		Version: "2025",
		DeedTypes: map[DeedType]DeedConfig{
			DeedSale: {
				Label:      "Vente immobilière",
				Tariffed:   true,
				Emoluments: schedule(emolumentBounds, "3.870", "1.596", "1.064", "0.799"),
				Formalities: []Fee{
					publication,
					etatHypo,
					cadastre,
					fee("urbanisme", "Note de renseignements d'urbanisme", "23.08"),
					fee("purge-dpu", "Purge du droit de préemption urbain", "92.31"),
					fee("syndic", "Questionnaire au syndic de copropriété", "46.15"),
				},
				Disbursements: []Fee{
					fee("frais-cadastre", "Frais de cadastre", "30"),
					fee("frais-hypotheques", "Frais d'état hypothécaire", "70"),
					fee("certificat-urbanisme", "Certificat d'urbanisme", "50"),
				},
				SecurityContribution: csi(),
				CopyPages:            40,
				CopyPageFee:          money.Int(4),
			},
			DeedDonation: {
				Label:                "Donation",
				Tariffed:             true,
				Emoluments:           schedule(emolumentBounds, "4.837", "1.995", "1.330", "0.998"),
				Formalities:          []Fee{publication, etatHypo},
				Disbursements:        []Fee{fee("frais-cadastre", "Frais de cadastre", "30")},
				SecurityContribution: csi(),
				CopyPages:            20,
				CopyPageFee:          money.Int(4),
			},
			DeedSuccession: {
				Label:                "Succession (attestation de propriété immobilière)",
				Tariffed:             true,
				Emoluments:           schedule(emolumentBounds, "1.934", "0.798", "0.532", "0.399"),
				Formalities:          []Fee{publication},
				Disbursements:        []Fee{fee("frais-cadastre", "Frais de cadastre", "30")},
				SecurityContribution: csi(),
				CopyPages:            15,
				CopyPageFee:          money.Int(4),
			},
			DeedMortgage: {
				Label:                "Prêt hypothécaire",
				Tariffed:             true,
				Emoluments:           schedule(emolumentBounds, "2.580", "1.064", "0.709", "0.532"),
				Formalities:          []Fee{publication, etatHypo},
				SecurityContribution: csi(),
				CopyPages:            20,
				CopyPageFee:          money.Int(4),
			},
			DeedPartition: {
				Label:                "Partage",
				Tariffed:             true,
				Emoluments:           schedule(emolumentBounds, "4.837", "1.995", "1.330", "0.998"),
				Formalities:          []Fee{publication, etatHypo},
				Disbursements:        []Fee{fee("frais-cadastre", "Frais de cadastre", "30")},
				SecurityContribution: csi(),
				CopyPages:            25,
				CopyPageFee:          money.Int(4),
			},
			DeedLease: {
				Label:       "Bail",
				Tariffed:    false,
				CopyPages:   10,
				CopyPageFee: money.Int(4),
			},
		},
		Kinship: map[Relation]KinshipRule{
			RelationChild:           {Allowance: money.Int(100000), Duty: directLineDuty()},
			RelationGrandchild:      {Allowance: money.Int(31865), Duty: directLineDuty()},
			RelationGreatGrandchild: {Allowance: money.Int(5310), Duty: directLineDuty()},
			RelationSpouse:          {Allowance: money.Int(80724), Duty: schedule(nil, "0")},
			RelationSibling:         {Allowance: money.Int(15932), Duty: schedule([]int64{24430}, "35", "45")},
			RelationNephewNiece:     {Allowance: money.Int(7967), Duty: schedule(nil, "55")},
			RelationOther:           {Allowance: money.Int(1594), Duty: schedule(nil, "60")},
		},
		Usufruct: []UsufructBracket{
			{BelowAge: 21, Percent: money.Int(90)},
			{BelowAge: 31, Percent: money.Int(80)},
			{BelowAge: 41, Percent: money.Int(70)},
			{BelowAge: 51, Percent: money.Int(60)},
			{BelowAge: 61, Percent: money.Int(50)},
			{BelowAge: 71, Percent: money.Int(40)},
			{BelowAge: 81, Percent: money.Int(30)},
			{BelowAge: 91, Percent: money.Int(20)},
			{BelowAge: 0, Percent: money.Int(10)},
		},
		Territories: map[string]Territory{
			"36":  {Name: "Indre", MutationDutyRate: money.New("3.80"), VATRate: money.Int(20), SurchargePercent: money.Zero},
			"38":  {Name: "Isère", MutationDutyRate: money.New("3.80"), VATRate: money.Int(20), SurchargePercent: money.Zero},
			"56":  {Name: "Morbihan", MutationDutyRate: money.New("3.80"), VATRate: money.Int(20), SurchargePercent: money.Zero},
			"971": {Name: "Guadeloupe", MutationDutyRate: money.New("4.50"), VATRate: money.New("8.5"), SurchargePercent: money.Int(25)},
			"972": {Name: "Martinique", MutationDutyRate: money.New("4.50"), VATRate: money.New("8.5"), SurchargePercent: money.Int(25)},
			"973": {Name: "Guyane", MutationDutyRate: money.New("4.50"), VATRate: money.Zero, SurchargePercent: money.Int(25), VATExempt: true},
			"974": {Name: "La Réunion", MutationDutyRate: money.New("4.50"), VATRate: money.New("8.5"), SurchargePercent: money.Int(40)},
			"976": {Name: "Mayotte", MutationDutyRate: money.New("3.80"), VATRate: money.Zero, SurchargePercent: money.Int(40), VATExempt: true},
		},
		DefaultTerritory: Territory{
			Name:             "Métropole",
			MutationDutyRate: money.New("4.50"),
			VATRate:          money.Int(20),
			SurchargePercent: money.Zero,
		},
		Policy: Policy{
			CommunalRate:         money.New("1.20"),
			AssessmentRate:       money.New("2.37"),
			RebateThreshold:      money.Int(100000),
			RebateRate:           money.Int(20),
			CashGiftAllowance:    money.Int(31865),
			CashGiftMaxDonorAge:  80,
			ResidenceExemption:   money.Int(100000),
			DisabilityAllowance:  money.Int(159325),
			DutreilReductionRate: money.Int(75),
			RecallYears:          15,
			DutreilCollectiveYrs: 2,
			DutreilIndividualYrs: 4,
			DiscrepancyTolerance: money.Int(5),
		},
	}
}
