package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notaria-engine/internal/deptregistry"
	"notaria-engine/internal/model"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

func request(ops ...model.Operation) *model.CalculationRequest {
	return &model.CalculationRequest{
		TenantID:                "test-tenant",
		CalculationInstructions: model.CalculationInstructions{Operations: ops},
	}
}

func op(id, name, actualAt, props string) model.Operation {
	return model.Operation{
		OperationID:             id,
		OperationDefinitionName: name,
		OperationType:           "CALCULATION",
		ActualAt:                actualAt,
		DossierID:               "d2222222-2222-2222-2222-222222222222",
		OperationProperties:     json.RawMessage(props),
	}
}

func TestAcquisitionThenDonation(t *testing.T) {
	e := New(rates.Default(), nil)
	resp := e.Process(context.Background(), request(
		op("a1111111-1111-1111-1111-111111111111", "compute_acquisition_costs", "2025-03-01",
			`{"amount": 250000, "deed_type": "vente", "department": "75"}`),
		op("b4444444-4444-4444-4444-444444444444", "compute_donation_duty", "2025-03-02",
			`{"amount": 200000, "beneficiaries": 2, "relation": "enfant", "donor_age": 62}`),
	))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationMetadata.TenantID != "test-tenant" {
		t.Fatalf("expected tenant_id test-tenant, got %s", resp.CalculationMetadata.TenantID)
	}
	if resp.CalculationMetadata.TablesVersion != "2025" {
		t.Fatalf("expected tables version 2025, got %s", resp.CalculationMetadata.TablesVersion)
	}
	if resp.CalculationMetadata.CalculationID == "" {
		t.Fatal("expected a calculation id")
	}
	if len(resp.CalculationResult.Messages) != 0 {
		t.Fatalf("expected 0 messages, got %d", len(resp.CalculationResult.Messages))
	}
	if len(resp.CalculationResult.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(resp.CalculationResult.Operations))
	}

	sim := resp.CalculationResult.EndSimulation.Simulation
	if sim.DossierID != "d2222222-2222-2222-2222-222222222222" {
		t.Fatalf("expected dossier id to be carried, got %q", sim.DossierID)
	}
	if !sim.AcquisitionCosts.GrandTotal.Equal(money.New("18399.589")) {
		t.Fatalf("expected grand total 18399.589, got %s", sim.AcquisitionCosts.GrandTotal)
	}
	if !sim.Donation.TaxableBase.IsZero() || !sim.Donation.TotalDuty.IsZero() {
		t.Fatalf("expected no duty on 200 000 € to two children, got base %s duty %s",
			sim.Donation.TaxableBase, sim.Donation.TotalDuty)
	}

	end := resp.CalculationResult.EndSimulation
	if end.OperationID != "b4444444-4444-4444-4444-444444444444" || end.OperationIndex != 1 {
		t.Fatalf("unexpected end simulation reference %s/%d", end.OperationID, end.OperationIndex)
	}
	if !resp.CalculationResult.InitialSimulation.Simulation.Empty() {
		t.Fatal("expected an empty initial simulation")
	}
	if resp.CalculationResult.InitialSimulation.ActualAt != "2025-03-01" {
		t.Fatalf("expected initial actual_at 2025-03-01, got %s", resp.CalculationResult.InitialSimulation.ActualAt)
	}
}

func TestPatchesPerOperation(t *testing.T) {
	e := New(rates.Default(), nil)
	resp := e.Process(context.Background(), request(
		op("a1", "compute_mutation_duty", "2025-03-01", `{"amount": 250000, "department": "75"}`),
		op("a2", "compute_mutation_duty", "2025-03-01", `{"amount": 250000, "department": "75"}`),
	))

	first := resp.CalculationResult.Operations[0]
	fwd := string(first.ForwardPatch)
	if !strings.Contains(fwd, `{"op":"add","path":"/dossier_id","value":"d2222222-2222-2222-2222-222222222222"}`) {
		t.Fatalf("expected the dossier id to be added, got %s", fwd)
	}
	if !strings.Contains(fwd, `{"op":"replace","path":"/mutation_duty","value":{`) {
		t.Fatalf("expected the mutation duty to be set, got %s", fwd)
	}
	if !strings.Contains(string(first.BackwardPatch), `{"op":"replace","path":"/mutation_duty","value":null}`) {
		t.Fatalf("expected the backward patch to clear the mutation duty, got %s", first.BackwardPatch)
	}

	second := resp.CalculationResult.Operations[1]
	if string(second.ForwardPatch) != "[]" || string(second.BackwardPatch) != "[]" {
		t.Fatalf("expected empty patches for an identical result, got %s / %s", second.ForwardPatch, second.BackwardPatch)
	}
}

func TestCriticalStopsProcessing(t *testing.T) {
	e := New(rates.Default(), nil)
	resp := e.Process(context.Background(), request(
		op("a1", "compute_emoluments", "2025-03-01", `{"amount": 250000}`),
		op("a2", "compute_mutation_duty", "2025-03-01", `{"amount": 250000, "department": "99"}`),
		op("a3", "compute_ancillary_fees", "2025-03-01", `{"amount": 250000}`),
	))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if len(resp.CalculationResult.Messages) != 1 || resp.CalculationResult.Messages[0].Code != "INVALID_DEPARTMENT" {
		t.Fatalf("expected a single INVALID_DEPARTMENT message, got %+v", resp.CalculationResult.Messages)
	}
	if len(resp.CalculationResult.Operations) != 2 {
		t.Fatalf("expected 2 processed operations, got %d", len(resp.CalculationResult.Operations))
	}
	sim := resp.CalculationResult.EndSimulation.Simulation
	if sim.Emoluments == nil || sim.MutationDuty != nil || sim.Ancillary != nil {
		t.Fatal("expected only the émoluments of the first operation in the end simulation")
	}
	if resp.CalculationResult.EndSimulation.OperationID != "a1" {
		t.Fatalf("end simulation should reference the last successful operation, got %s",
			resp.CalculationResult.EndSimulation.OperationID)
	}
}

func TestUnknownOperation(t *testing.T) {
	resp := New(rates.Default(), nil).Process(context.Background(), request(
		op("a1", "create_dossier", "2025-03-01", `{}`),
	))
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "UNKNOWN_OPERATION" {
		t.Fatalf("expected UNKNOWN_OPERATION, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if !resp.CalculationResult.EndSimulation.Simulation.Empty() {
		t.Fatal("expected an empty end simulation")
	}
}

func TestNoOperations(t *testing.T) {
	resp := New(rates.Default(), nil).Process(context.Background(), request())
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "NO_OPERATIONS" {
		t.Fatalf("expected NO_OPERATIONS, got %s", resp.CalculationResult.Messages[0].Code)
	}
}

func TestRemoteDepartmentOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/departments/36" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"name":"Indre","mutation_duty_rate":"5.00","vat_rate":"20","dom_tom_surcharge_percent":"0"}`))
	}))
	defer srv.Close()

	tables := rates.Default()
	e := New(tables, deptregistry.New(srv.URL))
	resp := e.Process(context.Background(), request(
		op("a1", "compute_mutation_duty", "2025-03-01", `{"amount": 100000, "department": "36"}`),
	))

	got := resp.CalculationResult.EndSimulation.Simulation.MutationDuty.Total
	if !got.Equal(money.New("6346.94")) {
		t.Fatalf("expected 6346.94 with the remote rate, got %s", got)
	}
	if !tables.Territories["36"].MutationDutyRate.Equal(money.New("3.80")) {
		t.Fatal("expected the shared tables to be left untouched")
	}
}
