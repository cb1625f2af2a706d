package model

import "encoding/json"

type CalculationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CalculationResult   CalculationResult   `json:"calculation_result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	TenantID               string `json:"tenant_id"`
	TablesVersion          string `json:"tables_version"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CalculationResult struct {
	Messages          []CalculationMessage `json:"messages"`
	Operations        []ProcessedOperation `json:"operations"`
	EndSimulation     SimulationEnvelope   `json:"end_simulation"`
	InitialSimulation InitialSimulation    `json:"initial_simulation"`
}

type ProcessedOperation struct {
	Operation                 Operation       `json:"operation"`
	CalculationMessageIndexes []int           `json:"calculation_message_indexes,omitempty"`
	ForwardPatch              json.RawMessage `json:"forward_patch_to_simulation_after_this_operation,omitempty"`
	BackwardPatch             json.RawMessage `json:"backward_patch_to_previous_simulation,omitempty"`
}

type SimulationEnvelope struct {
	OperationID    string     `json:"operation_id"`
	OperationIndex int        `json:"operation_index"`
	ActualAt       string     `json:"actual_at"`
	Simulation     Simulation `json:"simulation"`
}

type InitialSimulation struct {
	ActualAt   string     `json:"actual_at"`
	Simulation Simulation `json:"simulation"`
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)
