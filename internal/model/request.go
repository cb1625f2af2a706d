package model

import "encoding/json"

type CalculationRequest struct {
	TenantID                string                  `json:"tenant_id"`
	CalculationInstructions CalculationInstructions `json:"calculation_instructions"`
}

type CalculationInstructions struct {
	Operations []Operation `json:"operations"`
}

// Operation is one named calculation step. OperationProperties is decoded by the
// handler registered under OperationDefinitionName.
type Operation struct {
	OperationID             string          `json:"operation_id"`
	OperationDefinitionName string          `json:"operation_definition_name"`
	OperationType           string          `json:"operation_type"`
	ActualAt                string          `json:"actual_at"`
	DossierID               string          `json:"dossier_id,omitempty"`
	OperationProperties     json.RawMessage `json:"operation_properties"`
}
