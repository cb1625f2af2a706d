// Package engine runs a calculation request through the operation registry.
package engine

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/deptregistry"
	"notaria-engine/internal/jsonpatch"
	"notaria-engine/internal/model"
	"notaria-engine/internal/operations"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/scan"
)

type Engine struct {
	tables *rates.Tables
	depts  *deptregistry.Client
}

// New builds an engine over validated tables. depts may be nil.
func New(tables *rates.Tables, depts *deptregistry.Client) *Engine {
	return &Engine{tables: tables, depts: depts}
}

func (e *Engine) Tables() *rates.Tables {
	return e.tables
}

// Calculator returns a calculator over the tables, with the remote overrides of the
// given departments applied.
func (e *Engine) Calculator(ctx context.Context, departments ...string) *calc.Calculator {
	return calc.New(e.tables.WithTerritories(e.depts.Territories(ctx, departments)))
}

// Process applies the operations in order. The first CRITICAL message stops processing
// and the outcome becomes FAILURE.
func (e *Engine) Process(ctx context.Context, req *model.CalculationRequest) *model.CalculationResponse {
	start := time.Now()
	ops := req.CalculationInstructions.Operations

	c := e.Calculator(ctx, departments(ops)...)
	registry := operations.NewRegistry(c, scan.NewReconciler(c))

	sim := &model.Simulation{}
	var allMessages []model.CalculationMessage
	var processed []model.ProcessedOperation
	outcome := model.OutcomeSuccess
	hasCritical := false

	var lastOperationID, lastActualAt string
	lastOperationIndex := 0
	appliedAny := false
	if len(ops) > 0 {
		lastOperationID = ops[0].OperationID
		lastActualAt = ops[0].ActualAt
	} else {
		allMessages = append(allMessages, model.Critical("NO_OPERATIONS", "The request contains no operation"))
		outcome = model.OutcomeFailure
	}

	record := func(msgs []model.CalculationMessage, indexes []int) []int {
		for _, m := range msgs {
			m.ID = len(allMessages)
			allMessages = append(allMessages, m)
			indexes = append(indexes, m.ID)
			if m.Level == model.LevelCritical {
				hasCritical = true
			}
		}
		return indexes
	}

	for i := range ops {
		op := &ops[i]
		handler, ok := registry.Get(op.OperationDefinitionName)
		if !ok {
			indexes := record([]model.CalculationMessage{
				model.Critical("UNKNOWN_OPERATION", fmt.Sprintf("Unknown operation: %s", op.OperationDefinitionName)),
			}, nil)
			processed = append(processed, model.ProcessedOperation{Operation: *op, CalculationMessageIndexes: indexes})
			outcome = model.OutcomeFailure
			break
		}

		indexes := record(handler.Validate(sim, op), nil)
		if hasCritical {
			outcome = model.OutcomeFailure
			processed = append(processed, model.ProcessedOperation{Operation: *op, CalculationMessageIndexes: indexes})
			break
		}

		before := *sim
		if op.DossierID != "" {
			sim.DossierID = op.DossierID
		}
		indexes = record(handler.Apply(sim, op), indexes)
		if hasCritical {
			*sim = before
			outcome = model.OutcomeFailure
			processed = append(processed, model.ProcessedOperation{Operation: *op, CalculationMessageIndexes: indexes})
			break
		}

		fwd, bwd, err := jsonpatch.Between(before, *sim)
		if err != nil {
			fwd, bwd = nil, nil
		}
		processed = append(processed, model.ProcessedOperation{
			Operation:                 *op,
			CalculationMessageIndexes: indexes,
			ForwardPatch:              fwd,
			BackwardPatch:             bwd,
		})

		lastOperationID = op.OperationID
		lastOperationIndex = i
		lastActualAt = op.ActualAt
		appliedAny = true
	}

	end := model.SimulationEnvelope{
		OperationID:    lastOperationID,
		OperationIndex: lastOperationIndex,
		ActualAt:       lastActualAt,
		Simulation:     *sim,
	}
	if !appliedAny {
		end.Simulation = model.Simulation{}
	}

	elapsed := time.Since(start)
	now := time.Now().UTC()

	if allMessages == nil {
		allMessages = []model.CalculationMessage{}
	}
	if processed == nil {
		processed = []model.ProcessedOperation{}
	}

	return &model.CalculationResponse{
		CalculationMetadata: model.CalculationMetadata{
			CalculationID:          uuid.New().String(),
			TenantID:               req.TenantID,
			TablesVersion:          e.tables.Version,
			CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
			CalculationCompletedAt: now.Format(time.RFC3339),
			CalculationDurationMs:  elapsed.Milliseconds(),
			CalculationOutcome:     outcome,
		},
		CalculationResult: model.CalculationResult{
			Messages:      allMessages,
			Operations:    processed,
			EndSimulation: end,
			InitialSimulation: model.InitialSimulation{
				ActualAt:   firstActualAt(ops),
				Simulation: model.Simulation{},
			},
		},
	}
}

func firstActualAt(ops []model.Operation) string {
	if len(ops) == 0 {
		return ""
	}
	return ops[0].ActualAt
}

// departments lists the department codes the operations refer to, so their remote
// overrides can be fetched in one round.
func departments(ops []model.Operation) []string {
	var codes []string
	for _, op := range ops {
		var p struct {
			Department string `json:"department"`
		}
		if len(op.OperationProperties) == 0 || json.Unmarshal(op.OperationProperties, &p) != nil {
			continue
		}
		if p.Department != "" {
			codes = append(codes, p.Department)
		}
	}
	return codes
}
