package handler

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"notaria-engine/internal/engine"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/model"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/scan"
)

func newHandler() *Handler {
	return New(engine.New(rates.Default(), nil), extract.NewReader())
}

func call(method, uri, contentType string, body []byte) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if contentType != "" {
		ctx.Request.Header.SetContentType(contentType)
	}
	ctx.Request.SetBody(body)
	newHandler().Route(&ctx)
	return &ctx
}

const calculation = `{
	"tenant_id": "etude-dupont",
	"calculation_instructions": {
		"operations": [{
			"operation_id": "a1111111-1111-1111-1111-111111111111",
			"operation_definition_name": "compute_acquisition_costs",
			"operation_type": "CALCULATION",
			"actual_at": "2025-03-01",
			"operation_properties": {"amount": "250 000 €", "department": "75"}
		}]
	}
}`

func TestCalculate(t *testing.T) {
	ctx := call("POST", "/calculate", "application/json", []byte(calculation))
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var resp model.CalculationResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationMetadata.TenantID != "etude-dupont" {
		t.Fatalf("expected tenant etude-dupont, got %s", resp.CalculationMetadata.TenantID)
	}
}

func TestCalculateHTML(t *testing.T) {
	ctx := call("POST", "/calculate?format=html", "application/json", []byte(calculation))
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	if !strings.HasPrefix(string(ctx.Response.Header.ContentType()), "text/html") {
		t.Fatalf("expected HTML, got %s", ctx.Response.Header.ContentType())
	}
	if !strings.Contains(string(ctx.Response.Body()), "<table>") {
		t.Fatalf("expected a table in the report, got %s", ctx.Response.Body())
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
	}{
		{"wrong method", "GET", "/calculate", "", fasthttp.StatusBadRequest},
		{"malformed body", "POST", "/calculate", "{", fasthttp.StatusBadRequest},
		{"no operations", "POST", "/calculate", `{"calculation_instructions":{"operations":[]}}`, fasthttp.StatusBadRequest},
		{"scan without file", "POST", "/scan", "", fasthttp.StatusBadRequest},
		{"unknown path", "GET", "/nope", "", fasthttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := call(tt.method, tt.uri, "application/json", []byte(tt.body))
			if ctx.Response.StatusCode() != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, ctx.Response.StatusCode())
			}
			var e model.ErrorResponse
			if err := json.Unmarshal(ctx.Response.Body(), &e); err != nil || e.Status != tt.status {
				t.Fatalf("expected an error body with status %d, got %s", tt.status, ctx.Response.Body())
			}
		})
	}
}

func upload(t *testing.T, name, content, department string) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	if department != "" {
		w.WriteField("department", department)
	}
	w.Close()
	return w.FormDataContentType(), buf.Bytes()
}

func TestScan(t *testing.T) {
	ct, body := upload(t, "vente.txt", "Acte de vente au prix de 250 000 €.\nDroits de mutation : 14 587,73 €", "75")
	ctx := call("POST", "/scan", ct, body)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var rep scan.Report
	if err := json.Unmarshal(ctx.Response.Body(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Verification == nil || rep.Verification.Alert || rep.Verification.Category != scan.CategoryMutationDuty {
		t.Fatalf("unexpected verification %+v", rep.Verification)
	}
}

func TestScanErrors(t *testing.T) {
	ct, body := upload(t, "ancien.doc", "binary", "")
	ctx := call("POST", "/scan", ct, body)
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a legacy .doc, got %d", ctx.Response.StatusCode())
	}

	ct, body = upload(t, "vente.txt", "Prix : 250 000 €", "99")
	ctx = call("POST", "/scan", ct, body)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid department, got %d", ctx.Response.StatusCode())
	}
}

func TestTablesAndHealth(t *testing.T) {
	ctx := call("GET", "/tables", "", nil)
	var tables rates.Tables
	if err := json.Unmarshal(ctx.Response.Body(), &tables); err != nil {
		t.Fatalf("decode tables: %v", err)
	}
	if tables.Version != "2025" || len(tables.DeedTypes) != 6 {
		t.Fatalf("unexpected tables version %s with %d deed types", tables.Version, len(tables.DeedTypes))
	}

	ctx = call("GET", "/health", "", nil)
	if string(ctx.Response.Body()) != `{"status":"ok"}` {
		t.Fatalf("unexpected health body %s", ctx.Response.Body())
	}
}
