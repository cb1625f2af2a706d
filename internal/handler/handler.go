// Package handler serves the engine over fasthttp.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"notaria-engine/internal/engine"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/model"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/report"
	"notaria-engine/internal/scan"
)

const (
	calculateTimeout = 10 * time.Second
	scanTimeout      = 2 * time.Minute
)

type Handler struct {
	engine *engine.Engine
	reader *extract.Reader
}

func New(e *engine.Engine, r *extract.Reader) *Handler {
	return &Handler{engine: e, reader: r}
}

// Route dispatches on the request path.
func (h *Handler) Route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/calculate":
		h.HandleCalculation(ctx)
	case "/scan":
		h.HandleScan(ctx)
	case "/tables":
		h.HandleTables(ctx)
	case "/health":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
	}
}

func (h *Handler) HandleCalculation(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}

	var req model.CalculationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.CalculationInstructions.Operations) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one operation is required")
		return
	}

	c, cancel := context.WithTimeout(context.Background(), calculateTimeout)
	defer cancel()
	resp := h.engine.Process(c, &req)
	slog.Info("calculation processed",
		"calculation_id", resp.CalculationMetadata.CalculationID,
		"tenant_id", req.TenantID,
		"operations", len(req.CalculationInstructions.Operations),
		"outcome", resp.CalculationMetadata.CalculationOutcome,
		"duration_ms", resp.CalculationMetadata.CalculationDurationMs)

	if wantsHTML(ctx) {
		out, err := report.HTML(resp)
		if err != nil {
			writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
			return
		}
		writeHTML(ctx, out)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// HandleScan reads the multipart "file" field and reconciles the document. An optional
// "department" field overrides the department read from the document.
func (h *Handler) HandleScan(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "A document is required in the \"file\" field")
		return
	}
	department := string(ctx.FormValue("department"))
	if department != "" && !rates.ValidDepartment(department) {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid department: "+department)
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Cannot read upload: "+err.Error())
		return
	}
	defer f.Close()

	c, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	calculator := h.engine.Calculator(c, department)
	scanner := scan.NewScanner(h.reader, scan.NewReconciler(calculator))
	rep, err := scanner.Scan(c, fh.Filename, f, department)
	if err != nil {
		status := fasthttp.StatusUnprocessableEntity
		if errors.Is(err, rates.ErrUnknownDepartment) {
			status = fasthttp.StatusBadRequest
		}
		slog.Warn("scan failed", "file", fh.Filename, "error", err)
		writeError(ctx, status, err.Error())
		return
	}

	if wantsHTML(ctx) {
		out, err := report.Render(report.ScanMarkdown(rep))
		if err != nil {
			writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
			return
		}
		writeHTML(ctx, out)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, rep)
}

func (h *Handler) HandleTables(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusBadRequest, "Method not allowed")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, h.engine.Tables())
}

func wantsHTML(ctx *fasthttp.RequestCtx) bool {
	return string(ctx.QueryArgs().Peek("format")) == "html"
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}

func writeHTML(ctx *fasthttp.RequestCtx, body []byte) {
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	b, _ := json.Marshal(model.ErrorResponse{
		Status:  status,
		Message: message,
	})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(b)
}
