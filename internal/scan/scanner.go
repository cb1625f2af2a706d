package scan

import (
	"context"
	"io"
	"log/slog"

	"notaria-engine/internal/extract"
	"notaria-engine/internal/money"
	"notaria-engine/internal/rates"
)

// Report is the outcome of scanning one document.
type Report struct {
	File         string                `json:"file"`
	Detection    extract.Detection     `json:"detection"`
	Data         extract.ExtractedData `json:"data"`
	Department   string                `json:"department,omitempty"`
	Verification *Verification         `json:"verification"`
	Text         string                `json:"text,omitempty"`
}

// Scanner chains text extraction, detection, field extraction and reconciliation.
type Scanner struct {
	reader     *extract.Reader
	reconciler *Reconciler
}

func NewScanner(reader *extract.Reader, reconciler *Reconciler) *Scanner {
	return &Scanner{reader: reader, reconciler: reconciler}
}

// Scan reads the document and reconciles it. department overrides the department read
// from the document's postal code; an invalid code read from the text is ignored.
func (s *Scanner) Scan(ctx context.Context, name string, src io.Reader, department string) (*Report, error) {
	text, err := s.reader.ReadText(ctx, name, src)
	if err != nil {
		return nil, err
	}
	return s.ScanText(name, text, department)
}

// ScanText runs the pipeline on text that was already extracted.
func (s *Scanner) ScanText(name, text, department string) (*Report, error) {
	rep := &Report{
		File:      name,
		Detection: extract.Detect(text),
		Data:      extract.Fields(text),
		Text:      text,
	}

	rep.Department = department
	if rep.Department == "" && rates.ValidDepartment(rep.Data.Department) {
		rep.Department = rep.Data.Department
	}

	v, err := s.reconciler.Reconcile(ReconcileInput{
		DeedLabel:    rep.Detection.Label,
		Amount:       rep.Data.PrincipalAmount,
		RawText:      text,
		Department:   rep.Department,
		Relation:     rep.Data.Relation,
		PropertyType: rep.Data.PropertyType,
		DonorAge:     rep.Data.DonorAge,
	})
	if err != nil {
		return nil, err
	}
	rep.Verification = v

	attrs := []any{"file", name, "deed_type", rep.Detection.Type, "confidence", rep.Detection.Confidence}
	if v != nil {
		attrs = append(attrs, "category", v.Category, "alert", v.Alert, "computed", money.Round(v.ComputedAmount).String())
	}
	slog.Info("document scanned", attrs...)
	return rep, nil
}
