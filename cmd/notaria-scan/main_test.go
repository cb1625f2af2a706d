package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/scan"
)

func TestDocumentsFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.pdf", "notes.bin", "c.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	os.Mkdir(filepath.Join(dir, "sub.txt"), 0o700)

	files, err := documents(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if got := strings.Join(names, ","); got != "a.pdf,b.txt,c.md" {
		t.Fatalf("expected a.pdf,b.txt,c.md, got %s", got)
	}
}

func TestVerdictLine(t *testing.T) {
	s := scan.NewScanner(extract.NewReader(), scan.NewReconciler(calc.New(rates.Default())))
	path := filepath.Join(t.TempDir(), "vente.txt")
	os.WriteFile(path, []byte("Acte de vente au prix de 250 000 €.\nDroits de mutation : 15 400 €"), 0o600)

	rep, err := scanFile(t.Context(), s, path, "75")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line := verdictLine(rep)
	if !strings.HasPrefix(line, "vente.txt : ") || !strings.Contains(line, " : ALERTE Écart de") {
		t.Fatalf("unexpected verdict %q", line)
	}
}

func TestJSONLine(t *testing.T) {
	s := scan.NewScanner(extract.NewReader(), scan.NewReconciler(calc.New(rates.Default())))
	rep, err := s.ScanText("vente.txt", "Acte de vente au prix de 250 000 €.", "75")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := jsonLine("/tmp/vente.txt", rep)
	if !strings.HasPrefix(line, "{") || strings.Contains(line, `"text"`) {
		t.Fatalf("expected a JSON report without the text, got %q", line)
	}

	defer func(m func(any) ([]byte, error)) { marshal = m }(marshal)
	marshal = func(any) ([]byte, error) { return nil, errors.New("boom") }
	if got := jsonLine("/tmp/vente.txt", rep); got != "vente.txt : erreur : boom" {
		t.Fatalf("expected an error line, got %q", got)
	}
}
