// Command notaria-scan reconciles every supported document of a directory and prints
// one verdict per document.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"

	"notaria-engine/internal/calc"
	"notaria-engine/internal/config"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/money"
	"notaria-engine/internal/ocr"
	"notaria-engine/internal/rates"
	"notaria-engine/internal/scan"
)

func main() {
	dir := flag.String("dir", ".", "directory holding the deeds to scan")
	department := flag.String("department", "", "department code applied to every document")
	asJSON := flag.Bool("json", false, "print the full reports as JSON lines")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	cfg := config.Load()

	tables := rates.Default()
	if cfg.RateTablesFile != "" {
		t, err := rates.LoadFile(cfg.RateTablesFile)
		if err != nil {
			log.Fatalf("Rate tables: %v", err)
		}
		tables = t
	}
	if *department != "" && !rates.ValidDepartment(*department) {
		log.Fatalf("Invalid department %q", *department)
	}

	files, err := documents(*dir)
	if err != nil {
		log.Fatalf("List %s: %v", *dir, err)
	}
	if len(files) == 0 {
		fmt.Println("Aucun document à analyser.")
		return
	}

	ctx := context.Background()
	opts := []extract.Option{extract.WithMaxSize(cfg.MaxUploadBytes())}
	if cfg.GeminiAPIKey != "" {
		g, err := ocr.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("OCR engine: %v", err)
		}
		opts = append(opts, extract.WithOCR(g))
	}
	scanner := scan.NewScanner(extract.NewReader(opts...), scan.NewReconciler(calc.New(tables)))

	bar := progressbar.Default(int64(len(files)), "analyse")
	lines := make([]string, 0, len(files))
	alerts := 0
	for _, path := range files {
		rep, err := scanFile(ctx, scanner, path, *department)
		bar.Add(1)
		if err != nil {
			lines = append(lines, errorLine(path, err))
			continue
		}
		if rep.Verification != nil && rep.Verification.Alert {
			alerts++
		}
		if *asJSON {
			lines = append(lines, jsonLine(path, rep))
			continue
		}
		lines = append(lines, verdictLine(rep))
	}
	bar.Finish()

	for _, l := range lines {
		fmt.Println(l)
	}
	fmt.Printf("%d document(s) analysé(s), %d alerte(s).\n", len(files), alerts)
}

// documents lists the files of dir with a supported extension, in name order.
func documents(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := extract.FormatOf(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func scanFile(ctx context.Context, s *scan.Scanner, path, department string) (*scan.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Scan(ctx, filepath.Base(path), f, department)
}

var marshal = json.Marshal

// jsonLine renders rep without its extracted text.
func jsonLine(path string, rep *scan.Report) string {
	rep.Text = ""
	b, err := marshal(rep)
	if err != nil {
		return errorLine(path, err)
	}
	return string(b)
}

func errorLine(path string, err error) string {
	return fmt.Sprintf("%s : erreur : %v", filepath.Base(path), err)
}

func verdictLine(rep *scan.Report) string {
	head := fmt.Sprintf("%s : %s (%d %%)", rep.File, rep.Detection.Label, rep.Detection.Confidence)
	v := rep.Verification
	switch {
	case v == nil:
		return head + " : aucun montant principal"
	case v.Alert:
		return fmt.Sprintf("%s : ALERTE %s", head, v.Message)
	case v.Announced():
		return fmt.Sprintf("%s : OK %s", head, v.Message)
	}
	return fmt.Sprintf("%s : estimation %s", head, money.Format(v.ComputedAmount))
}
