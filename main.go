package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"

	"notaria-engine/internal/config"
	"notaria-engine/internal/deptregistry"
	"notaria-engine/internal/engine"
	"notaria-engine/internal/extract"
	"notaria-engine/internal/handler"
	"notaria-engine/internal/ocr"
	"notaria-engine/internal/rates"
)

func main() {
	cfg := config.Load()

	tables := rates.Default()
	if cfg.RateTablesFile != "" {
		t, err := rates.LoadFile(cfg.RateTablesFile)
		if err != nil {
			log.Fatalf("Rate tables: %v", err)
		}
		tables = t
	}

	opts := []extract.Option{extract.WithMaxSize(cfg.MaxUploadBytes())}
	if cfg.GeminiAPIKey != "" {
		g, err := ocr.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("OCR engine: %v", err)
		}
		opts = append(opts, extract.WithOCR(g))
	} else {
		log.Printf("GEMINI_API_KEY not set: image uploads are disabled")
	}

	h := handler.New(
		engine.New(tables, deptregistry.New(cfg.DepartmentRegistryURL)),
		extract.NewReader(opts...),
	)
	server := &fasthttp.Server{
		Handler:            h.Route,
		Name:               "notaria-engine",
		MaxRequestBodySize: int(cfg.MaxUploadBytes()) + 1<<20,
	}

	log.Printf("NotariaPrime engine starting on port %s (tables %s)", cfg.Port, tables.Version)
	if err := server.ListenAndServe(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
