// Package ocr recognises the text of scanned deeds with a Gemini vision model.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

const DefaultModel = "gemini-2.0-flash"

const transcribePrompt = `Transcris intégralement le texte de ce document notarial français.
Conserve les montants, les dates, les noms et les adresses exactement comme ils apparaissent.
Réponds uniquement avec le texte transcrit, sans commentaire ni mise en forme Markdown.`

// Gemini implements extract.OCREngine.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: transcribePrompt},
			{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}},
		},
	}}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini transcription failed: %w", err)
	}
	return cleanTranscript(result.Text()), nil
}

// cleanTranscript strips the code fence the model sometimes wraps its answer in.
func cleanTranscript(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], " ") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
