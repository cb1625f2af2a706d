package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

type fakeOCR struct {
	text     string
	gotMIME  string
	gotBytes int
}

func (f *fakeOCR) Recognize(_ context.Context, data []byte, mimeType string) (string, error) {
	f.gotMIME = mimeType
	f.gotBytes = len(data)
	return f.text, nil
}

func TestReadTextFormats(t *testing.T) {
	docx := zipBytes(t, map[string]string{
		"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			`<w:p><w:r><w:t>Acte de donation</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t xml:space="preserve">Montant : </w:t></w:r><w:r><w:t>100 000 €</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
	})
	xlsx := zipBytes(t, map[string]string{
		"xl/sharedStrings.xml":     `<sst><si><t>Prix</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row><c t="s"><v>0</v></c><c><v>250000</v></c></row></sheetData></worksheet>`,
	})

	tests := []struct {
		name string
		file string
		data []byte
		want []string
	}{
		{"plain utf-8", "acte.txt", []byte("Acte de vente\r\n\r\n\r\nPrix : 250 000 €"), []string{"Acte de vente\n\nPrix : 250 000 €"}},
		{"windows-1252", "acte.txt", []byte("Donation \xe0 Paris de 100 000 \x80"), []string{"Donation à Paris de 100 000 €"}},
		{"html", "acte.html", []byte(`<html><head><title>ignored</title></head><body><p>Prix : 250 000 €</p><p>Vendeur</p><script>var x</script></body></html>`), []string{"Prix : 250 000 €\nVendeur"}},
		{"markdown", "acte.md", []byte("# Acte de vente\n\nPrix : **250 000 €**\n"), []string{"Acte de vente", "Prix : 250 000 €"}},
		{"docx", "acte.docx", docx, []string{"Acte de donation\nMontant : 100 000 €"}},
		{"xlsx", "frais.xlsx", xlsx, []string{"Prix 250000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := NewReader().ReadText(context.Background(), tt.file, bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Fatalf("expected text to contain %q, got %q", w, text)
				}
			}
			if strings.Contains(text, "ignored") || strings.Contains(text, "var x") {
				t.Fatalf("expected head and scripts to be dropped, got %q", text)
			}
		})
	}
}

func TestReadTextErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want error
	}{
		{"legacy word", "acte.doc", "binary", ErrLegacyDoc},
		{"unknown extension", "acte.odt", "x", ErrUnsupportedFormat},
		{"blank text", "acte.txt", "  \n\t ", ErrNoText},
		{"image without engine", "scan.png", "png", ErrNoOCREngine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader().ReadText(context.Background(), tt.file, strings.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestReadTextTooLarge(t *testing.T) {
	_, err := NewReader(WithMaxSize(4)).ReadText(context.Background(), "acte.txt", strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestReadTextImageUsesOCR(t *testing.T) {
	engine := &fakeOCR{text: "Acte de vente\nPrix : 180 000 €"}
	var steps []Progress
	r := NewReader(WithOCR(engine), WithProgress(func(p Progress) { steps = append(steps, p) }))

	text, err := r.ReadText(context.Background(), "SCAN.JPG", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Acte de vente\nPrix : 180 000 €" {
		t.Fatalf("unexpected text %q", text)
	}
	if engine.gotMIME != "image/jpeg" || engine.gotBytes != 8 {
		t.Fatalf("expected jpeg bytes to reach the engine, got %q (%d bytes)", engine.gotMIME, engine.gotBytes)
	}
	if len(steps) < 2 || steps[len(steps)-1].Progress != 100 {
		t.Fatalf("expected progress to end at 100, got %v", steps)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Progress < steps[i-1].Progress {
			t.Fatalf("progress went backwards: %v", steps)
		}
	}
}

func TestReadTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader().ReadText(ctx, "acte.txt", strings.NewReader("Acte")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestContentText(t *testing.T) {
	stream := `BT /F1 12 Tf 72 712 Td (Acte de vente) Tj 0 -14 Td [(Prix) -250 (: 250 000) ( \200)] TJ ET
BT 72 680 Td <FEFF0044006F006E> Tj ET`
	got := contentText([]byte(stream))
	want := "Acte de vente\nPrix : 250 000 €\nDon\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDecodeLiteralEscapes(t *testing.T) {
	got := decodeLiteral([]byte(`Cr\351ance \(principal\)`))
	if got != "Créance (principal)" {
		t.Fatalf("expected %q, got %q", "Créance (principal)", got)
	}
}
