package money

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain integer", "250000", "250000", true},
		{"french grouping", "250 000", "250000", true},
		{"french decimals", "1 234,56 €", "1234.56", true},
		{"no-break space", "14 588,18", "14588.18", true},
		{"narrow no-break space", "14 588,18 EUR", "14588.18", true},
		{"dot thousands", "250.000", "250000", true},
		{"dot thousands with cents", "250.000,50", "250000.5", true},
		{"english format", "1,234,567.89", "1234567.89", true},
		{"plain decimal", "3.87", "3.87", true},
		{"euros suffix", "31 865 euros", "31865", true},
		{"empty", "", "", false},
		{"letters", "deux cent mille", "", false},
		{"mixed garbage", "12a34", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(New(tt.want)) {
				t.Fatalf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "1 234,56 €"},
		{"0", "0,00 €"},
		{"999.999", "1 000,00 €"},
		{"14587.725", "14 587,73 €"},
		{"1805677", "1 805 677,00 €"},
		{"-42.5", "-42,50 €"},
	}
	for _, tt := range tests {
		if got := Format(New(tt.in)); got != tt.want {
			t.Fatalf("Format(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	got := Percent(Int(6500), New("3.870"))
	if !got.Equal(New("251.55")) {
		t.Fatalf("expected 251.55, got %s", got)
	}
}

func TestInputDecoding(t *testing.T) {
	var payload struct {
		A Input `json:"a"`
		B Input `json:"b"`
		C Input `json:"c"`
		D Input `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a": 250000, "b": "250 000,50", "c": "n/a", "d": null}`), &payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.A.Valid || !payload.A.Value.Equal(Int(250000)) {
		t.Fatalf("expected a = 250000, got %+v", payload.A)
	}
	if !payload.B.Valid || !payload.B.Value.Equal(New("250000.5")) {
		t.Fatalf("expected b = 250000.5, got %+v", payload.B)
	}
	if payload.C.Valid {
		t.Fatal("expected non-numeric string to decode as missing")
	}
	if payload.D.Valid {
		t.Fatal("expected null to decode as missing")
	}
}

func TestInputUsable(t *testing.T) {
	if Amount(Int(-1)).Usable() {
		t.Fatal("negative amount must not be usable")
	}
	if !Amount(Zero).Usable() {
		t.Fatal("zero amount must be usable")
	}
	if (Input{}).Usable() {
		t.Fatal("missing amount must not be usable")
	}
}
