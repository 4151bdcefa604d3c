package validate

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name      string
		row       []string
		wantValid bool
	}{
		{"full row", []string{"101000", "Capital social", "0", "50000"}, true},
		{"single value", []string{"", "", "", "12"}, true},
		{"label only", []string{"", "Sous-total", "", ""}, true},
		{"zero amount counts as value", []string{"0"}, true},
		{"all empty", []string{"", "", ""}, false},
		{"whitespace only", []string{" ", "\t", "  "}, false},
		{"empty formula", []string{`=""`, ""}, false},
		{"no cells", []string{}, false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.row)
			if got.Valid != tt.wantValid {
				t.Errorf("Validate(%q).Valid = %v, want %v", tt.row, got.Valid, tt.wantValid)
			}
			if !got.Valid && len(got.Errors) == 0 {
				t.Error("invalid result has no errors")
			}
			if got.Valid && len(got.Errors) != 0 {
				t.Errorf("valid result has errors: %v", got.Errors)
			}
		})
	}
}

func TestValidationError_IsRowInvalid(t *testing.T) {
	res := New().Validate([]string{""})
	if len(res.Errors) == 0 {
		t.Fatal("expected an error")
	}
	if !errors.Is(res.Errors[0], ledger.ErrRowInvalid) {
		t.Errorf("error %v does not wrap ErrRowInvalid", res.Errors[0])
	}
}

func TestValidator_ValidateAll(t *testing.T) {
	rows := [][]string{
		{"411000", "Client", "500", ""},
		{"", "", "", ""},
		{"401000", "Fournisseur", "", "300"},
	}

	results := New().ValidateAll(rows, []int{2, 3, 5})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[1].Result.Valid {
		t.Error("blank row marked valid")
	}
	if results[1].Line != 3 {
		t.Errorf("results[1].Line = %d, want 3", results[1].Line)
	}
	if got := CountInvalid(results); got != 1 {
		t.Errorf("CountInvalid = %d, want 1", got)
	}

	results = New().ValidateAll(rows, nil)
	if results[2].Line != 0 {
		t.Errorf("Line without line numbers = %d, want 0", results[2].Line)
	}
}
