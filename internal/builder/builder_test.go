package builder

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/dedupe"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/validate"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestBuild(t *testing.T) {
	headers := []string{"Date", "N° Compte", "Libellé", "Débit", "Crédit", "Solde"}
	rows := [][]string{
		{"15/01/2024", "101000", "Capital social", "", "50 000,00", "999"},
		{"", "", "", "", "", ""},
		{"16/01/2024", "411000", "Client A", "500", "", "-1"},
		{"bad date", "512000", "Banque", "n/a", "200,5", ""},
	}

	m := columns.NewResolver(nil).Resolve(headers,
		[]columns.Field{columns.Date, columns.AccountNumber, columns.AccountName, columns.Debit, columns.Credit, columns.Balance})
	results := validate.New().ValidateAll(rows, nil)

	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	b := New(ledger.Scope{ClientID: "c1", Period: "2024"}, Options{
		Now:   func() time.Time { return now },
		NewID: sequentialIDs(),
	})
	batch := b.Build(results, m)

	if batch.ImportID != "id-1" {
		t.Errorf("ImportID = %q, want id-1", batch.ImportID)
	}
	if len(batch.Entries) != 3 {
		t.Fatalf("len(Entries) = %d, want 3", len(batch.Entries))
	}
	if batch.UnreadAmounts != 1 {
		t.Errorf("UnreadAmounts = %d, want 1", batch.UnreadAmounts)
	}
	if batch.UnreadDates != 1 {
		t.Errorf("UnreadDates = %d, want 1", batch.UnreadDates)
	}

	for i, e := range batch.Entries {
		if e.ImportIndex != i {
			t.Errorf("Entries[%d].ImportIndex = %d", i, e.ImportIndex)
		}
		if e.ImportID != batch.ImportID {
			t.Errorf("Entries[%d].ImportID = %q", i, e.ImportID)
		}
		if e.ClientID != "c1" || e.Period != "2024" {
			t.Errorf("Entries[%d] scope = %q/%q", i, e.ClientID, e.Period)
		}
		if !e.Balance.Equal(e.Debit.Sub(e.Credit)) {
			t.Errorf("Entries[%d].Balance = %s, want %s", i, e.Balance, e.Debit.Sub(e.Credit))
		}
		if e.Signature != dedupe.Signature(e) {
			t.Errorf("Entries[%d] signature not stamped", i)
		}
		if !e.ImportedAt.Equal(now) {
			t.Errorf("Entries[%d].ImportedAt = %v", i, e.ImportedAt)
		}
	}

	capital := batch.Entries[0]
	if capital.AccountName != "Capital social" {
		t.Errorf("AccountName = %q", capital.AccountName)
	}
	if !capital.Credit.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Credit = %s, want 50000", capital.Credit)
	}
	if !capital.Balance.Equal(decimal.NewFromInt(-50000)) {
		t.Errorf("Balance = %s, want -50000 (file balance ignored)", capital.Balance)
	}
	if capital.Date == nil || capital.Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("Date = %v", capital.Date)
	}

	bank := batch.Entries[2]
	if bank.Date != nil {
		t.Errorf("unreadable date = %v, want nil", bank.Date)
	}
	if !bank.Debit.IsZero() {
		t.Errorf("unreadable debit = %s, want 0", bank.Debit)
	}
	if !bank.Credit.Equal(decimal.RequireFromString("200.5")) {
		t.Errorf("Credit = %s, want 200.5", bank.Credit)
	}
}

func TestBuild_NegativeAmountsMoveSides(t *testing.T) {
	m := columns.Mapping{Index: map[columns.Field]int{columns.AccountNumber: 0, columns.Debit: 1, columns.Credit: 2}}
	rows := validate.New().ValidateAll([][]string{{"658000", "-120", ""}}, nil)

	batch := New(ledger.Scope{ClientID: "c1"}, Options{}).Build(rows, m)
	e := batch.Entries[0]

	if !e.Debit.IsZero() || !e.Credit.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Debit/Credit = %s/%s, want 0/120", e.Debit, e.Credit)
	}
	if !e.Balance.Equal(decimal.NewFromInt(-120)) {
		t.Errorf("Balance = %s, want -120", e.Balance)
	}
}

func TestBuild_UniqueIDs(t *testing.T) {
	m := columns.Mapping{Index: map[columns.Field]int{columns.AccountNumber: 0}}
	raw := make([][]string, 100)
	for i := range raw {
		raw[i] = []string{"512000"}
	}

	batch := New(ledger.Scope{ClientID: "c1"}, Options{}).Build(validate.New().ValidateAll(raw, nil), m)

	seen := make(map[string]bool)
	for _, e := range batch.Entries {
		if seen[e.ID] {
			t.Fatalf("duplicate ID %q", e.ID)
		}
		seen[e.ID] = true
	}
	if seen[batch.ImportID] {
		t.Error("import ID reused as entry ID")
	}
}

func TestBuild_TextCap(t *testing.T) {
	m := columns.Mapping{Index: map[columns.Field]int{columns.Description: 0}}
	rows := validate.New().ValidateAll([][]string{{"abcdefghij"}}, nil)

	batch := New(ledger.Scope{ClientID: "c1"}, Options{MaxTextRunes: 4}).Build(rows, m)
	if got := batch.Entries[0].Description; got != "abcd" {
		t.Errorf("Description = %q, want %q", got, "abcd")
	}
}
