package columns

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Débit", "debit"},
		{"  Crédit  ", "credit"},
		{"\ufeffDate", "date"},
		{"N°\u00a0Compte", "n° compte"},
		{"Libellé\tdu   compte", "libelle du compte"},
		{"INTITULÉ", "intitule"},
		{"Date d'écriture", "date d'ecriture"},
		{"Montant\u202fcrédit", "montant credit"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		name   string
		want   Field
		wantOK bool
	}{
		{"Date", Date, true},
		{"Account Number", AccountNumber, true},
		{"accountNumber", AccountNumber, true},
		{"Label", AccountName, true},
		{"account_name", AccountName, true},
		{"Débit", Debit, true},
		{"crédit", Credit, true},
		{"N° Compte", AccountNumber, true},
		{"Solde", Balance, true},
		{"nonsense", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseField(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("ParseField(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseField(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseFields_ReportsUnknown(t *testing.T) {
	if _, err := ParseFields([]string{"Date", "bogus", "Debit"}); err == nil {
		t.Error("ParseFields() error = nil, want unknown column error")
	}
	got, err := ParseFields([]string{"Date", " ", "Debit"})
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestResolve_FrenchHeaders(t *testing.T) {
	headers := []string{"N° Compte", "Libellé", "Débit", "Crédit"}
	expected := []Field{AccountNumber, AccountName, Debit, Credit}

	m := NewResolver(nil).Resolve(headers, expected)

	want := map[Field]int{AccountNumber: 0, AccountName: 1, Debit: 2, Credit: 3}
	for f, i := range want {
		if got, ok := m.Index[f]; !ok || got != i {
			t.Errorf("Index[%v] = %d (ok=%v), want %d", f, got, ok, i)
		}
	}
	if m.Recognized != 4 {
		t.Errorf("Recognized = %d, want 4", m.Recognized)
	}
	if len(m.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", m.Diagnostics)
	}
}

func TestResolve_ExactBeatsContainment(t *testing.T) {
	// "Libellé compte" contains "compte" but is an exact account name.
	headers := []string{"Libellé compte", "Compte", "Débit", "Crédit"}
	m := NewResolver(nil).Resolve(headers, []Field{AccountNumber, AccountName, Debit, Credit})

	if m.Index[AccountNumber] != 1 {
		t.Errorf("AccountNumber -> %d, want 1", m.Index[AccountNumber])
	}
	if m.Index[AccountName] != 0 {
		t.Errorf("AccountName -> %d, want 0", m.Index[AccountName])
	}
}

func TestResolve_Containment(t *testing.T) {
	headers := []string{"Date de l'opération", "Montant Débit (€)", "Montant Crédit (€)", "Réf."}
	m := NewResolver(nil).Resolve(headers, []Field{Date, Debit, Credit, Reference})

	want := map[Field]int{Date: 0, Debit: 1, Credit: 2, Reference: 3}
	for f, i := range want {
		if got, ok := m.Index[f]; !ok || got != i {
			t.Errorf("Index[%v] = %d (ok=%v), want %d", f, got, ok, i)
		}
	}
}

func TestResolve_FirstHeaderWins(t *testing.T) {
	headers := []string{"Date opération", "Date valeur", "Débit"}
	m := NewResolver(nil).Resolve(headers, []Field{Date, Debit})
	if m.Index[Date] != 0 {
		t.Errorf("Date -> %d, want 0", m.Index[Date])
	}
}

func TestResolve_HeaderClaimedOnce(t *testing.T) {
	headers := []string{"Libellé", "Débit"}
	m := NewResolver(nil).Resolve(headers, []Field{AccountName, Description, Debit})

	if m.Index[AccountName] != 0 {
		t.Errorf("AccountName -> %d, want 0", m.Index[AccountName])
	}
	if m.Has(Description) {
		t.Errorf("Description resolved to %d, want unresolved", m.Index[Description])
	}
	if m.Recognized != 2 {
		t.Errorf("Recognized = %d, want 2", m.Recognized)
	}
	if len(m.Diagnostics) != 1 || m.Diagnostics[0].Field != Description {
		t.Errorf("Diagnostics = %v, want one for Description", m.Diagnostics)
	}
}

func TestResolve_ShortSynonymsOnlyExact(t *testing.T) {
	headers := []string{"Ordre", "Adresse"}
	r := NewResolver(nil)
	r.Positional = false
	m := r.Resolve(headers, []Field{Debit, Credit, Reference})
	if m.Has(Debit) || m.Has(Credit) {
		t.Errorf("short synonyms matched by containment: %v", m.Index)
	}
}

func TestResolve_Suggestion(t *testing.T) {
	headers := []string{"Compte", "Debt", "Cdt"}
	m := NewResolver(nil).Resolve(headers, []Field{AccountNumber, Debit})

	if m.Recognized != 1 {
		t.Fatalf("Recognized = %d, want 1", m.Recognized)
	}
	if len(m.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want 1", m.Diagnostics)
	}
	d := m.Diagnostics[0]
	if d.Field != Debit {
		t.Errorf("Diagnostic field = %v, want Debit", d.Field)
	}
	if d.Suggestion == "" || d.Suggestion == "Compte" {
		t.Errorf("Suggestion = %q, want an unclaimed header", d.Suggestion)
	}
}

func TestResolve_PositionalFallback(t *testing.T) {
	headers := []string{"c1", "c2", "c3"}
	expected := []Field{AccountNumber, Debit, Credit}

	m := NewResolver(nil).Resolve(headers, expected)
	if !m.Positional {
		t.Fatal("Positional = false, want true")
	}
	if m.Recognized != 0 {
		t.Errorf("Recognized = %d, want 0", m.Recognized)
	}
	for i, f := range expected {
		if m.Index[f] != i {
			t.Errorf("Index[%v] = %d, want %d", f, m.Index[f], i)
		}
	}

	r := NewResolver(nil)
	r.Positional = false
	m = r.Resolve(headers, expected)
	if m.Positional || len(m.Index) != 0 {
		t.Errorf("positional fallback used while disabled: %+v", m)
	}
	if len(m.Diagnostics) != len(expected) {
		t.Errorf("len(Diagnostics) = %d, want %d", len(m.Diagnostics), len(expected))
	}
}

func TestMapping_Cell(t *testing.T) {
	m := Mapping{Index: map[Field]int{Debit: 1, Credit: 5}}
	row := []string{"411000", "12,50"}

	if got := m.Cell(row, Debit); got != "12,50" {
		t.Errorf("Cell(Debit) = %q", got)
	}
	if got := m.Cell(row, Credit); got != "" {
		t.Errorf("Cell(Credit) out of range = %q, want empty", got)
	}
	if got := m.Cell(row, Date); got != "" {
		t.Errorf("Cell(Date) unmapped = %q, want empty", got)
	}
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := "Account Number:\n  - Compte tiers\nDebit:\n  - Mouvement débiteur\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	dict, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("LoadDictionary() error = %v", err)
	}
	if got := dict.Synonyms(AccountNumber)[0]; got != "compte tiers" {
		t.Errorf("first AccountNumber synonym = %q, want %q", got, "compte tiers")
	}

	m := NewResolver(dict).Resolve([]string{"Compte tiers", "Mouvement débiteur"}, []Field{AccountNumber, Debit})
	if m.Index[AccountNumber] != 0 || m.Index[Debit] != 1 {
		t.Errorf("Index = %v", m.Index)
	}
}

func TestLoadDictionary_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	if err := os.WriteFile(path, []byte("Nope:\n  - x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDictionary(path); err == nil {
		t.Error("LoadDictionary() error = nil, want unknown column error")
	}
}
