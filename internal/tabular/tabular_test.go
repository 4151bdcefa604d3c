package tabular

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   rune
	}{
		{"comma only", "Date,Compte,Débit,Crédit", Comma},
		{"semicolon only", "N° Compte;Libellé;Débit;Crédit", Semicolon},
		{"tie prefers comma", "a;b,c", Comma},
		{"no delimiter", "Compte", Comma},
		{"commas inside quotes ignored", `"Compte, général";Libellé;Débit`, Semicolon},
		{"semicolons inside quotes ignored", `"a;b;c",d,e`, Comma},
		{"escaped quote inside quotes", `"say ""hi"";x";a;b`, Semicolon},
		{"more semicolons than commas", "a;b;c,d", Semicolon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDelimiter(tt.header); got != tt.want {
				t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{"simple", "a,b,c", Comma, []string{"a", "b", "c"}},
		{"semicolon", "101000;Capital social;0;50000", Semicolon, []string{"101000", "Capital social", "0", "50000"}},
		{"quoted delimiter", `"1 234,56";x`, Semicolon, []string{"1 234,56", "x"}},
		{"quoted comma", `"Dupont, Jean",12`, Comma, []string{"Dupont, Jean", "12"}},
		{"escaped quote", `"say ""hi""",b`, Comma, []string{`say "hi"`, "b"}},
		{"empty fields", ";;", Semicolon, []string{"", "", ""}},
		{"trailing delimiter", "a,", Comma, []string{"a", ""}},
		{"empty line", "", Comma, []string{""}},
		{"accented text", "Libellé;Crédit", Semicolon, []string{"Libellé", "Crédit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line, tt.delim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	text := "N° Compte;Libellé;Débit;Crédit\r\n\r\n101000;Capital social;0;50000\r\n411000;Client A;500\n   \n"

	table, err := Split(text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if table.Delimiter != Semicolon {
		t.Errorf("Delimiter = %q, want ';'", table.Delimiter)
	}
	wantHeaders := []string{"N° Compte", "Libellé", "Débit", "Crédit"}
	if !reflect.DeepEqual(table.Headers, wantHeaders) {
		t.Errorf("Headers = %q, want %q", table.Headers, wantHeaders)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			t.Errorf("row %d has %d cells, want %d", i, len(row), len(table.Headers))
		}
	}
	if got := table.Rows[1][3]; got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
	if !reflect.DeepEqual(table.Lines, []int{3, 4}) {
		t.Errorf("Lines = %v, want [3 4]", table.Lines)
	}
}

func TestSplit_StripsBOM(t *testing.T) {
	table, err := Split("\ufeffDate,Compte\n2024-01-01,512000\n")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if table.Headers[0] != "Date" {
		t.Errorf("Headers[0] = %q, want %q", table.Headers[0], "Date")
	}
}

func TestSplit_Empty(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"nothing", ""},
		{"only blank lines", "\n\r\n  \n"},
		{"header only", "Date;Compte;Débit\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.text)
			if !errors.Is(err, ledger.ErrEmptyFile) {
				t.Errorf("Split() error = %v, want ErrEmptyFile", err)
			}
		})
	}
}

func TestDecode_UTF8(t *testing.T) {
	data := []byte("\xEF\xBB\xBFLibellé;Débit\nCapital;1\n")

	got, err := Decode(data, "export.csv")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Encoding != EncodingUTF8 {
		t.Errorf("Encoding = %q, want %q", got.Encoding, EncodingUTF8)
	}
	if !strings.HasPrefix(got.Text, "Libellé;Débit") {
		t.Errorf("Text = %q, want BOM stripped", got.Text)
	}
}

func TestDecode_Windows1252Fallback(t *testing.T) {
	data := []byte("N\xb0 Compte;Libell\xe9;D\xe9bit;Cr\xe9dit\n101000;Capital;0;50000\n")

	got, err := Decode(data, "balance.csv")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Encoding != EncodingWindows1252 {
		t.Errorf("Encoding = %q, want %q", got.Encoding, EncodingWindows1252)
	}
	if !strings.HasPrefix(got.Text, "N° Compte;Libellé;Débit;Crédit") {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestDecode_ReplacementCharFallsBack(t *testing.T) {
	data := []byte("Libell\uFFFD;Debit;Credit\nCapital;0;50000\n")

	got, err := Decode(data, "balance.csv")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Encoding != EncodingWindows1252 {
		t.Errorf("Encoding = %q, want %q", got.Encoding, EncodingWindows1252)
	}

	// Past the sniffed prefix the text is kept as UTF-8.
	got, err = Decoder{SniffBytes: 8}.Decode(data, "balance.csv")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Encoding != EncodingUTF8 {
		t.Errorf("Encoding = %q, want %q", got.Encoding, EncodingUTF8)
	}
}

func TestDecode_RepairsMojibake(t *testing.T) {
	data := []byte("LibellÃ©;DÃ©bit;CrÃ©dit\nCapital;0;50000\n")

	got, err := Decode(data, "balance.txt")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Encoding != EncodingRepaired {
		t.Errorf("Encoding = %q, want %q", got.Encoding, EncodingRepaired)
	}
	if !strings.HasPrefix(got.Text, "Libellé;Débit;Crédit") {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestDecode_Unsupported(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
	}{
		{"xlsx extension", []byte("a,b\n1,2\n"), "ledger.xlsx"},
		{"pdf extension", []byte("a,b\n1,2\n"), "ledger.pdf"},
		{"zip content", []byte("PK\x03\x04rest"), "ledger.csv"},
		{"ole2 content", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1}, "ledger.csv"},
		{"pdf content", []byte("%PDF-1.7"), "ledger.txt"},
		{"nul bytes", []byte("a\x00,b\x00\n"), "ledger.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data, tt.filename)
			if !errors.Is(err, ledger.ErrUnsupportedFormat) {
				t.Errorf("Decode() error = %v, want ErrUnsupportedFormat", err)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("\xEF\xBB\xBF"), []byte(" \r\n")} {
		if _, err := Decode(data, "x.csv"); !errors.Is(err, ledger.ErrEmptyFile) {
			t.Errorf("Decode(%q) error = %v, want ErrEmptyFile", data, err)
		}
	}
}

func TestParse_RowsMatchHeaderWidth(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Compte,Libellé,Débit,Crédit\n")
	for i := 0; i < 50; i++ {
		b.WriteString(`01/02/2024,512000,"Virement, ref 42",10,0` + "\n")
	}

	table, _, err := Parse([]byte(b.String()), "bank.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(table.Rows) != 50 {
		t.Fatalf("len(Rows) = %d, want 50", len(table.Rows))
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), len(table.Headers))
		}
	}
}

func TestSample_DoesNotSplitRune(t *testing.T) {
	s := "ééé"
	got := sample(s, 3)
	if got != "é" {
		t.Errorf("sample() = %q, want %q", got, "é")
	}
}
