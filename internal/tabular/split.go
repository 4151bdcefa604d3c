package tabular

import (
	"strings"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// Supported delimiters.
const (
	Comma     = ','
	Semicolon = ';'
)

// Table is a split file: one header row and zero or more data rows.
// Every row has at least len(Headers) cells.
type Table struct {
	Headers   []string
	Rows      [][]string
	Lines     []int // 1-based source line of each row in Rows
	Delimiter rune
}

// DetectDelimiter picks the delimiter for a file from its header line.
// Semicolon wins only when it occurs strictly more often than comma outside
// quotes.
func DetectDelimiter(header string) rune {
	var commas, semis int
	inQuotes := false
	runes := []rune(header)

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				i++
				continue
			}
			inQuotes = !inQuotes
		case inQuotes:
		case r == Comma:
			commas++
		case r == Semicolon:
			semis++
		}
	}

	if semis > commas {
		return Semicolon
	}
	return Comma
}

// SplitLine tokenizes one line. The delimiter is ignored inside double
// quotes, and a doubled quote inside quotes is an escaped quote.
func SplitLine(line string, delim rune) []string {
	var (
		fields   []string
		b        strings.Builder
		inQuotes bool
	)
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuotes:
			if r != '"' {
				b.WriteRune(r)
				continue
			}
			if i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteRune('"')
				i++
				continue
			}
			inQuotes = false
		case r == '"':
			inQuotes = true
		case r == delim:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}

	return append(fields, b.String())
}

// Split breaks decoded text into a header and data rows. Blank lines are
// dropped. The delimiter is detected once, from the header, and applied to
// every row. Short rows are padded with empty cells.
//
// Split returns ledger.ErrEmptyFile when there is no data row.
func Split(text string) (Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")

	var t Table
	headerSeen := false

	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !headerSeen {
			t.Delimiter = DetectDelimiter(line)
			t.Headers = SplitLine(line, t.Delimiter)
			headerSeen = true
			continue
		}

		row := SplitLine(line, t.Delimiter)
		for len(row) < len(t.Headers) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, i+1)
	}

	if len(t.Rows) == 0 {
		return t, ledger.ErrEmptyFile
	}
	return t, nil
}

// Parse decodes data and splits it.
func Parse(data []byte, filename string) (Table, Decoded, error) {
	return Decoder{}.Parse(data, filename)
}

// Parse decodes data with d and splits it.
func (d Decoder) Parse(data []byte, filename string) (Table, Decoded, error) {
	decoded, err := d.Decode(data, filename)
	if err != nil {
		return Table{}, Decoded{}, err
	}
	table, err := Split(decoded.Text)
	if err != nil {
		return Table{}, decoded, err
	}
	return table, decoded, nil
}
