package columns

import (
	"fmt"
	"strings"
)

// Field is a canonical ledger column.
type Field int

const (
	Date Field = iota
	AccountNumber
	AccountName
	Description
	Reference
	Debit
	Credit
	Category
	Balance
)

var fieldNames = [...]string{
	Date:          "Date",
	AccountNumber: "Account Number",
	AccountName:   "Label",
	Description:   "Description",
	Reference:     "Reference",
	Debit:         "Debit",
	Credit:        "Credit",
	Category:      "Category",
	Balance:       "Balance",
}

// fieldAliases are extra spellings accepted by ParseField for callers that
// name columns by their entry field rather than their display name.
var fieldAliases = map[string]Field{
	"accountnumber":  AccountNumber,
	"account_number": AccountNumber,
	"accountname":    AccountName,
	"account_name":   AccountName,
	"account name":   AccountName,
}

// AllFields returns every canonical field in declaration order.
func AllFields() []Field {
	fields := make([]Field, len(fieldNames))
	for i := range fieldNames {
		fields[i] = Field(i)
	}
	return fields
}

// String returns the display name of the field.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// MarshalText encodes the field by display name.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a field from any name ParseField accepts.
func (f *Field) UnmarshalText(b []byte) error {
	parsed, ok := ParseField(string(b))
	if !ok {
		return fmt.Errorf("unknown column %q", string(b))
	}
	*f = parsed
	return nil
}

// ParseField resolves a display name, alias or default synonym to a field.
func ParseField(name string) (Field, bool) {
	n := Normalize(name)
	for i, display := range fieldNames {
		if Normalize(display) == n {
			return Field(i), true
		}
	}
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, true
	}
	for _, f := range AllFields() {
		for _, syn := range defaultSynonyms[f] {
			if Normalize(syn) == n {
				return f, true
			}
		}
	}
	return 0, false
}

// ParseFields parses a list of column names, reporting every unknown one.
func ParseFields(names []string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	var unknown []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, ok := ParseField(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		fields = append(fields, f)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown columns: %s", strings.Join(unknown, ", "))
	}
	return fields, nil
}
