// Package ledger defines the canonical ledger entry shared by every stage of
// the import pipeline, together with the error taxonomy the pipeline reports.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Scope partitions entries by client and accounting period. Period may be
// empty for undated or client-wide ledgers.
type Scope struct {
	ClientID string `json:"clientId"`
	Period   string `json:"period,omitempty"`
}

// Key returns a stable map key for the scope.
func (s Scope) Key() string {
	return s.ClientID + "\x1f" + s.Period
}

// Entry is one canonical ledger line.
//
// Balance is always Debit minus Credit. A balance column in the source file
// is never trusted; use Rebalance after changing either amount.
type Entry struct {
	ID            string          `json:"id"`
	Date          *time.Time      `json:"date,omitempty"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	Description   string          `json:"description"`
	Reference     string          `json:"reference"`
	Category      string          `json:"category,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Balance       decimal.Decimal `json:"balance"`
	ClientID      string          `json:"clientId"`
	Period        string          `json:"period,omitempty"`
	ImportID      string          `json:"importId"`
	ImportIndex   int             `json:"importIndex"`
	ImportedAt    time.Time       `json:"importedAt"`
	Signature     string          `json:"signature"`
	AIMeta        json.RawMessage `json:"aiMeta,omitempty"`
}

// Scope returns the (client, period) partition the entry belongs to.
func (e Entry) Scope() Scope {
	return Scope{ClientID: e.ClientID, Period: e.Period}
}

// Rebalance moves negative amounts to the opposite side and re-derives
// Balance. The balance is the same before and after the move.
func (e *Entry) Rebalance() {
	if e.Debit.IsNegative() {
		e.Credit = e.Credit.Add(e.Debit.Neg())
		e.Debit = decimal.Zero
	}
	if e.Credit.IsNegative() {
		e.Debit = e.Debit.Add(e.Credit.Neg())
		e.Credit = decimal.Zero
	}
	e.Balance = e.Debit.Sub(e.Credit)
}

// Label returns the description, falling back to the account name. This is
// the text that identifies an entry for deduplication.
func (e Entry) Label() string {
	if e.Description != "" {
		return e.Description
	}
	return e.AccountName
}
