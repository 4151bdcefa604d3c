// Package indicators classifies ledger entries by chart-of-accounts class
// and derives balance-sheet totals and ratios from them.
//
// Account numbers follow the French PCG numbering: the leading digit is the
// class (1 capital, 2 fixed assets, 3 inventory, 4 third parties,
// 5 financial, 6 expense, 7 revenue) and the second digit refines it.
//
// Asset and expense classes carry their balance as is (debit nature).
// Liability, equity and revenue classes carry the negated balance (credit
// nature), so a credit of 50000 on 101000 is 50000 of equity.
package indicators

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// RatioPlaces is the number of decimal places ratios are rounded to.
const RatioPlaces = 4

// Class is the balance-sheet bucket of an account.
type Class int

const (
	Unclassified Class = iota
	Equity
	LongTermLiability
	Payable
	Receivable
	FixedAsset
	CurrentAsset
	Expense
	Revenue
)

var classNames = map[Class]string{
	Unclassified:      "unclassified",
	Equity:            "equity",
	LongTermLiability: "long_term_liability",
	Payable:           "payable",
	Receivable:        "receivable",
	FixedAsset:        "fixed_asset",
	CurrentAsset:      "current_asset",
	Expense:           "expense",
	Revenue:           "revenue",
}

func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return "unclassified"
}

// Classify returns the class of an account number. Leading spaces are
// ignored. Anything not starting with a digit from 1 to 7 is Unclassified.
func Classify(accountNumber string) Class {
	acct := strings.TrimLeftFunc(accountNumber, unicode.IsSpace)
	if acct == "" {
		return Unclassified
	}

	switch acct[0] {
	case '1':
		if hasAnyPrefix(acct, "10", "11", "12") {
			return Equity
		}
		return LongTermLiability
	case '2':
		return FixedAsset
	case '3', '5':
		return CurrentAsset
	case '4':
		if hasAnyPrefix(acct, "40", "42", "43", "44") {
			return Payable
		}
		return Receivable
	case '6':
		return Expense
	case '7':
		return Revenue
	}
	return Unclassified
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Indicators is the aggregate view of one entry set. It is always
// recomputed from entries and never stored.
type Indicators struct {
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	NetResult        decimal.Decimal `json:"netResult"`
	WorkingCapital   decimal.Decimal `json:"workingCapital"`
	CurrentRatio     decimal.Decimal `json:"currentRatio"`
	DebtRatio        decimal.Decimal `json:"debtRatio"`
	ProfitMargin     decimal.Decimal `json:"profitMargin"`

	FixedAssets         decimal.Decimal `json:"fixedAssets"`
	CurrentAssets       decimal.Decimal `json:"currentAssets"`
	CurrentLiabilities  decimal.Decimal `json:"currentLiabilities"`
	LongTermLiabilities decimal.Decimal `json:"longTermLiabilities"`
	Revenue             decimal.Decimal `json:"revenue"`
	Expense             decimal.Decimal `json:"expense"`

	EntryCount        int `json:"entryCount"`
	UnclassifiedCount int `json:"unclassifiedCount"`
}

// Compute aggregates entries into indicators. It has no side effects:
// the same entries always give the same result. Entry balances are
// re-derived from debit and credit, so stale Balance values are ignored.
func Compute(entries []ledger.Entry) Indicators {
	var ind Indicators
	ind.EntryCount = len(entries)

	for _, e := range entries {
		balance := e.Debit.Sub(e.Credit)

		switch Classify(e.AccountNumber) {
		case Equity:
			ind.TotalEquity = ind.TotalEquity.Sub(balance)
		case LongTermLiability:
			ind.LongTermLiabilities = ind.LongTermLiabilities.Sub(balance)
		case Payable:
			ind.CurrentLiabilities = ind.CurrentLiabilities.Sub(balance)
		case Receivable, CurrentAsset:
			ind.CurrentAssets = ind.CurrentAssets.Add(balance)
		case FixedAsset:
			ind.FixedAssets = ind.FixedAssets.Add(balance)
		case Expense:
			ind.Expense = ind.Expense.Add(balance)
		case Revenue:
			ind.Revenue = ind.Revenue.Sub(balance)
		default:
			ind.UnclassifiedCount++
		}
	}

	ind.TotalAssets = ind.FixedAssets.Add(ind.CurrentAssets)
	ind.TotalLiabilities = ind.LongTermLiabilities.Add(ind.CurrentLiabilities)
	ind.NetResult = ind.Revenue.Sub(ind.Expense)
	ind.WorkingCapital = ind.CurrentAssets.Sub(ind.CurrentLiabilities)

	ind.CurrentRatio = ratio(ind.CurrentAssets, ind.CurrentLiabilities)
	ind.DebtRatio = ratio(ind.TotalLiabilities, ind.TotalAssets)
	ind.ProfitMargin = ratio(ind.NetResult.Mul(decimal.NewFromInt(100)), ind.Revenue)

	return ind
}

// ratio returns num/den rounded to RatioPlaces, or 0 when den is 0.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, RatioPlaces)
}

// ByClass sums balances per class, in the sign convention of Compute.
func ByClass(entries []ledger.Entry) map[Class]decimal.Decimal {
	out := make(map[Class]decimal.Decimal)
	for _, e := range entries {
		c := Classify(e.AccountNumber)
		balance := e.Debit.Sub(e.Credit)
		if creditNature(c) {
			balance = balance.Neg()
		}
		out[c] = out[c].Add(balance)
	}
	return out
}

func creditNature(c Class) bool {
	switch c {
	case Equity, LongTermLiability, Payable, Revenue:
		return true
	}
	return false
}
