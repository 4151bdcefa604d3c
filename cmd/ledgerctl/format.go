package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/indicators"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// formatAmount renders amount in the display format of the currency.
// Unknown codes fall back to a plain two-decimal number.
func formatAmount(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

// formatOptional is formatAmount with zero shown as blank.
func formatOptional(amount decimal.Decimal, code string) string {
	if amount.IsZero() {
		return ""
	}
	return formatAmount(amount, code)
}

// describeError prefers the support-code message over the raw error.
func describeError(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}

func printResult(w io.Writer, name string, res *core.ImportResult) {
	fmt.Fprintf(w, "%s: %d imported, %d duplicates skipped, %d invalid rows\n",
		name, res.ImportedCount, res.SkippedDuplicateCount, res.InvalidRowCount)
	if res.ClearedCount > 0 {
		fmt.Fprintf(w, "  cleared %d existing entries\n", res.ClearedCount)
	}
	if res.PositionalColumns {
		fmt.Fprintln(w, "  no header recognized; columns mapped by position")
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "  note: %s\n", d)
	}
	for _, row := range res.InvalidRows {
		fmt.Fprintf(w, "  line %d: %s\n", row.Line, strings.Join(row.Errors, "; "))
	}
	if res.Degraded {
		fmt.Fprintln(w, "  warning: storage unavailable, entries were not saved")
	}
}

func printEntries(w io.Writer, entries []ledger.Entry, code string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tAccount\tLabel\tDebit\tCredit\tBalance\t")
	for _, e := range entries {
		date := ""
		if e.Date != nil {
			date = e.Date.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			date,
			e.AccountNumber,
			e.Label(),
			formatOptional(e.Debit, code),
			formatOptional(e.Credit, code),
			formatAmount(e.Balance, code),
		)
	}
	return tw.Flush()
}

func printIndicators(w io.Writer, ind indicators.Indicators, code string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Total assets", formatAmount(ind.TotalAssets, code)},
		{"Fixed assets", formatAmount(ind.FixedAssets, code)},
		{"Current assets", formatAmount(ind.CurrentAssets, code)},
		{"Total liabilities", formatAmount(ind.TotalLiabilities, code)},
		{"Long-term liabilities", formatAmount(ind.LongTermLiabilities, code)},
		{"Current liabilities", formatAmount(ind.CurrentLiabilities, code)},
		{"Equity", formatAmount(ind.TotalEquity, code)},
		{"Revenue", formatAmount(ind.Revenue, code)},
		{"Expense", formatAmount(ind.Expense, code)},
		{"Net result", formatAmount(ind.NetResult, code)},
		{"Working capital", formatAmount(ind.WorkingCapital, code)},
		{"Current ratio", ind.CurrentRatio.StringFixed(indicators.RatioPlaces)},
		{"Debt ratio", ind.DebtRatio.StringFixed(indicators.RatioPlaces)},
		{"Profit margin", ind.ProfitMargin.StringFixed(2) + "%"},
		{"Entries", fmt.Sprint(ind.EntryCount)},
		{"Unclassified", fmt.Sprint(ind.UnclassifiedCount)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value)
	}
	return tw.Flush()
}
