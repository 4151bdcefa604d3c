// Package export renders a ledger and its indicators as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/ledgerrecon/internal/indicators"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// Sheet names.
const (
	EntriesSheet    = "Entries"
	IndicatorsSheet = "Indicators"
)

var entryHeaders = []any{
	"Date", "Account Number", "Account Name", "Description", "Reference",
	"Category", "Debit", "Credit", "Balance", "Period", "Import ID",
}

// WriteWorkbook writes entries and ind to w as an XLSX workbook with one
// sheet per view.
func WriteWorkbook(w io.Writer, entries []ledger.Entry, ind indicators.Indicators) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeEntries(f, entries); err != nil {
		return err
	}

	if _, err := f.NewSheet(IndicatorsSheet); err != nil {
		return fmt.Errorf("create %s sheet: %w", IndicatorsSheet, err)
	}
	if err := writeIndicators(f, ind, indicators.ByClass(entries)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEntries(f *excelize.File, entries []ledger.Entry) error {
	if err := f.SetSheetRow(EntriesSheet, "A1", &entryHeaders); err != nil {
		return fmt.Errorf("write entry headers: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(entryHeaders))
	if err := f.SetCellStyle(EntriesSheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("style entry headers: %w", err)
	}

	for i, e := range entries {
		date := ""
		if e.Date != nil {
			date = e.Date.Format("2006-01-02")
		}
		row := []any{
			date, e.AccountNumber, e.AccountName, e.Description, e.Reference,
			e.Category, e.Debit.InexactFloat64(), e.Credit.InexactFloat64(),
			e.Balance.InexactFloat64(), e.Period, e.ImportID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(EntriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}

	if err := f.SetPanes(EntriesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeIndicators(f *excelize.File, ind indicators.Indicators, byClass map[indicators.Class]decimal.Decimal) error {
	rows := [][]any{
		{"Indicator", "Value"},
		{"Total assets", ind.TotalAssets.InexactFloat64()},
		{"Total liabilities", ind.TotalLiabilities.InexactFloat64()},
		{"Total equity", ind.TotalEquity.InexactFloat64()},
		{"Net result", ind.NetResult.InexactFloat64()},
		{"Working capital", ind.WorkingCapital.InexactFloat64()},
		{"Current ratio", ind.CurrentRatio.InexactFloat64()},
		{"Debt ratio", ind.DebtRatio.InexactFloat64()},
		{"Profit margin (%)", ind.ProfitMargin.InexactFloat64()},
		{},
		{"Class", "Balance"},
	}
	for _, c := range []indicators.Class{
		indicators.Equity, indicators.LongTermLiability, indicators.Payable,
		indicators.Receivable, indicators.FixedAsset, indicators.CurrentAsset,
		indicators.Expense, indicators.Revenue,
	} {
		rows = append(rows, []any{c.String(), byClass[c].InexactFloat64()})
	}
	rows = append(rows, []any{"Entries", ind.EntryCount}, []any{"Unclassified entries", ind.UnclassifiedCount})

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(IndicatorsSheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write indicator row %d: %w", i, err)
		}
	}
	return nil
}
