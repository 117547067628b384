// Package report persists run artifacts: the trade ledger and trade plan as
// CSV, and raw trade events as JSON lines.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"swingbot-go/internal/engine"
	"swingbot-go/internal/plan"
)

const dateLayout = "2006-01-02"

// WriteTradeLog writes the ledger with columns {Date, Type, Price, PnL}.
// PnL is populated for EXIT rows only.
func WriteTradeLog(path string, trades []engine.Trade) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Type", "Price", "PnL"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range trades {
		pnl := ""
		if t.Type == engine.TradeExit {
			pnl = formatF(t.PnL)
		}
		if err := w.Write([]string{
			t.Date.Format(dateLayout), string(t.Type), formatF(t.Price), pnl,
		}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

// WritePlan writes the forward trade plan with columns
// {Date, Signal, Qty, EntryPrice, ExitCondition, StopLoss, Target}.
func WritePlan(path string, rows []plan.Row) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Signal", "Qty", "EntryPrice", "ExitCondition", "StopLoss", "Target"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Date.Format(dateLayout),
			string(r.Signal),
			strconv.Itoa(r.Qty),
			formatF(r.EntryPrice),
			r.ExitCondition,
			r.StopLoss,
			r.Target,
		}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return f, nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
