// Package ledger computes derived views over ledger transactions.
//
// Everything here is a pure function of its inputs: no storage access, no
// clock reads. The HTTP layer recomputes summaries on every request.
package ledger

import (
	"sort"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

// Summarize aggregates the transactions falling inside the given calendar
// month into a PeriodSummary. Transactions outside the period are ignored;
// the caller may pass the full ledger.
//
// Percentages are of total expense and are 0 when the month has no expenses.
func Summarize(txs []core.LedgerTransaction, period core.PeriodKey) core.PeriodSummary {
	s := core.PeriodSummary{Period: period}
	byCategory := make(map[string]int64)

	for _, tx := range txs {
		if !period.Contains(tx.Date) {
			continue
		}
		switch tx.Flow {
		case core.Income:
			s.TotalIncome.Cents += tx.Amount.Cents
		case core.Expense:
			s.TotalExpense.Cents += tx.Amount.Cents
			byCategory[tx.Category] += tx.Amount.Cents
			switch tx.Cost {
			case core.Fixed:
				s.FixedTotal.Cents += tx.Amount.Cents
			case core.Variable:
				s.VariableTotal.Cents += tx.Amount.Cents
			}
		}
	}

	s.Balance = s.TotalIncome.Cents - s.TotalExpense.Cents

	if s.TotalExpense.Cents > 0 {
		s.FixedPct = float64(s.FixedTotal.Cents) / float64(s.TotalExpense.Cents) * 100
		s.VariablePct = float64(s.VariableTotal.Cents) / float64(s.TotalExpense.Cents) * 100
	}

	s.ByCategory = sortedCategories(byCategory)
	if len(s.ByCategory) > 0 {
		s.TopCategory = s.ByCategory[0].Name
	}

	return s
}

// MonthTotals returns the expense totals for a month and the month before
// it, for trend displays.
func MonthTotals(txs []core.LedgerTransaction, period core.PeriodKey) (current, previous core.Money) {
	prev := period.Previous()
	for _, tx := range txs {
		if tx.Flow != core.Expense {
			continue
		}
		switch {
		case period.Contains(tx.Date):
			current.Cents += tx.Amount.Cents
		case prev.Contains(tx.Date):
			previous.Cents += tx.Amount.Cents
		}
	}
	return current, previous
}

// sortedCategories orders totals descending by amount, with name as the
// tie-breaker so equal sums produce a stable ordering.
func sortedCategories(totals map[string]int64) []core.CategoryTotal {
	if len(totals) == 0 {
		return nil
	}
	out := make([]core.CategoryTotal, 0, len(totals))
	for name, cents := range totals {
		out = append(out, core.CategoryTotal{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
