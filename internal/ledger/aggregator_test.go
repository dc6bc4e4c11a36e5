package ledger

import (
	"math"
	"reflect"
	"testing"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
)

func tx(flow core.FlowDirection, cents int64, cost core.CostKind, category string, date core.Date) core.LedgerTransaction {
	return core.LedgerTransaction{
		UserID:      "user-1",
		Description: "entry",
		Amount:      core.Money{Cents: cents},
		Flow:        flow,
		Cost:        cost,
		Category:    category,
		Date:        date,
	}
}

func TestSummarizeMonth(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	txs := []core.LedgerTransaction{
		tx(core.Income, 850000, "", "Salary", core.NewDate(2024, 3, 5)),
		tx(core.Expense, 220000, core.Fixed, "Housing", core.NewDate(2024, 3, 10)),
		tx(core.Expense, 45000, core.Fixed, "Utilities", core.NewDate(2024, 3, 12)),
		tx(core.Expense, 150000, core.Variable, "Groceries", core.NewDate(2024, 3, 15)),
		// Neighboring months must not leak in.
		tx(core.Expense, 99900, core.Variable, "Travel", core.NewDate(2024, 2, 29)),
		tx(core.Income, 99900, "", "Salary", core.NewDate(2024, 4, 1)),
	}

	s := Summarize(txs, march)

	if s.TotalIncome.Cents != 850000 {
		t.Errorf("TotalIncome = %d, want 850000", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 415000 {
		t.Errorf("TotalExpense = %d, want 415000", s.TotalExpense.Cents)
	}
	if s.Balance != 435000 {
		t.Errorf("Balance = %d, want 435000", s.Balance)
	}
	if s.FixedTotal.Cents != 265000 || s.VariableTotal.Cents != 150000 {
		t.Errorf("fixed/variable = %d/%d, want 265000/150000", s.FixedTotal.Cents, s.VariableTotal.Cents)
	}
	if math.Abs(s.FixedPct-63.855421686746987) > 1e-9 {
		t.Errorf("FixedPct = %v", s.FixedPct)
	}
	if math.Abs(s.FixedPct+s.VariablePct-100) > 1e-9 {
		t.Errorf("percentages do not sum to 100: %v + %v", s.FixedPct, s.VariablePct)
	}
	if s.TopCategory != "Housing" {
		t.Errorf("TopCategory = %q, want Housing", s.TopCategory)
	}
	want := []core.CategoryTotal{
		{Name: "Housing", Amount: core.Money{Cents: 220000}},
		{Name: "Groceries", Amount: core.Money{Cents: 150000}},
		{Name: "Utilities", Amount: core.Money{Cents: 45000}},
	}
	if !reflect.DeepEqual(s.ByCategory, want) {
		t.Errorf("ByCategory = %+v, want %+v", s.ByCategory, want)
	}
}

func TestSummarizeZeroExpenses(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	txs := []core.LedgerTransaction{
		tx(core.Income, 850000, "", "Salary", core.NewDate(2024, 3, 5)),
	}

	s := Summarize(txs, march)

	if s.FixedPct != 0 || s.VariablePct != 0 {
		t.Errorf("percentages with no expenses = %v/%v, want 0/0", s.FixedPct, s.VariablePct)
	}
	if math.IsNaN(s.FixedPct) || math.IsNaN(s.VariablePct) {
		t.Error("percentages must not be NaN")
	}
	if s.TopCategory != "" {
		t.Errorf("TopCategory = %q, want empty", s.TopCategory)
	}
	if s.Balance != 850000 {
		t.Errorf("Balance = %d, want 850000", s.Balance)
	}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	s := Summarize(nil, core.PeriodKey{Year: 2024, Month: 3})
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.Balance != 0 {
		t.Errorf("empty ledger summary not zero: %+v", s)
	}
	if len(s.ByCategory) != 0 {
		t.Errorf("ByCategory = %+v, want empty", s.ByCategory)
	}
}

func TestSummarizeNegativeBalance(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	s := Summarize([]core.LedgerTransaction{
		tx(core.Income, 100000, "", "Salary", core.NewDate(2024, 3, 1)),
		tx(core.Expense, 250000, core.Fixed, "Housing", core.NewDate(2024, 3, 2)),
	}, march)
	if s.Balance != -150000 {
		t.Errorf("Balance = %d, want -150000", s.Balance)
	}
}

func TestSummarizeIsPure(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	txs := []core.LedgerTransaction{
		tx(core.Income, 850000, "", "Salary", core.NewDate(2024, 3, 5)),
		tx(core.Expense, 220000, core.Fixed, "Housing", core.NewDate(2024, 3, 10)),
		tx(core.Expense, 150000, core.Variable, "Groceries", core.NewDate(2024, 3, 15)),
	}
	first := Summarize(txs, march)
	second := Summarize(txs, march)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated summarize differs:\n%+v\n%+v", first, second)
	}
}

func TestSummarizeCategoryTieBreak(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	s := Summarize([]core.LedgerTransaction{
		tx(core.Expense, 5000, core.Variable, "Zoo", core.NewDate(2024, 3, 3)),
		tx(core.Expense, 5000, core.Variable, "Books", core.NewDate(2024, 3, 4)),
	}, march)
	if s.ByCategory[0].Name != "Books" || s.ByCategory[1].Name != "Zoo" {
		t.Errorf("tie-break ordering = %+v", s.ByCategory)
	}
}

func TestMonthTotals(t *testing.T) {
	march := core.PeriodKey{Year: 2024, Month: 3}
	cur, prev := MonthTotals([]core.LedgerTransaction{
		tx(core.Expense, 100, core.Fixed, "A", core.NewDate(2024, 3, 1)),
		tx(core.Expense, 200, core.Variable, "B", core.NewDate(2024, 2, 15)),
		tx(core.Income, 999, "", "C", core.NewDate(2024, 3, 2)),
	}, march)
	if cur.Cents != 100 || prev.Cents != 200 {
		t.Errorf("MonthTotals = %d/%d, want 100/200", cur.Cents, prev.Cents)
	}
}
