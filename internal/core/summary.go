package core

// CategoryTotal is an expense total aggregated by category name.
type CategoryTotal struct {
	Name   string
	Amount Money
}

// PeriodSummary is the derived view of one calendar month. It is recomputed
// from the transaction list on every read and never persisted.
type PeriodSummary struct {
	Period PeriodKey

	TotalIncome  Money
	TotalExpense Money
	// Balance is income minus expense in cents; the one signed amount.
	Balance int64

	FixedTotal    Money
	VariableTotal Money
	// Percentages of total expense. Both are 0 when the month has no expenses.
	FixedPct    float64
	VariablePct float64

	// ByCategory holds expense totals sorted descending by amount.
	ByCategory []CategoryTotal
	// TopCategory is ByCategory[0].Name, or "" when the month has no expenses.
	TopCategory string
}
