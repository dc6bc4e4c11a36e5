package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

const testUser = "user-1"

func importStatement(t *testing.T, store *storage.MemoryStore, csv string) Result {
	t.Helper()
	result, err := NewImporter(store).Import(context.Background(), testUser, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return result
}

func allTransactions(t *testing.T, store *storage.MemoryStore) []core.LedgerTransaction {
	t.Helper()
	from, to := (core.PeriodKey{Year: 2024, Month: 3}).Bounds()
	txs, err := store.ListTransactions(context.Background(), testUser, from, to)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	return txs
}

func TestImportStatement(t *testing.T) {
	store := storage.NewMemoryStore()
	statement := `date,description,amount,category
2024-03-01,Salary,8500.00,Salary
2024-03-05,Groceries,-123.45,Groceries
2024-03-10,Rent,-2200,Housing
`
	result := importStatement(t, store, statement)
	if result.Imported != 3 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want 3 imported", result)
	}

	txs := allTransactions(t, store)
	if len(txs) != 3 {
		t.Fatalf("stored %d transactions, want 3", len(txs))
	}

	byDesc := map[string]core.LedgerTransaction{}
	for _, tx := range txs {
		byDesc[tx.Description] = tx
	}

	salary := byDesc["Salary"]
	if salary.Flow != core.Income || salary.Amount.Cents != 850000 {
		t.Errorf("salary = %+v", salary)
	}
	if salary.Cost != "" {
		t.Errorf("income carries cost kind %q", salary.Cost)
	}

	groceries := byDesc["Groceries"]
	if groceries.Flow != core.Expense || groceries.Cost != core.Variable || groceries.Amount.Cents != 12345 {
		t.Errorf("groceries = %+v", groceries)
	}

	rent := byDesc["Rent"]
	if rent.Amount.Cents != 220000 {
		t.Errorf("rent amount = %d, want 220000", rent.Amount.Cents)
	}
}

func TestImportCostKindColumn(t *testing.T) {
	store := storage.NewMemoryStore()
	statement := `date,description,amount,category,cost_kind
2024-03-10,Rent,-2200.00,Housing,fixed
2024-03-12,Dinner,-45.00,Eating out,
`
	result := importStatement(t, store, statement)
	if result.Imported != 2 {
		t.Fatalf("result = %+v", result)
	}

	for _, tx := range allTransactions(t, store) {
		switch tx.Description {
		case "Rent":
			if tx.Cost != core.Fixed {
				t.Errorf("rent cost = %q, want fixed", tx.Cost)
			}
		case "Dinner":
			if tx.Cost != core.Variable {
				t.Errorf("dinner cost = %q, want variable", tx.Cost)
			}
		}
	}
}

func TestImportDecimalComma(t *testing.T) {
	store := storage.NewMemoryStore()
	statement := "date,description,amount,category\n2024-03-05,Groceries,\"-123,45\",Groceries\n"
	result := importStatement(t, store, statement)
	if result.Imported != 1 {
		t.Fatalf("result = %+v", result)
	}
	txs := allTransactions(t, store)
	if txs[0].Amount.Cents != 12345 {
		t.Errorf("cents = %d, want 12345", txs[0].Amount.Cents)
	}
}

func TestImportSkipsBadLines(t *testing.T) {
	store := storage.NewMemoryStore()
	statement := `date,description,amount,category
2024-03-01,Salary,8500.00,Salary
not-a-date,Mystery,10.00,Misc
2024-03-02,Free lunch,0,Food
2024-03-03,,12.00,Misc
`
	result := importStatement(t, store, statement)
	if result.Imported != 1 || result.Skipped != 3 {
		t.Fatalf("result = %+v, want 1 imported / 3 skipped", result)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if result.Errors[0].Line != 3 {
		t.Errorf("first error line = %d, want 3", result.Errors[0].Line)
	}
}

func TestImportRejectsBadHeader(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := NewImporter(store).Import(context.Background(), testUser,
		strings.NewReader("when,what,how_much\n"))
	if err == nil {
		t.Fatal("expected header error")
	}
}

func TestParseAmountRounding(t *testing.T) {
	tests := []struct {
		in       string
		cents    int64
		negative bool
	}{
		{"10.005", 1001, false},
		{"-10.004", 1000, true},
		{"0.01", 1, false},
		{"1234", 123400, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cents, negative, err := parseAmount(tt.in)
			if err != nil {
				t.Fatalf("parseAmount(%q): %v", tt.in, err)
			}
			if cents != tt.cents || negative != tt.negative {
				t.Errorf("parseAmount(%q) = %d, %v; want %d, %v", tt.in, cents, negative, tt.cents, tt.negative)
			}
		})
	}
}
