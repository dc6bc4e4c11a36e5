package services

import (
	"context"
	"errors"
	"testing"

	"github.com/LuizHUlmi/life-planner-sub000/internal/core"
	"github.com/LuizHUlmi/life-planner-sub000/internal/storage"
)

type fakePublisher struct {
	synced  []string
	deleted []string
	fail    bool
}

func (f *fakePublisher) PublishTransactionSync(ctx context.Context, id string) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.synced = append(f.synced, id)
	return nil
}

func (f *fakePublisher) PublishTransactionDelete(ctx context.Context, id string) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func groceryTransaction() core.LedgerTransaction {
	return core.LedgerTransaction{
		UserID:      testUser,
		Description: "Groceries",
		Amount:      core.Money{Cents: 4500},
		Flow:        core.Expense,
		Cost:        core.Variable,
		Category:    "Groceries",
		Date:        core.NewDate(2024, 3, 12),
	}
}

func TestLedgerServiceCreatePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewLedgerService(storage.NewMemoryStore(), pub)

	id, err := svc.CreateTransaction(ctx, groceryTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if len(pub.synced) != 1 || pub.synced[0] != id {
		t.Fatalf("sync publishes = %v, want [%s]", pub.synced, id)
	}
}

func TestLedgerServiceCreateSurvivesBrokerOutage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewLedgerService(store, &fakePublisher{fail: true})

	id, err := svc.CreateTransaction(ctx, groceryTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction should not fail on publish error: %v", err)
	}
	if _, err := store.GetTransaction(ctx, id); err != nil {
		t.Fatalf("transaction missing after broker outage: %v", err)
	}
}

func TestLedgerServiceCreateNilPublisher(t *testing.T) {
	svc := NewLedgerService(storage.NewMemoryStore(), nil)
	if _, err := svc.CreateTransaction(context.Background(), groceryTransaction()); err != nil {
		t.Fatalf("CreateTransaction with nil publisher: %v", err)
	}
}

func TestLedgerServiceCreateRejectsInvalid(t *testing.T) {
	svc := NewLedgerService(storage.NewMemoryStore(), nil)
	bad := groceryTransaction()
	bad.Amount = core.Money{}
	if _, err := svc.CreateTransaction(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerServiceDeletePublishes(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	store := storage.NewMemoryStore()
	svc := NewLedgerService(store, pub)

	id, err := svc.CreateTransaction(ctx, groceryTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != id {
		t.Fatalf("delete publishes = %v, want [%s]", pub.deleted, id)
	}
	if err := svc.DeleteTransaction(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("double delete = %v, want ErrNotFound", err)
	}
}

func TestLedgerServiceListMonth(t *testing.T) {
	ctx := context.Background()
	svc := NewLedgerService(storage.NewMemoryStore(), nil)

	inMonth := groceryTransaction()
	outOfMonth := groceryTransaction()
	outOfMonth.Date = core.NewDate(2024, 4, 1)
	if _, err := svc.CreateTransaction(ctx, inMonth); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTransaction(ctx, outOfMonth); err != nil {
		t.Fatal(err)
	}

	txs, err := svc.ListMonth(ctx, testUser, core.PeriodKey{Year: 2024, Month: 3})
	if err != nil || len(txs) != 1 {
		t.Fatalf("ListMonth = %v, %v; want exactly the March entry", txs, err)
	}
}
