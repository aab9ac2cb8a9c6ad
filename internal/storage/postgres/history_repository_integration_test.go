package postgres

import (
	"testing"
	"time"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

func TestHistoryRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	seedCatalogForIntegrationTest(t, store)

	orders := NewOrderRepository(store)
	history := NewHistoryRepository(store)

	now := time.Now().UTC().Round(time.Microsecond)
	order, err := orders.Create(sampleOrderForIntegrationTest("order-1", "client-1", now))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	events := []domain.HistoryEvent{
		{OrderID: order.ID, Type: domain.HistoryEventOrderCreated, Detail: "order " + order.Number + " created", Occurred: now},
		{OrderID: order.ID, Type: domain.HistoryEventStatusChanged, Detail: "pending -> in_progress", Occurred: now.Add(time.Minute)},
	}
	for _, event := range events {
		if err := history.Append(event); err != nil {
			t.Fatalf("append %s: %v", event.Type, err)
		}
	}

	// Нулевое время срабатывает как "сейчас".
	if err := history.Append(domain.HistoryEvent{OrderID: order.ID, Type: domain.HistoryEventOrderUpdated}); err != nil {
		t.Fatalf("append with zero time: %v", err)
	}

	listed, err := history.List(order.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(listed))
	}
	if listed[0].Type != domain.HistoryEventOrderCreated || listed[1].Type != domain.HistoryEventStatusChanged {
		t.Fatalf("events out of order: %+v", listed)
	}
	if listed[2].Occurred.IsZero() {
		t.Fatal("expected occurred to be filled for zero-time append")
	}

	empty, err := history.List("no-such-order")
	if err != nil {
		t.Fatalf("list for unknown order: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty history, got %d", len(empty))
	}
}
