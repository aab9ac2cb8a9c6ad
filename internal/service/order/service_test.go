package order

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/rodrigofontes/vendaspro/internal/domain"
	"github.com/rodrigofontes/vendaspro/internal/storage/memory"
)

func silentLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "order-service-test")
}

func money(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse money %q: %v", value, err)
	}
	return d
}

func moneyPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d := money(t, value)
	return &d
}

type serviceFixture struct {
	service *Service
	store   *memory.Store
	history domain.HistoryRepository
	outbox  domain.OutboxRepository
}

func newServiceFixture(t *testing.T) serviceFixture {
	t.Helper()

	store := memory.NewStore()
	clients := memory.NewClientRepository(store)
	products := memory.NewProductRepository(store)
	history := memory.NewHistoryRepository()
	outbox := memory.NewOutboxRepository()

	now := time.Now().UTC()
	for _, c := range []domain.Client{
		{ID: "client-1", Name: "Ana Souza", Email: "ana@example.com", CreatedAt: now, UpdatedAt: now},
		{ID: "client-2", Name: "Bruno Lima", Email: "bruno@example.com", CreatedAt: now, UpdatedAt: now},
	} {
		if err := clients.Create(c); err != nil {
			t.Fatalf("seed client %s: %v", c.ID, err)
		}
	}
	for _, p := range []domain.Product{
		{ID: "product-1", Name: "Notebook Sleeve", Price: decimal.RequireFromString("10.00"), Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: "product-2", Name: "USB Cable", Price: decimal.RequireFromString("5.00"), Active: true, CreatedAt: now, UpdatedAt: now},
	} {
		if err := products.Create(p); err != nil {
			t.Fatalf("seed product %s: %v", p.ID, err)
		}
	}

	service := NewServiceWithoutMetrics(
		memory.NewOrderRepository(store),
		clients,
		products,
		history,
		outbox,
		silentLogger(),
	)

	return serviceFixture{service: service, store: store, history: history, outbox: outbox}
}

func validCreateInput(t *testing.T) CreateInput {
	t.Helper()
	return CreateInput{
		ClientID: "client-1",
		Address: domain.Address{
			PostalCode: "01310-100",
			City:       "Sao Paulo",
			State:      "SP",
			Street:     "Avenida Paulista",
			Number:     "1578",
		},
		ShippingMethod: domain.ShippingStandardMail,
		ShippingCost:   money(t, "3.00"),
		Items: []ItemSpec{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "product-2", Quantity: 1},
		},
	}
}

func TestServiceCreate_SnapshotsPricesAndAssignsNumber(t *testing.T) {
	fx := newServiceFixture(t)

	created, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if created.Number != "#00001" {
		t.Fatalf("unexpected number: %s", created.Number)
	}
	if created.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected status: %s", created.Status)
	}
	if !created.Subtotal.Equal(money(t, "25.00")) {
		t.Fatalf("unexpected subtotal: %s", created.Subtotal)
	}
	if !created.Total.Equal(money(t, "28.00")) {
		t.Fatalf("unexpected total: %s", created.Total)
	}
	if len(created.Items) != 2 {
		t.Fatalf("unexpected item count: %d", len(created.Items))
	}
	if !created.Items[0].UnitPrice.Equal(money(t, "10.00")) {
		t.Fatalf("price not snapshotted from catalog: %s", created.Items[0].UnitPrice)
	}

	second, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Number != "#00002" {
		t.Fatalf("numbers must be sequential, got %s", second.Number)
	}

	events, err := fx.history.List(created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(events) != 1 || events[0].Type != domain.HistoryEventOrderCreated {
		t.Fatalf("unexpected history: %+v", events)
	}

	pending, err := fx.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull outbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 outbox events, got %d", len(pending))
	}
	if pending[0].EventType != "order.created" {
		t.Fatalf("unexpected outbox event: %s", pending[0].EventType)
	}
}

func TestServiceCreate_ExplicitPriceOverridesCatalog(t *testing.T) {
	fx := newServiceFixture(t)

	input := validCreateInput(t)
	input.Items = []ItemSpec{{ProductID: "product-1", Quantity: 1, UnitPrice: moneyPtr(t, "8.50")}}

	created, err := fx.service.Create(input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Items[0].UnitPrice.Equal(money(t, "8.50")) {
		t.Fatalf("explicit price lost: %s", created.Items[0].UnitPrice)
	}
	if !created.Subtotal.Equal(money(t, "8.50")) {
		t.Fatalf("unexpected subtotal: %s", created.Subtotal)
	}
}

func TestServiceCreate_ValidationErrors(t *testing.T) {
	fx := newServiceFixture(t)

	cases := []struct {
		name    string
		mutate  func(*CreateInput)
		wantErr error
	}{
		{
			name:    "missing client",
			mutate:  func(in *CreateInput) { in.ClientID = "" },
			wantErr: domain.ErrClientRequired,
		},
		{
			name:    "unknown client",
			mutate:  func(in *CreateInput) { in.ClientID = "client-x" },
			wantErr: domain.ErrClientNotFound,
		},
		{
			name:    "no items",
			mutate:  func(in *CreateInput) { in.Items = nil },
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name:    "unknown product",
			mutate:  func(in *CreateInput) { in.Items[0].ProductID = "product-x" },
			wantErr: domain.ErrProductNotFound,
		},
		{
			name:    "zero quantity",
			mutate:  func(in *CreateInput) { in.Items[0].Quantity = 0 },
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "price below minimum",
			mutate:  func(in *CreateInput) { in.Items[0].UnitPrice = moneyPtr(t, "0.00") },
			wantErr: domain.ErrInvalidPrice,
		},
		{
			name: "duplicate product",
			mutate: func(in *CreateInput) {
				in.Items = []ItemSpec{
					{ProductID: "product-1", Quantity: 1},
					{ProductID: "product-1", Quantity: 2},
				}
			},
			wantErr: domain.ErrDuplicateProduct,
		},
		{
			name: "incomplete address",
			mutate: func(in *CreateInput) {
				in.Address.City = ""
			},
			wantErr: domain.ErrAddressIncomplete,
		},
		{
			name: "unknown shipping method",
			mutate: func(in *CreateInput) {
				in.ShippingMethod = domain.ShippingMethod("drone")
			},
			wantErr: domain.ErrInvalidShippingMethod,
		},
		{
			name: "negative shipping cost",
			mutate: func(in *CreateInput) {
				in.ShippingCost = money(t, "-1.00")
			},
			wantErr: domain.ErrInvalidShipping,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput(t)
			tc.mutate(&input)

			_, err := fx.service.Create(input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestServiceCreate_ConcurrentNumbersAreDistinct(t *testing.T) {
	fx := newServiceFixture(t)

	const workers = 20
	var wg sync.WaitGroup
	numbers := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := fx.service.Create(validCreateInput(t))
			if err != nil {
				t.Errorf("concurrent create: %v", err)
				return
			}
			numbers <- created.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate order number: %s", number)
		}
		seen[number] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct numbers, got %d", workers, len(seen))
	}
}

func TestServiceUpdate_ReplacesItemsAndKeepsNumber(t *testing.T) {
	fx := newServiceFixture(t)

	created, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := fx.service.Update(created.ID, UpdateInput{
		ShippingCost: moneyPtr(t, "5.00"),
		Items: []ItemSpec{
			{ProductID: "product-2", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Number != created.Number {
		t.Fatalf("number changed on update: %s vs %s", updated.Number, created.Number)
	}
	if len(updated.Items) != 1 || updated.Items[0].ProductID != "product-2" {
		t.Fatalf("items not replaced: %+v", updated.Items)
	}
	if !updated.Subtotal.Equal(money(t, "15.00")) || !updated.Total.Equal(money(t, "20.00")) {
		t.Fatalf("totals not recalculated: subtotal=%s total=%s", updated.Subtotal, updated.Total)
	}
	if updated.Version != created.Version+1 {
		t.Fatalf("version not bumped: %d", updated.Version)
	}

	// Позиции не передали — набор остаётся прежним.
	touched, err := fx.service.Update(created.ID, UpdateInput{ShippingCost: moneyPtr(t, "0.00")})
	if err != nil {
		t.Fatalf("update without items: %v", err)
	}
	if len(touched.Items) != 1 {
		t.Fatalf("items must be kept when not provided: %+v", touched.Items)
	}
	if !touched.Total.Equal(money(t, "15.00")) {
		t.Fatalf("unexpected total after free shipping: %s", touched.Total)
	}
}

func TestServiceUpdate_Errors(t *testing.T) {
	fx := newServiceFixture(t)

	if _, err := fx.service.Update("no-such-order", UpdateInput{}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	created, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.service.Update(created.ID, UpdateInput{Items: []ItemSpec{}}); !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("expected empty order on items wipe, got %v", err)
	}

	unknownClient := "client-x"
	if _, err := fx.service.Update(created.ID, UpdateInput{ClientID: &unknownClient}); !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected client not found, got %v", err)
	}

	if _, err := fx.service.ChangeStatus(created.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if _, err := fx.service.Update(created.ID, UpdateInput{ShippingCost: moneyPtr(t, "1.00")}); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected invalid status for terminal order, got %v", err)
	}
}

func TestServiceChangeStatus_Transitions(t *testing.T) {
	fx := newServiceFixture(t)

	created, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inProgress, err := fx.service.ChangeStatus(created.ID, domain.OrderStatusInProgress)
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if inProgress.Status != domain.OrderStatusInProgress {
		t.Fatalf("unexpected status: %s", inProgress.Status)
	}

	finalized, err := fx.service.ChangeStatus(created.ID, domain.OrderStatusFinalized)
	if err != nil {
		t.Fatalf("to finalized: %v", err)
	}
	if finalized.Status != domain.OrderStatusFinalized {
		t.Fatalf("unexpected status: %s", finalized.Status)
	}

	if _, err := fx.service.ChangeStatus(created.ID, domain.OrderStatusPending); !errors.Is(err, domain.ErrInvalidStatusTransition) {
		t.Fatalf("expected forbidden transition, got %v", err)
	}

	if _, err := fx.service.ChangeStatus("no-such-order", domain.OrderStatusCancelled); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	events, err := fx.service.History(created.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	statusEvents := 0
	for _, event := range events {
		if event.Type == domain.HistoryEventStatusChanged {
			statusEvents++
		}
	}
	if statusEvents != 2 {
		t.Fatalf("expected 2 status events, got %d", statusEvents)
	}
}

func TestServiceClientStats(t *testing.T) {
	fx := newServiceFixture(t)

	stats, err := fx.service.ClientStats("client-1")
	if err != nil {
		t.Fatalf("stats without orders: %v", err)
	}
	if stats.OrderCount != 0 || !stats.TotalSpent.IsZero() {
		t.Fatalf("expected zero stats, got %+v", stats)
	}

	if _, err := fx.service.Create(validCreateInput(t)); err != nil {
		t.Fatalf("create first: %v", err)
	}
	input := validCreateInput(t)
	input.Items = []ItemSpec{{ProductID: "product-1", Quantity: 1}}
	if _, err := fx.service.Create(input); err != nil {
		t.Fatalf("create second: %v", err)
	}

	stats, err = fx.service.ClientStats("client-1")
	if err != nil {
		t.Fatalf("stats with orders: %v", err)
	}
	if stats.OrderCount != 2 {
		t.Fatalf("unexpected order count: %d", stats.OrderCount)
	}
	if !stats.TotalSpent.Equal(money(t, "41.00")) {
		t.Fatalf("unexpected total spent: %s", stats.TotalSpent)
	}

	if _, err := fx.service.ClientStats("client-x"); !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected client not found, got %v", err)
	}
}

func TestServiceGetAndList(t *testing.T) {
	fx := newServiceFixture(t)

	created, err := fx.service.Create(validCreateInput(t))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	input := validCreateInput(t)
	input.ClientID = "client-2"
	other, err := fx.service.Create(input)
	if err != nil {
		t.Fatalf("create for client-2: %v", err)
	}

	got, err := fx.service.Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Number != created.Number {
		t.Fatalf("unexpected order: %+v", got)
	}

	byName, err := fx.service.List(domain.OrderFilter{ClientNameContains: "bruno"})
	if err != nil {
		t.Fatalf("list by client name: %v", err)
	}
	if len(byName) != 1 || byName[0].ID != other.ID {
		t.Fatalf("unexpected filtered list: %+v", byName)
	}

	all, err := fx.service.List(domain.OrderFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}
}
