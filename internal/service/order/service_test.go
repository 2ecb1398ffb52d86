package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/storage/memory"
)

type publishCall struct {
	OrderID       string
	Items         []domain.OrderItem
	StoreID       int64
	UserID        int64
	Total         decimal.Decimal
	PaymentMethod string
}

// recordingPublisher запоминает публикации и может имитировать отказ брокера.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []publishCall
	fail  bool
}

func (p *recordingPublisher) PublishReserveInventory(
	orderID string,
	items []domain.OrderItem,
	storeID int64,
	userID int64,
	total decimal.Decimal,
	paymentMethod string,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		return fmt.Errorf("%w: broker unavailable", domain.ErrPublishFailed)
	}
	p.calls = append(p.calls, publishCall{
		OrderID:       orderID,
		Items:         items,
		StoreID:       storeID,
		UserID:        userID,
		Total:         total,
		PaymentMethod: paymentMethod,
	})
	return nil
}

func (p *recordingPublisher) Calls() []publishCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishCall(nil), p.calls...)
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingPublisher) {
	t.Helper()

	store := memory.NewStore()
	publisher := &recordingPublisher{}
	svc := NewServiceWithoutMetrics(
		memory.NewOrderRepository(store),
		memory.NewStatusHistoryRepository(store),
		publisher,
	)
	return svc, store, publisher
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		UserID:   7,
		StoreID:  3,
		DealerID: 5,
		Address:  "Carrera 7 #45-10",
	}
}

func twoItems() []domain.NewItemInput {
	return []domain.NewItemInput{
		{ProductID: 100, Quantity: 2, UnitPrice: decimal.NewFromFloat(10.00)},
		{ProductID: 200, Quantity: 1, UnitPrice: decimal.NewFromFloat(5.00)},
	}
}

func TestCreateOrder_ComputesTotalAndPublishes(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	require.NotEmpty(t, created.ID)
	require.Equal(t, domain.OrderStatusPendiente, created.Status)
	require.True(t, created.TotalAmount.Equal(decimal.NewFromFloat(25.00)),
		"expected total 25.00, got %s", created.TotalAmount)
	require.Len(t, created.Items, 2)
	require.True(t, created.Items[0].TotalPrice.Equal(decimal.NewFromFloat(20.00)))

	calls := publisher.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, created.ID, calls[0].OrderID)
	require.Equal(t, int64(3), calls[0].StoreID)
	require.Equal(t, int64(7), calls[0].UserID)
	require.True(t, calls[0].Total.Equal(created.TotalAmount))
	require.Equal(t, domain.PaymentMethodTarjeta, calls[0].PaymentMethod)
	require.Len(t, calls[0].Items, 2)
}

func TestCreateOrder_ValidationRejects(t *testing.T) {
	svc, _, publisher := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*CreateOrderInput)
		items   []domain.NewItemInput
		payment string
		wantErr error
	}{
		{
			name:    "missing user",
			mutate:  func(in *CreateOrderInput) { in.UserID = 0 },
			items:   twoItems(),
			payment: domain.PaymentMethodTarjeta,
			wantErr: domain.ErrUserRequired,
		},
		{
			name:    "missing address",
			mutate:  func(in *CreateOrderInput) { in.Address = "" },
			items:   twoItems(),
			payment: domain.PaymentMethodPSE,
			wantErr: domain.ErrAddressRequired,
		},
		{
			name: "address too long",
			mutate: func(in *CreateOrderInput) {
				in.Address = "Avenida de los Libertadores del Norte 12345, int 67"
			},
			items:   twoItems(),
			payment: domain.PaymentMethodPSE,
			wantErr: domain.ErrAddressTooLong,
		},
		{
			name:    "unknown status",
			mutate:  func(in *CreateOrderInput) { in.Status = "enviado" },
			items:   twoItems(),
			payment: domain.PaymentMethodTarjeta,
			wantErr: domain.ErrStatusUnknown,
		},
		{
			name:    "empty items",
			mutate:  func(in *CreateOrderInput) {},
			items:   nil,
			payment: domain.PaymentMethodTarjeta,
			wantErr: domain.ErrItemsRequired,
		},
		{
			name:    "zero quantity",
			mutate:  func(in *CreateOrderInput) {},
			items:   []domain.NewItemInput{{ProductID: 1, Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
			payment: domain.PaymentMethodTarjeta,
			wantErr: domain.ErrItemQtyInvalid,
		},
		{
			name:    "bad payment method",
			mutate:  func(in *CreateOrderInput) {},
			items:   twoItems(),
			payment: "bitcoin",
			wantErr: domain.ErrPaymentMethodInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, err := svc.CreateOrder(ctx, input, tc.items, tc.payment)
			require.ErrorIs(t, err, tc.wantErr)
			require.True(t, domain.IsValidation(err))
		})
	}

	require.Empty(t, publisher.Calls(), "validation failures must not publish")
}

func TestCreateOrder_PublishFailureKeepsOrder(t *testing.T) {
	svc, _, publisher := newTestService(t)
	publisher.fail = true
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodEfectivo)
	require.Error(t, err)
	require.True(t, domain.IsPublishFailure(err))
	require.NotEmpty(t, created.ID, "failed publish must still return the committed order")

	// Заказ остаётся в хранилище в статусе pendiente.
	stored, err := svc.GetOrderByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPendiente, stored.Status)
}

func TestCreateOrder_HonorsExplicitStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	input := validInput()
	input.Status = domain.OrderStatusAceptada

	created, err := svc.CreateOrder(ctx, input, twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusAceptada, created.Status)
}

func TestGetOrderByID_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetOrderByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateOrder_StatusChangeAppendsHistory(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	status := domain.OrderStatusAceptada
	updated, err := svc.UpdateOrder(ctx, created.ID, domain.OrderPatch{Status: &status})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusAceptada, updated.Status)

	history, err := memory.NewStatusHistoryRepository(store).ListByOrder(created.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, domain.OrderStatusAceptada, history[0].Status)
}

func TestUpdateOrder_SameStatusWritesNoHistory(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	same := domain.OrderStatusPendiente
	address := "Calle 10 #5-51"
	_, err = svc.UpdateOrder(ctx, created.ID, domain.OrderPatch{Status: &same, Address: &address})
	require.NoError(t, err)

	history, err := memory.NewStatusHistoryRepository(store).ListByOrder(created.ID)
	require.NoError(t, err)
	require.Empty(t, history, "unchanged status must not append history")
}

func TestUpdateOrder_RejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	bad := domain.OrderStatus("enviado")
	_, err = svc.UpdateOrder(ctx, created.ID, domain.OrderPatch{Status: &bad})
	require.ErrorIs(t, err, domain.ErrStatusUnknown)
}

func TestAddItems_RecomputesTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	updated, err := svc.AddItemsToOrder(ctx, created.ID, []domain.NewItemInput{
		{ProductID: 300, Quantity: 3, UnitPrice: decimal.NewFromFloat(2.50)},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 3)
	require.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(32.50)),
		"expected 32.50, got %s", updated.TotalAmount)
}

func TestRemoveItem_RecomputesTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	// Удаляем позицию на 5.00, остаётся 20.00.
	var removeID string
	for _, item := range created.Items {
		if item.ProductID == 200 {
			removeID = item.ID
		}
	}
	require.NotEmpty(t, removeID)

	updated, err := svc.RemoveItemFromOrder(ctx, created.ID, removeID)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.True(t, updated.TotalAmount.Equal(decimal.NewFromFloat(20.00)),
		"expected 20.00, got %s", updated.TotalAmount)
}

func TestRemoveItem_WrongOrderScope(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	_, err = svc.RemoveItemFromOrder(ctx, second.ID, first.Items[0].ID)
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestCancelOrder_SetsStatusAndHistory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	canceled, err := svc.CancelOrder(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelada, canceled.Status)
	require.Len(t, canceled.StatusHistory, 1)
	require.Equal(t, domain.OrderStatusCancelada, canceled.StatusHistory[0].Status)
}

func TestCancelOrder_NotFoundWritesNothing(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.CancelOrder(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	history, err := memory.NewStatusHistoryRepository(store).ListByOrder("missing")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestGetOrdersByFilter(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, validInput(), twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	other := validInput()
	other.UserID = 8
	_, err = svc.CreateOrder(ctx, other, twoItems(), domain.PaymentMethodTarjeta)
	require.NoError(t, err)

	userID := int64(7)
	orders, err := svc.GetOrdersByFilter(ctx, domain.OrderFilter{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, first.ID, orders[0].ID)

	all, err := svc.GetOrdersByFilter(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestNoopPublisherAcceptsEverything(t *testing.T) {
	publisher := NewNoopPublisher()

	err := publisher.PublishReserveInventory(
		"order-1", nil, 3, 7, decimal.Zero, domain.PaymentMethodTarjeta,
	)
	require.NoError(t, err)
}
