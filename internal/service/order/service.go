package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/metrics"
)

// Service реализует жизненный цикл заказа: создание с запуском саги
// резервирования, чтение, частичное обновление, работа с позициями и
// отмена.
type Service struct {
	orders    domain.OrderRepository
	history   domain.StatusHistoryRepository
	publisher domain.SagaPublisher
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
}

// NewService создает сервис заказов со всеми зависимостями.
func NewService(
	orders domain.OrderRepository,
	history domain.StatusHistoryRepository,
	publisher domain.SagaPublisher,
	orderMetrics *metrics.OrderMetrics,
) *Service {
	return &Service{
		orders:    orders,
		history:   history,
		publisher: publisher,
		metrics:   orderMetrics,
		logger:    log.WithField("component", "order-service"),
	}
}

// NewServiceWithoutMetrics — вариант для тестов и инструментов,
// которым не нужен реестр Prometheus.
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	history domain.StatusHistoryRepository,
	publisher domain.SagaPublisher,
) *Service {
	return NewService(orders, history, publisher, nil)
}

// CreateOrderInput — данные заказа без позиций и способа оплаты.
type CreateOrderInput struct {
	UserID   int64
	StoreID  int64
	DealerID int64
	Address  string
	Status   domain.OrderStatus
}

// CreateOrder создает заказ и запускает сагу резервирования запасов.
//
// Порядок строгий: сначала заказ фиксируется в хранилище, затем
// публикуется reserve_inventory. Если публикация не удалась, заказ
// остаётся в pendiente, а ошибка возвращается вместе с созданным
// заказом — вызывающий решает, что делать дальше.
func (s *Service) CreateOrder(
	ctx context.Context,
	input CreateOrderInput,
	items []domain.NewItemInput,
	paymentMethod string,
) (domain.Order, error) {
	defer s.observe("create_order", time.Now())

	if !domain.IsValidPaymentMethod(paymentMethod) {
		return domain.Order{}, domain.ErrPaymentMethodInvalid
	}
	if err := domain.ValidateNewItems(items); err != nil {
		return domain.Order{}, err
	}

	status := input.Status
	if status == "" {
		status = domain.OrderStatusPendiente
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		StoreID:   input.StoreID,
		DealerID:  input.DealerID,
		Address:   input.Address,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.Items = buildItems(order.ID, items, now)
	order.TotalAmount = domain.ItemsTotal(order.Items)

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	created, err := s.orders.Create(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	s.recordOrderCreated()

	s.logger.WithFields(log.Fields{
		"order_id": created.ID,
		"user_id":  created.UserID,
		"total":    created.TotalAmount.String(),
	}).Info("order created")

	if err := s.publishReserveInventory(created, paymentMethod); err != nil {
		// Заказ уже сохранён; его возвращаем вместе с ошибкой.
		return created, err
	}

	return created, nil
}

func (s *Service) publishReserveInventory(order domain.Order, paymentMethod string) error {
	s.recordPublishStarted()
	defer s.recordPublishFinished()

	err := s.publisher.PublishReserveInventory(
		order.ID, order.Items, order.StoreID, order.UserID, order.TotalAmount, paymentMethod,
	)
	if err != nil {
		s.recordPublishFailure()
		s.logger.WithError(err).WithField("order_id", order.ID).
			Error("reserve_inventory publish failed, order stays pendiente")
		if !domain.IsPublishFailure(err) {
			err = fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
		}
		return err
	}

	return nil
}

// GetOrderByID возвращает заказ с позициями и историей статусов.
func (s *Service) GetOrderByID(ctx context.Context, id string) (domain.Order, error) {
	defer s.observe("get_order", time.Now())

	return s.orders.FindByID(id)
}

// GetOrdersByFilter возвращает заказы, удовлетворяющие всем заданным
// полям фильтра. Пустой фильтр означает «все заказы».
func (s *Service) GetOrdersByFilter(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	defer s.observe("filter_orders", time.Now())

	return s.orders.FindByFilter(filter)
}

// UpdateOrder частично обновляет заказ. Если patch меняет статус,
// после обновления в журнал дописывается запись истории.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error) {
	defer s.observe("update_order", time.Now())

	if patch.Status != nil && !patch.Status.IsValid() {
		return domain.Order{}, domain.ErrStatusUnknown
	}
	if patch.Address != nil {
		if err := domain.ValidateAddress(*patch.Address); err != nil {
			return domain.Order{}, err
		}
	}
	if patch.TotalAmount != nil && patch.TotalAmount.IsNegative() {
		return domain.Order{}, domain.ErrAmountNegative
	}

	previous, err := s.orders.FindByID(id)
	if err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.Update(id, patch)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	if patch.Status != nil && *patch.Status != previous.Status {
		if err := s.appendHistory(id, *patch.Status); err != nil {
			return domain.Order{}, err
		}
		s.recordStatusChange()
	}

	return updated, nil
}

// AddItemsToOrder добавляет позиции и пересчитывает total_amount по
// фактическому состоянию заказа.
func (s *Service) AddItemsToOrder(ctx context.Context, orderID string, items []domain.NewItemInput) (domain.Order, error) {
	defer s.observe("add_items", time.Now())

	if err := domain.ValidateNewItems(items); err != nil {
		return domain.Order{}, err
	}

	if err := s.orders.AddItems(orderID, buildItems(orderID, items, time.Now().UTC())); err != nil {
		return domain.Order{}, err
	}

	return s.recalculateTotal(orderID)
}

// RemoveItemFromOrder удаляет позицию заказа и пересчитывает total_amount.
func (s *Service) RemoveItemFromOrder(ctx context.Context, orderID, itemID string) (domain.Order, error) {
	defer s.observe("remove_item", time.Now())

	if err := s.orders.RemoveItem(orderID, itemID); err != nil {
		return domain.Order{}, err
	}

	return s.recalculateTotal(orderID)
}

// CancelOrder переводит заказ в cancelada и фиксирует переход в истории.
func (s *Service) CancelOrder(ctx context.Context, id string) (domain.Order, error) {
	defer s.observe("cancel_order", time.Now())

	canceled, err := s.orders.Cancel(id)
	if err != nil {
		return domain.Order{}, err
	}
	s.recordOrderCanceled()

	s.logger.WithField("order_id", id).Info("order canceled")

	return canceled, nil
}

// recalculateTotal перечитывает заказ, пересчитывает сумму по текущим
// позициям и возвращает заказ после обновления.
func (s *Service) recalculateTotal(orderID string) (domain.Order, error) {
	current, err := s.orders.FindByID(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	total := domain.ItemsTotal(current.Items)
	updated, err := s.orders.Update(orderID, domain.OrderPatch{TotalAmount: &total})
	if err != nil {
		return domain.Order{}, fmt.Errorf("recalculate total: %w", err)
	}

	return updated, nil
}

func (s *Service) appendHistory(orderID string, status domain.OrderStatus) error {
	entry := domain.OrderStatusHistory{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Status:     status,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.history.Append(entry); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func buildItems(orderID string, inputs []domain.NewItemInput, now time.Time) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		items = append(items, domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			UnitPrice:  input.UnitPrice,
			TotalPrice: input.UnitPrice.Mul(decimal.NewFromInt32(input.Quantity)),
			CreatedAt:  now,
		})
	}
	return items
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOperationDuration(operation, time.Since(start))
	}
}

func (s *Service) recordOrderCreated() {
	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
}

func (s *Service) recordOrderCanceled() {
	if s.metrics != nil {
		s.metrics.RecordOrderCanceled()
	}
}

func (s *Service) recordStatusChange() {
	if s.metrics != nil {
		s.metrics.RecordStatusChange()
	}
}

func (s *Service) recordPublishStarted() {
	if s.metrics != nil {
		s.metrics.RecordPublishStarted()
	}
}

func (s *Service) recordPublishFinished() {
	if s.metrics != nil {
		s.metrics.RecordPublishFinished()
	}
}

func (s *Service) recordPublishFailure() {
	if s.metrics != nil {
		s.metrics.RecordPublishFailure()
	}
}
