package memory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oerazoo/orders-service/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create сохраняет заказ вместе с позициями. Вставка атомарна по построению:
// map держит заказ и позиции одним значением.
func (r *orderRepositoryInMemory) Create(order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.orders[order.ID]; exists {
		return domain.Order{}, domain.ErrOrderExists
	}
	r.store.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// FindByID возвращает заказ с позициями и историей или ErrOrderNotFound.
func (r *orderRepositoryInMemory) FindByID(id string) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.hydrateLocked(id)
}

// Update сливает непустые поля patch и возвращает обновлённый заказ.
func (r *orderRepositoryInMemory) Update(id string, patch domain.OrderPatch) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	if patch.UserID != nil {
		order.UserID = *patch.UserID
	}
	if patch.StoreID != nil {
		order.StoreID = *patch.StoreID
	}
	if patch.DealerID != nil {
		order.DealerID = *patch.DealerID
	}
	if patch.Address != nil {
		order.Address = *patch.Address
	}
	if patch.Status != nil {
		order.Status = *patch.Status
	}
	if patch.TotalAmount != nil {
		order.TotalAmount = *patch.TotalAmount
	}
	order.UpdatedAt = time.Now().UTC()

	r.store.orders[id] = order
	return r.hydrateLocked(id)
}

// AddItems добавляет позиции к заказу без пересчёта total_amount.
func (r *orderRepositoryInMemory) AddItems(orderID string, items []domain.OrderItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for _, item := range items {
		item.OrderID = orderID
		order.Items = append(order.Items, item)
	}
	r.store.orders[orderID] = order
	return nil
}

// RemoveItem удаляет позицию, проверяя принадлежность заказу.
func (r *orderRepositoryInMemory) RemoveItem(orderID, itemID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for i, item := range order.Items {
		if item.ID == itemID {
			order.Items = append(order.Items[:i], order.Items[i+1:]...)
			r.store.orders[orderID] = order
			return nil
		}
	}
	return domain.ErrItemNotFound
}

// Cancel переводит заказ в cancelada и пишет запись истории одной операцией.
func (r *orderRepositoryInMemory) Cancel(id string) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	now := time.Now().UTC()
	order.Status = domain.OrderStatusCancelada
	order.UpdatedAt = now
	r.store.orders[id] = order
	r.store.history[id] = append(r.store.history[id], domain.OrderStatusHistory{
		ID:         uuid.NewString(),
		OrderID:    id,
		Status:     domain.OrderStatusCancelada,
		RecordedAt: now,
	})

	return r.hydrateLocked(id)
}

// FindByFilter отбирает заказы по заданным полям фильтра.
func (r *orderRepositoryInMemory) FindByFilter(filter domain.OrderFilter) ([]domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Order, 0)
	for id, order := range r.store.orders {
		if !filter.Matches(order) {
			continue
		}
		hydrated, err := r.hydrateLocked(id)
		if err != nil {
			return nil, err
		}
		result = append(result, hydrated)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// hydrateLocked собирает заказ с копией позиций и истории.
// Вызывается только под блокировкой store.mu.
func (r *orderRepositoryInMemory) hydrateLocked(id string) (domain.Order, error) {
	order, ok := r.store.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	hydrated := cloneOrder(order)
	history := r.store.history[id]
	hydrated.StatusHistory = make([]domain.OrderStatusHistory, len(history))
	copy(hydrated.StatusHistory, history)
	return hydrated, nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
