package memory

import (
	"time"

	"github.com/oerazoo/orders-service/internal/domain"
)

// historyRepositoryInMemory хранит журнал статусов в памяти.
type historyRepositoryInMemory struct {
	store *Store
}

// NewStatusHistoryRepository создаёт in-memory реализацию StatusHistoryRepository.
func NewStatusHistoryRepository(store *Store) domain.StatusHistoryRepository {
	return &historyRepositoryInMemory{store: store}
}

// Append добавляет запись в журнал. Журнал append-only: записи не
// изменяются и не удаляются.
func (r *historyRepositoryInMemory) Append(entry domain.OrderStatusHistory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	r.store.history[entry.OrderID] = append(r.store.history[entry.OrderID], entry)
	return nil
}

// ListByOrder возвращает записи заказа в порядке добавления.
func (r *historyRepositoryInMemory) ListByOrder(orderID string) ([]domain.OrderStatusHistory, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := r.store.history[orderID]
	result := make([]domain.OrderStatusHistory, len(entries))
	copy(result, entries)
	return result, nil
}

var _ domain.StatusHistoryRepository = (*historyRepositoryInMemory)(nil)
