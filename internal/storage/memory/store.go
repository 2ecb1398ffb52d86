package memory

import (
	"sync"

	"github.com/oerazoo/orders-service/internal/domain"
)

// Store — общее in-memory хранилище заказов и истории статусов
// для локальной разработки и тестов. Репозитории делят одно хранилище,
// чтобы гидрация истории в FindByID работала так же, как в PostgreSQL.
type Store struct {
	mu      sync.RWMutex
	orders  map[string]domain.Order
	history map[string][]domain.OrderStatusHistory
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		orders:  make(map[string]domain.Order),
		history: make(map[string][]domain.OrderStatusHistory),
	}
}

// cloneOrder делает глубокую копию, чтобы избежать непредсказуемых мутаций извне.
func cloneOrder(o domain.Order) domain.Order {
	copied := o
	copied.Items = make([]domain.OrderItem, len(o.Items))
	copy(copied.Items, o.Items)
	copied.StatusHistory = make([]domain.OrderStatusHistory, len(o.StatusHistory))
	copy(copied.StatusHistory, o.StatusHistory)
	return copied
}
