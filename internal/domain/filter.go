package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPatch — частичное обновление заказа. nil-поле означает «не трогать».
type OrderPatch struct {
	UserID      *int64
	StoreID     *int64
	DealerID    *int64
	Address     *string
	Status      *OrderStatus
	TotalAmount *decimal.Decimal
}

// IsEmpty сообщает, что patch не несёт ни одного изменения.
func (p OrderPatch) IsEmpty() bool {
	return p.UserID == nil && p.StoreID == nil && p.DealerID == nil &&
		p.Address == nil && p.Status == nil && p.TotalAmount == nil
}

// OrderFilter задаёт предикат выборки заказов. Присутствующие поля
// объединяются через AND; отсутствующее (nil) поле не ограничивает выборку.
// Явная структура вместо динамической интроспекции формы объекта.
type OrderFilter struct {
	ID          *string
	UserID      *int64
	StoreID     *int64
	DealerID    *int64
	Status      *OrderStatus
	Address     *string
	TotalAmount *decimal.Decimal
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// Matches проверяет заказ на соответствие всем заданным полям фильтра.
func (f OrderFilter) Matches(o Order) bool {
	if f.ID != nil && o.ID != *f.ID {
		return false
	}
	if f.UserID != nil && o.UserID != *f.UserID {
		return false
	}
	if f.StoreID != nil && o.StoreID != *f.StoreID {
		return false
	}
	if f.DealerID != nil && o.DealerID != *f.DealerID {
		return false
	}
	if f.Status != nil && o.Status != *f.Status {
		return false
	}
	if f.Address != nil && o.Address != *f.Address {
		return false
	}
	if f.TotalAmount != nil && !o.TotalAmount.Equal(*f.TotalAmount) {
		return false
	}
	if f.CreatedAt != nil && !o.CreatedAt.Equal(*f.CreatedAt) {
		return false
	}
	if f.UpdatedAt != nil && !o.UpdatedAt.Equal(*f.UpdatedAt) {
		return false
	}
	return true
}
