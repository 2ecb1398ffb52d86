package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа. Значения приходят из
// общего контракта платформы и поэтому остаются на испанском.
type OrderStatus string

const (
	// OrderStatusPendiente — заказ создан, резервирование и оплата ещё не выполнены.
	OrderStatusPendiente OrderStatus = "pendiente"
	// OrderStatusListaParaPago — товары зарезервированы, заказ готов к оплате.
	OrderStatusListaParaPago OrderStatus = "lista_para_pago"
	// OrderStatusSinStock — на складе не хватило товара.
	OrderStatusSinStock OrderStatus = "sin_stock"
	// OrderStatusPagada — оплата подтверждена платёжным провайдером.
	OrderStatusPagada OrderStatus = "pagada"
	// OrderStatusFalloPago — оплата отклонена или не прошла.
	OrderStatusFalloPago OrderStatus = "fallo_pago"
	// OrderStatusAceptada — заказ принят магазином.
	OrderStatusAceptada OrderStatus = "aceptada"
	// OrderStatusPreparando — заказ собирается.
	OrderStatusPreparando OrderStatus = "preparando"
	// OrderStatusListaParaEntregar — заказ собран и ждёт курьера.
	OrderStatusListaParaEntregar OrderStatus = "lista_para_entregar"
	// OrderStatusEnCamino — заказ в пути.
	OrderStatusEnCamino OrderStatus = "en_camino"
	// OrderStatusEntregada — заказ доставлен клиенту.
	OrderStatusEntregada OrderStatus = "entregada"
	// OrderStatusCancelada — заказ отменён.
	OrderStatusCancelada OrderStatus = "cancelada"
	// OrderStatusRechazada — заказ отклонён магазином.
	OrderStatusRechazada OrderStatus = "rechazada"
	// OrderStatusFallida — обработка заказа завершилась ошибкой.
	OrderStatusFallida OrderStatus = "fallida"
	// OrderStatusReembolsada — деньги возвращены клиенту.
	OrderStatusReembolsada OrderStatus = "reembolsada"
	// OrderStatusReprogramada — доставка перенесена.
	OrderStatusReprogramada OrderStatus = "reprogramada"
)

// knownStatuses перечисляет закрытое множество статусов.
// Графа переходов нет: любой статус может сменить любой другой,
// проверяется только принадлежность множеству.
var knownStatuses = map[OrderStatus]struct{}{
	OrderStatusPendiente:         {},
	OrderStatusListaParaPago:     {},
	OrderStatusSinStock:          {},
	OrderStatusPagada:            {},
	OrderStatusFalloPago:         {},
	OrderStatusAceptada:          {},
	OrderStatusPreparando:        {},
	OrderStatusListaParaEntregar: {},
	OrderStatusEnCamino:          {},
	OrderStatusEntregada:         {},
	OrderStatusCancelada:         {},
	OrderStatusRechazada:         {},
	OrderStatusFallida:           {},
	OrderStatusReembolsada:       {},
	OrderStatusReprogramada:      {},
}

// IsValid сообщает, входит ли статус в закрытое множество.
func (s OrderStatus) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// KnownStatuses возвращает все допустимые статусы (для сообщений валидации).
func KnownStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(knownStatuses))
	for s := range knownStatuses {
		result = append(result, s)
	}
	return result
}

const maxAddressLen = 50

// ValidateAddress проверяет адрес доставки: обязателен и не длиннее 50 символов.
func ValidateAddress(address string) error {
	if address == "" {
		return ErrAddressRequired
	}
	if len(address) > maxAddressLen {
		return ErrAddressTooLong
	}
	return nil
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для адресного удаления и аудита.
	ID string
	// OrderID — заказ-владелец; позиция живёт только вместе с ним.
	OrderID string
	// ProductID — внешний идентификатор товара.
	ProductID int64
	// Quantity — количество единиц товара.
	Quantity int32
	// UnitPrice — цена за единицу, DECIMAL(10,2).
	UnitPrice decimal.Decimal
	// TotalPrice — производное Quantity × UnitPrice, никогда не принимается извне.
	TotalPrice decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// OrderStatusHistory — одна запись append-only журнала статусов.
// Записи никогда не изменяются и не удаляются.
type OrderStatusHistory struct {
	ID         string
	OrderID    string
	Status     OrderStatus
	RecordedAt time.Time
}

// Order агрегирует состояние заказа, его позиции и историю статусов.
type Order struct {
	ID            string
	UserID        int64
	StoreID       int64
	DealerID      int64
	Address       string
	Status        OrderStatus
	TotalAmount   decimal.Decimal
	Items         []OrderItem
	StatusHistory []OrderStatusHistory
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ItemsTotal считает сумму quantity × unit_price по набору позиций.
// Это единственный источник правды для total_amount.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID <= 0 {
		errs = append(errs, ErrUserRequired)
	}
	if o.StoreID <= 0 {
		errs = append(errs, ErrStoreRequired)
	}
	if o.DealerID <= 0 {
		errs = append(errs, ErrDealerRequired)
	}
	if o.Address == "" {
		errs = append(errs, ErrAddressRequired)
	} else if len(o.Address) > maxAddressLen {
		errs = append(errs, ErrAddressTooLong)
	}
	if !o.Status.IsValid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if !item.UnitPrice.IsPositive() {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	// Сверяем сумму заказа с суммой позиций.
	if !o.TotalAmount.Equal(ItemsTotal(o.Items)) {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// NewItemInput — позиция, как она приходит на создание/пополнение заказа.
type NewItemInput struct {
	ProductID int64
	Quantity  int32
	UnitPrice decimal.Decimal
}

// ValidateNewItems проверяет входной набор позиций до персистенции.
func ValidateNewItems(items []NewItemInput) error {
	if len(items) == 0 {
		return ErrItemsRequired
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return ErrItemProductRequired
		}
		if item.Quantity <= 0 {
			return ErrItemQtyInvalid
		}
		if !item.UnitPrice.IsPositive() {
			return ErrItemPriceInvalid
		}
	}
	return nil
}
