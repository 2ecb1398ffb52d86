package kafka

import (
	"github.com/shopspring/decimal"

	"github.com/oerazoo/orders-service/internal/domain"
)

// ReserveInventoryMessage — сообщение, запускающее сагу резервирования
// запасов. Формат ключей фиксирован контрактом с потребителем и не
// должен меняться без согласования.
type ReserveInventoryMessage struct {
	OrderID       string                 `json:"orderId"`
	Items         []ReserveInventoryItem `json:"items"`
	StoreID       int64                  `json:"store_id"`
	UserID        int64                  `json:"user_id"`
	Total         float64                `json:"total"`
	PaymentMethod string                 `json:"payment_method"`
}

// ReserveInventoryItem — позиция заказа в контракте сообщения.
type ReserveInventoryItem struct {
	ProductID  int64   `json:"product_id"`
	Quantity   int32   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// NewReserveInventoryMessage собирает сообщение из доменных типов.
// Денежные значения переводятся в числа JSON с потерей точности только
// на проводе; хранилище остаётся точным.
func NewReserveInventoryMessage(
	orderID string,
	items []domain.OrderItem,
	storeID int64,
	userID int64,
	total decimal.Decimal,
	paymentMethod string,
) ReserveInventoryMessage {
	wireItems := make([]ReserveInventoryItem, 0, len(items))
	for _, item := range items {
		wireItems = append(wireItems, ReserveInventoryItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.InexactFloat64(),
			TotalPrice: item.TotalPrice.InexactFloat64(),
		})
	}

	return ReserveInventoryMessage{
		OrderID:       orderID,
		Items:         wireItems,
		StoreID:       storeID,
		UserID:        userID,
		Total:         total.InexactFloat64(),
		PaymentMethod: paymentMethod,
	}
}
