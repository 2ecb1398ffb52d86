package domain

import "github.com/shopspring/decimal"

// SagaPublisher отправляет стартовое сообщение саги reserve_inventory.
// Транспорт гарантирует at-least-once: сообщение может прийти повторно,
// но принятое не теряется. Ошибка транспорта обязана дойти до вызывающего —
// сохранённый заказ без сообщения саги это «застрявший» заказ.
type SagaPublisher interface {
	PublishReserveInventory(
		orderID string,
		items []OrderItem,
		storeID int64,
		userID int64,
		total decimal.Decimal,
		paymentMethod string,
	) error
}

// Допустимые методы оплаты, транслируемые в сообщение саги.
const (
	PaymentMethodTarjeta  = "tarjeta"
	PaymentMethodPSE      = "pse"
	PaymentMethodEfectivo = "efectivo"
)

// IsValidPaymentMethod проверяет метод оплаты на входной границе.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodTarjeta, PaymentMethodPSE, PaymentMethodEfectivo:
		return true
	}
	return false
}
