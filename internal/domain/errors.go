package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrItemNotFound возвращается, если позиция не принадлежит заказу или не существует.
	ErrItemNotFound = errors.New("order item not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым идентификатором.
	ErrOrderExists = errors.New("order already exists")
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего идентификатора магазина.
	ErrStoreRequired = errors.New("store_id is required")
	// Ошибка отсутствующего идентификатора дилера.
	ErrDealerRequired = errors.New("dealer_id is required")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressRequired = errors.New("address is required")
	// Ошибка превышения длины адреса (50 символов по схеме).
	ErrAddressTooLong = errors.New("address exceeds 50 characters")
	// Ошибка отсутствия хотя бы одной позиции во входном наборе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего product_id у позиции.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции не положительная.
	ErrItemPriceInvalid = errors.New("item unit_price must be greater than zero")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total_amount must be non-negative")
	// Ошибка несоответствия total_amount и суммы позиций.
	ErrAmountMismatch = errors.New("order total does not match items sum")
	// Ошибка статуса вне закрытого множества.
	ErrStatusUnknown = errors.New("unknown order status")
	// Ошибка неподдерживаемого метода оплаты.
	ErrPaymentMethodInvalid = errors.New("payment_method must be tarjeta, pse or efectivo")
	// Ошибка нечитаемого значения в фильтре запроса.
	ErrFilterInvalid = errors.New("invalid filter value")
	// ErrPublishFailed — транспорт очереди отклонил сообщение саги.
	// Заказ при этом уже сохранён; ошибка обязана дойти до вызывающего.
	ErrPublishFailed = errors.New("saga publish failed")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа или позиции.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrItemNotFound)
}

// validationErrs — множество ошибок, которые HTTP-слой отдаёт как 400.
var validationErrs = []error{
	ErrUserRequired,
	ErrStoreRequired,
	ErrDealerRequired,
	ErrAddressRequired,
	ErrAddressTooLong,
	ErrItemsRequired,
	ErrItemProductRequired,
	ErrItemQtyInvalid,
	ErrItemPriceInvalid,
	ErrAmountNegative,
	ErrAmountMismatch,
	ErrStatusUnknown,
	ErrPaymentMethodInvalid,
	ErrFilterInvalid,
}

// IsValidation проверяет, относится ли ошибка к нарушению входных инвариантов.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsPublishFailure проверяет, является ли ошибка отказом транспорта очереди.
func IsPublishFailure(err error) bool {
	return errors.Is(err, ErrPublishFailed)
}
