package domain

// OrderRepository описывает требования к хранилищу заказов.
// Реализация не содержит бизнес-логики: только компоновка операций
// хранилища в доменные результаты.
type OrderRepository interface {
	// Create сохраняет заказ вместе с начальными позициями в одной транзакции.
	// Возвращает заказ с присвоенными позициями.
	Create(order Order) (Order, error)
	// FindByID возвращает заказ с позициями и полной историей статусов
	// (в порядке добавления) или ErrOrderNotFound.
	FindByID(id string) (Order, error)
	// Update сливает непустые поля patch в сохранённый заказ и возвращает
	// обновлённый заказ. Историю статусов не пишет — это зона ответственности
	// вызывающего.
	Update(id string, patch OrderPatch) (Order, error)
	// AddItems добавляет позиции к существующему заказу. Пересчёт total_amount
	// не выполняет.
	AddItems(orderID string, items []OrderItem) error
	// RemoveItem удаляет одну позицию в пределах её заказа. Возвращает
	// ErrItemNotFound, если позиция не принадлежит заказу.
	RemoveItem(orderID, itemID string) error
	// Cancel переводит заказ в cancelada и добавляет запись истории —
	// обе записи в одной логической операции.
	Cancel(id string) (Order, error)
	// FindByFilter возвращает заказы, удовлетворяющие всем заданным полям
	// фильтра; каждый результат гидрирован позициями и историей.
	FindByFilter(filter OrderFilter) ([]Order, error)
}

// StatusHistoryRepository хранит append-only журнал статусов заказа.
type StatusHistoryRepository interface {
	Append(entry OrderStatusHistory) error
	ListByOrder(orderID string) ([]OrderStatusHistory, error)
}
