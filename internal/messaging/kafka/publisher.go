package kafka

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
)

// DefaultReserveTopic — топик саги по умолчанию.
const DefaultReserveTopic = "reserve_inventory"

// SagaPublisher публикует сообщения саги поверх Producer.
// Ключом сообщения служит идентификатор заказа: все сообщения одного
// заказа попадают в одну партицию и сохраняют порядок.
type SagaPublisher struct {
	producer *Producer
	topic    string
	logger   *log.Entry
}

// NewSagaPublisher создает издателя саги. Пустой topic заменяется
// значением по умолчанию.
func NewSagaPublisher(producer *Producer, topic string) *SagaPublisher {
	if topic == "" {
		topic = DefaultReserveTopic
	}
	return &SagaPublisher{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "saga-publisher"),
	}
}

// PublishReserveInventory отправляет команду резервирования запасов.
// Отказ брокера оборачивается в domain.ErrPublishFailed и доходит до
// вызывающего: заказ к этому моменту уже сохранён.
func (p *SagaPublisher) PublishReserveInventory(
	orderID string,
	items []domain.OrderItem,
	storeID int64,
	userID int64,
	total decimal.Decimal,
	paymentMethod string,
) error {
	msg := NewReserveInventoryMessage(orderID, items, storeID, userID, total, paymentMethod)

	if err := p.producer.PublishMessage(p.topic, orderID, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}

	p.logger.WithFields(log.Fields{
		"order_id": orderID,
		"topic":    p.topic,
		"items":    len(items),
	}).Info("reserve_inventory published")

	return nil
}

// Close закрывает нижележащего продюсера.
func (p *SagaPublisher) Close() error {
	return p.producer.Close()
}

var _ domain.SagaPublisher = (*SagaPublisher)(nil)
