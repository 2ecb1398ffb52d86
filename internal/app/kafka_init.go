package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
	"github.com/oerazoo/orders-service/internal/messaging/kafka"
	"github.com/oerazoo/orders-service/internal/service/order"
)

// initPublisher создает издателя саги. Без брокеров публикация
// отключается: заказы создаются, reserve_inventory не отправляется.
// Недоступность брокеров при старте — ошибка, а не тихий noop.
func initPublisher(cfg Config, logger *log.Entry) (domain.SagaPublisher, func() error, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Warn("kafka brokers not configured, saga publishing disabled")
		return order.NewNoopPublisher(), func() error { return nil }, nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}

	logger.WithFields(log.Fields{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.ReserveTopic,
	}).Info("kafka producer initialized")

	publisher := kafka.NewSagaPublisher(producer, cfg.ReserveTopic)
	return publisher, publisher.Close, nil
}
