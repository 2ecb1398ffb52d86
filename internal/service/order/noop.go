package order

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/oerazoo/orders-service/internal/domain"
)

// noopPublisher принимает сообщения саги и никуда их не отправляет.
// Используется в dev-режиме, когда брокеры не сконфигурированы.
type noopPublisher struct {
	logger *log.Entry
}

// NewNoopPublisher создает издателя-заглушку.
func NewNoopPublisher() domain.SagaPublisher {
	return &noopPublisher{
		logger: log.WithField("component", "noop-publisher"),
	}
}

func (p *noopPublisher) PublishReserveInventory(
	orderID string,
	items []domain.OrderItem,
	storeID int64,
	userID int64,
	total decimal.Decimal,
	paymentMethod string,
) error {
	p.logger.WithFields(log.Fields{
		"order_id": orderID,
		"items":    len(items),
		"total":    total.String(),
	}).Warn("saga publishing disabled, reserve_inventory dropped")
	return nil
}

var _ domain.SagaPublisher = (*noopPublisher)(nil)
