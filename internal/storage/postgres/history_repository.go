package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oerazoo/orders-service/internal/domain"
)

type historyRepository struct {
	db *sql.DB
}

// NewStatusHistoryRepository создаёт PostgreSQL-реализацию StatusHistoryRepository.
func NewStatusHistoryRepository(store *Store) domain.StatusHistoryRepository {
	return &historyRepository{db: store.DB()}
}

// Append дописывает запись истории. Журнал только растёт, записи не
// обновляются и не удаляются.
func (r *historyRepository) Append(entry domain.OrderStatusHistory) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.OrderID, string(entry.Status), recordedAt)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}

	return nil
}

// ListByOrder возвращает историю заказа в порядке записи.
func (r *historyRepository) ListByOrder(orderID string) ([]domain.OrderStatusHistory, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return loadHistory(ctx, r.db, orderID)
}

func loadHistory(ctx context.Context, db *sql.DB, orderID string) ([]domain.OrderStatusHistory, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, status, recorded_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY recorded_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	defer rows.Close()

	history := make([]domain.OrderStatusHistory, 0)
	for rows.Next() {
		var entry domain.OrderStatusHistory
		var status string
		if err := rows.Scan(&entry.ID, &entry.OrderID, &status, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entry.Status = domain.OrderStatus(status)
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}

	return history, nil
}

var _ domain.StatusHistoryRepository = (*historyRepository)(nil)
