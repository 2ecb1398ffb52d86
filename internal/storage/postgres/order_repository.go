package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oerazoo/orders-service/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

const orderColumns = `id, user_id, store_id, dealer_id, address, status, total_amount, created_at, updated_at`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create вставляет заказ и его позиции одной транзакцией: либо
// сохраняется всё, либо ничего.
func (r *orderRepository) Create(order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		order.ID, order.UserID, order.StoreID, order.DealerID, order.Address,
		string(order.Status), order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrOrderExists
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, quantity, unit_price, total_price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			item.ID, order.ID, item.ProductID, item.Quantity,
			item.UnitPrice, item.TotalPrice, item.CreatedAt,
		); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

// FindByID возвращает заказ, явно догружая позиции и историю статусов.
func (r *orderRepository) FindByID(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.findByID(ctx, id)
}

func (r *orderRepository) findByID(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	var status string

	err := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.UserID, &order.StoreID, &order.DealerID, &order.Address,
		&status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	if err := r.hydrate(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// Update сливает непустые поля patch в строку заказа и возвращает
// обновлённый, полностью гидрированный заказ.
func (r *orderRepository) Update(id string, patch domain.OrderPatch) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	set := make([]string, 0, 7)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.UserID != nil {
		add("user_id", *patch.UserID)
	}
	if patch.StoreID != nil {
		add("store_id", *patch.StoreID)
	}
	if patch.DealerID != nil {
		add("dealer_id", *patch.DealerID)
	}
	if patch.Address != nil {
		add("address", *patch.Address)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.TotalAmount != nil {
		add("total_amount", *patch.TotalAmount)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return r.findByID(ctx, id)
}

// AddItems добавляет позиции к существующему заказу. total_amount не трогает.
func (r *orderRepository) AddItems(orderID string, items []domain.OrderItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := orderExistsTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if !exists {
		err = domain.ErrOrderNotFound
		return err
	}

	for _, item := range items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, quantity, unit_price, total_price, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			item.ID, orderID, item.ProductID, item.Quantity,
			item.UnitPrice, item.TotalPrice, item.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add items: %w", err)
	}

	return nil
}

// RemoveItem удаляет позицию строго в пределах её заказа.
func (r *orderRepository) RemoveItem(orderID, itemID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM order_items
		WHERE id = $1 AND order_id = $2
	`, itemID, orderID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var id string
		err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("check order exists: %w", err)
		}
		return domain.ErrItemNotFound
	}

	return nil
}

// Cancel переводит заказ в cancelada и пишет запись истории одной транзакцией.
func (r *orderRepository) Cancel(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, string(domain.OrderStatusCancelada), now, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = domain.ErrOrderNotFound
		return domain.Order{}, err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, recorded_at)
		VALUES (gen_random_uuid(), $1, $2, $3)
	`, id, string(domain.OrderStatusCancelada), now); err != nil {
		return domain.Order{}, fmt.Errorf("append cancel history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit cancel order: %w", err)
	}

	return r.findByID(ctx, id)
}

// FindByFilter строит предикат из заданных полей фильтра (AND) и
// гидрирует каждый найденный заказ позициями и историей.
func (r *orderRepository) FindByFilter(filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	where := make([]string, 0, 9)
	args := make([]any, 0, 9)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.ID != nil {
		add("id", *filter.ID)
	}
	if filter.UserID != nil {
		add("user_id", *filter.UserID)
	}
	if filter.StoreID != nil {
		add("store_id", *filter.StoreID)
	}
	if filter.DealerID != nil {
		add("dealer_id", *filter.DealerID)
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.Address != nil {
		add("address", *filter.Address)
	}
	if filter.TotalAmount != nil {
		add("total_amount", *filter.TotalAmount)
	}
	if filter.CreatedAt != nil {
		add("created_at", *filter.CreatedAt)
	}
	if filter.UpdatedAt != nil {
		add("updated_at", *filter.UpdatedAt)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.StoreID, &order.DealerID, &order.Address,
			&status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		if err := r.hydrate(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// hydrate догружает позиции и историю статусов — явный шаг, никакого
// ленивого подтягивания связей.
func (r *orderRepository) hydrate(ctx context.Context, order *domain.Order) error {
	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Items = items

	history, err := loadHistory(ctx, r.db, order.ID)
	if err != nil {
		return err
	}
	order.StatusHistory = history

	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
