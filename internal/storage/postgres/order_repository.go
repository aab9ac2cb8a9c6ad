package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rodrigofontes/vendaspro/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create выдаёт номер из счётчика и вставляет заказ с позициями в одной
// транзакции. Блокировка строки счётчика сериализует конкурентные создания;
// уникальный индекс по number — страховка, конфликт по нему отдаётся как
// ErrNumberConflict для повтора на уровне сервиса.
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

	var seq int64
	if err = tx.QueryRowContext(ctx, `
		UPDATE order_numbers
		SET last_value = last_value + 1
		RETURNING last_value
	`).Scan(&seq); err != nil {
		return domain.Order{}, fmt.Errorf("allocate order number: %w", err)
	}
	order.Number = domain.FormatOrderNumber(seq)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, number, client_id, status,
			subtotal, shipping_cost, total,
			address_postal_code, address_city, address_state,
			address_street, address_number, address_complement,
			shipping_method, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		order.ID, order.Number, order.ClientID, string(order.Status),
		order.Subtotal, order.ShippingCost, order.Total,
		order.Address.PostalCode, order.Address.City, order.Address.State,
		order.Address.Street, order.Address.Number, order.Address.Complement,
		string(order.ShippingMethod), order.Version, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, mapOrderWriteError(err, "insert order")
	}

	if err = insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit create order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	order, err := r.scanOrderRow(r.db.QueryRowContext(ctx, `
		SELECT id, number, client_id, status,
		       subtotal, shipping_cost, total,
		       address_postal_code, address_city, address_state,
		       address_street, address_number, address_complement,
		       shipping_method, version, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) List(filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT o.id, o.number, o.client_id, o.status,
		       o.subtotal, o.shipping_cost, o.total,
		       o.address_postal_code, o.address_city, o.address_state,
		       o.address_street, o.address_number, o.address_complement,
		       o.shipping_method, o.version, o.created_at, o.updated_at
		FROM orders o
		JOIN clients c ON c.id = o.client_id
		WHERE ($1 = '' OR o.status = $1)
		  AND ($2 = '' OR c.name ILIKE '%' || $2 || '%')
		  AND ($3 = '' OR o.number LIKE '%' || $3 || '%')
		ORDER BY o.created_at DESC, o.id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)

	if filter.Limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $4",
			string(filter.Status), filter.ClientNameContains, filter.NumberContains, filter.Limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query,
			string(filter.Status), filter.ClientNameContains, filter.NumberContains)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		items, err := r.loadItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// Save перезаписывает поля заказа и полностью заменяет набор позиций
// в одной транзакции. Номер заказа при обновлении не меняется.
func (r *orderRepository) Save(order domain.Order) error {
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

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET client_id = $1,
		    status = $2,
		    subtotal = $3,
		    shipping_cost = $4,
		    total = $5,
		    address_postal_code = $6,
		    address_city = $7,
		    address_state = $8,
		    address_street = $9,
		    address_number = $10,
		    address_complement = $11,
		    shipping_method = $12,
		    version = version + 1,
		    updated_at = $13
		WHERE id = $14
		  AND version = $15
	`,
		order.ClientID,
		string(order.Status),
		order.Subtotal,
		order.ShippingCost,
		order.Total,
		order.Address.PostalCode,
		order.Address.City,
		order.Address.State,
		order.Address.Street,
		order.Address.Number,
		order.Address.Complement,
		string(order.ShippingMethod),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return mapOrderWriteError(err, "update order")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExistsTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	// Полная замена набора позиций: старые удаляются, новые вставляются.
	if _, err = tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err = insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save order: %w", err)
	}

	return nil
}

// SaveStatus обновляет только статус заказа с учётом optimistic locking.
func (r *orderRepository) SaveStatus(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`, string(order.Status), order.UpdatedAt, order.ID, order.Version)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

// ClientStats агрегирует заказы клиента на лету; клиент без заказов — это
// нулевая статистика, а не ошибка.
func (r *orderRepository) ClientStats(clientID string) (domain.ClientStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var stats domain.ClientStats
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0)
		FROM orders
		WHERE client_id = $1
	`, clientID).Scan(&stats.OrderCount, &stats.TotalSpent); err != nil {
		return domain.ClientStats{}, fmt.Errorf("client stats query failed: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrderRow(row rowScanner) (domain.Order, error) {
	var (
		order          domain.Order
		status         string
		shippingMethod string
	)
	if err := row.Scan(
		&order.ID, &order.Number, &order.ClientID, &status,
		&order.Subtotal, &order.ShippingCost, &order.Total,
		&order.Address.PostalCode, &order.Address.City, &order.Address.State,
		&order.Address.Street, &order.Address.Number, &order.Address.Complement,
		&shippingMethod, &order.Version, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.ShippingMethod = domain.ShippingMethod(shippingMethod)
	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, quantity, unit_price, line_total, created_at
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
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID string, items []domain.OrderItem) error {
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, quantity, unit_price, line_total, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			item.ID, orderID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal, item.CreatedAt,
		); err != nil {
			return mapOrderWriteError(err, "insert order item")
		}
	}
	return nil
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func (r *orderRepository) orderExistsTx(ctx context.Context, tx *sql.Tx, orderID string) (bool, error) {
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

// mapOrderWriteError переводит нарушения ограничений схемы в доменные ошибки.
func mapOrderWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case "orders_number_key":
				return domain.ErrNumberConflict
			case "order_items_order_id_product_id_key":
				return domain.ErrDuplicateProduct
			}
			return domain.ErrNumberConflict
		case pgForeignKeyViolation:
			switch pgErr.ConstraintName {
			case "orders_client_id_fkey":
				return domain.ErrClientNotFound
			case "order_items_product_id_fkey":
				return domain.ErrProductNotFound
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
