package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type orderRepo struct {
	db DBTX
}

func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) CreateWithPayment(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.UserID <= 0 {
		return fmt.Errorf("%w: user ID cannot be empty", ErrInvalidInput)
	}
	if order.GatewayOrderID == "" {
		return fmt.Errorf("%w: gateway order ID cannot be empty", ErrInvalidInput)
	}
	if order.Payment == nil || order.Payment.TransactionID == "" {
		return fmt.Errorf("%w: payment transaction ID cannot be empty", ErrInvalidInput)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("slice items cannot be empty: %w", ErrInvalidInput)
	}
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
		}
		if !item.Price.IsPositive() {
			return fmt.Errorf("price must be positive: %w", ErrInvalidInput)
		}
		if item.ProductID <= 0 {
			return fmt.Errorf("product ID cannot be empty: %w", ErrInvalidInput)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	insert := `INSERT INTO orders (
	user_id,
	total,
	status,
	gateway_order_id,
	created_at,
	updated_at
	) VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING order_id
	`

	err = tx.QueryRow(ctx, insert,
		order.UserID,
		order.Total,
		order.Status,
		order.GatewayOrderID,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.OrderID)
	if err != nil {
		return mapWriteError("create order", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.OrderID

		insertItemSQL := `INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING order_item_id
		`
		err = tx.QueryRow(ctx, insertItemSQL, order.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&item.OrderItemID)
		if err != nil {
			return mapWriteError("create order item", err)
		}

		update := `UPDATE products SET stock = GREATEST(stock - $1, 0) WHERE product_id = $2`

		result, err := tx.Exec(ctx, update, item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to update product %d: %w", item.ProductID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
	}

	p := order.Payment
	p.OrderID = order.OrderID
	p.CreatedAt = now

	insertPayment := `INSERT INTO payments (
		order_id,
		transaction_id,
		amount,
		status,
		provider,
		created_at,
		updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $6)
	RETURNING payment_id
	`
	err = tx.QueryRow(ctx, insertPayment,
		p.OrderID,
		p.TransactionID,
		p.Amount,
		p.Status,
		p.Provider,
		p.CreatedAt,
	).Scan(&p.PaymentID)
	if err != nil {
		return mapWriteError("create payment", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func mapWriteError(op string, err error) error {
	if pgErr, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%w: %s violates %s", ErrDuplicate, op, pgErr.ConstraintName)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: referenced row missing: %w", op, ErrNotFound)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

const orderSelect = `
	SELECT
		o.order_id,
		o.user_id,
		u.name,
		u.email,
		o.total,
		o.status,
		o.gateway_order_id,
		o.created_at,
		o.updated_at,
		p.payment_id,
		p.transaction_id,
		p.amount,
		p.status,
		p.provider,
		p.created_at
	FROM orders o
	JOIN users u ON u.user_id = o.user_id
	LEFT JOIN payments p ON p.order_id = o.order_id
`

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var user models.UserSummary
	var paymentID pgtype.Int8
	var transactionID, paymentStatus, provider pgtype.Text
	var amount decimal.NullDecimal
	var paymentCreated pgtype.Timestamptz

	err := row.Scan(
		&o.OrderID,
		&o.UserID,
		&user.Name,
		&user.Email,
		&o.Total,
		&o.Status,
		&o.GatewayOrderID,
		&o.CreatedAt,
		&o.UpdatedAt,
		&paymentID,
		&transactionID,
		&amount,
		&paymentStatus,
		&provider,
		&paymentCreated,
	)
	if err != nil {
		return nil, err
	}

	user.UserID = o.UserID
	o.User = &user
	o.Items = []models.OrderItem{}

	if paymentID.Valid {
		o.Payment = &models.Payment{
			PaymentID:     paymentID.Int64,
			OrderID:       o.OrderID,
			TransactionID: transactionID.String,
			Amount:        amount.Decimal,
			Status:        models.PaymentStatus(paymentStatus.String),
			Provider:      provider.String,
			CreatedAt:     paymentCreated.Time,
		}
	}

	return &o, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	order, err := scanOrder(r.db.QueryRow(ctx, orderSelect+` WHERE o.order_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}

	items, err := r.loadItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if its, ok := items[id]; ok {
		order.Items = its
	}

	return order, nil
}

func (r *orderRepo) GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction ID cannot be empty", ErrInvalidInput)
	}

	var orderID int64
	err := r.db.QueryRow(ctx, `SELECT order_id FROM payments WHERE transaction_id = $1`, transactionID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order by transaction %s: %w", transactionID, err)
	}

	return r.GetByID(ctx, orderID)
}

func orderWhere(f models.OrderFilter, args *queryArgs) string {
	var conds []string
	if f.Status != "" {
		conds = append(conds, "o.status = "+args.add(f.Status))
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "p.status = "+args.add(f.PaymentStatus))
	}
	if f.UserID > 0 {
		conds = append(conds, "o.user_id = "+args.add(f.UserID))
	}
	if f.ShopID > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products pr ON pr.product_id = oi.product_id
			WHERE oi.order_id = o.order_id AND pr.shop_id = `+args.add(f.ShopID)+`)`)
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *orderRepo) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, f.Status)
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid payment status '%s'", ErrInvalidInput, f.PaymentStatus)
	}
	page := f.PageRequest.Normalize()

	var args queryArgs
	where := orderWhere(f, &args)

	countSQL := `SELECT COUNT(*) FROM orders o LEFT JOIN payments p ON p.order_id = o.order_id` + where

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	sql := orderSelect + where +
		` ORDER BY o.created_at DESC, o.order_id DESC` +
		` LIMIT ` + args.add(page.Limit) +
		` OFFSET ` + args.add(page.Offset())

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	ids := []int64{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan orders: %w", err)
		}
		orders = append(orders, *o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		if its, ok := items[orders[i].OrderID]; ok {
			orders[i].Items = its
		}
	}

	return orders, total, nil
}

func (r *orderRepo) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	out := make(map[int64][]models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	sql := `SELECT
	oi.order_item_id,
	oi.order_id,
	oi.product_id,
	pr.name,
	pr.shop_id,
	s.name,
	oi.quantity,
	oi.price
	FROM order_items oi
	JOIN products pr ON pr.product_id = oi.product_id
	JOIN shops s ON s.shop_id = pr.shop_id
	WHERE oi.order_id = ANY($1::bigint[])
	ORDER BY oi.order_item_id
	`

	rows, err := r.db.Query(ctx, sql, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(
			&it.OrderItemID,
			&it.OrderID,
			&it.ProductID,
			&it.ProductName,
			&it.ShopID,
			&it.ShopName,
			&it.Quantity,
			&it.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return out, nil
}

func (r *orderRepo) UpdateStatuses(ctx context.Context, orderID int64, change models.StatusChange) error {
	if change.Empty() {
		return fmt.Errorf("%w: no status change requested", ErrInvalidInput)
	}
	if change.StatusTo != "" && !change.StatusTo.Valid() {
		return fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, change.StatusTo)
	}
	if change.PaymentTo != "" && !change.PaymentTo.Valid() {
		return fmt.Errorf("%w: invalid payment status '%s'", ErrInvalidInput, change.PaymentTo)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	if change.StatusTo != "" {
		sql := `UPDATE orders
		SET status = $1, updated_at = $2
		WHERE order_id = $3 AND status = $4
		`
		result, err := tx.Exec(ctx, sql, change.StatusTo, now, orderID, change.StatusFrom)
		if err != nil {
			return fmt.Errorf("update status order %d: %w", orderID, err)
		}
		if result.RowsAffected() == 0 {
			return missingOrConflict(ctx, tx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_id = $1)`, orderID)
		}
	}

	if change.PaymentTo != "" {
		sql := `UPDATE payments
		SET status = $1, updated_at = $2
		WHERE order_id = $3 AND status = $4
		`
		result, err := tx.Exec(ctx, sql, change.PaymentTo, now, orderID, change.PaymentFrom)
		if err != nil {
			return fmt.Errorf("update payment status order %d: %w", orderID, err)
		}
		if result.RowsAffected() == 0 {
			return missingOrConflict(ctx, tx, `SELECT EXISTS(SELECT 1 FROM payments WHERE order_id = $1)`, orderID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func missingOrConflict(ctx context.Context, db DBTX, existsSQL string, id int64) error {
	var exists bool
	if err := db.QueryRow(ctx, existsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: order %d was modified concurrently", ErrConflict, id)
}

func (r *orderRepo) HasShopItems(ctx context.Context, orderID, shopID int64) (bool, error) {
	sql := `SELECT EXISTS (
		SELECT 1 FROM order_items oi
		JOIN products pr ON pr.product_id = oi.product_id
		WHERE oi.order_id = $1 AND pr.shop_id = $2
	)`

	var ok bool
	if err := r.db.QueryRow(ctx, sql, orderID, shopID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check shop items for order %d: %w", orderID, err)
	}
	return ok, nil
}
