package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step answers the first statement whose SQL contains match.
type step struct {
	match string
	row   []any
	tag   string
	err   error
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.vals))
	}
	for i, v := range r.vals {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// scriptedTx plays back canned answers and records what ran. Methods the
// repositories never call are left to the embedded nil interface.
type scriptedTx struct {
	pgx.Tx
	steps      []step
	ran        []string
	committed  bool
	rolledBack bool
}

func (t *scriptedTx) answer(sql string) step {
	for _, s := range t.steps {
		if strings.Contains(sql, s.match) {
			t.ran = append(t.ran, s.match)
			return s
		}
	}
	return step{err: fmt.Errorf("unexpected statement: %s", sql)}
}

func (t *scriptedTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s := t.answer(sql)
	return pgconn.NewCommandTag(s.tag), s.err
}

func (t *scriptedTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	s := t.answer(sql)
	return fakeRow{vals: s.row, err: s.err}
}

func (t *scriptedTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not scripted")
}

func (t *scriptedTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *scriptedTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *scriptedTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func (t *scriptedTx) hasRun(match string) bool {
	for _, m := range t.ran {
		if m == match {
			return true
		}
	}
	return false
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraint}
}

func newPaidOrder() *models.Order {
	return &models.Order{
		UserID:         1,
		Total:          decimal.RequireFromString("399.00"),
		Status:         models.OrderPending,
		GatewayOrderID: "order_A",
		Items: []models.OrderItem{
			{ProductID: 7, Quantity: 2, Price: decimal.RequireFromString("199.50")},
		},
		Payment: &models.Payment{
			TransactionID: "pay_B",
			Amount:        decimal.RequireFromString("399.00"),
			Status:        models.PaymentCompleted,
			Provider:      models.ProviderRazorpay,
		},
	}
}

func orderSteps(payment step) []step {
	return []step{
		{match: "INSERT INTO orders", row: []any{int64(100)}},
		{match: "INSERT INTO order_items", row: []any{int64(1)}},
		{match: "UPDATE products SET stock", tag: "UPDATE 1"},
		payment,
	}
}

func TestCreateWithPaymentCommits(t *testing.T) {
	tx := &scriptedTx{steps: orderSteps(step{match: "INSERT INTO payments", row: []any{int64(9)}})}
	order := newPaidOrder()

	require.NoError(t, NewOrderRepository(tx).CreateWithPayment(context.Background(), order))

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.Equal(t, int64(100), order.OrderID)
	assert.Equal(t, int64(100), order.Items[0].OrderID)
	assert.Equal(t, int64(9), order.Payment.PaymentID)
	assert.Equal(t, int64(100), order.Payment.OrderID)
}

func TestCreateWithPaymentRollsBackOnPaymentFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate transaction", uniqueErr("payments_transaction_id_key"), ErrDuplicate},
		{"missing order row", &pgconn.PgError{Code: foreignKeyViolation}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &scriptedTx{steps: orderSteps(step{match: "INSERT INTO payments", err: tt.err})}

			err := NewOrderRepository(tx).CreateWithPayment(context.Background(), newPaidOrder())
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, tx.committed)
			assert.True(t, tx.rolledBack)
		})
	}
}

func TestCreateWithPaymentUnknownProductRollsBack(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "INSERT INTO orders", row: []any{int64(100)}},
		{match: "INSERT INTO order_items", row: []any{int64(1)}},
		{match: "UPDATE products SET stock", tag: "UPDATE 0"},
	}}

	err := NewOrderRepository(tx).CreateWithPayment(context.Background(), newPaidOrder())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.hasRun("INSERT INTO payments"))
}

func TestCreateWithPaymentDuplicateGatewayOrder(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "INSERT INTO orders", err: uniqueErr("orders_gateway_order_id_key")},
	}}

	err := NewOrderRepository(tx).CreateWithPayment(context.Background(), newPaidOrder())
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "orders_gateway_order_id_key")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func pendingApplicationRow() []any {
	return []any{int64(5), "Tea House", "Assam tea", "Pune", models.ApplicationPending}
}

func TestApproveCommitsAllSteps(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "FOR UPDATE", row: pendingApplicationRow()},
		{match: "UPDATE seller_applications", tag: "UPDATE 1"},
		{match: "INSERT INTO sellers", row: []any{int64(11)}},
		{match: "INSERT INTO shops", row: []any{int64(21)}},
		{match: "UPDATE users SET role", tag: "UPDATE 1"},
	}}

	shop, err := NewApplicationRepository(tx).Approve(context.Background(), 3)
	require.NoError(t, err)

	assert.True(t, tx.committed)
	assert.Equal(t, int64(21), shop.ShopID)
	assert.Equal(t, int64(11), shop.SellerID)
	assert.Equal(t, "Tea House", shop.Name)
	assert.Equal(t, "Pune", shop.Location)
}

func TestApproveShopFailureLeavesNothing(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "FOR UPDATE", row: pendingApplicationRow()},
		{match: "UPDATE seller_applications", tag: "UPDATE 1"},
		{match: "INSERT INTO sellers", row: []any{int64(11)}},
		{match: "INSERT INTO shops", err: uniqueErr("shops_seller_id_key")},
		{match: "UPDATE users SET role", tag: "UPDATE 1"},
	}}

	_, err := NewApplicationRepository(tx).Approve(context.Background(), 3)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.hasRun("UPDATE users SET role"))
}

func TestApproveMissingUserRollsBack(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "FOR UPDATE", row: pendingApplicationRow()},
		{match: "UPDATE seller_applications", tag: "UPDATE 1"},
		{match: "INSERT INTO sellers", row: []any{int64(11)}},
		{match: "INSERT INTO shops", row: []any{int64(21)}},
		{match: "UPDATE users SET role", tag: "UPDATE 0"},
	}}

	_, err := NewApplicationRepository(tx).Approve(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestApproveRequiresPending(t *testing.T) {
	row := pendingApplicationRow()
	row[4] = models.ApplicationApproved
	tx := &scriptedTx{steps: []step{{match: "FOR UPDATE", row: row}}}

	_, err := NewApplicationRepository(tx).Approve(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, tx.committed)
	assert.Equal(t, []string{"FOR UPDATE"}, tx.ran)

	tx = &scriptedTx{steps: []step{{match: "FOR UPDATE", err: pgx.ErrNoRows}}}
	_, err = NewApplicationRepository(tx).Approve(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateApplicationPendingGuard(t *testing.T) {
	app := func() *models.SellerApplication {
		return &models.SellerApplication{UserID: 5, ShopName: "Tea House"}
	}

	tx := &scriptedTx{steps: []step{{match: "INSERT INTO seller_applications", err: pgx.ErrNoRows}}}
	assert.ErrorIs(t, NewApplicationRepository(tx).Create(context.Background(), app()), ErrDuplicate)

	tx = &scriptedTx{steps: []step{{match: "INSERT INTO seller_applications", err: uniqueErr("seller_applications_one_pending_idx")}}}
	assert.ErrorIs(t, NewApplicationRepository(tx).Create(context.Background(), app()), ErrDuplicate)

	tx = &scriptedTx{steps: []step{{match: "INSERT INTO seller_applications", row: []any{int64(8)}}}}
	a := app()
	require.NoError(t, NewApplicationRepository(tx).Create(context.Background(), a))
	assert.Equal(t, int64(8), a.ApplicationID)
	assert.Equal(t, models.ApplicationPending, a.Status)
}

func TestUpdateStatusesCommitsBothRows(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "UPDATE orders", tag: "UPDATE 1"},
		{match: "UPDATE payments", tag: "UPDATE 1"},
	}}

	err := NewOrderRepository(tx).UpdateStatuses(context.Background(), 1, models.StatusChange{
		StatusFrom: models.OrderPending, StatusTo: models.OrderCancelled,
		PaymentFrom: models.PaymentCompleted, PaymentTo: models.PaymentRefunded,
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
}

func TestUpdateStatusesPaymentConflictRollsBackOrder(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "UPDATE orders", tag: "UPDATE 1"},
		{match: "UPDATE payments", tag: "UPDATE 0"},
		{match: "FROM payments WHERE order_id", row: []any{true}},
	}}

	err := NewOrderRepository(tx).UpdateStatuses(context.Background(), 1, models.StatusChange{
		StatusFrom: models.OrderPending, StatusTo: models.OrderProcessing,
		PaymentFrom: models.PaymentCompleted, PaymentTo: models.PaymentRefunded,
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, tx.hasRun("UPDATE orders"))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestUpdateStatusesMissingOrder(t *testing.T) {
	tx := &scriptedTx{steps: []step{
		{match: "UPDATE orders", tag: "UPDATE 0"},
		{match: "FROM orders WHERE order_id", row: []any{false}},
	}}

	err := NewOrderRepository(tx).UpdateStatuses(context.Background(), 9, models.StatusChange{
		StatusFrom: models.OrderPending, StatusTo: models.OrderProcessing,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, tx.committed)
	assert.False(t, tx.hasRun("UPDATE payments"))
}

func TestUpdateStatusesRejectsEmptyChange(t *testing.T) {
	tx := &scriptedTx{}
	err := NewOrderRepository(tx).UpdateStatuses(context.Background(), 1, models.StatusChange{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, tx.ran)
}
