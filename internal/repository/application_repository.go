package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type applicationRepo struct {
	db DBTX
}

func NewApplicationRepository(db DBTX) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, a *models.SellerApplication) error {
	if a == nil {
		return fmt.Errorf("%w: application cannot be nil", ErrInvalidInput)
	}
	if a.UserID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// The NOT EXISTS guard catches the common case. Two racing submissions
	// can both pass it under READ COMMITTED; the partial unique index on
	// pending applications rejects the second one.
	sql := `
		INSERT INTO seller_applications (
			user_id,
			shop_name,
			shop_description,
			shop_location,
			status,
			created_at,
			updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM seller_applications
			WHERE user_id = $1 AND status = $5
		)
		RETURNING application_id
	`

	now := time.Now().UTC()
	a.Status = models.ApplicationPending
	a.CreatedAt = now
	a.UpdatedAt = now

	err := r.db.QueryRow(ctx, sql,
		a.UserID,
		a.ShopName,
		a.ShopDescription,
		a.ShopLocation,
		a.Status,
		now,
	).Scan(&a.ApplicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d already has a pending application", ErrDuplicate, a.UserID)
		}
		if _, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("%w: user %d already has a pending application", ErrDuplicate, a.UserID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("user %d: %w", a.UserID, ErrNotFound)
		}
		return fmt.Errorf("create seller application: %w", err)
	}

	return nil
}

const applicationSelect = `
	SELECT
		a.application_id,
		a.user_id,
		u.name,
		u.email,
		a.shop_name,
		a.shop_description,
		a.shop_location,
		a.status,
		a.created_at,
		a.updated_at
	FROM seller_applications a
	JOIN users u ON u.user_id = a.user_id
`

func scanApplication(row pgx.Row) (*models.SellerApplication, error) {
	var a models.SellerApplication
	var user models.UserSummary
	err := row.Scan(
		&a.ApplicationID,
		&a.UserID,
		&user.Name,
		&user.Email,
		&a.ShopName,
		&a.ShopDescription,
		&a.ShopLocation,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.UserID = a.UserID
	a.User = &user
	return &a, nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*models.SellerApplication, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: application ID must be positive", ErrInvalidInput)
	}

	a, err := scanApplication(r.db.QueryRow(ctx, applicationSelect+` WHERE a.application_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get seller application %d: %w", id, err)
	}
	return a, nil
}

func (r *applicationRepo) GetLatestByUserID(ctx context.Context, userID int64) (*models.SellerApplication, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	sql := applicationSelect + ` WHERE a.user_id = $1 ORDER BY a.created_at DESC, a.application_id DESC LIMIT 1`

	a, err := scanApplication(r.db.QueryRow(ctx, sql, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get seller application for user %d: %w", userID, err)
	}
	return a, nil
}

func (r *applicationRepo) List(ctx context.Context, status models.ApplicationStatus) ([]models.SellerApplication, error) {
	sql := applicationSelect
	var args []any
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, status)
		}
		sql += ` WHERE a.status = $1`
		args = append(args, status)
	}
	sql += ` ORDER BY a.created_at DESC, a.application_id DESC`

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller applications: %w", err)
	}
	defer rows.Close()

	apps := []models.SellerApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seller application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return apps, nil
}

func (r *applicationRepo) Approve(ctx context.Context, id int64) (*models.Shop, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: application ID must be positive", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var a models.SellerApplication
	err = tx.QueryRow(ctx, `
		SELECT user_id, shop_name, shop_description, shop_location, status
		FROM seller_applications
		WHERE application_id = $1
		FOR UPDATE`, id).Scan(
		&a.UserID,
		&a.ShopName,
		&a.ShopDescription,
		&a.ShopLocation,
		&a.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock seller application %d: %w", id, err)
	}
	if a.Status != models.ApplicationPending {
		return nil, fmt.Errorf("%w: application %d is %s", ErrConflict, id, a.Status)
	}

	now := time.Now().UTC()

	_, err = tx.Exec(ctx,
		`UPDATE seller_applications SET status = $1, updated_at = $2 WHERE application_id = $3`,
		models.ApplicationApproved, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("approve seller application %d: %w", id, err)
	}

	var sellerID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sellers (user_id, created_at) VALUES ($1, $2) RETURNING seller_id`,
		a.UserID, now,
	).Scan(&sellerID)
	if err != nil {
		return nil, mapWriteError("create seller", err)
	}

	shop := &models.Shop{
		SellerID:    sellerID,
		Name:        a.ShopName,
		Description: a.ShopDescription,
		Location:    a.ShopLocation,
		CreatedAt:   now,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO shops (seller_id, name, description, location, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING shop_id`,
		shop.SellerID, shop.Name, shop.Description, shop.Location, shop.CreatedAt,
	).Scan(&shop.ShopID)
	if err != nil {
		return nil, mapWriteError("create shop", err)
	}

	result, err := tx.Exec(ctx, `UPDATE users SET role = $1 WHERE user_id = $2`, models.RoleSeller, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("promote user %d: %w", a.UserID, err)
	}
	if result.RowsAffected() == 0 {
		return nil, fmt.Errorf("user %d: %w", a.UserID, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return shop, nil
}

func (r *applicationRepo) Reject(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: application ID must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx,
		`DELETE FROM seller_applications WHERE application_id = $1 AND status = $2`,
		id, models.ApplicationPending,
	)
	if err != nil {
		return fmt.Errorf("reject seller application %d: %w", id, err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM seller_applications WHERE application_id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check seller application %d: %w", id, err)
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: application %d is no longer pending", ErrConflict, id)
}
