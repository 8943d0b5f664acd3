package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type shopRepo struct {
	db DBTX
}

func NewShopRepository(db DBTX) ShopRepository {
	return &shopRepo{db: db}
}

func (r *shopRepo) GetByID(ctx context.Context, id int64) (*models.Shop, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: shop ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT shop_id, seller_id, name, description, location, created_at
		FROM shops WHERE shop_id = $1`

	return r.getOne(ctx, sql, id)
}

// GetByUserID resolves the shop owned by the seller linked to the user.
func (r *shopRepo) GetByUserID(ctx context.Context, userID int64) (*models.Shop, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT s.shop_id, s.seller_id, s.name, s.description, s.location, s.created_at
		FROM shops s
		JOIN sellers se ON se.seller_id = s.seller_id
		WHERE se.user_id = $1`

	return r.getOne(ctx, sql, userID)
}

func (r *shopRepo) getOne(ctx context.Context, sql string, arg int64) (*models.Shop, error) {
	var s models.Shop
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&s.ShopID,
		&s.SellerID,
		&s.Name,
		&s.Description,
		&s.Location,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &s, nil
}
