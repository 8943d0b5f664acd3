package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/jackc/pgx/v5"
)

type productRepo struct {
	db DBTX
}

func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: product price should be positive", ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock cannot be negative", ErrInvalidInput)
	}
	if p.ShopID <= 0 {
		return fmt.Errorf("%w: shop ID cannot be empty", ErrInvalidInput)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql := `
		INSERT INTO products (
			shop_id,
			name,
			price,
			description,
			stock,
			category,
			created_at,
			updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING product_id
	`

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	err = tx.QueryRow(ctx, sql,
		p.ShopID,
		p.Name,
		p.Price,
		p.Description,
		p.Stock,
		p.Category,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ProductID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("shop %d: %w", p.ShopID, ErrNotFound)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := replaceImages(ctx, tx, p.ProductID, p.Images); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func replaceImages(ctx context.Context, tx pgx.Tx, productID int64, images []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product images: %w", err)
	}

	for i, url := range images {
		_, err := tx.Exec(ctx,
			`INSERT INTO product_images (product_id, url, position) VALUES ($1, $2, $3)`,
			productID, url, i,
		)
		if err != nil {
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}
	return nil
}

const productSelect = `
	SELECT
		p.product_id,
		p.shop_id,
		s.name,
		p.name,
		p.description,
		p.price,
		p.stock,
		p.category,
		p.created_at,
		p.updated_at,
		COALESCE(rs.avg_rating, 0)::float8,
		COALESCE(rs.review_count, 0)
	FROM products p
	JOIN shops s ON s.shop_id = p.shop_id
	LEFT JOIN (
		SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
		FROM reviews
		GROUP BY product_id
	) rs ON rs.product_id = p.product_id
`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ProductID,
		&p.ShopID,
		&p.ShopName,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Category,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.AverageRating,
		&p.ReviewCount,
	)
	if err != nil {
		return nil, err
	}
	p.Images = []string{}
	return &p, nil
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	product, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.product_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	images, err := r.loadImages(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if urls, ok := images[id]; ok {
		product.Images = urls
	}

	reviews, err := r.loadReviews(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews

	return product, nil
}

var productOrder = map[models.ProductSort]string{
	models.SortNewest:    `p.created_at DESC, p.product_id DESC`,
	models.SortPriceAsc:  `p.price ASC, p.product_id`,
	models.SortPriceDesc: `p.price DESC, p.product_id`,
	models.SortRating:    `COALESCE(rs.avg_rating, 0) DESC, p.product_id`,
	models.SortName:      `p.name ASC, p.product_id`,
}

func productWhere(f models.ProductFilter, args *queryArgs) string {
	var conds []string
	if q := strings.TrimSpace(f.Query); q != "" {
		ph := args.add("%" + q + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", ph, ph))
	}
	if f.Category != "" {
		conds = append(conds, "p.category = "+args.add(f.Category))
	}
	if f.ShopID > 0 {
		conds = append(conds, "p.shop_id = "+args.add(f.ShopID))
	}
	if f.MinPrice.Valid {
		conds = append(conds, "p.price >= "+args.add(f.MinPrice.Decimal))
	}
	if f.MaxPrice.Valid {
		conds = append(conds, "p.price <= "+args.add(f.MaxPrice.Decimal))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *productRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}
	orderBy, ok := productOrder[f.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown sort '%s'", ErrInvalidInput, f.Sort)
	}
	page := f.PageRequest.Normalize()

	var args queryArgs
	where := productWhere(f, &args)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sql := productSelect + where +
		` ORDER BY ` + orderBy +
		` LIMIT ` + args.add(page.Limit) +
		` OFFSET ` + args.add(page.Offset())

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	ids := []int64{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, *p)
		ids = append(ids, p.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	images, err := r.loadImages(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		if urls, ok := images[products[i].ProductID]; ok {
			products[i].Images = urls
		}
	}

	return products, total, nil
}

func (r *productRepo) loadImages(ctx context.Context, ids []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT product_id, url FROM product_images
		WHERE product_id = ANY($1::bigint[])
		ORDER BY product_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var url string
		if err := rows.Scan(&productID, &url); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		out[productID] = append(out[productID], url)
	}

	return out, rows.Err()
}

func (r *productRepo) loadReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.review_id, r.product_id, r.user_id, u.name, r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.review_id DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		err := rows.Scan(
			&rv.ReviewID,
			&rv.ProductID,
			&rv.UserID,
			&rv.UserName,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	return reviews, rows.Err()
}

func (r *productRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error) {
	out := make(map[int64]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	sql := `SELECT
		product_id,
		shop_id,
		name,
		price,
		stock
		FROM products WHERE product_id = ANY($1::bigint[])
	`

	rows, err := r.db.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products information: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ProductID, &p.ShopID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product data: %w", err)
		}
		out[p.ProductID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return out, nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.ProductID <= 0 {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql := `
	UPDATE products
	SET
		name = $1,
		price = $2,
		description = $3,
		stock = $4,
		category = $5,
		updated_at = $6
	WHERE product_id = $7 AND shop_id = $8
	RETURNING updated_at
	`

	err = tx.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		p.Description,
		p.Stock,
		p.Category,
		time.Now().UTC(),
		p.ProductID,
		p.ShopID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update product %d: %w", p.ProductID, err)
	}

	if p.Images != nil {
		if err := replaceImages(ctx, tx, p.ProductID, p.Images); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes the product; order lines, images and reviews that
// reference it go with it through ON DELETE CASCADE.
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *productRepo) AddReview(ctx context.Context, rv *models.Review) error {
	if rv.Rating < 1 || rv.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if rv.ProductID <= 0 || rv.UserID <= 0 {
		return fmt.Errorf("%w: product and user are required", ErrInvalidInput)
	}

	sql := `INSERT INTO reviews (product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING review_id`

	rv.CreatedAt = time.Now().UTC()

	err := r.db.QueryRow(ctx, sql, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ReviewID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}
