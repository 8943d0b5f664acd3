package service

import (
	"context"
	"fmt"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductPage struct {
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
}

type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    string          `json:"category" validate:"max=100"`
	Images      []string        `json:"images" validate:"omitempty,max=10,dive,url"`
}

type QuoteItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type QuoteLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ShopID    int64           `json:"shopId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	InStock   bool            `json:"inStock"`
}

type Quote struct {
	Lines    []QuoteLine     `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type CatalogService struct {
	products repository.ProductRepository
	shops    repository.ShopRepository
	log      *zap.Logger
}

func NewCatalogService(products repository.ProductRepository, shops repository.ShopRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		shops:    shops,
		log:      log.With(zap.String("component", "catalog")),
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, f models.ProductFilter) (*ProductPage, error) {
	if f.Sort == "" {
		f.Sort = models.SortNewest
	}
	if !f.Sort.Valid() {
		return nil, fmt.Errorf("%w: unknown sort '%s'", repository.ErrInvalidInput, f.Sort)
	}
	if f.MinPrice.Valid && f.MaxPrice.Valid && f.MinPrice.Decimal.GreaterThan(f.MaxPrice.Decimal) {
		return nil, fmt.Errorf("%w: minPrice is greater than maxPrice", repository.ErrInvalidInput)
	}
	f.PageRequest = f.PageRequest.Normalize()

	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &ProductPage{Products: products, Pagination: models.NewPagination(total, f.PageRequest)}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Quote prices a cart from live product prices.
func (s *CatalogService) Quote(ctx context.Context, items []QuoteItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", repository.ErrInvalidInput)
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: each item needs a productId and a positive quantity", repository.ErrInvalidInput)
		}
		ids = append(ids, it.ProductID)
	}

	live, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	q := &Quote{Lines: make([]QuoteLine, 0, len(items)), Subtotal: decimal.Zero}
	for _, it := range items {
		p, ok := live[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, repository.ErrNotFound)
		}
		line := QuoteLine{
			ProductID: p.ProductID,
			Name:      p.Name,
			ShopID:    p.ShopID,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			LineTotal: p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
			InStock:   p.Stock >= it.Quantity,
		}
		q.Lines = append(q.Lines, line)
		q.Subtotal = q.Subtotal.Add(line.LineTotal)
	}
	return q, nil
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, userID int64, page models.PageRequest) (*ProductPage, error) {
	shop, err := sellerShop(ctx, s.shops, userID)
	if err != nil {
		return nil, err
	}
	return s.ListProducts(ctx, models.ProductFilter{ShopID: shop.ShopID, PageRequest: page})
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID int64, in ProductInput) (*models.Product, error) {
	if err := validateProductInput(in); err != nil {
		return nil, err
	}
	shop, err := sellerShop(ctx, s.shops, userID)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		ShopID:      shop.ShopID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Images:      in.Images,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.Int64("product_id", p.ProductID), zap.Int64("shop_id", shop.ShopID))
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, userID, productID int64, in ProductInput) (*models.Product, error) {
	if err := validateProductInput(in); err != nil {
		return nil, err
	}
	existing, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Price = in.Price
	existing.Stock = in.Stock
	existing.Category = in.Category
	existing.Images = in.Images

	if err := s.products.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.products.GetByID(ctx, productID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, userID, productID int64) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("product_id", productID))
	return nil
}

func (s *CatalogService) AddReview(ctx context.Context, userID, productID int64, in ReviewInput) (*models.Review, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	rv := &models.Review{ProductID: productID, UserID: userID, Rating: in.Rating, Comment: in.Comment}
	if err := s.products.AddReview(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// GetShop returns the shop with its first page of products.
func (s *CatalogService) GetShop(ctx context.Context, shopID int64) (*models.Shop, error) {
	shop, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	products, _, err := s.products.List(ctx, models.ProductFilter{
		ShopID:      shopID,
		Sort:        models.SortNewest,
		PageRequest: models.PageRequest{Page: 1, Limit: models.MaxPageLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("list shop products: %w", err)
	}
	shop.Products = products
	return shop, nil
}

// ownedProduct loads the product and reports ErrNotFound when it belongs
// to another shop.
func (s *CatalogService) ownedProduct(ctx context.Context, userID, productID int64) (*models.Product, error) {
	shop, err := sellerShop(ctx, s.shops, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.ShopID != shop.ShopID {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func validateProductInput(in ProductInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", repository.ErrInvalidInput)
	}
	return nil
}
