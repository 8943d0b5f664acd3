package cache

import (
	"context"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
)

// StockInvalidatingOrderRepository drops cached product details once an
// order commits, since the order transaction lowers product stock.
type StockInvalidatingOrderRepository struct {
	repository.OrderRepository
	products *CachedProductRepository
}

var _ repository.OrderRepository = (*StockInvalidatingOrderRepository)(nil)

func NewStockInvalidatingOrderRepository(orders repository.OrderRepository, products *CachedProductRepository) *StockInvalidatingOrderRepository {
	return &StockInvalidatingOrderRepository{OrderRepository: orders, products: products}
}

func (r *StockInvalidatingOrderRepository) CreateWithPayment(ctx context.Context, order *models.Order) error {
	if err := r.OrderRepository.CreateWithPayment(ctx, order); err != nil {
		return err
	}
	for _, it := range order.Items {
		r.products.invalidate(ctx, it.ProductID)
	}
	return nil
}
