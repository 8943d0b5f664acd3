package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/events"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"go.uber.org/zap"
)

type OrderPage struct {
	Orders     []models.Order    `json:"orders"`
	Pagination models.Pagination `json:"pagination"`
}

// OrderUpdate carries the fields an admin or seller may change. Empty
// fields are left as they are.
type OrderUpdate struct {
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

type OrderService struct {
	orders    repository.OrderRepository
	shops     repository.ShopRepository
	publisher events.Publisher
	log       *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, shops repository.ShopRepository, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		shops:     shops,
		publisher: publisher,
		log:       log.With(zap.String("component", "orders")),
	}
}

func (s *OrderService) list(ctx context.Context, f models.OrderFilter) (*OrderPage, error) {
	f.PageRequest = f.PageRequest.Normalize()

	orders, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{Orders: orders, Pagination: models.NewPagination(total, f.PageRequest)}, nil
}

// ListAll is the admin view over every order.
func (s *OrderService) ListAll(ctx context.Context, f models.OrderFilter) (*OrderPage, error) {
	f.UserID, f.ShopID = 0, 0
	return s.list(ctx, f)
}

// ListForSeller returns orders with at least one line from the seller's shop.
func (s *OrderService) ListForSeller(ctx context.Context, userID int64, f models.OrderFilter) (*OrderPage, error) {
	shop, err := sellerShop(ctx, s.shops, userID)
	if err != nil {
		return nil, err
	}
	f.UserID, f.ShopID = 0, shop.ShopID
	return s.list(ctx, f)
}

func (s *OrderService) ListForBuyer(ctx context.Context, userID int64, page models.PageRequest) (*OrderPage, error) {
	return s.list(ctx, models.OrderFilter{UserID: userID, PageRequest: page})
}

// GetForBuyer hides orders that belong to someone else behind ErrNotFound.
func (s *OrderService) GetForBuyer(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) UpdateByAdmin(ctx context.Context, orderID int64, upd OrderUpdate) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, order, upd)
}

// UpdateBySeller changes the order status only, and only for orders that
// contain the seller's products.
func (s *OrderService) UpdateBySeller(ctx context.Context, userID, orderID int64, status models.OrderStatus) (*models.Order, error) {
	shop, err := sellerShop(ctx, s.shops, userID)
	if err != nil {
		return nil, err
	}

	ok, err := s.orders.HasShopItems(ctx, orderID, shop.ShopID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrNotFound
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, order, OrderUpdate{Status: status})
}

func (s *OrderService) apply(ctx context.Context, order *models.Order, upd OrderUpdate) (*models.Order, error) {
	if upd.Status == "" && upd.PaymentStatus == "" {
		return nil, fmt.Errorf("%w: status or paymentStatus required", repository.ErrInvalidInput)
	}
	if upd.Status != "" && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status '%s'", repository.ErrInvalidInput, upd.Status)
	}
	if upd.PaymentStatus != "" && !upd.PaymentStatus.Valid() {
		return nil, fmt.Errorf("%w: invalid payment status '%s'", repository.ErrInvalidInput, upd.PaymentStatus)
	}

	statusChange := upd.Status != "" && upd.Status != order.Status
	if statusChange && !order.Status.CanTransitionTo(upd.Status) {
		return nil, fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, order.Status, upd.Status)
	}

	paymentChange := false
	if upd.PaymentStatus != "" {
		if order.Payment == nil {
			return nil, fmt.Errorf("%w: order %d has no payment", repository.ErrInvalidInput, order.OrderID)
		}
		paymentChange = upd.PaymentStatus != order.Payment.Status
		if paymentChange && !order.Payment.Status.CanTransitionTo(upd.PaymentStatus) {
			return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, order.Payment.Status, upd.PaymentStatus)
		}
	}

	if !statusChange && !paymentChange {
		return order, nil
	}

	log := logger.FromContext(ctx, s.log).With(zap.Int64("order_id", order.OrderID))

	change := models.StatusChange{}
	if statusChange {
		change.StatusFrom, change.StatusTo = order.Status, upd.Status
	}
	if paymentChange {
		change.PaymentFrom, change.PaymentTo = order.Payment.Status, upd.PaymentStatus
	}
	if err := s.orders.UpdateStatuses(ctx, order.OrderID, change); err != nil {
		return nil, err
	}

	if statusChange {
		log.Info("order status changed", zap.String("from", string(order.Status)), zap.String("to", string(upd.Status)))
	}
	if paymentChange {
		log.Info("payment status changed",
			zap.String("from", string(order.Payment.Status)),
			zap.String("to", string(upd.PaymentStatus)))
	}

	updated, err := s.orders.GetByID(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("reload order %d: %w", order.OrderID, err)
	}

	if statusChange {
		publish(ctx, s.publisher, log, events.NewOrderEvent(events.TypeOrderStatusChanged, updated))
	}
	return updated, nil
}

// sellerShop resolves the caller's shop. Callers without one are refused.
func sellerShop(ctx context.Context, shops repository.ShopRepository, userID int64) (*models.Shop, error) {
	shop, err := shops.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d has no shop", ErrForbidden, userID)
		}
		return nil, fmt.Errorf("load shop: %w", err)
	}
	return shop, nil
}
