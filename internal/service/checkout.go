package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/events"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/metrics"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/payment"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartItem is one line of a checkout as the client sends it. Price is
// optional; when set it must match the live product price.
type CartItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type IntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UserID int64           `json:"userId"`
	Items  []CartItem      `json:"orderedItems"`
}

type Intent struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type VerifyRequest struct {
	OrderCreationID   string          `json:"orderCreationId"`
	RazorpayPaymentID string          `json:"razorpayPaymentId"`
	RazorpaySignature string          `json:"razorpaySignature"`
	OrderedItems      []CartItem      `json:"orderedItems"`
	UserID            int64           `json:"userId"`
	Amount            decimal.Decimal `json:"amount"`
}

type VerifyResult struct {
	IsOK  bool          `json:"isOk"`
	Order *models.Order `json:"order"`
	// Replayed is set when the payment had already been recorded.
	Replayed bool `json:"-"`
}

const (
	outcomeCompleted         = "completed"
	outcomeReplayed          = "replayed"
	outcomeMissing           = "data_missing"
	outcomeSignatureMismatch = "signature_mismatch"
	outcomeRejected          = "rejected"
	outcomeError             = "error"
)

type CheckoutService struct {
	gateway   payment.Gateway
	secret    string
	users     repository.UserRepository
	products  repository.ProductRepository
	orders    repository.OrderRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func NewCheckoutService(
	gateway payment.Gateway,
	secret string,
	users repository.UserRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		gateway:   gateway,
		secret:    secret,
		users:     users,
		products:  products,
		orders:    orders,
		publisher: publisher,
		metrics:   m,
		log:       log.With(zap.String("component", "checkout")),
	}
}

// CreateIntent registers a payable order with the gateway. Nothing is
// stored locally until the payment is verified.
func (s *CheckoutService) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", repository.ErrInvalidInput)
	}

	receipt := "rcpt_" + uuid.NewString()
	order, err := s.gateway.CreateOrder(ctx, req.Amount, receipt)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	logger.FromContext(ctx, s.log).Info("payment intent created",
		zap.String("gateway_order_id", order.ID),
		zap.Int64("user_id", req.UserID),
		zap.String("amount", req.Amount.StringFixed(2)),
	)

	return &Intent{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  receipt,
	}, nil
}

// Verify checks the gateway signature and records the order, its lines
// and the completed payment. Verifying an already recorded payment
// returns the stored order instead of creating another.
func (s *CheckoutService) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	outcome := outcomeError
	defer func() { s.observe(outcome) }()

	log := logger.FromContext(ctx, s.log).With(
		zap.String("gateway_order_id", req.OrderCreationID),
		zap.String("payment_id", req.RazorpayPaymentID),
	)

	if req.OrderCreationID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" ||
		len(req.OrderedItems) == 0 || req.UserID <= 0 || !req.Amount.IsPositive() {
		outcome = outcomeMissing
		return nil, ErrDataMissing
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			outcome = outcomeRejected
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", req.UserID, err)
	}

	if !payment.VerifySignature(s.secret, req.OrderCreationID, req.RazorpayPaymentID, req.RazorpaySignature) {
		outcome = outcomeSignatureMismatch
		log.Warn("payment signature mismatch")
		return nil, ErrSignatureMismatch
	}

	existing, err := s.orders.GetByTransactionID(ctx, req.RazorpayPaymentID)
	switch {
	case err == nil:
		outcome = outcomeReplayed
		log.Info("payment already recorded", zap.Int64("order_id", existing.OrderID))
		return &VerifyResult{IsOK: true, Order: existing, Replayed: true}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("lookup payment: %w", err)
	}

	items, err := s.priceItems(ctx, req.OrderedItems)
	if err != nil {
		outcome = outcomeRejected
		return nil, err
	}

	total := models.ItemsTotal(items)
	if !req.Amount.Equal(total) {
		outcome = outcomeRejected
		return nil, fmt.Errorf("%w: paid %s, items total %s", ErrAmountMismatch, req.Amount.StringFixed(2), total.StringFixed(2))
	}

	order := &models.Order{
		UserID:         req.UserID,
		Total:          total,
		Status:         models.OrderPending,
		GatewayOrderID: req.OrderCreationID,
		Items:          items,
		Payment: &models.Payment{
			TransactionID: req.RazorpayPaymentID,
			Amount:        total,
			Status:        models.PaymentCompleted,
			Provider:      models.ProviderRazorpay,
		},
	}

	if err := s.orders.CreateWithPayment(ctx, order); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("record order: %w", err)
		}
		// Lost a race against a concurrent verification of the same payment.
		winner, lookupErr := s.orders.GetByTransactionID(ctx, req.RazorpayPaymentID)
		if lookupErr != nil {
			if errors.Is(lookupErr, repository.ErrNotFound) {
				outcome = outcomeRejected
				return nil, fmt.Errorf("%w: gateway order %s already paid", repository.ErrConflict, req.OrderCreationID)
			}
			return nil, fmt.Errorf("reload order after duplicate: %w", lookupErr)
		}
		outcome = outcomeReplayed
		return &VerifyResult{IsOK: true, Order: winner, Replayed: true}, nil
	}

	outcome = outcomeCompleted
	log.Info("order recorded", zap.Int64("order_id", order.OrderID), zap.String("total", total.StringFixed(2)))

	if stored, err := s.orders.GetByID(ctx, order.OrderID); err == nil {
		order = stored
	} else {
		log.Warn("reload order failed", zap.Int64("order_id", order.OrderID), zap.Error(err))
	}

	publish(ctx, s.publisher, log, events.NewOrderEvent(events.TypeOrderPlaced, order))

	return &VerifyResult{IsOK: true, Order: order}, nil
}

// priceItems resolves each cart line against the live catalog. The
// stored unit price is always the product's current price.
func (s *CheckoutService) priceItems(ctx context.Context, cart []CartItem) ([]models.OrderItem, error) {
	ids := make([]int64, 0, len(cart))
	for _, it := range cart {
		if it.ProductID <= 0 {
			return nil, fmt.Errorf("%w: product id required", repository.ErrInvalidInput)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for product %d must be positive", repository.ErrInvalidInput, it.ProductID)
		}
		ids = append(ids, it.ProductID)
	}

	live, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	items := make([]models.OrderItem, 0, len(cart))
	for _, it := range cart {
		p, ok := live[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", it.ProductID, repository.ErrNotFound)
		}
		if !it.Price.IsZero() && !it.Price.Equal(p.Price) {
			return nil, fmt.Errorf("%w: product %d costs %s, got %s",
				ErrPriceMismatch, it.ProductID, p.Price.StringFixed(2), it.Price.StringFixed(2))
		}
		items = append(items, models.OrderItem{
			ProductID:   p.ProductID,
			ProductName: p.Name,
			ShopID:      p.ShopID,
			Quantity:    it.Quantity,
			Price:       p.Price,
		})
	}
	return items, nil
}

func (s *CheckoutService) observe(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Verifications.WithLabelValues(outcome).Inc()
}

// publish sends the event and only logs on failure. The order is already
// committed at this point.
func publish(ctx context.Context, p events.Publisher, log *zap.Logger, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Error("publish event failed",
			zap.String("type", ev.Type),
			zap.Int64("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}
