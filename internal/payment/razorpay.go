package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrGateway = errors.New("payment gateway error")

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error)
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

type RazorpayClient struct {
	cfg     RazorpayConfig
	http    *http.Client
	tracer  trace.Tracer
	observe func(time.Duration)
}

func NewRazorpayClient(cfg RazorpayConfig, observe func(time.Duration)) *RazorpayClient {
	if observe == nil {
		observe = func(time.Duration) {}
	}
	return &RazorpayClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		tracer:  otel.Tracer("quickship/payment"),
		observe: observe,
	}
}

// MinorUnits converts a rupee amount to paise, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (_ *GatewayOrder, err error) {
	ctx, span := c.tracer.Start(ctx, "razorpay.CreateOrder", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(createOrderRequest{
		Amount:   MinorUnits(amount),
		Currency: c.cfg.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode gateway request: %w", err)
	}
	span.SetAttributes(attribute.String("payment.receipt", receipt), attribute.String("payment.currency", c.cfg.Currency))

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	start := time.Now()
	resp, err := c.http.Do(req)
	c.observe(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge gatewayError
		if json.Unmarshal(payload, &ge) == nil && ge.Error.Description != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, ge.Error.Description)
		}
		return nil, fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrGateway)
	}
	return &order, nil
}
