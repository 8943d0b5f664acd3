package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"go.uber.org/zap"
)

type OrderService interface {
	ListAll(ctx context.Context, f models.OrderFilter) (*service.OrderPage, error)
	ListForSeller(ctx context.Context, userID int64, f models.OrderFilter) (*service.OrderPage, error)
	ListForBuyer(ctx context.Context, userID int64, page models.PageRequest) (*service.OrderPage, error)
	GetForBuyer(ctx context.Context, userID, orderID int64) (*models.Order, error)
	UpdateByAdmin(ctx context.Context, orderID int64, upd service.OrderUpdate) (*models.Order, error)
	UpdateBySeller(ctx context.Context, userID, orderID int64, status models.OrderStatus) (*models.Order, error)
}

type OrderHandler struct {
	svc OrderService
	log *zap.Logger
}

func NewOrderHandler(svc OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type sellerOrderUpdate struct {
	Status models.OrderStatus `json:"status"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func orderFilter(w http.ResponseWriter, r *http.Request) (models.OrderFilter, bool) {
	q := r.URL.Query()
	page, err := parsePage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return models.OrderFilter{}, false
	}

	f := models.OrderFilter{
		Status:        models.OrderStatus(q.Get("status")),
		PaymentStatus: models.PaymentStatus(q.Get("paymentStatus")),
		PageRequest:   page,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown status filter", nil)
		return f, false
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown paymentStatus filter", nil)
		return f, false
	}
	return f, true
}

func (h *OrderHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	f, ok := orderFilter(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListAll(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req service.OrderUpdate
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	order, err := h.svc.UpdateByAdmin(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) SellerList(w http.ResponseWriter, r *http.Request) {
	f, ok := orderFilter(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListForSeller(r.Context(), principal(r).UserID, f)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) SellerUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	var req sellerOrderUpdate
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	order, err := h.svc.UpdateBySeller(r.Context(), principal(r).UserID, id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	res, err := h.svc.ListForBuyer(r.Context(), principal(r).UserID, page)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *OrderHandler) MyOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order")
	if !ok {
		return
	}

	order, err := h.svc.GetForBuyer(r.Context(), principal(r).UserID, id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}
