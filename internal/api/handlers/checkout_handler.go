package handlers

import (
	"context"
	"net/http"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateIntent(ctx context.Context, req service.IntentRequest) (*service.Intent, error)
	Verify(ctx context.Context, req service.VerifyRequest) (*service.VerifyResult, error)
}

type CheckoutHandler struct {
	svc CheckoutService
	log *zap.Logger
}

func NewCheckoutHandler(svc CheckoutService, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, log: log}
}

// callerID resolves the user a checkout acts for. A body userId is only
// accepted when it names the caller, or when the caller is an admin.
func callerID(w http.ResponseWriter, r *http.Request, bodyUserID int64) (int64, bool) {
	p := principal(r)
	if bodyUserID == 0 || bodyUserID == p.UserID {
		return p.UserID, true
	}
	if p.Role == models.RoleAdmin {
		return bodyUserID, true
	}
	writeError(w, http.StatusForbidden, "forbidden", "cannot check out for another user", nil)
	return 0, false
}

func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.IntentRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	userID, ok := callerID(w, r, req.UserID)
	if !ok {
		return
	}
	req.UserID = userID

	intent, err := h.svc.CreateIntent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "order")
		return
	}

	writeJSON(w, http.StatusOK, intent)
}

func (h *CheckoutHandler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	userID, ok := callerID(w, r, req.UserID)
	if !ok {
		return
	}
	req.UserID = userID

	res, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}

	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Location", "/orders/"+formatID(res.Order.OrderID))
	writeJSON(w, http.StatusCreated, res)
}
