package handlers

import (
	"context"
	"net/http"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"go.uber.org/zap"
)

type ApplicationService interface {
	Submit(ctx context.Context, userID int64, in service.ApplicationInput) (*models.SellerApplication, error)
	List(ctx context.Context, status models.ApplicationStatus) ([]models.SellerApplication, error)
	Mine(ctx context.Context, userID int64) (*models.SellerApplication, error)
	Decide(ctx context.Context, id int64, status models.ApplicationStatus) (*service.Decision, error)
}

type ApplicationHandler struct {
	svc ApplicationService
	log *zap.Logger
}

func NewApplicationHandler(svc ApplicationService, log *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, log: log}
}

type decisionRequest struct {
	Status models.ApplicationStatus `json:"status"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.ApplicationInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	app, err := h.svc.Submit(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "application")
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.svc.List(r.Context(), models.ApplicationStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, h.log, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (h *ApplicationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.Mine(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, h.log, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "application")
	if !ok {
		return
	}

	var req decisionRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	d, err := h.svc.Decide(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, d)
}
