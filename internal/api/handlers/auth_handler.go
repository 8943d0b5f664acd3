package handlers

import (
	"context"
	"net/http"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"go.uber.org/zap"
)

type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
}

type AuthHandler struct {
	svc AccountService
	log *zap.Logger
}

func NewAuthHandler(svc AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), models.Role(r.URL.Query().Get("role")))
	if err != nil {
		writeServiceError(w, r, h.log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
