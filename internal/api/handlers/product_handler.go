package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListProducts(ctx context.Context, f models.ProductFilter) (*service.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	Quote(ctx context.Context, items []service.QuoteItem) (*service.Quote, error)
	ListSellerProducts(ctx context.Context, userID int64, page models.PageRequest) (*service.ProductPage, error)
	CreateProduct(ctx context.Context, userID int64, in service.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, userID, productID int64, in service.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, userID, productID int64) error
	AddReview(ctx context.Context, userID, productID int64, in service.ReviewInput) (*models.Review, error)
	GetShop(ctx context.Context, shopID int64) (*models.Shop, error)
}

type ProductHandler struct {
	svc CatalogService
	log *zap.Logger
}

func NewProductHandler(svc CatalogService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

type quoteRequest struct {
	Items []service.QuoteItem `json:"items"`
}

func parseProductFilter(r *http.Request) (models.ProductFilter, string) {
	q := r.URL.Query()

	page, err := parsePage(q)
	if err != nil {
		return models.ProductFilter{}, err.Error()
	}

	f := models.ProductFilter{
		Query:       q.Get("q"),
		Category:    q.Get("category"),
		Sort:        models.ProductSort(q.Get("sort")),
		PageRequest: page,
	}

	if v := q.Get("shopId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, "shopId must be a positive integer"
		}
		f.ShopID = id
	}
	for key, dst := range map[string]*decimal.NullDecimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return f, key + " must be a non-negative number"
		}
		*dst = decimal.NewNullDecimal(d)
	}
	return f, ""
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	f, problem := parseProductFilter(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, "invalid_input", problem, nil)
		return
	}

	page, err := h.svc.ListProducts(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	quote, err := h.svc.Quote(r.Context(), req.Items)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *ProductHandler) SellerList(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	res, err := h.svc.ListSellerProducts(r.Context(), principal(r).UserID, page)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProductInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), principal(r).UserID, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "shop")
		return
	}

	w.Header().Set("Location", "/products/"+formatID(p.ProductID))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	var req service.ProductInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p, err := h.svc.UpdateProduct(r.Context(), principal(r).UserID, id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), principal(r).UserID, id); err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product")
	if !ok {
		return
	}

	var req service.ReviewInput
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	rv, err := h.svc.AddReview(r.Context(), principal(r).UserID, id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "product")
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ProductHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shop")
	if !ok {
		return
	}

	shop, err := h.svc.GetShop(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "shop")
		return
	}
	writeJSON(w, http.StatusOK, shop)
}
