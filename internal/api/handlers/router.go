package handlers

import (
	"net/http"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/metrics"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Checkout     CheckoutService
	Orders       OrderService
	Catalog      CatalogService
	Applications ApplicationService
	Accounts     AccountService
	Tokens       TokenParser
	DB           Pinger
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	checkout := NewCheckoutHandler(d.Checkout, d.Log)
	orders := NewOrderHandler(d.Orders, d.Log)
	products := NewProductHandler(d.Catalog, d.Log)
	apps := NewApplicationHandler(d.Applications, d.Log)
	accounts := NewAuthHandler(d.Accounts, d.Log)
	health := NewHealthHandler(d.DB, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Observe(d.Log, d.Metrics))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Get("/health", health.Check)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Post("/auth/register", accounts.Register)
	r.Post("/auth/login", accounts.Login)

	r.Get("/products", products.List)
	r.Get("/products/{id}", products.GetByID)
	r.Post("/cart/quote", products.Quote)
	r.Get("/shops/{id}", products.GetShop)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(d.Tokens))

		r.Post("/createOrder", checkout.CreateOrder)
		r.Post("/verifyOrder", checkout.VerifyOrder)

		r.Get("/orders", orders.MyOrders)
		r.Get("/orders/{id}", orders.MyOrder)

		r.Post("/products/{id}/reviews", products.AddReview)

		r.Post("/seller-applications", apps.Submit)
		r.Get("/seller-applications/me", apps.Mine)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleSeller))

			r.Get("/seller/orders", orders.SellerList)
			r.Put("/seller/orders/{id}", orders.SellerUpdate)

			r.Get("/seller/products", products.SellerList)
			r.Post("/seller/products", products.Create)
			r.Put("/seller/products/{id}", products.Update)
			r.Delete("/seller/products/{id}", products.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(models.RoleAdmin))

			r.Get("/admin/orders", orders.AdminList)
			r.Patch("/admin/orders/{id}", orders.AdminUpdate)
			r.Get("/admin/users", accounts.ListUsers)

			r.Get("/seller-applications", apps.List)
			r.Put("/seller-applications/{id}", apps.Decide)
		})
	})

	return r
}
