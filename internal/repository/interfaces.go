package repository

import (
	"context"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
}

type ShopRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Shop, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Shop, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error

	GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Product, error)
	AddReview(ctx context.Context, review *models.Review) error
}

type OrderRepository interface {
	// CreateWithPayment persists the order, its items and its payment in
	// one transaction.
	CreateWithPayment(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)

	// UpdateStatuses applies both sides of change in one transaction. It
	// fails with ErrConflict, writing nothing, when either stored status no
	// longer matches its From value.
	UpdateStatuses(ctx context.Context, orderID int64, change models.StatusChange) error
	HasShopItems(ctx context.Context, orderID, shopID int64) (bool, error)
}

type ApplicationRepository interface {
	// Create fails with ErrDuplicate when the user already has a pending
	// application.
	Create(ctx context.Context, app *models.SellerApplication) error
	GetByID(ctx context.Context, id int64) (*models.SellerApplication, error)
	GetLatestByUserID(ctx context.Context, userID int64) (*models.SellerApplication, error)
	List(ctx context.Context, status models.ApplicationStatus) ([]models.SellerApplication, error)

	// Approve marks the application approved, creates the seller and shop
	// and promotes the user, all in one transaction.
	Approve(ctx context.Context, id int64) (*models.Shop, error)
	// Reject deletes a pending application.
	Reject(ctx context.Context, id int64) error
}
