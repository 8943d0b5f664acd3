package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/auth"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/config"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/database"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// seed loads a demo catalog: an admin, an approved seller with a shop and
// a handful of products. Running it twice is harmless.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log, err := logger.New("quickship-seed", cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, cfg, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return err
	}

	users := repository.NewUserRepository(pool)
	apps := service.NewApplicationService(repository.NewApplicationRepository(pool), users, log)
	catalog := service.NewCatalogService(repository.NewProductRepository(pool), repository.NewShopRepository(pool), log)

	if _, err := ensureUser(ctx, users, "Admin", "admin@quickship.local", models.RoleAdmin); err != nil {
		return err
	}

	seller, err := ensureUser(ctx, users, "Meera Traders", "seller@quickship.local", models.RoleUser)
	if err != nil {
		return err
	}
	if err := ensureShop(ctx, pool, apps, seller); err != nil {
		return err
	}

	existing, err := catalog.ListSellerProducts(ctx, seller.UserID, models.PageRequest{Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if existing.Pagination.Total > 0 {
		log.Info("catalog already seeded", zap.Int64("products", existing.Pagination.Total))
		return nil
	}

	for _, p := range demoProducts() {
		created, err := catalog.CreateProduct(ctx, seller.UserID, p)
		if err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
		log.Info("product created", zap.Int64("product_id", created.ProductID), zap.String("name", created.Name))
	}
	return nil
}

func ensureUser(ctx context.Context, users repository.UserRepository, name, email string, role models.Role) (*models.User, error) {
	u, err := users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword("change-me-please")
	if err != nil {
		return nil, err
	}
	u = &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}

// ensureShop drives the seller through the normal application approval so
// the seed exercises the same transaction the admin console uses.
func ensureShop(ctx context.Context, pool *pgxpool.Pool, apps *service.ApplicationService, seller *models.User) error {
	if seller.Role == models.RoleSeller {
		return nil
	}

	app, err := apps.Submit(ctx, seller.UserID, service.ApplicationInput{
		ShopName:        "Meera Kitchenware",
		ShopDescription: "Brass and steel kitchenware",
		ShopLocation:    "Jaipur",
	})
	if errors.Is(err, repository.ErrDuplicate) {
		app, err = apps.Mine(ctx, seller.UserID)
	}
	if err != nil {
		return err
	}

	if _, err := apps.Decide(ctx, app.ApplicationID, models.ApplicationApproved); err != nil {
		return err
	}

	var role string
	if err := pool.QueryRow(ctx, `SELECT role FROM users WHERE user_id = $1`, seller.UserID).Scan(&role); err != nil {
		return err
	}
	if models.Role(role) != models.RoleSeller {
		return fmt.Errorf("seller %d still has role %s after approval", seller.UserID, role)
	}
	return nil
}

func demoProducts() []service.ProductInput {
	price := decimal.RequireFromString
	return []service.ProductInput{
		{Name: "Brass Kettle", Description: "1.5L hand-hammered brass", Price: price("199.50"), Stock: 25, Category: "kitchen"},
		{Name: "Steel Tiffin", Description: "Three-tier lunch box", Price: price("349.00"), Stock: 40, Category: "kitchen"},
		{Name: "Copper Tumbler", Description: "Set of two", Price: price("249.00"), Stock: 60, Category: "dining"},
		{Name: "Spice Box", Description: "Seven-bowl masala dabba", Price: price("499.00"), Stock: 15, Category: "kitchen"},
	}
}
