package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/logger"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"go.uber.org/zap"
)

type ApplicationInput struct {
	ShopName        string `json:"shopName" validate:"required,min=2,max=150"`
	ShopDescription string `json:"shopDescription" validate:"max=2000"`
	ShopLocation    string `json:"shopLocation" validate:"max=255"`
}

type Decision struct {
	ApplicationID int64                    `json:"applicationId"`
	Status        models.ApplicationStatus `json:"status"`
	Shop          *models.Shop             `json:"shop,omitempty"`
}

type ApplicationService struct {
	apps  repository.ApplicationRepository
	users repository.UserRepository
	log   *zap.Logger
}

func NewApplicationService(apps repository.ApplicationRepository, users repository.UserRepository, log *zap.Logger) *ApplicationService {
	return &ApplicationService{
		apps:  apps,
		users: users,
		log:   log.With(zap.String("component", "seller_applications")),
	}
}

// Submit files a seller application for a plain user. A second pending
// application, or one from a seller or admin, is a conflict.
func (s *ApplicationService) Submit(ctx context.Context, userID int64, in ApplicationInput) (*models.SellerApplication, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.Role != models.RoleUser {
		return nil, fmt.Errorf("%w: user is already %s", repository.ErrConflict, user.Role)
	}

	app := &models.SellerApplication{
		UserID:          userID,
		ShopName:        in.ShopName,
		ShopDescription: in.ShopDescription,
		ShopLocation:    in.ShopLocation,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("seller application submitted",
		zap.Int64("application_id", app.ApplicationID),
		zap.Int64("user_id", userID))
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, status models.ApplicationStatus) ([]models.SellerApplication, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status '%s'", repository.ErrInvalidInput, status)
	}
	return s.apps.List(ctx, status)
}

func (s *ApplicationService) Mine(ctx context.Context, userID int64) (*models.SellerApplication, error) {
	return s.apps.GetLatestByUserID(ctx, userID)
}

// Decide approves or rejects a pending application. Approval creates the
// seller and shop and promotes the user in one transaction; rejection
// deletes the application.
func (s *ApplicationService) Decide(ctx context.Context, id int64, status models.ApplicationStatus) (*Decision, error) {
	log := logger.FromContext(ctx, s.log).With(zap.Int64("application_id", id))

	switch status {
	case models.ApplicationApproved:
		shop, err := s.apps.Approve(ctx, id)
		if err != nil {
			return nil, err
		}
		log.Info("seller application approved", zap.Int64("shop_id", shop.ShopID))
		return &Decision{ApplicationID: id, Status: status, Shop: shop}, nil

	case models.ApplicationRejected:
		if err := s.apps.Reject(ctx, id); err != nil {
			return nil, err
		}
		log.Info("seller application rejected")
		return &Decision{ApplicationID: id, Status: status}, nil
	}

	return nil, fmt.Errorf("%w: status must be APPROVED or REJECTED", repository.ErrInvalidInput)
}
