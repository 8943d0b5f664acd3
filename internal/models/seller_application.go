package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

type SellerApplication struct {
	ApplicationID   int64             `json:"id"`
	UserID          int64             `json:"userId"`
	User            *UserSummary      `json:"user,omitempty"`
	ShopName        string            `json:"shopName" validate:"required,min=2,max=150"`
	ShopDescription string            `json:"shopDescription" validate:"max=2000"`
	ShopLocation    string            `json:"shopLocation" validate:"max=255"`
	Status          ApplicationStatus `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}
