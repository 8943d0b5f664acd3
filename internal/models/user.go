package models

import "time"

type Role string

const (
	RoleUser   Role = "USER"
	RoleSeller Role = "SELLER"
	RoleAdmin  Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	UserID       int64     `json:"id"`
	Name         string    `json:"name" validate:"required,min=2,max=150"`
	Email        string    `json:"email" validate:"required,email,max=255"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the slice of a user joined onto orders and applications.
type UserSummary struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type Seller struct {
	SellerID  int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Shop struct {
	ShopID      int64     `json:"id"`
	SellerID    int64     `json:"sellerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Products    []Product `json:"products,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
