package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID     int64           `json:"id"`
	ShopID        int64           `json:"shopId"`
	ShopName      string          `json:"shopName,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category"`
	Images        []string        `json:"images"`
	Reviews       []Review        `json:"reviews,omitempty"`
	AverageRating float64         `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Review struct {
	ReviewID  int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
	SortName      ProductSort = "name"
)

func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortName:
		return true
	}
	return false
}

// ProductFilter narrows catalog listings. Zero values mean "no filter".
type ProductFilter struct {
	Query    string
	Category string
	ShopID   int64
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Sort     ProductSort
	PageRequest
}
