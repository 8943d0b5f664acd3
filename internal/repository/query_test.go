package repository

import (
	"testing"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderWhereEmpty(t *testing.T) {
	var args queryArgs
	assert.Empty(t, orderWhere(models.OrderFilter{}, &args))
	assert.Empty(t, args)
}

func TestOrderWhereAllFilters(t *testing.T) {
	var args queryArgs
	where := orderWhere(models.OrderFilter{
		Status:        models.OrderShipped,
		PaymentStatus: models.PaymentCompleted,
		UserID:        4,
		ShopID:        9,
	}, &args)

	assert.Contains(t, where, "o.status = $1")
	assert.Contains(t, where, "p.status = $2")
	assert.Contains(t, where, "o.user_id = $3")
	assert.Contains(t, where, "pr.shop_id = $4")
	assert.Equal(t, queryArgs{models.OrderShipped, models.PaymentCompleted, int64(4), int64(9)}, args)
}

func TestProductWhereReusesSearchPlaceholder(t *testing.T) {
	var args queryArgs
	where := productWhere(models.ProductFilter{
		Query:    "  lamp ",
		MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}, &args)

	assert.Equal(t, " WHERE (p.name ILIKE $1 OR p.description ILIKE $1) AND p.price >= $2", where)
	assert.Equal(t, "%lamp%", args[0])
	assert.Len(t, args, 2)
}

func TestProductOrderCoversEverySort(t *testing.T) {
	for _, s := range []models.ProductSort{
		models.SortNewest, models.SortPriceAsc, models.SortPriceDesc, models.SortRating, models.SortName,
	} {
		_, ok := productOrder[s]
		assert.True(t, ok, string(s))
	}
}
