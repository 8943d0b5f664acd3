package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProducts struct {
	repository.ProductRepository
	products map[int64]*models.Product
	gets     int
}

func (s *stubProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	s.gets++
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubProducts) Update(_ context.Context, p *models.Product) error {
	if _, ok := s.products[p.ProductID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	s.products[p.ProductID] = &cp
	return nil
}

func (s *stubProducts) Create(_ context.Context, p *models.Product) error {
	cp := *p
	s.products[p.ProductID] = &cp
	return nil
}

func newCache(t *testing.T, stub *stubProducts) (*CachedProductRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCachedProductRepository(stub, rdb, zap.NewNop()), mr
}

func TestGetByIDReadsThrough(t *testing.T) {
	ctx := context.Background()
	stub := &stubProducts{products: map[int64]*models.Product{
		7: {ProductID: 7, Name: "Desk lamp", Price: decimal.RequireFromString("199.50")},
	}}
	c, mr := newCache(t, stub)

	first, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	second, err := c.GetByID(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 1, stub.gets)
	assert.True(t, mr.Exists("product:7"))
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, first.Price.Equal(second.Price))
}

func TestGetByIDCachesNotFound(t *testing.T) {
	ctx := context.Background()
	stub := &stubProducts{products: map[int64]*models.Product{}}
	c, mr := newCache(t, stub)

	_, err := c.GetByID(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = c.GetByID(ctx, 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, 1, stub.gets)
	got, err := mr.Get("product:99")
	require.NoError(t, err)
	assert.Equal(t, notFoundMarker, got)
}

func TestUpdateInvalidates(t *testing.T) {
	ctx := context.Background()
	stub := &stubProducts{products: map[int64]*models.Product{
		7: {ProductID: 7, Name: "Desk lamp", Price: decimal.RequireFromString("199.50")},
	}}
	c, mr := newCache(t, stub)

	_, err := c.GetByID(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, c.Update(ctx, &models.Product{ProductID: 7, Name: "Floor lamp", Price: decimal.RequireFromString("249.00")}))
	assert.False(t, mr.Exists("product:7"))

	got, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Floor lamp", got.Name)
	assert.Equal(t, 2, stub.gets)
}

func TestCreateClearsNegativeEntry(t *testing.T) {
	ctx := context.Background()
	stub := &stubProducts{products: map[int64]*models.Product{}}
	c, _ := newCache(t, stub)

	_, err := c.GetByID(ctx, 3)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, c.Create(ctx, &models.Product{ProductID: 3, Name: "Mug", Price: decimal.NewFromInt(5)}))

	got, err := c.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Mug", got.Name)
}

func TestRedisDownFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	stub := &stubProducts{products: map[int64]*models.Product{
		1: {ProductID: 1, Name: "Kettle", Price: decimal.NewFromInt(40)},
	}}
	c, mr := newCache(t, stub)
	mr.Close()

	got, err := c.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", got.Name)
}
