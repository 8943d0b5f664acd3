package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devenkumar1/Quick-Ship-sub000/internal/events"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/models"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/payment"
	"github.com/devenkumar1/Quick-Ship-sub000/internal/repository"
	"github.com/shopspring/decimal"
)

type fakeUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*models.User{}}
	for i := range users {
		u := users[i]
		f.byID[u.UserID] = &u
		if u.UserID > f.nextID {
			f.nextID = u.UserID
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range f.byID {
		if existing.Email == email {
			return fmt.Errorf("%w: email already exists", repository.ErrDuplicate)
		}
	}
	f.nextID++
	u.UserID = f.nextID
	u.Email = email
	u.CreatedAt = time.Now().UTC()
	cp := *u
	f.byID[u.UserID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.byID {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type fakeShops struct {
	byUser map[int64]models.Shop
}

func (f *fakeShops) GetByID(_ context.Context, id int64) (*models.Shop, error) {
	for _, s := range f.byUser {
		if s.ShopID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeShops) GetByUserID(_ context.Context, userID int64) (*models.Shop, error) {
	s, ok := f.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

type fakeProducts struct {
	mu       sync.Mutex
	byID     map[int64]*models.Product
	nextID   int64
	reviews  []models.Review
	lastList models.ProductFilter
}

func newFakeProducts(products ...models.Product) *fakeProducts {
	f := &fakeProducts{byID: map[int64]*models.Product{}}
	for i := range products {
		p := products[i]
		f.byID[p.ProductID] = &p
		if p.ProductID > f.nextID {
			f.nextID = p.ProductID
		}
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ProductID = f.nextID
	cp := *p
	f.byID[p.ProductID] = &cp
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) List(_ context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	var all []models.Product
	for _, p := range f.byID {
		if filter.ShopID > 0 && p.ShopID != filter.ShopID {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ProductID < all[j].ProductID })

	page := filter.PageRequest.Normalize()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[p.ProductID]
	if !ok || existing.ShopID != p.ShopID {
		return repository.ErrNotFound
	}
	cp := *p
	f.byID[p.ProductID] = &cp
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProducts) GetByIDs(_ context.Context, ids []int64) (map[int64]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]models.Product{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeProducts) AddReview(_ context.Context, rv *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[rv.ProductID]; !ok {
		return repository.ErrNotFound
	}
	rv.ReviewID = int64(len(f.reviews) + 1)
	f.reviews = append(f.reviews, *rv)
	return nil
}

// fakeOrders enforces the same uniqueness rules as the orders and
// payments tables.
type fakeOrders struct {
	mu        sync.Mutex
	byID      map[int64]*models.Order
	byTxn     map[string]int64
	byGateway map[string]int64
	shopOf    map[int64]int64
	nextID    int64
	creates   int

	// beforeCreate runs outside the lock ahead of every insert.
	beforeCreate func()
	// beforeUpdate runs under the lock with the stored order before a
	// status change is checked.
	beforeUpdate func(*models.Order)
}

func newFakeOrders(shopOf map[int64]int64) *fakeOrders {
	return &fakeOrders{
		byID:      map[int64]*models.Order{},
		byTxn:     map[string]int64{},
		byGateway: map[string]int64{},
		shopOf:    shopOf,
	}
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	if o.Payment != nil {
		p := *o.Payment
		cp.Payment = &p
	}
	return &cp
}

func (f *fakeOrders) CreateWithPayment(_ context.Context, o *models.Order) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++

	if _, ok := f.byTxn[o.Payment.TransactionID]; ok {
		return fmt.Errorf("%w: payments_transaction_id_key", repository.ErrDuplicate)
	}
	if _, ok := f.byGateway[o.GatewayOrderID]; ok {
		return fmt.Errorf("%w: orders_gateway_order_id_key", repository.ErrDuplicate)
	}

	f.nextID++
	now := time.Now().UTC()
	o.OrderID = f.nextID
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].OrderID = o.OrderID
		o.Items[i].OrderItemID = int64(i + 1)
	}
	o.Payment.OrderID = o.OrderID
	o.Payment.PaymentID = o.OrderID
	o.Payment.CreatedAt = now

	f.byID[o.OrderID] = cloneOrder(o)
	f.byTxn[o.Payment.TransactionID] = o.OrderID
	f.byGateway[o.GatewayOrderID] = o.OrderID
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (f *fakeOrders) GetByTransactionID(ctx context.Context, txn string) (*models.Order, error) {
	f.mu.Lock()
	id, ok := f.byTxn[txn]
	f.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeOrders) List(_ context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.byID {
		if filter.UserID > 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.ShopID > 0 && !f.hasShop(o, filter.ShopID) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID > out[j].OrderID })
	return out, int64(len(out)), nil
}

func (f *fakeOrders) hasShop(o *models.Order, shopID int64) bool {
	for _, it := range o.Items {
		if f.shopOf[it.ProductID] == shopID {
			return true
		}
	}
	return false
}

// UpdateStatuses checks both sides before writing either, matching the
// single transaction in the real repository.
func (f *fakeOrders) UpdateStatuses(_ context.Context, id int64, c models.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(o)
	}
	if c.StatusTo != "" && o.Status != c.StatusFrom {
		return repository.ErrConflict
	}
	if c.PaymentTo != "" {
		if o.Payment == nil {
			return repository.ErrNotFound
		}
		if o.Payment.Status != c.PaymentFrom {
			return repository.ErrConflict
		}
	}
	if c.StatusTo != "" {
		o.Status = c.StatusTo
	}
	if c.PaymentTo != "" {
		o.Payment.Status = c.PaymentTo
	}
	return nil
}

func (f *fakeOrders) HasShopItems(_ context.Context, orderID, shopID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[orderID]
	if !ok {
		return false, nil
	}
	return f.hasShop(o, shopID), nil
}

type fakeApps struct {
	mu       sync.Mutex
	byID     map[int64]*models.SellerApplication
	nextID   int64
	approved []int64
}

func newFakeApps() *fakeApps {
	return &fakeApps{byID: map[int64]*models.SellerApplication{}}
}

func (f *fakeApps) Create(_ context.Context, a *models.SellerApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.UserID == a.UserID && existing.Status == models.ApplicationPending {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	a.ApplicationID = f.nextID
	a.Status = models.ApplicationPending
	cp := *a
	f.byID[a.ApplicationID] = &cp
	return nil
}

func (f *fakeApps) GetByID(_ context.Context, id int64) (*models.SellerApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeApps) GetLatestByUserID(_ context.Context, userID int64) (*models.SellerApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.SellerApplication
	for _, a := range f.byID {
		if a.UserID == userID && (latest == nil || a.ApplicationID > latest.ApplicationID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeApps) List(_ context.Context, status models.ApplicationStatus) ([]models.SellerApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SellerApplication{}
	for _, a := range f.byID {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApps) Approve(_ context.Context, id int64) (*models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.Status != models.ApplicationPending {
		return nil, repository.ErrConflict
	}
	a.Status = models.ApplicationApproved
	f.approved = append(f.approved, id)
	return &models.Shop{ShopID: 100 + id, SellerID: 200 + id, Name: a.ShopName, Location: a.ShopLocation}, nil
}

func (f *fakeApps) Reject(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != models.ApplicationPending {
		return repository.ErrConflict
	}
	delete(f.byID, id)
	return nil
}

type fakeGateway struct {
	calls   int
	amount  decimal.Decimal
	receipt string
	err     error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, receipt string) (*payment.GatewayOrder, error) {
	g.calls++
	g.amount, g.receipt = amount, receipt
	if g.err != nil {
		return nil, g.err
	}
	return &payment.GatewayOrder{ID: "order_gw_1", Amount: payment.MinorUnits(amount), Currency: "INR", Receipt: receipt}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
