package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-service/media"
	"storefront-service/models"
	"storefront-service/payments"
	"storefront-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories. Each one serialises access with a mutex so the
// atomicity guarantees of the Mongo implementations hold under -race tests.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newFakeProductRepo(ps ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range ps {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		r.products[p.ID] = p
	}
	return r
}

func copyProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp
}

func (r *fakeProductRepo) stock(id primitive.ObjectID, variant string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, _ := r.products[id].StockFor(variant)
	return n
}

func (r *fakeProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProduct(p), nil
}

func (r *fakeProductRepo) FindByName(_ context.Context, name string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Name == name {
			return copyProduct(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (r *fakeProductRepo) match(p *models.Product, f repository.ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	return true
}

func (r *fakeProductRepo) Find(_ context.Context, f repository.ProductFilter) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.products {
		if r.match(p, f) {
			out = append(out, *copyProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Skip > 0 {
		if int(f.Skip) >= len(out) {
			return []models.Product{}, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeProductRepo) Count(_ context.Context, f repository.ProductFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.products {
		if r.match(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *fakeProductRepo) FindLowStock(_ context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Product{}
	for _, p := range r.products {
		if p.IsLowStock() {
			out = append(out, *copyProduct(p))
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	r.products[p.ID] = copyProduct(p)
	return nil
}

// applyUpdates understands the keys the services write.
func applyProductUpdates(p *models.Product, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "name":
			p.Name = v.(string)
		case "price":
			p.Price = v.(float64)
		case "description":
			p.Description = v.(string)
		case "category":
			p.Category = v.(string)
		case "categoryId":
			if id, ok := v.(*primitive.ObjectID); ok && id != nil {
				cp := *id
				p.CategoryID = &cp
			} else {
				p.CategoryID = nil
			}
		case "featured":
			p.Featured = v.(bool)
		case "assured":
			p.Assured = v.(bool)
		case "minStock":
			p.MinStock = v.(int)
		case "inStock":
			p.InStock = v.(int)
		case "variants":
			p.Variants = append([]models.Variant(nil), v.([]models.Variant)...)
		case "thumbnailUrl":
			p.ThumbnailURL = v.(string)
		default:
			for _, slot := range models.ProductMediaSlots {
				url, id := p.Media(slot)
				switch k {
				case slot.URLKey:
					p.SetMedia(slot, v.(string), id)
				case slot.IDKey:
					p.SetMedia(slot, url, v.(string))
				}
			}
		}
	}
}

func (r *fakeProductRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	applyProductUpdates(p, updates)
	return nil
}

func (r *fakeProductRepo) UpdateWithVariants(_ context.Context, id primitive.ObjectID, updates map[string]interface{}, variants []models.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	applyProductUpdates(p, updates)
	next := make([]models.Variant, len(variants))
	for i, v := range variants {
		if cur, ok := p.FindVariant(v.Name); ok {
			v.InStock = cur.InStock
		}
		next[i] = v
	}
	p.Variants = next
	return nil
}

func (r *fakeProductRepo) BulkUpdate(_ context.Context, ids []primitive.ObjectID, updates map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			applyProductUpdates(p, updates)
			n++
		}
	}
	return n, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) update(id primitive.ObjectID, variant string, fn func(int) int) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return 0, 0, repository.ErrNotFound
	}
	if variant == "" {
		prev := p.InStock
		p.InStock = fn(prev)
		return prev, p.InStock, nil
	}
	v, ok := p.FindVariant(variant)
	if !ok {
		return 0, 0, repository.ErrNotFound
	}
	prev := v.InStock
	v.InStock = fn(prev)
	return prev, v.InStock, nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id primitive.ObjectID, variant string, delta int) (int, int, error) {
	return r.update(id, variant, func(n int) int { return max(0, n+delta) })
}

func (r *fakeProductRepo) SetStock(_ context.Context, id primitive.ObjectID, variant string, value int) (int, int, error) {
	return r.update(id, variant, func(int) int { return max(0, value) })
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []models.InventoryLog
	err     error
}

func (r *fakeLogRepo) Insert(_ context.Context, e *models.InventoryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	e.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeLogRepo) Find(_ context.Context, f repository.InventoryLogFilter) ([]models.InventoryLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.InventoryLog{}
	for _, e := range r.entries {
		if f.ProductID != nil && e.ProductID != *f.ProductID {
			continue
		}
		if f.Reason != "" && e.Reason != f.Reason {
			continue
		}
		out = append(out, e)
	}
	total := int64(len(out))
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *fakeLogRepo) byReason(reason string) []models.InventoryLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.InventoryLog
	for _, e := range r.entries {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
	// beforeCAS runs once, just before the next compare-and-set, to simulate a racing writer.
	beforeCAS func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*models.Order{}}
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Products = append([]models.OrderItem(nil), o.Products...)
	return &cp
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *fakeOrderRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			out = append(out, *copyOrder(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByStripeSession(_ context.Context, sessionID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.StripeSessionID == sessionID {
			return copyOrder(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) FindAll(ctx context.Context) ([]models.Order, error) {
	return r.Recent(ctx, 0)
}

func (r *fakeOrderRepo) Recent(_ context.Context, n int64) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if n > 0 && int(n) < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (r *fakeOrderRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepo) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.StripeSessionID != "" {
		for _, existing := range r.orders {
			if existing.StripeSessionID == o.StripeSessionID {
				return repository.ErrDuplicate
			}
		}
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.OrderID = models.OrderCode(o.ID)
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	r.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *fakeOrderRepo) CompareAndSetStatus(_ context.Context, id primitive.ObjectID, from, to string) (bool, error) {
	r.mu.Lock()
	hook := r.beforeCAS
	r.beforeCAS = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeOrderRepo) setStatus(id primitive.ObjectID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[id].Status = status
}

func (r *fakeOrderRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.orders[id]; ok {
			delete(r.orders, id)
			n++
		}
	}
	return n, nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[primitive.ObjectID]models.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: map[primitive.ObjectID]models.Sale{}}
}

func (r *fakeSaleRepo) Create(_ context.Context, s *models.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sales[s.OrderID]; ok {
		return repository.ErrDuplicate
	}
	s.ID = primitive.NewObjectID()
	r.sales[s.OrderID] = *s
	return nil
}

func (r *fakeSaleRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sales)
}

func (r *fakeSaleRepo) DeleteByOrderIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.sales[id]; ok {
			delete(r.sales, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSaleRepo) TotalAmount(_ context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t float64
	for _, s := range r.sales {
		t += s.TotalAmount
	}
	return t, nil
}

func (r *fakeSaleRepo) MonthlyTotals(_ context.Context, since time.Time) ([]models.MonthlySales, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buckets := map[string]*models.MonthlySales{}
	for _, s := range r.sales {
		if s.SaleDate.Before(since) {
			continue
		}
		key := s.SaleDate.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &models.MonthlySales{Month: key}
			buckets[key] = b
		}
		b.Total += s.TotalAmount
		b.Count++
	}
	out := []models.MonthlySales{}
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[primitive.ObjectID]*models.Review{}}
}

func (r *fakeReviewRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (r *fakeReviewRepo) ExistsForOrderProduct(_ context.Context, orderID, productID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.OrderID != nil && *rv.OrderID == orderID && rv.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReviewRepo) FindApprovedByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Review{}
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.Status == models.ReviewApproved {
			out = append(out, *rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeReviewRepo) FindAll(_ context.Context) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Review{}
	for _, rv := range r.reviews {
		out = append(out, *rv)
	}
	return out, nil
}

// Insert mirrors the partial unique index on (orderId, productId).
func (r *fakeReviewRepo) Insert(_ context.Context, rv *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv.OrderID != nil {
		for _, existing := range r.reviews {
			if existing.OrderID != nil && *existing.OrderID == *rv.OrderID && existing.ProductID == rv.ProductID {
				return repository.ErrDuplicate
			}
		}
	}
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = time.Now()
	}
	cp := *rv
	r.reviews[rv.ID] = &cp
	return nil
}

func (r *fakeReviewRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "status":
			rv.Status = v.(string)
		case "reviewText":
			rv.ReviewText = v.(string)
		case "rating":
			rv.Rating = v.(int)
		case "headline":
			rv.Headline = v.(string)
		}
	}
	cp := *rv
	return &cp, nil
}

func (r *fakeReviewRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo(us ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range us {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Orders = append([]primitive.ObjectID(nil), u.Orders...)
	cp.Notes = append([]models.Note(nil), u.Notes...)
	cp.Addresses = append([]models.Address(nil), u.Addresses...)
	return &cp
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindCustomers(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, u := range r.users {
		if u.Role == models.RoleUser && len(u.Orders) > 0 {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = copyUser(u)
	return nil
}

func applyUserUpdates(u *models.User, updates map[string]interface{}) {
	for k, v := range updates {
		s, _ := v.(string)
		switch k {
		case "email":
			u.Email = strings.ToLower(s)
		case "password":
			u.Password = s
		case "fullName":
			u.FullName = s
		case "phone":
			u.Phone = s
		case "address":
			u.Address = s
		case "city":
			u.City = s
		case "postalCode":
			u.PostalCode = s
		case "country":
			u.Country = s
		case "resetPasswordToken":
			u.ResetTokenHash = s
		case "resetPasswordExpires":
			if t, ok := v.(time.Time); ok {
				u.ResetExpires = &t
			}
		}
	}
}

func (r *fakeUserRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if email, ok := updates["email"].(string); ok {
		for otherID, other := range r.users {
			if otherID != id && other.Email == strings.ToLower(email) {
				return nil, repository.ErrDuplicate
			}
		}
	}
	applyUserUpdates(u, updates)
	return copyUser(u), nil
}

func (r *fakeUserRepo) AttachOrder(_ context.Context, id, orderID primitive.ObjectID, set map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	applyUserUpdates(u, set)
	for _, existing := range u.Orders {
		if existing == orderID {
			return nil
		}
	}
	u.Orders = append(u.Orders, orderID)
	return nil
}

func (r *fakeUserRepo) AddNote(_ context.Context, id primitive.ObjectID, note models.Note) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Notes = append(u.Notes, note)
	return copyUser(u), nil
}

func (r *fakeUserRepo) ConsumeResetToken(_ context.Context, id primitive.ObjectID, tokenHash, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || tokenHash == "" || u.ResetTokenHash != tokenHash || u.ResetExpires == nil || !u.ResetExpires.After(now) {
		return false, nil
	}
	u.Password = passwordHash
	u.ResetTokenHash, u.ResetExpires = "", nil
	return true, nil
}

func (r *fakeUserRepo) AddAddress(_ context.Context, id primitive.ObjectID, addr models.Address) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if addr.ID.IsZero() {
		addr.ID = primitive.NewObjectID()
	}
	if addr.IsPrimary {
		for i := range u.Addresses {
			u.Addresses[i].IsPrimary = false
		}
	}
	addr.IsPrimary = addr.IsPrimary || len(u.Addresses) == 0
	u.Addresses = append(u.Addresses, addr)
	return copyUser(u), nil
}

func (r *fakeUserRepo) UpdateAddress(_ context.Context, id, addressID primitive.ObjectID, set map[string]interface{}, makePrimary bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	idx := -1
	for i, a := range u.Addresses {
		if a.ID == addressID {
			idx = i
		}
	}
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	if makePrimary {
		for i := range u.Addresses {
			u.Addresses[i].IsPrimary = false
		}
		u.Addresses[idx].IsPrimary = true
	}
	a := &u.Addresses[idx]
	for k, v := range set {
		if k == "isPrimary" {
			a.IsPrimary = v.(bool)
			continue
		}
		s := v.(string)
		switch k {
		case "type":
			a.Type = s
		case "fullName":
			a.FullName = s
		case "address":
			a.Address = s
		case "city":
			a.City = s
		case "postalCode":
			a.PostalCode = s
		case "country":
			a.Country = s
		case "phone":
			a.Phone = s
		}
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) RemoveAddress(_ context.Context, id, addressID primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	kept := u.Addresses[:0]
	for _, a := range u.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	u.Addresses = kept
	return copyUser(u), nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) DeleteManyByRole(_ context.Context, ids []primitive.ObjectID, role string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.Role == role {
			delete(r.users, id)
			n++
		}
	}
	return n, nil
}

type fakeWebhookRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *fakeWebhookRepo) MarkProcessed(_ context.Context, e *models.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[e.EventID] {
		return false, nil
	}
	r.seen[e.EventID] = true
	return true, nil
}

func (r *fakeWebhookRepo) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, id)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (p *fakePublisher) Publish(_ context.Context, e models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type fakeEmailQueue struct {
	mu     sync.Mutex
	orders []string
	err    error
}

func (q *fakeEmailQueue) EnqueueOrderConfirmation(_ context.Context, o *models.Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.orders = append(q.orders, o.OrderID)
	return nil
}

type fakeMediaStore struct {
	mu        sync.Mutex
	uploads   int
	deleted   []string
	failField string
}

func (s *fakeMediaStore) Upload(_ context.Context, in media.UploadInput) (*media.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failField != "" && in.Filename == s.failField {
		return nil, media.ErrEmptyUpload
	}
	s.uploads++
	id := in.Folder + "/" + primitive.NewObjectID().Hex()
	return &media.Asset{URL: "https://res.cloudinary.com/demo/" + id, ID: id}, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, id string, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		s.deleted = append(s.deleted, id)
	}
	return nil
}

func (s *fakeMediaStore) IsManagedURL(url string) bool {
	return strings.Contains(url, "res.cloudinary.com")
}

type fakeGateway struct {
	mu     sync.Mutex
	params []payments.SessionParams
	err    error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p payments.SessionParams) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.params = append(g.params, p)
	return &payments.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

type fakeTestimonialRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Testimonial
}

func newFakeTestimonialRepo() *fakeTestimonialRepo {
	return &fakeTestimonialRepo{items: map[primitive.ObjectID]*models.Testimonial{}}
}

func (r *fakeTestimonialRepo) Find(_ context.Context, visibleOnly bool) ([]models.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Testimonial{}
	for _, t := range r.items {
		if visibleOnly && t.Status != models.TestimonialVisible {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTestimonialRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTestimonialRepo) Create(_ context.Context, t *models.Testimonial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	cp := *t
	r.items[t.ID] = &cp
	return nil
}

func (r *fakeTestimonialRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range updates {
		s, _ := v.(string)
		switch k {
		case "customerName":
			t.CustomerName = s
		case "tag":
			t.Tag = s
		case "product":
			t.Product = s
		case "content":
			t.Content = s
		case "status":
			t.Status = s
		case "rating":
			t.Rating = v.(int)
		case "avatarUrl":
			t.AvatarURL = s
		case "avatarId":
			t.AvatarID = s
		}
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTestimonialRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeCategoryRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{items: map[primitive.ObjectID]*models.Category{}}
}

func (r *fakeCategoryRepo) clash(id primitive.ObjectID, name, slug string) bool {
	for otherID, c := range r.items {
		if otherID != id && (c.Name == name || c.Slug == slug) {
			return true
		}
	}
	return false
}

func (r *fakeCategoryRepo) FindAll(_ context.Context, activeOnly bool) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.items {
		if !activeOnly || c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCategoryRepo) Create(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clash(primitive.NilObjectID, c.Name, c.Slug) {
		return repository.ErrDuplicate
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := *c
	for k, v := range updates {
		switch k {
		case "name":
			next.Name = v.(string)
		case "slug":
			next.Slug = v.(string)
		case "description":
			next.Description = v.(string)
		case "imageUrl":
			next.ImageURL = v.(string)
		case "isActive":
			next.IsActive = v.(bool)
		case "displayOrder":
			next.DisplayOrder = v.(int)
		}
	}
	if r.clash(id, next.Name, next.Slug) {
		return nil, repository.ErrDuplicate
	}
	*c = next
	return &next, nil
}

func (r *fakeCategoryRepo) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeOfferRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{items: map[primitive.ObjectID]*models.Offer{}}
}

func (r *fakeOfferRepo) Find(_ context.Context, activeOnly bool) ([]models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Offer{}
	for _, o := range r.items {
		if !activeOnly || o.Active {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *fakeOfferRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) Create(_ context.Context, o *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = primitive.NewObjectID()
	cp := *o
	r.items[o.ID] = &cp
	return nil
}

func (r *fakeOfferRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range updates {
		s, _ := v.(string)
		switch k {
		case "title":
			o.Title = s
		case "description":
			o.Description = s
		case "link":
			o.Link = s
		case "category":
			o.Category = s
		case "imageUrl":
			o.ImageURL = s
		case "imageId":
			o.ImageID = s
		case "thumbnailUrl":
			o.ThumbnailURL = s
		case "active":
			o.Active = v.(bool)
		case "displayOrder":
			o.DisplayOrder = v.(int)
		}
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOfferRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeContactRepo struct {
	mu    sync.Mutex
	items []*models.Contact
}

func (r *fakeContactRepo) Create(_ context.Context, c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	cp := *c
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeContactRepo) FindAll(_ context.Context) ([]models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Contact{}
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, *r.items[i])
	}
	return out, nil
}

func (r *fakeContactRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.ID == id {
			c.Status = status
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeGalleryImageRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.GalleryImage
}

func newFakeGalleryImageRepo() *fakeGalleryImageRepo {
	return &fakeGalleryImageRepo{items: map[primitive.ObjectID]*models.GalleryImage{}}
}

func (r *fakeGalleryImageRepo) Find(_ context.Context, f repository.GalleryImageFilter) ([]models.GalleryImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.GalleryImage{}
	for _, img := range r.items {
		if f.CategoryID != nil && img.CategoryID != *f.CategoryID {
			continue
		}
		if f.FeaturedOnly && !img.Featured {
			continue
		}
		out = append(out, *img)
	}
	if f.NewestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	}
	if f.Limit > 0 && int(f.Limit) < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeGalleryImageRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.GalleryImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (r *fakeGalleryImageRepo) CountByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, img := range r.items {
		if img.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *fakeGalleryImageRepo) Create(_ context.Context, img *models.GalleryImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	img.ID = primitive.NewObjectID()
	img.CreatedAt = time.Now()
	cp := *img
	r.items[img.ID] = &cp
	return nil
}

func (r *fakeGalleryImageRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "title":
			img.Title = v.(string)
		case "description":
			img.Description = v.(string)
		case "altText":
			img.AltText = v.(string)
		case "tags":
			img.Tags = v.([]string)
		case "featured":
			img.Featured = v.(bool)
		case "displayOrder":
			img.DisplayOrder = v.(int)
		case "relatedProducts":
			img.RelatedProducts = v.([]primitive.ObjectID)
		case "category":
			img.CategoryID = v.(primitive.ObjectID)
		case "imageUrl":
			img.ImageURL = v.(string)
		case "imageId":
			img.ImageID = v.(string)
		case "thumbnailUrl":
			img.ThumbnailURL = v.(string)
		}
	}
	cp := *img
	return &cp, nil
}

func (r *fakeGalleryImageRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakeGalleryOfferRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.GalleryOffer
}

func newFakeGalleryOfferRepo() *fakeGalleryOfferRepo {
	return &fakeGalleryOfferRepo{items: map[primitive.ObjectID]*models.GalleryOffer{}}
}

func (r *fakeGalleryOfferRepo) Find(_ context.Context, activeOnly bool) ([]models.GalleryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.GalleryOffer{}
	for _, o := range r.items {
		if !activeOnly || o.Active {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *fakeGalleryOfferRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.GalleryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeGalleryOfferRepo) Create(_ context.Context, o *models.GalleryOffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = primitive.NewObjectID()
	cp := *o
	r.items[o.ID] = &cp
	return nil
}

func (r *fakeGalleryOfferRepo) Update(_ context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.GalleryOffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "active":
			o.Active = v.(bool)
		case "displayOrder":
			o.DisplayOrder = v.(int)
		default:
			s := v.(string)
			switch k {
			case "variant":
				o.Variant = s
			case "title1":
				o.Title1 = s
			case "title2":
				o.Title2 = s
			case "description":
				o.Description = s
			case "campaign":
				o.Campaign = s
			case "link":
				o.Link = s
			case "imageUrl":
				o.ImageURL = s
			case "imageId":
				o.ImageID = s
			case "thumbnailUrl":
				o.ThumbnailURL = s
			}
		}
	}
	cp := *o
	return &cp, nil
}

func (r *fakeGalleryOfferRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
