// Package memstore is an in-memory implementation of the service stores for tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

type data struct {
	users      map[uuid.UUID]models.User
	creds      map[uuid.UUID]models.Credential
	carts      []models.CartLine
	products   map[uuid.UUID]models.Product
	images     []models.ProductImage
	categories []models.Category
	orders     []models.OrderLine
	addresses  []models.Address
	subs       []models.Subscription
	contacts   []models.ContactMessage
	tickets    []models.SupportTicket
	intents    []models.PaymentIntent
}

func (d *data) clone() *data {
	cp := &data{
		users:      make(map[uuid.UUID]models.User, len(d.users)),
		creds:      make(map[uuid.UUID]models.Credential, len(d.creds)),
		products:   make(map[uuid.UUID]models.Product, len(d.products)),
		carts:      append([]models.CartLine(nil), d.carts...),
		images:     append([]models.ProductImage(nil), d.images...),
		categories: append([]models.Category(nil), d.categories...),
		orders:     append([]models.OrderLine(nil), d.orders...),
		addresses:  append([]models.Address(nil), d.addresses...),
		subs:       append([]models.Subscription(nil), d.subs...),
		contacts:   append([]models.ContactMessage(nil), d.contacts...),
		tickets:    append([]models.SupportTicket(nil), d.tickets...),
		intents:    append([]models.PaymentIntent(nil), d.intents...),
	}
	for k, v := range d.users {
		cp.users[k] = v
	}
	for k, v := range d.creds {
		cp.creds[k] = v
	}
	for k, v := range d.products {
		cp.products[k] = v
	}
	return cp
}

type txKey struct{}

// Store holds every table in memory. Transactions run one at a time and
// WithinTx restores a snapshot when fn fails.
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	d     *data
	fails map[string]error
	hooks map[string]func()
}

func New() *Store {
	return &Store{
		d: &data{
			users:    map[uuid.UUID]models.User{},
			creds:    map[uuid.UUID]models.Credential{},
			products: map[uuid.UUID]models.Product{},
		},
		fails: map[string]error{},
		hooks: map[string]func(){},
	}
}

// Fail makes the named operation (e.g. "orders.CreateLine") return err until cleared with nil.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

// Hook runs fn at the start of the named operation, before the store lock is
// taken. Tests use it to line up concurrent callers. A nil fn clears it.
func (s *Store) Hook(op string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = fn
}

func (s *Store) runHook(op string) {
	s.mu.Lock()
	fn := s.hooks[op]
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Store) failure(op string) error {
	return s.fails[op]
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.d.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// SeedProduct stores p, assigning an id when missing.
func (s *Store) SeedProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.EnsureID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.d.products[p.ID] = p
	return p
}

func (s *Store) SeedImage(img models.ProductImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img.EnsureID()
	s.d.images = append(s.d.images, img)
}

func (s *Store) SeedCategory(c models.Category) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.EnsureID()
	s.d.categories = append(s.d.categories, c)
	return c
}

// Inspection helpers.

func (s *Store) User(email string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.d.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.d.users)
}

func (s *Store) CredentialsOf(userID uuid.UUID, purpose models.CredentialPurpose) []models.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Credential
	for _, c := range s.d.creds {
		if c.UserID == userID && c.Purpose == purpose {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) CartLines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartLine(nil), s.d.carts...)
}

func (s *Store) OrderLines() []models.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderLine(nil), s.d.orders...)
}

func (s *Store) Intents() []models.PaymentIntent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PaymentIntent(nil), s.d.intents...)
}

func stamp(b *models.BaseModel) {
	b.EnsureID()
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Users implements the user store.
type Users struct{ s *Store }

func (s *Store) Users() *Users { return &Users{s} }

func (r *Users) FindOrCreate(_ context.Context, user *models.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.FindOrCreate"); err != nil {
		return false, err
	}
	for _, u := range r.s.d.users {
		if u.Email == user.Email {
			*user = u
			return false, nil
		}
	}
	stamp(&user.BaseModel)
	r.s.d.users[user.ID] = *user
	return true, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.UpdateProfile(ctx, id, map[string]any{"password_hash": hash})
}

func (r *Users) UpdateProfile(_ context.Context, id uuid.UUID, updates map[string]any) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.Update"); err != nil {
		return err
	}
	u, ok := r.s.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "password_hash":
			u.PasswordHash = v.(string)
		case "email":
			email := v.(string)
			for otherID, other := range r.s.d.users {
				if otherID != id && other.Email == email {
					return repository.ErrDuplicate
				}
			}
			u.Email = email
		case "fname":
			u.FirstName = v.(string)
		case "uname":
			name := v.(string)
			u.Username = &name
		case "address":
			addr := v.(string)
			u.Address = &addr
		}
	}
	u.UpdatedAt = time.Now()
	r.s.d.users[id] = u
	return nil
}

// Credentials implements the credential store.
type Credentials struct{ s *Store }

func (s *Store) Credentials() *Credentials { return &Credentials{s} }

func (r *Credentials) Issue(_ context.Context, cred *models.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("credentials.Issue"); err != nil {
		return err
	}
	if _, ok := r.s.d.users[cred.UserID]; !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	for id, c := range r.s.d.creds {
		if c.UserID == cred.UserID && c.Purpose == cred.Purpose && c.ConsumedAt == nil {
			c.ConsumedAt = &now
			r.s.d.creds[id] = c
		}
	}
	stamp(&cred.BaseModel)
	r.s.d.creds[cred.ID] = *cred
	return nil
}

func (r *Credentials) FindActive(_ context.Context, tokenHash string) (*models.Credential, error) {
	r.s.runHook("credentials.FindActive")
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("credentials.FindActive"); err != nil {
		return nil, err
	}
	now := time.Now()
	for _, c := range r.s.d.creds {
		if c.TokenHash == tokenHash && c.Active(now) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Credentials) RecordFailedAttempt(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.creds[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	c.OTPAttempts++
	r.s.d.creds[id] = c
	return c.OTPAttempts, nil
}

func (r *Credentials) MarkOTPVerified(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(c *models.Credential) {
		c.OTPVerifiedAt = &at
		c.OTPHash = nil
		c.OTPExpiresAt = nil
	})
}

func (r *Credentials) ClearOTP(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(c *models.Credential) {
		c.OTPHash = nil
		c.OTPExpiresAt = nil
	})
}

func (r *Credentials) Consume(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	fail := r.s.failure("credentials.Consume")
	r.s.mu.Unlock()
	if fail != nil {
		return fail
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.creds[id]
	if !ok || c.ConsumedAt != nil {
		return repository.ErrNotFound
	}
	c.ConsumedAt = &at
	r.s.d.creds[id] = c
	return nil
}

func (r *Credentials) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.d.creds {
		if c.ExpiresAt.Before(cutoff) || (c.ConsumedAt != nil && c.ConsumedAt.Before(cutoff)) {
			delete(r.s.d.creds, id)
			n++
		}
	}
	return n, nil
}

// Get returns a credential by id for assertions.
func (r *Credentials) Get(id uuid.UUID) (models.Credential, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.creds[id]
	return c, ok
}

// Expire moves a credential's expiry and code expiry into the past.
func (r *Credentials) Expire(id uuid.UUID, past time.Time) {
	_ = r.mutate(id, func(c *models.Credential) {
		c.ExpiresAt = past
		if c.OTPExpiresAt != nil {
			c.OTPExpiresAt = &past
		}
	})
}

func (r *Credentials) mutate(id uuid.UUID, fn func(c *models.Credential)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.d.creds[id]
	if !ok {
		return nil
	}
	fn(&c)
	r.s.d.creds[id] = c
	return nil
}

// Carts implements the cart store.
type Carts struct{ s *Store }

func (s *Store) Carts() *Carts { return &Carts{s} }

func (r *Carts) CreateBatch(_ context.Context, lines []models.CartLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("carts.CreateBatch"); err != nil {
		return err
	}
	for i := range lines {
		stamp(&lines[i].BaseModel)
		r.s.d.carts = append(r.s.d.carts, lines[i])
	}
	return nil
}

func (r *Carts) ListByUser(_ context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.CartLine{}
	for _, line := range r.s.d.carts {
		if line.UserID != userID {
			continue
		}
		if p, ok := r.s.d.products[line.ProductID]; ok {
			line.Product = &p
		}
		out = append(out, line)
	}
	return out, nil
}

// Products implements the product store.
type Products struct{ s *Store }

func (s *Store) Products() *Products { return &Products{s} }

func (r *Products) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("products.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.d.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *Products) FindByIDs(_ context.Context, ids []uuid.UUID, key string) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Product{}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if p, ok := r.s.d.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	sortProducts(out, key)
	return out, nil
}

func (r *Products) List(_ context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []models.Product{}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, p := range r.s.d.products {
		if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		matched = append(matched, p)
	}
	sortProducts(matched, f.Sort)

	total := int64(len(matched))
	if f.Limit > 0 {
		start := min(f.Offset, len(matched))
		end := min(start+f.Limit, len(matched))
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *Products) ListImages(_ context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.ProductImage{}
	for _, img := range r.s.d.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r *Products) ListCategories(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]models.Category{}, r.s.d.categories...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func sortProducts(ps []models.Product, key string) {
	sort.SliceStable(ps, func(i, j int) bool {
		switch key {
		case repository.SortRating:
			return ps[i].Rating > ps[j].Rating
		case repository.SortPriceAsc:
			return ps[i].Price.LessThan(ps[j].Price)
		case repository.SortPriceDesc:
			return ps[i].Price.GreaterThan(ps[j].Price)
		default:
			return ps[i].CreatedAt.After(ps[j].CreatedAt)
		}
	})
}

// Orders implements the order store.
type Orders struct{ s *Store }

func (s *Store) Orders() *Orders { return &Orders{s} }

func (r *Orders) TrackingIDExists(_ context.Context, trackingID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.d.orders {
		if o.TrackingID == trackingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *Orders) CreateLine(_ context.Context, line *models.OrderLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("orders.CreateLine"); err != nil {
		return err
	}
	stamp(&line.BaseModel)
	r.s.d.orders = append(r.s.d.orders, *line)
	return nil
}

func (r *Orders) ListByUser(_ context.Context, userID uuid.UUID) ([]models.OrderLine, error) {
	return r.filter(func(o models.OrderLine) bool { return o.UserID == userID }), nil
}

func (r *Orders) ListByTrackingID(_ context.Context, userID uuid.UUID, trackingID string) ([]models.OrderLine, error) {
	return r.filter(func(o models.OrderLine) bool { return o.UserID == userID && o.TrackingID == trackingID }), nil
}

func (r *Orders) filter(keep func(models.OrderLine) bool) []models.OrderLine {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.OrderLine{}
	for _, o := range r.s.d.orders {
		if !keep(o) {
			continue
		}
		if p, ok := r.s.d.products[o.ProductID]; ok {
			o.Product = &p
		}
		out = append(out, o)
	}
	return out
}

// Addresses implements the address store.
type Addresses struct{ s *Store }

func (s *Store) Addresses() *Addresses { return &Addresses{s} }

func (r *Addresses) Create(_ context.Context, address *models.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&address.BaseModel)
	r.s.d.addresses = append(r.s.d.addresses, *address)
	return nil
}

func (r *Addresses) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Address{}
	for _, a := range r.s.d.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Inbox implements the inbox store.
type Inbox struct{ s *Store }

func (s *Store) Inbox() *Inbox { return &Inbox{s} }

func (r *Inbox) Subscribe(_ context.Context, sub *models.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.d.subs {
		if existing.Email == sub.Email {
			return repository.ErrDuplicate
		}
	}
	stamp(&sub.BaseModel)
	r.s.d.subs = append(r.s.d.subs, *sub)
	return nil
}

func (r *Inbox) CreateContact(_ context.Context, msg *models.ContactMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&msg.BaseModel)
	r.s.d.contacts = append(r.s.d.contacts, *msg)
	return nil
}

func (r *Inbox) CreateSupport(_ context.Context, ticket *models.SupportTicket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&ticket.BaseModel)
	r.s.d.tickets = append(r.s.d.tickets, *ticket)
	return nil
}

// Payments implements the payment store.
type Payments struct{ s *Store }

func (s *Store) Payments() *Payments { return &Payments{s} }

func (r *Payments) CreateIntent(_ context.Context, intent *models.PaymentIntent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stamp(&intent.BaseModel)
	r.s.d.intents = append(r.s.d.intents, *intent)
	return nil
}
