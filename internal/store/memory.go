package store

import (
	"context"                     // Store interface signatures
	"fmt"                         // Error wrapping
	"marketplace/internal/domain" // Importing domain models
	"sort"                        // Ordered listings
	"sync"                        // Guards the maps
	"time"                        // Timestamps
)

// MemoryStore keeps everything in process memory. Used for local runs
// (STORE_DRIVER=memory) and tests.
type MemoryStore struct {
	mu sync.RWMutex // Guards every field below

	users    map[string]domain.User    // Keyed by username
	products map[string]domain.Product // Keyed by product name
	orders   []domain.Order            // Appended in id order

	nextOrderID uint // Next surrogate order id
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]domain.User),
		products:    make(map[string]domain.Product),
		nextOrderID: 1,
	}
}

// InsertUser stores a new user, rejecting a taken username
func (s *MemoryStore) InsertUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return fmt.Errorf("%w: insert user %s", domain.ErrAlreadyExists, user.Username)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now() // Mirror autoCreateTime
	}
	s.users[user.Username] = *user
	return nil
}

// FindUserByName returns the user with the given name
func (s *MemoryStore) FindUserByName(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: find user %s", domain.ErrNotFound, username)
	}
	return &u, nil
}

// UpsertProduct inserts or fully replaces the product with the same name
func (s *MemoryStore) UpsertProduct(_ context.Context, product *domain.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := *product
	p.Image = cloneBytes(product.Image)
	p.UpdatedAt = now

	existing, exists := s.products[p.ProductName]
	if exists {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	s.products[p.ProductName] = p // Last write wins

	product.CreatedAt = p.CreatedAt
	product.UpdatedAt = p.UpdatedAt
	return !exists, nil
}

// FindProductByName returns a copy of the named product
func (s *MemoryStore) FindProductByName(_ context.Context, name string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[name]
	if !ok {
		return nil, fmt.Errorf("%w: find product %s", domain.ErrNotFound, name)
	}
	p.Image = cloneBytes(p.Image)
	return &p, nil
}

// ListProducts returns the catalog ordered by product name
func (s *MemoryStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Image = cloneBytes(p.Image)
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ProductName < res[j].ProductName })
	return res, nil
}

// InsertOrder assigns the next id and appends the order
func (s *MemoryStore) InsertOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[order.ProductName]; !ok {
		return fmt.Errorf("%w: product %q", domain.ErrNotFound, order.ProductName)
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	order.ID = s.nextOrderID
	order.CreatedAt = time.Now()
	s.nextOrderID++
	s.orders = append(s.orders, *order)
	return nil
}

// FindOrder returns the order with the given id
func (s *MemoryStore) FindOrder(_ context.Context, id uint) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.orderIndex(id); i >= 0 {
		o := s.orders[i]
		return &o, nil
	}
	return nil, fmt.Errorf("%w: find order %d", domain.ErrNotFound, id)
}

// ListOrders returns every order, oldest first
func (s *MemoryStore) ListOrders(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]domain.Order, len(s.orders))
	copy(res, s.orders)
	return res, nil
}

// ListOrdersPage returns one page of orders and the total order count
func (s *MemoryStore) ListOrdersPage(_ context.Context, offset, limit int) ([]domain.Order, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.orders)
	start := min(max(offset, 0), total) // Clamp offset into range
	end := min(start+max(limit, 0), total)
	res := make([]domain.Order, end-start)
	copy(res, s.orders[start:end])
	return res, int64(total), nil
}

// ListOrdersByUser returns the orders placed by one user, oldest first
func (s *MemoryStore) ListOrdersByUser(_ context.Context, username string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := []domain.Order{}
	for _, o := range s.orders {
		if o.Username == username {
			res = append(res, o)
		}
	}
	return res, nil
}

// UpdateOrderStatus moves the order from one status to another
func (s *MemoryStore) UpdateOrderStatus(_ context.Context, id uint, from, to domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.orderIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: update order %d", domain.ErrNotFound, id)
	}
	if s.orders[i].Status != from {
		return nil, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, id, s.orders[i].Status)
	}
	s.orders[i].Status = to // Compare-and-set under the write lock
	o := s.orders[i]
	return &o, nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

// orderIndex relies on orders being appended in id order. Callers hold mu.
func (s *MemoryStore) orderIndex(id uint) int {
	i := sort.Search(len(s.orders), func(i int) bool { return s.orders[i].ID >= id })
	if i < len(s.orders) && s.orders[i].ID == id {
		return i
	}
	return -1
}

// cloneBytes keeps callers from mutating stored images
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
