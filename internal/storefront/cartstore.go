package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"

	domain "github.com/gamex-store/api/internal/domain"
)

// CartAPI is the slice of the backend client the cart store depends on.
type CartAPI interface {
	FetchCart(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	AddItem(ctx context.Context, userID string, item domain.CartLineItem) ([]domain.CartLineItem, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) ([]domain.CartLineItem, error)
	RemoveItem(ctx context.Context, userID, productID string) ([]domain.CartLineItem, error)
	ClearCart(ctx context.Context, userID string) error
}

var errCartStoreNoIdentity = errors.New("cart store: no identity")

// CartStore holds the client-side cart state for the current identity. Every
// mutation round-trips to the backend and replaces local state from the
// server response; the store never merges locally.
type CartStore struct {
	mu     sync.Mutex
	api    CartAPI
	logger func(context.Context, string, map[string]any)

	userID string
	items  []domain.CartLineItem
}

// CartStoreDeps wires the backend client and ambient dependencies.
type CartStoreDeps struct {
	API    CartAPI
	Logger func(context.Context, string, map[string]any)
}

// NewCartStore constructs an empty cart store with no identity.
func NewCartStore(deps CartStoreDeps) (*CartStore, error) {
	if deps.API == nil {
		return nil, errors.New("cart store: api client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &CartStore{api: deps.API, logger: logger}, nil
}

// SetIdentity reacts to an identity change. An empty id clears the cart
// synchronously with no network traffic. A new id fetches that user's cart;
// any fetch failure, a missing cart included, leaves the store empty.
func (s *CartStore) SetIdentity(ctx context.Context, userID string) {
	uid := strings.TrimSpace(userID)

	if uid == "" {
		s.mu.Lock()
		s.userID = ""
		s.items = nil
		s.mu.Unlock()
		return
	}

	items, err := s.api.FetchCart(ctx, uid)
	if err != nil {
		s.logger(ctx, "cartstore.fetch_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
		items = nil
	}

	s.mu.Lock()
	s.userID = uid
	s.items = items
	s.mu.Unlock()
}

// Identity returns the current user id, empty when signed out.
func (s *CartStore) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Add submits the product with quantity 1 and reports whether it landed in
// the cart. Without an identity, or on any backend failure, it returns false
// and leaves local state untouched.
func (s *CartStore) Add(ctx context.Context, product domain.CartLineItem) bool {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return false
	}

	product.Quantity = 1
	items, err := s.api.AddItem(ctx, uid, product)
	if err != nil {
		s.logger(ctx, "cartstore.add_failed", map[string]any{
			"userID":    uid,
			"productID": product.ProductID,
			"error":     err.Error(),
		})
		return false
	}

	s.replaceItems(uid, items)
	return true
}

// UpdateQuantity sets the line item's quantity on the backend and adopts the
// response. Failures are logged and swallowed; callers get no signal.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return
	}

	items, err := s.api.SetQuantity(ctx, uid, productID, quantity)
	if err != nil {
		s.logger(ctx, "cartstore.update_failed", map[string]any{
			"userID":    uid,
			"productID": productID,
			"error":     err.Error(),
		})
		return
	}

	s.replaceItems(uid, items)
}

// Remove deletes the line item on the backend and adopts the response.
// Failures are logged and swallowed, like UpdateQuantity.
func (s *CartStore) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return
	}

	items, err := s.api.RemoveItem(ctx, uid, productID)
	if err != nil {
		s.logger(ctx, "cartstore.remove_failed", map[string]any{
			"userID":    uid,
			"productID": productID,
			"error":     err.Error(),
		})
		return
	}

	s.replaceItems(uid, items)
}

// Clear drops the backend cart and empties local state. The error goes back
// to the caller; the checkout flow treats it as best-effort.
func (s *CartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	uid := s.userID
	s.mu.Unlock()
	if uid == "" {
		return errCartStoreNoIdentity
	}

	if err := s.api.ClearCart(ctx, uid); err != nil {
		return err
	}

	s.replaceItems(uid, nil)
	return nil
}

// Items returns a snapshot copy of the current line items.
func (s *CartStore) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total recomputes the cart total from the current line items.
func (s *CartStore) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, item := range s.items {
		if item.Quantity <= 0 {
			continue
		}
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// replaceItems adopts a server response, unless the identity changed while
// the request was in flight.
func (s *CartStore) replaceItems(userID string, items []domain.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != userID {
		return
	}
	s.items = items
}
