package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/repositories"
)

var (
	errCartRepositoryRequired = errors.New("cart service: repository is required")
	errCartClockRequired      = errors.New("cart service: clock is required")
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart service cannot fulfil the request due to backend issues.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// ErrCartNotFound indicates the user has no cart document yet.
var ErrCartNotFound = errors.New("cart service: not found")

// ErrCartItemNotFound indicates the addressed line item is not in the cart.
var ErrCartItemNotFound = errors.New("cart service: item not found")

// CartService owns every cart mutation. Each mutation rewrites the whole
// line-item sequence so the stored document is always the single source of
// truth the client replaces its state from.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartLineItem) (domain.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// CartServiceDeps wires the repository and ambient dependencies for cart operations.
type CartServiceDeps struct {
	Repository repositories.CartRepository
	Clock      func() time.Time
	Logger     func(context.Context, string, map[string]any)
}

type cartService struct {
	repo   repositories.CartRepository
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Repository == nil {
		return nil, errCartRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errCartClockRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		repo:   deps.Repository,
		now:    func() time.Time { return deps.Clock().UTC() },
		logger: logger,
	}, nil
}

// GetCart loads the user's cart. A user without a cart yields ErrCartNotFound;
// the storefront treats that as an empty cart.
func (s *cartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// AddItem inserts a line item, or bumps the quantity when the product is
// already present. The merge decision lives here on the server; the client
// always submits quantity 1 and adopts whatever comes back.
func (s *cartService) AddItem(ctx context.Context, userID string, item domain.CartLineItem) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if err := validateLineItem(item); err != nil {
		return domain.Cart{}, err
	}

	cart, err := s.loadOrNewCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	productID := strings.TrimSpace(item.ProductID)
	merged := false
	for i := range cart.Products {
		if cart.Products[i].ProductID != productID {
			continue
		}
		cart.Products[i].Quantity += item.Quantity
		cart.Products[i].Name = strings.TrimSpace(item.Name)
		cart.Products[i].Description = strings.TrimSpace(item.Description)
		cart.Products[i].Image = strings.TrimSpace(item.Image)
		cart.Products[i].Price = item.Price
		merged = true
		break
	}
	if !merged {
		cart.Products = append(cart.Products, domain.CartLineItem{
			ProductID:   productID,
			Name:        strings.TrimSpace(item.Name),
			Description: strings.TrimSpace(item.Description),
			Image:       strings.TrimSpace(item.Image),
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	return s.saveCart(ctx, cart)
}

// SetQuantity replaces the quantity of an existing line item.
func (s *cartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}
	if quantity < 1 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must be a positive integer", ErrCartInvalidInput)
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}

	idx := indexOfLineItem(cart.Products, pid)
	if idx < 0 {
		return domain.Cart{}, ErrCartItemNotFound
	}
	cart.Products[idx].Quantity = quantity

	return s.saveCart(ctx, cart)
}

// RemoveItem deletes a line item. The cart document survives empty so
// subsequent fetches keep succeeding.
func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	if s == nil || s.repo == nil {
		return domain.Cart{}, ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	pid := strings.TrimSpace(productID)
	if uid == "" || pid == "" {
		return domain.Cart{}, ErrCartInvalidInput
	}

	cart, err := s.repo.GetCart(ctx, uid)
	if err != nil {
		return domain.Cart{}, s.translateRepoError(err)
	}

	idx := indexOfLineItem(cart.Products, pid)
	if idx < 0 {
		return domain.Cart{}, ErrCartItemNotFound
	}
	cart.Products = append(cart.Products[:idx], cart.Products[idx+1:]...)

	return s.saveCart(ctx, cart)
}

// ClearCart drops the whole cart document. A missing cart counts as cleared.
func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	if s == nil || s.repo == nil {
		return ErrCartUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return ErrCartInvalidInput
	}

	if err := s.repo.DeleteCart(ctx, uid); err != nil {
		if isRepoNotFound(err) {
			return nil
		}
		return s.translateRepoError(err)
	}
	return nil
}

func (s *cartService) loadOrNewCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		if isRepoNotFound(err) {
			return domain.Cart{
				UserID:    userID,
				Products:  []domain.CartLineItem{},
				UpdatedAt: s.now(),
			}, nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

func (s *cartService) saveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.UpdatedAt = s.now()
	saved, err := s.repo.SaveCart(ctx, cart)
	if err != nil {
		s.logger(ctx, "cart.save_failed", map[string]any{
			"userID": cart.UserID,
			"error":  err.Error(),
		})
		return domain.Cart{}, s.translateRepoError(err)
	}
	return saved, nil
}

func (s *cartService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCartNotFound
		case repoErr.IsUnavailable():
			return ErrCartUnavailable
		}
		return ErrCartUnavailable
	}
	return ErrCartUnavailable
}

func validateLineItem(item domain.CartLineItem) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return fmt.Errorf("%w: productId is required", ErrCartInvalidInput)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrCartInvalidInput)
	}
	if item.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", ErrCartInvalidInput)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrCartInvalidInput)
	}
	return nil
}

func indexOfLineItem(items []domain.CartLineItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
