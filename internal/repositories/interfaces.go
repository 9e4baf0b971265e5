package repositories

import (
	"context"

	domain "github.com/gamex-store/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository persists the single cart document owned by each user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	DeleteCart(ctx context.Context, userID string) error
}

// UserRepository persists user profiles with their embedded address list.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error)
}

// OrderRepository persists orders and enforces status preconditions on
// mutations where noted.
type OrderRepository interface {
	InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// DeleteOrderIfProcessing removes the order only while its status is
	// Processing; any other status yields a conflict error.
	DeleteOrderIfProcessing(ctx context.Context, orderID string) error
	// UpdateStatus transitions the order status after validating the current
	// status matches expected, inside a transaction.
	UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus) (domain.Order, error)
}
