package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/repositories"
)

const (
	orderIDPrefix     = "ord_"
	orderEventCreated = "order.created"
)

var (
	errOrderRepositoryRequired = errors.New("order service: repository is required")
	errOrderClockRequired      = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput signals the caller provided invalid data.
var ErrOrderInvalidInput = errors.New("order: invalid input")

// ErrOrderNotFound indicates the order could not be located.
var ErrOrderNotFound = errors.New("order: not found")

// ErrOrderInvalidState indicates a status transition or deletion was attempted
// from a state that forbids it.
var ErrOrderInvalidState = errors.New("order: invalid status transition")

// ErrOrderUnavailable indicates the order backend is unreachable.
var ErrOrderUnavailable = errors.New("order: unavailable")

// Shipped only follows Processing, Delivered only follows Shipped. There is
// no way back.
var orderStateTransitions = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusProcessing: domain.OrderStatusShipped,
	domain.OrderStatusShipped:    domain.OrderStatusDelivered,
}

// OrderEventPublisher publishes order domain events for the fulfillment pipeline.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, order domain.Order) error
}

// OrderService owns order creation, listing, cancellation-by-deletion and the
// status transitions driven by fulfillment.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
	AdvanceStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error)
}

// PlaceOrderCommand carries the client-submitted order payload.
type PlaceOrderCommand struct {
	UserID string
	Draft  domain.OrderDraft
}

// OrderServiceDeps wires repository, event and ambient dependencies.
type OrderServiceDeps struct {
	Repository  repositories.OrderRepository
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type orderService struct {
	repo   repositories.OrderRepository
	events OrderEventPublisher
	now    func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewOrderService constructs an OrderService validating required dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errOrderRepositoryRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return orderIDPrefix + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		repo:   deps.Repository,
		events: deps.Events,
		now:    func() time.Time { return deps.Clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// PlaceOrder validates the draft, stores the order with status Processing and
// publishes the created event. Event publication is best-effort: the order
// stands even when the fulfillment pipeline cannot be notified.
func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	if s == nil || s.repo == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	if err := validateOrderDraft(cmd.Draft); err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:     s.newID(),
		UserID: userID,
		Products: func() []domain.OrderLine {
			lines := make([]domain.OrderLine, len(cmd.Draft.Products))
			copy(lines, cmd.Draft.Products)
			return lines
		}(),
		TotalAmount: cmd.Draft.TotalAmount,
		ShippingInfo: domain.ShippingInfo{
			Name:    strings.TrimSpace(cmd.Draft.ShippingInfo.Name),
			Address: strings.TrimSpace(cmd.Draft.ShippingInfo.Address),
			City:    strings.TrimSpace(cmd.Draft.ShippingInfo.City),
			Pincode: strings.TrimSpace(cmd.Draft.ShippingInfo.Pincode),
		},
		PaymentMethod: strings.TrimSpace(cmd.Draft.PaymentMethod),
		Status:        domain.OrderStatusProcessing,
		OrderDate:     s.now(),
	}

	saved, err := s.repo.InsertOrder(ctx, order)
	if err != nil {
		return domain.Order{}, s.translateRepoError(err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, saved); err != nil {
			s.logger(ctx, orderEventCreated+".publish_failed", map[string]any{
				"orderID": saved.ID,
				"userID":  saved.UserID,
				"error":   err.Error(),
			})
		}
	}

	return saved, nil
}

// ListOrders returns the user's order history, newest first.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if s == nil || s.repo == nil {
		return nil, ErrOrderUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, ErrOrderInvalidInput
	}

	orders, err := s.repo.ListOrdersByUser(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// DeleteOrder cancels an order by deleting it, allowed only while Processing.
func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	if s == nil || s.repo == nil {
		return ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return ErrOrderInvalidInput
	}

	if err := s.repo.DeleteOrderIfProcessing(ctx, id); err != nil {
		if isRepoConflict(err) {
			return ErrOrderInvalidState
		}
		return s.translateRepoError(err)
	}
	return nil
}

// AdvanceStatus moves the order one step along Processing→Shipped→Delivered.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	if s == nil || s.repo == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}

	var expected domain.OrderStatus
	found := false
	for from, to := range orderStateTransitions {
		if to == next {
			expected = from
			found = true
			break
		}
	}
	if !found {
		return domain.Order{}, fmt.Errorf("%w: %s is not a reachable status", ErrOrderInvalidState, next)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, expected, next)
	if err != nil {
		if isRepoConflict(err) {
			return domain.Order{}, ErrOrderInvalidState
		}
		return domain.Order{}, s.translateRepoError(err)
	}
	return updated, nil
}

func (s *orderService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrOrderNotFound
		case repoErr.IsConflict():
			return ErrOrderInvalidState
		case repoErr.IsUnavailable():
			return ErrOrderUnavailable
		}
		return ErrOrderUnavailable
	}
	return ErrOrderUnavailable
}

func validateOrderDraft(draft domain.OrderDraft) error {
	if len(draft.Products) == 0 {
		return fmt.Errorf("%w: order needs at least one product", ErrOrderInvalidInput)
	}
	for i, line := range draft.Products {
		if strings.TrimSpace(line.ProductID) == "" {
			return fmt.Errorf("%w: product %d is missing productId", ErrOrderInvalidInput, i)
		}
		if line.Price < 0 {
			return fmt.Errorf("%w: product %d has a negative price", ErrOrderInvalidInput, i)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: product %d needs a positive quantity", ErrOrderInvalidInput, i)
		}
	}
	if draft.TotalAmount < 0 {
		return fmt.Errorf("%w: totalAmount must be non-negative", ErrOrderInvalidInput)
	}
	info := draft.ShippingInfo
	if strings.TrimSpace(info.Name) == "" || strings.TrimSpace(info.Address) == "" ||
		strings.TrimSpace(info.City) == "" || strings.TrimSpace(info.Pincode) == "" {
		return fmt.Errorf("%w: shippingInfo must have name, address, city and pincode", ErrOrderInvalidInput)
	}
	switch strings.TrimSpace(draft.PaymentMethod) {
	case domain.PaymentMethodCard, domain.PaymentMethodCashOnDelivery:
	default:
		return fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, draft.PaymentMethod)
	}
	return nil
}
