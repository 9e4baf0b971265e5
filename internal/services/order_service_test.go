package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/gamex-store/api/internal/domain"
)

type stubOrderRepository struct {
	insertOrder             func(ctx context.Context, order domain.Order) (domain.Order, error)
	getOrder                func(ctx context.Context, orderID string) (domain.Order, error)
	listOrdersByUser        func(ctx context.Context, userID string) ([]domain.Order, error)
	deleteOrderIfProcessing func(ctx context.Context, orderID string) error
	updateStatus            func(ctx context.Context, orderID string, expected, next domain.OrderStatus) (domain.Order, error)
}

func (s *stubOrderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if s.insertOrder == nil {
		return order, nil
	}
	return s.insertOrder(ctx, order)
}

func (s *stubOrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getOrder == nil {
		return domain.Order{}, stubRepoError{notFound: true}
	}
	return s.getOrder(ctx, orderID)
}

func (s *stubOrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listOrdersByUser == nil {
		return nil, nil
	}
	return s.listOrdersByUser(ctx, userID)
}

func (s *stubOrderRepository) DeleteOrderIfProcessing(ctx context.Context, orderID string) error {
	if s.deleteOrderIfProcessing == nil {
		return nil
	}
	return s.deleteOrderIfProcessing(ctx, orderID)
}

func (s *stubOrderRepository) UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus) (domain.Order, error) {
	if s.updateStatus == nil {
		return domain.Order{ID: orderID, Status: next}, nil
	}
	return s.updateStatus(ctx, orderID, expected, next)
}

type stubOrderPublisher struct {
	published []domain.Order
	err       error
}

func (s *stubOrderPublisher) PublishOrderCreated(_ context.Context, order domain.Order) error {
	s.published = append(s.published, order)
	return s.err
}

func validDraft() domain.OrderDraft {
	return domain.OrderDraft{
		Products: []domain.OrderLine{
			{ProductID: "p1", Name: "Game A", Price: 100, Quantity: 1},
			{ProductID: "p2", Name: "Game B", Price: 50, Quantity: 2},
		},
		TotalAmount: 200,
		ShippingInfo: domain.ShippingInfo{
			Name:    "Ada",
			Address: "12 High St",
			City:    "Springfield",
			Pincode: "560001",
		},
		PaymentMethod: domain.PaymentMethodCashOnDelivery,
	}
}

func newOrderServiceForTest(t *testing.T, repo *stubOrderRepository, events OrderEventPublisher) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{
		Repository:  repo,
		Events:      events,
		Clock:       fixedClock,
		IDGenerator: func() string { return "ord_test" },
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestNewOrderServiceValidatesDeps(t *testing.T) {
	if _, err := NewOrderService(OrderServiceDeps{Clock: fixedClock}); err == nil {
		t.Fatal("expected error for missing repository")
	}
	if _, err := NewOrderService(OrderServiceDeps{Repository: &stubOrderRepository{}}); err == nil {
		t.Fatal("expected error for missing clock")
	}
}

func TestOrderServicePlaceOrderStoresProcessingOrder(t *testing.T) {
	var inserted domain.Order
	repo := &stubOrderRepository{
		insertOrder: func(_ context.Context, order domain.Order) (domain.Order, error) {
			inserted = order
			return order, nil
		},
	}
	events := &stubOrderPublisher{}
	svc := newOrderServiceForTest(t, repo, events)

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: "user-1", Draft: validDraft()})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.ID != "ord_test" {
		t.Fatalf("expected generated id, got %q", order.ID)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected Processing status, got %q", order.Status)
	}
	if !inserted.OrderDate.Equal(fixedClock()) {
		t.Fatalf("expected order date from clock, got %v", inserted.OrderDate)
	}
	if len(events.published) != 1 || events.published[0].ID != "ord_test" {
		t.Fatalf("expected one published event, got %#v", events.published)
	}
}

func TestOrderServicePlaceOrderSurvivesPublishFailure(t *testing.T) {
	events := &stubOrderPublisher{err: errors.New("broker down")}
	svc := newOrderServiceForTest(t, &stubOrderRepository{}, events)

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: "user-1", Draft: validDraft()}); err != nil {
		t.Fatalf("PlaceOrder should not fail on publish error, got %v", err)
	}
}

func TestOrderServicePlaceOrderValidatesDraft(t *testing.T) {
	svc := newOrderServiceForTest(t, &stubOrderRepository{}, nil)

	cases := []struct {
		name   string
		mutate func(*domain.OrderDraft)
	}{
		{"empty products", func(d *domain.OrderDraft) { d.Products = nil }},
		{"missing product id", func(d *domain.OrderDraft) { d.Products[0].ProductID = " " }},
		{"negative price", func(d *domain.OrderDraft) { d.Products[0].Price = -1 }},
		{"zero quantity", func(d *domain.OrderDraft) { d.Products[0].Quantity = 0 }},
		{"negative total", func(d *domain.OrderDraft) { d.TotalAmount = -1 }},
		{"missing shipping name", func(d *domain.OrderDraft) { d.ShippingInfo.Name = "" }},
		{"missing pincode", func(d *domain.OrderDraft) { d.ShippingInfo.Pincode = "  " }},
		{"unknown payment method", func(d *domain.OrderDraft) { d.PaymentMethod = "Cheque" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: "user-1", Draft: draft}); !errors.Is(err, ErrOrderInvalidInput) {
				t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
			}
		})
	}
}

func TestOrderServiceDefaultIDGeneratorUsesPrefix(t *testing.T) {
	svc, err := NewOrderService(OrderServiceDeps{Repository: &stubOrderRepository{}, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{UserID: "user-1", Draft: validDraft()})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !strings.HasPrefix(order.ID, orderIDPrefix) {
		t.Fatalf("expected %q prefix, got %q", orderIDPrefix, order.ID)
	}
}

func TestOrderServiceListOrdersReturnsEmptySlice(t *testing.T) {
	svc := newOrderServiceForTest(t, &stubOrderRepository{}, nil)

	orders, err := svc.ListOrders(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if orders == nil {
		t.Fatal("expected non-nil slice for empty history")
	}
}

func TestOrderServiceDeleteOrderMapsConflict(t *testing.T) {
	repo := &stubOrderRepository{
		deleteOrderIfProcessing: func(context.Context, string) error {
			return stubRepoError{conflict: true}
		},
	}
	svc := newOrderServiceForTest(t, repo, nil)

	if err := svc.DeleteOrder(context.Background(), "ord_1"); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState, got %v", err)
	}
}

func TestOrderServiceDeleteOrderMapsNotFound(t *testing.T) {
	repo := &stubOrderRepository{
		deleteOrderIfProcessing: func(context.Context, string) error {
			return stubRepoError{notFound: true}
		},
	}
	svc := newOrderServiceForTest(t, repo, nil)

	if err := svc.DeleteOrder(context.Background(), "ord_1"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderServiceAdvanceStatusFollowsTransitionMap(t *testing.T) {
	var gotExpected, gotNext domain.OrderStatus
	repo := &stubOrderRepository{
		updateStatus: func(_ context.Context, orderID string, expected, next domain.OrderStatus) (domain.Order, error) {
			gotExpected, gotNext = expected, next
			return domain.Order{ID: orderID, Status: next}, nil
		},
	}
	svc := newOrderServiceForTest(t, repo, nil)

	order, err := svc.AdvanceStatus(context.Background(), "ord_1", domain.OrderStatusShipped)
	if err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}
	if gotExpected != domain.OrderStatusProcessing || gotNext != domain.OrderStatusShipped {
		t.Fatalf("unexpected transition %q -> %q", gotExpected, gotNext)
	}
	if order.Status != domain.OrderStatusShipped {
		t.Fatalf("expected Shipped, got %q", order.Status)
	}
}

func TestOrderServiceAdvanceStatusRejectsUnreachableTarget(t *testing.T) {
	svc := newOrderServiceForTest(t, &stubOrderRepository{}, nil)

	if _, err := svc.AdvanceStatus(context.Background(), "ord_1", domain.OrderStatusProcessing); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState, got %v", err)
	}
}

func TestOrderServiceAdvanceStatusMapsConflict(t *testing.T) {
	repo := &stubOrderRepository{
		updateStatus: func(context.Context, string, domain.OrderStatus, domain.OrderStatus) (domain.Order, error) {
			return domain.Order{}, stubRepoError{conflict: true}
		},
	}
	svc := newOrderServiceForTest(t, repo, nil)

	if _, err := svc.AdvanceStatus(context.Background(), "ord_1", domain.OrderStatusDelivered); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState, got %v", err)
	}
}
