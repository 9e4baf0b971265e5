package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/services"
)

type stubOrderService struct {
	placeOrderFunc    func(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error)
	listOrdersFunc    func(ctx context.Context, userID string) ([]domain.Order, error)
	deleteOrderFunc   func(ctx context.Context, orderID string) error
	advanceStatusFunc func(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	if s.placeOrderFunc == nil {
		return domain.Order{}, services.ErrOrderUnavailable
	}
	return s.placeOrderFunc(ctx, cmd)
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if s.listOrdersFunc == nil {
		return []domain.Order{}, nil
	}
	return s.listOrdersFunc(ctx, userID)
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, orderID string) error {
	if s.deleteOrderFunc == nil {
		return nil
	}
	return s.deleteOrderFunc(ctx, orderID)
}

func (s *stubOrderService) AdvanceStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	if s.advanceStatusFunc == nil {
		return domain.Order{}, services.ErrOrderUnavailable
	}
	return s.advanceStatusFunc(ctx, orderID, next)
}

func newOrderRouter(service services.OrderService) chi.Router {
	handler := NewOrderHandlers(service)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)
	return router
}

func TestOrderHandlersPlaceOrder(t *testing.T) {
	placedAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	service := &stubOrderService{
		placeOrderFunc: func(_ context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
			if cmd.UserID != "user-1" {
				t.Fatalf("unexpected user id %q", cmd.UserID)
			}
			if len(cmd.Draft.Products) != 1 || cmd.Draft.PaymentMethod != domain.PaymentMethodCard {
				t.Fatalf("unexpected draft %#v", cmd.Draft)
			}
			return domain.Order{
				ID:            "ord_1",
				UserID:        cmd.UserID,
				Products:      []domain.OrderLine{{ProductID: "p1", Name: "Game A", Price: 100, Quantity: 1}},
				TotalAmount:   cmd.Draft.TotalAmount,
				ShippingInfo:  cmd.Draft.ShippingInfo,
				PaymentMethod: cmd.Draft.PaymentMethod,
				Status:        domain.OrderStatusProcessing,
				OrderDate:     placedAt,
			}, nil
		},
	}

	body := []byte(`{
		"products":[{"productId":"p1","name":"Game A","price":100,"quantity":1}],
		"totalAmount":100,
		"shippingInfo":{"name":"Ada","address":"12 High St","city":"Springfield","pincode":"560001"},
		"paymentMethod":"Card"
	}`)

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodPost, "/orders/user-1", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "ord_1" || payload.Status != string(domain.OrderStatusProcessing) {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestOrderHandlersPlaceOrderInvalidInput(t *testing.T) {
	service := &stubOrderService{
		placeOrderFunc: func(context.Context, services.PlaceOrderCommand) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderInvalidInput
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodPost, "/orders/user-1", bytes.NewReader([]byte(`{"products":[]}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersListOrders(t *testing.T) {
	service := &stubOrderService{
		listOrdersFunc: func(_ context.Context, userID string) ([]domain.Order, error) {
			return []domain.Order{
				{ID: "ord_2", UserID: userID, Status: domain.OrderStatusShipped},
				{ID: "ord_1", UserID: userID, Status: domain.OrderStatusDelivered},
			}, nil
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/orders/user-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload []orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 2 || payload[0].ID != "ord_2" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestOrderHandlersDeleteOrderConflict(t *testing.T) {
	service := &stubOrderService{
		deleteOrderFunc: func(context.Context, string) error {
			return services.ErrOrderInvalidState
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodDelete, "/orders/ord_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope["error"] != "order_invalid_state" {
		t.Fatalf("unexpected error code %v", envelope["error"])
	}
}

func TestOrderHandlersUpdateStatus(t *testing.T) {
	service := &stubOrderService{
		advanceStatusFunc: func(_ context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
			if next != domain.OrderStatusShipped {
				t.Fatalf("unexpected target status %q", next)
			}
			return domain.Order{ID: orderID, Status: next}, nil
		},
	}

	router := newOrderRouter(service)
	req := httptest.NewRequest(http.MethodPut, "/orders/ord_1/status", bytes.NewReader([]byte(`{"status":"Shipped"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderHandlersUpdateStatusRejectsBlankStatus(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := httptest.NewRequest(http.MethodPut, "/orders/ord_1/status", bytes.NewReader([]byte(`{"status":"  "}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
