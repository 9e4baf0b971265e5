package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/services"
)

type stubUserService struct {
	getUserFunc          func(ctx context.Context, userID string) (domain.User, error)
	replaceAddressesFunc func(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error)
}

func (s *stubUserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if s.getUserFunc == nil {
		return domain.User{}, services.ErrUserNotFound
	}
	return s.getUserFunc(ctx, userID)
}

func (s *stubUserService) ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error) {
	if s.replaceAddressesFunc == nil {
		return domain.User{ID: userID, Addresses: addresses}, nil
	}
	return s.replaceAddressesFunc(ctx, userID, addresses)
}

func newUserRouter(service services.UserService) chi.Router {
	handler := NewUserHandlers(service)
	router := chi.NewRouter()
	router.Route("/users", handler.Routes)
	return router
}

func TestUserHandlersGetUser(t *testing.T) {
	service := &stubUserService{
		getUserFunc: func(_ context.Context, userID string) (domain.User, error) {
			return domain.User{
				ID:    userID,
				Name:  "Ada",
				Email: "ada@example.com",
				Addresses: []domain.ShippingAddress{
					{Street: "12 High St", City: "Springfield", Pincode: "560001"},
				},
			}, nil
		},
	}

	router := newUserRouter(service)
	req := httptest.NewRequest(http.MethodGet, "/users/user-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload userPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "user-1" || len(payload.Addresses) != 1 {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestUserHandlersGetUserNotFound(t *testing.T) {
	router := newUserRouter(&stubUserService{})
	req := httptest.NewRequest(http.MethodGet, "/users/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestUserHandlersReplaceAddresses(t *testing.T) {
	var got []domain.ShippingAddress
	service := &stubUserService{
		replaceAddressesFunc: func(_ context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error) {
			got = addresses
			return domain.User{ID: userID, Addresses: addresses}, nil
		},
	}

	body := []byte(`{"addresses":[{"street":"12 High St","city":"Springfield","pincode":"560001"}]}`)
	router := newUserRouter(service)
	req := httptest.NewRequest(http.MethodPut, "/users/user-1", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(got) != 1 || got[0].Street != "12 High St" {
		t.Fatalf("unexpected addresses %#v", got)
	}
}

func TestUserHandlersReplaceAddressesRequiresArray(t *testing.T) {
	router := newUserRouter(&stubUserService{})
	req := httptest.NewRequest(http.MethodPut, "/users/user-1", bytes.NewReader([]byte(`{"street":"oops"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
