package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/platform/httpx"
	"github.com/gamex-store/api/internal/services"
)

const maxUserBodySize = 32 * 1024

// UserHandlers exposes profile reads and the address replace-write.
type UserHandlers struct {
	users services.UserService
}

// NewUserHandlers constructs handlers backed by the user service.
func NewUserHandlers(users services.UserService) *UserHandlers {
	return &UserHandlers{users: users}
}

// Routes wires the /users endpoints onto the provided router.
func (h *UserHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{userId}", h.getUser)
	r.Put("/{userId}", h.replaceAddresses)
}

func (h *UserHandlers) getUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	user, err := h.users.GetUser(ctx, chi.URLParam(r, "userId"))
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildUserPayload(user))
}

func (h *UserHandlers) replaceAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.users == nil {
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUserBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		Addresses *[]addressPayload `json:"addresses"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Addresses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "addresses must be an array", http.StatusBadRequest))
		return
	}

	addresses := make([]domain.ShippingAddress, 0, len(*req.Addresses))
	for _, addr := range *req.Addresses {
		addresses = append(addresses, domain.ShippingAddress{
			Street:  addr.Street,
			City:    addr.City,
			Pincode: addr.Pincode,
		})
	}

	user, err := h.users.ReplaceAddresses(ctx, chi.URLParam(r, "userId"), addresses)
	if err != nil {
		h.writeUserError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildUserPayload(user))
}

func (h *UserHandlers) writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("user_service_unavailable", "user service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("user_error", "user operation failed", http.StatusInternalServerError))
	}
}

func buildUserPayload(user domain.User) userPayload {
	addresses := make([]addressPayload, 0, len(user.Addresses))
	for _, addr := range user.Addresses {
		addresses = append(addresses, addressPayload{
			Street:  addr.Street,
			City:    addr.City,
			Pincode: addr.Pincode,
		})
	}
	return userPayload{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Addresses: addresses,
	}
}

type userPayload struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Addresses []addressPayload `json:"addresses"`
}

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}
