package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/platform/httpx"
	"github.com/gamex-store/api/internal/services"
)

const maxOrderBodySize = 64 * 1024

// OrderHandlers exposes order placement, history, cancellation and the
// fulfillment status hook.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs handlers backed by the order service.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	// GET and POST address the segment as a user id, DELETE and PUT as an
	// order id. chi requires a single wildcard name per position.
	r.Get("/{id}", h.listOrders)
	r.Post("/{id}", h.placeOrder)
	r.Delete("/{id}", h.deleteOrder)
	r.Put("/{id}/status", h.updateStatus)
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req orderDraftPayload
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		UserID: chi.URLParam(r, "id"),
		Draft:  req.toDraft(),
	})
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	orders, err := h.orders.ListOrders(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.orders.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status must be a non-empty string", http.StatusBadRequest))
		return
	}

	order, err := h.orders.AdvanceStatus(ctx, chi.URLParam(r, "id"), domain.OrderStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("order_invalid_state", "order status does not allow this operation", http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "order operation failed", http.StatusInternalServerError))
	}
}

func buildOrderPayload(order domain.Order) orderPayload {
	lines := make([]orderLinePayload, 0, len(order.Products))
	for _, line := range order.Products {
		lines = append(lines, orderLinePayload{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	return orderPayload{
		ID:          order.ID,
		UserID:      order.UserID,
		Products:    lines,
		TotalAmount: order.TotalAmount,
		ShippingInfo: shippingInfoPayload{
			Name:    order.ShippingInfo.Name,
			Address: order.ShippingInfo.Address,
			City:    order.ShippingInfo.City,
			Pincode: order.ShippingInfo.Pincode,
		},
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		OrderDate:     order.OrderDate.UTC().Format(time.RFC3339Nano),
	}
}

type orderPayload struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Products      []orderLinePayload  `json:"products"`
	TotalAmount   float64             `json:"totalAmount"`
	ShippingInfo  shippingInfoPayload `json:"shippingInfo"`
	PaymentMethod string              `json:"paymentMethod"`
	Status        string              `json:"status"`
	OrderDate     string              `json:"orderDate"`
}

type orderLinePayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type shippingInfoPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

type orderDraftPayload struct {
	Products      []orderLinePayload  `json:"products"`
	TotalAmount   float64             `json:"totalAmount"`
	ShippingInfo  shippingInfoPayload `json:"shippingInfo"`
	PaymentMethod string              `json:"paymentMethod"`
}

func (p orderDraftPayload) toDraft() domain.OrderDraft {
	lines := make([]domain.OrderLine, 0, len(p.Products))
	for _, line := range p.Products {
		lines = append(lines, domain.OrderLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}
	return domain.OrderDraft{
		Products:    lines,
		TotalAmount: p.TotalAmount,
		ShippingInfo: domain.ShippingInfo{
			Name:    p.ShippingInfo.Name,
			Address: p.ShippingInfo.Address,
			City:    p.ShippingInfo.City,
			Pincode: p.ShippingInfo.Pincode,
		},
		PaymentMethod: p.PaymentMethod,
	}
}
