package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/gamex-store/api/internal/domain"
)

// APIError carries the backend's JSON error envelope.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether the backend answered 404.
func (e *APIError) IsNotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// Client is a typed HTTP client for the storefront REST backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	rel := &url.URL{Path: path}
	u := c.baseURL.ResolveReference(rel)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); readErr == nil {
			_ = json.Unmarshal(data, apiErr)
			apiErr.Status = resp.StatusCode
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type cartEnvelope struct {
	Products []domain.CartLineItem `json:"products"`
}

// FetchCart loads the user's cart line items.
func (c *Client) FetchCart(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(userID), nil, &env); err != nil {
		return nil, err
	}
	return env.Products, nil
}

// AddItem posts a line item and returns the server's resulting cart.
func (c *Client) AddItem(ctx context.Context, userID string, item domain.CartLineItem) ([]domain.CartLineItem, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/cart/"+url.PathEscape(userID), item, &env); err != nil {
		return nil, err
	}
	return env.Products, nil
}

// SetQuantity replaces a line item's quantity and returns the resulting cart.
func (c *Client) SetQuantity(ctx context.Context, userID, productID string, quantity int) ([]domain.CartLineItem, error) {
	var env cartEnvelope
	path := "/api/cart/" + url.PathEscape(userID) + "/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodPut, path, map[string]int{"quantity": quantity}, &env); err != nil {
		return nil, err
	}
	return env.Products, nil
}

// RemoveItem deletes a line item and returns the resulting cart.
func (c *Client) RemoveItem(ctx context.Context, userID, productID string) ([]domain.CartLineItem, error) {
	var env cartEnvelope
	path := "/api/cart/" + url.PathEscape(userID) + "/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Products, nil
}

// ClearCart drops the user's whole cart document.
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+url.PathEscape(userID), nil, nil)
}

// GetUser loads the profile record including saved addresses.
func (c *Client) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ReplaceAddresses overwrites the user's saved address list.
func (c *Client) ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error) {
	var user domain.User
	payload := map[string][]domain.ShippingAddress{"addresses": addresses}
	if err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(userID), payload, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// PlaceOrder submits an order draft for the user.
func (c *Client) PlaceOrder(ctx context.Context, userID string, draft domain.OrderDraft) (domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(userID), draft, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// ListOrders loads the user's order history, newest first.
func (c *Client) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(userID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
