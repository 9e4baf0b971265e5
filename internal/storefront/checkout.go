package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/gamex-store/api/internal/domain"
)

// Step identifies a checkout step. Steps advance linearly and only ever move
// back to a lower step.
type Step int

const (
	StepShipping Step = 1
	StepPayment  Step = 2
	StepConfirm  Step = 3
)

const cardNumberLength = 16

// Sentinel errors surfaced by the checkout flow.
var (
	ErrCheckoutNotEntered     = errors.New("checkout: flow not entered")
	ErrCheckoutWrongStep      = errors.New("checkout: operation not valid on this step")
	ErrCheckoutInvalidForm    = errors.New("checkout: invalid form")
	ErrInvalidCardNumber      = errors.New("checkout: card number must be 16 digits")
	ErrOrderInFlight          = errors.New("checkout: an order is already being placed")
	ErrOrderPlacementFailed   = errors.New("checkout: order placement failed")
	ErrCheckoutNoIdentity     = errors.New("checkout: no signed-in user")
	ErrCheckoutEmptyCart      = errors.New("checkout: cart is empty")
	errCheckoutCartRequired   = errors.New("checkout: cart store is required")
	errCheckoutOrdersRequired = errors.New("checkout: orders client is required")
)

// UserAPI is the slice of the backend client used for saved addresses.
type UserAPI interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error)
}

// OrderAPI is the slice of the backend client used for order submission.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, userID string, draft domain.OrderDraft) (domain.Order, error)
}

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(route string)
}

// Notifier surfaces outcome messages to the user.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// ShippingForm is the step-1 input. SavedIndex selects an address from the
// saved list; -1 means the street fields describe a new address.
type ShippingForm struct {
	Name       string
	SavedIndex int
	Street     string
	City       string
	Pincode    string
}

// PaymentForm is the step-2 input. CardNumber stays inside the flow and is
// never part of the order payload.
type PaymentForm struct {
	Method     string
	CardNumber string
}

// CheckoutFlowDeps wires every collaborator explicitly.
type CheckoutFlowDeps struct {
	Cart          *CartStore
	Identity      func() string
	Addresses     UserAPI
	Orders        OrderAPI
	Navigator     Navigator
	Notifier      Notifier
	Logger        func(context.Context, string, map[string]any)
	Clock         func() time.Time
	OrderTimeout  time.Duration
	ProductsRoute string
	OrdersRoute   string
}

// CheckoutFlow is the linear step machine driving checkout: shipping, then
// payment, then confirmation.
type CheckoutFlow struct {
	mu sync.Mutex

	cart         *CartStore
	identity     func() string
	addresses    UserAPI
	orders       OrderAPI
	nav          Navigator
	notify       Notifier
	logger       func(context.Context, string, map[string]any)
	clock        func() time.Time
	orderTimeout time.Duration

	productsRoute string
	ordersRoute   string

	step     Step
	entered  bool
	saved    []domain.ShippingAddress
	shipping domain.ShippingInfo
	payment  PaymentForm

	placing atomic.Bool
}

// NewCheckoutFlow constructs a flow validating its required dependencies.
func NewCheckoutFlow(deps CheckoutFlowDeps) (*CheckoutFlow, error) {
	if deps.Cart == nil {
		return nil, errCheckoutCartRequired
	}
	if deps.Orders == nil {
		return nil, errCheckoutOrdersRequired
	}

	identity := deps.Identity
	if identity == nil {
		identity = deps.Cart.Identity
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	timeout := deps.OrderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	productsRoute := deps.ProductsRoute
	if productsRoute == "" {
		productsRoute = "/products"
	}
	ordersRoute := deps.OrdersRoute
	if ordersRoute == "" {
		ordersRoute = "/orders"
	}

	return &CheckoutFlow{
		cart:          deps.Cart,
		identity:      identity,
		addresses:     deps.Addresses,
		orders:        deps.Orders,
		nav:           deps.Navigator,
		notify:        deps.Notifier,
		logger:        logger,
		clock:         clock,
		orderTimeout:  timeout,
		productsRoute: productsRoute,
		ordersRoute:   ordersRoute,
	}, nil
}

// Enter gates the flow: a checkout with an empty cart and no order in flight
// redirects to the products route and is not enterable. Saved addresses are
// loaded best-effort.
func (f *CheckoutFlow) Enter(ctx context.Context) bool {
	if len(f.cart.Items()) == 0 && !f.placing.Load() {
		if f.nav != nil {
			f.nav.Navigate(f.productsRoute)
		}
		return false
	}

	saved := f.loadSavedAddresses(ctx)

	f.mu.Lock()
	f.entered = true
	f.step = StepShipping
	f.saved = saved
	f.mu.Unlock()
	return true
}

// Step returns the current step; zero before Enter.
func (f *CheckoutFlow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Back moves one step down. It never skips and never leaves step 1.
func (f *CheckoutFlow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepShipping {
		f.step--
	}
}

// SavedAddresses returns a snapshot of the addresses loaded on Enter.
func (f *CheckoutFlow) SavedAddresses() []domain.ShippingAddress {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ShippingAddress, len(f.saved))
	copy(out, f.saved)
	return out
}

// SubmitShipping validates the step-1 form and advances to Payment. A new
// address is appended to the saved list and persisted with a full
// replace-write; persistence failure is logged and never blocks the advance.
func (f *CheckoutFlow) SubmitShipping(ctx context.Context, form ShippingForm) error {
	f.mu.Lock()
	if !f.entered {
		f.mu.Unlock()
		return ErrCheckoutNotEntered
	}
	if f.step != StepShipping {
		f.mu.Unlock()
		return ErrCheckoutWrongStep
	}
	saved := make([]domain.ShippingAddress, len(f.saved))
	copy(saved, f.saved)
	f.mu.Unlock()

	name := strings.TrimSpace(form.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrCheckoutInvalidForm)
	}

	var addr domain.ShippingAddress
	isNew := form.SavedIndex < 0 || form.SavedIndex >= len(saved)
	if isNew {
		addr = domain.ShippingAddress{
			Street:  strings.TrimSpace(form.Street),
			City:    strings.TrimSpace(form.City),
			Pincode: strings.TrimSpace(form.Pincode),
		}
		if addr.Street == "" || addr.City == "" || addr.Pincode == "" {
			return fmt.Errorf("%w: street, city and pincode are required", ErrCheckoutInvalidForm)
		}
	} else {
		addr = saved[form.SavedIndex]
	}

	if isNew {
		f.persistNewAddress(ctx, append(saved, addr))
	}

	f.mu.Lock()
	f.shipping = domain.ShippingInfo{
		Name:    name,
		Address: addr.Street,
		City:    addr.City,
		Pincode: addr.Pincode,
	}
	if isNew {
		f.saved = append(f.saved, addr)
	}
	f.step = StepPayment
	f.mu.Unlock()
	return nil
}

// SubmitPayment validates the step-2 form and advances to Confirm. Card
// payments require a sanitised number of exactly 16 digits; cash on delivery
// needs no checks. A failed check keeps the flow on Payment.
func (f *CheckoutFlow) SubmitPayment(form PaymentForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.entered {
		return ErrCheckoutNotEntered
	}
	if f.step != StepPayment {
		return ErrCheckoutWrongStep
	}

	method := strings.TrimSpace(form.Method)
	switch method {
	case domain.PaymentMethodCard:
		if len(sanitizeCardNumber(form.CardNumber)) != cardNumberLength {
			return ErrInvalidCardNumber
		}
	case domain.PaymentMethodCashOnDelivery:
	default:
		return fmt.Errorf("%w: unsupported payment method %q", ErrCheckoutInvalidForm, form.Method)
	}

	f.payment = PaymentForm{Method: method, CardNumber: sanitizeCardNumber(form.CardNumber)}
	f.step = StepConfirm
	return nil
}

// ConfirmOrder places the order. Re-entry while an order is in flight is
// rejected by a compare-and-swap guard, and the submission itself runs under
// a bounded timeout. On failure the user stays put with a failure
// notification and the cart untouched; on success the success notification
// and navigation happen before the best-effort cart clear.
func (f *CheckoutFlow) ConfirmOrder(ctx context.Context) error {
	f.mu.Lock()
	if !f.entered {
		f.mu.Unlock()
		return ErrCheckoutNotEntered
	}
	if f.step != StepConfirm {
		f.mu.Unlock()
		return ErrCheckoutWrongStep
	}
	shipping := f.shipping
	method := f.payment.Method
	f.mu.Unlock()

	if !f.placing.CompareAndSwap(false, true) {
		return ErrOrderInFlight
	}

	uid := strings.TrimSpace(f.identity())
	if uid == "" {
		f.placing.Store(false)
		return ErrCheckoutNoIdentity
	}

	items := f.cart.Items()
	if len(items) == 0 {
		f.placing.Store(false)
		return ErrCheckoutEmptyCart
	}

	draft := buildOrderDraft(items, shipping, method)

	started := f.clock()
	orderCtx, cancel := context.WithTimeout(ctx, f.orderTimeout)
	order, err := f.orders.PlaceOrder(orderCtx, uid, draft)
	cancel()
	if err != nil {
		f.logger(ctx, "checkout.order_failed", map[string]any{
			"userID":    uid,
			"elapsedMs": f.clock().Sub(started).Milliseconds(),
			"error":     err.Error(),
		})
		if f.notify != nil {
			f.notify.Failure("Failed to place order. Please try again.")
		}
		f.placing.Store(false)
		return fmt.Errorf("%w: %v", ErrOrderPlacementFailed, err)
	}

	f.logger(ctx, "checkout.order_placed", map[string]any{
		"userID":    uid,
		"orderID":   order.ID,
		"elapsedMs": f.clock().Sub(started).Milliseconds(),
	})
	if f.notify != nil {
		f.notify.Success("Order placed successfully!")
	}
	if f.nav != nil {
		f.nav.Navigate(f.ordersRoute)
	}

	if err := f.cart.Clear(ctx); err != nil {
		f.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"userID":  uid,
			"orderID": order.ID,
			"error":   err.Error(),
		})
	}

	f.mu.Lock()
	f.entered = false
	f.step = 0
	f.payment = PaymentForm{}
	f.mu.Unlock()
	f.placing.Store(false)
	return nil
}

// Placing reports whether an order submission is in flight.
func (f *CheckoutFlow) Placing() bool {
	return f.placing.Load()
}

func (f *CheckoutFlow) loadSavedAddresses(ctx context.Context) []domain.ShippingAddress {
	if f.addresses == nil {
		return nil
	}
	uid := strings.TrimSpace(f.identity())
	if uid == "" {
		return nil
	}
	user, err := f.addresses.GetUser(ctx, uid)
	if err != nil {
		f.logger(ctx, "checkout.load_addresses_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
		return nil
	}
	return user.Addresses
}

func (f *CheckoutFlow) persistNewAddress(ctx context.Context, addresses []domain.ShippingAddress) {
	if f.addresses == nil {
		return
	}
	uid := strings.TrimSpace(f.identity())
	if uid == "" {
		return
	}
	if _, err := f.addresses.ReplaceAddresses(ctx, uid, addresses); err != nil {
		f.logger(ctx, "checkout.save_address_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
	}
}

func buildOrderDraft(items []domain.CartLineItem, shipping domain.ShippingInfo, method string) domain.OrderDraft {
	lines := make([]domain.OrderLine, 0, len(items))
	var total float64
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
		if item.Quantity > 0 {
			total += item.Price * float64(item.Quantity)
		}
	}
	return domain.OrderDraft{
		Products:      lines,
		TotalAmount:   total,
		ShippingInfo:  shipping,
		PaymentMethod: method,
	}
}

// FormatCardNumber renders digits in groups of four for display, capped at
// 16 digits.
func FormatCardNumber(value string) string {
	digits := sanitizeCardNumber(value)
	if len(digits) > cardNumberLength {
		digits = digits[:cardNumberLength]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sanitizeCardNumber(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
