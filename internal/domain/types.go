package domain

import (
	"time"
)

// CartLineItem is one product entry in a cart. A cart holds at most one line
// item per product; quantity changes go through explicit update calls.
type CartLineItem struct {
	ProductID   string  `json:"productId" firestore:"productId"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description,omitempty" firestore:"description,omitempty"`
	Image       string  `json:"image,omitempty" firestore:"image,omitempty"`
	Price       float64 `json:"price" firestore:"price"`
	Quantity    int     `json:"quantity" firestore:"quantity"`
}

// Cart is the line-item collection owned by exactly one user. The document is
// keyed by the user ID; the total is derived, never stored.
type Cart struct {
	UserID    string
	Products  []CartLineItem
	UpdatedAt time.Time
}

// Total recomputes the cart total from the current line items.
func (c Cart) Total() float64 {
	var total float64
	for _, item := range c.Products {
		if item.Quantity <= 0 {
			continue
		}
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ShippingAddress is one entry in a user's ordered address list. The recipient
// name is carried separately on orders.
type ShippingAddress struct {
	Street  string `json:"street" firestore:"street"`
	City    string `json:"city" firestore:"city"`
	Pincode string `json:"pincode" firestore:"pincode"`
}

// User is the profile record owning the saved address list.
type User struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Addresses []ShippingAddress `json:"addresses"`
	CreatedAt time.Time         `json:"createdAt,omitempty"`
}

// OrderLine is the snapshot of a cart line item captured at order time.
// Description and image are not carried onto orders.
type OrderLine struct {
	ProductID string  `json:"productId" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	Price     float64 `json:"price" firestore:"price"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
}

// ShippingInfo is the destination recorded on an order.
type ShippingInfo struct {
	Name    string `json:"name" firestore:"name"`
	Address string `json:"address" firestore:"address"`
	City    string `json:"city" firestore:"city"`
	Pincode string `json:"pincode" firestore:"pincode"`
}

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	// OrderStatusProcessing is the initial status of every order. Orders are
	// deletable only while in this status.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusShipped means the order left the warehouse.
	OrderStatusShipped OrderStatus = "Shipped"
	// OrderStatusDelivered is the terminal fulfillment status.
	OrderStatusDelivered OrderStatus = "Delivered"
)

// Payment methods accepted at checkout. Card data itself is never stored or
// transmitted; orders carry the method name only.
const (
	PaymentMethodCard           = "Card"
	PaymentMethodCashOnDelivery = "Cash on Delivery"
)

// Order is immutable after creation except for monotonic status transitions
// performed by the fulfillment pipeline.
type Order struct {
	ID            string       `json:"id"`
	UserID        string       `json:"userId"`
	Products      []OrderLine  `json:"products"`
	TotalAmount   float64      `json:"totalAmount"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	PaymentMethod string       `json:"paymentMethod"`
	Status        OrderStatus  `json:"status"`
	OrderDate     time.Time    `json:"orderDate"`
}

// OrderDraft is the client-submitted payload for order creation. TotalAmount
// is computed by the client from its cart snapshot; the server records it as
// submitted.
type OrderDraft struct {
	Products      []OrderLine  `json:"products"`
	TotalAmount   float64      `json:"totalAmount"`
	ShippingInfo  ShippingInfo `json:"shippingInfo"`
	PaymentMethod string       `json:"paymentMethod"`
}
