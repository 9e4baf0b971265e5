package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	domain "github.com/gamex-store/api/internal/domain"
)

// OrderCreatedMessage is the payload published when an order is placed.
type OrderCreatedMessage struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	TotalAmount   float64   `json:"totalAmount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	OrderDate     time.Time `json:"orderDate"`
}

// PubSubOrderPublisher publishes order lifecycle events to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderCreated enqueues an order-created message on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order publisher: not initialised")
	}

	message := OrderCreatedMessage{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Status:        string(order.Status),
		OrderDate:     order.OrderDate,
	}

	data, err := p.marshal(message)
	if err != nil {
		return fmt.Errorf("marshal order created: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "event", "order.created")
	setAttr(attrs, "orderId", order.ID)
	setAttr(attrs, "userId", order.UserID)
	setAttr(attrs, "paymentMethod", order.PaymentMethod)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order created: %w", err)
	}
	return nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
