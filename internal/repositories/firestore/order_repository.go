package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/gamex-store/api/internal/domain"
	pfirestore "github.com/gamex-store/api/internal/platform/firestore"
	"github.com/gamex-store/api/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists order documents within Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, provider: provider}, nil
}

// InsertOrder stores a freshly created order document.
func (r *OrderRepository) InsertOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc := orderDocumentFromDomain(order)
	if _, err := r.base.Set(ctx, orderID, doc); err != nil {
		return domain.Order{}, err
	}
	return orderFromDocument(orderID, doc), nil
}

// GetOrder loads a single order by ID.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return orderFromDocument(doc.ID, doc.Data), nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("order repository: user id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", uid).OrderBy("orderDate", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, orderFromDocument(doc.ID, doc.Data))
	}
	return orders, nil
}

// DeleteOrderIfProcessing removes the order inside a transaction, failing with
// a conflict when the order left the Processing status.
func (r *OrderRepository) DeleteOrderIfProcessing(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return err
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return pfirestore.WrapError("orders.delete", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return pfirestore.WrapError("orders.delete", err)
		}
		if domain.OrderStatus(doc.Status) != domain.OrderStatusProcessing {
			return pfirestore.WrapError("orders.delete",
				status.Errorf(codes.FailedPrecondition, "order %s is %s, only Processing orders can be deleted", id, doc.Status))
		}
		return pfirestore.WrapError("orders.delete", tx.Delete(ref))
	})
}

// UpdateStatus transitions the status inside a transaction after checking the
// stored status still matches expected.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus) (domain.Order, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	var updated domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return pfirestore.WrapError("orders.update_status", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return pfirestore.WrapError("orders.update_status", err)
		}
		if domain.OrderStatus(doc.Status) != expected {
			return pfirestore.WrapError("orders.update_status",
				status.Errorf(codes.FailedPrecondition, "order %s is %s, expected %s", id, doc.Status, expected))
		}
		doc.Status = string(next)
		updated = orderFromDocument(id, doc)
		return pfirestore.WrapError("orders.update_status", tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(next)},
		}))
	})
	if err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func orderDocumentFromDomain(order domain.Order) orderDocument {
	date := order.OrderDate.UTC()
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return orderDocument{
		UserID:        strings.TrimSpace(order.UserID),
		Products:      cloneOrderLines(order.Products),
		TotalAmount:   order.TotalAmount,
		ShippingInfo:  order.ShippingInfo,
		PaymentMethod: strings.TrimSpace(order.PaymentMethod),
		Status:        string(order.Status),
		OrderDate:     date,
	}
}

func orderFromDocument(id string, doc orderDocument) domain.Order {
	return domain.Order{
		ID:            id,
		UserID:        doc.UserID,
		Products:      cloneOrderLines(doc.Products),
		TotalAmount:   doc.TotalAmount,
		ShippingInfo:  doc.ShippingInfo,
		PaymentMethod: doc.PaymentMethod,
		Status:        domain.OrderStatus(doc.Status),
		OrderDate:     doc.OrderDate,
	}
}

func cloneOrderLines(lines []domain.OrderLine) []domain.OrderLine {
	if len(lines) == 0 {
		return []domain.OrderLine{}
	}
	dup := make([]domain.OrderLine, len(lines))
	copy(dup, lines)
	return dup
}

type orderDocument struct {
	UserID        string              `firestore:"userId"`
	Products      []domain.OrderLine  `firestore:"products"`
	TotalAmount   float64             `firestore:"totalAmount"`
	ShippingInfo  domain.ShippingInfo `firestore:"shippingInfo"`
	PaymentMethod string              `firestore:"paymentMethod"`
	Status        string              `firestore:"status"`
	OrderDate     time.Time           `firestore:"orderDate"`
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
