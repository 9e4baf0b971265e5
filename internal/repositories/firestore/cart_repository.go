package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/gamex-store/api/internal/domain"
	pfirestore "github.com/gamex-store/api/internal/platform/firestore"
	"github.com/gamex-store/api/internal/repositories"
)

const cartCollection = "carts"

// CartRepository persists one cart document per user within Firestore.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil)
	return &CartRepository{base: base}, nil
}

// GetCart loads the cart document keyed by the user ID.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		UserID:   doc.ID,
		Products: cloneLineItems(doc.Data.Products),
		UpdatedAt: func() time.Time {
			if !doc.UpdateTime.IsZero() {
				return doc.UpdateTime
			}
			return doc.Data.UpdatedAt
		}(),
	}
	return cart, nil
}

// SaveCart fully replaces the cart document. Every mutation writes the whole
// line-item sequence; there is no partial merge.
func (r *CartRepository) SaveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(cart.UserID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	now := time.Now().UTC()
	if !cart.UpdatedAt.IsZero() {
		now = cart.UpdatedAt.UTC()
	}

	doc := cartDocument{
		Products:  cloneLineItems(cart.Products),
		UpdatedAt: now,
	}

	result, err := r.base.Set(ctx, uid, doc)
	if err != nil {
		return domain.Cart{}, err
	}

	saved := domain.Cart{
		UserID:    uid,
		Products:  cloneLineItems(doc.Products),
		UpdatedAt: result.UpdateTime,
	}
	return saved, nil
}

// DeleteCart removes the cart document entirely.
func (r *CartRepository) DeleteCart(ctx context.Context, userID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("cart repository: user id is required")
	}
	_, err := r.base.Delete(ctx, uid)
	return err
}

func cloneLineItems(items []domain.CartLineItem) []domain.CartLineItem {
	if len(items) == 0 {
		return []domain.CartLineItem{}
	}
	dup := make([]domain.CartLineItem, len(items))
	copy(dup, items)
	return dup
}

type cartDocument struct {
	Products  []domain.CartLineItem `firestore:"products"`
	UpdatedAt time.Time             `firestore:"updatedAt"`
}

var _ repositories.CartRepository = (*CartRepository)(nil)
