package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/gamex-store/api/internal/domain"
	pfirestore "github.com/gamex-store/api/internal/platform/firestore"
	"github.com/gamex-store/api/internal/repositories"
)

const userCollection = "users"

// UserRepository persists user profiles with their embedded address array.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

// GetUser loads a user profile by ID.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	return userFromDocument(doc.ID, doc.Data), nil
}

// ReplaceAddresses overwrites the whole address array on the user document.
// Last writer wins; there is no precondition on the previous value.
func (r *UserRepository) ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error) {
	if r == nil || r.base == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.User{}, errors.New("user repository: user id is required")
	}

	updates := []firestore.Update{
		{Path: "addresses", Value: cloneAddresses(addresses)},
	}
	if _, err := r.base.Update(ctx, uid, updates); err != nil {
		return domain.User{}, err
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	return userFromDocument(doc.ID, doc.Data), nil
}

func userFromDocument(id string, doc userDocument) domain.User {
	return domain.User{
		ID:        id,
		Name:      strings.TrimSpace(doc.Name),
		Email:     strings.TrimSpace(doc.Email),
		Addresses: cloneAddresses(doc.Addresses),
		CreatedAt: doc.CreatedAt,
	}
}

func cloneAddresses(addresses []domain.ShippingAddress) []domain.ShippingAddress {
	if len(addresses) == 0 {
		return []domain.ShippingAddress{}
	}
	dup := make([]domain.ShippingAddress, len(addresses))
	copy(dup, addresses)
	return dup
}

type userDocument struct {
	Name      string                   `firestore:"name"`
	Email     string                   `firestore:"email"`
	Addresses []domain.ShippingAddress `firestore:"addresses"`
	CreatedAt time.Time                `firestore:"createdAt"`
}

var _ repositories.UserRepository = (*UserRepository)(nil)
