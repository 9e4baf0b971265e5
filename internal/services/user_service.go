package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/gamex-store/api/internal/domain"
	"github.com/gamex-store/api/internal/repositories"
)

var errUserRepositoryRequired = errors.New("user service: repository is required")

// ErrUserInvalidInput indicates the caller supplied invalid input.
var ErrUserInvalidInput = errors.New("user service: invalid input")

// ErrUserNotFound indicates the user profile does not exist.
var ErrUserNotFound = errors.New("user service: not found")

// ErrUserUnavailable indicates the profile backend is unreachable.
var ErrUserUnavailable = errors.New("user service: unavailable")

// UserService exposes profile reads and the address replace-write used by
// checkout and address management.
type UserService interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error)
}

// UserServiceDeps wires the repository dependency for profile operations.
type UserServiceDeps struct {
	Repository repositories.UserRepository
	Logger     func(context.Context, string, map[string]any)
}

type userService struct {
	repo   repositories.UserRepository
	logger func(context.Context, string, map[string]any)
}

// NewUserService constructs a UserService enforcing dependency validation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Repository == nil {
		return nil, errUserRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{repo: deps.Repository, logger: logger}, nil
}

// GetUser loads the profile record including the saved address list.
func (s *userService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if s == nil || s.repo == nil {
		return domain.User{}, ErrUserUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.User{}, ErrUserInvalidInput
	}

	user, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return domain.User{}, s.translateRepoError(err)
	}
	return user, nil
}

// ReplaceAddresses overwrites the user's address list with the submitted
// sequence. The write carries no precondition: concurrent sessions editing
// the same profile race and the last writer wins.
func (s *userService) ReplaceAddresses(ctx context.Context, userID string, addresses []domain.ShippingAddress) (domain.User, error) {
	if s == nil || s.repo == nil {
		return domain.User{}, ErrUserUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.User{}, ErrUserInvalidInput
	}

	cleaned := make([]domain.ShippingAddress, 0, len(addresses))
	for i, addr := range addresses {
		street := strings.TrimSpace(addr.Street)
		city := strings.TrimSpace(addr.City)
		pincode := strings.TrimSpace(addr.Pincode)
		if street == "" || city == "" || pincode == "" {
			return domain.User{}, fmt.Errorf("%w: address %d must have street, city and pincode", ErrUserInvalidInput, i)
		}
		cleaned = append(cleaned, domain.ShippingAddress{Street: street, City: city, Pincode: pincode})
	}

	user, err := s.repo.ReplaceAddresses(ctx, uid, cleaned)
	if err != nil {
		s.logger(ctx, "user.replace_addresses_failed", map[string]any{
			"userID": uid,
			"error":  err.Error(),
		})
		return domain.User{}, s.translateRepoError(err)
	}
	return user, nil
}

func (s *userService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrUserNotFound
		case repoErr.IsUnavailable():
			return ErrUserUnavailable
		}
		return ErrUserUnavailable
	}
	return ErrUserUnavailable
}
