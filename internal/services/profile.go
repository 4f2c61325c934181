package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// ProfileUpdate carries the editable profile fields. Nil fields are left as is.
type ProfileUpdate struct {
	Email     *string
	FirstName *string
	Username  *string
	Address   *string
}

type AddressInput struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
}

// ProfileService manages the signed-in user's profile and address book.
type ProfileService struct {
	users     UserStore
	addresses AddressStore
}

func NewProfileService(users UserStore, addresses AddressStore) *ProfileService {
	return &ProfileService{users: users, addresses: addresses}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStore.Wrap(err)
	}
	return user, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return nil, ErrInvalidInput.WithMessage("fname cannot be empty")
		}
		updates["fname"] = name
	}
	if in.Username != nil {
		updates["uname"] = strings.TrimSpace(*in.Username)
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if len(updates) == 0 {
		return nil, ErrInvalidInput.WithMessage("nothing to update")
	}

	if err := s.users.UpdateProfile(ctx, userID, updates); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateAccount
		default:
			return nil, ErrStore.Wrap(err)
		}
	}
	return s.Get(ctx, userID)
}

// AddAddress appends an address-book entry.
func (s *ProfileService) AddAddress(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.Address, error) {
	if strings.TrimSpace(in.Address) == "" {
		return nil, ErrInvalidInput.WithMessage("address is required")
	}
	address := &models.Address{
		UserID:    userID,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Address:   strings.TrimSpace(in.Address),
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return address, nil
}

func (s *ProfileService) Addresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return addresses, nil
}
