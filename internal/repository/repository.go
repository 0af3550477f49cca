// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/hyperlog/hyperlog/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	GetContactInfo(ctx context.Context, userID string) (*model.ContactInfo, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	GetByProviderUsername(ctx context.Context, provider model.Provider, username string) (*model.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]model.Profile, error)
}

type EmailAddressRepository interface {
	Create(ctx context.Context, email *model.EmailAddress) error
	ListByProfile(ctx context.Context, profileID string) ([]model.EmailAddress, error)
}

type DeletedUserRepository interface {
	Create(ctx context.Context, snapshot *model.DeletedUser) error
}
