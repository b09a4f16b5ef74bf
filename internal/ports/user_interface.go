package ports

import (
	"auth-web-server/internal/model"
	"context"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error)
	AttachProviderID(ctx context.Context, uuid, provider, providerID string) error
	UpdateLoginInfo(ctx context.Context, uuid, authProvider string) error
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	GetUser(ctx context.Context, uuid string) (*model.User, error)
}
