package ports

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/provider"
	"context"
)

type AuthenticationService interface {
	Login(ctx context.Context, email, password string) (*model.User, *model.TokensPair, error)
	LoginExternal(ctx context.Context, user *model.User) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// OAuthService разрешает профиль внешнего провайдера в аккаунт
type OAuthService interface {
	Resolve(ctx context.Context, profile *provider.Profile) (*model.User, error)
}
