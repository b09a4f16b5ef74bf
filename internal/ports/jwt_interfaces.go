package ports

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/security"
	"context"
)

// TokenRepositoryInterface : мост к набору refresh-токенов аккаунта.
// Все операции атомарны в пределах одной записи аккаунта.
type TokenRepositoryInterface interface {
	AppendRefreshToken(ctx context.Context, userUUID, token string) error
	RemoveRefreshToken(ctx context.Context, userUUID, token string) (bool, error)
	TokenExists(ctx context.Context, userUUID, token string) (bool, error)
	ReplaceRefreshToken(ctx context.Context, userUUID, oldToken, newToken string) (bool, error)
}

type JWTServiceInterface interface {
	GenerateTokensPair(userUUID, email string) (*model.TokensPair, error)
	ValidateToken(kind security.TokenKind, token string) (*security.Claims, error)
}
