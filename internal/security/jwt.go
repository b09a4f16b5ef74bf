package security

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Имена cookie, в которых транспорт переносит токены.
// Middleware и хэндлеры обязаны использовать одни и те же имена и атрибуты.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Вердикты проверки токена. Наружу все три схлопываются в один 401,
// различие нужно только для логов.
var (
	ErrTokenMalformed = errors.New("токен повреждён или имеет неверный формат")
	ErrTokenExpired   = errors.New("срок действия токена истёк")
	ErrTokenSignature = errors.New("подпись токена не прошла проверку")
)

// Claims : полезная нагрузка токена. Nonce гарантирует, что два токена,
// выданные в один момент одному пользователю, никогда не совпадут побайтово.
type Claims struct {
	UserUUID string `json:"user_uuid"`
	Email    string `json:"email"`
	Nonce    string `json:"nonce"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

// NewJWTService проверяет, что оба ключа подписи заданы.
// Отсутствие ключа — фатальная ошибка старта, а не ошибка запроса.
func NewJWTService(cfg *config.JWTConfig) (*JWTService, error) {
	if cfg.AccessSecretKey == "" || cfg.RefreshSecretKey == "" {
		return nil, fmt.Errorf("ключи подписи JWT не заданы в конфигурации")
	}
	if _, err := time.ParseDuration(cfg.AccessTokenTTL); err != nil {
		return nil, fmt.Errorf("неверный access_token_ttl: %w", err)
	}
	if _, err := time.ParseDuration(cfg.RefreshTokenTTL); err != nil {
		return nil, fmt.Errorf("неверный refresh_token_ttl: %w", err)
	}
	return &JWTService{cfg}, nil
}

func (service *JWTService) secretFor(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return []byte(service.RefreshSecretKey)
	}
	return []byte(service.AccessSecretKey)
}

func (service *JWTService) ttlFor(kind TokenKind) time.Duration {
	raw := service.AccessTokenTTL
	if kind == TokenKindRefresh {
		raw = service.RefreshTokenTTL
	}
	// валидность строки проверена в NewJWTService
	ttl, _ := time.ParseDuration(raw)
	return ttl
}

// IssueToken подписывает токен заданного вида с нагрузкой {user_uuid, email, nonce}
func (service *JWTService) IssueToken(kind TokenKind, userUUID, email string) (string, error) {
	claims := Claims{
		UserUUID: userUUID,
		Email:    email,
		Nonce:    uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(service.ttlFor(kind))),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "auth-web-server",
		},
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := jwtToken.SignedString(service.secretFor(kind))
	if err != nil {
		return "", util.LogError("ошибка подписи токена", err)
	}

	return signed, nil
}

// GenerateTokensPair выдает свежую пару access+refresh для пользователя
func (service *JWTService) GenerateTokensPair(userUUID, email string) (*model.TokensPair, error) {
	accessToken, err := service.IssueToken(TokenKindAccess, userUUID, email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := service.IssueToken(TokenKindRefresh, userUUID, email)
	if err != nil {
		return nil, err
	}

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateToken проверяет подпись и срок действия токена заданного вида
func (service *JWTService) ValidateToken(kind TokenKind, jwtTokenStr string) (*Claims, error) {
	var claims = &Claims{}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Header["alg"] != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("неверный способ подписи токена: %v", token.Header["alg"])
		}
		return service.secretFor(kind), nil
	})

	switch {
	case err == nil && jwtToken.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrTokenSignature
	default:
		return nil, ErrTokenMalformed
	}
}
