package security

import (
	"auth-web-server/internal/util"
	"context"
	"errors"
	"log"
	"net/http"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// JWTMiddleware пропускает запрос дальше только с валидным access-токеном из cookie.
// Проверка чисто криптографическая, без похода в хранилище: обычные защищённые
// запросы не платят за round-trip к БД, хранилище трогают только refresh и logout.
func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		cookie, err := request.Cookie(AccessTokenCookie)
		if err != nil || cookie.Value == "" {
			util.HandleError(writer, "auth failed: no credentials were given", http.StatusUnauthorized)
			return
		}

		claims, err := jwtService.ValidateToken(TokenKindAccess, cookie.Value)
		if err != nil {
			// причина отказа остаётся в логах, клиенту детали не раскрываются
			log.Printf("невалидный access токен: %v", err)
			util.HandleError(writer, "auth failed", http.StatusUnauthorized)
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, errors.New("пользователь не авторизован")
	}
	return claims, nil
}
