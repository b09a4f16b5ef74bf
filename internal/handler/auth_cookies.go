package handler

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/security"
	"net/http"
)

// Обе cookie ставятся и очищаются с одинаковыми атрибутами.
// Несовпадение атрибутов при очистке — известная ловушка: браузер
// просто не удалит cookie.
func authCookie(name, value string, production bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	}
}

func setAuthCookies(w http.ResponseWriter, tokens *model.TokensPair, production bool) {
	http.SetCookie(w, authCookie(security.AccessTokenCookie, tokens.AccessToken, production))
	http.SetCookie(w, authCookie(security.RefreshTokenCookie, tokens.RefreshToken, production))
}

func clearAuthCookies(w http.ResponseWriter, production bool) {
	for _, name := range []string{security.AccessTokenCookie, security.RefreshTokenCookie} {
		cookie := authCookie(name, "", production)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}
