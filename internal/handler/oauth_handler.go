package handler

import (
	"auth-web-server/internal/ports"
	"auth-web-server/internal/provider"
	"auth-web-server/internal/service"
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const stateCookie = "oauth_state"

// Коды ошибок, с которыми фронтенд получает редирект после callback.
// email_exists — единственный различимый снаружи случай: пользователь
// должен войти своим исходным способом.
const (
	oauthErrorEmailExists = "email_exists"
	oauthErrorAuthFailed  = "auth_failed"
)

type OAuthHandler struct {
	providers        map[string]provider.Provider
	oauthService     ports.OAuthService
	authService      ports.AuthenticationService
	frontendCallback string
	production       bool
}

func NewOAuthHandler(
	providers map[string]provider.Provider,
	oauthService ports.OAuthService,
	authService ports.AuthenticationService,
	frontendCallback string,
	production bool,
) *OAuthHandler {
	return &OAuthHandler{
		providers:        providers,
		oauthService:     oauthService,
		authService:      authService,
		frontendCallback: frontendCallback,
		production:       production,
	}
}

// Redirect : отправляет пользователя на экран согласия провайдера.
// Случайный state сохраняется в короткоживущей cookie и сверяется на callback
func (h *OAuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		sendErrorResponse(w, 404, "неизвестный провайдер")
		return
	}

	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// Callback : завершает OAuth-поток. Любая ошибка превращается в редирект
// на фронтенд с кодом ошибки, сырые ошибки в браузер не утекают
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		sendErrorResponse(w, 404, "неизвестный провайдер")
		return
	}

	query := r.URL.Query()
	if providerError := query.Get("error"); providerError != "" {
		log.Printf("провайдер %s вернул ошибку: %s", p.Name(), providerError)
		h.redirectError(w, r, oauthErrorAuthFailed)
		return
	}

	if !h.checkState(w, r, query.Get("state")) {
		h.redirectError(w, r, oauthErrorAuthFailed)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectError(w, r, oauthErrorAuthFailed)
		return
	}

	profile, err := p.FetchProfile(r.Context(), code)
	if err != nil {
		log.Printf("ошибка получения профиля от %s: %v", p.Name(), err)
		h.redirectError(w, r, oauthErrorAuthFailed)
		return
	}

	user, err := h.oauthService.Resolve(r.Context(), profile)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			h.redirectError(w, r, oauthErrorEmailExists)
		} else {
			log.Printf("ошибка разрешения профиля %s: %v", p.Name(), err)
			h.redirectError(w, r, oauthErrorAuthFailed)
		}
		return
	}

	tokens, err := h.authService.LoginExternal(r.Context(), user)
	if err != nil {
		log.Printf("ошибка внешнего входа: %v", err)
		h.redirectError(w, r, oauthErrorAuthFailed)
		return
	}

	setAuthCookies(w, tokens, h.production)

	params := url.Values{}
	params.Set("userId", user.UUID)
	params.Set("username", user.Username)
	params.Set("email", user.Email)
	params.Set("authProvider", user.AuthProvider)
	params.Set("lastLogin", user.LastLogin.Format(time.RFC3339))
	params.Set("createdAt", user.CreatedAt.Format(time.RFC3339))

	http.Redirect(w, r, h.frontendCallback+"?"+params.Encode(), http.StatusFound)
}

// checkState сверяет state из запроса с state из cookie и гасит cookie
func (h *OAuthHandler) checkState(w http.ResponseWriter, r *http.Request, state string) bool {
	cookie, err := r.Cookie(stateCookie)

	expired := &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, expired)

	if err != nil || cookie.Value == "" || state == "" || cookie.Value != state {
		log.Printf("oauth state не совпал или отсутствует")
		return false
	}
	return true
}

func (h *OAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, h.frontendCallback+"?error="+code, http.StatusFound)
}
