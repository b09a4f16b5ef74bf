package handler

import (
	"auth-web-server/internal/model/requestresponse"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type AuthenticationHandler struct {
	ports.AuthenticationService
	ports.UserService
	production bool
}

func NewAuthenticationHandler(
	authenticationService ports.AuthenticationService,
	userService ports.UserService,
	production bool,
) *AuthenticationHandler {
	return &AuthenticationHandler{
		authenticationService,
		userService,
		production,
	}
}

// Login : аутентификация по email и паролю.
// На успех ставит обе cookie и возвращает публичный профиль
func (h *AuthenticationHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if req.Email == "" || req.Password == "" {
		sendErrorResponse(w, 400, "email и password обязательны")
		return
	}

	user, tokens, err := h.AuthenticationService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Println(err)
		if errors.Is(err, service.ErrInvalidCredentials) {
			// одинаковый ответ для неизвестного email и неверного пароля
			sendErrorResponse(w, 401, "неверный email или пароль")
		} else {
			sendErrorResponse(w, 503, "сервис временно недоступен")
		}
		return
	}

	setAuthCookies(w, tokens, h.production)

	resp := requestresponse.AuthResponse{}
	resp.Response.Message = "auth successful"
	resp.Response.User = toUserData(user)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Register : создание локального аккаунта
func (h *AuthenticationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req requestresponse.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		sendErrorResponse(w, 400, "username, email и password обязательны")
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.Println(err)
		if errors.Is(err, repository.ErrEmailTaken) {
			sendErrorResponse(w, 409, "пользователь с таким email уже существует")
		} else {
			sendErrorResponse(w, 503, "сервис временно недоступен")
		}
		return
	}

	resp := requestresponse.AuthResponse{}
	resp.Response.Message = "user created"
	resp.Response.User = toUserData(user)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// Refresh : обмен refresh токена на новую пару, обе cookie перезаписываются
func (h *AuthenticationHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		sendErrorResponse(w, 401, "auth failed: no refresh token provided")
		return
	}

	tokens, err := h.AuthenticationService.Refresh(r.Context(), cookie.Value)
	if err != nil {
		log.Println(err)
		if errors.Is(err, service.ErrTokenInvalid) {
			sendErrorResponse(w, 401, "auth failed")
		} else {
			sendErrorResponse(w, 503, "сервис временно недоступен")
		}
		return
	}

	setAuthCookies(w, tokens, h.production)

	resp := requestresponse.MessageResponse{}
	resp.Response.Message = "auth successful"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Logout : отзыв refresh токена и очистка обеих cookie
func (h *AuthenticationHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(security.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		sendErrorResponse(w, 401, "auth failed: no refresh token provided")
		return
	}

	if err := h.AuthenticationService.Logout(r.Context(), cookie.Value); err != nil {
		log.Println(err)
		if errors.Is(err, service.ErrTokenInvalid) {
			sendErrorResponse(w, 401, "auth failed")
		} else {
			sendErrorResponse(w, 503, "сервис временно недоступен")
		}
		return
	}

	clearAuthCookies(w, h.production)

	resp := requestresponse.MessageResponse{}
	resp.Response.Message = "logout successful"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// GetCurrentUser : профиль аутентифицированного пользователя
func (h *AuthenticationHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	user, err := h.UserService.GetUser(r.Context(), claims.UserUUID)
	if err != nil {
		log.Println(err)
		if errors.Is(err, repository.ErrUserNotFound) {
			sendErrorResponse(w, 404, "пользователь не найден")
		} else {
			sendErrorResponse(w, 503, "сервис временно недоступен")
		}
		return
	}

	resp := requestresponse.CurrentUserResponse{}
	resp.Response.User = toUserData(user)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// Test : проверка, что access токен принят шлюзом
func (h *AuthenticationHandler) Test(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendErrorResponse(w, 401, "не авторизован")
		return
	}

	resp := struct {
		Response struct {
			Message  string `json:"message"`
			UserUUID string `json:"user_uuid"`
		} `json:"response"`
	}{}
	resp.Response.Message = "auth successful"
	resp.Response.UserUUID = claims.UserUUID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}
