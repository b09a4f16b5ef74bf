package requestresponse

import "time"

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserData : публичные поля аккаунта, хэш пароля наружу не отдается
type UserData struct {
	UUID         string    `json:"uuid"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	AuthProvider string    `json:"auth_provider"`
	LastLogin    time.Time `json:"last_login"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthResponse : ответ на успешную аутентификацию
type AuthResponse struct {
	Response struct {
		Message string   `json:"message"`
		User    UserData `json:"user"`
	} `json:"response"`
}

// MessageResponse : ответ на refresh/logout
type MessageResponse struct {
	Response struct {
		Message string `json:"message"`
	} `json:"response"`
}

// CurrentUserResponse : информация о текущем пользователе
type CurrentUserResponse struct {
	Response struct {
		User UserData `json:"user"`
	} `json:"response"`
}

// ErrorDetail : детальная информация об ошибке
type ErrorDetail struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

// ErrorResponse : стандартная структура ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
