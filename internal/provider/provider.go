package provider

import "context"

// Profile : нормализованный профиль, полученный от внешнего провайдера.
// Email может отсутствовать — часть провайдеров его не раскрывает.
type Profile struct {
	Provider string
	ID       string
	Email    string
	Username string
}

// Provider описывает внешний OAuth-провайдер
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}
