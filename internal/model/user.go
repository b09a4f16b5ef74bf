package model

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// User : аккаунт пользователя. Поле RefreshTokens хранит набор действующих
// refresh-токенов: токен, которого нет в наборе, мёртв, даже если его подпись
// ещё не истекла.
type User struct {
	UUID          string         `db:"uuid" json:"uuid"`
	Username      string         `db:"username" json:"username"`
	Email         string         `db:"email" json:"email"`
	PasswordHash  sql.NullString `db:"password_hash" json:"-"`
	GoogleID      sql.NullString `db:"google_id" json:"-"`
	GithubID      sql.NullString `db:"github_id" json:"-"`
	AuthProvider  string         `db:"auth_provider" json:"auth_provider"`
	RefreshTokens pq.StringArray `db:"refresh_tokens" json:"-"`
	LastLogin     time.Time      `db:"last_login" json:"last_login"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// HasProviderID проверяет, привязан ли к аккаунту идентификатор данного провайдера
func (u *User) HasProviderID(provider string) bool {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID.Valid
	case ProviderGithub:
		return u.GithubID.Valid
	}
	return false
}
