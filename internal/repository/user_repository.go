package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrEmailTaken   = errors.New("пользователь с таким email уже существует")
)

const userColumns = `uuid, username, COALESCE(email, '') AS email, password_hash,
		google_id, github_id, auth_provider, refresh_tokens, last_login, created_at`

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет новый аккаунт. Пустой email хранится как NULL,
// чтобы уникальный индекс не мешал аккаунтам провайдеров без email
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := fmt.Sprintf(`
	INSERT INTO users (uuid, username, email, password_hash, google_id, github_id, auth_provider)
	VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	RETURNING %s
	`, userColumns)

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query,
		user.UUID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.GoogleID,
		user.GithubID,
		user.AuthProvider,
	).StructScan(createdUser)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			log.Printf("[UserRepo] email занят: %v", err)
			return nil, ErrEmailTaken
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет аккаунт по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE uuid = $1`, userColumns)
	return r.findOne(ctx, query, uuid)
}

// FindByEmail : ищет аккаунт по email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.findOne(ctx, query, email)
}

// FindByProviderID : ищет аккаунт по идентификатору внешнего провайдера
func (r *UserRepository) FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	return r.findOne(ctx, query, providerID)
}

// AttachProviderID : привязывает идентификатор провайдера к существующему аккаунту
func (r *UserRepository) AttachProviderID(ctx context.Context, uuid, provider, providerID string) error {
	column, err := providerColumn(provider)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE users SET %s = $2 WHERE uuid = $1`, column)
	result, err := r.DB.ExecContext(ctx, query, uuid, providerID)
	if err != nil {
		return util.LogError("[UserRepo] не удалось привязать идентификатор провайдера", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] не удалось проверить результат привязки", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateLoginInfo : фиксирует момент входа и способ аутентификации
func (r *UserRepository) UpdateLoginInfo(ctx context.Context, uuid, authProvider string) error {
	query := `UPDATE users SET last_login = now(), auth_provider = $2 WHERE uuid = $1`
	_, err := r.DB.ExecContext(ctx, query, uuid, authProvider)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить данные входа", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query, arg).StructScan(user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, util.LogError("[UserRepo] ошибка при выполнении запроса", err)
	}
	return user, nil
}

// providerColumn защищает от подстановки произвольной колонки в запрос
func providerColumn(provider string) (string, error) {
	switch provider {
	case model.ProviderGoogle:
		return "google_id", nil
	case model.ProviderGithub:
		return "github_id", nil
	default:
		return "", fmt.Errorf("неизвестный провайдер: %s", provider)
	}
}
