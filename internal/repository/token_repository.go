package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/util"
	"context"
)

// TokenRepository управляет набором действующих refresh-токенов аккаунта.
// Все мутации выполняются одним UPDATE по одной строке, поэтому атомарны
// на уровне БД: двум конкурентным refresh с одним и тем же токеном
// compare-and-swap в ReplaceRefreshToken даст ровно один успех.
type TokenRepository struct {
	*config.Database
}

func NewTokenRepository(database *config.Database) *TokenRepository {
	return &TokenRepository{database}
}

// AppendRefreshToken добавляет refresh-токен в набор аккаунта
func (r *TokenRepository) AppendRefreshToken(ctx context.Context, userUUID, token string) error {
	query := `UPDATE users SET refresh_tokens = array_append(refresh_tokens, $2) WHERE uuid = $1`

	result, err := r.DB.ExecContext(ctx, query, userUUID, token)
	if err != nil {
		return util.LogError("[TokenRepo] не удалось сохранить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[TokenRepo] не удалось проверить, сохранён ли токен", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RemoveRefreshToken удаляет refresh-токен из набора.
// Возвращает false, если токена в наборе не было
func (r *TokenRepository) RemoveRefreshToken(ctx context.Context, userUUID, token string) (bool, error) {
	query := `UPDATE users SET refresh_tokens = array_remove(refresh_tokens, $2)
				WHERE uuid = $1 AND $2 = ANY(refresh_tokens)`

	result, err := r.DB.ExecContext(ctx, query, userUUID, token)
	if err != nil {
		return false, util.LogError("[TokenRepo] не удалось удалить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[TokenRepo] не удалось проверить, удалён ли токен", err)
	}

	return rowsAffected > 0, nil
}

// TokenExists проверяет, что refresh-токен входит в набор аккаунта
func (r *TokenRepository) TokenExists(ctx context.Context, userUUID, token string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE uuid = $1 AND $2 = ANY(refresh_tokens))`

	var exists bool
	err := r.DB.QueryRowContext(ctx, query, userUUID, token).Scan(&exists)
	if err != nil {
		return false, util.LogError("[TokenRepo] ошибка проверки существования токена", err)
	}

	return exists, nil
}

// ReplaceRefreshToken атомарно заменяет старый refresh-токен на новый.
// Если старого токена в наборе уже нет, ничего не меняет и возвращает false
func (r *TokenRepository) ReplaceRefreshToken(ctx context.Context, userUUID, oldToken, newToken string) (bool, error) {
	query := `UPDATE users SET refresh_tokens = array_replace(refresh_tokens, $2, $3)
				WHERE uuid = $1 AND $2 = ANY(refresh_tokens)`

	result, err := r.DB.ExecContext(ctx, query, userUUID, oldToken, newToken)
	if err != nil {
		return false, util.LogError("[TokenRepo] не удалось заменить refresh токен", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[TokenRepo] не удалось проверить, заменён ли токен", err)
	}

	return rowsAffected > 0, nil
}
