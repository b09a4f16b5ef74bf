package repository

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheRepository кэширует публичный профиль пользователя для /me,
// чтобы не ходить в БД на каждый запрос
type CacheRepository struct {
	client *config.RedisClient
	ttl    time.Duration
}

func NewCacheRepository(rdb *config.RedisClient, ttl time.Duration) *CacheRepository {
	return &CacheRepository{rdb, ttl}
}

func (r *CacheRepository) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return util.LogError("ошибка сериализации пользователя", err)
	}

	cmd := r.client.Client.Set(ctx, r.key(user.UUID), data, r.ttl)
	if err = cmd.Err(); err != nil {
		return util.LogError("ошибка сохранения в Redis", err)
	}

	return nil
}

func (r *CacheRepository) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	val, err := r.client.Client.Get(ctx, r.key(uuid)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // нет в кэше
	} else if err != nil {
		return nil, util.LogError("ошибка получения пользователя из Redis", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, util.LogError("ошибка десериализации пользователя из кэша", err)
	}
	return &user, nil
}

func (r *CacheRepository) DeleteUser(ctx context.Context, uuid string) error {
	if err := r.client.Client.Del(ctx, r.key(uuid)).Err(); err != nil {
		return util.LogError("ошибка удаления пользователя из Redis", err)
	}
	return nil
}

func (r *CacheRepository) key(uuid string) string {
	return fmt.Sprintf("user:%s", uuid)
}
