package service

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/security"
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
)

type UserService struct {
	userRepository  ports.UserRepository
	cacheRepository ports.CacheRepository
}

func NewUserService(
	userRepository ports.UserRepository,
	cacheRepository ports.CacheRepository,
) *UserService {
	return &UserService{
		userRepository:  userRepository,
		cacheRepository: cacheRepository,
	}
}

// Register создает локальный аккаунт с паролем
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		AuthProvider: model.ProviderLocal,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	return created, nil
}

// GetUser возвращает профиль пользователя, кэшируя его в Redis
func (s *UserService) GetUser(ctx context.Context, userUUID string) (*model.User, error) {
	cached, err := s.cacheRepository.GetUser(ctx, userUUID)
	if err != nil {
		// кэш не на критическом пути, падаем в БД
		log.Printf("[UserService] ошибка чтения кэша: %v", err)
	}
	if cached != nil {
		return cached, nil
	}

	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось найти пользователя: %w", err)
	}

	if err := s.cacheRepository.SetUser(ctx, user); err != nil {
		log.Printf("[UserService] ошибка записи в кэш: %v", err)
	}

	return user, nil
}
