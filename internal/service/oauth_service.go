package service

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/provider"
	"auth-web-server/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ErrEmailExists : email профиля занят аккаунтом, у которого нет привязки к этому
// провайдеру. Аккаунты не сливаются молча — пользователь должен войти своим
// исходным способом. Это единственная ошибка аутентификации, различимая снаружи.
var ErrEmailExists = errors.New("email_exists")

// OAuthService решает, какому аккаунту принадлежит профиль внешнего провайдера
type OAuthService struct {
	userRepository ports.UserRepository
}

func NewOAuthService(userRepository ports.UserRepository) *OAuthService {
	return &OAuthService{userRepository: userRepository}
}

// Resolve выполняет разрешение профиля в аккаунт. Порядок шагов важен:
//  1. Поиск по email (если провайдер его отдал). Найденный аккаунт без привязки
//     к этому провайдеру — конфликт ErrEmailExists, аккаунт не изменяется.
//     Аккаунт с привязкой — подтверждаем идентификатор и входим.
//  2. Поиск по идентификатору провайдера: покрывает профили без email
//     и случаи, когда email у провайдера сменился.
//  3. Ничего не нашли — создаём новый аккаунт.
func (s *OAuthService) Resolve(ctx context.Context, profile *provider.Profile) (*model.User, error) {
	if profile.Email != "" {
		user, err := s.userRepository.FindByEmail(ctx, profile.Email)
		switch {
		case err == nil:
			if !user.HasProviderID(profile.Provider) {
				log.Printf("конфликт: email %s занят аккаунтом без привязки к %s", profile.Email, profile.Provider)
				return nil, ErrEmailExists
			}
			if err := s.userRepository.AttachProviderID(ctx, user.UUID, profile.Provider, profile.ID); err != nil {
				return nil, fmt.Errorf("ошибка привязки идентификатора провайдера: %w", err)
			}
			user.AuthProvider = profile.Provider
			return user, nil
		case errors.Is(err, repository.ErrUserNotFound):
			// email свободен, ищем по идентификатору провайдера
		default:
			return nil, fmt.Errorf("ошибка поиска по email: %w", err)
		}
	}

	user, err := s.userRepository.FindByProviderID(ctx, profile.Provider, profile.ID)
	switch {
	case err == nil:
		user.AuthProvider = profile.Provider
		return user, nil
	case errors.Is(err, repository.ErrUserNotFound):
		return s.provisionUser(ctx, profile)
	default:
		return nil, fmt.Errorf("ошибка поиска по идентификатору провайдера: %w", err)
	}
}

func (s *OAuthService) provisionUser(ctx context.Context, profile *provider.Profile) (*model.User, error) {
	username := profile.Username
	if username == "" {
		username = fmt.Sprintf("%s_user", profile.Provider)
	}

	newUser := &model.User{
		UUID:         uuid.New().String(),
		Username:     username,
		Email:        profile.Email,
		AuthProvider: profile.Provider,
	}
	switch profile.Provider {
	case model.ProviderGoogle:
		newUser.GoogleID = sql.NullString{String: profile.ID, Valid: true}
	case model.ProviderGithub:
		newUser.GithubID = sql.NullString{String: profile.ID, Valid: true}
	default:
		return nil, fmt.Errorf("неизвестный провайдер: %s", profile.Provider)
	}

	created, err := s.userRepository.CreateUser(ctx, newUser)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	log.Printf("создан новый аккаунт %s через %s", created.UUID, profile.Provider)
	return created, nil
}
