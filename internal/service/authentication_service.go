package service

import (
	"auth-web-server/internal/model"
	"auth-web-server/internal/ports"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"auth-web-server/internal/util"
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Ошибки аутентификации. Наружу обе отдаются одним 401 без деталей:
// клиент не должен узнать, какое именно поле было неверным и существует ли
// вообще такой refresh токен.
var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrTokenInvalid       = errors.New("невалидный refresh токен")
)

type AuthenticationService struct {
	userRepository  ports.UserRepository
	tokenRepository ports.TokenRepositoryInterface
	jwtService      ports.JWTServiceInterface
	cacheRepository ports.CacheRepository
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	tokenRepository ports.TokenRepositoryInterface,
	jwtService ports.JWTServiceInterface,
	cacheRepository ports.CacheRepository,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository:  userRepository,
		tokenRepository: tokenRepository,
		jwtService:      jwtService,
		cacheRepository: cacheRepository,
	}
}

// Login аутентифицирует пользователя по email и паролю.
// Неизвестный email и неверный пароль дают один и тот же ErrInvalidCredentials.
// На успех выдает пару токенов и сохраняет refresh токен в наборе аккаунта.
func (s *AuthenticationService) Login(ctx context.Context, email, password string) (*model.User, *model.TokensPair, error) {
	user, err := s.userRepository.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Printf("вход отклонён: email %s не найден", email)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	// аккаунт, созданный через провайдера, может не иметь пароля вовсе
	if !user.PasswordHash.Valid || !security.CheckPassword(password, user.PasswordHash.String) {
		log.Printf("вход отклонён: неверный пароль для %s", email)
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueAndPersist(ctx, user, model.ProviderLocal)
	if err != nil {
		return nil, nil, err
	}

	user.AuthProvider = model.ProviderLocal
	user.LastLogin = time.Now()
	return user, tokens, nil
}

// LoginExternal выдает токены аккаунту, уже разрешённому OAuthService
func (s *AuthenticationService) LoginExternal(ctx context.Context, user *model.User) (*model.TokensPair, error) {
	tokens, err := s.issueAndPersist(ctx, user, user.AuthProvider)
	if err != nil {
		return nil, err
	}

	user.LastLogin = time.Now()
	return tokens, nil
}

// Refresh обменивает действующий refresh токен на новую пару.
// Токен проверяется дважды: криптографически и на членство в наборе аккаунта —
// второй шаг отсекает токены, которые уже были заменены или отозваны.
// Замена выполняется compare-and-swap: из двух конкурентных refresh
// с одним токеном выигрывает ровно один.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.jwtService.ValidateToken(security.TokenKindRefresh, refreshToken)
	if err != nil {
		log.Printf("refresh отклонён: %v", err)
		return nil, ErrTokenInvalid
	}

	exists, err := s.tokenRepository.TokenExists(ctx, claims.UserUUID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки refresh токена: %w", err)
	}
	if !exists {
		log.Printf("refresh отклонён: токен пользователя %s не найден в наборе", claims.UserUUID)
		return nil, ErrTokenInvalid
	}

	tokensPair, err := s.jwtService.GenerateTokensPair(claims.UserUUID, claims.Email)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	replaced, err := s.tokenRepository.ReplaceRefreshToken(ctx, claims.UserUUID, refreshToken, tokensPair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка замены refresh токена: %w", err)
	}
	if !replaced {
		// проиграли гонку конкурентному refresh или logout
		log.Printf("refresh отклонён: токен пользователя %s уже заменён", claims.UserUUID)
		return nil, ErrTokenInvalid
	}

	return tokensPair, nil
}

// Logout отзывает refresh токен, удаляя его из набора аккаунта.
// Повторный logout тем же токеном отклоняется, как и refresh.
func (s *AuthenticationService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtService.ValidateToken(security.TokenKindRefresh, refreshToken)
	if err != nil {
		log.Printf("logout отклонён: %v", err)
		return ErrTokenInvalid
	}

	removed, err := s.tokenRepository.RemoveRefreshToken(ctx, claims.UserUUID, refreshToken)
	if err != nil {
		return fmt.Errorf("ошибка удаления refresh токена: %w", err)
	}
	if !removed {
		log.Printf("logout отклонён: токен пользователя %s не найден в наборе", claims.UserUUID)
		return ErrTokenInvalid
	}

	return nil
}

func (s *AuthenticationService) issueAndPersist(ctx context.Context, user *model.User, authProvider string) (*model.TokensPair, error) {
	tokens, err := s.jwtService.GenerateTokensPair(user.UUID, user.Email)
	if err != nil {
		return nil, util.LogError("ошибка генерации токенов", err)
	}

	if err := s.tokenRepository.AppendRefreshToken(ctx, user.UUID, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}

	if err := s.userRepository.UpdateLoginInfo(ctx, user.UUID, authProvider); err != nil {
		return nil, fmt.Errorf("ошибка обновления данных входа: %w", err)
	}

	// профиль в кэше устарел после смены last_login
	if err := s.cacheRepository.DeleteUser(ctx, user.UUID); err != nil {
		log.Printf("не удалось инвалидировать кэш пользователя %s: %v", user.UUID, err)
	}

	return tokens, nil
}
