package service_test

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== MOCKS =====

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByProviderID(ctx context.Context, provider, providerID string) (*model.User, error) {
	args := m.Called(ctx, provider, providerID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) AttachProviderID(ctx context.Context, uuid, provider, providerID string) error {
	args := m.Called(ctx, uuid, provider, providerID)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLoginInfo(ctx context.Context, uuid, authProvider string) error {
	args := m.Called(ctx, uuid, authProvider)
	return args.Error(0)
}

// MockTokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) AppendRefreshToken(ctx context.Context, userUUID, token string) error {
	args := m.Called(ctx, userUUID, token)
	return args.Error(0)
}

func (m *MockTokenRepository) RemoveRefreshToken(ctx context.Context, userUUID, token string) (bool, error) {
	args := m.Called(ctx, userUUID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) TokenExists(ctx context.Context, userUUID, token string) (bool, error) {
	args := m.Called(ctx, userUUID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) ReplaceRefreshToken(ctx context.Context, userUUID, oldToken, newToken string) (bool, error) {
	args := m.Called(ctx, userUUID, oldToken, newToken)
	return args.Bool(0), args.Error(1)
}

// MockJWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokensPair(userUUID, email string) (*model.TokensPair, error) {
	args := m.Called(userUUID, email)
	if t, ok := args.Get(0).(*model.TokensPair); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTService) ValidateToken(kind security.TokenKind, token string) (*security.Claims, error) {
	args := m.Called(kind, token)
	if claims, ok := args.Get(0).(*security.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) SetUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockCacheRepository) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCacheRepository) DeleteUser(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

// ===== HELPERS =====

func newTestAuthService() (*service.AuthenticationService, *MockUserRepository, *MockTokenRepository, *MockJWTService, *MockCacheRepository) {
	mockUserRepo := new(MockUserRepository)
	mockTokenRepo := new(MockTokenRepository)
	mockJWTService := new(MockJWTService)
	mockCache := new(MockCacheRepository)

	svc := service.NewAuthenticationService(mockUserRepo, mockTokenRepo, mockJWTService, mockCache)

	return svc, mockUserRepo, mockTokenRepo, mockJWTService, mockCache
}

func localUser(password string) *model.User {
	hash, _ := security.HashPassword(password)
	return &model.User{
		UUID:         "u1",
		Username:     "user1",
		Email:        "user@example.com",
		PasswordHash: sql.NullString{String: hash, Valid: true},
		AuthProvider: model.ProviderLocal,
	}
}

// ===== LOGIN =====

// 1. Неизвестный email: тот же ответ, что и при неверном пароле
func TestLogin_UserNotFound(t *testing.T) {
	svc, mockUserRepo, _, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	mockUserRepo.On("FindByEmail", ctx, "a@x.com").Return(nil, repository.ErrUserNotFound)

	_, _, err := svc.Login(ctx, "a@x.com", "pw")

	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	mockJWTService.AssertNotCalled(t, "GenerateTokensPair", mock.Anything, mock.Anything)
	mockUserRepo.AssertExpectations(t)
}

// 2. Неверный пароль
func TestLogin_WrongPassword(t *testing.T) {
	svc, mockUserRepo, _, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	mockUserRepo.On("FindByEmail", ctx, "user@example.com").Return(localUser("goodpass"), nil)

	_, _, err := svc.Login(ctx, "user@example.com", "badpass")

	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	mockJWTService.AssertNotCalled(t, "GenerateTokensPair", mock.Anything, mock.Anything)
}

// 3. Аккаунт без пароля (создан через провайдера) не пускается по паролю
func TestLogin_AccountWithoutPassword(t *testing.T) {
	svc, mockUserRepo, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user := localUser("goodpass")
	user.PasswordHash = sql.NullString{}
	mockUserRepo.On("FindByEmail", ctx, "user@example.com").Return(user, nil)

	_, _, err := svc.Login(ctx, "user@example.com", "anything")

	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

// 4. Ошибка хранилища не маскируется под ошибку аутентификации
func TestLogin_StoreError(t *testing.T) {
	svc, mockUserRepo, _, _, _ := newTestAuthService()
	ctx := context.Background()

	mockUserRepo.On("FindByEmail", ctx, "user@example.com").Return(nil, errors.New("connection refused"))

	_, _, err := svc.Login(ctx, "user@example.com", "pw")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
}

// 5. Успешный вход: refresh токен сохранён, кэш профиля сброшен
func TestLogin_Success(t *testing.T) {
	svc, mockUserRepo, mockTokenRepo, mockJWTService, mockCache := newTestAuthService()
	ctx := context.Background()

	user := localUser("goodpass")
	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}

	mockUserRepo.On("FindByEmail", ctx, "user@example.com").Return(user, nil)
	mockJWTService.On("GenerateTokensPair", "u1", "user@example.com").Return(tokens, nil)
	mockTokenRepo.On("AppendRefreshToken", ctx, "u1", "ref").Return(nil)
	mockUserRepo.On("UpdateLoginInfo", ctx, "u1", model.ProviderLocal).Return(nil)
	mockCache.On("DeleteUser", ctx, "u1").Return(nil)

	gotUser, gotTokens, err := svc.Login(ctx, "user@example.com", "goodpass")

	require.NoError(t, err)
	assert.Equal(t, tokens, gotTokens)
	assert.Equal(t, model.ProviderLocal, gotUser.AuthProvider)
	assert.False(t, gotUser.LastLogin.IsZero())

	mockUserRepo.AssertExpectations(t)
	mockTokenRepo.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

// 6. Ошибка сохранения refresh токена
func TestLogin_AppendError(t *testing.T) {
	svc, mockUserRepo, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}
	mockUserRepo.On("FindByEmail", ctx, "user@example.com").Return(localUser("goodpass"), nil)
	mockJWTService.On("GenerateTokensPair", "u1", "user@example.com").Return(tokens, nil)
	mockTokenRepo.On("AppendRefreshToken", ctx, "u1", "ref").Return(errors.New("db error"))

	_, _, err := svc.Login(ctx, "user@example.com", "goodpass")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
}

// ===== LOGIN EXTERNAL =====

func TestLoginExternal_Success(t *testing.T) {
	svc, mockUserRepo, mockTokenRepo, mockJWTService, mockCache := newTestAuthService()
	ctx := context.Background()

	user := &model.User{
		UUID:         "u2",
		Username:     "octocat",
		Email:        "octo@example.com",
		GithubID:     sql.NullString{String: "777", Valid: true},
		AuthProvider: model.ProviderGithub,
	}
	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}

	mockJWTService.On("GenerateTokensPair", "u2", "octo@example.com").Return(tokens, nil)
	mockTokenRepo.On("AppendRefreshToken", ctx, "u2", "ref").Return(nil)
	mockUserRepo.On("UpdateLoginInfo", ctx, "u2", model.ProviderGithub).Return(nil)
	mockCache.On("DeleteUser", ctx, "u2").Return(nil)

	gotTokens, err := svc.LoginExternal(ctx, user)

	require.NoError(t, err)
	assert.Equal(t, tokens, gotTokens)
	mockUserRepo.AssertExpectations(t)
}

// ===== REFRESH =====

// 1. Криптографически невалидный токен
func TestRefresh_InvalidSignature(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "bad").Return(nil, security.ErrTokenSignature)

	_, err := svc.Refresh(ctx, "bad")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	mockTokenRepo.AssertNotCalled(t, "TokenExists", mock.Anything, mock.Anything, mock.Anything)
}

// 2. Просроченный токен отклоняется до похода в хранилище:
// истечение срока не зависит от состояния набора
func TestRefresh_ExpiredBeforeStoreLookup(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "expired").Return(nil, security.ErrTokenExpired)

	_, err := svc.Refresh(ctx, "expired")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	mockTokenRepo.AssertNotCalled(t, "TokenExists", mock.Anything, mock.Anything, mock.Anything)
}

// 3. Валидная подпись, но токена нет в наборе — заменён или никогда не выдавался
func TestRefresh_TokenNotInSet(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "stale").Return(claims, nil)
	mockTokenRepo.On("TokenExists", ctx, "u1", "stale").Return(false, nil)

	_, err := svc.Refresh(ctx, "stale")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	mockJWTService.AssertNotCalled(t, "GenerateTokensPair", mock.Anything, mock.Anything)
}

// 4. Недоступность хранилища — не ошибка аутентификации
func TestRefresh_StoreError(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "ref").Return(claims, nil)
	mockTokenRepo.On("TokenExists", ctx, "u1", "ref").Return(false, errors.New("timeout"))

	_, err := svc.Refresh(ctx, "ref")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrTokenInvalid)
}

// 5. Проигранная гонка: compare-and-swap не нашёл старый токен
func TestRefresh_LostRace(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	newPair := &model.TokensPair{AccessToken: "acc2", RefreshToken: "ref2"}

	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "ref1").Return(claims, nil)
	mockTokenRepo.On("TokenExists", ctx, "u1", "ref1").Return(true, nil)
	mockJWTService.On("GenerateTokensPair", "u1", "user@example.com").Return(newPair, nil)
	mockTokenRepo.On("ReplaceRefreshToken", ctx, "u1", "ref1", "ref2").Return(false, nil)

	_, err := svc.Refresh(ctx, "ref1")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

// 6. Успешная ротация
func TestRefresh_Success(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	newPair := &model.TokensPair{AccessToken: "acc2", RefreshToken: "ref2"}

	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "ref1").Return(claims, nil)
	mockTokenRepo.On("TokenExists", ctx, "u1", "ref1").Return(true, nil)
	mockJWTService.On("GenerateTokensPair", "u1", "user@example.com").Return(newPair, nil)
	mockTokenRepo.On("ReplaceRefreshToken", ctx, "u1", "ref1", "ref2").Return(true, nil)

	tokens, err := svc.Refresh(ctx, "ref1")

	require.NoError(t, err)
	assert.Equal(t, newPair, tokens)
	mockTokenRepo.AssertExpectations(t)
}

// ===== LOGOUT =====

func TestLogout_InvalidToken(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "bad").Return(nil, security.ErrTokenMalformed)

	err := svc.Logout(ctx, "bad")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
	mockTokenRepo.AssertNotCalled(t, "RemoveRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_TokenNotInSet(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "gone").Return(claims, nil)
	mockTokenRepo.On("RemoveRefreshToken", ctx, "u1", "gone").Return(false, nil)

	err := svc.Logout(ctx, "gone")

	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

func TestLogout_Success(t *testing.T) {
	svc, _, mockTokenRepo, mockJWTService, _ := newTestAuthService()
	ctx := context.Background()

	claims := &security.Claims{UserUUID: "u1", Email: "user@example.com"}
	mockJWTService.On("ValidateToken", security.TokenKindRefresh, "ref").Return(claims, nil)
	mockTokenRepo.On("RemoveRefreshToken", ctx, "u1", "ref").Return(true, nil)

	err := svc.Logout(ctx, "ref")

	assert.NoError(t, err)
}

// ===== СЦЕНАРИИ РОТАЦИИ НА РЕАЛЬНОМ КОДЕКЕ И CAS-ХРАНИЛИЩЕ =====

// fakeTokenStore : потокобезопасный набор refresh-токенов с теми же
// compare-and-swap гарантиями, что и у Postgres-реализации
type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string][]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string][]string)}
}

func (f *fakeTokenStore) AppendRefreshToken(_ context.Context, userUUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[userUUID] = append(f.tokens[userUUID], token)
	return nil
}

func (f *fakeTokenStore) RemoveRefreshToken(_ context.Context, userUUID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.tokens[userUUID]
	for i, t := range set {
		if t == token {
			f.tokens[userUUID] = append(set[:i], set[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenStore) TokenExists(_ context.Context, userUUID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens[userUUID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTokenStore) ReplaceRefreshToken(_ context.Context, userUUID, oldToken, newToken string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tokens[userUUID] {
		if t == oldToken {
			f.tokens[userUUID][i] = newToken
			return true, nil
		}
	}
	return false, nil
}

// fakeUserStore реализует только то, что нужно issueAndPersist
type fakeUserStore struct {
	MockUserRepository
}

func (f *fakeUserStore) UpdateLoginInfo(context.Context, string, string) error { return nil }

type noopCache struct{}

func (noopCache) SetUser(context.Context, *model.User) error { return nil }

func (noopCache) GetUser(context.Context, string) (*model.User, error) { return nil, nil }

func (noopCache) DeleteUser(context.Context, string) error { return nil }

func newRotationService(t *testing.T) (*service.AuthenticationService, *fakeTokenStore) {
	t.Helper()
	jwtService, err := security.NewJWTService(&config.JWTConfig{
		AccessSecretKey:  "access-secret",
		RefreshSecretKey: "refresh-secret",
		AccessTokenTTL:   "15m",
		RefreshTokenTTL:  "1h",
	})
	require.NoError(t, err)

	store := newFakeTokenStore()
	svc := service.NewAuthenticationService(&fakeUserStore{}, store, jwtService, noopCache{})
	return svc, store
}

// Ротация убивает предшественника: старый токен отклоняется навсегда,
// хотя криптографически он ещё валиден
func TestRefresh_RotationInvalidatesPredecessor(t *testing.T) {
	svc, store := newRotationService(t)
	ctx := context.Background()

	user := &model.User{UUID: "u1", Email: "user@example.com", AuthProvider: model.ProviderLocal}
	first, err := svc.LoginExternal(ctx, user)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	// старый токен больше не принимается, сколько бы раз его ни предъявили
	for i := 0; i < 3; i++ {
		_, err = svc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, service.ErrTokenInvalid)
	}

	// преемник работает
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	// в наборе ровно один токен
	assert.Len(t, store.tokens["u1"], 1)
}

// N конкурентных refresh с одним токеном: ровно один успех
func TestRefresh_ConcurrentExactlyOnce(t *testing.T) {
	svc, _ := newRotationService(t)
	ctx := context.Background()

	user := &model.User{UUID: "u1", Email: "user@example.com", AuthProvider: model.ProviderLocal}
	first, err := svc.LoginExternal(ctx, user)
	require.NoError(t, err)

	const attempts = 32

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, first.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, service.ErrTokenInvalid)
		}
	}

	assert.Equal(t, 1, succeeded)
}

// Logout терминален: ни refresh, ни повторный logout тем же токеном не проходят
func TestLogout_Terminal(t *testing.T) {
	svc, _ := newRotationService(t)
	ctx := context.Background()

	user := &model.User{UUID: "u1", Email: "user@example.com", AuthProvider: model.ProviderLocal}
	tokens, err := svc.LoginExternal(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	err = svc.Logout(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)
}

// Просроченный refresh токен отклоняется, даже если он всё ещё лежит в наборе
func TestRefresh_ExpiredTokenStillInStore(t *testing.T) {
	expiredIssuer, err := security.NewJWTService(&config.JWTConfig{
		AccessSecretKey:  "access-secret",
		RefreshSecretKey: "refresh-secret",
		AccessTokenTTL:   "15m",
		RefreshTokenTTL:  "-1s",
	})
	require.NoError(t, err)

	svc, store := newRotationService(t)
	ctx := context.Background()

	expiredToken, err := expiredIssuer.IssueToken(security.TokenKindRefresh, "u1", "user@example.com")
	require.NoError(t, err)
	require.NoError(t, store.AppendRefreshToken(ctx, "u1", expiredToken))

	_, err = svc.Refresh(ctx, expiredToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalid)

	// токен остался в наборе: чистка по сроку — не задача refresh
	exists, err := store.TokenExists(ctx, "u1", expiredToken)
	require.NoError(t, err)
	assert.True(t, exists)
}
