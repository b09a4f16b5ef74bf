package config

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig : независимые ключи и времена жизни для access и refresh токенов
type JWTConfig struct {
	AccessSecretKey  string `yaml:"access_secret_key"`
	RefreshSecretKey string `yaml:"refresh_secret_key"`
	AccessTokenTTL   string `yaml:"access_token_ttl"`
	RefreshTokenTTL  string `yaml:"refresh_token_ttl"`
}

type OAuthProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// OAuthConfig : настройки внешних провайдеров и маршрут фронтенда,
// на который уходят редиректы после callback
type OAuthConfig struct {
	Github           OAuthProviderConfig `yaml:"github"`
	Google           OAuthProviderConfig `yaml:"google"`
	FrontendCallback string              `yaml:"frontend_callback"`
}

type TTL struct {
	UserCache int64 `yaml:"user_cache"`
}
