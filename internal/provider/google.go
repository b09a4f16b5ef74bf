package provider

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
)

const googleUserinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleProvider struct {
	oauth *oauth2.Config
}

func NewGoogleProvider(cfg *config.OAuthProviderConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     oauthgoogle.Endpoint,
		},
	}
}

func (p *GoogleProvider) Name() string {
	return model.ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// FetchProfile обменивает код авторизации на профиль пользователя Google
func (p *GoogleProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, util.LogError("[Google] не удалось обменять код на токен", err)
	}

	client := p.oauth.Client(ctx, token)

	var googleUser struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		GivenName string `json:"given_name"`
	}
	if err := getJSON(ctx, client, googleUserinfoEndpoint, &googleUser); err != nil {
		return nil, util.LogError("[Google] не удалось получить профиль", err)
	}

	username := googleUser.GivenName
	if username == "" {
		username = googleUser.Name
	}
	if username == "" {
		username = "google_user"
	}

	return &Profile{
		Provider: model.ProviderGoogle,
		ID:       googleUser.ID,
		Email:    googleUser.Email,
		Username: username,
	}, nil
}
