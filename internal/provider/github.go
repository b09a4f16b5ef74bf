package provider

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/util"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
)

const (
	githubUserEndpoint   = "https://api.github.com/user"
	githubEmailsEndpoint = "https://api.github.com/user/emails"
)

type GithubProvider struct {
	oauth *oauth2.Config
}

func NewGithubProvider(cfg *config.OAuthProviderConfig) *GithubProvider {
	return &GithubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     oauthgithub.Endpoint,
		},
	}
}

func (p *GithubProvider) Name() string {
	return model.ProviderGithub
}

func (p *GithubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// FetchProfile обменивает код авторизации на профиль пользователя GitHub.
// Если в /user email скрыт, пробует найти primary email через /user/emails;
// отсутствие email не является ошибкой
func (p *GithubProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, util.LogError("[GitHub] не удалось обменять код на токен", err)
	}

	client := p.oauth.Client(ctx, token)

	var githubUser struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, githubUserEndpoint, &githubUser); err != nil {
		return nil, util.LogError("[GitHub] не удалось получить профиль", err)
	}

	email := githubUser.Email
	if email == "" {
		email = p.fetchPrimaryEmail(ctx, client)
	}

	username := githubUser.Login
	if username == "" {
		username = githubUser.Name
	}
	if username == "" {
		username = "github_user"
	}

	return &Profile{
		Provider: model.ProviderGithub,
		ID:       strconv.FormatInt(githubUser.ID, 10),
		Email:    email,
		Username: username,
	}, nil
}

func (p *GithubProvider) fetchPrimaryEmail(ctx context.Context, client *http.Client) string {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(ctx, client, githubEmailsEndpoint, &emails); err != nil {
		// профиль без email допустим, идём дальше
		util.LogError("[GitHub] не удалось получить список email", err)
		return ""
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return ""
}

func getJSON(ctx context.Context, client *http.Client, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("неожиданный статус ответа %d от %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
