package model

// TokensPair содержит пару access и refresh токенов
type TokensPair struct {
	// Access токен (JWT)
	AccessToken string `json:"accessToken"`

	// Refresh токен (JWT, подписан отдельным ключом)
	RefreshToken string `json:"refreshToken"`
}
