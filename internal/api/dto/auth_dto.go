package dto

import "github.com/meli/auth-server/internal/domain"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenDto is the response of every auth endpoint. Validation responses
// leave the refresh fields empty.
type TokenDto struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type"`
	Resource     string `json:"resource"`
}

// NewTokenDto renders a token pair for resource.
func NewTokenDto(pair domain.TokenPair, resource string) TokenDto {
	tokenType := pair.TokenType
	if tokenType == "" {
		tokenType = domain.TokenTypeBearer
	}
	return TokenDto{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    tokenType,
		Resource:     resource,
	}
}

// PrincipalResponse describes the caller of GET /auth/me.
type PrincipalResponse struct {
	Username     string `json:"username"`
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Position     string `json:"position"`
	ExternalID   string `json:"external_id"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at"`
}
