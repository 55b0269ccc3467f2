package auth

import (
	"fmt"
	"time"

	"github.com/meli/auth-server/internal/domain"
)

// RefreshTokenTTL is the fixed lifetime of refresh tokens (604,800,000 ms).
const RefreshTokenTTL = 7 * 24 * time.Hour

// IssueAccessToken signs an access token carrying the full identity profile,
// so resource servers can authorize without a second lookup.
func IssueAccessToken(identity domain.Identity, now time.Time, ttl time.Duration, key SigningKey) (string, error) {
	if ttl < time.Second {
		return "", fmt.Errorf("%w: access ttl %s", ErrInvalidClaims, ttl)
	}
	return Encode(ClaimSet{
		Subject:   identity.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Kind:      domain.TokenKindAccess,
		Profile:   profileOf(identity),
	}, key)
}

// IssueRefreshToken signs a refresh token for username. It carries no profile claims.
func IssueRefreshToken(username string, now time.Time, key SigningKey) (string, error) {
	return Encode(ClaimSet{
		Subject:   username,
		IssuedAt:  now,
		ExpiresAt: now.Add(RefreshTokenTTL),
		Kind:      domain.TokenKindRefresh,
	}, key)
}

// IssueTokenPair issues a fresh access and refresh token for identity.
func IssueTokenPair(identity domain.Identity, now time.Time, accessTTL time.Duration, key SigningKey) (domain.TokenPair, error) {
	access, err := IssueAccessToken(identity, now, accessTTL, key)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := IssueRefreshToken(identity.Username, now, key)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL / time.Second),
		TokenType:    domain.TokenTypeBearer,
	}, nil
}

func profileOf(identity domain.Identity) *Profile {
	var registeredAt string
	if !identity.RegisteredAt.IsZero() {
		registeredAt = identity.RegisteredAt.UTC().Format(time.RFC3339)
	}
	return &Profile{
		UserID:       identity.ID,
		FirstName:    identity.FirstName,
		LastName:     identity.LastName,
		Email:        identity.Email,
		Phone:        identity.Phone,
		Address:      identity.Address,
		Role:         identity.Role,
		Position:     identity.Position,
		ExternalID:   identity.ExternalID,
		Status:       identity.Status,
		RegisteredAt: registeredAt,
	}
}
