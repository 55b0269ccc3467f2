package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/meli/auth-server/internal/domain"
)

// ErrTokenInvalid wraps every decode failure seen by the validator. A forged
// token and an unreadable one are indistinguishable to callers.
var ErrTokenInvalid = errors.New("token invalid")

func decodeForValidation(token string, key SigningKey) (ClaimSet, error) {
	claims, err := Decode(token, key)
	if err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}

// IsLive reports whether token is authentic and expires after now.
func IsLive(token string, now time.Time, key SigningKey) (bool, error) {
	claims, err := decodeForValidation(token, key)
	if err != nil {
		return false, err
	}
	return claims.ExpiresAt.After(now), nil
}

// ExtractSubject returns the username the token was issued to.
func ExtractSubject(token string, key SigningKey) (string, error) {
	claims, err := decodeForValidation(token, key)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsKind reports whether token was issued as the wanted kind.
func IsKind(token string, key SigningKey, want domain.TokenKind) (bool, error) {
	claims, err := decodeForValidation(token, key)
	if err != nil {
		return false, err
	}
	return claims.Kind == want, nil
}

// Claims decodes an authentic, live token of the wanted kind in one pass.
// It backs the bearer middleware where only the claims matter.
func Claims(token string, now time.Time, key SigningKey, want domain.TokenKind) (ClaimSet, error) {
	claims, err := decodeForValidation(token, key)
	if err != nil {
		return ClaimSet{}, err
	}
	if !claims.ExpiresAt.After(now) {
		return ClaimSet{}, fmt.Errorf("%w: expired", ErrTokenInvalid)
	}
	if claims.Kind != want {
		return ClaimSet{}, fmt.Errorf("%w: kind %s", ErrTokenInvalid, claims.Kind)
	}
	return claims, nil
}
