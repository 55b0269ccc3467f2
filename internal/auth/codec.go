package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/meli/auth-server/internal/domain"
)

var (
	// ErrMalformed is returned when a verified token cannot be parsed into a claim set.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when the signature does not match the key.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrInvalidClaims is returned when a claim set breaks its invariants.
	ErrInvalidClaims = errors.New("invalid claim set")
	// ErrEmptyKey is returned when signing with an empty key.
	ErrEmptyKey = errors.New("signing key is empty")
)

// SigningKey is the process-wide HMAC secret. It is read-only after startup.
type SigningKey []byte

// Profile holds the identity fields flattened into access tokens.
type Profile struct {
	UserID       int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Role         string `json:"role"`
	Position     string `json:"position"`
	ExternalID   string `json:"external_id"`
	Status       string `json:"status"`
	RegisteredAt string `json:"registered_at"`
}

// ClaimSet is the payload embedded in a token. Profile is only set on access
// tokens. Times have second precision and are carried in UTC; Encode
// normalizes them before signing.
type ClaimSet struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Kind      domain.TokenKind
	Profile   *Profile
}

func (c ClaimSet) normalized() ClaimSet {
	c.IssuedAt = c.IssuedAt.Truncate(time.Second).UTC()
	c.ExpiresAt = c.ExpiresAt.Truncate(time.Second).UTC()
	return c
}

func (c ClaimSet) validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidClaims, c.Kind)
	}
	if c.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidClaims)
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return fmt.Errorf("%w: expiry not after issue time", ErrInvalidClaims)
	}
	return nil
}

// wireClaims is the JWT payload. The embedded profile pointer flattens its
// fields into the top level object and is omitted when nil.
type wireClaims struct {
	Kind domain.TokenKind `json:"type"`
	*Profile
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithoutClaimsValidation(),
	jwt.WithStrictDecoding(),
)

// Encode signs claims with key as a compact HS256 JWT. Timestamps are
// truncated to whole seconds in UTC first, so a span under one second is
// rejected.
func Encode(claims ClaimSet, key SigningKey) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}
	claims = claims.normalized()
	if err := claims.validate(); err != nil {
		return "", err
	}

	wire := wireClaims{
		Kind:    claims.Kind,
		Profile: claims.Profile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, wire)
	return token.SignedString([]byte(key))
}

// Decode verifies the signature of token against key and then parses its
// claims. Expiry is not checked here.
func Decode(token string, key SigningKey) (ClaimSet, error) {
	dot := strings.LastIndexByte(token, '.')
	if dot < 0 {
		return ClaimSet{}, ErrMalformed
	}
	if len(key) == 0 {
		return ClaimSet{}, ErrSignatureInvalid
	}

	// The MAC covers header and payload as raw text, so it is checked before
	// either of them is decoded.
	sig, err := parser.DecodeSegment(token[dot+1:])
	if err != nil {
		return ClaimSet{}, ErrSignatureInvalid
	}
	if err := jwt.SigningMethodHS256.Verify(token[:dot], sig, []byte(key)); err != nil {
		return ClaimSet{}, ErrSignatureInvalid
	}

	var wire wireClaims
	parsed, err := parser.ParseWithClaims(token, &wire, func(*jwt.Token) (interface{}, error) {
		return []byte(key), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return ClaimSet{}, ErrSignatureInvalid
		}
		return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !parsed.Valid || wire.IssuedAt == nil || wire.ExpiresAt == nil {
		return ClaimSet{}, fmt.Errorf("%w: missing timestamps", ErrMalformed)
	}

	claims := ClaimSet{
		Subject:   wire.Subject,
		IssuedAt:  wire.IssuedAt.Time.UTC(),
		ExpiresAt: wire.ExpiresAt.Time.UTC(),
		Kind:      wire.Kind,
		Profile:   wire.Profile,
	}
	if err := claims.validate(); err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}
