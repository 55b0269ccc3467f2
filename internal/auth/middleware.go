package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/meli/auth-server/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// CodeBearerInvalid is attached to every rejected bearer credential.
const CodeBearerInvalid = "AUTH011"

// Principal represents the authenticated caller as described by its access token.
type Principal struct {
	Subject string
	Profile Profile
}

// Authenticator resolves a bearer token into access token claims.
type Authenticator interface {
	Authenticate(token string) (ClaimSet, error)
}

// AuthMiddleware validates bearer tokens. The principal is built from the
// token alone; the identity store is not consulted.
type AuthMiddleware struct {
	tokens Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens Authenticator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.New(apperrors.KindTokenInvalid, CodeBearerInvalid, "", nil)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.New(apperrors.KindTokenInvalid, CodeBearerInvalid, "", nil)
	}

	claims, err := m.tokens.Authenticate(strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	principal := &Principal{Subject: claims.Subject}
	if claims.Profile != nil {
		principal.Profile = *claims.Profile
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
