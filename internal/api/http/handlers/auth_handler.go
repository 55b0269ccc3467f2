package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/meli/auth-server/internal/api/dto"
	"github.com/meli/auth-server/internal/auth"
	"github.com/meli/auth-server/internal/service"
	apperrors "github.com/meli/auth-server/pkg/util/errorutil"
)

const (
	// AccessTokenHeader carries the token checked by POST /auth/jwt.
	AccessTokenHeader = "accessToken"
	// RefreshTokenHeader carries the token rotated by POST /auth/refresh.
	RefreshTokenHeader = "Refresh-Token"
)

// AuthHandler exposes the token endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	resource string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, resource string) *AuthHandler {
	return &AuthHandler{auth: authService, resource: resource}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	pair, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTokenDto(pair, h.resource))
}

// Validate handles POST /auth/jwt.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(AccessTokenHeader))
	if token == "" {
		return apperrors.NewValidationError("accessToken header required", nil)
	}

	ack, err := h.auth.ValidateAccess(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTokenDto(ack, h.resource))
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get(RefreshTokenHeader))
	if token == "" {
		return apperrors.NewValidationError("Refresh-Token header required", nil)
	}

	pair, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTokenDto(pair, h.resource))
}

// Me handles GET /auth/me from the access token claims alone.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.New(apperrors.KindTokenInvalid, auth.CodeBearerInvalid, "", nil)
	}
	p := principal.Profile
	return c.JSON(fiber.Map{
		"data": dto.PrincipalResponse{
			Username:     principal.Subject,
			ID:           p.UserID,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Email:        p.Email,
			Role:         p.Role,
			Position:     p.Position,
			ExternalID:   p.ExternalID,
			Status:       p.Status,
			RegisteredAt: p.RegisteredAt,
		},
	})
}
