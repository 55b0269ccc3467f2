package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meli/auth-server/internal/auth"
	"github.com/meli/auth-server/internal/config"
	"github.com/meli/auth-server/internal/domain"
	"github.com/meli/auth-server/internal/events"
	"github.com/meli/auth-server/internal/repository"
	apperrors "github.com/meli/auth-server/pkg/util/errorutil"
)

// Error codes attached to every failure for cross-service log correlation.
const (
	CodeLoginUnknownUser    = "AUTH001"
	CodeLoginBadCredential  = "AUTH002"
	CodeLoginInternal       = "AUTH003"
	CodeValidateExpired     = "AUTH004"
	CodeValidateUndecodable = "AUTH005"
	CodeRefreshInvalid      = "AUTH006"
	CodeRefreshWrongKind    = "AUTH007"
	CodeRefreshIdentityGone = "AUTH008"
	CodeRefreshInternal     = "AUTH009"
	CodeValidateWrongKind   = "AUTH010"
	CodeBearerInvalid       = auth.CodeBearerInvalid
)

// AuthService coordinates login, access token validation and refresh. It keeps
// no per-session state; every call stands alone.
type AuthService struct {
	identities repository.IdentityRepository
	matcher    auth.Matcher
	dispatcher events.Dispatcher
	key        auth.SigningKey
	accessTTL  time.Duration
	now        func() time.Time

	bcryptCost int
	decoyOnce  sync.Once
	decoyHash  string
}

// AuthDependencies encapsulates the collaborators of the auth service.
type AuthDependencies struct {
	Identities repository.IdentityRepository
	Matcher    auth.Matcher
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewAuthService builds the service. The signing key is copied once and never mutated.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = auth.BcryptMatcher{}
	}
	key := append(auth.SigningKey(nil), cfg.Auth.SigningKey()...)
	return &AuthService{
		identities: deps.Identities,
		matcher:    matcher,
		dispatcher: deps.Dispatcher,
		key:        key,
		accessTTL:  cfg.Auth.AccessTokenTTL(),
		now:        clock,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login verifies the submitted password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	pair, err := s.login(ctx, username, password)
	if err != nil {
		s.publish(ctx, events.EventLoginFailed, username, err)
		return domain.TokenPair{}, err
	}
	s.publish(ctx, events.EventLoginSucceeded, username, nil)
	return pair, nil
}

func (s *AuthService) login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	identity, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown usernames take as long as a wrong password.
			auth.Matches(password, s.decoy(), s.matcher)
			return domain.TokenPair{}, apperrors.New(apperrors.KindIdentityNotFound, CodeLoginUnknownUser, username, err)
		}
		return domain.TokenPair{}, apperrors.New(apperrors.KindInternalFailure, CodeLoginInternal, "", err)
	}

	if !auth.Matches(password, identity.PasswordHash, s.matcher) {
		return domain.TokenPair{}, apperrors.New(apperrors.KindCredentialMismatch, CodeLoginBadCredential, username, nil)
	}

	pair, err := auth.IssueTokenPair(*identity, s.now(), s.accessTTL, s.key)
	if err != nil {
		return domain.TokenPair{}, apperrors.New(apperrors.KindInternalFailure, CodeLoginInternal, "", err)
	}
	return pair, nil
}

// ValidateAccess checks that accessToken is an authentic, live access token
// and echoes it back. Nothing is re-issued.
func (s *AuthService) ValidateAccess(ctx context.Context, accessToken string) (domain.TokenPair, error) {
	subject, err := s.validateAccess(accessToken)
	if err != nil {
		s.publish(ctx, events.EventTokenRejected, subject, err)
		return domain.TokenPair{}, err
	}
	s.publish(ctx, events.EventTokenValidated, subject, nil)
	return domain.TokenPair{AccessToken: accessToken, TokenType: domain.TokenTypeBearer}, nil
}

func (s *AuthService) validateAccess(accessToken string) (string, error) {
	live, err := auth.IsLive(accessToken, s.now(), s.key)
	if err != nil {
		return "", apperrors.New(apperrors.KindTokenInvalid, CodeValidateUndecodable, "", err)
	}
	if !live {
		return "", apperrors.New(apperrors.KindTokenInvalid, CodeValidateExpired, "", auth.ErrTokenInvalid)
	}

	subject, err := auth.ExtractSubject(accessToken, s.key)
	if err != nil {
		return "", apperrors.New(apperrors.KindTokenInvalid, CodeValidateUndecodable, "", err)
	}
	isAccess, err := auth.IsKind(accessToken, s.key, domain.TokenKindAccess)
	if err != nil {
		return subject, apperrors.New(apperrors.KindTokenInvalid, CodeValidateUndecodable, "", err)
	}
	if !isAccess {
		return subject, apperrors.New(apperrors.KindWrongTokenKind, CodeValidateWrongKind, "", nil)
	}
	return subject, nil
}

// Refresh rotates a valid refresh token into a new token pair. The presented
// token is not revoked and stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	subject, pair, err := s.refresh(ctx, refreshToken)
	if err != nil {
		s.publish(ctx, events.EventRefreshRejected, subject, err)
		return domain.TokenPair{}, err
	}
	s.publish(ctx, events.EventTokenRefreshed, subject, nil)
	return pair, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (string, domain.TokenPair, error) {
	live, err := auth.IsLive(refreshToken, s.now(), s.key)
	if err != nil || !live {
		if err == nil {
			err = auth.ErrTokenInvalid
		}
		return "", domain.TokenPair{}, apperrors.New(apperrors.KindTokenInvalid, CodeRefreshInvalid, "", err)
	}

	// Mandatory: an access token must never be replayed as a refresh token.
	isRefresh, err := auth.IsKind(refreshToken, s.key, domain.TokenKindRefresh)
	if err != nil {
		return "", domain.TokenPair{}, apperrors.New(apperrors.KindTokenInvalid, CodeRefreshInvalid, "", err)
	}
	if !isRefresh {
		return "", domain.TokenPair{}, apperrors.New(apperrors.KindWrongTokenKind, CodeRefreshWrongKind, "", nil)
	}

	username, err := auth.ExtractSubject(refreshToken, s.key)
	if err != nil {
		return "", domain.TokenPair{}, apperrors.New(apperrors.KindTokenInvalid, CodeRefreshInvalid, "", err)
	}

	identity, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return username, domain.TokenPair{}, apperrors.New(apperrors.KindIdentityGone, CodeRefreshIdentityGone, username, err)
		}
		return username, domain.TokenPair{}, apperrors.New(apperrors.KindInternalFailure, CodeRefreshInternal, "", err)
	}

	pair, err := auth.IssueTokenPair(*identity, s.now(), s.accessTTL, s.key)
	if err != nil {
		return username, domain.TokenPair{}, apperrors.New(apperrors.KindInternalFailure, CodeRefreshInternal, "", err)
	}
	return username, pair, nil
}

// decoy returns a bcrypt hash of a random secret at the configured cost.
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err == nil {
			s.decoyHash = hash
		}
	})
	return s.decoyHash
}

// Authenticate returns the claims of a live access token for the bearer middleware.
func (s *AuthService) Authenticate(accessToken string) (auth.ClaimSet, error) {
	claims, err := auth.Claims(accessToken, s.now(), s.key, domain.TokenKindAccess)
	if err != nil {
		return auth.ClaimSet{}, apperrors.New(apperrors.KindTokenInvalid, CodeBearerInvalid, "", err)
	}
	return claims, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *AuthService) AccessTTL() time.Duration {
	return s.accessTTL
}

// publish emits an audit event. Delivery failures never change the outcome
// of the operation that produced the event.
func (s *AuthService) publish(ctx context.Context, eventType events.EventType, subject string, err error) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: s.now().UTC(),
	}
	if domainErr := apperrors.ToDomainError(err); domainErr != nil {
		event.Code = domainErr.Code
	}
	_ = s.dispatcher.Publish(ctx, event)
}
