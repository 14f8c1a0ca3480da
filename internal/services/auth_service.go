package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/metrics"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/token"
	"github.com/carebridge/portal-api/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so that a missing
// account costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portal-dummy-password"), bcrypt.DefaultCost)

// SessionMeta describes the client a session is issued to.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Identity  *identity.Identity
	Token     string
	ExpiresAt time.Time
}

type AuthDeps struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Codec    *token.Codec
	Verifier SecondFactorVerifier
	Throttle *LoginThrottle
	Metrics  metrics.Recorder
	Now      func() time.Time
}

type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	codec    *token.Codec
	verifier SecondFactorVerifier
	throttle *LoginThrottle
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewAuthService(d AuthDeps) *AuthService {
	s := &AuthService{
		users:    d.Users,
		sessions: d.Sessions,
		codec:    d.Codec,
		verifier: d.Verifier,
		throttle: d.Throttle,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if s.verifier == nil {
		s.verifier = PatternVerifier{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login checks credentials and, on success, issues a token backed by a new
// session row. Every successful login creates its own session.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, meta SessionMeta) (*LoginResult, error) {
	email, err := validateLogin(req)
	if err != nil {
		s.metrics.RecordLogin("validation_error")
		return nil, err
	}

	if s.throttle != nil && s.throttle.Blocked(email) {
		s.metrics.RecordLogin("throttled")
		slog.Warn("login throttled", "action", "auth.login.throttled", "email", email)
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			s.recordFailure(email)
			s.metrics.RecordLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.recordFailure(email)
		s.metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	// Checked after the password so the distinct message only reaches callers
	// who already hold valid credentials.
	if !user.IsActive {
		s.metrics.RecordLogin("deactivated")
		slog.Warn("login attempt on deactivated account", "action", "auth.login.deactivated", "user_id", user.ID.String())
		return nil, ErrAccountDeactivated
	}

	if user.TwoFactorEnabled {
		if strings.TrimSpace(req.TwoFAToken) == "" {
			s.metrics.RecordLogin("second_factor_required")
			return nil, ErrSecondFactorRequired
		}
		if err := s.verifier.Verify(ctx, user, req.TwoFAToken); err != nil {
			s.recordFailure(email)
			s.metrics.RecordLogin("second_factor_invalid")
			return nil, ErrSecondFactorInvalid
		}
	}

	raw, err := s.codec.Issue(token.PayloadFor(user))
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().UTC().Add(s.codec.TTL())
	session := &models.Session{
		UserID:    user.ID,
		TokenHash: HashToken(raw),
		ExpiresAt: expiresAt,
		UserAgent: truncate(meta.UserAgent, 255),
		IPAddress: truncate(meta.IPAddress, 64),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.RecordLogin("success")
	s.metrics.RecordSessionCreated()
	slog.Info("user logged in", "action", "auth.login", "user_id", user.ID.String(), "role", string(user.Role))

	return &LoginResult{
		Identity:  identity.FromUser(user),
		Token:     raw,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout deletes every session row for the bearer token in authHeader. It
// succeeds whether or not a row existed.
func (s *AuthService) Logout(ctx context.Context, authHeader string) error {
	raw, ok := BearerToken(authHeader)
	if !ok {
		return ErrNoToken
	}

	deleted, err := s.sessions.DeleteByTokenHash(ctx, HashToken(raw))
	if err != nil {
		return err
	}
	slog.Info("user logged out", "action", "auth.logout", "sessions_deleted", deleted)
	return nil
}

// Authenticate runs the full gate on an Authorization header value.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) (*identity.Identity, error) {
	raw, ok := BearerToken(authHeader)
	if !ok {
		s.metrics.RecordAuthRejection("no_token")
		return nil, ErrNoToken
	}
	return s.ResolveToken(ctx, raw)
}

// ResolveToken verifies raw, requires a live session row for it and loads the
// active user it names. The result says nothing about state after it returns.
func (s *AuthService) ResolveToken(ctx context.Context, raw string) (*identity.Identity, error) {
	claims, err := s.codec.Verify(raw)
	if err != nil {
		s.metrics.RecordAuthRejection("invalid_token")
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		s.metrics.RecordAuthRejection("invalid_token")
		return nil, ErrInvalidToken
	}

	session, err := s.sessions.FindByTokenHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthRejection("session_expired")
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if !session.Live(s.now()) {
		s.metrics.RecordAuthRejection("session_expired")
		return nil, ErrSessionExpired
	}
	if session.UserID != userID {
		s.metrics.RecordAuthRejection("invalid_token")
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordAuthRejection("user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		s.metrics.RecordAuthRejection("user_inactive")
		return nil, ErrUserNotFound
	}

	return identity.FromUser(user), nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(header[len(prefix):])
	return raw, raw != ""
}

// HashToken is the key under which a token's session row is stored.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h)
}

func (s *AuthService) recordFailure(email string) {
	if s.throttle != nil {
		s.throttle.RecordFailure(email)
	}
}

func validateLogin(req *dto.LoginRequest) (string, error) {
	var errs validate.Errors
	email, ok := validate.Email(req.Email)
	if !ok {
		errs.Add("email must be a valid email address")
	}
	if req.Password == "" {
		errs.Add("password is required")
	}
	if !errs.Empty() {
		return "", &ValidationError{Messages: errs}
	}
	return email, nil
}

// truncate returns valid UTF-8 of at most n bytes, cut on a rune boundary.
// Header values are client-controlled and Postgres rejects invalid UTF-8.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
