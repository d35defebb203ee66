package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/markbates/goth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/cv-builder-api/app/observability/metrics"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

const bcryptCost = 10

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService orchestrates registration, local and federated login, and
// session identity lookup.
type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, string, error)
	Login(ctx context.Context, emailOrUsername, password string) (*types.User, string, error)
	GoogleLogin(ctx context.Context, token string) (*types.User, string, error)
	GetOrCreateUserFromProvider(ctx context.Context, provider string, providerUser goth.User) (*types.User, error)
	GetUser(ctx context.Context, authorizationHeader string) (*types.UserProfile, error)
}

type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	tokens   TokenIssuer
	verifier IdentityVerifier
	metrics  *metrics.AppMetrics
}

func NewAuthService(repo AuthRepo, tokens TokenIssuer, verifier IdentityVerifier, appMetrics *metrics.AppMetrics, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		tokens:   tokens,
		verifier: verifier,
		metrics:  appMetrics,
	}
}

func endSpan(span trace.Span, err error, okMsg string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, okMsg)
}

// Register creates a local account and mints a session token for it.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (user *types.User, token string, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	start := time.Now()
	defer func() {
		s.metrics.RecordAuth(ctx, "register", start, err)
		endSpan(span, err, "User registered")
	}()

	l := s.logger.With(slog.String("method", "Register"))

	username := strings.TrimSpace(req.Username)
	email := types.NormalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, "", fmt.Errorf("%w: Username, email, and password are required.", types.ErrValidation)
	}
	span.SetAttributes(attribute.String("user.email", email))

	_, err = s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		l.WarnContext(ctx, "Registration attempted with existing email", slog.String("email", email))
		return nil, "", fmt.Errorf("%w: User already exists with this email.", types.ErrConflict)
	case !errors.Is(err, types.ErrNotFound):
		return nil, "", fmt.Errorf("error checking existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	user, err = s.repo.CreateUser(ctx, &types.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Contact:  strings.TrimSpace(req.Contact),
		Provider: types.ProviderLocal,
	})
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return nil, "", fmt.Errorf("%w: User already exists with this email.", types.ErrConflict)
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err = s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID))
	return user, token, nil
}

// Login authenticates a local account by email, falling back to username.
// Every credential failure yields the same "Invalid credentials" error.
func (s *AuthServiceImpl) Login(ctx context.Context, emailOrUsername, password string) (user *types.User, token string, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	start := time.Now()
	defer func() {
		s.metrics.RecordAuth(ctx, "login", start, err)
		endSpan(span, err, "Login successful")
	}()

	l := s.logger.With(slog.String("method", "Login"))

	identifier := strings.TrimSpace(emailOrUsername)
	if identifier == "" || password == "" {
		return nil, "", fmt.Errorf("%w: Email/Username and password are required.", types.ErrValidation)
	}

	user, err = s.lookupByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.InfoContext(ctx, "Login failed: no such user")
			return nil, "", errInvalidCredentials
		}
		return nil, "", err
	}

	if user.Provider != types.ProviderLocal || user.Password == "" {
		l.InfoContext(ctx, "Login failed: account is not local", slog.String("userID", user.ID), slog.String("provider", string(user.Provider)))
		return nil, "", errInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.InfoContext(ctx, "Login failed: password mismatch", slog.String("userID", user.ID))
		return nil, "", errInvalidCredentials
	}

	token, err = s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	return user, token, nil
}

var errInvalidCredentials = fmt.Errorf("%w: Invalid credentials", types.ErrUnauthenticated)

func (s *AuthServiceImpl) lookupByEmailOrUsername(ctx context.Context, identifier string) (*types.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, types.NormalizeEmail(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("error fetching user by email: %w", err)
	}

	user, err = s.repo.GetUserByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching user by username: %w", err)
	}
	return user, nil
}

// GoogleLogin verifies a Google ID token and signs in the matching user,
// linking or creating the account as needed.
func (s *AuthServiceImpl) GoogleLogin(ctx context.Context, token string) (user *types.User, sessionToken string, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GoogleLogin")
	defer span.End()
	start := time.Now()
	defer func() {
		s.metrics.RecordAuth(ctx, "google", start, err)
		endSpan(span, err, "Google login successful")
	}()

	if strings.TrimSpace(token) == "" {
		return nil, "", fmt.Errorf("%w: Google token is required.", types.ErrValidation)
	}

	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, "", err
	}

	user, err = s.GetOrCreateUserFromProvider(ctx, string(types.ProviderGoogle), identity)
	if err != nil {
		return nil, "", err
	}

	sessionToken, err = s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}
	return user, sessionToken, nil
}

// GetOrCreateUserFromProvider resolves a federated identity to a user: by
// subject id first, then by email (linking the account), else a new user.
func (s *AuthServiceImpl) GetOrCreateUserFromProvider(ctx context.Context, provider string, providerUser goth.User) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetOrCreateUserFromProvider", trace.WithAttributes(
		attribute.String("provider", provider),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetOrCreateUserFromProvider"), slog.String("provider", provider))

	if types.Provider(provider) != types.ProviderGoogle {
		return nil, fmt.Errorf("%w: Unsupported identity provider.", types.ErrValidation)
	}

	subject := strings.TrimSpace(providerUser.UserID)
	email := types.NormalizeEmail(providerUser.Email)
	if subject == "" || email == "" {
		return nil, fmt.Errorf("%w: Invalid Google token.", types.ErrValidation)
	}

	user, err := s.repo.GetUserByGoogleID(ctx, subject)
	if err == nil {
		l.DebugContext(ctx, "Federated identity already known", slog.String("userID", user.ID))
		return user, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("error fetching user by google id: %w", err)
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user, err = s.repo.LinkGoogleAccount(ctx, existing.ID, subject)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error linking google account: %w", err)
		}
		l.InfoContext(ctx, "Linked Google identity to existing account", slog.String("userID", user.ID))
		return user, nil
	case !errors.Is(err, types.ErrNotFound):
		span.RecordError(err)
		return nil, fmt.Errorf("error fetching user by email: %w", err)
	}

	user, err = s.repo.CreateUser(ctx, &types.User{
		Username: defaultUsername(providerUser.Name, email),
		Email:    email,
		Provider: types.ProviderGoogle,
		Social:   types.Social{GoogleID: subject},
	})
	if errors.Is(err, types.ErrConflict) {
		// A concurrent login created the same identity first.
		if user, err = s.repo.GetUserByGoogleID(ctx, subject); err == nil {
			return user, nil
		}
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error creating federated user: %w", err)
	}

	l.InfoContext(ctx, "Created user from federated identity", slog.String("userID", user.ID))
	return user, nil
}

func defaultUsername(displayName, email string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// GetUser resolves the bearer token in authorizationHeader to the full user profile.
func (s *AuthServiceImpl) GetUser(ctx context.Context, authorizationHeader string) (profile *types.UserProfile, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "GetUser")
	defer span.End()
	start := time.Now()
	defer func() {
		s.metrics.RecordAuth(ctx, "get_user", start, err)
		endSpan(span, err, "User fetched")
	}()

	tokenString, err := ParseBearerToken(authorizationHeader)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("%w: User not found", types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user.Profile(), nil
}
