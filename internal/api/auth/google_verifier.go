package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/markbates/goth"
	"github.com/patrickmn/go-cache"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

const (
	googleProvider = "google"
	// maxIdentityCacheTTL caps how long a verified token is reused.
	maxIdentityCacheTTL = 10 * time.Minute
)

// IdentityVerifier validates a third-party identity token and returns the
// identity it asserts.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (goth.User, error)
}

// idTokenValidator is satisfied by *idtoken.Validator.
type idTokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks Google ID tokens against the configured OAuth client id.
type GoogleVerifier struct {
	validator idTokenValidator
	clientID  string
	cache     *cache.Cache
	logger    *slog.Logger
	now       func() time.Time
}

var _ IdentityVerifier = (*GoogleVerifier)(nil)

// NewGoogleVerifier builds a verifier whose certificate fetches use httpClient.
func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client, logger *slog.Logger) (*GoogleVerifier, error) {
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed creating google token validator: %w", err)
	}
	return newGoogleVerifier(v, clientID, logger), nil
}

func newGoogleVerifier(v idTokenValidator, clientID string, logger *slog.Logger) *GoogleVerifier {
	return &GoogleVerifier{
		validator: v,
		clientID:  clientID,
		cache:     cache.New(maxIdentityCacheTTL, 2*maxIdentityCacheTTL),
		logger:    logger,
		now:       time.Now,
	}
}

// Verify validates token and maps its claims onto a goth.User. Invalid tokens
// are reported as types.ErrValidation.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (goth.User, error) {
	if cached, found := g.cache.Get(token); found {
		return cached.(goth.User), nil
	}

	// An empty audience would make Validate accept tokens minted for any client.
	if g.clientID == "" {
		g.logger.WarnContext(ctx, "Google token rejected: client id not configured")
		return goth.User{}, fmt.Errorf("%w: Invalid Google token.", types.ErrValidation)
	}

	payload, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		g.logger.WarnContext(ctx, "Google token rejected", slog.Any("error", err))
		return goth.User{}, fmt.Errorf("%w: Invalid Google token.", types.ErrValidation)
	}

	user := goth.User{
		Provider:  googleProvider,
		UserID:    payload.Subject,
		Email:     claimString(payload.Claims, "email"),
		Name:      claimString(payload.Claims, "name"),
		FirstName: claimString(payload.Claims, "given_name"),
		LastName:  claimString(payload.Claims, "family_name"),
		AvatarURL: claimString(payload.Claims, "picture"),
		IDToken:   token,
		ExpiresAt: time.Unix(payload.Expires, 0),
		RawData:   payload.Claims,
	}

	if ttl := user.ExpiresAt.Sub(g.now()); ttl > 0 {
		g.cache.Set(token, user, min(ttl, maxIdentityCacheTTL))
	}
	return user, nil
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
