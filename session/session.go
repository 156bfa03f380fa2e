package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog"
)

const (
	DefaultJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	DefaultIssuerPrefix = "https://securetoken.google.com/"
)

var ErrNoToken = errors.New("no bearer token in request")

// Identity is the verified caller behind an ID token.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type Config struct {
	ProjectID    string
	JWKSURL      string
	IssuerPrefix string
}

// Verifier checks ID tokens against the identity provider's published keys.
type Verifier struct {
	keys     func(ctx context.Context) (jwk.Set, error)
	audience string
	issuer   string
	logger   zerolog.Logger
}

// NewVerifier creates a verifier that keeps the provider's key set cached and
// refreshed in the background for the lifetime of ctx.
func NewVerifier(ctx context.Context, cfg Config, logger zerolog.Logger) (*Verifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("session: project id is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register key set %s: %w", cfg.JWKSURL, err)
	}

	v := newVerifier(cfg, logger)
	v.keys = func(ctx context.Context) (jwk.Set, error) {
		return cache.Get(ctx, cfg.JWKSURL)
	}
	return v, nil
}

// NewStaticVerifier verifies against a fixed key set.
func NewStaticVerifier(set jwk.Set, cfg Config, logger zerolog.Logger) *Verifier {
	v := newVerifier(cfg, logger)
	v.keys = func(context.Context) (jwk.Set, error) { return set, nil }
	return v
}

func newVerifier(cfg Config, logger zerolog.Logger) *Verifier {
	if cfg.IssuerPrefix == "" {
		cfg.IssuerPrefix = DefaultIssuerPrefix
	}
	return &Verifier{
		audience: cfg.ProjectID,
		issuer:   cfg.IssuerPrefix + cfg.ProjectID,
		logger:   logger,
	}
}

// Verify validates signature, issuer, audience and expiry of an ID token.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch signing keys: %w", err)
	}

	tok, err := jwt.Parse([]byte(token),
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if tok.Subject() == "" {
		return nil, errors.New("invalid token: empty subject")
	}

	id := &Identity{UID: tok.Subject()}
	claims := tok.PrivateClaims()
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)
	return id, nil
}

// ExtractToken reads the bearer token from the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(parts[1]), nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

// WithAuth rejects requests without a valid ID token.
func WithAuth(handler http.HandlerFunc, v *Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractToken(r)
		if err != nil {
			unauthorized(w, "Missing authentication token")
			return
		}

		id, err := v.Verify(r.Context(), token)
		if err != nil {
			v.logger.Debug().Err(err).Msg("rejected token")
			unauthorized(w, "Invalid or expired authentication token")
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = WithAuthStatus(ctx, true)
		handler(w, r.WithContext(ctx))
	}
}

// WithPossibleAuth identifies the caller when a valid token is present but
// never rejects the request. A nil verifier treats every caller as anonymous.
func WithPossibleAuth(handler http.HandlerFunc, v *Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		authenticated := false

		if token, err := ExtractToken(r); err == nil && v != nil {
			id, err := v.Verify(ctx, token)
			if err == nil {
				ctx = WithIdentity(ctx, id)
				authenticated = true
			} else {
				v.logger.Debug().Err(err).Msg("ignoring invalid token on optional route")
			}
		}

		handler(w, r.WithContext(WithAuthStatus(ctx, authenticated)))
	}
}

type contextKey int

const (
	identityKey contextKey = iota
	authStatusKey
)

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func GetIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// WithUserID marks ctx as belonging to uid.
func WithUserID(ctx context.Context, uid string) context.Context {
	return WithIdentity(ctx, &Identity{UID: uid})
}

func GetUserID(ctx context.Context) (string, bool) {
	id, ok := GetIdentity(ctx)
	if !ok || id.UID == "" {
		return "", false
	}
	return id.UID, true
}

func WithAuthStatus(ctx context.Context, isAuthed bool) context.Context {
	return context.WithValue(ctx, authStatusKey, isAuthed)
}

func IsAuthenticated(ctx context.Context) bool {
	authed, ok := ctx.Value(authStatusKey).(bool)
	return ok && authed
}
