package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/matst80/flow-finder/pkg/config"
	"github.com/matst80/flow-finder/pkg/storage"
	"github.com/matst80/flow-finder/pkg/types"
)

const apiKeyHeader = "X-Api-Key"

var ErrUnauthorized = errors.New("unauthorized")

type ProfileStore interface {
	GetProfile(ctx context.Context, userId string) (types.Profile, error)
}

type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves the admin profile of a request from a bearer
// token, the auth cookie or the api key header. Tokens only carry the
// subject, the role always comes from the stored profile.
type Authenticator struct {
	secret     []byte
	issuer     string
	cookieName string
	apiKey     string
	profiles   ProfileStore
}

func NewAuthenticator(cfg config.AuthConfig, profiles ProfileStore) *Authenticator {
	return &Authenticator{
		secret:     []byte(cfg.JwtSecret),
		issuer:     cfg.Issuer,
		cookieName: cfg.CookieName,
		apiKey:     cfg.ApiKey,
		profiles:   profiles,
	}
}

// CreateToken signs a token for userId valid for ttl.
func (a *Authenticator) CreateToken(userId, name string, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("%w: no signing secret configured", ErrUnauthorized)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(a.secret)
}

func (a *Authenticator) ParseJwt(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, ErrUnauthorized
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return nil, fmt.Errorf("%w: wrong issuer", ErrUnauthorized)
	}
	return claims, nil
}

func (a *Authenticator) tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if a.cookieName != "" {
		if cookie, err := r.Cookie(a.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// Authenticate returns the profile acting on the request.
func (a *Authenticator) Authenticate(r *http.Request) (types.Profile, error) {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		if a.apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1 {
			return types.Profile{UserId: "api", DisplayName: "api key", Role: types.RoleApi}, nil
		}
		return types.Profile{}, fmt.Errorf("%w: bad api key", ErrUnauthorized)
	}
	tokenString := a.tokenFromRequest(r)
	if tokenString == "" {
		return types.Profile{}, ErrUnauthorized
	}
	claims, err := a.ParseJwt(tokenString)
	if err != nil {
		return types.Profile{}, err
	}
	profile, err := a.profiles.GetProfile(r.Context(), claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Profile{}, fmt.Errorf("%w: no profile for %s", ErrUnauthorized, claims.Subject)
	}
	return profile, err
}

type contextValue string

var contextProfile = contextValue("profile")

func ProfileFromContext(ctx context.Context) (types.Profile, bool) {
	p, ok := ctx.Value(contextProfile).(types.Profile)
	return p, ok
}

// requireRole only lets profiles with one of roles through.
func (ws *WebServer) requireRole(next http.HandlerFunc, roles ...types.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := ws.auth.Authenticate(r)
		if errors.Is(err, ErrUnauthorized) {
			ws.writeStatus(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			ws.writeError(w, r, err)
			return
		}
		if len(roles) > 0 && !profile.Role.Allows(roles...) {
			ws.writeStatus(w, r, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextProfile, profile)))
	}
}
