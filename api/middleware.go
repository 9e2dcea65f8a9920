package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/medassist/medassist-api/databases"
	"github.com/medassist/medassist-api/models"
)

// tokenCacheTTL bounds how long a verified credential is served from the
// cache before the JWT is checked again.
const tokenCacheTTL = 5 * time.Minute

// MiddlewareDB is a struct that holds the database and token settings
type MiddlewareDB struct {
	DB       databases.UserDatabase
	Secret   []byte
	TokenTTL time.Duration
}

// tokenClaims are the claims carried by access tokens
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenResponse is returned by CreateToken
type TokenResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"_id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var authenticator auth.Authenticator
var cache store.Cache
var revoked store.Cache

// Middleware authenticates the request with basic or bearer credentials and
// stores the caller's user id in the request context. Handlers must read the
// user id from the context, never from the request body or query.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if authenticator == nil {
			zap.S().Errorw("authenticator not initialised", "url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		user, err := authenticator.Authenticate(r)
		if err != nil || user.ID() == "" {
			zap.S().Infow("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userId", user.ID())
		ctx := WithUser(r.Context(), user.ID(), user.UserName())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetupGoGuardian sets up the go-guardian middleware
func (m MiddlewareDB) SetupGoGuardian() {
	ttl := m.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	authenticator = auth.New()
	cache = store.NewFIFO(context.Background(), tokenCacheTTL)
	revoked = store.NewFIFO(context.Background(), ttl)
	basicStrategy := basic.New(m.ValidateUser, cache)
	tokenStrategy := bearer.New(m.VerifyToken, cache)

	authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// ValidateUser checks an email and password pair against the users
// collection
func (m MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	dbCtx, cancel := WithQueryTimeout(ctx)
	defer cancel()

	user, err := m.DB.FindByEmail(dbCtx, email)
	if err != nil {
		// compare against a fixed hash so a missing account costs the same
		// as a wrong password
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, fmt.Errorf("invalid credentials")
	}

	usernameHash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	expectedUsernameHash := sha256.Sum256([]byte(user.Email))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	if !usernameMatch {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(user.Email, user.ID.Hex(), nil, nil), nil
}

// VerifyToken validates an HS256 access token issued by CreateToken
func (m MiddlewareDB) VerifyToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	claims, err := m.parseToken(token)
	if err != nil {
		return nil, err
	}
	if revoked != nil {
		if _, ok, _ := revoked.Load(claims.ID, r); ok {
			return nil, errors.New("token revoked")
		}
	}
	return auth.NewDefaultUser(claims.Email, claims.Subject, nil, nil), nil
}

func (m MiddlewareDB) parseToken(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("invalid token: missing subject")
	}
	return claims, nil
}

// IssueToken signs a new access token for the user
func (m MiddlewareDB) IssueToken(userID, email string, now time.Time) (string, time.Time, error) {
	ttl := m.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// CreateToken returns a bearer token for a caller already authenticated by
// Middleware, normally with basic credentials
func (m MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userID, email, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := m.IssueToken(userID, email, time.Now())
	if err != nil {
		zap.S().Errorw("failed to sign token", "userId", userID, "error", err)
		http.Error(w, `{"error": "failed to create token"}`, http.StatusInternalServerError)
		return
	}

	authUser := auth.NewDefaultUser(email, userID, nil, nil)
	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Append(tokenStrategy, token, authUser, r); err != nil {
		zap.S().Warnw("failed to cache token", "userId", userID, "error", err)
	}

	responseBody, err := json.Marshal(TokenResponse{Token: token, UserID: userID, ExpiresAt: expiresAt})
	if err != nil {
		http.Error(w, `{"error": "failed to marshal response"}`, http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// RevokeToken revokes the bearer token on the request. The token stays
// rejected until it would have expired anyway.
func (m MiddlewareDB) RevokeToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	reqToken, ok := bearerToken(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bearer token required"}`))
		return
	}

	claims, err := m.parseToken(reqToken)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}
	if err := revoked.Store(claims.ID, true, r); err != nil {
		zap.S().Errorw("failed to record revoked token", "error", err)
	}

	tokenStrategy := authenticator.Strategy(bearer.CachedStrategyKey)
	if err := auth.Revoke(tokenStrategy, reqToken, r); err != nil {
		zap.S().Warnw("failed to evict token from cache", "error", err)
	}
	json.NewEncoder(w).Encode(models.MessageResponse{Message: "token revoked"})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("medassist-dummy-password"), bcrypt.DefaultCost)
