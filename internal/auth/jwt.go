package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/pkg/middleware"
)

// issuer is stamped on tokens minted by JWTManager.
const issuer = "storefront"

// ErrNoSubject is returned when a token names no user.
var ErrNoSubject = errors.New("token has no subject")

// Claims represents the JWT claims for an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// subject is the user the claims describe: user_id, falling back to sub.
func (c *Claims) subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// JWTManager issues and verifies HS256 access tokens.
type JWTManager struct {
	secret       []byte
	accessExpiry time.Duration
}

// NewJWTManager creates a new JWT manager with the given secret and expiry.
func NewJWTManager(secret string, accessExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
	}
}

// GenerateAccessToken creates a signed JWT access token for userID.
func (m *JWTManager) GenerateAccessToken(userID, email string) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signedToken, nil
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid access token claims")
	}
	if claims.subject() == "" {
		return nil, ErrNoSubject
	}

	return claims, nil
}

// TokenValidator adapts the manager to the HTTP identity middleware.
func (m *JWTManager) TokenValidator() middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.subject(), Email: claims.Email}, nil
	}
}

// TokenIdentity reports the user named by a bearer token the client holds.
// The signature is not checked here; the server verifies it on every call.
type TokenIdentity struct {
	token func() string
}

// NewTokenIdentity returns an identity provider reading the current token
// from token on every call, so a re-login is picked up without rebuilding it.
func NewTokenIdentity(token func() string) *TokenIdentity {
	return &TokenIdentity{token: token}
}

// CurrentUser returns the token's subject, or "" when no token is held.
func (t *TokenIdentity) CurrentUser(context.Context) (string, error) {
	raw := t.token()
	if raw == "" {
		return "", nil
	}
	return SubjectFromToken(raw)
}

// SubjectFromToken extracts the user id from a JWT without verifying it.
func SubjectFromToken(raw string) (string, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.subject() == "" {
		return "", ErrNoSubject
	}
	return claims.subject(), nil
}
