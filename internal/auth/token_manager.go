package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lermo/backend/internal/models"
)

// ErrInvalidToken indicates the presented access token failed verification.
var ErrInvalidToken = errors.New("invalid access token")

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

type accessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed access tokens carrying the
// caller's identity.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewTokenManager constructs a TokenManager. The secret must not be empty.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs an access token for the user. It returns the token and its
// expiry time.
func (m *TokenManager) Issue(user models.User) (string, time.Time, error) {
	now := m.nowFunc()
	expiresAt := now.Add(m.ttl)

	claims := accessClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return token, expiresAt, nil
}

// Verify validates a token and resolves it to the caller's identity. Any
// parse, signature or expiry failure reports ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.nowFunc))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}
