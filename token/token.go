package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which signing key a token is issued and verified under.
// Access and refresh tokens use separate secrets, so a token minted for one
// purpose never verifies as the other.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Verification failures, distinguished for logging only. Callers must treat
// every one of them as an authorization failure.
var (
	ErrMalformed = errors.New("malformed token")
	ErrExpired   = errors.New("token expired")
	ErrWrongKind = errors.New("token not valid for this purpose")
)

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.accessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *Manager) IssueAccess(userID string) (string, error) {
	return m.issue(userID, m.accessSecret, m.accessTTL)
}

func (m *Manager) IssueRefresh(userID string) (string, error) {
	return m.issue(userID, m.refreshSecret, m.refreshTTL)
}

func (m *Manager) issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens issued within the same second distinct,
			// which rotation relies on
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks signature and expiry under the kind's secret and returns the
// bound user id.
func (m *Manager) Verify(tokenStr string, kind Kind) (string, error) {
	secret := m.accessSecret
	if kind == Refresh {
		secret = m.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	switch {
	case err == nil && token.Valid && claims.UserID != "":
		return claims.UserID, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrWrongKind
	default:
		return "", ErrMalformed
	}
}
