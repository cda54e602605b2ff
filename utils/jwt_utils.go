package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL   = 15 * time.Minute

	purposeSession = "session"
	purposeReset   = "password_reset"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

type Claims struct {
	ID      string `json:"id,omitempty"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens with a shared secret.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// GenerateSessionToken issues a 7-day token carrying the user id.
func (m *TokenManager) GenerateSessionToken(userID string) (string, error) {
	return m.sign(&Claims{ID: userID, Purpose: purposeSession}, SessionTokenTTL)
}

// GenerateResetToken issues a 15-minute password reset token carrying the e-mail.
func (m *TokenManager) GenerateResetToken(email string) (string, error) {
	return m.sign(&Claims{Email: email, Purpose: purposeReset}, ResetTokenTTL)
}

// ValidateSessionToken returns the user id of a valid session token.
func (m *TokenManager) ValidateSessionToken(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeSession || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// ValidateResetToken returns the e-mail of a valid password reset token.
func (m *TokenManager) ValidateResetToken(tokenStr string) (string, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeReset || claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (m *TokenManager) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
