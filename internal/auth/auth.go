// Package auth issues and checks the admin session tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AdminSubject is the subject claim carried by admin tokens
	AdminSubject = "admin"
	TokenExpiry  = 12 * time.Hour

	contextKey = "admin_subject"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Token is returned to the admin client after a successful login
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service authenticates the single admin account
type Service struct {
	password []byte
	secret   []byte
	now      func() time.Time
}

// NewService creates an auth service. An empty password disables login.
func NewService(password, secret string) *Service {
	return &Service{
		password: []byte(password),
		secret:   []byte(secret),
		now:      time.Now,
	}
}

// Login checks password and issues a signed HS256 token
func (s *Service) Login(password string) (Token, error) {
	if len(s.password) == 0 || subtle.ConstantTimeCompare([]byte(password), s.password) != 1 {
		return Token{}, ErrInvalidCredentials
	}

	now := s.now()
	expires := now.Add(TokenExpiry)
	claims := jwt.RegisteredClaims{
		Subject:   AdminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expires}, nil
}

// Validate parses tokenString and returns its subject
func (s *Service) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithSubject(AdminSubject))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer" token.
// The rejection is recorded with c.Error for the error middleware to render.
func (s *Service) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			_ = c.Error(ErrInvalidToken)
			c.Abort()
			return
		}

		subject, err := s.Validate(strings.TrimSpace(tokenString))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(contextKey, subject)
		c.Next()
	}
}
