package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"mystrymsg/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims: содержимое сессионного JWT.
type Claims struct {
	AccountID           string `json:"account_id"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	IsVerified          bool   `json:"is_verified"`
	IsAcceptingMessages bool   `json:"is_accepting_messages"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *models.Principal {
	return &models.Principal{
		ID:                  c.AccountID,
		Username:            c.Username,
		Email:               c.Email,
		IsVerified:          c.IsVerified,
		IsAcceptingMessages: c.IsAcceptingMessages,
	}
}

type AuthService interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	IssueToken(a *models.Account) (string, time.Time, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	secret []byte
	ttl    time.Duration
	cost   int
}

func NewAuthService(secret string, ttl time.Duration) AuthService {
	return &authService{secret: []byte(secret), ttl: ttl, cost: bcrypt.DefaultCost}
}

func (s *authService) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) IssueToken(a *models.Account) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	claims := &Claims{
		AccountID:           a.ID,
		Username:            a.Username,
		Email:               a.Email,
		IsVerified:          a.IsVerified,
		IsAcceptingMessages: a.IsAcceptingMessages,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (s *authService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
