package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/duda4418/dishwise-backend/internal/logger"
	"github.com/duda4418/dishwise-backend/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService guards the admin surface (catalogue writes, import, metrics).
// There is a single operator identity configured through the environment;
// ADMIN_PASSWORD_HASH holds a bcrypt hash.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(tokenString string) (*AdminClaims, error)
}

type authService struct {
	adminEmail   string
	passwordHash string
	jwtSecretKey string
	accessTTL    time.Duration
	log          *logger.Logger
}

func NewAuthService(baseLog *logger.Logger) (AuthService, error) {
	log := baseLog.With("service", "AuthService")

	secret := utils.GetEnv("JWT_SECRET_KEY", "", log)
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	adminEmail := utils.GetEnv("ADMIN_EMAIL", "", log)
	passwordHash := utils.GetEnv("ADMIN_PASSWORD_HASH", "", log)
	if adminEmail == "" || passwordHash == "" {
		return nil, fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD_HASH")
	}
	ttlMinutes := utils.GetEnvAsInt("JWT_ACCESS_TTL_MINUTES", 60, log)

	return &authService{
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		passwordHash: passwordHash,
		jwtSecretKey: secret,
		accessTTL:    time.Duration(ttlMinutes) * time.Minute,
		log:          log,
	}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if strings.ToLower(strings.TrimSpace(email)) != s.adminEmail {
		s.log.Warn("login attempt with unknown email", "email", email)
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		s.log.Warn("login attempt with wrong password", "email", email)
		return "", ErrInvalidCredentials
	}

	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.adminEmail,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}

func (s *authService) ValidateToken(tokenString string) (*AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}
