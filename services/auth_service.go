package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Имена claims в JWT.
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
)

const defaultTokenTTL = 24 * time.Hour

type AuthService interface {
	// Login returns the operator and a signed token. Unknown email and wrong
	// password both yield ErrInvalidCredentials.
	Login(ctx context.Context, credentials models.Credentials) (*models.User, string, error)
	// ParseToken validates a token issued by Login and returns its claims.
	ParseToken(tokenString string) (*TokenClaims, error)
}

type TokenClaims struct {
	UserID int64
	Role   models.UserRole
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       Clock
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, clock Clock) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       clock.orSystem(),
	}
}

func (s *authService) Login(ctx context.Context, credentials models.Credentials) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(credentials.Email))
	if email == "" || credentials.Password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credentials.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	now := s.now()
	claims := jwt.MapClaims{
		ClaimUserID: user.ID,
		ClaimRole:   string(user.Role),
		"iat":       now.Unix(),
		"exp":       now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrAuthenticationFailed
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrAuthenticationFailed
	}

	rawID, ok := claims[ClaimUserID].(float64)
	if !ok || rawID <= 0 || rawID != float64(int64(rawID)) {
		return nil, ErrAuthenticationFailed
	}
	roleStr, ok := claims[ClaimRole].(string)
	if !ok || !models.UserRole(roleStr).Valid() {
		return nil, ErrAuthenticationFailed
	}
	return &TokenClaims{UserID: int64(rawID), Role: models.UserRole(roleStr)}, nil
}
