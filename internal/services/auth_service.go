package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/observability/metrics"
	"farm_ops_backend/internal/repositories"
	"farm_ops_backend/internal/tokenstore"
	"farm_ops_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost is the bcrypt work factor for stored passwords.
var passwordHashCost = 12

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse DTO
type LoginResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Authenticator turns a bearer credential into an Identity.
type Authenticator interface {
	ResolveIdentity(ctx context.Context, token string) (*models.Identity, error)
}

// --- AuthService Interface ---
type AuthService interface {
	Authenticator
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

// --- authService Implementation ---
type authService struct {
	userRepo    repositories.UserRepository
	db          repositories.SQLExecutor
	tokens      *utils.TokenManager
	revoked     tokenstore.Store
	allowLegacy bool
	now         func() time.Time
}

// NewAuthService creates a new instance of AuthService. When allowLegacyIDToken is set,
// a bare positive integer is accepted as a user id credential.
func NewAuthService(userRepo repositories.UserRepository, db repositories.SQLExecutor, tokens *utils.TokenManager, revoked tokenstore.Store, allowLegacyIDToken bool) AuthService {
	return &authService{
		userRepo:    userRepo,
		db:          db,
		tokens:      tokens,
		revoked:     revoked,
		allowLegacy: allowLegacyIDToken,
		now:         time.Now,
	}
}

// Login verifies credentials, records the login time and issues a session token.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, hashedPassword, err := s.userRepo.FindUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.ObserveAuthFailure(metrics.ReasonBadCredentials)
			return nil, newError(KindUnauthorized, "Invalid credentials", ErrInvalidCredentials)
		}
		return nil, internalError("AuthService.Login: finding user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		metrics.ObserveAuthFailure(metrics.ReasonBadCredentials)
		return nil, newError(KindUnauthorized, "Invalid credentials", ErrInvalidCredentials)
	}

	if user.Status != models.StatusActive {
		metrics.ObserveAuthFailure(metrics.ReasonInactive)
		return nil, newError(KindForbidden, "Account is inactive", ErrAccountInactive)
	}

	loginAt := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, s.db, user.ID, loginAt); err != nil {
		return nil, internalError("AuthService.Login: recording last login", err)
	}
	user.LastLogin = &loginAt

	token, claims, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, internalError("AuthService.Login: issuing token", err)
	}

	utils.LogInfo("User logged in", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return &LoginResponse{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the token until it would have expired anyway. Legacy id tokens cannot be revoked.
func (s *authService) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if s.legacyUserID(token) > 0 {
		return nil
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return newError(KindUnauthorized, "Authentication required", ErrUnauthenticated)
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return internalError("AuthService.Logout: revoking token", err)
	}
	utils.LogInfo("User logged out", map[string]interface{}{"user_id": claims.UserID})
	return nil
}

func (s *authService) legacyUserID(token string) int64 {
	if !s.allowLegacy {
		return 0
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// ResolveIdentity authenticates on every call; nothing is cached between requests.
func (s *authService) ResolveIdentity(ctx context.Context, token string) (*models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, s.unauthenticated("Authentication required")
	}

	userID := s.legacyUserID(token)
	if userID == 0 {
		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			return nil, s.unauthenticated("Authentication required")
		}
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, internalError("AuthService.ResolveIdentity: checking revocation", err)
		}
		if revoked {
			return nil, s.unauthenticated("Token has been revoked")
		}
		userID = claims.UserID
	}

	identity, err := s.userRepo.FindIdentityByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.unauthenticated("User not found")
		}
		return nil, internalError("AuthService.ResolveIdentity: loading user", err)
	}

	if identity.Status != models.StatusActive {
		metrics.ObserveAuthFailure(metrics.ReasonInactive)
		return nil, newError(KindForbidden, "Account is inactive", ErrAccountInactive)
	}
	return identity, nil
}

func (s *authService) unauthenticated(message string) error {
	metrics.ObserveAuthFailure(metrics.ReasonUnauthenticated)
	return newError(KindUnauthorized, message, ErrUnauthenticated)
}
