package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
)

type Service struct {
	users    UserRepository
	sessions SessionRepository
	issuer   *auth.TokenIssuer
	tokenTTL time.Duration
}

func NewService(users UserRepository, sessions SessionRepository, issuer *auth.TokenIssuer, tokenTTL time.Duration) *Service {
	return &Service{users: users, sessions: sessions, issuer: issuer, tokenTTL: tokenTTL}
}

var validRoles = map[string]bool{"admin": true, "user": true}

func (s *Service) Register(ctx context.Context, u *User, password string) error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if u.Role == "" {
		u.Role = "user"
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	if existing, err := s.users.GetByUsername(ctx, u.Username); err == nil && existing != nil {
		return fmt.Errorf("username %s is taken", u.Username)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.IsActive = true
	return s.users.Create(ctx, u)
}

// Login checks credentials, issues an access token and records the session.
func (s *Service) Login(ctx context.Context, username, password, clientIP, userAgent string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("incorrect username or password")
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return nil, fmt.Errorf("incorrect username or password")
	}

	token, err := s.issuer.Issue(u.ID.String(), u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	digest := sha256.Sum256([]byte(token))
	sess := &Session{
		UserID:    u.ID,
		TokenHash: hex.EncodeToString(digest[:]),
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if clientIP != "" {
		sess.IPAddress = &clientIP
	}
	if userAgent != "" {
		sess.UserAgent = &userAgent
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) ResetPassword(ctx context.Context, userID uuid.UUID, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}
	u.IsActive = active
	return s.users.Update(ctx, u)
}

// PruneSessions drops expired session rows.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx)
}
