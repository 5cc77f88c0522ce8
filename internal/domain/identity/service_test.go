package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/privnurse/api/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

func (m *mockUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	if u, ok := m.users[id]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

type mockSessionRepo struct {
	sessions []*Session
}

func (m *mockSessionRepo) Create(_ context.Context, s *Session) error {
	s.ID = uuid.New()
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	var kept []*Session
	var dropped int64
	for _, s := range m.sessions {
		if s.ExpiresAt.Before(time.Now()) {
			dropped++
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
	return dropped, nil
}

func newTestService() (*Service, *mockUserRepo, *mockSessionRepo) {
	users := newMockUserRepo()
	sessions := &mockSessionRepo{}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(users, sessions, issuer, time.Hour), users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, sessions := newTestService()
	u := &User{Username: "nurse1"}
	if err := svc.Register(context.Background(), u, "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != "user" {
		t.Errorf("role = %q, want user default", u.Role)
	}

	result, err := svc.Login(context.Background(), "nurse1", "correct-horse", "10.0.0.5", "test-agent")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.AccessToken == "" || result.TokenType != "bearer" {
		t.Errorf("unexpected login result: %+v", result)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions.sessions))
	}
	if sessions.sessions[0].TokenHash == result.AccessToken {
		t.Error("session stores the raw token instead of a hash")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Register(context.Background(), &User{Username: "nurse2"}, "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(context.Background(), "nurse2", "wrong-horse", "", ""); err == nil {
		t.Error("expected error for wrong password")
	}
	if _, err := svc.Login(context.Background(), "nobody", "x", "", ""); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestLoginInactiveUser(t *testing.T) {
	svc, users, _ := newTestService()
	u := &User{Username: "nurse3"}
	if err := svc.Register(context.Background(), u, "correct-horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u.IsActive = false
	users.users[u.ID] = u
	if _, err := svc.Login(context.Background(), "nurse3", "correct-horse", "", ""); err == nil {
		t.Error("expected error for inactive account")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Register(context.Background(), &User{Username: "a"}, "short"); err == nil {
		t.Error("expected error for short password")
	}
	if err := svc.Register(context.Background(), &User{Username: "b", Role: "superadmin"}, "long-enough"); err == nil {
		t.Error("expected error for invalid role")
	}
	if err := svc.Register(context.Background(), &User{Username: "dup"}, "long-enough"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Register(context.Background(), &User{Username: "dup"}, "long-enough"); err == nil {
		t.Error("expected error for taken username")
	}
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestService()
	u := &User{Username: "nurse4"}
	if err := svc.Register(context.Background(), u, "original-pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), u.ID, "replacement-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), "nurse4", "original-pass", "", ""); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := svc.Login(context.Background(), "nurse4", "replacement-pass", "", ""); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestPruneSessions(t *testing.T) {
	svc, _, sessions := newTestService()
	sessions.sessions = append(sessions.sessions,
		&Session{ExpiresAt: time.Now().Add(-time.Hour)},
		&Session{ExpiresAt: time.Now().Add(time.Hour)},
	)
	dropped, err := svc.PruneSessions(context.Background())
	if err != nil {
		t.Fatalf("PruneSessions: %v", err)
	}
	if dropped != 1 || len(sessions.sessions) != 1 {
		t.Errorf("dropped = %d, remaining = %d", dropped, len(sessions.sessions))
	}
}
