package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"farm_ops_backend/internal/models"
	"farm_ops_backend/internal/repositories/repotest"
	"farm_ops_backend/internal/tokenstore"
	"farm_ops_backend/pkg/utils"
)

func newTestAuth(store *repotest.Store, allowLegacy bool) (*authService, *utils.TokenManager) {
	tokens := utils.NewTokenManager("test-secret", "farmops-test", time.Hour)
	svc := NewAuthService(store, nil, tokens, tokenstore.NewMemoryStore(), allowLegacy).(*authService)
	return svc, tokens
}

func TestLoginRecordsLastLogin(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "aminah", "rahsia1", models.RoleStaff, models.StatusActive)
	svc, _ := newTestAuth(store, false)
	loginAt := time.Date(2024, 5, 2, 7, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return loginAt }

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "aminah", Password: "rahsia1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token")
	}
	if resp.User.LastLogin == nil || !resp.User.LastLogin.Equal(loginAt) {
		t.Fatalf("expected lastLogin %v in response, got %v", loginAt, resp.User.LastLogin)
	}

	stored, _ := store.FindUserByID(context.Background(), user.ID)
	if stored.LastLogin == nil || !stored.LastLogin.Equal(loginAt) {
		t.Fatalf("expected stored lastLogin %v, got %v", loginAt, stored.LastLogin)
	}

	identity, err := svc.ResolveIdentity(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("issued token did not resolve: %v", err)
	}
	if identity.ID != user.ID || identity.Role != models.RoleStaff {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := repotest.NewStore()
	seedUser(t, store, "aminah", "rahsia1", models.RoleStaff, models.StatusActive)
	svc, _ := newTestAuth(store, false)

	for _, req := range []LoginRequest{
		{Username: "aminah", Password: "salah"},
		{Username: "tiada", Password: "rahsia1"},
		{Username: "Aminah", Password: "rahsia1"},
	} {
		_, err := svc.Login(context.Background(), req)
		se := requireKind(t, err, KindUnauthorized)
		if !errors.Is(err, ErrInvalidCredentials) || se.Message != "Invalid credentials" {
			t.Fatalf("%+v: unexpected error %v", req, err)
		}
	}
}

func TestLoginInactiveLeavesLastLoginUnchanged(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "bakar", "rahsia1", models.RoleStaff, models.StatusInactive)
	svc, _ := newTestAuth(store, false)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "bakar", Password: "rahsia1"})
	requireKind(t, err, KindForbidden)
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}

	stored, _ := store.FindUserByID(context.Background(), user.ID)
	if stored.LastLogin != nil {
		t.Fatalf("inactive login must not touch lastLogin, got %v", stored.LastLogin)
	}
}

func TestResolveIdentity(t *testing.T) {
	store := repotest.NewStore()
	active := seedUser(t, store, "chong", "rahsia1", models.RoleAdmin, models.StatusActive)
	inactive := seedUser(t, store, "devi", "rahsia1", models.RoleStaff, models.StatusInactive)
	staffUser := seedUser(t, store, "ezra", "rahsia1", models.RoleStaff, models.StatusActive)
	staff := seedStaff(t, store, &staffUser.ID, models.StatusActive)

	svc, tokens := newTestAuth(store, false)
	issue := func(userID int64) string {
		tok, _, err := tokens.GenerateAccessToken(userID)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return tok
	}
	foreign := utils.NewTokenManager("other-secret", "farmops-test", time.Hour)
	forged, _, _ := foreign.GenerateAccessToken(active.ID)

	tests := []struct {
		name  string
		token string
		kind  Kind
	}{
		{"empty", "", KindUnauthorized},
		{"garbage", "not-a-token", KindUnauthorized},
		{"wrong signature", forged, KindUnauthorized},
		{"legacy id disabled", "1", KindUnauthorized},
		{"unknown user", issue(9999), KindUnauthorized},
		{"inactive user", issue(inactive.ID), KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResolveIdentity(context.Background(), tt.token)
			requireKind(t, err, tt.kind)
		})
	}

	identity, err := svc.ResolveIdentity(context.Background(), issue(staffUser.ID))
	if err != nil {
		t.Fatalf("resolve staff: %v", err)
	}
	if identity.Staff == nil || identity.Staff.ID != staff.ID || identity.Staff.StaffID != staff.StaffID {
		t.Fatalf("expected staff summary for %d, got %+v", staff.ID, identity.Staff)
	}

	identity, err = svc.ResolveIdentity(context.Background(), issue(active.ID))
	if err != nil {
		t.Fatalf("resolve admin: %v", err)
	}
	if identity.Staff != nil {
		t.Fatalf("admin without staff row must have nil staff, got %+v", identity.Staff)
	}
}

func TestResolveIdentityLegacyIDToken(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "farid", "rahsia1", models.RoleAdmin, models.StatusActive)
	svc, _ := newTestAuth(store, true)

	identity, err := svc.ResolveIdentity(context.Background(), utils.Int64ToStr(user.ID))
	if err != nil {
		t.Fatalf("legacy token rejected: %v", err)
	}
	if identity.Username != "farid" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if _, err := svc.ResolveIdentity(context.Background(), "-4"); err == nil {
		t.Fatalf("negative id must not resolve")
	}
}

func TestResolveIdentityReflectsStatusChange(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "gopal", "rahsia1", models.RoleStaff, models.StatusActive)
	svc, tokens := newTestAuth(store, false)
	token, _, _ := tokens.GenerateAccessToken(user.ID)

	if _, err := svc.ResolveIdentity(context.Background(), token); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := store.SetStatus(context.Background(), nil, user.ID, models.StatusInactive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	_, err := svc.ResolveIdentity(context.Background(), token)
	requireKind(t, err, KindForbidden)
}

func TestLogoutRevokesToken(t *testing.T) {
	store := repotest.NewStore()
	seedUser(t, store, "hana", "rahsia1", models.RoleStaff, models.StatusActive)
	svc, _ := newTestAuth(store, false)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "hana", Password: "rahsia1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), resp.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = svc.ResolveIdentity(context.Background(), resp.Token)
	se := requireKind(t, err, KindUnauthorized)
	if se.Message != "Token has been revoked" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}
