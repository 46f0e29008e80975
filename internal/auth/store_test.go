package auth

import (
	"context"
	"errors"
	"io"
	"testing"

	"restaurant-client/internal/api"
	"restaurant-client/internal/common/logger"
	"restaurant-client/internal/domain"
	"restaurant-client/internal/storage"
)

var quiet = logger.NewWithWriter("test", io.Discard, "error")

type fakeAuthenticator struct {
	calls int
	fn    func(username, password string) (domain.StaffSession, error)
}

func (f *fakeAuthenticator) StaffLogin(_ context.Context, username, password string) (domain.StaffSession, error) {
	f.calls++
	return f.fn(username, password)
}

func chefOnly() *fakeAuthenticator {
	return &fakeAuthenticator{fn: func(u, p string) (domain.StaffSession, error) {
		if u == "chef" && p == "secret" {
			return domain.StaffSession{Token: "tok-1", Username: "chef"}, nil
		}
		return domain.StaffSession{}, api.ErrInvalidCredentials
	}}
}

func TestIsAuthenticatedIsTokenPresence(t *testing.T) {
	if IsAuthenticated(domain.StaffSession{Username: "chef"}) {
		t.Fatalf("username without token must not authenticate")
	}
	if !IsAuthenticated(domain.StaffSession{Token: "t"}) {
		t.Fatalf("token must authenticate")
	}
}

func TestLoginPersistsAndSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	authn := chefOnly()

	s, err := Load(ctx, kv, authn, quiet)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatalf("fresh store must be anonymous")
	}
	if err := s.Login(ctx, "chef", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	reloaded, err := Load(ctx, kv, authn, quiet)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Session(); got.Token != "tok-1" || got.Username != "chef" {
		t.Fatalf("unexpected reloaded session %+v", got)
	}
	raw, _, _ := kv.Get(ctx, storage.KeyStaffUser)
	if string(raw) != `{"username":"chef"}` {
		t.Fatalf("unexpected persisted user %s", raw)
	}
}

func TestLoginFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s, _ := Load(ctx, kv, chefOnly(), quiet)

	err := s.Login(ctx, "chef", "nope")
	if !errors.Is(err, api.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyToken); ok {
		t.Fatalf("failed login must not persist a token")
	}
}

func TestLoginBlankCredentialsMakesNoCall(t *testing.T) {
	authn := chefOnly()
	s, _ := Load(context.Background(), storage.NewMemory(), authn, quiet)

	if err := s.Login(context.Background(), "  ", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if err := s.Login(context.Background(), "chef", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if authn.calls != 0 {
		t.Fatalf("expected no backend calls, got %d", authn.calls)
	}
}

func TestLogoutClearsMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s, _ := Load(ctx, kv, chefOnly(), quiet)
	_ = s.Login(ctx, "chef", "secret")

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.IsAuthenticated() || s.Token() != "" {
		t.Fatalf("expected anonymous after logout")
	}
	for _, key := range []string{storage.KeyToken, storage.KeyStaffUser} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Fatalf("expected %s removed", key)
		}
	}
}

func TestMalformedStaffUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	_ = kv.Set(ctx, storage.KeyToken, []byte("tok-9"))
	_ = kv.Set(ctx, storage.KeyStaffUser, []byte("{broken"))

	s, err := Load(ctx, kv, chefOnly(), quiet)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.IsAuthenticated() || s.Session().Username != "" {
		t.Fatalf("unexpected session %+v", s.Session())
	}
}
