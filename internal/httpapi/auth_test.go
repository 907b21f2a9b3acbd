package httpapi

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medverify/backend/internal/domain"
	"medverify/backend/internal/store/memory"
)

func storeWithUser(t *testing.T, username, password, role string, active bool) *memory.Store {
	t.Helper()

	repo := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username: username,
		Password: string(hash),
		Role:     role,
		Active:   active,
	}); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return repo
}

func TestLoginAndParseTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, storeWithUser(t, "Admin", "hunter22", "admin", true))

	// Username casing is normalized on both create and login.
	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, storeWithUser(t, "admin", "hunter22", "admin", true))

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "wrong"}); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "nobody", Password: "hunter22"}); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, storeWithUser(t, "admin", "hunter22", "admin", false))

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "hunter22"}); err == nil {
		t.Fatalf("expected error for inactive account")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	repo := storeWithUser(t, "admin", "hunter22", "admin", true)
	issuer := NewAuthManager("secret-one", time.Hour, repo)
	verifier := NewAuthManager("secret-two", time.Hour, repo)

	resp, err := issuer.Login(domain.LoginRequest{Username: "admin", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected rejection of token signed with another secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("test-secret", time.Hour, storeWithUser(t, "admin", "hunter22", "admin", true))

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatalf("expected rejection of expired token")
	}
}
