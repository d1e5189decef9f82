package auth

import (
	"context"
	"testing"
	"time"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/authz"
)

// mockCredentialSource implements CredentialSource with a swappable function.
type mockCredentialSource struct {
	lookupFunc func(ctx context.Context, username string) (*StoredCredential, error)
}

func (m *mockCredentialSource) Lookup(ctx context.Context, username string) (*StoredCredential, error) {
	return m.lookupFunc(ctx, username)
}

// mockSessionSink records saved tokens in memory.
type mockSessionSink struct {
	token   string
	cleared bool
}

func (m *mockSessionSink) Save(token string) error {
	m.token = token
	return nil
}

func (m *mockSessionSink) Clear() error {
	m.token = ""
	m.cleared = true
	return nil
}

func newLoginFixture(t *testing.T, password string) (*Service, *mockSessionSink, *TokenService) {
	t.Helper()

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	creds := &mockCredentialSource{
		lookupFunc: func(_ context.Context, username string) (*StoredCredential, error) {
			if username != "jdoe" {
				return nil, apperror.NewNotFound("collaborator not found")
			}
			return &StoredCredential{
				UserID:       7,
				Username:     "jdoe",
				Role:         authz.RoleCommercial,
				PasswordHash: hash,
			}, nil
		},
	}

	tokens := NewTokenService("test-secret", time.Hour)
	sink := &mockSessionSink{}
	return NewService(creds, tokens, sink), sink, tokens
}

func TestService_Login(t *testing.T) {
	svc, sink, tokens := newLoginFixture(t, "Correct1Horse")

	identity, err := svc.Login(context.Background(), "jdoe", "Correct1Horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if identity.UserID != 7 {
		t.Errorf("UserID = %d, want 7", identity.UserID)
	}
	if identity.Role != authz.RoleCommercial {
		t.Errorf("Role = %q, want %q", identity.Role, authz.RoleCommercial)
	}

	if sink.token == "" {
		t.Fatal("no session token was saved")
	}
	verified, err := tokens.Verify(sink.token)
	if err != nil {
		t.Fatalf("Verify(saved token) error = %v", err)
	}
	if verified.UserID != 7 {
		t.Errorf("saved token UserID = %d, want 7", verified.UserID)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc, sink, _ := newLoginFixture(t, "Correct1Horse")

	_, err := svc.Login(context.Background(), "jdoe", "Wrong1Horse")
	if !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("Login() error = %v, want kind %s", err, apperror.KindAuthentication)
	}
	if sink.token != "" {
		t.Error("a session token was saved on a failed login")
	}
}

func TestService_Login_UnknownUsername(t *testing.T) {
	svc, _, _ := newLoginFixture(t, "Correct1Horse")

	_, err := svc.Login(context.Background(), "nobody", "Correct1Horse")
	if !apperror.IsKind(err, apperror.KindAuthentication) {
		t.Fatalf("Login() error = %v, want kind %s", err, apperror.KindAuthentication)
	}

	// Unknown username and wrong password must be indistinguishable.
	_, wrongPass := svc.Login(context.Background(), "jdoe", "Wrong1Horse")
	if err.Error() != wrongPass.Error() {
		t.Errorf("failure messages differ: %q vs %q", err, wrongPass)
	}
}

func TestService_Logout(t *testing.T) {
	svc, sink, _ := newLoginFixture(t, "Correct1Horse")

	if _, err := svc.Login(context.Background(), "jdoe", "Correct1Horse"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !sink.cleared {
		t.Error("Logout() did not clear the session")
	}

	// Logging out twice is not an error.
	if err := svc.Logout(); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
}
