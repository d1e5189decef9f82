package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/authz"
)

// StoredCredential is the slice of a collaborator account the login flow
// needs. The password hash never travels further than VerifyPassword.
type StoredCredential struct {
	UserID       int64
	Username     string
	Role         authz.Role
	PasswordHash string
}

// CredentialSource supplies stored credentials by username.
type CredentialSource interface {
	Lookup(ctx context.Context, username string) (*StoredCredential, error)
}

// SessionSink persists and discards the current session token.
type SessionSink interface {
	Save(token string) error
	Clear() error
}

// Service handles the login and logout flows.
type Service struct {
	creds    CredentialSource
	tokens   *TokenService
	sessions SessionSink
}

// NewService creates a new auth service with the given dependencies.
func NewService(creds CredentialSource, tokens *TokenService, sessions SessionSink) *Service {
	return &Service{creds: creds, tokens: tokens, sessions: sessions}
}

// Login authenticates a collaborator by username and password. On success
// it issues a token and stores it as the current session. Failures never
// reveal whether the username or the password was at fault.
func (s *Service) Login(ctx context.Context, username, password string) (*authz.Identity, error) {
	username = strings.TrimSpace(username)

	cred, err := s.creds.Lookup(ctx, username)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil, apperror.NewAuthentication()
		}
		return nil, apperror.NewInternal(fmt.Errorf("looking up credentials: %w", err))
	}

	if !VerifyPassword(password, cred.PasswordHash) {
		return nil, apperror.NewAuthentication()
	}

	token, err := s.tokens.Issue(cred.UserID, cred.Role)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}
	if err := s.sessions.Save(token); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("saving session: %w", err))
	}

	slog.Info("collaborator logged in",
		slog.Int64("user_id", cred.UserID),
		slog.String("role", string(cred.Role)),
	)

	return &authz.Identity{UserID: cred.UserID, Role: cred.Role}, nil
}

// Logout discards the current session. Logging out without a session is
// not an error.
func (s *Service) Logout() error {
	if err := s.sessions.Clear(); err != nil {
		return apperror.NewInternal(fmt.Errorf("clearing session: %w", err))
	}
	slog.Info("collaborator logged out")
	return nil
}
