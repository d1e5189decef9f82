// Package cli wires the Epic Events commands. Each invocation resolves
// the caller's identity from the local session once and threads it
// through the services; commands never consult ambient state themselves.
package cli

import (
	"context"
	"database/sql"

	"github.com/steveraffner/epicevents/internal/auth"
	"github.com/steveraffner/epicevents/internal/authz"
	"github.com/steveraffner/epicevents/internal/config"
	"github.com/steveraffner/epicevents/internal/crm"
	"github.com/steveraffner/epicevents/internal/session"
)

// App bundles the dependencies the commands need. Built once in main and
// handed to NewRootCmd.
type App struct {
	Config    *config.Config
	DB        *sql.DB
	Auth      *auth.Service
	Sessions  *session.Store
	Users     crm.UserService
	Clients   crm.ClientService
	Contracts crm.ContractService
	Events    crm.EventService

	// UserRepo backs the create-superuser bootstrap, which runs before
	// any account exists and therefore bypasses the service layer.
	UserRepo crm.UserRepository
}

// identity resolves the caller from the stored session. Commands that
// require authentication call this first.
func (a *App) identity() (*authz.Identity, error) {
	cur, err := a.Sessions.Current()
	if err != nil {
		return nil, err
	}
	return &cur.Identity, nil
}

// credentialSource adapts the user repository to the login flow.
type credentialSource struct {
	users crm.UserRepository
}

// NewCredentialSource exposes collaborator credentials to the auth service.
func NewCredentialSource(users crm.UserRepository) auth.CredentialSource {
	return &credentialSource{users: users}
}

func (s *credentialSource) Lookup(ctx context.Context, username string) (*auth.StoredCredential, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return &auth.StoredCredential{
		UserID:       u.ID,
		Username:     u.Username,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}, nil
}
