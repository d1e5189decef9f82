// Package crm holds the Epic Events domain records and the services that
// operate on them. Every mutating operation follows the same sequence:
// validate inputs, authorize the caller, touch storage, announce notable
// changes. Repositories use parameterized queries exclusively; input
// sanitization is defense-in-depth on top of that, not the injection
// boundary.
package crm

import (
	"time"

	"github.com/steveraffner/epicevents/internal/authz"
)

// User is a collaborator account. The password hash is write-only from
// the CLI's point of view and never leaves the auth path.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         authz.Role
	CreatedAt    time.Time
}

// Client is a customer record owned by the commercial collaborator who
// created it.
type Client struct {
	ID              int64
	FullName        string
	Email           string
	Phone           string
	CompanyName     string
	CommercialID    int64
	CreatedAt       time.Time
	LastContactedAt time.Time
}

// Contract links a client to an engagement. Signed starts false and is
// flipped by management or the owning commercial; signing is a notable
// event announced to the monitor.
type Contract struct {
	ID              int64
	ClientID        int64
	TotalAmount     float64
	RemainingAmount float64
	Signed          bool
	CreatedAt       time.Time

	// CommercialID is the owning commercial of the contract's client,
	// joined in by the repository for ownership checks.
	CommercialID int64
}

// Event is a scheduled occasion attached to a signed contract, optionally
// assigned to a support collaborator.
type Event struct {
	ID         int64
	ContractID int64
	SupportID  *int64
	StartsAt   time.Time
	EndsAt     time.Time
	Location   string
	Attendees  int
	Notes      string

	// CommercialID is the owning commercial of the event's client chain,
	// joined in by the repository.
	CommercialID int64
}

// ContractFilter narrows contract listings. Nil fields mean "no filter".
type ContractFilter struct {
	// Signed filters on the signature flag.
	Signed *bool

	// Unpaid, when true, keeps only contracts with a remaining amount.
	Unpaid bool
}

// EventFilter narrows event listings. Zero values mean "no filter".
type EventFilter struct {
	// NoSupport keeps only events without an assigned support contact.
	NoSupport bool

	// SupportID keeps only events assigned to the given collaborator.
	SupportID *int64
}
