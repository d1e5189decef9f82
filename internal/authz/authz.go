// Package authz decides, for a given identity and intended operation,
// whether the operation is permitted. Permissions derive from a fixed
// role attached to each collaborator plus, for some operations, ownership
// of the target record. The permission matrix is a data table so adding
// or auditing a permission is a data change, not a code change.
package authz

import (
	"context"
	"fmt"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/notify"
)

// Role is one of the closed set of collaborator departments.
type Role string

const (
	RoleManagement Role = "management"
	RoleCommercial Role = "commercial"
	RoleSupport    Role = "support"
)

// Roles lists every valid role, for CLI help and validation.
var Roles = []Role{RoleManagement, RoleCommercial, RoleSupport}

// ParseRole converts a string to a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleManagement, RoleCommercial, RoleSupport:
		return Role(s), nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown role %q (valid: management, commercial, support)", s))
}

// Resource is a protected record kind.
type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceClients   Resource = "clients"
	ResourceContracts Resource = "contracts"
	ResourceEvents    Resource = "events"
)

// Action is an operation kind against a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Scope qualifies a granted permission.
type Scope int

const (
	// ScopeAny grants the action on every record of the resource.
	ScopeAny Scope = iota

	// ScopeOwn grants the action only on records owned by the caller.
	ScopeOwn
)

// matrix is the fixed role x resource x action permission table. Absence
// means deny. Not user-configurable.
var matrix = map[Role]map[Resource]map[Action]Scope{
	RoleManagement: {
		ResourceUsers: {
			ActionCreate: ScopeAny,
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeAny,
			ActionDelete: ScopeAny,
		},
		ResourceClients: {
			ActionRead: ScopeAny,
		},
		ResourceContracts: {
			ActionCreate: ScopeAny,
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeAny,
			ActionDelete: ScopeAny,
		},
		ResourceEvents: {
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeAny, // assign the support contact
		},
	},
	RoleCommercial: {
		ResourceUsers: {
			ActionRead: ScopeAny,
		},
		ResourceClients: {
			ActionCreate: ScopeAny,
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeOwn,
			ActionDelete: ScopeOwn,
		},
		ResourceContracts: {
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeOwn, // own client's contracts
		},
		ResourceEvents: {
			ActionCreate: ScopeOwn, // own client's signed contracts
			ActionRead:   ScopeAny,
		},
	},
	RoleSupport: {
		ResourceUsers: {
			ActionRead: ScopeAny,
		},
		ResourceClients: {
			ActionRead: ScopeAny,
		},
		ResourceContracts: {
			ActionRead: ScopeAny,
		},
		ResourceEvents: {
			ActionRead:   ScopeAny,
			ActionUpdate: ScopeOwn, // own assigned events
		},
	},
}

// Identity is the caller as decoded from a verified session token.
// Declared here (rather than importing the token package) so authz
// depends on nothing but the error and notification packages.
type Identity struct {
	UserID int64
	Role   Role
}

// Request is the ephemeral permission decision context: the attempted
// operation plus the target-record facts the persistence layer supplied.
// It is computed fresh for every operation; decisions are never cached
// because role or ownership may change between calls.
type Request struct {
	Action   Action
	Resource Resource

	// OwnerID is the owning collaborator of the target record, when the
	// resource has one. Nil for unowned records and for create/read.
	OwnerID *int64

	// ContractSigned carries the associated contract's signed flag for
	// event creation. Nil when the precondition does not apply.
	ContractSigned *bool
}

// Engine evaluates requests against the permission matrix. It holds a
// notification sink so callers can announce allowed mutations; the matrix
// itself is immutable, so an Engine is safe for concurrent use.
type Engine struct {
	notifier notify.Notifier
}

// NewEngine creates an authorization engine emitting to the given sink.
// A nil sink degrades to a no-op.
func NewEngine(notifier notify.Notifier) *Engine {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{notifier: notifier}
}

// Permitted reports whether identity's role holds the action on the
// resource at all, without consulting ownership. Services call it before
// fetching a target record so a role with no grant is denied on role and
// never learns whether the record exists.
func (e *Engine) Permitted(identity *Identity, resource Resource, action Action) error {
	if identity == nil {
		return apperror.NewAuthorization("not authenticated, please log in")
	}
	if _, ok := matrix[identity.Role][resource][action]; !ok {
		return apperror.NewAuthorization(fmt.Sprintf(
			"role %s may not %s %s", identity.Role, action, resource))
	}
	return nil
}

// Authorize decides whether identity may perform the request. A nil
// identity denies as unauthenticated; an action absent from the matrix
// denies on role; an ownership-scoped action with a mismatched owner
// denies on ownership. Event creation additionally requires the
// associated contract to be signed.
func (e *Engine) Authorize(identity *Identity, req Request) error {
	if err := e.Permitted(identity, req.Resource, req.Action); err != nil {
		return err
	}

	if scope := matrix[identity.Role][req.Resource][req.Action]; scope == ScopeOwn {
		if req.OwnerID == nil || *req.OwnerID != identity.UserID {
			return apperror.NewAuthorization(fmt.Sprintf(
				"you are not the owner of this %s record", trimPlural(req.Resource)))
		}
	}

	// An event can only be attached to a signed contract. Evaluated here,
	// with the ownership check, so a single deny path covers the operation.
	if req.Resource == ResourceEvents && req.Action == ActionCreate {
		if req.ContractSigned == nil || !*req.ContractSigned {
			return apperror.NewPrecondition("cannot create an event for an unsigned contract")
		}
	}

	return nil
}

// Announce emits a fire-and-forget notification about an allowed,
// state-mutating decision. Failures are swallowed by the sink and never
// affect the caller.
func (e *Engine) Announce(ctx context.Context, message string) {
	e.notifier.Notify(ctx, message)
}

// trimPlural turns a resource name into its singular display form.
func trimPlural(r Resource) string {
	s := string(r)
	if len(s) > 1 && s[len(s)-1] == 's' {
		return s[:len(s)-1]
	}
	return s
}
