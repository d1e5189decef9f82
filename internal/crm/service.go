package crm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/auth"
	"github.com/steveraffner/epicevents/internal/authz"
	"github.com/steveraffner/epicevents/internal/sanitize"
)

// --- User Service ---

// CreateUserInput carries the fields for a new collaborator.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput carries optional collaborator changes. Nil fields are
// left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
}

// UserService handles business logic for collaborator accounts.
type UserService interface {
	Create(ctx context.Context, actor *authz.Identity, input CreateUserInput) (*User, error)
	Get(ctx context.Context, actor *authz.Identity, id int64) (*User, error)
	List(ctx context.Context, actor *authz.Identity) ([]User, error)
	Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateUserInput) (*User, error)
	Delete(ctx context.Context, actor *authz.Identity, id int64) error
}

// userService implements UserService.
type userService struct {
	users  UserRepository
	engine *authz.Engine
}

// NewUserService creates a new user service.
func NewUserService(users UserRepository, engine *authz.Engine) UserService {
	return &userService{users: users, engine: engine}
}

// Create registers a new collaborator. Management only. The creation is
// announced to the monitor.
func (s *userService) Create(ctx context.Context, actor *authz.Identity, input CreateUserInput) (*User, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionCreate,
		Resource: authz.ResourceUsers,
	}); err != nil {
		return nil, err
	}

	username, err := sanitize.Username(input.Username)
	if err != nil {
		return nil, err
	}
	email, err := sanitize.Email(input.Email)
	if err != nil {
		return nil, err
	}
	password, err := sanitize.Password(input.Password)
	if err != nil {
		return nil, err
	}
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("collaborator created", "user_id", u.ID, "username", u.Username, "role", u.Role)
	s.engine.Announce(ctx, fmt.Sprintf("new collaborator created: %s (%s)", u.Username, u.Role))
	return u, nil
}

// Get retrieves a collaborator by ID.
func (s *userService) Get(ctx context.Context, actor *authz.Identity, id int64) (*User, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceUsers,
	}); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// List returns all collaborators.
func (s *userService) List(ctx context.Context, actor *authz.Identity) ([]User, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceUsers,
	}); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// Update modifies a collaborator. Management only. A nil input field
// keeps the stored value.
func (s *userService) Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateUserInput) (*User, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionUpdate,
		Resource: authz.ResourceUsers,
	}); err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username, err := sanitize.Username(*input.Username)
		if err != nil {
			return nil, err
		}
		u.Username = username
	}
	if input.Email != nil {
		email, err := sanitize.Email(*input.Email)
		if err != nil {
			return nil, err
		}
		u.Email = email
	}
	if input.Password != nil {
		password, err := sanitize.Password(*input.Password)
		if err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
		}
		u.PasswordHash = hash
	}
	if input.Role != nil {
		role, err := authz.ParseRole(*input.Role)
		if err != nil {
			return nil, err
		}
		u.Role = role
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("collaborator updated", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Delete removes a collaborator. Management only.
func (s *userService) Delete(ctx context.Context, actor *authz.Identity, id int64) error {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionDelete,
		Resource: authz.ResourceUsers,
	}); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("collaborator deleted", "user_id", id)
	return nil
}

// --- Client Service ---

// CreateClientInput carries the fields for a new client record.
type CreateClientInput struct {
	FullName    string
	Email       string
	Phone       string
	CompanyName string
}

// UpdateClientInput carries optional client changes.
type UpdateClientInput struct {
	FullName    *string
	Email       *string
	Phone       *string
	CompanyName *string
}

// ClientService handles business logic for client records.
type ClientService interface {
	Create(ctx context.Context, actor *authz.Identity, input CreateClientInput) (*Client, error)
	Get(ctx context.Context, actor *authz.Identity, id int64) (*Client, error)
	List(ctx context.Context, actor *authz.Identity) ([]Client, error)
	Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateClientInput) (*Client, error)
	Delete(ctx context.Context, actor *authz.Identity, id int64) error
}

// clientService implements ClientService.
type clientService struct {
	clients ClientRepository
	engine  *authz.Engine
}

// NewClientService creates a new client service.
func NewClientService(clients ClientRepository, engine *authz.Engine) ClientService {
	return &clientService{clients: clients, engine: engine}
}

// Create registers a new client owned by the acting commercial.
func (s *clientService) Create(ctx context.Context, actor *authz.Identity, input CreateClientInput) (*Client, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionCreate,
		Resource: authz.ResourceClients,
	}); err != nil {
		return nil, err
	}

	email, err := sanitize.Email(input.Email)
	if err != nil {
		return nil, err
	}
	phone, err := sanitize.Phone(input.Phone)
	if err != nil {
		return nil, err
	}
	fullName := sanitize.Text(input.FullName, 0)
	if fullName == "" {
		return nil, apperror.NewValidation("client full name is required")
	}

	now := time.Now().UTC()
	c := &Client{
		FullName:        fullName,
		Email:           email,
		Phone:           phone,
		CompanyName:     sanitize.Text(input.CompanyName, 0),
		CommercialID:    actor.UserID,
		LastContactedAt: now,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("client created", "client_id", c.ID, "commercial_id", c.CommercialID)
	return c, nil
}

// Get retrieves a client by ID.
func (s *clientService) Get(ctx context.Context, actor *authz.Identity, id int64) (*Client, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceClients,
	}); err != nil {
		return nil, err
	}
	return s.clients.FindByID(ctx, id)
}

// List returns all clients. Every role may read the client book.
func (s *clientService) List(ctx context.Context, actor *authz.Identity) ([]Client, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceClients,
	}); err != nil {
		return nil, err
	}
	return s.clients.List(ctx)
}

// Update modifies a client. Commercials may only touch their own clients;
// the update refreshes the last contact timestamp.
func (s *clientService) Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateClientInput) (*Client, error) {
	// Role check first: a role without the update grant must not learn
	// whether the record exists.
	if err := s.engine.Permitted(actor, authz.ResourceClients, authz.ActionUpdate); err != nil {
		return nil, err
	}

	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionUpdate,
		Resource: authz.ResourceClients,
		OwnerID:  &c.CommercialID,
	}); err != nil {
		return nil, err
	}

	if input.FullName != nil {
		fullName := sanitize.Text(*input.FullName, 0)
		if fullName == "" {
			return nil, apperror.NewValidation("client full name is required")
		}
		c.FullName = fullName
	}
	if input.Email != nil {
		email, err := sanitize.Email(*input.Email)
		if err != nil {
			return nil, err
		}
		c.Email = email
	}
	if input.Phone != nil {
		phone, err := sanitize.Phone(*input.Phone)
		if err != nil {
			return nil, err
		}
		c.Phone = phone
	}
	if input.CompanyName != nil {
		c.CompanyName = sanitize.Text(*input.CompanyName, 0)
	}
	c.LastContactedAt = time.Now().UTC()

	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("client updated", "client_id", c.ID)
	return c, nil
}

// Delete removes a client. Commercials may only delete their own clients.
func (s *clientService) Delete(ctx context.Context, actor *authz.Identity, id int64) error {
	if err := s.engine.Permitted(actor, authz.ResourceClients, authz.ActionDelete); err != nil {
		return err
	}

	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionDelete,
		Resource: authz.ResourceClients,
		OwnerID:  &c.CommercialID,
	}); err != nil {
		return err
	}

	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("client deleted", "client_id", id)
	return nil
}

// --- Contract Service ---

// CreateContractInput carries the fields for a new contract. Amounts
// arrive as raw strings and go through amount sanitization.
type CreateContractInput struct {
	ClientID        int64
	TotalAmount     string
	RemainingAmount string
}

// UpdateContractInput carries optional contract changes.
type UpdateContractInput struct {
	TotalAmount     *string
	RemainingAmount *string
	Signed          *bool
}

// ContractService handles business logic for contracts.
type ContractService interface {
	Create(ctx context.Context, actor *authz.Identity, input CreateContractInput) (*Contract, error)
	Get(ctx context.Context, actor *authz.Identity, id int64) (*Contract, error)
	List(ctx context.Context, actor *authz.Identity, filter ContractFilter) ([]Contract, error)
	Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateContractInput) (*Contract, error)
	Delete(ctx context.Context, actor *authz.Identity, id int64) error
}

// contractService implements ContractService.
type contractService struct {
	contracts ContractRepository
	clients   ClientRepository
	engine    *authz.Engine
}

// NewContractService creates a new contract service.
func NewContractService(contracts ContractRepository, clients ClientRepository, engine *authz.Engine) ContractService {
	return &contractService{contracts: contracts, clients: clients, engine: engine}
}

// Create registers a new contract for a client. Management only. New
// contracts start unsigned.
func (s *contractService) Create(ctx context.Context, actor *authz.Identity, input CreateContractInput) (*Contract, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionCreate,
		Resource: authz.ResourceContracts,
	}); err != nil {
		return nil, err
	}

	total, err := sanitize.Amount(input.TotalAmount)
	if err != nil {
		return nil, err
	}
	remaining, err := sanitize.Amount(input.RemainingAmount)
	if err != nil {
		return nil, err
	}
	if remaining > total {
		return nil, apperror.NewValidation("remaining amount cannot exceed the total amount")
	}

	// The client must exist before a contract can reference it.
	if _, err := s.clients.FindByID(ctx, input.ClientID); err != nil {
		return nil, err
	}

	c := &Contract{
		ClientID:        input.ClientID,
		TotalAmount:     total,
		RemainingAmount: remaining,
		Signed:          false,
	}
	if err := s.contracts.Create(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("contract created", "contract_id", c.ID, "client_id", c.ClientID)
	return c, nil
}

// Get retrieves a contract by ID.
func (s *contractService) Get(ctx context.Context, actor *authz.Identity, id int64) (*Contract, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceContracts,
	}); err != nil {
		return nil, err
	}
	return s.contracts.FindByID(ctx, id)
}

// List returns contracts matching the filter.
func (s *contractService) List(ctx context.Context, actor *authz.Identity, filter ContractFilter) ([]Contract, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceContracts,
	}); err != nil {
		return nil, err
	}
	return s.contracts.List(ctx, filter)
}

// Update modifies a contract. Management may touch any contract; a
// commercial only those of their own clients. Flipping signed from false
// to true is announced to the monitor.
func (s *contractService) Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateContractInput) (*Contract, error) {
	if err := s.engine.Permitted(actor, authz.ResourceContracts, authz.ActionUpdate); err != nil {
		return nil, err
	}

	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionUpdate,
		Resource: authz.ResourceContracts,
		OwnerID:  &c.CommercialID,
	}); err != nil {
		return nil, err
	}

	if input.TotalAmount != nil {
		total, err := sanitize.Amount(*input.TotalAmount)
		if err != nil {
			return nil, err
		}
		c.TotalAmount = total
	}
	if input.RemainingAmount != nil {
		remaining, err := sanitize.Amount(*input.RemainingAmount)
		if err != nil {
			return nil, err
		}
		c.RemainingAmount = remaining
	}
	if c.RemainingAmount > c.TotalAmount {
		return nil, apperror.NewValidation("remaining amount cannot exceed the total amount")
	}

	justSigned := false
	if input.Signed != nil {
		if c.Signed && !*input.Signed {
			return nil, apperror.NewValidation("a signed contract cannot be unsigned")
		}
		justSigned = !c.Signed && *input.Signed
		c.Signed = *input.Signed
	}

	if err := s.contracts.Update(ctx, c); err != nil {
		return nil, err
	}

	slog.Info("contract updated", "contract_id", c.ID, "signed", c.Signed)
	if justSigned {
		s.engine.Announce(ctx, fmt.Sprintf("contract %d signed (client %d)", c.ID, c.ClientID))
	}
	return c, nil
}

// Delete removes a contract. Management only per the permission matrix.
func (s *contractService) Delete(ctx context.Context, actor *authz.Identity, id int64) error {
	if err := s.engine.Permitted(actor, authz.ResourceContracts, authz.ActionDelete); err != nil {
		return err
	}

	c, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionDelete,
		Resource: authz.ResourceContracts,
		OwnerID:  &c.CommercialID,
	}); err != nil {
		return err
	}

	if err := s.contracts.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("contract deleted", "contract_id", id)
	return nil
}

// --- Event Service ---

// CreateEventInput carries the fields for a new event.
type CreateEventInput struct {
	ContractID int64
	StartsAt   time.Time
	EndsAt     time.Time
	Location   string
	Attendees  int
	Notes      string
}

// UpdateEventInput carries optional event changes. SupportID assignment
// is restricted to management.
type UpdateEventInput struct {
	SupportID *int64
	StartsAt  *time.Time
	EndsAt    *time.Time
	Location  *string
	Attendees *int
	Notes     *string
}

// EventService handles business logic for events.
type EventService interface {
	Create(ctx context.Context, actor *authz.Identity, input CreateEventInput) (*Event, error)
	Get(ctx context.Context, actor *authz.Identity, id int64) (*Event, error)
	List(ctx context.Context, actor *authz.Identity, filter EventFilter) ([]Event, error)
	Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateEventInput) (*Event, error)
	Delete(ctx context.Context, actor *authz.Identity, id int64) error
}

// eventService implements EventService.
type eventService struct {
	events    EventRepository
	contracts ContractRepository
	users     UserRepository
	engine    *authz.Engine
}

// NewEventService creates a new event service.
func NewEventService(events EventRepository, contracts ContractRepository, users UserRepository, engine *authz.Engine) EventService {
	return &eventService{events: events, contracts: contracts, users: users, engine: engine}
}

// Create registers a new event against a signed contract. A commercial
// may only create events for their own clients' contracts.
func (s *eventService) Create(ctx context.Context, actor *authz.Identity, input CreateEventInput) (*Event, error) {
	if err := s.engine.Permitted(actor, authz.ResourceEvents, authz.ActionCreate); err != nil {
		return nil, err
	}

	contract, err := s.contracts.FindByID(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:         authz.ActionCreate,
		Resource:       authz.ResourceEvents,
		OwnerID:        &contract.CommercialID,
		ContractSigned: &contract.Signed,
	}); err != nil {
		return nil, err
	}

	if input.EndsAt.Before(input.StartsAt) {
		return nil, apperror.NewValidation("event end must not precede its start")
	}
	if input.Attendees < 0 {
		return nil, apperror.NewValidation("attendee count cannot be negative")
	}

	e := &Event{
		ContractID: contract.ID,
		StartsAt:   input.StartsAt.UTC(),
		EndsAt:     input.EndsAt.UTC(),
		Location:   sanitize.Text(input.Location, 0),
		Attendees:  input.Attendees,
		Notes:      sanitize.Text(input.Notes, 1000),
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}

	slog.Info("event created", "event_id", e.ID, "contract_id", e.ContractID)
	return e, nil
}

// Get retrieves an event by ID.
func (s *eventService) Get(ctx context.Context, actor *authz.Identity, id int64) (*Event, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceEvents,
	}); err != nil {
		return nil, err
	}
	return s.events.FindByID(ctx, id)
}

// List returns events matching the filter.
func (s *eventService) List(ctx context.Context, actor *authz.Identity, filter EventFilter) ([]Event, error) {
	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionRead,
		Resource: authz.ResourceEvents,
	}); err != nil {
		return nil, err
	}
	return s.events.List(ctx, filter)
}

// Update modifies an event. Management may touch any event and is the
// only role allowed to assign a support contact; support collaborators
// may only touch events assigned to them.
func (s *eventService) Update(ctx context.Context, actor *authz.Identity, id int64, input UpdateEventInput) (*Event, error) {
	if err := s.engine.Permitted(actor, authz.ResourceEvents, authz.ActionUpdate); err != nil {
		return nil, err
	}

	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionUpdate,
		Resource: authz.ResourceEvents,
		OwnerID:  e.SupportID,
	}); err != nil {
		return nil, err
	}

	if input.SupportID != nil {
		if actor.Role != authz.RoleManagement {
			return nil, apperror.NewAuthorization("only management may assign a support contact")
		}
		support, err := s.users.FindByID(ctx, *input.SupportID)
		if err != nil {
			return nil, err
		}
		if support.Role != authz.RoleSupport {
			return nil, apperror.NewValidation("the assigned collaborator must have the support role")
		}
		e.SupportID = input.SupportID
	}
	if input.StartsAt != nil {
		e.StartsAt = input.StartsAt.UTC()
	}
	if input.EndsAt != nil {
		e.EndsAt = input.EndsAt.UTC()
	}
	if e.EndsAt.Before(e.StartsAt) {
		return nil, apperror.NewValidation("event end must not precede its start")
	}
	if input.Location != nil {
		e.Location = sanitize.Text(*input.Location, 0)
	}
	if input.Attendees != nil {
		if *input.Attendees < 0 {
			return nil, apperror.NewValidation("attendee count cannot be negative")
		}
		e.Attendees = *input.Attendees
	}
	if input.Notes != nil {
		e.Notes = sanitize.Text(*input.Notes, 1000)
	}

	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("event updated", "event_id", e.ID)
	return e, nil
}

// Delete removes an event. No role currently holds event delete rights,
// so this surfaces the matrix denial; it exists for completeness of the
// repository contract.
func (s *eventService) Delete(ctx context.Context, actor *authz.Identity, id int64) error {
	if err := s.engine.Permitted(actor, authz.ResourceEvents, authz.ActionDelete); err != nil {
		return err
	}

	e, err := s.events.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.engine.Authorize(actor, authz.Request{
		Action:   authz.ActionDelete,
		Resource: authz.ResourceEvents,
		OwnerID:  e.SupportID,
	}); err != nil {
		return err
	}
	return s.events.Delete(ctx, id)
}
