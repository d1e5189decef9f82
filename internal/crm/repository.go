package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/authz"
)

// --- User Repository ---

// UserRepository defines the data access contract for collaborator accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

// userRepository implements UserRepository with SQLite queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, created_at`

// Create inserts a new collaborator row.
func (r *userRepository) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (username, email, password_hash, role)
	          VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, string(u.Role),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("a collaborator with that username or email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting user id: %w", err)
	}
	u.ID = id
	return nil
}

// FindByID retrieves a collaborator by ID.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByUsername retrieves a collaborator by username. Used by the login
// flow; callers must not reveal whether the username or the password was
// at fault.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// List returns all collaborators ordered by username.
func (r *userRepository) List(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		u.Role = authz.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update modifies an existing collaborator, including the password hash.
func (r *userRepository) Update(ctx context.Context, u *User) error {
	query := `UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("a collaborator with that username or email already exists")
		}
		return fmt.Errorf("updating user: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("collaborator not found")
	}
	return nil
}

// Delete removes a collaborator.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("collaborator not found")
	}
	return nil
}

// scanUser scans a single collaborator row.
func (r *userRepository) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("collaborator not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = authz.Role(role)
	return u, nil
}

// --- Client Repository ---

// ClientRepository defines the data access contract for client records.
type ClientRepository interface {
	Create(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id int64) error
}

// clientRepository implements ClientRepository with SQLite queries.
type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

const clientColumns = `id, full_name, email, phone, company_name, commercial_id, created_at, last_contacted_at`

// Create inserts a new client row.
func (r *clientRepository) Create(ctx context.Context, c *Client) error {
	query := `INSERT INTO clients (full_name, email, phone, company_name, commercial_id, last_contacted_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		c.FullName, c.Email, c.Phone, c.CompanyName, c.CommercialID, c.LastContactedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("a client with that email already exists")
		}
		return fmt.Errorf("inserting client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting client id: %w", err)
	}
	c.ID = id
	return nil
}

// FindByID retrieves a client by ID.
func (r *clientRepository) FindByID(ctx context.Context, id int64) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	c := &Client{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CompanyName,
		&c.CommercialID, &c.CreatedAt, &c.LastContactedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("client not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying client by id: %w", err)
	}
	return c, nil
}

// List returns all clients ordered by full name.
func (r *clientRepository) List(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(
			&c.ID, &c.FullName, &c.Email, &c.Phone, &c.CompanyName,
			&c.CommercialID, &c.CreatedAt, &c.LastContactedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning client row: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Update modifies an existing client.
func (r *clientRepository) Update(ctx context.Context, c *Client) error {
	query := `UPDATE clients SET full_name = ?, email = ?, phone = ?, company_name = ?,
	          commercial_id = ?, last_contacted_at = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		c.FullName, c.Email, c.Phone, c.CompanyName,
		c.CommercialID, c.LastContactedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("client not found")
	}
	return nil
}

// Delete removes a client.
func (r *clientRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("client not found")
	}
	return nil
}

// --- Contract Repository ---

// ContractRepository defines the data access contract for contracts.
type ContractRepository interface {
	Create(ctx context.Context, c *Contract) error
	FindByID(ctx context.Context, id int64) (*Contract, error)
	List(ctx context.Context, filter ContractFilter) ([]Contract, error)
	Update(ctx context.Context, c *Contract) error
	Delete(ctx context.Context, id int64) error
}

// contractRepository implements ContractRepository with SQLite queries.
type contractRepository struct {
	db *sql.DB
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(db *sql.DB) ContractRepository {
	return &contractRepository{db: db}
}

const contractSelect = `SELECT co.id, co.client_id, co.total_amount, co.remaining_amount,
	          co.signed, co.created_at, cl.commercial_id
	          FROM contracts co
	          INNER JOIN clients cl ON cl.id = co.client_id`

// Create inserts a new contract row.
func (r *contractRepository) Create(ctx context.Context, c *Contract) error {
	query := `INSERT INTO contracts (client_id, total_amount, remaining_amount, signed)
	          VALUES (?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		c.ClientID, c.TotalAmount, c.RemainingAmount, c.Signed,
	)
	if err != nil {
		return fmt.Errorf("inserting contract: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting contract id: %w", err)
	}
	c.ID = id
	return nil
}

// FindByID retrieves a contract with the owning commercial joined in.
func (r *contractRepository) FindByID(ctx context.Context, id int64) (*Contract, error) {
	query := contractSelect + ` WHERE co.id = ?`

	c := &Contract{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.ClientID, &c.TotalAmount, &c.RemainingAmount,
		&c.Signed, &c.CreatedAt, &c.CommercialID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("contract not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying contract by id: %w", err)
	}
	return c, nil
}

// List returns contracts matching the filter, most recent first.
func (r *contractRepository) List(ctx context.Context, filter ContractFilter) ([]Contract, error) {
	var conds []string
	var args []any

	if filter.Signed != nil {
		conds = append(conds, "co.signed = ?")
		args = append(args, *filter.Signed)
	}
	if filter.Unpaid {
		conds = append(conds, "co.remaining_amount > 0")
	}

	query := contractSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY co.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contracts: %w", err)
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		var c Contract
		if err := rows.Scan(
			&c.ID, &c.ClientID, &c.TotalAmount, &c.RemainingAmount,
			&c.Signed, &c.CreatedAt, &c.CommercialID,
		); err != nil {
			return nil, fmt.Errorf("scanning contract row: %w", err)
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// Update modifies an existing contract.
func (r *contractRepository) Update(ctx context.Context, c *Contract) error {
	query := `UPDATE contracts SET client_id = ?, total_amount = ?, remaining_amount = ?, signed = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		c.ClientID, c.TotalAmount, c.RemainingAmount, c.Signed, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating contract: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("contract not found")
	}
	return nil
}

// Delete removes a contract.
func (r *contractRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting contract: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("contract not found")
	}
	return nil
}

// --- Event Repository ---

// EventRepository defines the data access contract for events.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	FindByID(ctx context.Context, id int64) (*Event, error)
	List(ctx context.Context, filter EventFilter) ([]Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id int64) error
}

// eventRepository implements EventRepository with SQLite queries.
type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventSelect = `SELECT e.id, e.contract_id, e.support_id, e.starts_at, e.ends_at,
	          e.location, e.attendees, e.notes, cl.commercial_id
	          FROM events e
	          INNER JOIN contracts co ON co.id = e.contract_id
	          INNER JOIN clients cl ON cl.id = co.client_id`

// Create inserts a new event row.
func (r *eventRepository) Create(ctx context.Context, e *Event) error {
	query := `INSERT INTO events (contract_id, support_id, starts_at, ends_at, location, attendees, notes)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		e.ContractID, e.SupportID, e.StartsAt, e.EndsAt,
		e.Location, e.Attendees, e.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting event id: %w", err)
	}
	e.ID = id
	return nil
}

// FindByID retrieves an event with the owning commercial joined in.
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*Event, error) {
	query := eventSelect + ` WHERE e.id = ?`

	e := &Event{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.ContractID, &e.SupportID, &e.StartsAt, &e.EndsAt,
		&e.Location, &e.Attendees, &e.Notes, &e.CommercialID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying event by id: %w", err)
	}
	return e, nil
}

// List returns events matching the filter, soonest first.
func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	var conds []string
	var args []any

	if filter.NoSupport {
		conds = append(conds, "e.support_id IS NULL")
	}
	if filter.SupportID != nil {
		conds = append(conds, "e.support_id = ?")
		args = append(args, *filter.SupportID)
	}

	query := eventSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.starts_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.ContractID, &e.SupportID, &e.StartsAt, &e.EndsAt,
			&e.Location, &e.Attendees, &e.Notes, &e.CommercialID,
		); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update modifies an existing event.
func (r *eventRepository) Update(ctx context.Context, e *Event) error {
	query := `UPDATE events SET contract_id = ?, support_id = ?, starts_at = ?, ends_at = ?,
	          location = ?, attendees = ?, notes = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		e.ContractID, e.SupportID, e.StartsAt, e.EndsAt,
		e.Location, e.Attendees, e.Notes, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}

// Delete removes an event.
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
