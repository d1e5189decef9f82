package crm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/steveraffner/epicevents/internal/apperror"
	"github.com/steveraffner/epicevents/internal/auth"
	"github.com/steveraffner/epicevents/internal/authz"
)

// --- Mocks ---

// mockUserRepo implements UserRepository with swappable functions.
type mockUserRepo struct {
	createFunc         func(ctx context.Context, u *User) error
	findByIDFunc       func(ctx context.Context, id int64) (*User, error)
	findByUsernameFunc func(ctx context.Context, username string) (*User, error)
	listFunc           func(ctx context.Context) ([]User, error)
	updateFunc         func(ctx context.Context, u *User) error
	deleteFunc         func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *User) error { return m.createFunc(ctx, u) }
func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	return m.findByUsernameFunc(ctx, username)
}
func (m *mockUserRepo) List(ctx context.Context) ([]User, error)  { return m.listFunc(ctx) }
func (m *mockUserRepo) Update(ctx context.Context, u *User) error { return m.updateFunc(ctx, u) }
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

// mockClientRepo implements ClientRepository with swappable functions.
type mockClientRepo struct {
	createFunc   func(ctx context.Context, c *Client) error
	findByIDFunc func(ctx context.Context, id int64) (*Client, error)
	listFunc     func(ctx context.Context) ([]Client, error)
	updateFunc   func(ctx context.Context, c *Client) error
	deleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockClientRepo) Create(ctx context.Context, c *Client) error { return m.createFunc(ctx, c) }
func (m *mockClientRepo) FindByID(ctx context.Context, id int64) (*Client, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockClientRepo) List(ctx context.Context) ([]Client, error)  { return m.listFunc(ctx) }
func (m *mockClientRepo) Update(ctx context.Context, c *Client) error { return m.updateFunc(ctx, c) }
func (m *mockClientRepo) Delete(ctx context.Context, id int64) error  { return m.deleteFunc(ctx, id) }

// mockContractRepo implements ContractRepository with swappable functions.
type mockContractRepo struct {
	createFunc   func(ctx context.Context, c *Contract) error
	findByIDFunc func(ctx context.Context, id int64) (*Contract, error)
	listFunc     func(ctx context.Context, filter ContractFilter) ([]Contract, error)
	updateFunc   func(ctx context.Context, c *Contract) error
	deleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockContractRepo) Create(ctx context.Context, c *Contract) error {
	return m.createFunc(ctx, c)
}
func (m *mockContractRepo) FindByID(ctx context.Context, id int64) (*Contract, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockContractRepo) List(ctx context.Context, filter ContractFilter) ([]Contract, error) {
	return m.listFunc(ctx, filter)
}
func (m *mockContractRepo) Update(ctx context.Context, c *Contract) error {
	return m.updateFunc(ctx, c)
}
func (m *mockContractRepo) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

// mockEventRepo implements EventRepository with swappable functions.
type mockEventRepo struct {
	createFunc   func(ctx context.Context, e *Event) error
	findByIDFunc func(ctx context.Context, id int64) (*Event, error)
	listFunc     func(ctx context.Context, filter EventFilter) ([]Event, error)
	updateFunc   func(ctx context.Context, e *Event) error
	deleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockEventRepo) Create(ctx context.Context, e *Event) error { return m.createFunc(ctx, e) }
func (m *mockEventRepo) FindByID(ctx context.Context, id int64) (*Event, error) {
	return m.findByIDFunc(ctx, id)
}
func (m *mockEventRepo) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	return m.listFunc(ctx, filter)
}
func (m *mockEventRepo) Update(ctx context.Context, e *Event) error { return m.updateFunc(ctx, e) }
func (m *mockEventRepo) Delete(ctx context.Context, id int64) error { return m.deleteFunc(ctx, id) }

// recordingNotifier captures announced messages.
type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.messages = append(n.messages, message)
}

// --- Helpers ---

func ptr[T any](v T) *T { return &v }

func management() *authz.Identity {
	return &authz.Identity{UserID: 1, Role: authz.RoleManagement}
}

func commercial(id int64) *authz.Identity {
	return &authz.Identity{UserID: id, Role: authz.RoleCommercial}
}

func support(id int64) *authz.Identity {
	return &authz.Identity{UserID: id, Role: authz.RoleSupport}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if !apperror.IsKind(err, kind) {
		t.Fatalf("error = %v, want kind %s", err, kind)
	}
}

// --- User Service ---

func TestUserService_Create(t *testing.T) {
	var stored *User
	repo := &mockUserRepo{
		createFunc: func(_ context.Context, u *User) error {
			u.ID = 10
			stored = u
			return nil
		},
	}
	notifier := &recordingNotifier{}
	svc := NewUserService(repo, authz.NewEngine(notifier))

	u, err := svc.Create(context.Background(), management(), CreateUserInput{
		Username: "jdoe",
		Email:    "jdoe@epicevents.example",
		Password: "Valid1Pass",
		Role:     "commercial",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID != 10 {
		t.Errorf("ID = %d, want 10", u.ID)
	}
	if stored.PasswordHash == "Valid1Pass" || stored.PasswordHash == "" {
		t.Error("password was not hashed before storage")
	}
	if !auth.VerifyPassword("Valid1Pass", stored.PasswordHash) {
		t.Error("stored hash does not verify against the original password")
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("announced %d messages, want 1", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "jdoe") {
		t.Errorf("announcement %q does not name the collaborator", notifier.messages[0])
	}
}

func TestUserService_Create_DeniedForCommercial(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), commercial(3), CreateUserInput{
		Username: "jdoe",
		Email:    "jdoe@epicevents.example",
		Password: "Valid1Pass",
		Role:     "support",
	})
	assertKind(t, err, apperror.KindAuthorization)
}

func TestUserService_Create_RejectsWeakPassword(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), management(), CreateUserInput{
		Username: "jdoe",
		Email:    "jdoe@epicevents.example",
		Password: "alllowercase1",
		Role:     "support",
	})
	assertKind(t, err, apperror.KindValidation)
}

func TestUserService_Update_ChangesPassword(t *testing.T) {
	oldHash, err := auth.HashPassword("Old1Password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	var stored *User
	repo := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id int64) (*User, error) {
			return &User{ID: id, Username: "jdoe", Email: "jdoe@epicevents.example",
				PasswordHash: oldHash, Role: authz.RoleSupport}, nil
		},
		updateFunc: func(_ context.Context, u *User) error {
			stored = u
			return nil
		},
	}
	svc := NewUserService(repo, authz.NewEngine(nil))

	_, err = svc.Update(context.Background(), management(), 5, UpdateUserInput{
		Password: ptr("New1Password"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !auth.VerifyPassword("New1Password", stored.PasswordHash) {
		t.Error("updated hash does not verify against the new password")
	}
}

// --- Client Service ---

func TestClientService_Create_SetsOwner(t *testing.T) {
	var stored *Client
	repo := &mockClientRepo{
		createFunc: func(_ context.Context, c *Client) error {
			c.ID = 20
			stored = c
			return nil
		},
	}
	svc := NewClientService(repo, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), commercial(7), CreateClientInput{
		FullName:    "Kevin Casey",
		Email:       "kevin@startup.io",
		Phone:       "+678 123 456 78",
		CompanyName: "Cool Startup LLC",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if stored.CommercialID != 7 {
		t.Errorf("CommercialID = %d, want the acting commercial 7", stored.CommercialID)
	}
	if stored.LastContactedAt.IsZero() {
		t.Error("LastContactedAt was not set")
	}
}

func TestClientService_Update_OwnershipEnforced(t *testing.T) {
	repo := &mockClientRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Client, error) {
			return &Client{ID: id, FullName: "Kevin Casey", Email: "kevin@startup.io",
				Phone: "0601020304", CommercialID: 9}, nil
		},
		updateFunc: func(_ context.Context, c *Client) error { return nil },
	}
	svc := NewClientService(repo, authz.NewEngine(nil))

	_, err := svc.Update(context.Background(), commercial(7), 20, UpdateClientInput{
		CompanyName: ptr("Renamed LLC"),
	})
	assertKind(t, err, apperror.KindAuthorization)

	// The owning commercial goes through.
	if _, err := svc.Update(context.Background(), commercial(9), 20, UpdateClientInput{
		CompanyName: ptr("Renamed LLC"),
	}); err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
}

func TestClientService_Create_DeniedForSupport(t *testing.T) {
	svc := NewClientService(&mockClientRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), support(3), CreateClientInput{
		FullName: "Kevin Casey",
		Email:    "kevin@startup.io",
		Phone:    "0601020304",
	})
	assertKind(t, err, apperror.KindAuthorization)
}

func TestClientService_Update_RoleDeniedBeforeLookup(t *testing.T) {
	repo := &mockClientRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Client, error) {
			t.Fatal("lookup must not run for a role without the update grant")
			return nil, nil
		},
	}
	svc := NewClientService(repo, authz.NewEngine(nil))

	// Support holds no client update grant, so even a missing id reads as
	// a role denial and reveals nothing about the record.
	_, err := svc.Update(context.Background(), support(3), 404, UpdateClientInput{})
	assertKind(t, err, apperror.KindAuthorization)
}

// --- Contract Service ---

func TestContractService_Create(t *testing.T) {
	contracts := &mockContractRepo{
		createFunc: func(_ context.Context, c *Contract) error {
			c.ID = 30
			return nil
		},
	}
	clients := &mockClientRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Client, error) {
			return &Client{ID: id, CommercialID: 9}, nil
		},
	}
	svc := NewContractService(contracts, clients, authz.NewEngine(nil))

	c, err := svc.Create(context.Background(), management(), CreateContractInput{
		ClientID:        20,
		TotalAmount:     "1500,50",
		RemainingAmount: "500",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.TotalAmount != 1500.50 {
		t.Errorf("TotalAmount = %v, want 1500.50", c.TotalAmount)
	}
	if c.Signed {
		t.Error("new contracts must start unsigned")
	}
}

func TestContractService_Create_RemainingExceedsTotal(t *testing.T) {
	svc := NewContractService(&mockContractRepo{}, &mockClientRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), management(), CreateContractInput{
		ClientID:        20,
		TotalAmount:     "100",
		RemainingAmount: "200",
	})
	assertKind(t, err, apperror.KindValidation)
}

func TestContractService_Update_SigningIsAnnounced(t *testing.T) {
	contract := &Contract{ID: 30, ClientID: 20, TotalAmount: 1000, RemainingAmount: 0,
		Signed: false, CommercialID: 9}
	contracts := &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			cp := *contract
			return &cp, nil
		},
		updateFunc: func(_ context.Context, c *Contract) error { return nil },
	}
	notifier := &recordingNotifier{}
	svc := NewContractService(contracts, &mockClientRepo{}, authz.NewEngine(notifier))

	c, err := svc.Update(context.Background(), commercial(9), 30, UpdateContractInput{
		Signed: ptr(true),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !c.Signed {
		t.Error("contract was not signed")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("announced %d messages, want 1", len(notifier.messages))
	}

	// Updating an already signed contract announces nothing further.
	contract.Signed = true
	if _, err := svc.Update(context.Background(), commercial(9), 30, UpdateContractInput{
		Signed: ptr(true),
	}); err != nil {
		t.Fatalf("Update() of signed contract error = %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("announced %d messages, want still 1", len(notifier.messages))
	}
}

func TestContractService_Update_CannotUnsign(t *testing.T) {
	contracts := &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			return &Contract{ID: id, ClientID: 20, Signed: true, CommercialID: 9}, nil
		},
	}
	svc := NewContractService(contracts, &mockClientRepo{}, authz.NewEngine(nil))

	_, err := svc.Update(context.Background(), management(), 30, UpdateContractInput{
		Signed: ptr(false),
	})
	assertKind(t, err, apperror.KindValidation)
}

func TestContractService_Update_OwnershipEnforced(t *testing.T) {
	contracts := &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			return &Contract{ID: id, ClientID: 20, CommercialID: 9}, nil
		},
	}
	svc := NewContractService(contracts, &mockClientRepo{}, authz.NewEngine(nil))

	_, err := svc.Update(context.Background(), commercial(7), 30, UpdateContractInput{
		RemainingAmount: ptr("0"),
	})
	assertKind(t, err, apperror.KindAuthorization)
}

func TestContractService_Delete_RoleDeniedBeforeLookup(t *testing.T) {
	contracts := &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			t.Fatal("lookup must not run for a role without the delete grant")
			return nil, nil
		},
	}
	svc := NewContractService(contracts, &mockClientRepo{}, authz.NewEngine(nil))

	err := svc.Delete(context.Background(), support(3), 404)
	assertKind(t, err, apperror.KindAuthorization)
}

// --- Event Service ---

func eventFixtureContract(signed bool) *mockContractRepo {
	return &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			return &Contract{ID: id, ClientID: 20, Signed: signed, CommercialID: 9}, nil
		},
	}
}

func TestEventService_Create_UnsignedContract(t *testing.T) {
	svc := NewEventService(&mockEventRepo{}, eventFixtureContract(false), &mockUserRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), commercial(9), CreateEventInput{
		ContractID: 30,
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(4 * time.Hour),
		Location:   "53 Rue du Chateau, Candé-sur-Beuvron",
		Attendees:  75,
	})
	assertKind(t, err, apperror.KindPrecondition)
}

func TestEventService_Create_OwnClientOnly(t *testing.T) {
	events := &mockEventRepo{
		createFunc: func(_ context.Context, e *Event) error {
			e.ID = 40
			return nil
		},
	}
	svc := NewEventService(events, eventFixtureContract(true), &mockUserRepo{}, authz.NewEngine(nil))

	// A commercial who does not own the client is turned away.
	_, err := svc.Create(context.Background(), commercial(7), CreateEventInput{
		ContractID: 30,
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(time.Hour),
	})
	assertKind(t, err, apperror.KindAuthorization)

	// The owning commercial goes through.
	e, err := svc.Create(context.Background(), commercial(9), CreateEventInput{
		ContractID: 30,
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(time.Hour),
		Attendees:  75,
	})
	if err != nil {
		t.Fatalf("Create() by owner error = %v", err)
	}
	if e.SupportID != nil {
		t.Error("new events must start without a support contact")
	}
}

func TestEventService_Create_EndBeforeStart(t *testing.T) {
	svc := NewEventService(&mockEventRepo{}, eventFixtureContract(true), &mockUserRepo{}, authz.NewEngine(nil))

	start := time.Now()
	_, err := svc.Create(context.Background(), commercial(9), CreateEventInput{
		ContractID: 30,
		StartsAt:   start,
		EndsAt:     start.Add(-time.Hour),
	})
	assertKind(t, err, apperror.KindValidation)
}

func TestEventService_Create_RoleDeniedBeforeLookup(t *testing.T) {
	contracts := &mockContractRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Contract, error) {
			t.Fatal("contract lookup must not run for a role without the create grant")
			return nil, nil
		},
	}
	svc := NewEventService(&mockEventRepo{}, contracts, &mockUserRepo{}, authz.NewEngine(nil))

	_, err := svc.Create(context.Background(), support(3), CreateEventInput{
		ContractID: 404,
		StartsAt:   time.Now(),
		EndsAt:     time.Now().Add(time.Hour),
	})
	assertKind(t, err, apperror.KindAuthorization)
}

func TestEventService_Update_RoleDeniedBeforeLookup(t *testing.T) {
	events := &mockEventRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Event, error) {
			t.Fatal("lookup must not run for a role without the update grant")
			return nil, nil
		},
	}
	svc := NewEventService(events, &mockContractRepo{}, &mockUserRepo{}, authz.NewEngine(nil))

	_, err := svc.Update(context.Background(), commercial(5), 404, UpdateEventInput{})
	assertKind(t, err, apperror.KindAuthorization)
}

func TestEventService_Update_SupportOwnOnly(t *testing.T) {
	events := &mockEventRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Event, error) {
			return &Event{ID: id, ContractID: 30, SupportID: ptr(int64(4)),
				StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour), CommercialID: 9}, nil
		},
		updateFunc: func(_ context.Context, e *Event) error { return nil },
	}
	svc := NewEventService(events, eventFixtureContract(true), &mockUserRepo{}, authz.NewEngine(nil))

	// A different support collaborator is turned away.
	_, err := svc.Update(context.Background(), support(5), 40, UpdateEventInput{
		Notes: ptr("catering booked"),
	})
	assertKind(t, err, apperror.KindAuthorization)

	// The assigned support collaborator goes through.
	if _, err := svc.Update(context.Background(), support(4), 40, UpdateEventInput{
		Notes: ptr("catering booked"),
	}); err != nil {
		t.Fatalf("Update() by assigned support error = %v", err)
	}
}

func TestEventService_Update_AssignSupport(t *testing.T) {
	events := &mockEventRepo{
		findByIDFunc: func(_ context.Context, id int64) (*Event, error) {
			return &Event{ID: id, ContractID: 30,
				StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour), CommercialID: 9}, nil
		},
		updateFunc: func(_ context.Context, e *Event) error { return nil },
	}
	users := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id int64) (*User, error) {
			role := authz.RoleSupport
			if id == 99 {
				role = authz.RoleCommercial
			}
			return &User{ID: id, Username: "assignee", Role: role}, nil
		},
	}
	svc := NewEventService(events, eventFixtureContract(true), users, authz.NewEngine(nil))

	e, err := svc.Update(context.Background(), management(), 40, UpdateEventInput{
		SupportID: ptr(int64(4)),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if e.SupportID == nil || *e.SupportID != 4 {
		t.Errorf("SupportID = %v, want 4", e.SupportID)
	}

	// Only support collaborators can be assigned.
	_, err = svc.Update(context.Background(), management(), 40, UpdateEventInput{
		SupportID: ptr(int64(99)),
	})
	assertKind(t, err, apperror.KindValidation)
}
