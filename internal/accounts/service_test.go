package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/internal/router"
	"github.com/angelmondragon/staffdesk/internal/session"
	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/kv"
	"github.com/angelmondragon/staffdesk/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var passwordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
	MinLength:        6,
}

type stubSaver struct {
	err   error
	calls int
}

func (s *stubSaver) Save(context.Context) error {
	s.calls++
	return s.err
}

type fixture struct {
	store   *records.Store
	slots   *kv.Memory
	saver   *stubSaver
	session *session.Manager
	svc     Service
	admin   records.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := records.New()
	hash, err := security.HashPassword("Password123!", passwordCfg)
	require.NoError(t, err)
	admin, err := store.InsertAccount(records.Account{
		FirstName: "Admin", LastName: "User", Email: "admin@example.com",
		Password: hash, Role: enums.RoleAdmin, Verified: true,
	})
	require.NoError(t, err)

	slots := kv.NewMemory()
	manager, err := session.NewManager(session.ManagerParams{
		Accounts: store,
		Slots:    slots,
		Config:   config.SessionConfig{Secret: "test-secret", Issuer: "staffdesk"},
	})
	require.NoError(t, err)

	saver := &stubSaver{}
	svc, err := NewService(ServiceParams{
		Store:        store,
		Saver:        saver,
		Session:      manager,
		Password:     passwordCfg,
		Registration: config.RegistrationConfig{DefaultRole: "User"},
	})
	require.NoError(t, err)
	return &fixture{store: store, slots: slots, saver: saver, session: manager, svc: svc, admin: admin}
}

func (f *fixture) loginAdmin(t *testing.T) {
	t.Helper()
	_, err := f.svc.Login(context.Background(), "admin@example.com", "Password123!")
	require.NoError(t, err)
}

func TestNewServiceRejectsUnknownDefaultRole(t *testing.T) {
	_, err := NewService(ServiceParams{
		Store: records.New(), Saver: &stubSaver{}, Session: &session.Manager{},
		Registration: config.RegistrationConfig{DefaultRole: "Owner"},
	})
	assert.Error(t, err)
}

func TestLoginWithSeededAdmin(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Login(context.Background(), "Admin@Example.com", "Password123!")
	require.NoError(t, err)
	assert.Equal(t, "Login successful!", out.Notices[0].Message)
	require.NotNil(t, out.Navigation)
	assert.Equal(t, "/profile", out.Navigation.Location)

	profile, err := f.svc.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Admin User", profile.Name)
	assert.Equal(t, enums.RoleAdmin, profile.Role)
}

func TestRegistrationVerificationAndAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.svc.Register(ctx, RegisterIntent{FirstName: "New", LastName: "Person", Email: "New@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful! Please verify your email.", out.Notices[0].Message)
	assert.Equal(t, "/verify-email", out.Navigation.Location)

	created, err := f.store.FindAccountByEmail("new@example.com")
	require.NoError(t, err)
	assert.False(t, created.Verified)
	assert.Equal(t, enums.RoleUser, created.Role)

	_, err = f.svc.Login(ctx, "new@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials or email not verified", pkgerrors.As(err).Message())

	model, err := f.svc.VerifyModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", model.Email)

	out, err = f.svc.Verify(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully!", out.Notices[0].Message)
	assert.Equal(t, "/login", out.Navigation.Location)
	pending, err := f.session.UnverifiedEmail(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.Login(ctx, "new@example.com", "secret1")
	require.NoError(t, err)

	decision := router.Decide(router.RouteAccounts, f.session.Current(ctx))
	assert.Equal(t, router.RouteHome, decision.Page)
	assert.Equal(t, "Admin access required", decision.Notice.Message)

	_, err = f.svc.RenderModel(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterIntent{FirstName: "A", LastName: "B", Email: "ADMIN@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicateKey))
	assert.Equal(t, "Email already registered", pkgerrors.As(err).Message())
	assert.Len(t, f.store.ListAccounts(), 1)
}

func TestSubmitCreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	_, err := f.svc.Submit(ctx, Intent{FirstName: "Uma", LastName: "User", Email: "uma@example.com", Role: "User"})
	require.Error(t, err)
	assert.Equal(t, "Password is required for new accounts", pkgerrors.As(err).Message())

	out, err := f.svc.Submit(ctx, Intent{FirstName: "Uma", LastName: "User", Email: "uma@example.com", Password: "secret1", Role: "user", Verified: true})
	require.NoError(t, err)
	assert.Equal(t, "Account created successfully", out.Notices[0].Message)

	rows := out.Model.(Model).Rows
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, maskedPassword, row.Password)
	}

	_, err = f.svc.Submit(ctx, Intent{FirstName: "Dup", LastName: "User", Email: " UMA@example.com", Password: "secret1", Role: "User"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicateKey))
	assert.Equal(t, "Email already exists", pkgerrors.As(err).Message())
	assert.Len(t, f.store.ListAccounts(), 2)
}

func TestSubmitUpdateKeepsPasswordWhenBlank(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	before, err := f.store.FindAccountByID(f.admin.ID)
	require.NoError(t, err)

	out, err := f.svc.Submit(ctx, Intent{EditID: f.admin.ID, FirstName: "Chief", LastName: "Admin", Email: "chief@example.com", Role: "Admin", Verified: true})
	require.NoError(t, err)
	assert.Equal(t, "Account updated successfully", out.Notices[0].Message)

	after, err := f.store.FindAccountByID(f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Password, after.Password)
	assert.Equal(t, "chief@example.com", after.Email)

	current := f.session.Current(ctx)
	require.NotNil(t, current)
	assert.Equal(t, "Chief", current.FirstName)

	restarted, err := session.NewManager(session.ManagerParams{
		Accounts: f.store, Slots: f.slots, Config: config.SessionConfig{Secret: "test-secret", Issuer: "staffdesk"},
	})
	require.NoError(t, err)
	restored, err := restarted.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, f.admin.ID, restored.ID)
}

func TestDeleteCascadesAndRefusesSelf(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	victim, err := f.store.InsertAccount(records.Account{Email: "victim@example.com", Role: enums.RoleUser})
	require.NoError(t, err)
	_, err = f.store.InsertEmployee(records.Employee{EmployeeID: "E1", UserEmail: victim.Email, Position: "Dev"})
	require.NoError(t, err)
	_, err = f.store.InsertEmployee(records.Employee{EmployeeID: "E2", UserEmail: "admin@example.com", Position: "Boss"})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, f.admin.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeSelfDeletion))
	assert.Equal(t, "Cannot delete your own account", pkgerrors.As(err).Message())
	assert.Len(t, f.store.ListAccounts(), 2)
	assert.Len(t, f.store.ListEmployees(), 2)

	out, err := f.svc.Delete(ctx, victim.ID)
	require.NoError(t, err)
	assert.Equal(t, "Account deleted", out.Notices[0].Message)
	employees := f.store.ListEmployees()
	require.Len(t, employees, 1)
	assert.Equal(t, "admin@example.com", employees[0].UserEmail)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	_, err := f.svc.ResetPassword(ctx, f.admin.ID, "short")
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters", pkgerrors.As(err).Message())

	out, err := f.svc.ResetPassword(ctx, f.admin.ID, "brand-new")
	require.NoError(t, err)
	assert.Equal(t, "Password reset successfully", out.Notices[0].Message)

	require.NoError(t, f.session.Logout(ctx))
	_, err = f.svc.Login(ctx, "admin@example.com", "brand-new")
	require.NoError(t, err)
}

func TestLogoutNavigatesHome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	out, err := f.svc.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Logged out successfully", out.Notices[0].Message)
	assert.Equal(t, "/", out.Navigation.Location)

	_, err = f.svc.Profile(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	decision := router.Decide(router.RouteProfile, f.session.Current(ctx))
	assert.Equal(t, router.RouteLogin, decision.Page)
	assert.Equal(t, "Please login to access this page", decision.Notice.Message)
}

func TestSaveFailureKeepsChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)
	f.saver.err = pkgerrors.Wrap(pkgerrors.CodeStorage, errors.New("quota"), "Error saving data")

	out, err := f.svc.Submit(ctx, Intent{FirstName: "Uma", LastName: "User", Email: "uma@example.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	require.Len(t, out.Notices, 2)
	assert.Equal(t, enums.NoticeWarning, out.Notices[1].Level)
	_, err = f.store.FindAccountByEmail("uma@example.com")
	assert.NoError(t, err)
}

func TestSubmitRefusesSelfLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	tests := []struct {
		name     string
		role     string
		verified bool
	}{
		{name: "demote", role: "User", verified: true},
		{name: "unverify", role: "Admin", verified: false},
		{name: "both", role: "User", verified: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, Intent{EditID: f.admin.ID, FirstName: "Renamed", LastName: "Admin", Email: "admin@example.com", Role: tt.role, Verified: tt.verified})
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeSelfLockout))

			stored, err := f.store.FindAccountByID(f.admin.ID)
			require.NoError(t, err)
			assert.Equal(t, "Admin", stored.FirstName)
			assert.Equal(t, enums.RoleAdmin, stored.Role)
			assert.True(t, stored.Verified)
		})
	}

	require.NotNil(t, f.session.Current(ctx))
	_, err := f.svc.RenderModel(ctx)
	assert.NoError(t, err)
}

func TestSubmitMayDemoteOtherAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	other, err := f.store.InsertAccount(records.Account{FirstName: "Second", LastName: "Admin", Email: "second@example.com", Role: enums.RoleAdmin, Verified: true})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, Intent{EditID: other.ID, FirstName: "Second", LastName: "Admin", Email: "second@example.com", Role: "User"})
	require.NoError(t, err)
	stored, err := f.store.FindAccountByID(other.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RoleUser, stored.Role)
	assert.False(t, stored.Verified)
}

func TestEditIntentPrefillsStoredAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.EditIntent(ctx, f.admin.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	f.loginAdmin(t)
	intent, err := f.svc.EditIntent(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, Intent{
		EditID: f.admin.ID, FirstName: "Admin", LastName: "User", Email: "admin@example.com",
		Role: "Admin", Verified: true,
	}, intent)

	intent.FirstName = "Renamed"
	_, err = f.svc.Submit(ctx, intent)
	require.NoError(t, err)
	stored, err := f.store.FindAccountByID(f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.FirstName)
	assert.Equal(t, enums.RoleAdmin, stored.Role)
	assert.True(t, stored.Verified)

	_, err = f.svc.EditIntent(ctx, "missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestVerifyOnlyAcceptsPendingEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.loginAdmin(t)

	held, err := f.svc.Submit(ctx, Intent{FirstName: "Held", LastName: "Back", Email: "held@example.com", Password: "secret1", Role: "User"})
	require.NoError(t, err)
	require.NotNil(t, held.Model)
	_, err = f.svc.Logout(ctx)
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "held@example.com")
	require.Error(t, err)
	assert.Equal(t, "No email awaiting verification", pkgerrors.As(err).Message())

	_, err = f.svc.Register(ctx, RegisterIntent{FirstName: "New", LastName: "Person", Email: "new@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.svc.Verify(ctx, "held@example.com")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Email is not awaiting verification", pkgerrors.As(err).Message())

	account, err := f.store.FindAccountByEmail("held@example.com")
	require.NoError(t, err)
	assert.False(t, account.Verified)
	_, err = f.svc.Login(ctx, "held@example.com", "secret1")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidCredentials))

	_, err = f.svc.Verify(ctx, " NEW@example.com ")
	require.NoError(t, err)
	registered, err := f.store.FindAccountByEmail("new@example.com")
	require.NoError(t, err)
	assert.True(t, registered.Verified)
}
