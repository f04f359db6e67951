package departments

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct{ account *records.Account }

func (s *stubSession) Current(context.Context) *records.Account { return s.account }

type stubSaver struct {
	err   error
	calls int
}

func (s *stubSaver) Save(context.Context) error {
	s.calls++
	return s.err
}

func newService(t *testing.T, identity *records.Account) (Service, *records.Store, *stubSaver) {
	t.Helper()
	store := records.New()
	saver := &stubSaver{}
	svc, err := NewService(ServiceParams{Store: store, Saver: saver, Session: &stubSession{account: identity}})
	require.NoError(t, err)
	return svc, store, saver
}

var admin = &records.Account{ID: "admin-1", Email: "admin@example.com", Role: enums.RoleAdmin, Verified: true}

func TestSubmitCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	svc, store, saver := newService(t, admin)

	out, err := svc.Submit(ctx, Intent{Name: "  Engineering ", Description: "Software development team"})
	require.NoError(t, err)
	require.Len(t, out.Notices, 1)
	assert.Equal(t, "Department added successfully", out.Notices[0].Message)
	assert.Equal(t, 1, saver.calls)

	departments := store.ListDepartments()
	require.Len(t, departments, 1)
	assert.Equal(t, "Engineering", departments[0].Name)

	out, err = svc.Submit(ctx, Intent{EditID: departments[0].ID, Name: "Platform"})
	require.NoError(t, err)
	assert.Equal(t, "Department updated successfully", out.Notices[0].Message)
	model := out.Model.(Model)
	require.Len(t, model.Rows, 1)
	assert.Equal(t, "Platform", model.Rows[0].Name)
	assert.Equal(t, departments[0].ID, model.Rows[0].ID)
}

func TestSubmitRequiresName(t *testing.T) {
	svc, store, saver := newService(t, admin)

	_, err := svc.Submit(context.Background(), Intent{Name: "   "})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Please fill in all required fields", pkgerrors.As(err).Message())
	assert.Empty(t, store.ListDepartments())
	assert.Zero(t, saver.calls)
}

func TestDeleteBlockedByEmployees(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, admin)

	_, err := store.InsertAccount(records.Account{Email: "dev@example.com", Role: enums.RoleUser})
	require.NoError(t, err)
	hr, err := store.InsertDepartment(records.Department{Name: "HR"})
	require.NoError(t, err)
	_, err = store.InsertEmployee(records.Employee{EmployeeID: "E1", UserEmail: "dev@example.com", Position: "Dev", DepartmentID: hr.ID})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, hr.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeReferential))
	assert.Equal(t, "Cannot delete department with employees", pkgerrors.As(err).Message())
	assert.Len(t, store.ListDepartments(), 1)

	model, err := svc.RenderModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, model.Rows[0].Employees)
}

func TestDeleteEmptyDepartment(t *testing.T) {
	svc, store, _ := newService(t, admin)
	d, err := store.InsertDepartment(records.Department{Name: "Ops"})
	require.NoError(t, err)

	out, err := svc.Delete(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Department deleted", out.Notices[0].Message)
	assert.Empty(t, store.ListDepartments())
}

func TestSaveFailureBecomesWarning(t *testing.T) {
	svc, store, saver := newService(t, admin)
	saver.err = pkgerrors.Wrap(pkgerrors.CodeStorage, errors.New("disk full"), "Error saving data")

	out, err := svc.Submit(context.Background(), Intent{Name: "Ops"})
	require.NoError(t, err)
	require.Len(t, out.Notices, 2)
	assert.Equal(t, enums.NoticeWarning, out.Notices[1].Level)
	assert.Equal(t, "Error saving data", out.Notices[1].Message)
	assert.Len(t, store.ListDepartments(), 1)
}

func TestNonAdminCallersRejected(t *testing.T) {
	ctx := context.Background()

	anonymous, _, _ := newService(t, nil)
	_, err := anonymous.RenderModel(ctx)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	user, store, _ := newService(t, &records.Account{ID: "u1", Role: enums.RoleUser, Verified: true})
	_, err = user.Submit(ctx, Intent{Name: "Shadow IT"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	assert.Empty(t, store.ListDepartments())
}

func TestEditIntentPrefillsStoredDepartment(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t, admin)
	dept, err := store.InsertDepartment(records.Department{Name: "HR", Description: "Human Resources"})
	require.NoError(t, err)

	intent, err := svc.EditIntent(ctx, " "+dept.ID+" ")
	require.NoError(t, err)
	assert.Equal(t, Intent{EditID: dept.ID, Name: "HR", Description: "Human Resources"}, intent)

	_, err = svc.EditIntent(ctx, "missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	anonymous, _, _ := newService(t, nil)
	_, err = anonymous.EditIntent(ctx, dept.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}
