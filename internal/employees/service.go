// Package employees orchestrates the admin employees page.
package employees

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/internal/session"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/types"
	"github.com/angelmondragon/staffdesk/pkg/validate"
)

const (
	entity            = "employee"
	unassignedDisplay = "N/A"
)

type Service interface {
	RenderModel(ctx context.Context) (Model, error)
	EditIntent(ctx context.Context, id string) (Intent, error)
	Submit(ctx context.Context, intent Intent) (types.Outcome, error)
	Delete(ctx context.Context, id string) (types.Outcome, error)
}

type employeeStore interface {
	ListAccounts() []records.Account
	ListDepartments() []records.Department
	ListEmployees() []records.Employee
	FindEmployeeByID(id string) (records.Employee, error)
	InsertEmployee(e records.Employee) (records.Employee, error)
	UpdateEmployee(id string, patch records.EmployeePatch) (records.Employee, error)
	RemoveEmployee(id string) error
}

type snapshotSaver interface {
	Save(ctx context.Context) error
}

type identitySource interface {
	Current(ctx context.Context) *records.Account
}

// ServiceParams bundles the dependencies required to build an employees service.
type ServiceParams struct {
	Store   employeeStore
	Saver   snapshotSaver
	Session identitySource
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type service struct {
	store   employeeStore
	saver   snapshotSaver
	session identitySource
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("employee store is required")
	}
	if params.Saver == nil {
		return nil, fmt.Errorf("snapshot saver is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	return &service{
		store:   params.Store,
		saver:   params.Saver,
		session: params.Session,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

func (s *service) admin(ctx context.Context) (context.Context, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAdmin(identity); err != nil {
		return ctx, err
	}
	return s.logg.WithAccountID(ctx, identity.ID), nil
}

func (s *service) RenderModel(ctx context.Context) (Model, error) {
	if _, err := s.admin(ctx); err != nil {
		return Model{}, err
	}
	return s.model(), nil
}

// model joins each employee with its account name (falling back to the
// email) and its department name (falling back to N/A).
func (s *service) model() Model {
	names := map[string]string{}
	for _, a := range s.store.ListAccounts() {
		names[a.Email] = a.FullName()
	}
	departments := s.store.ListDepartments()
	deptNames := make(map[string]string, len(departments))
	options := make([]DepartmentOption, 0, len(departments))
	for _, d := range departments {
		deptNames[d.ID] = d.Name
		options = append(options, DepartmentOption{ID: d.ID, Name: d.Name})
	}

	employees := s.store.ListEmployees()
	rows := make([]Row, 0, len(employees))
	for _, e := range employees {
		name := names[e.UserEmail]
		if name == "" {
			name = e.UserEmail
		}
		department, ok := deptNames[e.DepartmentID]
		if !ok {
			department = unassignedDisplay
		}
		rows = append(rows, Row{
			ID:           e.ID,
			EmployeeID:   e.EmployeeID,
			Name:         name,
			UserEmail:    e.UserEmail,
			Position:     e.Position,
			DepartmentID: e.DepartmentID,
			Department:   department,
			HireDate:     e.HireDate,
		})
	}
	return Model{Rows: rows, Departments: options}
}

// EditIntent prefills an update with the stored employee.
func (s *service) EditIntent(ctx context.Context, id string) (Intent, error) {
	if _, err := s.admin(ctx); err != nil {
		return Intent{}, err
	}
	employee, err := s.store.FindEmployeeByID(strings.TrimSpace(id))
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		EditID:       employee.ID,
		EmployeeID:   employee.EmployeeID,
		UserEmail:    employee.UserEmail,
		Position:     employee.Position,
		DepartmentID: employee.DepartmentID,
		HireDate:     employee.HireDate,
	}, nil
}

func (s *service) Submit(ctx context.Context, intent Intent) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	intent = normalizeIntent(intent)
	if err := validate.Struct(intent); err != nil {
		return types.Outcome{}, err
	}

	var (
		saved   records.Employee
		op      = "create"
		message = "Employee added successfully"
	)
	if intent.EditID != "" {
		op, message = "update", "Employee updated successfully"
		saved, err = s.store.UpdateEmployee(intent.EditID, records.EmployeePatch{
			EmployeeID:   &intent.EmployeeID,
			UserEmail:    &intent.UserEmail,
			Position:     &intent.Position,
			DepartmentID: &intent.DepartmentID,
			HireDate:     &intent.HireDate,
		})
	} else {
		saved, err = s.store.InsertEmployee(records.Employee{
			EmployeeID:   intent.EmployeeID,
			UserEmail:    intent.UserEmail,
			Position:     intent.Position,
			DepartmentID: intent.DepartmentID,
			HireDate:     intent.HireDate,
		})
	}
	s.metrics.ObserveMutation(entity, op, err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, saved.ID)
	s.logg.Info(ctx, "employee "+op+"d")
	return s.commit(ctx, message), nil
}

func normalizeIntent(intent Intent) Intent {
	intent.EditID = strings.TrimSpace(intent.EditID)
	intent.EmployeeID = strings.TrimSpace(intent.EmployeeID)
	intent.UserEmail = records.NormalizeEmail(intent.UserEmail)
	intent.Position = strings.TrimSpace(intent.Position)
	intent.DepartmentID = strings.TrimSpace(intent.DepartmentID)
	intent.HireDate = strings.TrimSpace(intent.HireDate)
	return intent
}

func (s *service) Delete(ctx context.Context, id string) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	id = strings.TrimSpace(id)
	err = s.store.RemoveEmployee(id)
	s.metrics.ObserveMutation(entity, "delete", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, id)
	s.logg.Info(ctx, "employee deleted")
	return s.commit(ctx, "Employee deleted"), nil
}

func (s *service) commit(ctx context.Context, message string) types.Outcome {
	saveErr := s.saver.Save(ctx)
	if saveErr != nil {
		s.logg.Warn(ctx, "employee change kept in memory only")
	}
	return types.Outcome{Model: s.model(), Notices: types.CommitNotices(message, saveErr)}
}
