// Package departments orchestrates the admin departments page.
package departments

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

const entity = "department"

// Service defines the departments page operations. All of them require an
// admin identity.
type Service interface {
	RenderModel(ctx context.Context) (Model, error)
	EditIntent(ctx context.Context, id string) (Intent, error)
	Submit(ctx context.Context, intent Intent) (types.Outcome, error)
	Delete(ctx context.Context, id string) (types.Outcome, error)
}

type departmentStore interface {
	ListDepartments() []records.Department
	ListEmployees() []records.Employee
	FindDepartmentByID(id string) (records.Department, error)
	InsertDepartment(d records.Department) (records.Department, error)
	UpdateDepartment(id string, patch records.DepartmentPatch) (records.Department, error)
	RemoveDepartment(id string) error
}

type snapshotSaver interface {
	Save(ctx context.Context) error
}

type identitySource interface {
	Current(ctx context.Context) *records.Account
}

// ServiceParams bundles the dependencies required to build a departments service.
type ServiceParams struct {
	Store   departmentStore
	Saver   snapshotSaver
	Session identitySource
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type service struct {
	store   departmentStore
	saver   snapshotSaver
	session identitySource
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("department store is required")
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

func (s *service) model() Model {
	counts := map[string]int{}
	for _, e := range s.store.ListEmployees() {
		counts[e.DepartmentID]++
	}
	departments := s.store.ListDepartments()
	rows := make([]Row, 0, len(departments))
	for _, d := range departments {
		rows = append(rows, Row{ID: d.ID, Name: d.Name, Description: d.Description, Employees: counts[d.ID]})
	}
	return Model{Rows: rows}
}

// EditIntent prefills an update with the stored department.
func (s *service) EditIntent(ctx context.Context, id string) (Intent, error) {
	if _, err := s.admin(ctx); err != nil {
		return Intent{}, err
	}
	department, err := s.store.FindDepartmentByID(strings.TrimSpace(id))
	if err != nil {
		return Intent{}, err
	}
	return Intent{EditID: department.ID, Name: department.Name, Description: department.Description}, nil
}

func (s *service) Submit(ctx context.Context, intent Intent) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	intent.EditID = strings.TrimSpace(intent.EditID)
	intent.Name = strings.TrimSpace(intent.Name)
	intent.Description = strings.TrimSpace(intent.Description)
	if err := validate.Struct(intent); err != nil {
		return types.Outcome{}, err
	}

	var (
		saved   records.Department
		op      = "create"
		message = "Department added successfully"
	)
	if intent.EditID != "" {
		op, message = "update", "Department updated successfully"
		saved, err = s.store.UpdateDepartment(intent.EditID, records.DepartmentPatch{
			Name:        &intent.Name,
			Description: &intent.Description,
		})
	} else {
		saved, err = s.store.InsertDepartment(records.Department{Name: intent.Name, Description: intent.Description})
	}
	s.metrics.ObserveMutation(entity, op, err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, saved.ID)
	s.logg.Info(ctx, "department "+op+"d")
	return s.commit(ctx, message), nil
}

func (s *service) Delete(ctx context.Context, id string) (types.Outcome, error) {
	ctx, err := s.admin(ctx)
	if err != nil {
		return types.Outcome{}, err
	}

	id = strings.TrimSpace(id)
	err = s.store.RemoveDepartment(id)
	s.metrics.ObserveMutation(entity, "delete", err)
	ctx = s.logg.WithEntity(ctx, entity, id)
	if err != nil {
		s.logg.Info(s.logg.WithField(ctx, "reason", err.Error()), "department delete refused")
		return types.Outcome{}, err
	}

	s.logg.Info(ctx, "department deleted")
	return s.commit(ctx, "Department deleted"), nil
}

func (s *service) commit(ctx context.Context, message string) types.Outcome {
	saveErr := s.saver.Save(ctx)
	if saveErr != nil {
		s.logg.Warn(ctx, "department change kept in memory only")
	}
	return types.Outcome{Model: s.model(), Notices: types.CommitNotices(message, saveErr)}
}
