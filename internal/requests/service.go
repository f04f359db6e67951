// Package requests orchestrates supply requests: submission and listing by
// the owner, and review by admins.
package requests

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/internal/session"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/types"
	"github.com/angelmondragon/staffdesk/pkg/validate"
)

const entity = "request"

type Service interface {
	// RenderModel lists the caller's own requests in submission order.
	RenderModel(ctx context.Context) (Model, error)
	Submit(ctx context.Context, intent Intent) (types.Outcome, error)
	// ReviewModel lists every request, optionally filtered by status. Admin only.
	ReviewModel(ctx context.Context, status enums.RequestStatus) (ReviewModel, error)
	// Review approves or rejects a pending request. Admin only.
	Review(ctx context.Context, id string, decision string) (types.Outcome, error)
}

type requestStore interface {
	ListAccounts() []records.Account
	ListRequests() []records.Request
	RequestsFor(email string) []records.Request
	InsertRequest(r records.Request) (records.Request, error)
	SetRequestStatus(id string, status enums.RequestStatus) (records.Request, error)
}

type snapshotSaver interface {
	Save(ctx context.Context) error
}

type identitySource interface {
	Current(ctx context.Context) *records.Account
}

// ServiceParams bundles the dependencies required to build a requests service.
type ServiceParams struct {
	Store   requestStore
	Saver   snapshotSaver
	Session identitySource
	Logger  *logger.Logger
	Metrics *metrics.StoreMetrics
}

type service struct {
	store   requestStore
	saver   snapshotSaver
	session identitySource
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("request store is required")
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

func (s *service) RenderModel(ctx context.Context) (Model, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAuthenticated(identity); err != nil {
		return Model{}, err
	}
	return s.ownModel(identity.Email), nil
}

func (s *service) ownModel(email string) Model {
	owned := s.store.RequestsFor(email)
	rows := make([]Row, 0, len(owned))
	for _, r := range owned {
		rows = append(rows, toRow(r))
	}
	return Model{Rows: rows}
}

func toRow(r records.Request) Row {
	return Row{
		ID:      r.ID,
		Date:    r.Date,
		Type:    r.Type,
		Items:   r.Items,
		Summary: summarize(r.Items),
		Status:  r.Status,
	}
}

func summarize(items []records.Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+" ("+strconv.Itoa(item.Qty)+")")
	}
	return strings.Join(parts, ", ")
}

func (s *service) Submit(ctx context.Context, intent Intent) (types.Outcome, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAuthenticated(identity); err != nil {
		return types.Outcome{}, err
	}
	ctx = s.logg.WithAccountID(ctx, identity.ID)

	intent.Type = strings.TrimSpace(intent.Type)
	if err := validate.Struct(intent); err != nil {
		return types.Outcome{}, err
	}
	items, err := collectItems(intent.Items)
	if err != nil {
		return types.Outcome{}, err
	}

	saved, err := s.store.InsertRequest(records.Request{
		Type:          intent.Type,
		Items:         items,
		Status:        enums.RequestStatusPending,
		EmployeeEmail: identity.Email,
	})
	s.metrics.ObserveMutation(entity, "create", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, saved.ID)
	s.logg.Info(s.logg.WithField(ctx, "items", len(saved.Items)), "request submitted")

	saveErr := s.saver.Save(ctx)
	if saveErr != nil {
		s.logg.Warn(ctx, "request kept in memory only")
	}
	return types.Outcome{
		Model:   s.ownModel(identity.Email),
		Notices: types.CommitNotices("Request submitted successfully", saveErr),
	}, nil
}

// collectItems drops rows without a name and requires at least one item
// with a positive quantity.
func collectItems(inputs []ItemInput) ([]records.Item, error) {
	items := make([]records.Item, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		if in.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Item quantity must be at least 1").
				WithDetails(map[string]string{name: "must be at least 1"})
		}
		items = append(items, records.Item{Name: name, Qty: in.Qty})
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please add at least one item")
	}
	return items, nil
}

func (s *service) ReviewModel(ctx context.Context, status enums.RequestStatus) (ReviewModel, error) {
	if err := session.RequireAdmin(s.session.Current(ctx)); err != nil {
		return ReviewModel{}, err
	}
	if status != "" && !status.IsValid() {
		return ReviewModel{}, pkgerrors.New(pkgerrors.CodeValidation, "Unknown request status")
	}
	return s.reviewModel(status), nil
}

func (s *service) reviewModel(status enums.RequestStatus) ReviewModel {
	names := map[string]string{}
	for _, a := range s.store.ListAccounts() {
		names[a.Email] = a.FullName()
	}
	all := s.store.ListRequests()
	rows := make([]ReviewRow, 0, len(all))
	for _, r := range all {
		if status != "" && r.Status != status {
			continue
		}
		requester := names[r.EmployeeEmail]
		if requester == "" {
			requester = r.EmployeeEmail
		}
		rows = append(rows, ReviewRow{Row: toRow(r), Requester: requester, EmployeeEmail: r.EmployeeEmail})
	}
	return ReviewModel{Rows: rows}
}

func (s *service) Review(ctx context.Context, id string, decision string) (types.Outcome, error) {
	identity := s.session.Current(ctx)
	if err := session.RequireAdmin(identity); err != nil {
		return types.Outcome{}, err
	}
	ctx = s.logg.WithAccountID(ctx, identity.ID)

	status, err := enums.ParseRequestStatus(decision)
	if err != nil || !status.IsFinal() {
		return types.Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "Decision must be Approved or Rejected")
	}

	id = strings.TrimSpace(id)
	reviewed, err := s.store.SetRequestStatus(id, status)
	s.metrics.ObserveMutation(entity, "review", err)
	if err != nil {
		return types.Outcome{}, err
	}

	ctx = s.logg.WithEntity(ctx, entity, reviewed.ID)
	s.logg.Info(s.logg.WithField(ctx, "status", reviewed.Status.String()), "request reviewed")

	saveErr := s.saver.Save(ctx)
	if saveErr != nil {
		s.logg.Warn(ctx, "request review kept in memory only")
	}
	return types.Outcome{
		Model:   s.reviewModel(""),
		Notices: types.CommitNotices("Request "+strings.ToLower(reviewed.Status.String()), saveErr),
	}, nil
}
