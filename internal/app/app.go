// Package app wires configuration, storage, the record store, the session
// and the page orchestrators into one process root.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/staffdesk/internal/accounts"
	"github.com/angelmondragon/staffdesk/internal/departments"
	"github.com/angelmondragon/staffdesk/internal/employees"
	"github.com/angelmondragon/staffdesk/internal/persistence"
	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/internal/requests"
	"github.com/angelmondragon/staffdesk/internal/router"
	"github.com/angelmondragon/staffdesk/internal/session"
	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/kv"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

// App is one fully wired process. Build it with New and release it with Close.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.StoreMetrics

	Slots       kv.Store
	Store       *records.Store
	Persistence *persistence.Adapter
	Session     *session.Manager
	Guard       *router.Guard

	Accounts    accounts.Service
	Departments departments.Service
	Employees   employees.Service
	Requests    requests.Service

	startup []types.Notice
}

type options struct {
	slots     kv.Store
	storeOpts []records.Option
	registry  *prometheus.Registry
}

// Option customizes New.
type Option func(*options)

// WithSlots uses slots instead of opening the configured storage driver.
func WithSlots(slots kv.Store) Option {
	return func(o *options) { o.slots = slots }
}

// WithStoreOptions forwards options to the record store.
func WithStoreOptions(opts ...records.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New opens storage, loads (or seeds) the snapshot, restores the remembered
// identity and builds every page service. Storage read failures during
// start-up do not fail New; they are reported by StartupNotices.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	a := &App{Config: cfg, Logger: logg, Registry: o.registry}
	a.Metrics = metrics.NewStoreMetrics(o.registry)

	slots := o.slots
	if slots == nil {
		opened, err := kv.Open(ctx, cfg, logg)
		if err != nil {
			return nil, fmt.Errorf("opening slot storage: %w", err)
		}
		slots = opened
	}
	a.Slots = kv.WithMetrics(slots, a.Metrics)
	a.Store = records.New(o.storeOpts...)

	if err := a.wire(); err != nil {
		_ = a.Close()
		return nil, err
	}

	source, err := a.Persistence.Load(ctx)
	if err != nil {
		a.startup = append(a.startup, types.NoticeFromError(err))
	}
	counts := a.Store.Counts()
	logg.Debug(logg.WithFields(ctx, map[string]any{
		"source":      string(source),
		"accounts":    counts["accounts"],
		"departments": counts["departments"],
		"employees":   counts["employees"],
		"requests":    counts["requests"],
	}), "record store loaded")

	if _, err := a.Session.Restore(ctx); err != nil {
		a.startup = append(a.startup, types.NoticeFromError(err))
	}
	return a, nil
}

func (a *App) wire() error {
	var err error
	cfg, logg := a.Config, a.Logger

	a.Persistence, err = persistence.NewAdapter(a.Slots, a.Store, cfg, logg)
	if err != nil {
		return fmt.Errorf("persistence adapter: %w", err)
	}

	a.Session, err = session.NewManager(session.ManagerParams{
		Accounts:   a.Store,
		Slots:      a.Slots,
		Config:     cfg.Session,
		TokenKey:   cfg.Storage.TokenKey,
		PendingKey: cfg.Storage.PendingKey,
		Logger:     logg,
		Metrics:    a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	a.Accounts, err = accounts.NewService(accounts.ServiceParams{
		Store:        a.Store,
		Saver:        a.Persistence,
		Session:      a.Session,
		Password:     cfg.Password,
		Registration: cfg.Registration,
		Logger:       logg,
		Metrics:      a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("accounts service: %w", err)
	}

	a.Departments, err = departments.NewService(departments.ServiceParams{
		Store: a.Store, Saver: a.Persistence, Session: a.Session, Logger: logg, Metrics: a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("departments service: %w", err)
	}

	a.Employees, err = employees.NewService(employees.ServiceParams{
		Store: a.Store, Saver: a.Persistence, Session: a.Session, Logger: logg, Metrics: a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("employees service: %w", err)
	}

	a.Requests, err = requests.NewService(requests.ServiceParams{
		Store: a.Store, Saver: a.Persistence, Session: a.Session, Logger: logg, Metrics: a.Metrics,
	})
	if err != nil {
		return fmt.Errorf("requests service: %w", err)
	}

	a.Guard, err = router.NewGuard(a.Session, logg, a.Metrics)
	if err != nil {
		return fmt.Errorf("route guard: %w", err)
	}
	a.registerPages()
	return nil
}

// HomeModel backs the landing page.
type HomeModel struct {
	Authenticated bool           `json:"authenticated" yaml:"authenticated"`
	Name          string         `json:"name,omitempty" yaml:"name,omitempty"`
	IsAdmin       bool           `json:"isAdmin" yaml:"isAdmin"`
	Counts        map[string]int `json:"counts,omitempty" yaml:"counts,omitempty"`
}

func (a *App) registerPages() {
	a.Guard.Handle(router.RouteHome, func(_ context.Context, identity *records.Account) (any, error) {
		if identity == nil {
			return HomeModel{}, nil
		}
		model := HomeModel{Authenticated: true, Name: identity.FullName(), IsAdmin: identity.IsAdmin()}
		if model.IsAdmin {
			model.Counts = a.Store.Counts()
		}
		return model, nil
	})
	a.Guard.Handle(router.RouteVerifyEmail, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Accounts.VerifyModel(ctx)
	})
	a.Guard.Handle(router.RouteProfile, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Accounts.Profile(ctx)
	})
	a.Guard.Handle(router.RouteRequests, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Requests.RenderModel(ctx)
	})
	a.Guard.Handle(router.RouteEmployees, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Employees.RenderModel(ctx)
	})
	a.Guard.Handle(router.RouteDepartments, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Departments.RenderModel(ctx)
	})
	a.Guard.Handle(router.RouteAccounts, func(ctx context.Context, _ *records.Account) (any, error) {
		return a.Accounts.RenderModel(ctx)
	})
}

// StartupNotices returns the warnings raised while loading state.
func (a *App) StartupNotices() []types.Notice {
	out := make([]types.Notice, len(a.startup))
	copy(out, a.startup)
	return out
}

// WriteMetrics dumps the process metrics to path in textfile format.
func (a *App) WriteMetrics(path string) error {
	return metrics.WriteTextfile(a.Registry, path)
}

func (a *App) Close() error {
	var err error
	if a.Slots != nil {
		err = multierr.Append(err, a.Slots.Close())
	}
	return err
}
