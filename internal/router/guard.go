// Package router resolves location tokens to pages and decides, from the
// current identity, whether a page may be shown or the caller redirected.
package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/staffdesk/internal/records"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/metrics"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

const (
	loginRequiredMessage = "Please login to access this page"
	adminRequiredMessage = "Admin access required"
)

// Decision is the outcome of guarding a requested route. Page is the only
// page to activate.
type Decision struct {
	Requested  Route
	Page       Route
	Redirected bool
	Notice     *types.Notice
}

// Decide applies access control to the requested route. It has no side effects.
func Decide(requested Route, identity *records.Account) Decision {
	decision := Decision{Requested: requested}

	if !requested.IsValid() {
		decision.Page = RouteHome
		return decision
	}

	authenticated := identity != nil
	switch requested.Access() {
	case AccessAuthenticated:
		if !authenticated {
			return redirect(decision, RouteLogin, types.Warning(loginRequiredMessage))
		}
	case AccessAdmin:
		if !authenticated {
			return redirect(decision, RouteLogin, types.Warning(loginRequiredMessage))
		}
		if !identity.IsAdmin() {
			return redirect(decision, RouteHome, types.Danger(adminRequiredMessage))
		}
	}

	decision.Page = requested
	return decision
}

func redirect(decision Decision, to Route, notice types.Notice) Decision {
	decision.Page = to
	decision.Redirected = true
	decision.Notice = &notice
	return decision
}

// RenderFunc builds the model of an activated page for the given identity.
type RenderFunc func(ctx context.Context, identity *records.Account) (any, error)

// Page is an activated page with its rendered model.
type Page struct {
	Decision
	Model any
}

type identitySource interface {
	Current(ctx context.Context) *records.Account
}

// Guard owns the route table and the per-page render hooks.
type Guard struct {
	mux      *chi.Mux
	patterns map[string]Route
	renders  map[Route]RenderFunc
	session  identitySource
	logg     *logger.Logger
	metrics  *metrics.StoreMetrics
}

func NewGuard(session identitySource, logg *logger.Logger, m *metrics.StoreMetrics) (*Guard, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}
	g := &Guard{
		mux:      chi.NewRouter(),
		patterns: make(map[string]Route),
		renders:  make(map[Route]RenderFunc),
		session:  session,
		logg:     logg,
		metrics:  m,
	}
	for _, route := range Routes() {
		pattern := route.Path()
		g.patterns[pattern] = route
		g.mux.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}
	return g, nil
}

// Handle sets the render hook of route. A route without a hook activates
// with a nil model.
func (g *Guard) Handle(route Route, render RenderFunc) {
	g.renders[route] = render
}

// Resolve maps a location token (`#/x`, `/x`, `x`, with or without a
// trailing slash) to a route. The bool is false for unknown locations.
func (g *Guard) Resolve(location string) (Route, bool) {
	path := normalizeLocation(location)
	pattern := g.mux.Find(chi.NewRouteContext(), http.MethodGet, path)
	route, ok := g.patterns[pattern]
	if !ok {
		return Route(strings.TrimPrefix(path, "/")), false
	}
	return route, true
}

func normalizeLocation(location string) string {
	path := strings.TrimSpace(location)
	path = strings.TrimPrefix(path, "#")
	path = strings.Trim(path, "/")
	return "/" + strings.ToLower(path)
}

// Navigate resolves the location, guards it against the current identity
// and renders the page that ends up active.
func (g *Guard) Navigate(ctx context.Context, location string) (Page, error) {
	requested, _ := g.Resolve(location)
	identity := g.session.Current(ctx)

	decision := Decide(requested, identity)
	g.metrics.ObserveDecision(string(decision.Requested), decision.Redirected)

	ctx = g.logg.WithRoute(ctx, string(decision.Page))
	if identity != nil {
		ctx = g.logg.WithAccountID(ctx, identity.ID)
		ctx = g.logg.WithActorRole(ctx, string(identity.Role))
	}
	if decision.Redirected {
		g.logg.Info(g.logg.WithField(ctx, "requested", string(decision.Requested)), "route guard redirect")
	}

	page := Page{Decision: decision}
	render, ok := g.renders[decision.Page]
	if !ok || render == nil {
		return page, nil
	}
	model, err := render(ctx, identity)
	if err != nil {
		g.logg.Error(ctx, "render page failed", err)
		return page, err
	}
	page.Model = model
	return page, nil
}
