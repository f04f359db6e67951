package router

// Route names a page of the application.
type Route string

const (
	RouteHome        Route = "home"
	RouteLogin       Route = "login"
	RouteRegister    Route = "register"
	RouteVerifyEmail Route = "verify-email"
	RouteProfile     Route = "profile"
	RouteRequests    Route = "requests"
	RouteEmployees   Route = "employees"
	RouteDepartments Route = "departments"
	RouteAccounts    Route = "accounts"
)

// Access is the minimum identity a route requires.
type Access int

const (
	AccessPublic Access = iota
	AccessAuthenticated
	AccessAdmin
)

var routeAccess = map[Route]Access{
	RouteHome:        AccessPublic,
	RouteLogin:       AccessPublic,
	RouteRegister:    AccessPublic,
	RouteVerifyEmail: AccessPublic,
	RouteProfile:     AccessAuthenticated,
	RouteRequests:    AccessAuthenticated,
	RouteEmployees:   AccessAdmin,
	RouteDepartments: AccessAdmin,
	RouteAccounts:    AccessAdmin,
}

// Routes lists every known route in registration order.
func Routes() []Route {
	return []Route{
		RouteHome, RouteLogin, RouteRegister, RouteVerifyEmail,
		RouteProfile, RouteRequests,
		RouteEmployees, RouteDepartments, RouteAccounts,
	}
}

// IsValid reports whether r is a known route.
func (r Route) IsValid() bool {
	_, ok := routeAccess[r]
	return ok
}

// Access returns the access level of r. Unknown routes are public.
func (r Route) Access() Access {
	return routeAccess[r]
}

// Path returns the location path of r.
func (r Route) Path() string {
	if r == RouteHome {
		return "/"
	}
	return "/" + string(r)
}
