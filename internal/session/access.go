package session

import (
	"github.com/angelmondragon/staffdesk/internal/records"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
)

// RequireAuthenticated fails with UNAUTHORIZED when nobody is logged in.
func RequireAuthenticated(identity *records.Account) error {
	if identity == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Please login to access this page")
	}
	return nil
}

// RequireAdmin fails with UNAUTHORIZED for anonymous callers and FORBIDDEN
// for authenticated non-admins.
func RequireAdmin(identity *records.Account) error {
	if err := RequireAuthenticated(identity); err != nil {
		return err
	}
	if !identity.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Admin access required")
	}
	return nil
}
