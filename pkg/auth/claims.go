package auth

import (
	"github.com/angelmondragon/staffdesk/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// RememberPayload captures the data available when minting a remembered-identity token.
type RememberPayload struct {
	Email string
	Role  enums.Role
}

// RememberClaims is the typed token kept in the remembered-identity slot.
// The subject carries the account email.
type RememberClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// Email returns the account email carried by the token.
func (c *RememberClaims) Email() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
