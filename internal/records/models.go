package records

import (
	"strings"
	"time"

	"github.com/angelmondragon/staffdesk/pkg/enums"
)

// Account is a login identity. Password holds an encoded Argon2id hash.
type Account struct {
	ID        string     `json:"id" yaml:"id"`
	FirstName string     `json:"firstName" yaml:"firstName"`
	LastName  string     `json:"lastName" yaml:"lastName"`
	Email     string     `json:"email" yaml:"email"`
	Password  string     `json:"password" yaml:"password"`
	Role      enums.Role `json:"role" yaml:"role"`
	Verified  bool       `json:"verified" yaml:"verified"`
}

// FullName joins first and last name.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IsAdmin reports whether the account carries the Admin role.
func (a Account) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

type Department struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Employee links an account to a department. An empty DepartmentID means
// the employee is unassigned.
type Employee struct {
	ID           string `json:"id" yaml:"id"`
	EmployeeID   string `json:"employeeId" yaml:"employeeId"`
	UserEmail    string `json:"userEmail" yaml:"userEmail"`
	Position     string `json:"position" yaml:"position"`
	DepartmentID string `json:"departmentId" yaml:"departmentId"`
	HireDate     string `json:"hireDate" yaml:"hireDate"`
}

type Item struct {
	Name string `json:"name" yaml:"name"`
	Qty  int    `json:"qty" yaml:"qty"`
}

// Request is a supply or equipment request owned by EmployeeEmail.
type Request struct {
	ID            string              `json:"id" yaml:"id"`
	Type          string              `json:"type" yaml:"type"`
	Items         []Item              `json:"items" yaml:"items"`
	Status        enums.RequestStatus `json:"status" yaml:"status"`
	Date          time.Time           `json:"date" yaml:"date"`
	EmployeeEmail string              `json:"employeeEmail" yaml:"employeeEmail"`
}

// AccountPatch replaces the non-nil fields of an account.
type AccountPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Role      *enums.Role
	Verified  *bool
}

type DepartmentPatch struct {
	Name        *string
	Description *string
}

type EmployeePatch struct {
	EmployeeID   *string
	UserEmail    *string
	Position     *string
	DepartmentID *string
	HireDate     *string
}

// Snapshot is the serialized form of the whole store.
type Snapshot struct {
	Accounts    []Account    `json:"accounts" yaml:"accounts"`
	Departments []Department `json:"departments" yaml:"departments"`
	Employees   []Employee   `json:"employees" yaml:"employees"`
	Requests    []Request    `json:"requests" yaml:"requests"`
}

// NormalizeEmail trims and lower-cases an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneRequest(r Request) Request {
	if r.Items != nil {
		items := make([]Item, len(r.Items))
		copy(items, r.Items)
		r.Items = items
	}
	return r
}

func identity[T any](v T) T { return v }
