package accounts

import "github.com/angelmondragon/staffdesk/pkg/enums"

const maskedPassword = "******"

// Intent is an admin account submit. An empty EditID creates an account; on
// update a blank Password keeps the current one.
type Intent struct {
	EditID    string `json:"editId" yaml:"editId"`
	FirstName string `json:"firstName" yaml:"firstName" validate:"required"`
	LastName  string `json:"lastName" yaml:"lastName" validate:"required"`
	Email     string `json:"email" yaml:"email" validate:"required,email"`
	Password  string `json:"password" yaml:"password"`
	Role      string `json:"role" yaml:"role" validate:"required"`
	Verified  bool   `json:"verified" yaml:"verified"`
}

// RegisterIntent is the public self-registration form.
type RegisterIntent struct {
	FirstName string `json:"firstName" yaml:"firstName" validate:"required"`
	LastName  string `json:"lastName" yaml:"lastName" validate:"required"`
	Email     string `json:"email" yaml:"email" validate:"required,email"`
	Password  string `json:"password" yaml:"password" validate:"required"`
}

// Row is one line of the accounts table. Password is always masked.
type Row struct {
	ID       string     `json:"id" yaml:"id"`
	FullName string     `json:"fullName" yaml:"fullName"`
	Email    string     `json:"email" yaml:"email"`
	Role     enums.Role `json:"role" yaml:"role"`
	Verified bool       `json:"verified" yaml:"verified"`
	Password string     `json:"password" yaml:"password"`
}

type Model struct {
	Rows []Row `json:"rows" yaml:"rows"`
}

type ProfileModel struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	FirstName string     `json:"firstName" yaml:"firstName"`
	LastName  string     `json:"lastName" yaml:"lastName"`
	Email     string     `json:"email" yaml:"email"`
	Role      enums.Role `json:"role" yaml:"role"`
}

// VerifyModel backs the verify-email page.
type VerifyModel struct {
	Email string `json:"email" yaml:"email"`
}
