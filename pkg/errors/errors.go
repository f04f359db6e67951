package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/angelmondragon/staffdesk/pkg/enums"
)

type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeDuplicateKey       Code = "DUPLICATE_KEY"
	CodeReferential        Code = "REFERENTIAL_CONSTRAINT"
	CodeSelfDeletion       Code = "SELF_DELETION"
	CodeSelfLockout        Code = "SELF_LOCKOUT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeStorage            Code = "STORAGE_FAILURE"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeStateConflict      Code = "STATE_CONFLICT"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Metadata describes how a code is surfaced to the presentation layer.
type Metadata struct {
	Notice         enums.NoticeLevel
	Recoverable    bool
	PublicMessage  string
	DetailsAllowed bool
	ExitCode       int
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		ExitCode:       3,
	},
	CodeDuplicateKey: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "email already exists",
		DetailsAllowed: true,
		ExitCode:       3,
	},
	CodeReferential: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "record is still referenced",
		DetailsAllowed: true,
		ExitCode:       3,
	},
	CodeSelfDeletion: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "cannot delete your own account",
		DetailsAllowed: false,
		ExitCode:       3,
	},
	CodeSelfLockout: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "cannot remove your own admin access",
		DetailsAllowed: false,
		ExitCode:       3,
	},
	CodeInvalidCredentials: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "invalid credentials or email not verified",
		DetailsAllowed: false,
		ExitCode:       4,
	},
	CodeStorage: {
		Notice:         enums.NoticeWarning,
		Recoverable:    true,
		PublicMessage:  "error saving data",
		DetailsAllowed: false,
		ExitCode:       5,
	},
	CodeUnauthorized: {
		Notice:         enums.NoticeWarning,
		Recoverable:    true,
		PublicMessage:  "please login to access this page",
		DetailsAllowed: false,
		ExitCode:       4,
	},
	CodeForbidden: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "admin access required",
		DetailsAllowed: false,
		ExitCode:       4,
	},
	CodeNotFound: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "record not found",
		DetailsAllowed: false,
		ExitCode:       3,
	},
	CodeStateConflict: {
		Notice:         enums.NoticeDanger,
		Recoverable:    true,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
		ExitCode:       3,
	},
	CodeInternal: {
		Notice:         enums.NoticeDanger,
		Recoverable:    false,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
		ExitCode:       1,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
