package types

import (
	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
)

// Notice is a user-visible message with a severity.
type Notice struct {
	Level   enums.NoticeLevel `json:"level"`
	Message string            `json:"message"`
}

func Success(message string) Notice {
	return Notice{Level: enums.NoticeSuccess, Message: message}
}

func Info(message string) Notice {
	return Notice{Level: enums.NoticeInfo, Message: message}
}

func Warning(message string) Notice {
	return Notice{Level: enums.NoticeWarning, Message: message}
}

func Danger(message string) Notice {
	return Notice{Level: enums.NoticeDanger, Message: message}
}

// NoticeFromError renders a domain error as a notice. Typed errors keep their
// message and pick the level from the code metadata; anything else becomes a
// generic internal error notice.
func NoticeFromError(err error) Notice {
	if err == nil {
		return Notice{}
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		meta := pkgerrors.MetadataFor(pkgerrors.CodeInternal)
		return Notice{Level: meta.Notice, Message: meta.PublicMessage}
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	message := typed.Message()
	if message == "" {
		message = meta.PublicMessage
	}
	return Notice{Level: meta.Notice, Message: message}
}

// APIErrorFrom converts err into the envelope error shape, hiding details
// for codes that do not allow them.
func APIErrorFrom(err error) *APIError {
	if err == nil {
		return nil
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		meta := pkgerrors.MetadataFor(pkgerrors.CodeInternal)
		return &APIError{Code: string(pkgerrors.CodeInternal), Message: meta.PublicMessage}
	}
	meta := pkgerrors.MetadataFor(typed.Code())
	out := &APIError{Code: string(typed.Code()), Message: typed.Message()}
	if meta.DetailsAllowed {
		out.Details = typed.Details()
	}
	return out
}
