package types

import (
	"errors"
	"testing"

	"github.com/angelmondragon/staffdesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
)

func TestNoticeFromError(t *testing.T) {
	n := NoticeFromError(pkgerrors.New(pkgerrors.CodeStorage, "Error saving data"))
	if n.Level != enums.NoticeWarning || n.Message != "Error saving data" {
		t.Fatalf("unexpected storage notice %+v", n)
	}

	n = NoticeFromError(pkgerrors.New(pkgerrors.CodeDuplicateKey, ""))
	if n.Level != enums.NoticeDanger || n.Message != "email already exists" {
		t.Fatalf("expected public message fallback, got %+v", n)
	}

	n = NoticeFromError(errors.New("driver exploded"))
	if n.Message != "internal error" {
		t.Fatalf("untyped errors must not leak their text, got %+v", n)
	}

	if (NoticeFromError(nil) != Notice{}) {
		t.Fatal("nil error should give an empty notice")
	}
}

func TestAPIErrorFromHidesDetails(t *testing.T) {
	withDetails := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"email": "is required"})
	if got := APIErrorFrom(withDetails); got.Details == nil {
		t.Fatal("validation details should be exposed")
	}

	hidden := pkgerrors.New(pkgerrors.CodeInvalidCredentials, "Invalid credentials or email not verified").WithDetails("unverified")
	if got := APIErrorFrom(hidden); got.Details != nil {
		t.Fatalf("credential details must be hidden, got %v", got.Details)
	}

	if APIErrorFrom(nil) != nil {
		t.Fatal("nil error should produce nil")
	}
}

func TestCommitNotices(t *testing.T) {
	notices := CommitNotices("Department added successfully", nil)
	if len(notices) != 1 || notices[0].Level != enums.NoticeSuccess {
		t.Fatalf("unexpected notices %+v", notices)
	}

	notices = CommitNotices("Department added successfully", pkgerrors.New(pkgerrors.CodeStorage, "Error saving data"))
	if len(notices) != 2 || notices[1].Level != enums.NoticeWarning || notices[1].Message != "Error saving data" {
		t.Fatalf("expected storage warning after success, got %+v", notices)
	}
}
