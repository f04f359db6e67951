package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

// Exit codes that do not come from a domain error code.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Untyped errors exit with
// ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitErrorFor maps a domain error onto the exit code of its error code.
func exitErrorFor(err error) *ExitError {
	meta := pkgerrors.MetadataFor(pkgerrors.CodeOf(err))
	return WrapExitError(meta.ExitCode, types.NoticeFromError(err).Message, err)
}

// OutputFormatter renders envelopes as JSON or human-readable text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON shape written for every command.
type CLIResponse struct {
	Status string `json:"status"`
	types.Envelope
}

// Write renders env in the configured format.
func (f *OutputFormatter) Write(env types.Envelope) error {
	if f.Format == "json" {
		status := "ok"
		if env.Error != nil {
			status = "error"
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: status, Envelope: env})
	}
	return f.writeText(env)
}

func (f *OutputFormatter) writeText(env types.Envelope) error {
	for _, n := range env.Notices {
		if _, err := fmt.Fprintf(f.Writer, "[%s] %s\n", n.Level, n.Message); err != nil {
			return err
		}
	}
	if env.Error != nil {
		if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", env.Error.Code, env.Error.Message); err != nil {
			return err
		}
		if f.Verbose && env.Error.Details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", env.Error.Details)
		}
	}
	if env.Navigation != nil {
		if _, err := fmt.Fprintf(f.Writer, "-> %s\n", env.Navigation.Location); err != nil {
			return err
		}
	}
	if env.Data == nil {
		return nil
	}
	raw, err := yaml.Marshal(env.Data)
	if err != nil {
		return fmt.Errorf("rendering data: %w", err)
	}
	_, err = io.WriteString(f.Writer, strings.TrimRight(string(raw), "\n")+"\n")
	return err
}

// VerboseLog writes a diagnostic line when verbose mode is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
