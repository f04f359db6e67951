// Package cli is the command line presentation layer: every command is one
// event that restores state, runs an operation, saves and renders.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/staffdesk/internal/app"
	"github.com/angelmondragon/staffdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/staffdesk/pkg/errors"
	"github.com/angelmondragon/staffdesk/pkg/logger"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags and the hooks used to build the app.
type RootOptions struct {
	Verbose     bool
	Format      string
	MetricsFile string

	Out        io.Writer
	Err        io.Writer
	LoadConfig func() (*config.Config, error)
	AppOptions []app.Option
}

// NewRootCommand creates the staffdesk root command.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}

	cmd := &cobra.Command{
		Use:           "staffdesk",
		Short:         "staffdesk - accounts, departments, employees and requests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write prometheus metrics to this textfile after the command")

	cmd.AddCommand(NewNavigateCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewAccountsCommand(opts))
	cmd.AddCommand(NewDepartmentsCommand(opts))
	cmd.AddCommand(NewEmployeesCommand(opts))
	cmd.AddCommand(NewRequestsCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter() *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: o.Out, ErrWriter: o.Err, Verbose: o.Verbose}
}

func (o *RootOptions) newLogger(cfg *config.Config) *logger.Logger {
	level := logger.ParseLevel(cfg.App.LogLevel)
	if o.Verbose {
		level = zerolog.DebugLevel
	}
	return logger.New(logger.Options{
		ServiceName: "staffdesk",
		Level:       level,
		WarnStack:   cfg.App.LogWarnStack,
		Output:      o.Err,
	})
}

type action func(ctx context.Context, a *app.App) (types.Envelope, error)

// run builds the app, runs fn and renders its envelope. Domain errors are
// rendered and then returned as an ExitError carrying their exit code.
func (o *RootOptions) run(cmd *cobra.Command, fn action) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := o.formatter()

	cfg, err := o.LoadConfig()
	if err != nil {
		return o.fail(out, WrapExitError(ExitCommandError, "loading config", err))
	}
	logg := o.newLogger(cfg)
	ctx = logg.WithField(ctx, "command", cmd.CommandPath())

	a, err := app.New(ctx, cfg, logg, o.AppOptions...)
	if err != nil {
		logg.Error(ctx, "bootstrap failed", err)
		return o.fail(out, WrapExitError(ExitCommandError, "starting staffdesk", err))
	}
	out.VerboseLog("storage driver: %s", cfg.Storage.NormalizedDriver())

	env, runErr := fn(ctx, a)
	env.Notices = append(a.StartupNotices(), env.Notices...)
	if runErr != nil {
		env.Notices = append(env.Notices, types.NoticeFromError(runErr))
		env.Error = types.APIErrorFrom(runErr)
		if !pkgerrors.MetadataFor(pkgerrors.CodeOf(runErr)).Recoverable {
			logg.Error(ctx, "command failed", runErr)
		}
	}

	var errs error
	errs = multierr.Append(errs, out.Write(env))
	if o.MetricsFile != "" {
		errs = multierr.Append(errs, a.WriteMetrics(o.MetricsFile))
	}
	errs = multierr.Append(errs, a.Close())

	if runErr != nil {
		return exitErrorFor(runErr)
	}
	if errs != nil {
		return WrapExitError(ExitFailure, "finishing command", errs)
	}
	return nil
}

func (o *RootOptions) fail(out *OutputFormatter, exitErr *ExitError) error {
	_ = out.Write(types.Envelope{
		Error: &types.APIError{Code: "COMMAND_ERROR", Message: exitErr.Error()},
	})
	return exitErr
}

func outcomeEnvelope(out types.Outcome) types.Envelope {
	return types.Envelope{Data: out.Model, Notices: out.Notices, Navigation: out.Navigation}
}
