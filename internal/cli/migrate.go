package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/staffdesk/pkg/config"
	"github.com/angelmondragon/staffdesk/pkg/db"
	"github.com/angelmondragon/staffdesk/pkg/migrate"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

// MigrationStatus is the data written by the migrate command.
type MigrationStatus struct {
	Command string `json:"command" yaml:"command"`
	Driver  string `json:"driver,omitempty" yaml:"driver,omitempty"`
	Version int64  `json:"version" yaml:"version"`
}

// NewMigrateCommand runs the slot table migrations against the sqlite or
// postgres storage driver.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|validate]",
		Short:     "Run slot table migrations for the sql storage drivers",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "validate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			out := opts.formatter()

			if command == "validate" {
				if err := migrate.Validate(); err != nil {
					return opts.fail(out, WrapExitError(ExitFailure, "migration validation failed", err))
				}
				return out.Write(types.Envelope{
					Data:    MigrationStatus{Command: command},
					Notices: []types.Notice{types.Success("migration validation passed")},
				})
			}

			cfg, err := opts.LoadConfig()
			if err != nil {
				return opts.fail(out, WrapExitError(ExitCommandError, "loading config", err))
			}
			driver := cfg.Storage.NormalizedDriver()
			if driver != config.StorageDriverSQLite && driver != config.StorageDriverPostgres {
				return opts.fail(out, NewExitError(ExitCommandError, fmt.Sprintf("storage driver %q has no migrations", driver)))
			}

			ctx := cmd.Context()
			logg := opts.newLogger(cfg)
			ctx = logg.WithFields(ctx, map[string]any{"cmd": command, "driver": driver})

			client, err := db.New(ctx, driver, cfg.DB, logg)
			if err != nil {
				return opts.fail(out, WrapExitError(ExitCommandError, "opening database", err))
			}
			defer client.Close()
			sqlDB, err := client.SQL()
			if err != nil {
				return opts.fail(out, WrapExitError(ExitCommandError, "extracting sql.DB", err))
			}

			if command != "version" {
				if err := migrate.Run(ctx, sqlDB, client.Dialect(), command); err != nil {
					logg.Error(ctx, "migration failed", err)
					return opts.fail(out, WrapExitError(ExitFailure, "goose "+command+" failed", err))
				}
			}
			version, err := migrate.Version(ctx, sqlDB, client.Dialect())
			if err != nil {
				return opts.fail(out, WrapExitError(ExitFailure, "reading schema version", err))
			}
			logg.Info(ctx, "migrate finished")
			return out.Write(types.Envelope{Data: MigrationStatus{Command: command, Driver: driver, Version: version}})
		},
	}
}
