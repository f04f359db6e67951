package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/staffdesk/internal/accounts"
	"github.com/angelmondragon/staffdesk/internal/app"
	"github.com/angelmondragon/staffdesk/internal/departments"
	"github.com/angelmondragon/staffdesk/internal/employees"
	"github.com/angelmondragon/staffdesk/internal/requests"
	"github.com/angelmondragon/staffdesk/pkg/enums"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

func listCommand(opts *RootOptions, short string, render func(ctx context.Context, a *app.App) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				model, err := render(ctx, a)
				if err != nil {
					return types.Envelope{}, err
				}
				return types.Envelope{Data: model}, nil
			})
		},
	}
}

func deleteCommand(opts *RootOptions, short string, remove func(ctx context.Context, a *app.App, id string) (types.Outcome, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := remove(ctx, a, args[0])
				return outcomeEnvelope(out), err
			})
		},
	}
}

func NewAccountsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Manage accounts (admin)"}

	cmd.AddCommand(listCommand(opts, "List accounts", func(ctx context.Context, a *app.App) (any, error) {
		return a.Accounts.RenderModel(ctx)
	}))

	var (
		editID string
		form   accounts.Intent
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Create an account, or update one with --id",
		Long:  "Create an account, or update one with --id. Updates start from the stored account and only apply the flags given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				intent := form
				if editID != "" {
					stored, err := a.Accounts.EditIntent(ctx, editID)
					if err != nil {
						return types.Envelope{}, err
					}
					intent = stored
					applyChanged(cmd, "first-name", &intent.FirstName, form.FirstName)
					applyChanged(cmd, "last-name", &intent.LastName, form.LastName)
					applyChanged(cmd, "email", &intent.Email, form.Email)
					applyChanged(cmd, "password", &intent.Password, form.Password)
					applyChanged(cmd, "role", &intent.Role, form.Role)
					applyChanged(cmd, "verified", &intent.Verified, form.Verified)
				}
				out, err := a.Accounts.Submit(ctx, intent)
				return outcomeEnvelope(out), err
			})
		},
	}
	save.Flags().StringVar(&editID, "id", "", "account id to update")
	save.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	save.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	save.Flags().StringVar(&form.Email, "email", "", "email")
	save.Flags().StringVar(&form.Password, "password", "", "password; omitted keeps the current one on update")
	save.Flags().StringVar(&form.Role, "role", string(enums.RoleUser), "Admin or User")
	save.Flags().BoolVar(&form.Verified, "verified", false, "mark the account verified")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCommand(opts, "Delete an account and its employee records", func(ctx context.Context, a *app.App, id string) (types.Outcome, error) {
		return a.Accounts.Delete(ctx, id)
	}))

	var newPassword string
	reset := &cobra.Command{
		Use:   "reset-password <id>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Accounts.ResetPassword(ctx, args[0], newPassword)
				return outcomeEnvelope(out), err
			})
		},
	}
	reset.Flags().StringVar(&newPassword, "password", "", "new password")
	cmd.AddCommand(reset)

	return cmd
}

func NewDepartmentsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "departments", Short: "Manage departments (admin)"}

	cmd.AddCommand(listCommand(opts, "List departments", func(ctx context.Context, a *app.App) (any, error) {
		return a.Departments.RenderModel(ctx)
	}))

	var (
		editID string
		form   departments.Intent
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Create a department, or update one with --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				intent := form
				if editID != "" {
					stored, err := a.Departments.EditIntent(ctx, editID)
					if err != nil {
						return types.Envelope{}, err
					}
					intent = stored
					applyChanged(cmd, "name", &intent.Name, form.Name)
					applyChanged(cmd, "description", &intent.Description, form.Description)
				}
				out, err := a.Departments.Submit(ctx, intent)
				return outcomeEnvelope(out), err
			})
		},
	}
	save.Flags().StringVar(&editID, "id", "", "department id to update")
	save.Flags().StringVar(&form.Name, "name", "", "department name")
	save.Flags().StringVar(&form.Description, "description", "", "description")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCommand(opts, "Delete a department without employees", func(ctx context.Context, a *app.App, id string) (types.Outcome, error) {
		return a.Departments.Delete(ctx, id)
	}))
	return cmd
}

func NewEmployeesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "employees", Short: "Manage employees (admin)"}

	cmd.AddCommand(listCommand(opts, "List employees", func(ctx context.Context, a *app.App) (any, error) {
		return a.Employees.RenderModel(ctx)
	}))

	var (
		editID string
		form   employees.Intent
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Create an employee, or update one with --id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				intent := form
				if editID != "" {
					stored, err := a.Employees.EditIntent(ctx, editID)
					if err != nil {
						return types.Envelope{}, err
					}
					intent = stored
					applyChanged(cmd, "employee-id", &intent.EmployeeID, form.EmployeeID)
					applyChanged(cmd, "email", &intent.UserEmail, form.UserEmail)
					applyChanged(cmd, "position", &intent.Position, form.Position)
					applyChanged(cmd, "department", &intent.DepartmentID, form.DepartmentID)
					applyChanged(cmd, "hire-date", &intent.HireDate, form.HireDate)
				}
				out, err := a.Employees.Submit(ctx, intent)
				return outcomeEnvelope(out), err
			})
		},
	}
	save.Flags().StringVar(&editID, "id", "", "employee record id to update")
	save.Flags().StringVar(&form.EmployeeID, "employee-id", "", "employee code")
	save.Flags().StringVar(&form.UserEmail, "email", "", "email of an existing account")
	save.Flags().StringVar(&form.Position, "position", "", "position")
	save.Flags().StringVar(&form.DepartmentID, "department", "", "department id; empty leaves the employee unassigned")
	save.Flags().StringVar(&form.HireDate, "hire-date", "", "hire date (YYYY-MM-DD)")
	cmd.AddCommand(save)

	cmd.AddCommand(deleteCommand(opts, "Delete an employee", func(ctx context.Context, a *app.App, id string) (types.Outcome, error) {
		return a.Employees.Delete(ctx, id)
	}))
	return cmd
}

func NewRequestsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "requests", Short: "Submit and review supply requests"}

	cmd.AddCommand(listCommand(opts, "List your requests", func(ctx context.Context, a *app.App) (any, error) {
		return a.Requests.RenderModel(ctx)
	}))

	var (
		requestType string
		rawItems    []string
	)
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a request (--item name[:qty], repeatable)",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseItems(rawItems)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Requests.Submit(ctx, requests.Intent{Type: requestType, Items: items})
				return outcomeEnvelope(out), err
			})
		},
	}
	submit.Flags().StringVar(&requestType, "type", "", "request type (e.g. Equipment, Supplies)")
	submit.Flags().StringArrayVar(&rawItems, "item", nil, "item as name[:qty]; qty defaults to 1")
	cmd.AddCommand(submit)

	var all bool
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List requests waiting for review (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := enums.RequestStatusPending
			if all {
				status = ""
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				model, err := a.Requests.ReviewModel(ctx, status)
				if err != nil {
					return types.Envelope{}, err
				}
				return types.Envelope{Data: model}, nil
			})
		},
	}
	pending.Flags().BoolVar(&all, "all", false, "include reviewed requests")
	cmd.AddCommand(pending)

	var decision string
	review := &cobra.Command{
		Use:   "review <id>",
		Short: "Approve or reject a pending request (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Requests.Review(ctx, args[0], decision)
				return outcomeEnvelope(out), err
			})
		},
	}
	review.Flags().StringVar(&decision, "decision", "", "Approved or Rejected")
	cmd.AddCommand(review)

	return cmd
}

// applyChanged copies value into dst only when the flag was set on the
// command line, so updates keep stored values for omitted flags.
func applyChanged[T any](cmd *cobra.Command, flag string, dst *T, value T) {
	if cmd.Flags().Changed(flag) {
		*dst = value
	}
}

// parseItems turns name[:qty] flags into item rows.
func parseItems(raw []string) ([]requests.ItemInput, error) {
	items := make([]requests.ItemInput, 0, len(raw))
	for _, entry := range raw {
		name, qtyText, hasQty := strings.Cut(entry, ":")
		item := requests.ItemInput{Name: strings.TrimSpace(name), Qty: 1}
		if hasQty {
			qty, err := strconv.Atoi(strings.TrimSpace(qtyText))
			if err != nil {
				return nil, fmt.Errorf("invalid quantity in item %q", entry)
			}
			item.Qty = qty
		}
		items = append(items, item)
	}
	return items, nil
}
