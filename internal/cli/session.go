package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/staffdesk/internal/accounts"
	"github.com/angelmondragon/staffdesk/internal/app"
	"github.com/angelmondragon/staffdesk/pkg/types"
)

// PageView is the data written for a navigation.
type PageView struct {
	Page  string `json:"page" yaml:"page"`
	Model any    `json:"model,omitempty" yaml:"model,omitempty"`
}

// NewNavigateCommand resolves a location through the route guard and renders
// the page that ends up active.
func NewNavigateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate [location]",
		Short: "Open a page (e.g. #/accounts)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location := "/"
			if len(args) == 1 {
				location = args[0]
			}
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				page, err := a.Guard.Navigate(ctx, location)
				env := types.Envelope{Data: PageView{Page: string(page.Page), Model: page.Model}}
				if page.Redirected {
					env.Navigation = types.NavigateTo(page.Page.Path())
				}
				if page.Notice != nil {
					env.Notices = append(env.Notices, *page.Notice)
				}
				return env, err
			})
		},
	}
}

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a verified account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Accounts.Login(ctx, email, password)
				return outcomeEnvelope(out), err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the remembered identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Accounts.Logout(ctx)
				return outcomeEnvelope(out), err
			})
		},
	}
}

func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var intent accounts.RegisterIntent
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an unverified account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Accounts.Register(ctx, intent)
				return outcomeEnvelope(out), err
			})
		},
	}
	cmd.Flags().StringVar(&intent.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&intent.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&intent.Email, "email", "", "email")
	cmd.Flags().StringVar(&intent.Password, "password", "", "password")
	return cmd
}

func NewVerifyCommand(opts *RootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the pending registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				out, err := a.Accounts.Verify(ctx, email)
				return outcomeEnvelope(out), err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email to verify; must match the pending registration")
	return cmd
}

func NewProfileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app.App) (types.Envelope, error) {
				profile, err := a.Accounts.Profile(ctx)
				if err != nil {
					return types.Envelope{}, err
				}
				return types.Envelope{Data: profile}, nil
			})
		},
	}
}
