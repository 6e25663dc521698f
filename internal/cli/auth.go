package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
)

type credentials struct {
	email    string
	password string
	role     string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&c.role, "role", string(model.RoleStudent), "student, teacher or admin")
}

// collect prompts for whatever was not given as a flag.
func (c *credentials) collect(a *App) (model.Role, error) {
	var err error
	if c.email, err = a.ask("Email", c.email); err != nil {
		return "", err
	}
	if c.password, err = a.askPassword(c.password); err != nil {
		return "", err
	}
	role, ok := model.ParseRole(c.role)
	if !ok {
		return "", fmt.Errorf("unknown role %q: use student, teacher or admin", c.role)
	}
	return role, nil
}

func newLoginCommand(app func() *App) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Args:  cobra.NoArgs,
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			role, err := creds.collect(a)
			if err != nil {
				return err
			}

			sess, err := a.session.Login(cmd.Context(), creds.email, creds.password, role)
			if err != nil {
				return err
			}
			home := a.router.Navigate(guard.HomeFor(sess.User.Role))
			fmt.Fprintf(a.out, "Welcome, %s (%s).\n", sess.User.Name, sess.User.Role)
			fmt.Fprintf(a.out, "Home: %s\n", home.Path)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func newSignupCommand(app func() *App) *cobra.Command {
	var (
		creds credentials
		name  string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Args:  cobra.NoArgs,
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			var err error
			if name, err = a.ask("Name", name); err != nil {
				return err
			}
			role, err := creds.collect(a)
			if err != nil {
				return err
			}

			sess, err := a.session.Signup(cmd.Context(), creds.email, creds.password, role, name)
			if err != nil {
				return err
			}
			home := a.router.Navigate(guard.HomeFor(sess.User.Role))
			fmt.Fprintf(a.out, "Account created. Welcome, %s (%s).\n", sess.User.Name, sess.User.Role)
			fmt.Fprintf(a.out, "Home: %s\n", home.Path)
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Args:  cobra.NoArgs,
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			a.session.Logout(cmd.Context())
			a.router.Navigate(guard.PathLogin)
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Args:  cobra.NoArgs,
		Short: "Show the signed-in account",
		RunE: func(_ *cobra.Command, _ []string) error {
			a := app()
			sess := a.session.Current()
			if sess == nil {
				fmt.Fprintln(a.out, "Not logged in.")
				return nil
			}

			expiry := "unknown"
			if exp, ok := a.session.TokenExpiry(); ok {
				expiry = exp.Local().Format(time.RFC1123)
			}
			fmt.Fprintf(a.out, "Name:    %s\n", sess.User.Name)
			fmt.Fprintf(a.out, "Email:   %s\n", sess.User.Email)
			fmt.Fprintf(a.out, "Role:    %s\n", sess.User.Role)
			fmt.Fprintf(a.out, "Expires: %s\n", expiry)
			return nil
		},
	}
}
