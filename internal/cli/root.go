package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// Execute runs the command tree with args (os.Args[1:] when nil) and
// releases the session store afterwards, whatever the outcome.
func Execute(ctx context.Context, opts Options, args []string) error {
	root, closeApp := NewRootCmd(opts)
	defer func() {
		if err := closeApp(); err != nil {
			root.PrintErrln("Failed to close session store:", err)
		}
	}()
	if args != nil {
		root.SetArgs(args)
	}
	return root.ExecuteContext(ctx)
}

// NewRootCmd builds the examtester command tree. The returned func closes
// whatever the invoked command opened.
func NewRootCmd(opts Options) (*cobra.Command, func() error) {
	var (
		apiURL   string
		logLevel string
		app      *App
	)

	root := &cobra.Command{
		Use:           "examtester",
		Short:         "Take, upload and review timed exams from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("api-url") {
				opts.Config.APIURL = strings.TrimRight(apiURL, "/")
			}
			if cmd.Flags().Changed("log-level") {
				opts.Config.LogLevel = logLevel
			}

			var err error
			app, err = newApp(cmd.Context(), opts)
			return err
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", opts.Config.APIURL, "exam service API root")
	root.PersistentFlags().StringVar(&logLevel, "log-level", opts.Config.LogLevel, "log level (trace, debug, info, warn, error)")
	if opts.In != nil {
		root.SetIn(opts.In)
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}
	if opts.Err != nil {
		root.SetErr(opts.Err)
	}

	current := func() *App { return app }
	root.AddCommand(
		newLoginCommand(current),
		newSignupCommand(current),
		newLogoutCommand(current),
		newWhoamiCommand(current),
		newStudentCommand(current),
		newTeacherCommand(current),
		newAdminCommand(current),
	)

	closeApp := func() error {
		if app == nil {
			return nil
		}
		return app.close()
	}
	return root, closeApp
}
