package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
)

func newAdminCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Args:  cobra.NoArgs,
		Short: "Admin dashboard: system-wide submissions and accounts",
	}
	cmd.AddCommand(
		newAdminSubmissionsCommand(app),
		newAdminUsersCommand(app, model.RoleStudent),
		newAdminUsersCommand(app, model.RoleTeacher),
	)
	return cmd
}

func newAdminSubmissionsCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Args:  cobra.NoArgs,
		Short: "List every submission",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathAdmin, model.RoleAdmin); err != nil {
				return err
			}

			subs, err := a.admins.Submissions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Total submissions: %d\n\n", len(subs))
			if len(subs) == 0 {
				return nil
			}

			tw := newTable(a.out, "EXAM", "STUDENT", "EMAIL", "SUBMITTED", "ANSWER")
			for _, s := range subs {
				exam := s.ExamID()
				if s.Exam != nil && s.Exam.Title != "" {
					exam = s.Exam.Title
				}
				row(tw, exam, s.StudentName(), s.StudentEmail(), formatTime(s.SubmittedAt), s.AnswerURL)
			}
			return tw.Flush()
		},
	}
}

func newAdminUsersCommand(app func() *App, role model.Role) *cobra.Command {
	return &cobra.Command{
		Use:   string(role) + "s",
		Args:  cobra.NoArgs,
		Short: fmt.Sprintf("List %s accounts", role),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathAdmin, model.RoleAdmin); err != nil {
				return err
			}

			list := a.admins.Students
			if role == model.RoleTeacher {
				list = a.admins.Teachers
			}
			users, err := list(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Total %ss: %d\n\n", role, len(users))
			if len(users) == 0 {
				return nil
			}

			tw := newTable(a.out, "ID", "NAME", "EMAIL")
			for _, u := range users {
				row(tw, u.ID, u.Name, u.Email)
			}
			return tw.Flush()
		},
	}
}
