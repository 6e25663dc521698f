package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
)

func newTeacherCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Args:  cobra.NoArgs,
		Short: "Teacher dashboard: upload and manage exams, review submissions",
	}
	cmd.AddCommand(
		newTeacherExamsCommand(app),
		newTeacherUploadCommand(app),
		newTeacherToggleCommand(app, "cancel"),
		newTeacherToggleCommand(app, "activate"),
		newTeacherSubmissionsCommand(app),
		newTeacherClearCommand(app),
		newTeacherRestoreCommand(app),
	)
	return cmd
}

func newTeacherExamsCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exams",
		Args:  cobra.NoArgs,
		Short: "List your exams with submission counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathTeacher, model.RoleTeacher); err != nil {
				return err
			}

			d, err := a.teachers.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			submitted := fmt.Sprint(len(d.Submissions))
			if d.SubmissionsHidden {
				submitted = "Hidden"
			}
			fmt.Fprintf(a.out, "Exams: %d  Active: %d  Submissions: %s\n\n", len(d.Exams), d.ActiveExams(), submitted)
			if len(d.Exams) == 0 {
				fmt.Fprintln(a.out, "No exams uploaded yet.")
				return nil
			}

			tw := newTable(a.out, "ID", "TITLE", "DURATION", "CREATED", "STATUS", "SUBMISSIONS")
			for _, e := range d.Exams {
				status := "Active"
				if !e.IsActive {
					status = "Cancelled"
				}
				count := fmt.Sprint(d.CountFor(e.ID))
				if d.SubmissionsHidden {
					count = "-"
				}
				row(tw, e.ID, e.Title, plural(e.DurationMinutes, "minute"), formatTime(e.CreatedAt), status, count)
			}
			return tw.Flush()
		},
	}
}

func newTeacherUploadCommand(app func() *App) *cobra.Command {
	var req model.CreateExamRequest

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Args:  cobra.ExactArgs(1),
		Short: "Upload an exam paper",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enter(guard.PathTeacher, model.RoleTeacher); err != nil {
				return err
			}
			req.ExamFile = args[0]

			var err error
			if req.Title, err = a.ask("Exam title", req.Title); err != nil {
				return err
			}
			exam, err := a.teachers.UploadExam(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Exam uploaded successfully!")
			fmt.Fprintf(a.out, "ID: %s  Title: %s  Duration: %s\n", exam.ID, exam.Title, plural(exam.DurationMinutes, "minute"))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "exam title (prompted when omitted)")
	cmd.Flags().IntVar(&req.DurationMinutes, "duration", 50, "duration in minutes")
	return cmd
}

// newTeacherToggleCommand builds "cancel" and "activate", which differ only
// in wording and the service call.
func newTeacherToggleCommand(app func() *App, action string) *cobra.Command {
	var yes bool

	short := "Hide an exam from students"
	question := "Cancel this exam? Students will no longer see or attempt it; its data is kept."
	if action == "activate" {
		short = "Make a cancelled exam visible to students again"
		question = "Reactivate this exam? Students will be able to attempt it again."
	}

	cmd := &cobra.Command{
		Use:   action + " <examId>",
		Args:  cobra.ExactArgs(1),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enter(guard.PathTeacher, model.RoleTeacher); err != nil {
				return err
			}
			if !yes && !a.confirm(question) {
				fmt.Fprintln(a.out, "Nothing changed.")
				return nil
			}

			run := a.teachers.CancelExam
			if action == "activate" {
				run = a.teachers.ActivateExam
			}
			msg, err := run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newTeacherSubmissionsCommand(app func() *App) *cobra.Command {
	var examID string

	cmd := &cobra.Command{
		Use:   "submissions",
		Args:  cobra.NoArgs,
		Short: "Review submissions, grouped by exam or for one exam",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathViewSubmissions, model.RoleTeacher); err != nil {
				return err
			}
			ctx := cmd.Context()

			if examID != "" {
				subs, err := a.teachers.SubmissionsForExam(ctx, examID)
				if err != nil {
					return err
				}
				if len(subs) == 0 {
					fmt.Fprintln(a.out, "No submissions yet for this exam.")
					return nil
				}
				return a.printSubmissions(subs)
			}

			groups, err := a.teachers.SubmissionsByExam(ctx)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(a.out, "No exams uploaded yet.")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintf(a.out, "%s (%s)\n", g.Exam.Title, plural(len(g.Submissions), "submission"))
				if len(g.Submissions) == 0 {
					fmt.Fprintln(a.out)
					continue
				}
				if err := a.printSubmissions(g.Submissions); err != nil {
					return err
				}
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&examID, "exam", "", "only this exam's submissions")
	return cmd
}

func (a *App) printSubmissions(subs []model.Submission) error {
	tw := newTable(a.out, "STUDENT", "EMAIL", "SUBMITTED", "ANSWER")
	for _, s := range subs {
		row(tw, s.StudentName(), s.StudentEmail(), formatTime(s.SubmittedAt), s.AnswerURL)
	}
	return tw.Flush()
}

func newTeacherClearCommand(app func() *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Args:  cobra.NoArgs,
		Short: "Hide submissions from the dashboard for 24 hours",
		Long: `Hides submissions from "teacher exams" on this machine for 24 hours.
Nothing is deleted and other devices are unaffected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathTeacher, model.RoleTeacher); err != nil {
				return err
			}
			if !yes && !a.confirm("Hide submissions from the dashboard? They reappear after 24 hours.") {
				fmt.Fprintln(a.out, "Nothing changed.")
				return nil
			}
			msg, err := a.teachers.ClearSubmissions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newTeacherRestoreCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Args:  cobra.NoArgs,
		Short: "Show cleared submissions on the dashboard again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathTeacher, model.RoleTeacher); err != nil {
				return err
			}
			if err := a.teachers.RestoreSubmissions(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Submissions restored to the dashboard.")
			return nil
		},
	}
}
