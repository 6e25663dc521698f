package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/service"
)

func newStudentCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Args:  cobra.NoArgs,
		Short: "Student dashboard: list, attempt and submit exams",
	}
	cmd.AddCommand(
		newStudentExamsCommand(app),
		newStudentAttemptCommand(app),
		newStudentSubmitCommand(app),
	)
	return cmd
}

func newStudentExamsCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "exams",
		Args:  cobra.NoArgs,
		Short: "List available exams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			if err := a.enter(guard.PathStudent, model.RoleStudent); err != nil {
				return err
			}

			d, err := a.students.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			return a.printStudentExams(d.Exams)
		},
	}
}

func (a *App) printStudentExams(exams []service.DashboardExam) error {
	if len(exams) == 0 {
		fmt.Fprintln(a.out, "No exams available right now.")
		return nil
	}

	tw := newTable(a.out, "ID", "TITLE", "DURATION", "TEACHER", "CREATED", "STATUS")
	for _, e := range exams {
		status := "Available"
		if e.AlreadyAttempted {
			status = "Attempted"
		}
		row(tw, e.ID, e.Title, plural(e.DurationMinutes, "minute"), e.CreatedBy.Name, formatTime(e.CreatedAt), status)
	}
	return tw.Flush()
}

func newStudentAttemptCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "attempt <examId>",
		Args:  cobra.ExactArgs(1),
		Short: "Start or resume a timed exam attempt",
		Long: `Starts the countdown for an exam and keeps the service informed of the
remaining time. Ctrl-C pauses; running the command again resumes. When
time runs out you are asked for your answer files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enter(guard.PathStudent, model.RoleStudent); err != nil {
				return err
			}
			ctx := cmd.Context()

			active, err := a.students.AttemptExam(ctx, args[0])
			if err != nil {
				var cancelled *service.CancelledError
				if errors.As(err, &cancelled) && cancelled.Exams != nil {
					fmt.Fprintln(a.out, "Available exams:")
					if perr := a.printStudentExams(cancelled.Exams); perr != nil {
						a.log.Warn().Err(perr).Msg("Failed to print exams")
					}
				}
				return err
			}

			fmt.Fprintf(a.out, "Exam:     %s\n", active.Exam.Title)
			fmt.Fprintf(a.out, "Duration: %s\n", plural(active.Exam.DurationMinutes, "minute"))
			fmt.Fprintf(a.out, "Paper:    %s\n\n", active.PaperURL)

			if !a.runCountdown(ctx, active) {
				fmt.Fprintf(a.out, "\nExam paused. Your remaining time has been saved.\nResume with: examtester student attempt %s\n", active.Exam.ID)
				return nil
			}

			fmt.Fprintln(a.out, "Time's up! Your exam has expired.")
			// The attempt is over whether or not the service hears about it.
			if err := a.students.CompleteAttempt(ctx, active.Attempt.ID); err != nil {
				a.log.Warn().Err(err).Str("attempt_id", active.Attempt.ID).Msg("Failed to complete attempt")
			}
			return a.promptSubmission(ctx, active.Exam.ID)
		},
	}
}

// promptSubmission moves to the submission view and asks for answer files.
func (a *App) promptSubmission(ctx context.Context, examID string) error {
	if err := a.enter(guard.PathSubmission, model.RoleStudent); err != nil {
		return err
	}

	fmt.Fprint(a.out, "Answer files to submit (space separated, blank to skip): ")
	line, err := a.readLine()
	if err != nil || line == "" {
		fmt.Fprintf(a.out, "\nSubmit later with: examtester student submit %s <file>\n", examID)
		return nil
	}
	return a.submit(ctx, examID, strings.Fields(line))
}

func (a *App) submit(ctx context.Context, examID string, files []string) error {
	if _, err := a.students.SubmitAnswers(ctx, examID, files); err != nil {
		return err
	}
	fmt.Fprintln(a.out, service.MsgSubmitted)
	if len(files) > 1 {
		fmt.Fprintf(a.out, "Only %s was uploaded; the service accepts one file per submission.\n", files[0])
	}
	a.router.Navigate(guard.PathStudent)
	return nil
}

func newStudentSubmitCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <examId> <file>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Upload answer files (.pdf, .jpg, .jpeg, .png) for an exam",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.enter(guard.PathSubmission, model.RoleStudent); err != nil {
				return err
			}
			return a.submit(cmd.Context(), args[0], args[1:])
		},
	}
}
