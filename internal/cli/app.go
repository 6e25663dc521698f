// Package cli is the terminal front end: a cobra command tree whose role
// commands are gated by the guard router and backed by the view services.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/api"
	"github.com/stemsi/examtester/internal/config"
	"github.com/stemsi/examtester/internal/guard"
	"github.com/stemsi/examtester/internal/logger"
	"github.com/stemsi/examtester/internal/model"
	"github.com/stemsi/examtester/internal/service"
	"github.com/stemsi/examtester/internal/session"
	"github.com/stemsi/examtester/internal/storage"
	"github.com/stemsi/examtester/internal/timer"
	"github.com/stemsi/examtester/internal/validator"
	"golang.org/x/term"
)

// Options wires the command tree. Config is required; everything else has
// a production default.
type Options struct {
	Config *config.Config
	// Logger overrides logger.Setup.
	Logger *zerolog.Logger
	// KV overrides the backend selected by Config.SessionBackend.
	KV storage.KV

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Scheduler drives the attempt countdown.
	Scheduler timer.Scheduler
	// ReadPassword reads a secret without echo.
	ReadPassword func() (string, error)
}

// App is the per-invocation runtime shared by every command.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	client   *api.Client
	session  *session.Store
	router   *guard.Router
	students *service.StudentService
	teachers *service.TeacherService
	admins   *service.AdminService

	scheduler    timer.Scheduler
	in           *bufio.Reader
	out          io.Writer
	errOut       io.Writer
	readPassword func() (string, error)
	// liveOutput redraws the countdown in place instead of printing lines.
	liveOutput bool

	closeKV func() error
}

// newApp builds the runtime and restores any persisted session.
func newApp(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config

	var log zerolog.Logger
	if opts.Logger != nil {
		log = *opts.Logger
	} else {
		log = logger.Setup(cfg.LogLevel, cfg.LogFormat)
	}

	validator.Setup()

	kv, closeKV := opts.KV, func() error { return nil }
	if kv == nil {
		var err error
		kv, closeKV, err = storage.Open(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	rawOut := orDefault(opts.Out, io.Writer(os.Stdout))
	a := &App{
		cfg:          cfg,
		log:          log,
		scheduler:    opts.Scheduler,
		in:           bufio.NewReader(orDefault(opts.In, io.Reader(os.Stdin))),
		out:          &syncWriter{w: rawOut},
		liveOutput:   isTerminal(rawOut),
		errOut:       orDefault(opts.Err, io.Writer(os.Stderr)),
		readPassword: opts.ReadPassword,
		closeKV:      closeKV,
	}
	if a.scheduler == nil {
		a.scheduler = timer.TickerScheduler{}
	}
	if a.readPassword == nil {
		a.readPassword = a.defaultReadPassword
	}

	a.client = api.New(cfg, kv, log)
	a.session = session.NewStore(a.client, kv, log)
	a.router = guard.NewRouter(a.session, log)
	a.students = service.NewStudentService(a.client, cfg.MaxUploadBytes, log)
	a.teachers = service.NewTeacherService(a.client, kv, log)
	a.admins = service.NewAdminService(a.client)

	// A 401 anywhere tears the session down and sends the user to login.
	// The expiry notice is only for a live session used outside the login
	// page; a rejected login reports its own error.
	a.client.OnUnauthorized(func() {
		expired := a.session.Current() != nil && a.router.Location() != guard.PathLogin
		a.session.Invalidate()
		a.router.RedirectToLogin()
		if expired {
			fmt.Fprintln(a.errOut, "Your session has expired. Please log in again: examtester login")
		}
	})

	a.session.Restore(ctx)
	return a, nil
}

func (a *App) close() error {
	if a.closeKV == nil {
		return nil
	}
	return a.closeKV()
}

// enter resolves path through the router. Anything but Allow means the
// command must not run.
func (a *App) enter(path string, role model.Role) error {
	res := a.router.Navigate(path)
	switch res.Decision {
	case guard.Allow:
		return nil
	case guard.Pending:
		return fmt.Errorf("session is still loading")
	default:
		return fmt.Errorf("please log in as %s first: examtester login --role %s", withArticle(string(role)), role)
	}
}

func (a *App) defaultReadPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(a.out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
	return a.readLine()
}

func withArticle(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an " + word
	}
	return "a " + word
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func orDefault[T comparable](v, fallback T) T {
	var zero T
	if v == zero {
		return fallback
	}
	return v
}
