// Package cli is the interactive terminal frontend: a small REPL over
// the repositories, with an online-status watcher and a push listener
// feeding notifications into the prompt.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/studyhub-tz/studyhub/internal/client/config"
	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/notify"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/client/repositories"
	"github.com/studyhub-tz/studyhub/internal/client/services"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	log    logging.Logger

	store  *localstore.Store
	remote *remote.HTTPStore

	auth         services.AuthService
	subjects     *repositories.SubjectRepository
	notes        *repositories.NoteRepository
	quizzes      *repositories.QuizRepository
	papers       *repositories.PastPaperRepository
	progress     *repositories.ProgressRepository
	sessions     *repositories.SessionRepository
	achievements *repositories.AchievementRepository
	listener     *notify.Listener

	user   *models.User
	Mode   Mode
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := localstore.Open(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing cache database", "error", err)
		return nil, err
	}

	rs := remote.NewHTTPStore(c.ServerEndpointAddr)

	app := &App{
		config: c,
		log:    log,
		store:  store,
		remote: rs,

		auth:         services.NewAuthService(rs, store),
		subjects:     repositories.NewSubjectRepository(store, rs, log),
		notes:        repositories.NewNoteRepository(store, rs, log),
		quizzes:      repositories.NewQuizRepository(store, rs, log),
		papers:       repositories.NewPastPaperRepository(store, rs, log),
		progress:     repositories.NewProgressRepository(store, rs, log),
		sessions:     repositories.NewSessionRepository(store, rs, log),
		achievements: repositories.NewAchievementRepository(store, rs, log),
		listener:     notify.NewListener(c.ServerEndpointAddr, rs.AccessToken, log),

		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	// pick up the account from a previous session, if any
	if u, err := app.auth.CurrentUser(ctx); err == nil {
		app.user = u
	}

	return app, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.DisplayName + " "
	}
	if a.Mode != "" {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Run(ctx context.Context) {
	defer a.auth.Close(ctx)
	defer a.store.Close()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	go a.listener.Run(ctx)
	go a.printNotifications(ctx)

	fmt.Fprintln(a.out, "Welcome to StudyHub (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// StartOnlineStatusWatcher periodically probes the server and flips the
// mode indicator shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.auth.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode != ModeOffline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) printNotifications(ctx context.Context) {
	for {
		select {
		case n := <-a.listener.Reminders():
			fmt.Fprintf(a.out, "\n[reminder] %s: %s\n", n.Title, n.Body)
		case n := <-a.listener.Achievements():
			fmt.Fprintf(a.out, "\n[achievement] %s: %s\n", n.Title, n.Body)
		case <-ctx.Done():
			return
		}
	}
}
