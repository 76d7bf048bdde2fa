// Package notify receives push notifications from the server over a
// websocket and fans them out to the UI by kind. Reminders and
// achievement unlocks get their own channels so the presentation layer
// can render them differently without inspecting payloads.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

const reconnectDelay = 5 * time.Second

// Listener maintains the websocket connection to the server's push
// endpoint and dispatches incoming notifications. Token is called on
// every (re)connect so a refreshed access token is picked up.
type Listener struct {
	endpoint string
	token    func() string
	log      logging.Logger

	reminders    chan models.Notification
	achievements chan models.Notification
}

// NewListener builds a listener for the given HTTP base URL; the
// websocket endpoint is derived from it.
func NewListener(baseURL string, token func() string, log logging.Logger) *Listener {
	return &Listener{
		endpoint:     wsURL(baseURL),
		token:        token,
		log:          log.With("module", "notify"),
		reminders:    make(chan models.Notification, 16),
		achievements: make(chan models.Notification, 16),
	}
}

// Reminders delivers study-reminder notifications.
func (l *Listener) Reminders() <-chan models.Notification { return l.reminders }

// Achievements delivers achievement-unlock notifications.
func (l *Listener) Achievements() <-chan models.Notification { return l.achievements }

// Run connects and reads until ctx is cancelled, reconnecting after
// transient failures. It blocks; run it in a goroutine.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.connectAndRead(ctx); err != nil {
			l.log.Warn(ctx, "push connection lost", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	if tok := l.token(); tok != "" {
		header.Set("Authorization", "Bearer "+tok)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, l.endpoint, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// close the connection when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var n models.Notification
		if err := json.Unmarshal(data, &n); err != nil {
			l.log.Warn(ctx, "skipping malformed push message", "error", err)
			continue
		}
		l.dispatch(ctx, n)
	}
}

func (l *Listener) dispatch(ctx context.Context, n models.Notification) {
	var out chan models.Notification
	switch n.Type {
	case models.NotificationStudyReminder:
		out = l.reminders
	case models.NotificationAchievementUnlock:
		out = l.achievements
	default:
		return
	}
	select {
	case out <- n:
	default:
		l.log.Warn(ctx, "dropping push message, consumer too slow", "type", n.Type)
	}
}

// wsURL rewrites an http(s) base URL into the ws(s) push endpoint.
func wsURL(baseURL string) string {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return baseURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/v1/ws"
	return u.String()
}
