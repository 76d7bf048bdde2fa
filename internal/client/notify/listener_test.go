package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/api/v1/ws", wsURL("http://localhost:8080"))
	assert.Equal(t, "wss://api.studyhub.tz/api/v1/ws", wsURL("https://api.studyhub.tz/"))
}

func TestListener_DispatchesByType(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotAuth := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		msgs := []models.Notification{
			{Type: models.NotificationStudyReminder, Title: "Time to study", Body: "Mathematics at 19:00"},
			{Type: models.NotificationAchievementUnlock, Title: "Badge earned", Data: map[string]string{"achievementId": "streak3"}},
			{Type: "unknown_kind"},
		}
		for _, m := range msgs {
			require.NoError(t, conn.WriteJSON(m))
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener(srv.URL, func() string { return "tok123" }, testLogger())
	go l.Run(ctx)

	select {
	case auth := <-gotAuth:
		assert.Equal(t, "Bearer tok123", auth)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection")
	}

	select {
	case n := <-l.Reminders():
		assert.Equal(t, "Time to study", n.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no reminder delivered")
	}

	select {
	case n := <-l.Achievements():
		assert.Equal(t, "streak3", n.Data["achievementId"])
	case <-time.After(2 * time.Second):
		t.Fatal("no achievement delivered")
	}
}
