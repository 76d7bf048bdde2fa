package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
	"github.com/studyhub-tz/studyhub/internal/server/auth"
	"github.com/studyhub-tz/studyhub/internal/server/config"
	"github.com/studyhub-tz/studyhub/internal/server/files"
	"github.com/studyhub-tz/studyhub/internal/server/notify"
	"github.com/studyhub-tz/studyhub/internal/server/store"
	"github.com/studyhub-tz/studyhub/internal/server/users"
)

type testEnv struct {
	router http.Handler
	store  *store.MemoryStore
	hub    *notify.Hub
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	st := store.NewMemoryStore()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	hub := notify.NewHub(log)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go hub.Run(done)

	srv := NewServer(users.NewService(st, cfg), st, files.NewService(cfg), hub, log)
	return &testEnv{router: srv.Router(), store: st, hub: hub, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registerAndLogin(t *testing.T) (userID, accessToken, refreshToken string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":          "amina@example.tz",
		"password":       "s3cret123",
		"displayName":    "Amina",
		"educationLevel": "O_LEVEL",
		"formClass":      3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "amina@example.tz", "password": "s3cret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		AccessToken  string          `json:"accessToken"`
		RefreshToken string          `json:"refreshToken"`
		User         json.RawMessage `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotContains(t, string(login.User), "passwordHash")
	return reg.ID, login.AccessToken, login.RefreshToken
}

func TestPing(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/v1/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "not-an-email", "password": "s3cret123", "displayName": "X",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "ok@example.tz", "password": "short", "displayName": "X",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	e.registerAndLogin(t)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email": "amina@example.tz", "password": "s3cret123", "displayName": "Again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCollections_RequireAuth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/collections/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/collections/subjects", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCollections_ExpiredTokenBody(t *testing.T) {
	e := newTestEnv(t)
	userID, _, _ := e.registerAndLogin(t)

	expired, err := auth.GenerateToken(userID, []byte(e.cfg.SecretKey), -time.Minute)
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/api/v1/collections/subjects", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// the client watches for this exact body before attempting a refresh
	assert.JSONEq(t, `{"error":"token expired"}`, rec.Body.String())
}

func TestCollections_UpsertFetchAndFilter(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	put := func(id string, doc map[string]any) {
		rec := e.do(t, http.MethodPut, "/api/v1/collections/notes/"+id, token, doc)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	put("n1", map[string]any{"id": "n1", "subjectId": "math_o", "title": "Algebra"})
	put("n2", map[string]any{"id": "n2", "subjectId": "chem_o", "title": "Acids"})

	rec := e.do(t, http.MethodGet, "/api/v1/collections/notes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 2)

	rec = e.do(t, http.MethodGet, "/api/v1/collections/notes?field=subjectId&value=math_o", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Contains(t, string(docs[0]), "Algebra")
}

func TestCollections_EmptyIsJSONArray(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	rec := e.do(t, http.MethodGet, "/api/v1/collections/subjects", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCollections_ProtectedAreForbidden(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	for _, c := range []string{models.CollectionUsers, models.CollectionRefreshTokens} {
		rec := e.do(t, http.MethodGet, "/api/v1/collections/"+c, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, c)
	}
}

func recvHubMessage(t *testing.T, c *notify.Client) models.Notification {
	t.Helper()
	select {
	case data := <-c.Send:
		var n models.Notification
		require.NoError(t, json.Unmarshal(data, &n))
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for hub message")
		return models.Notification{}
	}
}

func (e *testEnv) hubClient(t *testing.T, id, userID string) *notify.Client {
	t.Helper()
	c := e.hub.NewClient(id, userID, nil)
	before := e.hub.ClientCount()
	e.hub.Register(c)
	require.Eventually(t, func() bool { return e.hub.ClientCount() == before+1 },
		2*time.Second, 10*time.Millisecond)
	return c
}

func TestCollections_FetchScopedToCaller(t *testing.T) {
	e := newTestEnv(t)
	userID, token, _ := e.registerAndLogin(t)

	seed := func(id, owner string) {
		doc := []byte(`{"id":"` + id + `","userId":"` + owner + `","subjectId":"math_o"}`)
		require.NoError(t, e.store.Upsert(context.Background(), models.CollectionUserProgress, id, doc))
	}
	seed("pr-mine", userID)
	seed("pr-other", "someone-else")

	// even an explicit filter naming another student only yields the
	// caller's own records
	rec := e.do(t, http.MethodGet,
		"/api/v1/collections/user_progress?field=userId&value=someone-else", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Contains(t, string(docs[0]), "pr-mine")

	rec = e.do(t, http.MethodGet, "/api/v1/collections/user_progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Contains(t, string(docs[0]), "pr-mine")
}

func TestUpsert_BroadcastsContentUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	sub := e.hubClient(t, "c1", "u-watcher")
	e.hub.Subscribe(sub, "content:math_o")

	rec := e.do(t, http.MethodPut, "/api/v1/collections/notes/n1", token,
		map[string]any{"id": "n1", "subjectId": "math_o", "title": "Algebra"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	n := recvHubMessage(t, sub)
	assert.Equal(t, models.NotificationContentUpdate, n.Type)
	assert.Equal(t, "math_o", n.Data["subjectId"])
	assert.Equal(t, models.CollectionNotes, n.Data["collection"])

	// a progress record is not study material, nobody gets pinged
	rec = e.do(t, http.MethodPut, "/api/v1/collections/user_progress/pr1", token,
		map[string]any{"id": "pr1", "subjectId": "math_o"})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case data := <-sub.Send:
		t.Fatalf("unexpected broadcast: %s", data)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUpdateField_AchievementUnlockIsPushed(t *testing.T) {
	e := newTestEnv(t)
	userID, token, _ := e.registerAndLogin(t)

	conn := e.hubClient(t, "c1", userID)

	doc := []byte(`{"id":"streak3","title":"Streak ya siku 3","description":"Study three days in a row","isUnlocked":false}`)
	require.NoError(t, e.store.Upsert(context.Background(), models.CollectionAchievements, "streak3", doc))

	rec := e.do(t, http.MethodPatch, "/api/v1/collections/achievements/streak3", token,
		map[string]any{"field": "isUnlocked", "value": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	n := recvHubMessage(t, conn)
	assert.Equal(t, models.NotificationAchievementUnlock, n.Type)
	assert.Equal(t, "Streak ya siku 3", n.Title)
	assert.Equal(t, "streak3", n.Data["achievementId"])
}

func TestUpdateField_PatchesDocument(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	rec := e.do(t, http.MethodPut, "/api/v1/collections/notes/n1", token,
		map[string]any{"id": "n1", "readCount": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/collections/notes/n1", token,
		map[string]any{"field": "readCount", "value": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc, err := e.store.Get(context.Background(), "notes", "n1")
	require.NoError(t, err)
	var note struct {
		ReadCount int `json:"readCount"`
	}
	require.NoError(t, json.Unmarshal(doc, &note))
	assert.Equal(t, 2, note.ReadCount)
}

func TestUpdateField_MissingDocument(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	rec := e.do(t, http.MethodPatch, "/api/v1/collections/notes/ghost", token,
		map[string]any{"field": "readCount", "value": 2})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaperDownload_UnknownPaper(t *testing.T) {
	e := newTestEnv(t)
	_, token, _ := e.registerAndLogin(t)

	rec := e.do(t, http.MethodGet, "/api/v1/papers/ghost/download", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/papers/ghost/upload", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefresh_RotatesAndInvalidatesOldToken(t *testing.T) {
	e := newTestEnv(t)
	_, _, refresh := e.registerAndLogin(t)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, refresh, pair.RefreshToken)

	rec = e.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocket_DeliversUserNotifications(t *testing.T) {
	e := newTestEnv(t)
	userID, token, _ := e.registerAndLogin(t)

	srv := httptest.NewServer(e.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return e.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	e.hub.SendToUser(userID, models.Notification{
		Type:  models.NotificationAchievementUnlock,
		Title: "Quiz ya kwanza",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var n models.Notification
	require.NoError(t, json.Unmarshal(data, &n))
	assert.Equal(t, models.NotificationAchievementUnlock, n.Type)
	assert.Equal(t, "Quiz ya kwanza", n.Title)
}
