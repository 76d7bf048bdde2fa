package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/models"
	"github.com/studyhub-tz/studyhub/internal/server/store"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// collectionAllowed rejects collections clients must never touch
// through the generic document endpoints.
func collectionAllowed(collection string) bool {
	switch collection {
	case models.CollectionUsers, models.CollectionRefreshTokens:
		return false
	}
	return true
}

func (s *Server) handleFetchAll(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if !collectionAllowed(collection) {
		respondError(w, http.StatusForbidden, "collection not accessible")
		return
	}

	var filter *store.Filter
	if field := r.URL.Query().Get("field"); field != "" {
		filter = &store.Filter{Field: field, Value: r.URL.Query().Get("value")}
	}

	// per-user collections are always scoped to the caller, whatever
	// filter the request carries
	switch collection {
	case models.CollectionUserProgress, models.CollectionQuizAttempts,
		models.CollectionPastPaperAttempts, models.CollectionStudySessions:
		filter = &store.Filter{Field: "userId", Value: userIDFromContext(r.Context())}
	}

	docs, err := s.store.FetchAll(r.Context(), collection, filter)
	if err != nil {
		s.log.Error(r.Context(), "fetching collection", "collection", collection, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	respondJSON(w, http.StatusOK, docs)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	if !collectionAllowed(collection) {
		respondError(w, http.StatusForbidden, "collection not accessible")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if !json.Valid(body) {
		respondError(w, http.StatusBadRequest, "document must be valid JSON")
		return
	}

	if err := s.store.Upsert(r.Context(), collection, id, body); err != nil {
		s.log.Error(r.Context(), "upserting document", "collection", collection, "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.notifyContentUpdate(collection, id, body)
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// notifyContentUpdate tells subject watchers that study material
// changed so they can re-sync before their next offline stretch.
func (s *Server) notifyContentUpdate(collection, id string, doc []byte) {
	switch collection {
	case models.CollectionSubjects, models.CollectionNotes,
		models.CollectionQuizzes, models.CollectionPastPapers:
	default:
		return
	}

	subjectID := id
	if collection != models.CollectionSubjects {
		var meta struct {
			SubjectID string `json:"subjectId"`
		}
		if err := json.Unmarshal(doc, &meta); err != nil || meta.SubjectID == "" {
			return
		}
		subjectID = meta.SubjectID
	}

	s.hub.BroadcastToTopic(common.TopicContentPrefix+subjectID, models.Notification{
		Type:   models.NotificationContentUpdate,
		Title:  "New study material",
		Body:   "Content in " + subjectID + " was updated, sync to get it",
		Data:   map[string]string{"collection": collection, "id": id, "subjectId": subjectID},
		SentAt: time.Now().UnixMilli(),
	})
}

type updateFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")
	if !collectionAllowed(collection) {
		respondError(w, http.StatusForbidden, "collection not accessible")
		return
	}

	var req updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateField(r.Context(), collection, id, req.Field, req.Value); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.log.Error(r.Context(), "patching document", "collection", collection, "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if collection == models.CollectionAchievements && req.Field == "isUnlocked" {
		if v, ok := req.Value.(bool); ok && v {
			s.notifyAchievementUnlock(r.Context(), id)
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

// notifyAchievementUnlock pushes an unlock to the student's other
// devices when the client mirrors a badge unlock to the server.
func (s *Server) notifyAchievementUnlock(ctx context.Context, achievementID string) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return
	}

	var badge struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if doc, err := s.store.Get(ctx, models.CollectionAchievements, achievementID); err == nil {
		_ = json.Unmarshal(doc, &badge)
	}
	if badge.Title == "" {
		badge.Title = achievementID
	}

	s.hub.SendToUser(userID, models.Notification{
		Type:   models.NotificationAchievementUnlock,
		Title:  badge.Title,
		Body:   badge.Description,
		Data:   map[string]string{"achievementId": achievementID},
		SentAt: time.Now().UnixMilli(),
	})
}

func (s *Server) handlePaperDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.Get(r.Context(), models.CollectionPastPapers, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.log.Error(r.Context(), "looking up paper", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	url, err := s.files.PresignDownload(r.Context(), id)
	if err != nil {
		s.log.Error(r.Context(), "presigning download", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// handlePaperUpload issues a presigned PUT URL so content authors can
// publish a paper's PDF. The paper document must exist first.
func (s *Server) handlePaperUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.Get(r.Context(), models.CollectionPastPapers, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.log.Error(r.Context(), "looking up paper", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	url, err := s.files.PresignUpload(r.Context(), id)
	if err != nil {
		s.log.Error(r.Context(), "presigning upload", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
