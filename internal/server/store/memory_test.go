package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/common"
)

func TestMemoryStore_UpsertGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "subjects", "math_o", json.RawMessage(`{"id":"math_o","name":"Mathematics"}`)))

	doc, err := s.Get(ctx, "subjects", "math_o")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"math_o","name":"Mathematics"}`, string(doc))

	// replace
	require.NoError(t, s.Upsert(ctx, "subjects", "math_o", json.RawMessage(`{"id":"math_o","name":"Maths"}`)))
	doc, err = s.Get(ctx, "subjects", "math_o")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"math_o","name":"Maths"}`, string(doc))

	require.NoError(t, s.Delete(ctx, "subjects", "math_o"))
	_, err = s.Get(ctx, "subjects", "math_o")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryStore_FetchAllFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "notes", "n1", json.RawMessage(`{"id":"n1","subjectId":"math_o"}`)))
	require.NoError(t, s.Upsert(ctx, "notes", "n2", json.RawMessage(`{"id":"n2","subjectId":"math_o"}`)))
	require.NoError(t, s.Upsert(ctx, "notes", "n3", json.RawMessage(`{"id":"n3","subjectId":"physics_o"}`)))

	all, err := s.FetchAll(ctx, "notes", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	math, err := s.FetchAll(ctx, "notes", &Filter{Field: "subjectId", Value: "math_o"})
	require.NoError(t, err)
	assert.Len(t, math, 2)

	none, err := s.FetchAll(ctx, "notes", &Filter{Field: "subjectId", Value: "kiswahili_o"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_UpdateField(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "quizzes", "q1", json.RawMessage(`{"id":"q1","attemptCount":1}`)))
	require.NoError(t, s.UpdateField(ctx, "quizzes", "q1", "attemptCount", 2))

	doc, err := s.Get(ctx, "quizzes", "q1")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(doc, &m))
	assert.EqualValues(t, 2, m["attemptCount"])

	err = s.UpdateField(ctx, "quizzes", "missing", "attemptCount", 2)
	require.ErrorIs(t, err, common.ErrNotFound)
}
