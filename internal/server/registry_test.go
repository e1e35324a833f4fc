package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/storyteller/internal/story"
)

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	r := newRegistry(0, 50*time.Millisecond)
	session := story.NewSession(nil, nil)
	id := r.add(session)

	got, ok := r.get(id)
	require.True(t, ok)
	assert.Same(t, session, got)

	time.Sleep(150 * time.Millisecond)
	_, ok = r.get(id)
	assert.False(t, ok)
	_, ok = r.remove(id)
	assert.False(t, ok)
}

func TestRegistry_GetExtendsIdleDeadline(t *testing.T) {
	r := newRegistry(0, 300*time.Millisecond)
	id := r.add(story.NewSession(nil, nil))

	time.Sleep(200 * time.Millisecond)
	_, ok := r.get(id)
	require.True(t, ok)

	time.Sleep(200 * time.Millisecond)
	_, ok = r.get(id)
	assert.True(t, ok)
}

func TestRegistry_MaxSessions(t *testing.T) {
	r := newRegistry(2, 0)
	first := r.add(story.NewSession(nil, nil))
	second := r.add(story.NewSession(nil, nil))

	_, ok := r.get(first)
	require.True(t, ok)
	third := r.add(story.NewSession(nil, nil))

	assert.Equal(t, 2, r.len())
	_, ok = r.get(second)
	assert.False(t, ok, "least recently used session is dropped")
	_, ok = r.get(first)
	assert.True(t, ok)
	_, ok = r.get(third)
	assert.True(t, ok)
}

func TestRegistry_Remove(t *testing.T) {
	r := newRegistry(0, 0)
	session := story.NewSession(nil, nil)
	id := r.add(session)

	got, ok := r.remove(id)
	require.True(t, ok)
	assert.Same(t, session, got)
	assert.Equal(t, 0, r.len())

	_, ok = r.remove(id)
	assert.False(t, ok)
}

func TestServer_IdleSessionIsNotFound(t *testing.T) {
	s := NewServer(nil, nil, Options{SessionIdleTimeout: 50 * time.Millisecond})
	id := createSession(t, s)

	rec := doRequest(t, s, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	time.Sleep(150 * time.Millisecond)
	rec = doRequest(t, s, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "session not found")
}

func TestServer_AbandonedSessionsAreBounded(t *testing.T) {
	s := NewServer(nil, nil, Options{MaxSessions: 10})
	for range 50 {
		createSession(t, s)
	}
	assert.Equal(t, 10, s.sessions.len())
}
