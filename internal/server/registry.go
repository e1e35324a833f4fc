package server

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/segmentio/ksuid"

	"github.com/at-ishikawa/storyteller/internal/story"
)

// registry keeps one story session per reader, keyed by a ksuid. A session that is not
// looked up for idleTimeout is dropped, and the least recently used one goes first once
// maxSessions are held. Zero disables either limit.
type registry struct {
	sessions *expirable.LRU[string, *story.Session]
}

func newRegistry(maxSessions int, idleTimeout time.Duration) *registry {
	onEvict := func(id string, session *story.Session) {
		slog.Default().Debug("Session evicted", "id", id, "storyID", session.StoryID())
	}
	return &registry{
		sessions: expirable.NewLRU(maxSessions, onEvict, idleTimeout),
	}
}

func (r *registry) add(session *story.Session) string {
	id := ksuid.New().String()
	r.sessions.Add(id, session)
	return id
}

// get extends the idle deadline of the session it returns.
func (r *registry) get(id string) (*story.Session, bool) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	r.sessions.Add(id, session)
	return session, true
}

func (r *registry) remove(id string) (*story.Session, bool) {
	session, ok := r.sessions.Peek(id)
	if !ok {
		return nil, false
	}
	r.sessions.Remove(id)
	return session, true
}

func (r *registry) len() int {
	return r.sessions.Len()
}
