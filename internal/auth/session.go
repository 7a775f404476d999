package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nananom-farms/site/internal/model"
)

// Session is the per-client authenticated state. It is an explicit value
// keyed by id, never ambient globals; the HTTP layer carries the id in a
// cookie.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	LoginTime time.Time `json:"-"`
}

type sessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]*Session)}
}

func (t *sessionTable) create(user model.User, now time.Time) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		FullName:  user.FullName(),
		Email:     user.Email,
		LoginTime: now,
	}
	t.mu.Lock()
	t.sessions[sess.ID] = sess
	t.mu.Unlock()
	return sess
}

func (t *sessionTable) get(id string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[id]
	return sess, ok
}

func (t *sessionTable) delete(id string) {
	t.mu.Lock()
	delete(t.sessions, id)
	t.mu.Unlock()
}
