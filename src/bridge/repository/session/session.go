// Package session stores the editor connections of the bridge.
package session

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/importjs/importjs-bridge/src/bridge/entity"
	"github.com/importjs/importjs-bridge/src/bridge/internal/errors"
	"github.com/importjs/importjs-bridge/src/bridge/mapper"
	"github.com/importjs/importjs-bridge/src/bridge/model"
	tally "github.com/uber-go/tally/v4"
)

const _gaugeSessions = "editor_sessions"

// Repository keeps one Session per connected editor.
type Repository interface {
	// Get returns the session with the given id.
	Get(ctx context.Context, id uuid.UUID) (*entity.Session, error)
	// GetFromContext returns the session whose id is carried by ctx.
	GetFromContext(ctx context.Context) (*entity.Session, error)
	// Set stores s, replacing any session with the same id.
	Set(ctx context.Context, s *entity.Session) error
	// Delete forgets the session. Unknown ids are ignored.
	Delete(ctx context.Context, id uuid.UUID) error
	// SessionCount returns the number of connected editors.
	SessionCount(ctx context.Context) (int, error)
	// List returns every connected editor, ordered by session id.
	List(ctx context.Context) ([]*entity.Session, error)
}

type repository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.Session
	stats    tally.Scope
}

// New returns an in-memory session repository reporting the number of editors to stats.
func New(stats tally.Scope) Repository {
	return &repository{
		sessions: make(map[uuid.UUID]*model.Session),
		stats:    stats,
	}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &errors.UUIDNotFoundError{UUID: id}
	}
	return mapper.ModelToSession(s)
}

func (r *repository) GetFromContext(ctx context.Context) (*entity.Session, error) {
	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Set(ctx context.Context, s *entity.Session) error {
	if s == nil {
		return errors.New("can't save nil session")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UUID] = mapper.SessionToModel(s)
	r.reportLocked()
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	r.reportLocked()
	return nil
}

func (r *repository) SessionCount(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

func (r *repository) List(ctx context.Context) ([]*entity.Session, error) {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	result := make([]*entity.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			// Deleted since the ids were collected.
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (r *repository) reportLocked() {
	r.stats.Gauge(_gaugeSessions).Update(float64(len(r.sessions)))
}
