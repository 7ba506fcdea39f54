package history

import (
	"context"
	"sync"

	"github.com/learnloop/tutorbook/internal/tutor"
)

// MemoryHistory is an in-process fallback used when Redis is not configured.
// Sessions vanish on restart.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]tutor.Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]tutor.Message)}
}

func (h *MemoryHistory) Append(_ context.Context, sessionID string, msgs ...tutor.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	turns := append(h.sessions[sessionID], msgs...)
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	h.sessions[sessionID] = turns
	return nil
}

func (h *MemoryHistory) List(_ context.Context, sessionID string, limit int) ([]tutor.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	turns := h.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]tutor.Message, len(turns))
	copy(out, turns)
	return out, nil
}
