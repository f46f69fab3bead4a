package session

import (
	"sort"
	"sync"

	"github.com/lucidquant/tickerscout/pkg/providers"
)

// Manager keeps per-ticker conversation histories in memory. All
// methods are safe for concurrent use; returned and stored slices are
// always copies, so callers can never alias the internal state.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string][]providers.Message
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string][]providers.Message),
	}
}

// History returns a copy of the stored conversation, or nil when the
// key has no session.
func (m *Manager) History(key string) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.sessions[key]
	if !ok {
		return nil
	}
	history := make([]providers.Message, len(stored))
	copy(history, stored)
	return history
}

// Replace stores a copy of the given conversation under the key.
func (m *Manager) Replace(key string, history []providers.Message) {
	stored := make([]providers.Message, len(history))
	copy(stored, history)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = stored
}

func (m *Manager) Append(key string, messages ...providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = append(m.sessions[key], messages...)
}

func (m *Manager) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.sessions))
	for key := range m.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
