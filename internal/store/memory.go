package store

import (
	"sort"
	"sync"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Memory holds facts the user told the assistant ("name" -> "Sam").
// Last write wins; nothing expires. Guarded by the owning Session.
type Memory map[string]string

func (m Memory) Set(key, value string) { m[key] = value }

func (m Memory) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// TaskList is the user's to-do list in insertion order. Users address tasks
// 1-indexed; the methods here take 0-based indices.
type TaskList struct {
	tasks []string
}

// Add appends a non-empty task.
func (t *TaskList) Add(task string) bool {
	if task == "" {
		return false
	}
	t.tasks = append(t.tasks, task)
	return true
}

// Remove deletes the task at index i. Out-of-range indices are rejected and
// leave the list untouched.
func (t *TaskList) Remove(i int) (string, bool) {
	if i < 0 || i >= len(t.tasks) {
		return "", false
	}
	removed := t.tasks[i]
	t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
	return removed, true
}

func (t *TaskList) All() []string {
	return append([]string(nil), t.tasks...)
}

func (t *TaskList) Len() int { return len(t.tasks) }

func (t *TaskList) Clear() { t.tasks = nil }

// Session is one conversation: its memory, to-do list, recent history and
// voice preference. Callers mutating Memory or Tasks must hold the lock.
type Session struct {
	sync.Mutex
	ID     string
	Memory Memory
	Tasks  TaskList

	history      []Message
	maxMessages  int
	voiceEnabled bool
}

func NewSession(id string, maxMessages int) *Session {
	return &Session{
		ID:           id,
		Memory:       Memory{},
		maxMessages:  maxMessages,
		voiceEnabled: true,
	}
}

// Append records a message in the session history. Caller holds the lock.
func (s *Session) Append(msg Message) {
	s.history = append(s.history, msg)
	if s.maxMessages > 0 && len(s.history) > s.maxMessages {
		s.history = s.history[len(s.history)-s.maxMessages:]
	}
}

// History returns a copy of the recent messages.
func (s *Session) History() []Message {
	s.Lock()
	defer s.Unlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset starts a new chat: memory, tasks and history are cleared. The voice
// preference survives.
func (s *Session) Reset() {
	s.Lock()
	defer s.Unlock()
	s.Memory = Memory{}
	s.Tasks.Clear()
	s.history = nil
}

func (s *Session) VoiceEnabled() bool {
	s.Lock()
	defer s.Unlock()
	return s.voiceEnabled
}

// ToggleVoice flips the voice preference and returns the new value.
func (s *Session) ToggleVoice() bool {
	s.Lock()
	defer s.Unlock()
	s.voiceEnabled = !s.voiceEnabled
	return s.voiceEnabled
}

// MemoryStore indexes sessions by ID for the HTTP shell.
type MemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	maxMessages  int
	voiceDefault bool
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]*Session),
		maxMessages:  maxMessages,
		voiceDefault: true,
	}
}

// SetVoiceDefault sets the voice preference of sessions created from now on.
func (m *MemoryStore) SetVoiceDefault(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceDefault = enabled
}

// Session returns the session for id, creating it on first use.
func (m *MemoryStore) Session(id string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = NewSession(id, m.maxMessages)
	s.voiceEnabled = m.voiceDefault
	m.sessions[id] = s
	return s
}

// Lookup returns an existing session without creating one.
func (m *MemoryStore) Lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// IDs lists known session IDs in sorted order.
func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
