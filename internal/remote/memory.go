package remote

import (
	"context"
	"strings"
	"sync"
)

// MemoryOptions configures a MemoryManager.
type MemoryOptions struct {
	BaseURL string
}

// MemoryManager keeps objects in process memory. It is meant for local
// development and tests; contents are lost on restart.
type MemoryManager struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryManager returns an empty store serving URLs under o.BaseURL.
func NewMemoryManager(o MemoryOptions) *MemoryManager {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = "memory://remotefiles"
	}
	return &MemoryManager{objects: make(map[string][]byte), baseURL: base}
}

func (m *MemoryManager) Name() string { return string(BackendMemory) }

func (m *MemoryManager) Write(_ context.Context, p string, contents []byte) bool {
	buf := make([]byte, len(contents))
	copy(buf, contents)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[p] = buf
	return true
}

func (m *MemoryManager) Delete(_ context.Context, p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, p)
	return true
}

func (m *MemoryManager) URL(p string) string {
	return m.baseURL + "/" + strings.TrimLeft(p, "/")
}

// Get returns a copy of the object stored at p.
func (m *MemoryManager) Get(p string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[p]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true
}

// Len reports how many objects are stored.
func (m *MemoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
