package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps objects in process memory. Used in development
// configurations and in tests.
type MemoryStore struct {
	mu            sync.RWMutex
	objects       map[string][]byte
	contentTypes  map[string]string
	publicURLBase string
}

func NewMemoryStore(publicURLBase string) *MemoryStore {
	return &MemoryStore{
		objects:       make(map[string][]byte),
		contentTypes:  make(map[string]string),
		publicURLBase: publicURLBase,
	}
}

func (m *MemoryStore) WriteBytes(_ context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	m.contentTypes[key] = contentType
	return "mem://" + key, nil
}

func (m *MemoryStore) ReadBytes(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (m *MemoryStore) PublicURL(key string) string {
	if m.publicURLBase != "" {
		return m.publicURLBase + "/" + key
	}
	return "mem://" + key
}

// ContentType reports the content type recorded for key. Test helper.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Len reports how many objects are stored. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
