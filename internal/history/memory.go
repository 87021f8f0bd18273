package history

import (
	"context"
	"sync"
)

// MemoryBackend keeps the serialized ledger in memory. It stores bytes, not
// entries, so it exercises the same codec as durable backends.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load implements Backend. An empty backend loads as an empty ledger.
func (m *MemoryBackend) Load(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) == 0 {
		return nil, nil
	}
	return Unmarshal(m.data)
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, entries []Entry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Bytes returns a copy of the stored representation.
func (m *MemoryBackend) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// SetBytes replaces the stored representation, for seeding and tests.
func (m *MemoryBackend) SetBytes(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}
