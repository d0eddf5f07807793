package keys

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/todovault/internal/common"
)

// MemoryStore keeps the key in process memory. It exists for tests and for
// throwaway deployments where losing the key on restart is acceptable.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns a store preloaded with initial, or an empty store
// when initial is nil.
func NewMemoryStore(initial []byte) *MemoryStore {
	s := &MemoryStore{}
	if initial != nil {
		s.data = append([]byte(nil), initial...)
	}
	return s
}

func (s *MemoryStore) Location() string { return "memory" }

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, common.ErrKeyNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Create(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return ErrKeyExists
	}
	s.data = append([]byte(nil), key...)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data != nil, nil
}
