package keys

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/logging"
)

// Manager loads the master key from a Store, generating and persisting it
// on first use, and caches it for the life of the process.
type Manager struct {
	store  Store
	logger logging.Logger

	mu  sync.Mutex
	key *Key
}

func NewManager(store Store, logger logging.Logger) *Manager {
	return &Manager{store: store, logger: logger.With("module", "keys")}
}

// Obtain returns the master key. The first successful call reads the key
// from the store, or generates one if the store is empty; later calls return
// the cached key. Every failure wraps common.ErrKeyUnavailable and is retried
// on the next call rather than cached.
func (m *Manager) Obtain(ctx context.Context) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return m.key, nil
	}

	key, err := m.loadOrCreate(ctx)
	if err != nil {
		return nil, unavailable(err)
	}

	m.key = key
	return key, nil
}

func (m *Manager) loadOrCreate(ctx context.Context) (*Key, error) {
	raw, err := m.store.Load(ctx)
	if err == nil {
		return m.fromStored(ctx, raw)
	}
	if !errors.Is(err, common.ErrKeyNotFound) {
		return nil, err
	}

	key, err := Generate()
	if err != nil {
		return nil, err
	}

	material := key.Material()
	defer common.WipeByteArray(material)

	err = m.store.Create(ctx, material)
	if errors.Is(err, ErrKeyExists) {
		// someone else persisted a key between our Load and Create
		m.logger.Warn(ctx, "key appeared concurrently, loading it", "location", m.store.Location())
		raw, err := m.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		return m.fromStored(ctx, raw)
	}
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "generated new encryption key", "location", m.store.Location())
	return key, nil
}

func (m *Manager) fromStored(ctx context.Context, raw []byte) (*Key, error) {
	defer common.WipeByteArray(raw)

	key, err := NewKey(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt key at %s: %w", m.store.Location(), err)
	}
	m.logger.Info(ctx, "loaded encryption key", "location", m.store.Location())
	return key, nil
}

func unavailable(err error) error {
	if errors.Is(err, common.ErrKeyUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrKeyUnavailable, err)
}

// Status is a non-secret description of the key's state.
type Status struct {
	Location string
	Present  bool
	Loaded   bool
}

// Status reports where the key lives, whether the store currently holds it
// and whether this process has loaded it.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	present, err := m.store.Exists(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("check key presence: %w", err)
	}

	m.mu.Lock()
	loaded := m.key != nil
	m.mu.Unlock()

	return Status{Location: m.store.Location(), Present: present, Loaded: loaded}, nil
}
