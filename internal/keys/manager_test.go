package keys

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/logging"
)

// scriptedStore replays canned results to exercise the manager's branches.
type scriptedStore struct {
	Store
	loads     [][]byte
	loadErrs  []error
	createErr error
	loadCalls int
}

func (s *scriptedStore) Load(ctx context.Context) ([]byte, error) {
	i := s.loadCalls
	s.loadCalls++
	if i < len(s.loadErrs) && s.loadErrs[i] != nil {
		return nil, s.loadErrs[i]
	}
	return append([]byte(nil), s.loads[i]...), nil
}

func (s *scriptedStore) Create(ctx context.Context, key []byte) error { return s.createErr }
func (s *scriptedStore) Location() string                            { return "scripted" }

func TestManager_GeneratesOnFirstUse(t *testing.T) {
	store := NewMemoryStore(nil)
	m := NewManager(store, logging.Nop())

	key, err := m.Obtain(context.Background())
	require.NoError(t, err)

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key.Material(), persisted)
}

func TestManager_LoadsExistingVerbatim(t *testing.T) {
	existing := bytes.Repeat([]byte{0x42}, Size)
	m := NewManager(NewMemoryStore(existing), logging.Nop())

	key, err := m.Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, existing, key.Material())
}

func TestManager_CachesKey(t *testing.T) {
	m := NewManager(NewMemoryStore(nil), logging.Nop())

	first, err := m.Obtain(context.Background())
	require.NoError(t, err)
	second, err := m.Obtain(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestManager_RestartReturnsIdenticalKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encryption.key")

	before, err := NewManager(NewFileStore(path), logging.Nop()).Obtain(context.Background())
	require.NoError(t, err)

	after, err := NewManager(NewFileStore(path), logging.Nop()).Obtain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before.Material(), after.Material())
}

func TestManager_CorruptKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encryption.key")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o600))

	_, err := NewManager(NewFileStore(path), logging.Nop()).Obtain(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))

	// the corrupt file must never be replaced implicitly
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("too short"), got)
}

func TestManager_UnwritableLocation(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewManager(NewFileStore(filepath.Join(blocker, "k")), logging.Nop()).Obtain(context.Background())
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))
}

func TestManager_LostCreateRaceLoadsWinner(t *testing.T) {
	winner := bytes.Repeat([]byte{5}, Size)
	store := &scriptedStore{
		loads:     [][]byte{nil, winner},
		loadErrs:  []error{common.ErrKeyNotFound, nil},
		createErr: ErrKeyExists,
	}

	key, err := NewManager(store, logging.Nop()).Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, winner, key.Material())
	assert.Equal(t, 2, store.loadCalls)
}

func TestManager_FailureIsNotCached(t *testing.T) {
	good := bytes.Repeat([]byte{3}, Size)
	store := &scriptedStore{
		loads:    [][]byte{nil, good},
		loadErrs: []error{errors.New("disk on fire"), nil},
	}
	m := NewManager(store, logging.Nop())

	_, err := m.Obtain(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrKeyUnavailable))

	key, err := m.Obtain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, good, key.Material())
}

func TestManager_ConcurrentObtainGeneratesOnce(t *testing.T) {
	store := NewMemoryStore(nil)
	m := NewManager(store, logging.Nop())

	var wg sync.WaitGroup
	results := make([]*Key, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := m.Obtain(context.Background())
			assert.NoError(t, err)
			results[i] = k
		}(i)
	}
	wg.Wait()

	for _, k := range results[1:] {
		assert.Same(t, results[0], k)
	}
}

func TestManager_Status(t *testing.T) {
	m := NewManager(NewMemoryStore(nil), logging.Nop())

	st, err := m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Status{Location: "memory", Present: false, Loaded: false}, st)

	_, err = m.Obtain(context.Background())
	require.NoError(t, err)

	st, err = m.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Status{Location: "memory", Present: true, Loaded: true}, st)
}
