package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/server/models"
)

type memoryRecord struct {
	task *models.Task
	seq  uint64
}

// MemoryRepository keeps tasks in a mutex-guarded map. Records are cloned on
// the way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	seq     uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]memoryRecord)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("list tasks", err)
	}
	r.mu.RLock()
	recs := make([]memoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*models.Task, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.task.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("get task", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rec.task.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("create task", err)
	}
	t := task.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Tags = normalizeTags(t.Tags)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.records[t.ID] = memoryRecord{task: t, seq: r.seq}
	return t.Clone(), nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch *models.TaskPatch, now time.Time) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("update task", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	t := rec.task.Clone()
	patch.Apply(t)
	t.UpdatedAt = now
	rec.task = t
	r.records[id] = rec
	return t.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return storeError("delete task", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
