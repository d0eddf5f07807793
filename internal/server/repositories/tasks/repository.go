// Package tasks persists task records. Every backend stores the sensitive
// fields exactly as handed in; encryption happens a layer above.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/server/models"
)

// Repository is a key-ordered task store. Get, Update and Delete return
// common.ErrNotFound for unknown ids; driver failures wrap
// common.ErrStoreUnavailable.
type Repository interface {
	// List returns every task, most recently created first.
	List(ctx context.Context) ([]*models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	// Create assigns an id when the task has none and returns the stored record.
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	// Update merges patch into the stored record and sets its updatedAt to now.
	Update(ctx context.Context, id string, patch *models.TaskPatch, now time.Time) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}

func normalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
