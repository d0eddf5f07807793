package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/dbx"
	"github.com/dmitrijs2005/todovault/internal/server/models"
)

const taskColumns = `id, text, description, priority, category, completed, due_date, tags, created_at, updated_at`

// PostgresRepository implements task storage over a dbx.DB (normally *sql.DB
// opened with the pgx driver).
type PostgresRepository struct {
	db dbx.DB
}

func NewPostgresRepository(db dbx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*models.Task, error) {
	var (
		t        models.Task
		desc     sql.NullString
		due      sql.NullTime
		priority string
		tags     []byte
	)
	if err := s.Scan(&t.ID, &t.Text, &desc, &priority, &t.Category, &t.Completed, &due, &tags, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Priority = models.Priority(priority)
	if desc.Valid {
		t.Description = &desc.String
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &t.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of task %s: %w", t.ID, err)
		}
	}
	t.Tags = normalizeTags(t.Tags)
	return &t, nil
}

func encodeTags(tags []string) (string, error) {
	b, err := json.Marshal(normalizeTags(tags))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("select tasks", err)
	}
	defer rows.Close()

	result := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeError("scan task", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate tasks", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	return getTask(ctx, r.db, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func getTask(ctx context.Context, db dbx.DBTX, query, id string) (*models.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, storeError("select task", err)
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	t := task.Clone()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Tags = normalizeTags(t.Tags)
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.db.ExecContext(ctx, query,
		t.ID, t.Text, t.Description, string(t.Priority), t.Category, t.Completed, t.DueDate, tags, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, storeError("insert task", err)
	}
	return t, nil
}

// Update locks the row, merges the patch and writes the result back in one
// transaction, so concurrent patches to disjoint fields both survive.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch *models.TaskPatch, now time.Time) (*models.Task, error) {
	var updated *models.Task
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		t, err := getTask(ctx, tx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		patch.Apply(t)
		t.UpdatedAt = now

		tags, err := encodeTags(t.Tags)
		if err != nil {
			return fmt.Errorf("encode tags: %w", err)
		}
		query := `UPDATE tasks SET text = $2, description = $3, priority = $4, category = $5,
			completed = $6, due_date = $7, tags = $8, updated_at = $9 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query,
			t.ID, t.Text, t.Description, string(t.Priority), t.Category, t.Completed, t.DueDate, tags, t.UpdatedAt); err != nil {
			return storeError("update task", err)
		}
		updated = t
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, storeError("update task", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return storeError("delete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("rows affected", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}
