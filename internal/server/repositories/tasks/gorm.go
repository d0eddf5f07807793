package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/server/models"
)

// gormTask is the row layout of the tasks table in the embedded SQLite store.
// Timestamps are owned by the service, so gorm's auto timestamps are off.
type gormTask struct {
	ID          string `gorm:"primaryKey;type:text"`
	Text        string `gorm:"not null"`
	Description *string
	Priority    string `gorm:"not null;default:Medium"`
	Category    string `gorm:"not null;default:General"`
	Completed   bool   `gorm:"not null;default:false"`
	DueDate     *time.Time
	Tags        []string  `gorm:"serializer:json"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (gormTask) TableName() string { return "tasks" }

func gormTaskFromModel(t *models.Task) gormTask {
	return gormTask{
		ID:          t.ID,
		Text:        t.Text,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    t.Category,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		Tags:        normalizeTags(t.Tags),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (g *gormTask) toModel() *models.Task {
	return &models.Task{
		ID:          g.ID,
		Text:        g.Text,
		Description: g.Description,
		Priority:    models.Priority(g.Priority),
		Category:    g.Category,
		Completed:   g.Completed,
		DueDate:     g.DueDate,
		Tags:        normalizeTags(g.Tags),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// GormRepository stores tasks through gorm, normally on a single-node SQLite file.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate creates or updates the tasks table.
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&gormTask{}); err != nil {
		return storeError("migrate tasks", err)
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context) ([]*models.Task, error) {
	var rows []gormTask
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("rowid DESC").Find(&rows).Error; err != nil {
		return nil, storeError("list tasks", err)
	}
	result := make([]*models.Task, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].toModel())
	}
	return result, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormRepository) get(db *gorm.DB, id string) (*models.Task, error) {
	var row gormTask
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, storeError("get task", err)
	}
	return row.toModel(), nil
}

func (r *GormRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	row := gormTaskFromModel(task)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, storeError("create task", err)
	}
	return row.toModel(), nil
}

func (r *GormRepository) Update(ctx context.Context, id string, patch *models.TaskPatch, now time.Time) (*models.Task, error) {
	var updated *models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := r.get(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(t)
		t.UpdatedAt = now

		row := gormTaskFromModel(t)
		if err := tx.Save(&row).Error; err != nil {
			return storeError("save task", err)
		}
		updated = row.toModel()
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

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&gormTask{})
	if res.Error != nil {
		return storeError("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}
