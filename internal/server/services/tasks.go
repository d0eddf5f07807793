// Package services holds the task store service: CRUD over task records
// with the sensitive fields sealed by the field cipher on the way in and
// opened on the way out.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/cryptox"
	"github.com/dmitrijs2005/todovault/internal/keys"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/models"
	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

// DecryptionErrorMarker replaces the sensitive fields of a record that
// could not be decrypted.
const DecryptionErrorMarker = "decryption failed"

// KeyStatusProvider reports the master key's state. *keys.Manager implements it.
type KeyStatusProvider interface {
	Status(ctx context.Context) (keys.Status, error)
}

// TaskView is a task as returned to callers: plaintext sensitive fields, or
// a DecryptionError with Text and Description left empty.
type TaskView struct {
	ID              string
	Text            string
	Description     *string
	Priority        models.Priority
	Category        string
	Completed       bool
	DueDate         *time.Time
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DecryptionError string
}

type CreateTaskInput struct {
	Text        string
	Description *string
	Priority    string
	Category    string
	DueDate     *time.Time
	Tags        []string
}

// UpdateTaskInput carries the fields of a partial update; nil means absent.
type UpdateTaskInput struct {
	Text        *string
	Description *string
	Priority    *string
	Category    *string
	Completed   *bool
	DueDate     *time.Time
	Tags        *[]string
}

// MigrationReport summarises a MigrateLegacy run.
type MigrationReport struct {
	Scanned  int
	Migrated int
	Skipped  int
	Failed   []string
}

// EncryptionStatus is the non-secret diagnostic view of the encryption layer.
type EncryptionStatus struct {
	Algorithm   cryptox.Algorithm
	KeyPresent  bool
	KeyLoaded   bool
	KeyLocation string
}

type TaskService struct {
	repo   tasks.Repository
	cipher *cryptox.Cipher
	keys   KeyStatusProvider
	logger logging.Logger
	now    func() time.Time
}

func NewTaskService(repo tasks.Repository, cipher *cryptox.Cipher, keys KeyStatusProvider, logger logging.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		cipher: cipher,
		keys:   keys,
		logger: logger.With("module", "tasks"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// view opens the sensitive fields of t. A failure is recorded on the view
// instead of being returned, so one bad record never hides the others.
func (s *TaskService) view(ctx context.Context, t *models.Task) TaskView {
	v := TaskView{
		ID:        t.ID,
		Priority:  t.Priority,
		Category:  t.Category,
		Completed: t.Completed,
		DueDate:   t.DueDate,
		Tags:      t.Tags,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}

	text, err := s.cipher.Decrypt(t.Text)
	if err == nil {
		var desc *string
		desc, err = s.cipher.DecryptOptional(t.Description)
		if err == nil {
			v.Text = text
			v.Description = desc
			return v
		}
	}

	s.logger.Error(ctx, "cannot decrypt task", "id", t.ID, "error", err)
	v.DecryptionError = DecryptionErrorMarker
	return v
}

// List returns every task, newest first. Records that fail to decrypt are
// included with DecryptionError set.
func (s *TaskService) List(ctx context.Context) ([]TaskView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]TaskView, 0, len(items))
	for _, t := range items {
		out = append(out, s.view(ctx, t))
	}
	return out, nil
}

// Get returns one task. Unlike List, a decryption failure is an error here.
func (s *TaskService) Get(ctx context.Context, id string) (*TaskView, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	v := s.view(ctx, t)
	if v.DecryptionError != "" {
		return nil, fmt.Errorf("get task %s: %w", id, common.ErrDecryptionFailed)
	}
	return &v, nil
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*TaskView, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, common.NewFieldError("text", "is required")
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	sealedText, err := s.cipher.Encrypt(text)
	if err != nil {
		return nil, fmt.Errorf("encrypt text: %w", err)
	}
	var description *string
	if in.Description != nil && *in.Description != "" {
		if description, err = s.cipher.EncryptOptional(in.Description); err != nil {
			return nil, fmt.Errorf("encrypt description: %w", err)
		}
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &models.Task{
		Text:        sealedText,
		Description: description,
		Priority:    priority,
		Category:    category,
		Completed:   false,
		DueDate:     in.DueDate,
		Tags:        append([]string{}, in.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	v := s.view(ctx, created)
	return &v, nil
}

func (s *TaskService) buildPatch(in UpdateTaskInput) (*models.TaskPatch, error) {
	patch := &models.TaskPatch{
		Completed: in.Completed,
		DueDate:   in.DueDate,
		Tags:      in.Tags,
	}
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, common.NewFieldError("text", "must not be blank")
		}
		sealed, err := s.cipher.Encrypt(text)
		if err != nil {
			return nil, fmt.Errorf("encrypt text: %w", err)
		}
		patch.Text = &sealed
	}
	if in.Description != nil {
		sealed, err := s.cipher.EncryptOptional(in.Description)
		if err != nil {
			return nil, fmt.Errorf("encrypt description: %w", err)
		}
		patch.Description = sealed
	}
	if in.Priority != nil {
		p, err := models.ParsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		patch.Priority = &p
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == "" {
			category = models.DefaultCategory
		}
		patch.Category = &category
	}
	return patch, nil
}

// Update merges the supplied fields into the stored task and bumps its
// updatedAt.
func (s *TaskService) Update(ctx context.Context, id string, in UpdateTaskInput) (*TaskView, error) {
	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	v := s.view(ctx, updated)
	return &v, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// sealLegacy returns the envelope for a legacy value, or nil when value is
// already an envelope.
func (s *TaskService) sealLegacy(value string) (*string, error) {
	opened, err := s.cipher.Open(value)
	if err != nil {
		return nil, err
	}
	if opened.Kind != cryptox.KindLegacy {
		return nil, nil
	}
	sealed, err := s.cipher.Encrypt(opened.Plaintext)
	if err != nil {
		return nil, err
	}
	return &sealed, nil
}

// MigrateLegacy encrypts every text and description still stored as legacy
// plaintext. Records whose envelopes do not open are left alone and listed
// in the report. The updatedAt of migrated records is preserved.
func (s *TaskService) MigrateLegacy(ctx context.Context) (*MigrationReport, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	report := &MigrationReport{}
	for _, t := range items {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		patch := &models.TaskPatch{}
		if patch.Text, err = s.sealLegacy(t.Text); err == nil && t.Description != nil {
			patch.Description, err = s.sealLegacy(*t.Description)
		}
		if err != nil {
			s.logger.Warn(ctx, "skipping task that does not decrypt", "id", t.ID, "error", err)
			report.Failed = append(report.Failed, t.ID)
			continue
		}
		if patch.IsEmpty() {
			report.Skipped++
			continue
		}

		if _, err := s.repo.Update(ctx, t.ID, patch, t.UpdatedAt); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				report.Skipped++
				continue
			}
			return report, fmt.Errorf("migrate task %s: %w", t.ID, err)
		}
		report.Migrated++
	}

	s.logger.Info(ctx, "legacy migration finished",
		"scanned", report.Scanned, "migrated", report.Migrated, "skipped", report.Skipped, "failed", len(report.Failed))
	return report, nil
}

func (s *TaskService) EncryptionStatus(ctx context.Context) (*EncryptionStatus, error) {
	st, err := s.keys.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("key status: %w", err)
	}
	return &EncryptionStatus{
		Algorithm:   s.cipher.Algorithm(),
		KeyPresent:  st.Present,
		KeyLoaded:   st.Loaded,
		KeyLocation: st.Location,
	}, nil
}

// EncryptionSelfTest round-trips text through the cipher.
func (s *TaskService) EncryptionSelfTest(text string) (*cryptox.SelfTestReport, error) {
	if text == "" {
		return nil, common.NewFieldError("text", "is required")
	}
	return s.cipher.SelfTest(text)
}

// Ping checks the task store.
func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
