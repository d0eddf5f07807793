package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/todovault/internal/common"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "High", want: PriorityHigh},
		{in: "Medium", want: PriorityMedium},
		{in: "Low", want: PriorityLow},
		{in: "", want: PriorityMedium},
		{in: "high", wantErr: true},
		{in: "Urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskPatch_ApplyMergesOnlyPresentFields(t *testing.T) {
	due := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &Task{ID: "1", Text: "old", Priority: PriorityLow, Category: "Home", Tags: []string{"a"}}

	completed := true
	text := "new"
	tags := []string{"x", "y"}
	patch := &TaskPatch{Text: &text, Completed: &completed, DueDate: &due, Tags: &tags}
	require.False(t, patch.IsEmpty())

	patch.Apply(task)

	assert.Equal(t, "new", task.Text)
	assert.True(t, task.Completed)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Equal(t, "Home", task.Category)
	assert.Equal(t, []string{"x", "y"}, task.Tags)
	require.NotNil(t, task.DueDate)
	assert.True(t, due.Equal(*task.DueDate))

	tags[0] = "mutated"
	assert.Equal(t, "x", task.Tags[0], "apply must copy the tags slice")
}

func TestTaskPatch_IsEmpty(t *testing.T) {
	assert.True(t, (&TaskPatch{}).IsEmpty())
}

func TestTask_CloneIsDeep(t *testing.T) {
	desc := "d"
	due := time.Now()
	orig := &Task{ID: "1", Description: &desc, DueDate: &due, Tags: []string{"a"}}

	c := orig.Clone()
	*c.Description = "changed"
	c.Tags[0] = "b"

	assert.Equal(t, "d", *orig.Description)
	assert.Equal(t, "a", orig.Tags[0])
}
