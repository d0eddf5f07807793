package httpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/todovault/internal/server/services"
	"github.com/dmitrijs2005/todovault/internal/timex"
)

// dueDate decodes the dueDate field. An empty string or null means no date.
type dueDate struct {
	t *time.Time
}

func (d *dueDate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	t, err := timex.ParseDate(s)
	if err != nil {
		return err
	}
	d.t = &t
	return nil
}

type createTaskRequest struct {
	Text        *string  `json:"text"`
	Description *string  `json:"description"`
	Priority    string   `json:"priority"`
	Category    string   `json:"category"`
	DueDate     dueDate  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

func (r *createTaskRequest) toInput() services.CreateTaskInput {
	in := services.CreateTaskInput{
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate.t,
		Tags:        r.Tags,
	}
	if r.Text != nil {
		in.Text = *r.Text
	}
	return in
}

// updateTaskRequest decodes a partial update. Absent and null fields are
// both left unchanged.
type updateTaskRequest struct {
	Text        *string   `json:"text"`
	Description *string   `json:"description"`
	Priority    *string   `json:"priority"`
	Category    *string   `json:"category"`
	Completed   *bool     `json:"completed"`
	DueDate     dueDate   `json:"dueDate"`
	Tags        *[]string `json:"tags"`
}

func (r *updateTaskRequest) toInput() services.UpdateTaskInput {
	return services.UpdateTaskInput{
		Text:        r.Text,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate.t,
		Tags:        r.Tags,
	}
}

type taskResponse struct {
	ID              string     `json:"id"`
	MongoID         string     `json:"_id"`
	Text            string     `json:"text,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Priority        string     `json:"priority"`
	Category        string     `json:"category"`
	Completed       bool       `json:"completed"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Tags            []string   `json:"tags"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DecryptionError string     `json:"decryptionError,omitempty"`
}

func newTaskResponse(v *services.TaskView) taskResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:              v.ID,
		MongoID:         v.ID,
		Text:            v.Text,
		Description:     v.Description,
		Priority:        string(v.Priority),
		Category:        v.Category,
		Completed:       v.Completed,
		DueDate:         v.DueDate,
		Tags:            tags,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
		DecryptionError: v.DecryptionError,
	}
}

type deleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type healthResponse struct {
	Status     string    `json:"status"`
	Service    string    `json:"service"`
	Encryption string    `json:"encryption"`
	Store      string    `json:"store"`
	Timestamp  time.Time `json:"timestamp"`
}

type encryptionStatusResponse struct {
	Encryption    string    `json:"encryption"`
	Algorithm     string    `json:"algorithm"`
	KeyStatus     string    `json:"keyStatus"`
	KeyFileExists bool      `json:"keyFileExists"`
	KeyLocation   string    `json:"keyLocation"`
	Timestamp     time.Time `json:"timestamp"`
}

type selfTestRequest struct {
	Text string `json:"text"`
}

type selfTestResponse struct {
	Original  string `json:"original"`
	Encrypted string `json:"encrypted"`
	Decrypted string `json:"decrypted"`
	Success   bool   `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
