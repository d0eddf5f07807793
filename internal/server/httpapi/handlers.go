package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/cryptox"
	"github.com/dmitrijs2005/todovault/internal/logging"
	"github.com/dmitrijs2005/todovault/internal/server/services"
)

const maxBodyBytes = 1 << 20

// TaskService is what the handlers need from services.TaskService.
type TaskService interface {
	List(ctx context.Context) ([]services.TaskView, error)
	Get(ctx context.Context, id string) (*services.TaskView, error)
	Create(ctx context.Context, in services.CreateTaskInput) (*services.TaskView, error)
	Update(ctx context.Context, id string, in services.UpdateTaskInput) (*services.TaskView, error)
	Delete(ctx context.Context, id string) error
	EncryptionStatus(ctx context.Context) (*services.EncryptionStatus, error)
	EncryptionSelfTest(text string) (*cryptox.SelfTestReport, error)
	Ping(ctx context.Context) error
}

type Handlers struct {
	svc    TaskService
	logger logging.Logger
	now    func() time.Time
}

func NewHandlers(svc TaskService, logger logging.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger, now: time.Now}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.NewFieldError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "OK",
		Service:    "todovault",
		Encryption: "enabled",
		Store:      "up",
		Timestamp:  h.now().UTC(),
	}
	status := http.StatusOK
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "store ping failed", "error", err)
		resp.Status = "DEGRADED"
		resp.Store = "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]taskResponse, 0, len(views))
	for i := range views {
		out = append(out, newTaskResponse(&views[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(v))
}

func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	v, err := h.svc.Create(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(v))
}

func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	v, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(v))
}

func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "Todo deleted successfully", ID: id})
}

func (h *Handlers) EncryptionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.EncryptionStatus(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	keyStatus := "missing"
	switch {
	case st.KeyLoaded:
		keyStatus = "loaded"
	case st.KeyPresent:
		keyStatus = "present"
	}
	writeJSON(w, http.StatusOK, encryptionStatusResponse{
		Encryption:    "enabled",
		Algorithm:     string(st.Algorithm),
		KeyStatus:     keyStatus,
		KeyFileExists: st.KeyPresent,
		KeyLocation:   st.KeyLocation,
		Timestamp:     h.now().UTC(),
	})
}

func (h *Handlers) EncryptionTest(w http.ResponseWriter, r *http.Request) {
	var req selfTestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	report, err := h.svc.EncryptionSelfTest(req.Text)
	if err != nil {
		if !errors.Is(err, common.ErrValidation) {
			h.logger.Error(r.Context(), "encryption self test failed", "error", err)
		}
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, selfTestResponse{
		Original:  report.Original,
		Encrypted: report.Encrypted,
		Decrypted: report.Decrypted,
		Success:   report.Success,
	})
}
