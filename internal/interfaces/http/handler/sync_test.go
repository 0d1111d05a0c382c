package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/integration"
)

func TestSyncHandler_StartSync_InvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/sync/tasks", map[string]any{"mode": "ALL_ACTIVE"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	parsed := decodeResponse(t, w)
	assert.False(t, parsed["success"].(bool))
}

func TestSyncHandler_StartSync_InvalidFilter(t *testing.T) {
	f := newHandlerFixture(t)

	w := postJSON(t, f, "/api/v1/sync/tasks", map[string]any{
		"vendor_id": "plonk",
		"mode":      "EVERYTHING",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	parsed := decodeResponse(t, w)
	errInfo := parsed["error"].(map[string]any)
	assert.Equal(t, "ERR_INVALID_FILTER", errInfo["code"])
}

func TestSyncHandler_StartSync_Conflict(t *testing.T) {
	f := newHandlerFixture(t)
	running := integration.NewSyncTask("plonk", integration.AllActiveFilter())
	f.taskRepo.findActiveFn = func(ctx context.Context, vendorID string) (*integration.SyncTask, error) {
		return running, nil
	}

	w := postJSON(t, f, "/api/v1/sync/tasks", map[string]any{
		"vendor_id": "plonk",
		"mode":      "ALL_ACTIVE",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	parsed := decodeResponse(t, w)
	errInfo := parsed["error"].(map[string]any)
	assert.Equal(t, "ERR_SYNC_RUNNING", errInfo["code"])
}

func TestSyncHandler_StartSync_Accepted(t *testing.T) {
	f := newHandlerFixture(t)

	var mu sync.Mutex
	done := make(chan struct{})
	var closeOnce sync.Once
	f.taskRepo.saveFn = func(ctx context.Context, task *integration.SyncTask) error {
		mu.Lock()
		defer mu.Unlock()
		if task.Status.IsTerminal() {
			closeOnce.Do(func() { close(done) })
		}
		return nil
	}
	f.tokenRepo.findFn = func(ctx context.Context, vendorID string) (*integration.Credential, error) {
		return &integration.Credential{
			VendorID: vendorID, AccessToken: "tok",
			IssuedAt: time.Now(), ExpiresIn: 3600,
		}, nil
	}

	w := postJSON(t, f, "/api/v1/sync/tasks", map[string]any{
		"vendor_id":    "plonk",
		"mode":         "CATEGORIES",
		"category_ids": []string{"c1"},
	})

	assert.Equal(t, http.StatusAccepted, w.Code)
	parsed := decodeResponse(t, w)
	data := parsed["data"].(map[string]any)
	assert.Equal(t, "PENDING", data["status"])
	assert.NotEmpty(t, data["id"])

	// Let the background run reach a terminal state before teardown
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background task never finished")
	}
}

func TestSyncHandler_GetTask_InvalidID(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/sync/tasks/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncHandler_GetTask_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/sync/tasks/"+uuid.NewString(), nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	parsed := decodeResponse(t, w)
	errInfo := parsed["error"].(map[string]any)
	assert.Equal(t, "ERR_TASK_NOT_FOUND", errInfo["code"])
}

func TestSyncHandler_GetTask_CapsResults(t *testing.T) {
	f := newHandlerFixture(t)

	task := integration.NewSyncTask("plonk", integration.AllActiveFilter())
	task.TotalRecords = 30
	require.NoError(t, task.Start(time.Now()))
	for i := 0; i < 30; i++ {
		task.RecordProcessed(integration.RecordResult{
			ProductID: fmt.Sprintf("p%d", i),
			Action:    integration.RecordActionUpdated,
			Success:   true,
		})
	}
	f.taskRepo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error) {
		return task, nil
	}

	w := f.request(t, http.MethodGet, "/api/v1/sync/tasks/"+task.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	parsed := decodeResponse(t, w)
	data := parsed["data"].(map[string]any)
	results := data["results"].([]any)
	// Only the newest twenty travel over the wire
	assert.Len(t, results, 20)
	first := results[0].(map[string]any)
	assert.Equal(t, "p10", first["product_id"])
	assert.Equal(t, float64(30), data["processed_records"])
}

func TestSyncHandler_CancelTask_Terminal(t *testing.T) {
	f := newHandlerFixture(t)

	task := integration.NewSyncTask("plonk", integration.AllActiveFilter())
	require.NoError(t, task.Start(time.Now()))
	require.NoError(t, task.Complete(time.Now()))
	f.taskRepo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*integration.SyncTask, error) {
		return task, nil
	}

	w := f.request(t, http.MethodDelete, "/api/v1/sync/tasks/"+task.ID.String(), nil, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	parsed := decodeResponse(t, w)
	errInfo := parsed["error"].(map[string]any)
	assert.Equal(t, "ERR_TASK_TERMINAL", errInfo["code"])
}

func TestSyncHandler_ListTasks(t *testing.T) {
	f := newHandlerFixture(t)

	newest := integration.NewSyncTask("plonk", integration.AllActiveFilter())
	f.taskRepo.findRecentFn = func(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error) {
		assert.Equal(t, "plonk", vendorID)
		assert.Equal(t, 20, limit)
		return []*integration.SyncTask{newest}, nil
	}

	w := f.request(t, http.MethodGet, "/api/v1/sync/tasks?vendor_id=plonk", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	parsed := decodeResponse(t, w)
	data := parsed["data"].([]any)
	require.Len(t, data, 1)
}

func TestSyncHandler_ListTasks_RequiresVendor(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/sync/tasks", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
