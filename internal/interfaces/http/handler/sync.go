package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appintegration "github.com/shopsync/backend/internal/application/integration"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// defaultRecentLimit caps the task history listing
const defaultRecentLimit = 20

// SyncHandler exposes sync task operations
type SyncHandler struct {
	BaseHandler
	orchestrator *appintegration.Orchestrator
	logger       *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *appintegration.Orchestrator, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		logger:       logger.Named("sync-handler"),
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/tasks", h.StartSync)
		sync.GET("/tasks", h.ListTasks)
		sync.GET("/tasks/:id", h.GetTask)
		sync.DELETE("/tasks/:id", h.CancelTask)
	}
}

// StartSync accepts a sync request and returns the pending task
// @Router /sync/tasks [post]
func (h *SyncHandler) StartSync(c *gin.Context) {
	var req dto.StartSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	task, err := h.orchestrator.StartTask(c.Request.Context(), req.VendorID, req.ToFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, dto.NewTaskResponse(task))
}

// GetTask returns the live state of one task
// @Router /sync/tasks/{id} [get]
func (h *SyncHandler) GetTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid task ID")
		return
	}

	task, err := h.orchestrator.GetTaskStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, dto.NewTaskResponse(task))
}

// ListTasks returns the newest tasks for a vendor
// @Router /sync/tasks [get]
func (h *SyncHandler) ListTasks(c *gin.Context) {
	vendorID := c.Query("vendor_id")
	if vendorID == "" {
		h.BadRequest(c, "vendor_id is required")
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	tasks, err := h.orchestrator.RecentTasks(c.Request.Context(), vendorID, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	summaries := make([]dto.TaskSummaryResponse, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, dto.NewTaskSummaryResponse(task))
	}
	h.Success(c, summaries)
}

// CancelTask stops a non-terminal task
// @Router /sync/tasks/{id} [delete]
func (h *SyncHandler) CancelTask(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid task ID")
		return
	}

	if err := h.orchestrator.CancelTask(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.logger.Info("task cancellation requested", zap.String("task_id", id.String()))
	h.NoContent(c)
}
