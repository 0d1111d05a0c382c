package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

// Orchestrator runs sync tasks. A task is accepted synchronously and executed
// on a background goroutine bounded by a deadline; progress is persisted after
// every record so status polling always sees live numbers.
type Orchestrator struct {
	tasks       integration.TaskRepository
	tokens      *TokenService
	source      integration.CatalogSource
	importer    *Importer
	maxDuration time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc

	// startMu serializes the active-task check with the pending insert
	startMu sync.Mutex
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	tasks integration.TaskRepository,
	tokens *TokenService,
	source integration.CatalogSource,
	importer *Importer,
	maxDuration time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		tasks:       tasks,
		tokens:      tokens,
		source:      source,
		importer:    importer,
		maxDuration: maxDuration,
		logger:      logger.Named("orchestrator"),
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// StartTask validates the filter, enforces the one-active-task-per-vendor
// rule, persists a pending task and launches its run. The returned task is
// the accepted pending snapshot. The active-task check and the pending
// insert happen under one lock, so concurrent triggers for the same vendor
// cannot both be accepted.
func (o *Orchestrator) StartTask(ctx context.Context, vendorID string, filter integration.SyncFilter) (*integration.SyncTask, error) {
	if vendorID == "" {
		return nil, fmt.Errorf("vendor ID is required")
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	o.startMu.Lock()
	defer o.startMu.Unlock()

	if _, err := o.tasks.FindActiveByVendor(ctx, vendorID); err == nil {
		return nil, integration.ErrSyncAlreadyRunning
	} else if !errors.Is(err, integration.ErrTaskNotFound) {
		return nil, err
	}

	task := integration.NewSyncTask(vendorID, filter)
	if err := o.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(context.Background(), o.maxDuration)
	o.mu.Lock()
	o.cancels[task.ID] = cancel
	o.mu.Unlock()

	// The run goroutine owns the task from here; callers get a snapshot
	accepted := *task
	go o.run(runCtx, task)

	o.logger.Info("sync task accepted",
		zap.String("task_id", task.ID.String()),
		zap.String("vendor_id", vendorID),
		zap.String("filter", filter.ContextKey()),
	)
	return &accepted, nil
}

// GetTaskStatus returns the persisted state of a task
func (o *Orchestrator) GetTaskStatus(ctx context.Context, taskID uuid.UUID) (*integration.SyncTask, error) {
	return o.tasks.FindByID(ctx, taskID)
}

// RecentTasks returns the newest tasks for a vendor
func (o *Orchestrator) RecentTasks(ctx context.Context, vendorID string, limit int) ([]*integration.SyncTask, error) {
	return o.tasks.FindRecentByVendor(ctx, vendorID, limit)
}

// CancelTask stops a non-terminal task. A task running in this process is
// cancelled through its context; one orphaned by a restart is failed directly.
func (o *Orchestrator) CancelTask(ctx context.Context, taskID uuid.UUID) error {
	task, err := o.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status.IsTerminal() {
		return integration.ErrTaskTerminal
	}

	o.mu.Lock()
	cancel, ok := o.cancels[taskID]
	o.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	if err := task.Fail(time.Now(), integration.ErrTaskCancelled); err != nil {
		return err
	}
	return o.tasks.Save(ctx, task)
}

// run executes one task to a terminal state. It owns every mutation of the
// task after acceptance.
func (o *Orchestrator) run(ctx context.Context, task *integration.SyncTask) {
	defer func() {
		o.mu.Lock()
		if cancel, ok := o.cancels[task.ID]; ok {
			cancel()
			delete(o.cancels, task.ID)
		}
		o.mu.Unlock()
	}()

	if err := task.Start(time.Now()); err != nil {
		o.logger.Error("task start rejected", zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	if err := o.tasks.Save(ctx, task); err != nil {
		o.fail(task, err)
		return
	}

	cursor := ""
	for {
		if err := runErr(ctx); err != nil {
			o.fail(task, err)
			return
		}

		// Long traversals outlive a token's validity window, so every page
		// starts from a token with the refresh margin still intact
		cred, err := o.tokens.GetValidToken(ctx, task.VendorID)
		if err != nil {
			o.fail(task, err)
			return
		}

		page, err := o.source.FetchPage(ctx, cred, task.Filter, cursor)
		if err != nil {
			o.fail(task, err)
			return
		}
		if task.TotalRecords == 0 {
			task.TotalRecords = page.TotalCount
		}

		for idx := range page.Products {
			if err := runErr(ctx); err != nil {
				o.fail(task, err)
				return
			}
			result := o.importer.SyncProduct(ctx, &page.Products[idx])
			task.RecordProcessed(result)
			if err := o.tasks.Save(ctx, task); err != nil {
				o.fail(task, err)
				return
			}
		}

		task.Checkpoint(page.EndCursor)
		if err := o.tasks.Save(ctx, task); err != nil {
			o.fail(task, err)
			return
		}

		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}

	if err := task.Complete(time.Now()); err != nil {
		o.logger.Error("task completion rejected", zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	if err := o.tasks.Save(context.Background(), task); err != nil {
		o.logger.Error("failed to persist completed task",
			zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}

	o.logger.Info("sync task completed",
		zap.String("task_id", task.ID.String()),
		zap.String("vendor_id", task.VendorID),
		zap.Int("processed", task.ProcessedRecords),
		zap.Int("failed", task.FailedRecordCount()),
	)
}

// fail transitions the task to failed and persists it with a fresh context,
// since the run context may be the thing that died
func (o *Orchestrator) fail(task *integration.SyncTask, cause error) {
	if err := task.Fail(time.Now(), cause); err != nil {
		return
	}
	if err := o.tasks.Save(context.Background(), task); err != nil {
		o.logger.Error("failed to persist failed task",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}

	o.logger.Warn("sync task failed",
		zap.String("task_id", task.ID.String()),
		zap.String("vendor_id", task.VendorID),
		zap.Int("processed", task.ProcessedRecords),
		zap.Error(cause),
	)
}

// runErr translates a dead run context into the task-level cause
func runErr(ctx context.Context) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("task exceeded maximum duration: %w", ctx.Err())
	case ctx.Err() != nil:
		return integration.ErrTaskCancelled
	default:
		return nil
	}
}
