package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hereon-GEMS/pydidas-sub009/errors"
	"github.com/hereon-GEMS/pydidas-sub009/metric"
	"github.com/hereon-GEMS/pydidas-sub009/pkg/retry"
	"github.com/hereon-GEMS/pydidas-sub009/workflow"
)

// Runner executes a workflow over a set of frame indices with a pool of
// workers. Each worker operates on its own shared-nothing copy of the tree,
// so the chain itself needs no locking.
type Runner struct {
	Workers int           // Number of concurrent workers (defaults to 1)
	Retry   retry.Config  // Backoff policy for transient input failures
	Metrics *metric.Metrics
	Logger  *slog.Logger
}

// New creates a runner with the given worker count, the frame-polling retry
// policy and no metrics.
func New(workers int, logger *slog.Logger) *Runner {
	return &Runner{
		Workers: workers,
		Retry:   retry.FramePolling(),
		Logger:  logger,
	}
}

// Run executes every frame once and returns the per-frame results keyed by
// frame index. Transient failures (a source frame not yet available) are
// retried with backoff; any other failure, or a transient one that outlives
// the retry budget, aborts the whole run.
func (r *Runner) Run(
	ctx context.Context, tree *workflow.Tree, frames []int,
) (map[int]workflow.Results, error) {
	if tree == nil {
		return nil, errors.WrapConfig(
			fmt.Errorf("no workflow tree: %w", errors.ErrInvalidConfig),
			"Runner", "Run", "tree validation")
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(frames) && len(frames) > 0 {
		workers = len(frames)
	}

	runID := uuid.New()
	logger = logger.With("run_id", runID.String())
	logger.Info("starting workflow run", "frames", len(frames), "workers", workers)
	if r.Metrics != nil {
		r.Metrics.RecordRunStarted()
	}

	// Pre-execute once on the source tree so every worker copy inherits the
	// completed pass and configuration failures surface before any worker
	// starts.
	if err := tree.PreExecuteAll(); err != nil {
		return nil, err
	}
	if _, err := tree.PropagateShapes(); err != nil {
		return nil, err
	}

	frameCh := make(chan int)
	results := make(map[int]workflow.Results, len(frames))
	var resultsMu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(frameCh)
		for _, frame := range frames {
			select {
			case frameCh <- frame:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		workerTree := tree.Copy()
		workerLogger := logger.With("worker", w)
		group.Go(func() error {
			if r.Metrics != nil {
				r.Metrics.WorkersActive.Inc()
				defer r.Metrics.WorkersActive.Dec()
			}
			for frame := range frameCh {
				frameResults, err := r.executeFrame(groupCtx, workerTree, frame, workerLogger)
				if err != nil {
					return err
				}
				resultsMu.Lock()
				results[frame] = frameResults
				resultsMu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("workflow run failed", "error", err)
		return nil, err
	}
	logger.Info("workflow run finished", "frames", len(frames))
	return results, nil
}

// executeFrame runs one frame on the worker's tree, retrying transient
// failures with backoff. Non-transient failures are marked non-retryable so
// the backoff loop stops immediately.
func (r *Runner) executeFrame(
	ctx context.Context, tree *workflow.Tree, frame int, logger *slog.Logger,
) (workflow.Results, error) {
	attempts := 0
	start := time.Now()
	results, err := retry.DoWithResult(ctx, r.Retry, func() (workflow.Results, error) {
		attempts++
		res, execErr := tree.ExecuteFrame(ctx, frame)
		if execErr != nil && !errors.IsTransient(execErr) {
			return nil, retry.NonRetryable(execErr)
		}
		return res, execErr
	})

	if r.Metrics != nil {
		for i := 1; i < attempts; i++ {
			r.Metrics.RecordRetry()
		}
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	if r.Metrics != nil {
		r.Metrics.RecordFrame(status, time.Since(start))
	}

	if err != nil {
		return nil, errors.Wrap(err, "Runner", "executeFrame", fmt.Sprintf("frame %d", frame))
	}
	if attempts > 1 {
		logger.Debug("frame succeeded after retries", "frame", frame, "attempts", attempts)
	}
	return results, nil
}
