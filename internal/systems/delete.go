package systems

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rflorenc/inventory-console/internal/metrics"
	"github.com/rflorenc/inventory-console/internal/models"
	"github.com/rflorenc/inventory-console/internal/notify"
)

const (
	DeleteJobType = "systems-delete"

	defaultBatchSize   = 50
	defaultConcurrency = 4
)

var ErrNothingToDelete = errors.New("no systems selected for deletion")

// ItemsToDelete returns what a delete confirmation acts on: the row the
// dedicated action was opened from, otherwise the current selection.
func ItemsToDelete(dedicated string, selected []string) []string {
	if dedicated != "" {
		return []string{dedicated}
	}
	seen := make(map[string]bool, len(selected))
	out := make([]string, 0, len(selected))
	for _, id := range selected {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for size < len(ids) {
		ids, out = ids[size:], append(out, ids[:size])
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func (s *Service) batchSize() int {
	if s.BatchSize > 0 {
		return s.BatchSize
	}
	return defaultBatchSize
}

func (s *Service) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return defaultConcurrency
}

// StartDelete launches an async job deleting ids. The job outlives the
// request that started it; cancelling the job stops batches not yet sent.
// The selection of table is reset once every batch succeeds.
func (s *Service) StartDelete(table string, ids []string) (*models.Job, error) {
	if len(ids) == 0 {
		return nil, ErrNothingToDelete
	}
	job := s.Jobs.Create(DeleteJobType, table, len(ids))
	ctx := job.Context(context.Background())

	s.Notifier.Dispatch(notify.Notification{
		Key:         "systems-delete-started",
		Variant:     notify.Info,
		Title:       "Delete operation initiated",
		Description: fmt.Sprintf("Removing %d system(s) from inventory.", len(ids)),
		Dismissable: true,
	})

	go s.runDelete(ctx, job, table, ids)
	return job, nil
}

func (s *Service) runDelete(ctx context.Context, job *models.Job, table string, ids []string) {
	batches := chunk(ids, s.batchSize())
	job.AppendLog(fmt.Sprintf("Deleting %d systems in %d batch(es)", len(ids), len(batches)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.API.DeleteSystems(gctx, batch); err != nil {
				metrics.SystemsDeletedTotal.WithLabelValues("failed").Add(float64(len(batch)))
				job.AppendLog(fmt.Sprintf("ERROR: batch %d/%d: %v", i+1, len(batches), err))
				return fmt.Errorf("batch %d: %w", i+1, err)
			}
			metrics.SystemsDeletedTotal.WithLabelValues("deleted").Add(float64(len(batch)))
			job.Advance(len(batch))
			job.AppendLog(fmt.Sprintf("Deleted batch %d/%d (%d systems)", i+1, len(batches), len(batch)))
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		job.AppendLog("Delete operation cancelled")
		s.Logger.Warn("systems delete cancelled", "job_id", job.ID)
		s.Notifier.Dispatch(notify.Notification{
			Key:         "systems-delete-cancelled",
			Variant:     notify.Warning,
			Title:       "Delete operation cancelled",
			Dismissable: true,
		})
		return
	}
	if err != nil {
		s.Logger.Error("deleting systems failed", "job_id", job.ID, "error", err)
		s.Notifier.Dispatch(notify.Notification{
			Key:         "systems-delete-failed",
			Variant:     notify.Danger,
			Title:       "System failed to be removed from inventory",
			Description: err.Error(),
			Dismissable: true,
		})
		job.Fail(err.Error())
		return
	}

	s.Selection.Reset(table)
	s.Logger.Info("systems deleted", "job_id", job.ID, "count", len(ids))
	s.Notifier.Dispatch(notify.Notification{
		Key:         "systems-delete-finished",
		Variant:     notify.Success,
		Title:       "Delete operation finished",
		Description: fmt.Sprintf("%d system(s) removed from inventory.", len(ids)),
		Dismissable: true,
	})
	job.AppendLog("Delete operation finished")
	job.Complete()
}
