package importer

import (
	"context"
	"time"

	"ryotgo/internal/database"
	"ryotgo/models"
)

// Runner ties one Adapter's enumeration to the Processor's commits and
// keeps the persisted ImportReport's progress/estimate current as it
// goes, the shape `process_import` wraps around an adapter regardless of
// source.
type Runner struct {
	reports   *database.ImportRepository
	processor *Processor
}

func NewRunner(reports *database.ImportRepository, processor *Processor) *Runner {
	return &Runner{reports: reports, processor: processor}
}

// Run pulls adapter's full enumeration, then processes and commits every
// item, ticking reportID's estimated_finish_time after each one.
func (r *Runner) Run(ctx context.Context, userID, reportID string, adapter Adapter) (models.ImportResult, error) {
	pulled, err := adapter.Import(ctx)
	if err != nil {
		return models.ImportResult{}, err
	}

	final := r.processor.Process(ctx, userID, pulled, func(done, total int, estimatedFinish time.Duration) {
		finish := time.Now().Add(estimatedFinish)
		_ = r.reports.UpdateProgress(ctx, reportID, nullableTime(finish, done < total))
	})

	status := models.ImportStatusSuccess
	if len(final.Failed) > 0 && len(final.Completed) == 0 {
		status = models.ImportStatusFailed
	}
	if err := r.reports.Finish(ctx, reportID, status, &final); err != nil {
		return final, err
	}
	return final, nil
}

func nullableTime(t time.Time, ongoing bool) *time.Time {
	if !ongoing {
		return nil
	}
	return &t
}
