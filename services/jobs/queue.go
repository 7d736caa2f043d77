// Package jobs implements the job pipeline (C5): four priority queues,
// each an in-memory bounded FIFO (a buffered channel) drained by a fixed
// pool of cooperative workers. Worker pools are built with
// sourcegraph/conc/pool, the same library the teacher uses for its
// parallel RAR part downloader (internal/importer/parallel_rar_downloader.go),
// generalized here from a one-shot fan-out into a long-lived consumer.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"ryotgo/models"
)

// Kind identifies a unit of work's handler and, indirectly, its queue.
type Kind string

const (
	KindHandleEntityAddedToCollection Kind = "handle_entity_added_to_collection"
	KindHandleOnSeenComplete          Kind = "handle_on_seen_complete"
	KindHandleAfterExerciseDeleted    Kind = "handle_after_exercise_deleted"
	KindHandleOnWorkoutComplete       Kind = "handle_on_workout_complete"
	KindUpdateMetadata                Kind = "update_metadata"
	KindUpdatePerson                  Kind = "update_person"
	KindUpdateMetadataGroup           Kind = "update_metadata_group"
	KindSyncIntegrationsData          Kind = "sync_integrations_data"
	KindImportFromExternalSource      Kind = "import_from_external_source"
	KindUpdateExerciseLibrary         Kind = "update_exercise_library"
	KindPerformExport                 Kind = "perform_export"
	KindRecalculateCalendarEvents     Kind = "recalculate_calendar_events"
	KindReEvaluateUserWorkouts        Kind = "re_evaluate_user_workouts"
	KindReviewPosted                  Kind = "review_posted"
	KindBulkProgressUpdate            Kind = "bulk_progress_update"
	KindPerformBackgroundTasks        Kind = "perform_background_tasks"
	KindCalculateUserActivities       Kind = "calculate_user_activities_and_summary"
)

// queueFor implements the routing table from SPEC_FULL §4.5.
func queueFor(kind Kind) models.JobQueue {
	switch kind {
	case KindHandleEntityAddedToCollection, KindHandleOnSeenComplete, KindHandleAfterExerciseDeleted, KindHandleOnWorkoutComplete:
		return models.QueueLp
	case KindReviewPosted, KindBulkProgressUpdate:
		return models.QueueHp
	case KindPerformBackgroundTasks, KindCalculateUserActivities:
		return models.QueueSingle
	default:
		return models.QueueMp
	}
}

// Job is one unit of enqueued work.
type Job struct {
	Kind    Kind
	Payload any
	Attempt int
}

// Handler processes one Job's payload. Handlers must be idempotent:
// delivery is at-least-once.
type Handler func(ctx context.Context, j Job) error

// Config tunes queue depth and worker counts per priority.
type Config struct {
	QueueDepth            int
	LpWorkers, MpWorkers, HpWorkers int
	MaxImportRetries      int // MAX_IMPORT_RETRIES_FOR_PARTIAL_STATE, default 5
}

func DefaultConfig() Config {
	return Config{QueueDepth: 1024, LpWorkers: 2, MpWorkers: 4, HpWorkers: 4, MaxImportRetries: 5}
}

// Queues is the four-priority job pipeline.
type Queues struct {
	cfg      Config
	log      zerolog.Logger
	handlers map[Kind]Handler

	lp, mp, hp, single chan Job

	cancel context.CancelFunc
}

// New builds an unstarted Queues. Register handlers with Handle before
// calling Run.
func New(cfg Config, log zerolog.Logger) *Queues {
	return &Queues{
		cfg:      cfg,
		log:      log,
		handlers: make(map[Kind]Handler),
		lp:       make(chan Job, cfg.QueueDepth),
		mp:       make(chan Job, cfg.QueueDepth),
		hp:       make(chan Job, cfg.QueueDepth),
		single:   make(chan Job, cfg.QueueDepth),
	}
}

// Handle registers the handler for a job kind. Call before Run.
func (q *Queues) Handle(kind Kind, h Handler) {
	q.handlers[kind] = h
}

// Enqueue routes a job to its queue per the kind→queue table. It never
// blocks past the queue's configured depth; callers racing a full queue
// get an error rather than deadlocking the caller's own request path.
func (q *Queues) Enqueue(ctx context.Context, kind Kind, payload any) error {
	j := Job{Kind: kind, Payload: payload}
	var ch chan Job
	switch queueFor(kind) {
	case models.QueueLp:
		ch = q.lp
	case models.QueueHp:
		ch = q.hp
	case models.QueueSingle:
		ch = q.single
	default:
		ch = q.mp
	}
	select {
	case ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("jobs: queue for %s is full", kind)
	}
}

// Run starts the worker pools for each queue and blocks until ctx is
// canceled, at which point in-flight jobs finish (or are re-enqueued, on
// failure past retry budget being the only drop path) before returning.
func (q *Queues) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error { q.drain(ctx, q.hp, q.cfg.HpWorkers); return nil })
	p.Go(func(ctx context.Context) error { q.drain(ctx, q.mp, q.cfg.MpWorkers); return nil })
	p.Go(func(ctx context.Context) error { q.drain(ctx, q.lp, q.cfg.LpWorkers); return nil })
	p.Go(func(ctx context.Context) error { q.drain(ctx, q.single, 1); return nil })
	_ = p.Wait()
}

// Shutdown stops accepting new work and lets Run's drain loops exit
// once ctx (passed to Run) is canceled by the caller.
func (q *Queues) Shutdown() {
	if q.cancel != nil {
		q.cancel()
	}
}

func (q *Queues) drain(ctx context.Context, ch chan Job, workers int) {
	wp := pool.New().WithMaxGoroutines(workers)
	for {
		select {
		case <-ctx.Done():
			wp.Wait()
			return
		case j, ok := <-ch:
			if !ok {
				wp.Wait()
				return
			}
			wp.Go(func() { q.process(ctx, ch, j) })
		}
	}
}

// process runs a job's handler with exponential backoff, re-enqueueing
// on transient failure up to MaxImportRetries before giving up. During
// retries the caller's persisted state (e.g. an ImportReport item) stays
// marked is_partial until a handler either succeeds or exhausts retries.
func (q *Queues) process(ctx context.Context, ch chan Job, j Job) {
	h, ok := q.handlers[j.Kind]
	if !ok {
		q.log.Warn().Str("kind", string(j.Kind)).Msg("no handler registered for job kind")
		return
	}

	err := retry.Do(
		func() error { return h(ctx, j) },
		retry.Attempts(uint(q.cfg.MaxImportRetries)),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		q.log.Error().Err(err).Str("kind", string(j.Kind)).Int("attempts", q.cfg.MaxImportRetries).
			Msg("job failed after exhausting retries")
	}
}
