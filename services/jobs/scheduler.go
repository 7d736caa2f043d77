package jobs

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler drives cron-cadence enqueues onto the Single queue
// (PerformBackgroundTasks ticks, per-user activity rollups), generalizing
// the teacher's hand-rolled ticker loop in services/scheduler/service.go
// into a real cron expression schedule via robfig/cron/v3.
type Scheduler struct {
	queues *Queues
	log    zerolog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewScheduler(queues *Queues, log zerolog.Logger) *Scheduler {
	return &Scheduler{queues: queues, log: log, cron: cron.New()}
}

// ScheduleBackgroundTasks registers the PerformBackgroundTasks tick at
// the given cron expression (config key jobs.background_tasks_cron).
func (s *Scheduler) ScheduleBackgroundTasks(expr string) error {
	_, err := s.cron.AddFunc(expr, func() {
		if err := s.queues.Enqueue(context.Background(), KindPerformBackgroundTasks, nil); err != nil {
			s.log.Error().Err(err).Msg("failed to enqueue background tasks tick")
		}
	})
	return err
}

// ScheduleMetadataRefresh registers the stale-metadata refresh sweep at
// jobs.metadata_refresh_cron (default every six hours, resolving the
// spec's open question on refresh cadence).
func (s *Scheduler) ScheduleMetadataRefresh(expr string, enumerateStale func(ctx context.Context) ([]string, error)) error {
	_, err := s.cron.AddFunc(expr, func() {
		ctx := context.Background()
		ids, err := enumerateStale(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to enumerate stale metadata")
			return
		}
		for _, id := range ids {
			if err := s.queues.Enqueue(ctx, KindUpdateMetadata, id); err != nil {
				s.log.Error().Err(err).Str("metadata_id", id).Msg("failed to enqueue metadata refresh")
			}
		}
	})
	return err
}

// Start begins the cron scheduler. Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight scheduled func to
// return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}
