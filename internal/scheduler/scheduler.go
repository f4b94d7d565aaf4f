package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/executions"
)

// Trigger is the slice of the orchestrator the scheduler needs. Tests swap
// in a recorder.
type Trigger interface {
	Create(ctx context.Context, req executions.CreateRequest) (*executions.Execution, error)
	Start(ctx context.Context, id string) (*executions.Execution, error)
}

// Scheduler polls for due schedules and fires executions for them.
type Scheduler struct {
	store   *Store
	trigger Trigger
	parser  *CronParser
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a scheduler.
func New(store *Store, trigger Trigger) *Scheduler {
	return &Scheduler{
		store:   store,
		trigger: trigger,
		parser:  NewCronParser(),
	}
}

// Start begins the poll loop.
func (s *Scheduler) Start(pollInterval time.Duration) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.pollLoop(ctx, pollInterval)

	log.Info().Dur("poll_interval", pollInterval).Msg("scheduler started")
}

// Stop shuts the poll loop down and waits for it.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) pollLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(ctx, time.Now().UTC())
		}
	}
}

// RunDue fires every schedule whose next run has arrived. Each schedule is
// advanced even when the trigger fails, so a broken schedule cannot fire in
// a tight loop.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	due, err := s.store.Due(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("failed to query due schedules")
		return
	}

	for _, sc := range due {
		next, err := s.parser.NextRun(sc.Expression, now)
		if err != nil {
			log.Error().Err(err).Str("schedule_id", sc.ID).Msg("invalid schedule expression")
			if err := s.store.SetEnabled(ctx, sc.ID, false); err != nil {
				log.Error().Err(err).Str("schedule_id", sc.ID).Msg("failed to disable schedule")
			}
			continue
		}
		if err := s.store.MarkRun(ctx, sc.ID, now, next); err != nil {
			log.Error().Err(err).Str("schedule_id", sc.ID).Msg("failed to advance schedule")
			continue
		}

		s.fire(ctx, sc)
	}
}

func (s *Scheduler) fire(ctx context.Context, sc *Schedule) {
	e, err := s.trigger.Create(ctx, executions.CreateRequest{
		Mode:    executions.Mode(sc.Mode),
		CaseIDs: sc.CaseIDs,
	})
	if err != nil {
		log.Error().Err(err).Str("schedule_id", sc.ID).Msg("scheduled execution create failed")
		return
	}

	if _, err := s.trigger.Start(ctx, e.ID); err != nil {
		log.Error().Err(err).
			Str("schedule_id", sc.ID).
			Str("execution_id", e.ID).
			Msg("scheduled execution start failed")
		return
	}

	log.Info().
		Str("schedule_id", sc.ID).
		Str("schedule", sc.Name).
		Str("execution_id", e.ID).
		Msg("scheduled execution started")
}
