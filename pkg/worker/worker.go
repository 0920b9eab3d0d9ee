package worker

import (
	"context"
	"sync"
	"time"

	"github.com/eglinebooks/egline/pkg/config"
	"github.com/eglinebooks/egline/pkg/ratings"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks a five field cron expression (or a descriptor such
// as "@daily").
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return errors.Wrapf(err, "invalid cron schedule %q", schedule)
}

// Worker runs the periodic rating reconciliation.
type Worker struct {
	config *config.Config
	log    logger.Logger

	ratingService *ratings.Service

	cron     *cron.Cron
	schedule cron.Schedule

	mu          sync.Mutex
	started     bool
	reconciling bool
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	return &Worker{
		config:        cfg,
		log:           logger.New(),
		ratingService: ratings.NewService(db),
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the reconciliation. An empty schedule disables it.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	schedule := w.config.RatingReconcileSchedule
	if schedule == "" {
		w.log.Info("rating reconciliation disabled")
		return nil
	}
	sched, err := parser.Parse(schedule)
	if err != nil {
		return errors.Wrapf(err, "invalid cron schedule %q", schedule)
	}

	w.cron.Schedule(sched, cron.FuncJob(func() {
		if _, err := w.RunReconcile(context.Background()); err != nil {
			w.log.Err(err).Error("rating reconciliation error")
		}
	}))
	w.schedule = sched

	w.cron.Start()
	w.started = true

	w.log.Info("rating reconciliation scheduled", logger.Data{
		"schedule": schedule,
		"next_run": sched.Next(time.Now()),
	})
	return nil
}

// NextRun returns when the reconciliation runs next, or nil when it is not
// scheduled.
func (w *Worker) NextRun() *time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}
	next := w.schedule.Next(time.Now())
	return &next
}

// RunReconcile runs one reconciliation pass. Overlapping calls are skipped and
// return a nil result.
func (w *Worker) RunReconcile(ctx context.Context) (*ratings.ReconcileResult, error) {
	w.mu.Lock()
	if w.reconciling {
		w.mu.Unlock()
		w.log.Warn("rating reconciliation skipped, previous run still in progress")
		return nil, nil
	}
	w.reconciling = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.reconciling = false
		w.mu.Unlock()
	}()

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job": "rating_reconcile"})
	ctx = log.WithContext(ctx)

	start := time.Now()
	result, err := w.ratingService.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("rating reconciliation finished", logger.Data{
		"books":       result.Books,
		"comments":    result.Comments,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result, nil
}

// Shutdown stops scheduling and waits for a running reconciliation to finish.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	started := w.started
	w.started = false
	w.mu.Unlock()

	if !started {
		return
	}
	<-w.cron.Stop().Done()
}
