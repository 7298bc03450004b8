package scheduler

import (
	"context"
	"fmt"

	dispatchrepo "skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/platform/config"
	"skyshot_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OfferSweeper expires a job's overdue pending offers and escalates when
// the wave came up empty.
type OfferSweeper interface {
	ExpirePendingOffers(ctx context.Context, jobID uuid.UUID, auto bool) ([]dispatchrepo.JobOffer, error)
}

// Worker consumes scheduled tasks.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper OfferSweeper
	log     *logger.Logger
}

// NewWorker creates an asynq worker wired to the dispatch sweep.
func NewWorker(cfg config.SchedulerConfig, sweeper OfferSweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskOfferSweep, w.handleOfferSweep)

	return w, nil
}

func (w *Worker) handleOfferSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOfferSweepPayload(task)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return err
	}

	expired, err := w.sweeper.ExpirePendingOffers(ctx, jobID, true)
	if err != nil {
		return err
	}
	if len(expired) > 0 && w.log != nil {
		w.log.Info("offer sweep expired offers", "jobId", jobID, "count", len(expired))
	}
	return nil
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
