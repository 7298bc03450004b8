// The worker binary consumes scheduled tasks: today that is the offer
// expiry sweep booked at each wave's TTL deadline. It builds the same
// module graph as the API so sweeps escalate exactly like the lazy path.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"skyshot_backend/internal/adapters"
	"skyshot_backend/internal/dispatch"
	"skyshot_backend/internal/events"
	"skyshot_backend/internal/notification"
	"skyshot_backend/internal/pilots"
	"skyshot_backend/internal/properties"
	"skyshot_backend/internal/scheduler"
	"skyshot_backend/platform/config"
	"skyshot_backend/platform/db"
	"skyshot_backend/platform/logger"
	"skyshot_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	notificationModule := notification.NewModule(pool, log)
	notificationModule.Service().RegisterHandlers(eventBus)
	defer notificationModule.Close()

	propertiesModule := properties.NewModule(pool, eventBus, log, val)
	pilotsModule := pilots.NewModule(pool, nil, "", eventBus, log, val)

	dispatchModule := dispatch.NewModule(
		pool,
		cfg,
		adapters.NewPilotCandidateSource(pilotsModule.Service()),
		adapters.NewPropertyDispatchReader(propertiesModule.Service()),
		propertiesModule.Service(),
		propertiesModule.Service(),
		notificationModule.Service(),
		eventBus,
		log,
		val,
	)
	propertiesModule.SetJobCreator(adapters.NewJobCreator(dispatchModule.Service()))

	worker, err := scheduler.NewWorker(cfg, dispatchModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}
