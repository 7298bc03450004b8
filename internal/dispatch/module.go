// Package dispatch provides the job dispatch bounded context module:
// job lifecycle, pilot matching, and time-boxed offer waves.
package dispatch

import (
	"skyshot_backend/internal/dispatch/handler"
	"skyshot_backend/internal/dispatch/matching"
	"skyshot_backend/internal/dispatch/repository"
	"skyshot_backend/internal/dispatch/service"
	"skyshot_backend/internal/events"
	apphttp "skyshot_backend/internal/http"
	"skyshot_backend/platform/config"
	"skyshot_backend/platform/logger"
	"skyshot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the dispatch bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	offerHandler *handler.OfferHandler
	service      *service.Service
}

// NewModule creates and initializes the dispatch module with all its
// dependencies. candidates feeds the matching engine from the pilots
// context; properties, workflow, and alerts come from the properties
// context; notifier may be nil.
func NewModule(
	pool *pgxpool.Pool,
	cfg config.DispatchConfig,
	candidates matching.CandidateSource,
	properties service.PropertyReader,
	workflow service.PropertyWorkflow,
	alerts service.AlertSink,
	notifier service.Notifier,
	eventBus events.Bus,
	log *logger.Logger,
	val *validator.Validator,
) *Module {
	repo := repository.New(pool)
	engine := matching.NewEngine(matching.NewConfig(cfg), candidates, repo)
	svc := service.New(repo, engine, properties, workflow, alerts, notifier, eventBus, log)
	h := handler.New(svc, val)
	oh := handler.NewOfferHandler(svc)

	return &Module{handler: h, offerHandler: oh, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dispatch"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetSweepScheduler injects the optional background expiry scheduler.
func (m *Module) SetSweepScheduler(sweeper service.SweepScheduler) {
	m.service.SetSweepScheduler(sweeper)
}

// RegisterRoutes mounts dispatch routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	jobsGroup := ctx.Protected.Group("/jobs")
	m.handler.RegisterRoutes(jobsGroup)

	// Pilot offer responses race the TTL sweep, so they carry a stricter
	// rate limit than the rest of the API.
	offersGroup := ctx.Pilot.Group("/offers")
	offersGroup.Use(ctx.OfferRateLimiter.RateLimit())
	m.offerHandler.RegisterRoutes(offersGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
