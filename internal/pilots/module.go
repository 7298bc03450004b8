// Package pilots provides the pilots bounded context module: onboarding,
// availability, compliance documents, and the dispatch candidate feed.
package pilots

import (
	"skyshot_backend/internal/adapters/storage"
	"skyshot_backend/internal/events"
	apphttp "skyshot_backend/internal/http"
	"skyshot_backend/internal/pilots/handler"
	"skyshot_backend/internal/pilots/repository"
	"skyshot_backend/internal/pilots/service"
	"skyshot_backend/platform/logger"
	"skyshot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pilots bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the pilots module with all its
// dependencies. storageSvc may be nil when object storage is disabled.
func NewModule(pool *pgxpool.Pool, storageSvc storage.StorageService, docsBucket string, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, storageSvc, docsBucket, eventBus, log)
	h := handler.New(svc, val)

	if eventBus != nil {
		svc.RegisterHandlers(eventBus)
	}

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pilots"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts pilot routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	pilotsGroup := ctx.Protected.Group("/pilots")
	m.handler.RegisterRoutes(pilotsGroup)

	adminGroup := ctx.Admin.Group("/pilots")
	m.handler.RegisterAdminRoutes(adminGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
