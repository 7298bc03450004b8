// Package properties provides the properties bounded context module:
// vendor listings and the publication workflow.
package properties

import (
	"skyshot_backend/internal/events"
	apphttp "skyshot_backend/internal/http"
	"skyshot_backend/internal/properties/handler"
	"skyshot_backend/internal/properties/repository"
	"skyshot_backend/internal/properties/service"
	"skyshot_backend/platform/logger"
	"skyshot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the properties bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the properties module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "properties"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetJobCreator injects the dispatch-side job creation port
// (breaks the circular dependency between modules).
func (m *Module) SetJobCreator(jc service.JobCreator) {
	m.service.SetJobCreator(jc)
}

// RegisterRoutes mounts property routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	propertiesGroup := ctx.Protected.Group("/properties")
	m.handler.RegisterRoutes(propertiesGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
