// Package notification delivers offer and job updates to users: a durable
// in-app feed plus a best-effort SSE push channel. It subscribes to domain
// events so the dispatch core never knows about delivery mechanics.
package notification

import (
	apphttp "skyshot_backend/internal/http"
	"skyshot_backend/internal/notification/handler"
	"skyshot_backend/internal/notification/inapp"
	"skyshot_backend/internal/notification/sse"
	"skyshot_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification module implementing http.Module.
type Module struct {
	handler *handler.HTTPHandler
	service *inapp.Service
	stream  *sse.Service
}

// NewModule creates and initializes the notification module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	stream := sse.New(log)
	store := inapp.NewRepository(pool)
	svc := inapp.NewService(store, stream, log)
	h := handler.NewHTTPHandler(svc, stream)

	return &Module{handler: h, service: svc, stream: stream}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the service layer for external use.
func (m *Module) Service() *inapp.Service {
	return m.service
}

// Close tears down live client connections.
func (m *Module) Close() {
	m.stream.Close()
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notificationsGroup := ctx.Protected.Group("/notifications")
	m.handler.RegisterRoutes(notificationsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
