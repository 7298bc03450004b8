package adapters

import (
	"context"

	dispatchsvc "skyshot_backend/internal/dispatch/service"
	propertysvc "skyshot_backend/internal/properties/service"

	"github.com/google/uuid"
)

// JobCreator lets the properties workflow open a dispatch job when a
// shoot is approved, without a compile-time cycle between the modules.
type JobCreator struct {
	svc *dispatchsvc.Service
}

func NewJobCreator(svc *dispatchsvc.Service) *JobCreator {
	return &JobCreator{svc: svc}
}

func (a *JobCreator) EnsureJob(ctx context.Context, propertyID uuid.UUID, actor string, autoInvite bool) error {
	_, _, err := a.svc.EnsureJob(ctx, propertyID, actor, autoInvite)
	return err
}

var _ propertysvc.JobCreator = (*JobCreator)(nil)
