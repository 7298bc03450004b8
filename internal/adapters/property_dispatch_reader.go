package adapters

import (
	"context"

	dispatchsvc "skyshot_backend/internal/dispatch/service"
	propertysvc "skyshot_backend/internal/properties/service"

	"github.com/google/uuid"
)

// PropertyDispatchReader exposes dispatch-relevant property attributes
// (coordinates, plan pricing) to the dispatch context.
type PropertyDispatchReader struct {
	svc *propertysvc.Service
}

func NewPropertyDispatchReader(svc *propertysvc.Service) *PropertyDispatchReader {
	return &PropertyDispatchReader{svc: svc}
}

func (a *PropertyDispatchReader) GetDispatchInfo(ctx context.Context, propertyID uuid.UUID) (dispatchsvc.PropertyInfo, error) {
	info, err := a.svc.GetDispatchInfo(ctx, propertyID)
	if err != nil {
		return dispatchsvc.PropertyInfo{}, err
	}
	return dispatchsvc.PropertyInfo{
		ID:              info.ID,
		Latitude:        info.Latitude,
		Longitude:       info.Longitude,
		PlanPriceCents:  info.PlanPriceCents,
		PlanPayoutCents: info.PlanPayoutCents,
		AccessNotes:     info.AccessNotes,
	}, nil
}

var _ dispatchsvc.PropertyReader = (*PropertyDispatchReader)(nil)
