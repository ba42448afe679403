package http

import (
	"context"

	"bondpulse/internal/services"
	"bondpulse/pkg/contracts/domain"
)

// CollectionServiceInterface defines the run-control surface for the
// operations handler. Start is asynchronous: it returns the pending
// snapshot and the run progresses in the background, broadcast over
// the WebSocket hub.
type CollectionServiceInterface interface {
	Start(ctx context.Context, req services.CollectRequest) (domain.OperationSnapshot, error)
	Status(id string) (domain.OperationSnapshot, bool)
	List() []domain.OperationSnapshot
	Active() (domain.OperationSnapshot, bool)
	Cancel(id string) bool
}
