package ports

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

// ActionDispatcher defines how external capabilities are executed.
// The engine emits requests for Action steps and the host implements this interface.
// Implementations should honor ctx cancellation; the engine stops waiting when it expires.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error)
}

// ActionDispatcherFunc adapts a function to ActionDispatcher.
type ActionDispatcherFunc func(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error)

func (f ActionDispatcherFunc) Dispatch(ctx context.Context, req domain.ActionRequest) (domain.ActionResponse, error) {
	return f(ctx, req)
}
