package ports

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

// LeadStore defines the interface for persisting lead records.
// Leads are keyed by their channel id (the external address of the participant).
type LeadStore interface {
	// Save replaces the full record of lead.ChannelID. Implementations must
	// commit the whole record or leave the previous one intact.
	Save(ctx context.Context, lead *domain.Lead) error

	// Load retrieves the lead for a channel id.
	// Returns domain.ErrLeadNotFound if the lead does not exist.
	Load(ctx context.Context, channelID string) (*domain.Lead, error)

	// Delete removes the lead for a channel id. Deleting a missing lead is not an error.
	Delete(ctx context.Context, channelID string) error

	// List returns every stored lead.
	List(ctx context.Context) ([]*domain.Lead, error)
}
