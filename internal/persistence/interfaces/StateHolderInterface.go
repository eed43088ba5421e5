package interfaces

import (
	"context"

	"visitd/internal/models"
)

// StateHolderInterface is the part of the visit service the snapshot file
// reads from and restores into.
type StateHolderInterface interface {
	LocalState() models.State
	Restore(ctx context.Context, st models.State) error
}
