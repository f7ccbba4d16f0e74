package prescription

import "context"

// Store is the reminder engine's view of wherever prescriptions live.
// The engine only ever reads; the whole dataset is small enough to load
// at once, so there is no pagination.
type Store interface {
	GetAllPrescriptions(ctx context.Context) ([]Record, error)
}
