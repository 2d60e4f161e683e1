// Package refregistry tracks MessageRefIds that have already been accepted,
// so a resubmitted message is flagged before it reaches storage. Entries
// expire after a retention window; the registry is advisory and the report
// store unique index remains the final arbiter.
package refregistry

import "context"

type Registry interface {
	// Register records the ref ID. It returns false if the ID was already
	// present (a duplicate submission).
	Register(ctx context.Context, refID string) (bool, error)
	Exists(ctx context.Context, refID string) (bool, error)
}
