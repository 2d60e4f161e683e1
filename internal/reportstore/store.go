// Package reportstore persists assembled validation reports so clients can
// re-fetch results without re-uploading the document.
package reportstore

import (
	"context"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
	"github.com/pkwroblewski/CBCR-TP-sub001/pkg/apperrors"
)

// Stores are interface-driven so handlers and tests can swap the in-memory
// implementation for Postgres without rewiring business code.
type Store interface {
	Save(ctx context.Context, report *cbc.ParsedReport) error
	FindByID(ctx context.Context, id string) (*cbc.ParsedReport, error)
	List(ctx context.Context, limit int) ([]*cbc.ParsedReport, error)
	Delete(ctx context.Context, id string) error
}

var (
	// ErrNotFound keeps store-specific 404s consistent across implementations.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "report not found")
	// ErrDuplicate is returned when a report with the same MessageRefId has
	// already been stored.
	ErrDuplicate = apperrors.New(apperrors.CodeConflict, "report with this MessageRefId already stored")
)
