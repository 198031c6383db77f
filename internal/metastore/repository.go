// Package metastore persists file records in the relational metadata store.
package metastore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/skydrive/internal/models"
)

// Repository is the metadata store contract used by the upload coordinator
// and the lifecycle machine. Every mutation is a single statement.
type Repository interface {
	// Insert writes one record and returns it with store-assigned fields.
	Insert(ctx context.Context, f models.NewFile) (*models.File, error)
	// ListByOwner returns all of owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	// Get returns one record by id.
	Get(ctx context.Context, id string) (*models.File, error)
	// GetShared returns a record only while it is shared and not trashed.
	GetShared(ctx context.Context, id string) (*models.File, error)
	// The mutations below only touch rows owned by ownerID; a row of another
	// owner is reported as common.ErrorNotFound.
	UpdateTrash(ctx context.Context, ownerID, id string, trashed bool, at *time.Time) error
	UpdateShare(ctx context.Context, ownerID, id string, shared bool, shareURL string) error
	UpdateName(ctx context.Context, ownerID, id string, name string) error
	Delete(ctx context.Context, ownerID, id string) error
	// DeleteTrashed removes every trashed record of owner and reports how
	// many rows went.
	DeleteTrashed(ctx context.Context, ownerID string) (int64, error)
}
