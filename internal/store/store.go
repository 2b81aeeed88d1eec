package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// Catalog names accepted by the override methods.
const (
	CatalogAgency = "agency"
	CatalogNonQM  = "nonqm"
)

// StoredOverride is a persisted catalog override fragment, applied on top of
// the embedded catalogs at evaluation time.
type StoredOverride struct {
	ID        string          `json:"id"`
	Catalog   string          `json:"catalog"`
	Patch     json.RawMessage `json:"patch"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RecordFilter specifies criteria for listing decision records.
type RecordFilter struct {
	Status     model.RecordStatus `json:"status,omitempty"`
	LenderID   string             `json:"lender_id,omitempty"`
	DataSource model.DataSource   `json:"data_source,omitempty"`
	Limit      int                `json:"limit,omitempty"`
	Offset     int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for sealed decision records.
// Records are append-only: once saved they are never updated or deleted,
// only voided with a reason.
type Store interface {
	SaveRecord(ctx context.Context, record *model.DecisionRecord) (*model.StoredRecord, error)
	GetRecord(ctx context.Context, id string) (*model.StoredRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.StoredRecord, error)
	VoidRecord(ctx context.Context, id string, reason string) error

	// Catalog overrides
	SaveOverride(ctx context.Context, catalog string, patch json.RawMessage) (*StoredOverride, error)
	ListOverrides(ctx context.Context, catalog string) ([]StoredOverride, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
