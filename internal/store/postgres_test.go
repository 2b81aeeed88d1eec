package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresSaveRecord(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	record := testRecord("agency_001", model.DataSourceReal)

	mock.ExpectExec("INSERT INTO decision_records").
		WithArgs(pgxmock.AnyArg(), "ACTIVE", "agency_001", "REAL", 68.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveRecord(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, model.RecordStatusActive, saved.Status)
	assert.Equal(t, *record, saved.Record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRecord(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	record := testRecord("nonqm_placeholder_003", model.DataSourcePlaceholder)
	recordJSON, err := json.Marshal(record)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records").
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "void_reason", "record", "created_at", "updated_at"}).
			AddRow("rec-1", model.RecordStatusVoided, strPtr("superseded"), recordJSON, now, now))

	got, err := s.GetRecord(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, model.RecordStatusVoided, got.Status)
	assert.Equal(t, "superseded", got.VoidReason)
	assert.Equal(t, "nonqm_placeholder_003", got.Record.SelectedLenderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRecordNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresVoidRecord(t *testing.T) {
	t.Parallel()

	t.Run("active record voids", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("UPDATE decision_records SET status").
			WithArgs("VOIDED", "borrower withdrew", pgxmock.AnyArg(), "rec-1", "ACTIVE").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, s.VoidRecord(context.Background(), "rec-1", "borrower withdrew"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows means not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec("UPDATE decision_records SET status").
			WithArgs("VOIDED", "again", pgxmock.AnyArg(), "rec-1", "ACTIVE").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := s.VoidRecord(context.Background(), "rec-1", "again")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "record not found: rec-1")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresListRecords(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	record := testRecord("agency_001", model.DataSourceReal)
	recordJSON, err := json.Marshal(record)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records").
		WithArgs("ACTIVE", "agency_001", 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "void_reason", "record", "created_at", "updated_at"}).
			AddRow("rec-1", model.RecordStatusActive, (*string)(nil), recordJSON, now, now))

	records, err := s.ListRecords(context.Background(), RecordFilter{
		Status:   model.RecordStatusActive,
		LenderID: "agency_001",
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Empty(t, records[0].VoidReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveOverride(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	patch := json.RawMessage(`{"id":"agency_001","priorityWeight":40}`)

	mock.ExpectExec("INSERT INTO catalog_overrides").
		WithArgs(pgxmock.AnyArg(), CatalogAgency, []byte(patch), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	saved, err := s.SaveOverride(context.Background(), CatalogAgency, patch)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, CatalogAgency, saved.Catalog)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListOverrides(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	patch := []byte(`{"id":"nonqm_placeholder_003","priorityWeight":30}`)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, catalog, patch, created_at FROM catalog_overrides").
		WithArgs(CatalogNonQM).
		WillReturnRows(pgxmock.NewRows([]string{"id", "catalog", "patch", "created_at"}).
			AddRow("ovr-1", CatalogNonQM, patch, now))

	overrides, err := s.ListOverrides(context.Background(), CatalogNonQM)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "ovr-1", overrides[0].ID)
	assert.JSONEq(t, string(patch), string(overrides[0].Patch))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS decision_records").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(v string) *string { return &v }
