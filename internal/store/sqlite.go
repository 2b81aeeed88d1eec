package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS decision_records (
	id                 TEXT PRIMARY KEY,
	status             TEXT NOT NULL DEFAULT 'ACTIVE',
	void_reason        TEXT,
	selected_lender_id TEXT NOT NULL,
	data_source        TEXT NOT NULL,
	fit_score          INTEGER NOT NULL,
	record             TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_decision_records_status ON decision_records(status);
CREATE INDEX IF NOT EXISTS idx_decision_records_lender ON decision_records(selected_lender_id);
CREATE INDEX IF NOT EXISTS idx_decision_records_source ON decision_records(data_source);

CREATE TABLE IF NOT EXISTS catalog_overrides (
	id         TEXT PRIMARY KEY,
	catalog    TEXT NOT NULL,
	patch      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_catalog_overrides_catalog ON catalog_overrides(catalog);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, record *model.DecisionRecord) (*model.StoredRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decision_records (id, status, selected_lender_id, data_source, fit_score, record, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(model.RecordStatusActive), record.SelectedLenderID, string(record.DataSource),
		record.FitScore, string(recordJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert record")
	}

	return &model.StoredRecord{
		ID:        id,
		Status:    model.RecordStatusActive,
		Record:    *record,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.StoredRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records WHERE id = ?`,
		id,
	)
	return scanRecord(row)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.StoredRecord, error) {
	query := `SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.LenderID != "" {
		query += ` AND selected_lender_id = ?`
		args = append(args, filter.LenderID)
	}
	if filter.DataSource != "" {
		query += ` AND data_source = ?`
		args = append(args, string(filter.DataSource))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.StoredRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) VoidRecord(ctx context.Context, id string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE decision_records SET status = ?, void_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(model.RecordStatusVoided), reason, time.Now().UTC(),
		id, string(model.RecordStatusActive),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: void record %s", id)
	}
	return checkRowsAffected(res, "record", id)
}

func (s *SQLiteStore) SaveOverride(ctx context.Context, catalog string, patch json.RawMessage) (*StoredOverride, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_overrides (id, catalog, patch, created_at) VALUES (?, ?, ?, ?)`,
		id, catalog, string(patch), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert override")
	}

	return &StoredOverride{ID: id, Catalog: catalog, Patch: patch, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListOverrides(ctx context.Context, catalog string) ([]StoredOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, catalog, patch, created_at FROM catalog_overrides WHERE catalog = ? ORDER BY created_at`,
		catalog,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close()

	var overrides []StoredOverride
	for rows.Next() {
		var o StoredOverride
		var patch string
		if err := rows.Scan(&o.ID, &o.Catalog, &patch, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan override")
		}
		o.Patch = json.RawMessage(patch)
		overrides = append(overrides, o)
	}
	return overrides, eris.Wrap(rows.Err(), "sqlite: list overrides iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.StoredRecord, error) {
	var r model.StoredRecord
	var recordJSON string
	var voidReason sql.NullString

	err := row.Scan(&r.ID, &r.Status, &voidReason, &recordJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan record")
	}

	if voidReason.Valid {
		r.VoidReason = voidReason.String
	}
	if err := json.Unmarshal([]byte(recordJSON), &r.Record); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal record")
	}
	return &r, nil
}
