package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/loanbeacons/lendermatch-cli/internal/db"
	"github.com/loanbeacons/lendermatch-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO decision_records (id, status, selected_lender_id, data_source, fit_score, record, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_record":    `SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records WHERE id = $1`,
	"void_record":   `UPDATE decision_records SET status = $1, void_reason = $2, updated_at = $3 WHERE id = $4 AND status = $5`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS decision_records (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status             TEXT NOT NULL DEFAULT 'ACTIVE',
	void_reason        TEXT,
	selected_lender_id TEXT NOT NULL,
	data_source        TEXT NOT NULL,
	fit_score          INTEGER NOT NULL,
	record             JSONB NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_decision_records_status ON decision_records(status);
CREATE INDEX IF NOT EXISTS idx_decision_records_lender ON decision_records(selected_lender_id);
CREATE INDEX IF NOT EXISTS idx_decision_records_source ON decision_records(data_source);

CREATE TABLE IF NOT EXISTS catalog_overrides (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	catalog    TEXT NOT NULL,
	patch      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_catalog_overrides_catalog ON catalog_overrides(catalog);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, record *model.DecisionRecord) (*model.StoredRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO decision_records (id, status, selected_lender_id, data_source, fit_score, record, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(model.RecordStatusActive), record.SelectedLenderID, string(record.DataSource),
		record.FitScore, recordJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert record")
	}

	return &model.StoredRecord{
		ID:        id,
		Status:    model.RecordStatusActive,
		Record:    *record,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.StoredRecord, error) {
	var r model.StoredRecord
	var recordJSON []byte
	var voidReason *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Status, &voidReason, &recordJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.New("record not found")
		}
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}

	if voidReason != nil {
		r.VoidReason = *voidReason
	}
	if err := json.Unmarshal(recordJSON, &r.Record); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal record")
	}
	return &r, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.StoredRecord, error) {
	query := `SELECT id, status, void_reason, record, created_at, updated_at FROM decision_records WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.LenderID != "" {
		query += fmt.Sprintf(` AND selected_lender_id = $%d`, argIdx)
		args = append(args, filter.LenderID)
		argIdx++
	}
	if filter.DataSource != "" {
		query += fmt.Sprintf(` AND data_source = $%d`, argIdx)
		args = append(args, string(filter.DataSource))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.StoredRecord
	for rows.Next() {
		var r model.StoredRecord
		var recordJSON []byte
		var voidReason *string

		if err := rows.Scan(&r.ID, &r.Status, &voidReason, &recordJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if voidReason != nil {
			r.VoidReason = *voidReason
		}
		if err := json.Unmarshal(recordJSON, &r.Record); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) SaveOverride(ctx context.Context, catalog string, patch json.RawMessage) (*StoredOverride, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO catalog_overrides (id, catalog, patch, created_at) VALUES ($1, $2, $3, $4)`,
		id, catalog, []byte(patch), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert override")
	}

	return &StoredOverride{ID: id, Catalog: catalog, Patch: patch, CreatedAt: now}, nil
}

func (s *PostgresStore) ListOverrides(ctx context.Context, catalog string) ([]StoredOverride, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, catalog, patch, created_at FROM catalog_overrides WHERE catalog = $1 ORDER BY created_at`,
		catalog,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list overrides")
	}
	defer rows.Close()

	var overrides []StoredOverride
	for rows.Next() {
		var o StoredOverride
		var patch []byte
		if err := rows.Scan(&o.ID, &o.Catalog, &patch, &o.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan override")
		}
		o.Patch = json.RawMessage(patch)
		overrides = append(overrides, o)
	}
	return overrides, eris.Wrap(rows.Err(), "postgres: list overrides iterate")
}

func (s *PostgresStore) VoidRecord(ctx context.Context, id string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE decision_records SET status = $1, void_reason = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		string(model.RecordStatusVoided), reason, time.Now().UTC(),
		id, string(model.RecordStatusActive),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: void record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("record not found: %s", id)
	}
	return nil
}
