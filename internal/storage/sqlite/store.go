package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"chaincodec/internal/model"
	"chaincodec/internal/storage"
)

// Store persists decoded events in SQLite, keyed by (chain, tx_hash, log_index).
type Store struct {
	db *sql.DB
}

var _ storage.Sink = (*Store)(nil)

// Open initializes a SQLite database and runs minimal schema setup.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	schema := `
CREATE TABLE IF NOT EXISTS decoded_events (
  chain           TEXT NOT NULL,
  tx_hash         TEXT NOT NULL,
  log_index       INTEGER NOT NULL,
  block_number    INTEGER NOT NULL,
  block_timestamp INTEGER NOT NULL,
  address         TEXT,
  schema_name     TEXT NOT NULL,
  schema_version  INTEGER NOT NULL,
  fingerprint     TEXT NOT NULL,
  has_errors      INTEGER NOT NULL DEFAULT 0,
  payload_json    TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(chain, tx_hash, log_index)
);

CREATE INDEX IF NOT EXISTS decoded_events_schema ON decoded_events(schema_name, schema_version);
CREATE INDEX IF NOT EXISTS decoded_events_block ON decoded_events(chain, block_number);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PutEventBatch upserts events in one transaction.
func (s *Store) PutEventBatch(ctx context.Context, events []*model.DecodedEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO decoded_events (
  chain, tx_hash, log_index, block_number, block_timestamp, address,
  schema_name, schema_version, fingerprint, has_errors, payload_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(chain, tx_hash, log_index) DO UPDATE SET
  block_number=excluded.block_number,
  block_timestamp=excluded.block_timestamp,
  address=excluded.address,
  schema_name=excluded.schema_name,
  schema_version=excluded.schema_version,
  fingerprint=excluded.fingerprint,
  has_errors=excluded.has_errors,
  payload_json=excluded.payload_json;
`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		hasErrors := 0
		if event.HasErrors() {
			hasErrors = 1
		}
		if _, err := stmt.ExecContext(ctx,
			event.Chain.Slug,
			event.TxHash,
			event.LogIndex,
			int64(event.BlockNumber),
			event.BlockTimestamp,
			event.Address,
			event.Schema,
			event.SchemaVersion,
			string(event.Fingerprint),
			hasErrors,
			string(payload),
		); err != nil {
			return fmt.Errorf("upsert event %s/%d: %w", event.TxHash, event.LogIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetEvent loads one decoded event.
func (s *Store) GetEvent(ctx context.Context, chain, txHash string, logIndex uint32) (*model.DecodedEvent, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT payload_json FROM decoded_events WHERE chain = ? AND tx_hash = ? AND log_index = ?;
`, chain, txHash, logIndex)

	var payload string
	switch err := row.Scan(&payload); err {
	case nil:
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get event: %w", err)
	}

	var event model.DecodedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, false, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, true, nil
}

// Count returns the number of stored events, optionally for one schema name.
func (s *Store) Count(ctx context.Context, schema string) (int, error) {
	query := `SELECT COUNT(*) FROM decoded_events`
	var args []interface{}
	if schema != "" {
		query += ` WHERE schema_name = ?`
		args = append(args, schema)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}
