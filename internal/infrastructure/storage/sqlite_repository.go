package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"KhiphopPipeline/internal/domain"
	"KhiphopPipeline/internal/ports"
)

const (
	processedTable = "processed_items"
	stagedTable    = "staged_items"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS processed_items (
		id TEXT PRIMARY KEY,
		processed_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS staged_items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		staged_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	)`,
}

// SQLiteRepository persists the processed-id set and the staging area.
type SQLiteRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var (
	_ ports.DedupStore   = (*SQLiteRepository)(nil)
	_ ports.StagingStore = (*SQLiteRepository)(nil)
)

// Open creates or opens the database file and ensures the schema exists.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	repo := NewSQLiteRepository(db)
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteRepository wires an already opened sql.DB.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db),
		now: time.Now,
	}
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// LoadProcessedIDs returns the whole processed-id set.
func (r *SQLiteRepository) LoadProcessedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.sb.Select("id").From(processedTable).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// MarkProcessed inserts the id; an existing id is left untouched.
func (r *SQLiteRepository) MarkProcessed(ctx context.Context, id string) error {
	_, err := r.sb.Insert(processedTable).
		Columns("id", "processed_at").
		Values(id, r.now().UTC().UnixMilli()).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", id, err)
	}
	return nil
}

// List returns staged records in staging order.
func (r *SQLiteRepository) List(ctx context.Context) ([]domain.StagedRecord, error) {
	rows, err := r.sb.Select("payload").From(stagedTable).OrderBy("seq ASC").QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query staged: %w", err)
	}
	defer rows.Close()

	var records []domain.StagedRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan staged: %w", err)
		}
		var rec domain.StagedRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode staged: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// Append stages a record unless one with the same id is already staged.
func (r *SQLiteRepository) Append(ctx context.Context, record domain.StagedRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode staged %s: %w", record.Item.ID, err)
	}

	_, err = r.sb.Insert(stagedTable).
		Columns("id", "category", "title", "staged_at", "payload").
		Values(record.Item.ID, string(record.Item.Category), record.Item.Title, record.StagedAt.UTC().UnixMilli(), string(payload)).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("append staged %s: %w", record.Item.ID, err)
	}
	return nil
}

// RemoveByIDs deletes matching staged records; unknown ids are ignored.
func (r *SQLiteRepository) RemoveByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.sb.Delete(stagedTable).Where(sq.Eq{"id": ids}).ExecContext(ctx); err != nil {
		return fmt.Errorf("remove staged: %w", err)
	}
	return nil
}

// ClearAll wipes both the processed-id set and the staging area.
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	for _, table := range []string{processedTable, stagedTable} {
		if _, err := sq.Delete(table).RunWith(tx).ExecContext(ctx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
