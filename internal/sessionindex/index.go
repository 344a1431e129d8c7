package sessionindex

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"wax/internal/config"
	"wax/internal/orchestrator"
	"wax/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Status is the lifecycle state of an indexed session.
type Status string

const (
	StatusRecording   Status = "recording"
	StatusStopped     Status = "stopped"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Entry is one indexed session.
type Entry struct {
	ID          string
	Dir         string
	Recorders   []string
	Status      Status
	Phrases     int
	Error       string
	StartedAt   time.Time
	ClockOrigin time.Time
	StoppedAt   time.Time
}

// Index persists session summaries in SQLite.
type Index struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the index database.
func Open(cfg *config.Config) (*Index, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.IndexPath())
}

// OpenPath opens the index at an explicit path.
func OpenPath(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	idx := &Index{db: db, path: path}
	ctx := context.Background()
	if err := idx.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// MarkInterrupted flags sessions a previous daemon left in the recording
// state. Only the process holding the daemon lock may call it.
func (i *Index) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := i.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE status = ?`,
		StatusInterrupted, StatusRecording,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted sessions: %w", err)
	}
	return res.RowsAffected()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Close closes the underlying database connection.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

func (i *Index) initSchema(ctx context.Context) error {
	var tableExists int
	err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return i.createSchema(ctx)
	}

	var version int
	if err := i.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild it)",
			ErrSchemaMismatch, version, schemaVersion, i.path)
	}
	return nil
}

func (i *Index) createSchema(ctx context.Context) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SessionCreated inserts a recording row.
func (i *Index) SessionCreated(ctx context.Context, info orchestrator.Info) error {
	recorders, err := json.Marshal(nonNil(info.Recorders))
	if err != nil {
		return fmt.Errorf("marshal recorders: %w", err)
	}
	_, err = i.db.ExecContext(ctx,
		`INSERT INTO sessions (id, dir, recorders_json, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.Dir, string(recorders), StatusRecording, formatTime(info.StartedAt),
	)
	if err != nil {
		return services.Wrap(services.ErrLogIO, "sessionindex", "insert", info.ID, err)
	}
	return nil
}

// SessionFailed marks a session whose start was rolled back.
func (i *Index) SessionFailed(ctx context.Context, info orchestrator.Info, cause error) error {
	return i.finish(ctx, info, StatusFailed, services.UserMessage(cause))
}

// SessionStopped records the final phrase count and recorder list.
func (i *Index) SessionStopped(ctx context.Context, info orchestrator.Info) error {
	return i.finish(ctx, info, StatusStopped, "")
}

func (i *Index) finish(ctx context.Context, info orchestrator.Info, status Status, message string) error {
	recorders, err := json.Marshal(nonNil(info.Recorders))
	if err != nil {
		return fmt.Errorf("marshal recorders: %w", err)
	}
	var origin any
	if info.ClockMarked {
		origin = formatTime(info.ClockOrigin)
	}
	res, err := i.db.ExecContext(ctx,
		`UPDATE sessions
            SET status = ?, phrases = ?, recorders_json = ?, error_message = ?, clock_origin = ?, stopped_at = ?
          WHERE id = ?`,
		status, info.Phrases, string(recorders), nullableString(message), origin, formatTime(time.Now()), info.ID,
	)
	if err != nil {
		return services.Wrap(services.ErrLogIO, "sessionindex", "update", info.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not indexed", info.ID)
	}
	return nil
}

// List returns the most recent sessions first. A non-positive limit returns
// every session.
func (i *Index) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, dir, recorders_json, status, phrases, error_message, started_at, clock_origin, stopped_at
                FROM sessions ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get fetches one session by id.
func (i *Index) Get(ctx context.Context, id string) (*Entry, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT id, dir, recorders_json, status, phrases, error_message, started_at, clock_origin, stopped_at
           FROM sessions WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry         Entry
		recordersJSON string
		status        string
		errorMessage  sql.NullString
		startedRaw    string
		originRaw     sql.NullString
		stoppedRaw    sql.NullString
	)
	if err := scanner.Scan(&entry.ID, &entry.Dir, &recordersJSON, &status, &entry.Phrases,
		&errorMessage, &startedRaw, &originRaw, &stoppedRaw); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(recordersJSON), &entry.Recorders); err != nil {
		return Entry{}, fmt.Errorf("decode recorders for %s: %w", entry.ID, err)
	}
	entry.Status = Status(status)
	entry.Error = errorMessage.String
	entry.StartedAt = parseTime(startedRaw)
	if originRaw.Valid {
		entry.ClockOrigin = parseTime(originRaw.String)
	}
	if stoppedRaw.Valid {
		entry.StoppedAt = parseTime(stoppedRaw.String)
	}
	return entry, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
