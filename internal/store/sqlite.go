package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/genscript/internal/dedup"
	"github.com/hyperengineering/genscript/internal/types"
	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed-width so text ordering matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const ideaColumns = `id, category, title, description, moneyValue, effortValue,
	monetizationStrategies, refinedPrompt, thought, createdAt`

// SQLiteStore represents the SQLite-backed ideas database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	mu           sync.RWMutex
	lastSnapshot *time.Time
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveIdeas inserts the ideas whose titles are not yet stored and reports the
// rest as duplicates. The title check and the inserts are not atomic with
// respect to other writers; the unique title index catches what slips through
// and such rows are counted as duplicates too.
func (s *SQLiteStore) SaveIdeas(ctx context.Context, ideas []types.Idea) (*types.SaveResult, error) {
	for i, idea := range ideas {
		if strings.TrimSpace(idea.Title) == "" {
			return nil, fmt.Errorf("idea %d: %w: title is required", i, ErrInvalidIdea)
		}
	}

	existing, err := s.ExistingTitles(ctx)
	if err != nil {
		return nil, err
	}
	filtered := dedup.FilterNew(ideas, existing)

	result := &types.SaveResult{
		Saved:           []types.Idea{},
		DuplicatesCount: len(filtered.Duplicates),
		TotalProcessed:  len(ideas),
	}
	if len(filtered.ToInsert) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ideas (`+ideaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title COLLATE NOCASE) DO NOTHING
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, idea := range filtered.ToInsert {
		if idea.ID == "" {
			idea.ID = ulid.Make().String()
		}
		res, err := stmt.ExecContext(ctx,
			idea.ID, idea.Category, idea.Title, idea.Description,
			nullString(idea.MoneyValue), nullString(idea.EffortValue),
			nullString(idea.MonetizationStrategies), nullString(idea.RefinedPrompt),
			nullString(idea.Thought), now.Format(timeLayout),
		)
		if err != nil {
			if isPrimaryKeyViolation(err) {
				return nil, fmt.Errorf("insert idea %q: %w", idea.ID, ErrDuplicateID)
			}
			return nil, fmt.Errorf("insert idea %q: %w", idea.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			result.DuplicatesCount++
			continue
		}
		created := now
		idea.CreatedAt = &created
		result.Saved = append(result.Saved, idea)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func isPrimaryKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// ListIdeas returns every stored idea, newest first.
func (s *SQLiteStore) ListIdeas(ctx context.Context) ([]types.Idea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ideaColumns+`
		FROM ideas
		ORDER BY createdAt DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query ideas: %w", err)
	}
	defer rows.Close()

	ideas := []types.Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

// GetIdea returns a single idea by id.
func (s *SQLiteStore) GetIdea(ctx context.Context, id string) (*types.Idea, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ideaColumns+` FROM ideas WHERE id = ?`, id)
	idea, err := scanIdea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return idea, nil
}

// DeleteIdea removes an idea by id.
func (s *SQLiteStore) DeleteIdea(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistingTitles returns the title of every stored idea.
func (s *SQLiteStore) ExistingTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM ideas`)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// RecordGeneration writes a generation history row. An empty ID is replaced
// with a new ULID and a zero CreatedAt with the current time.
func (s *SQLiteStore) RecordGeneration(ctx context.Context, g types.Generation) (*types.Generation, error) {
	if g.ID == "" {
		g.ID = ulid.Make().String()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, mode, topic, requested_count, parsed_count,
			saved_count, duplicates_count, strategy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, string(g.Mode), g.Topic, g.RequestedCount, g.ParsedCount,
		g.SavedCount, g.DuplicatesCount, g.Strategy, g.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert generation: %w", err)
	}
	return &g, nil
}

// ListGenerations returns the most recent generation rows, newest first.
func (s *SQLiteStore) ListGenerations(ctx context.Context, limit int) ([]types.Generation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, topic, requested_count, parsed_count, saved_count,
			duplicates_count, strategy, created_at
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	gens := []types.Generation{}
	for rows.Next() {
		var g types.Generation
		var mode, createdAt string
		if err := rows.Scan(&g.ID, &mode, &g.Topic, &g.RequestedCount, &g.ParsedCount,
			&g.SavedCount, &g.DuplicatesCount, &g.Strategy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		g.Mode = types.GenerationMode(mode)
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			g.CreatedAt = t
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// GenerateSnapshot writes a consistent copy of the database to path using
// VACUUM INTO. An existing file at path is replaced.
func (s *SQLiteStore) GenerateSnapshot(ctx context.Context, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		return fmt.Errorf("vacuum into: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	now := s.now()
	s.mu.Lock()
	s.lastSnapshot = &now
	s.mu.Unlock()
	return nil
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ideas").Scan(&stats.IdeaCount); err != nil {
		return nil, fmt.Errorf("count ideas: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations").Scan(&stats.GenerationCount); err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}

	v, err := SchemaVersion(s.db)
	if err != nil {
		return nil, err
	}
	stats.SchemaVersion = v

	s.mu.RLock()
	stats.LastSnapshot = s.lastSnapshot
	s.mu.RUnlock()

	return &stats, nil
}

// scanIdea scans a row into an Idea, mapping NULL optional columns to "".
func scanIdea(scanner interface{ Scan(...any) error }) (*types.Idea, error) {
	var idea types.Idea
	var money, effort, strategies, refined, thought sql.NullString
	var createdAt string

	err := scanner.Scan(
		&idea.ID,
		&idea.Category,
		&idea.Title,
		&idea.Description,
		&money,
		&effort,
		&strategies,
		&refined,
		&thought,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	idea.MoneyValue = money.String
	idea.EffortValue = effort.String
	idea.MonetizationStrategies = strategies.String
	idea.RefinedPrompt = refined.String
	idea.Thought = thought.String

	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		idea.CreatedAt = &t
	}
	return &idea, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
