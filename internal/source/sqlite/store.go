// Package sqlite serves resource listings from an inventory snapshot kept in
// a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/artpar/awsbrowse/internal/resources"
	"github.com/artpar/awsbrowse/internal/source"
	"github.com/artpar/awsbrowse/internal/source/fixture"
)

// Store implements source.Source using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ source.Source = (*Store)(nil)

// New opens or creates the snapshot database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize inventory database: %w", err)
	}
	return store, nil
}

// NewInMemory creates an in-memory snapshot (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS resources (
			listing      TEXT NOT NULL,
			id           TEXT NOT NULL,
			kind         TEXT NOT NULL,
			parent_id    TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL,
			name         TEXT NOT NULL DEFAULT '',
			region       TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT '',
			size         INTEGER NOT NULL DEFAULT 0,
			modified     INTEGER NOT NULL DEFAULT 0,
			attrs        TEXT NOT NULL DEFAULT '{}',
			has_children INTEGER NOT NULL DEFAULT 0,
			error        TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (listing, id)
		);

		CREATE INDEX IF NOT EXISTS idx_resources_parent ON resources(listing, parent_id, position);
	`
	_, err := s.db.Exec(schema)
	return err
}

const columns = "kind, id, name, region, status, size, modified, attrs, has_children"

// List returns the top-level resources of kind.
func (s *Store) List(ctx context.Context, kind resources.Kind) ([]resources.Resource, error) {
	if err := source.CheckKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, source.ErrClosed
	}
	return s.query(ctx, string(kind), "")
}

// Children returns the children of key. A node imported with an error
// fails with that error.
func (s *Store) Children(ctx context.Context, kind resources.Kind, key string) ([]resources.Resource, error) {
	if err := source.CheckKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, source.ErrClosed
	}

	var failure string
	err := s.db.QueryRowContext(ctx,
		"SELECT error FROM resources WHERE listing = ? AND id = ?",
		string(kind), key,
	).Scan(&failure)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %q", source.ErrNotFound, kind, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up resource: %w", err)
	}
	if failure != "" {
		return nil, errors.New(failure)
	}
	return s.query(ctx, string(kind), key)
}

func (s *Store) query(ctx context.Context, listing, parent string) ([]resources.Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM resources WHERE listing = ? AND parent_id = ? ORDER BY position",
		listing, parent,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	out := []resources.Resource{}
	for rows.Next() {
		var (
			r        resources.Resource
			kind     string
			modified int64
			attrs    string
		)
		if err := rows.Scan(&kind, &r.ID, &r.Name, &r.Region, &r.Status, &r.Size, &modified, &attrs, &r.HasChildren); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		r.Kind = resources.Kind(kind)
		if modified != 0 {
			r.Modified = time.Unix(0, modified).UTC()
		}
		if attrs != "" && attrs != "{}" {
			if err := json.Unmarshal([]byte(attrs), &r.Attrs); err != nil {
				return nil, fmt.Errorf("failed to decode attributes of %q: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Import replaces the snapshot with the contents of inv in one transaction.
func (s *Store) Import(ctx context.Context, inv fixture.Inventory) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, source.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM resources"); err != nil {
		return 0, fmt.Errorf("failed to clear inventory: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO resources (listing, id, kind, parent_id, position, name, region, status, size, modified, attrs, has_children, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	count := 0
	positions := make(map[string]int)
	err = inv.Walk(func(listing resources.Kind, parent string, n *fixture.Node) error {
		attrs := []byte("{}")
		if len(n.Attrs) > 0 {
			var err error
			if attrs, err = json.Marshal(n.Attrs); err != nil {
				return err
			}
		}
		var modified int64
		if !n.Modified.IsZero() {
			modified = n.Modified.UnixNano()
		}
		hasChildren := 0
		if n.HasChildren {
			hasChildren = 1
		}
		slot := string(listing) + "\x00" + parent
		pos := positions[slot]
		positions[slot] = pos + 1

		if _, err := stmt.ExecContext(ctx,
			string(listing), n.ID, string(n.Kind), parent, pos,
			n.Name, n.Region, n.Status, n.Size, modified, string(attrs), hasChildren, n.Error,
		); err != nil {
			return fmt.Errorf("failed to import %s %q: %w", listing, n.ID, err)
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return count, nil
}

// Count returns the number of stored resources.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, source.ErrClosed
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
