// Package store caches chromosome lists and gene records in DuckDB so that
// repeated sessions do not hit the remote services for data that rarely
// changes.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the cache tables.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS chromosome_cache (
		assembly VARCHAR,
		name VARCHAR,
		size BIGINT,
		fetched_at TIMESTAMP,
		PRIMARY KEY (assembly, name)
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS gene_cache (
		gene_id VARCHAR PRIMARY KEY,
		payload VARCHAR,
		fetched_at TIMESTAMP
	)`)
	return err
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM chromosome_cache"); err != nil {
		return fmt.Errorf("clear chromosomes: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM gene_cache"); err != nil {
		return fmt.Errorf("clear genes: %w", err)
	}
	return nil
}

// Stats holds entry counts per table.
type Stats struct {
	Assemblies  int `json:"assemblies"`
	Chromosomes int `json:"chromosomes"`
	Genes       int `json:"genes"`
}

// Stats counts cached entries.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	row := s.db.QueryRow(`SELECT COUNT(DISTINCT assembly), COUNT(*) FROM chromosome_cache`)
	if err := row.Scan(&st.Assemblies, &st.Chromosomes); err != nil {
		return Stats{}, fmt.Errorf("count chromosomes: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM gene_cache`).Scan(&st.Genes); err != nil {
		return Stats{}, fmt.Errorf("count genes: %w", err)
	}
	return st, nil
}

func (s *Store) cutoff(maxAge time.Duration) time.Time {
	return s.now().UTC().Add(-maxAge)
}
