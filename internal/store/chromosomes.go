package store

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/genome-nav/internal/chromosome"
	"github.com/inodb/genome-nav/internal/genome"
)

// WriteChromosomes replaces the cached chromosome list of an assembly using
// the Appender API. Duplicate names are written once.
func (s *Store) WriteChromosomes(ctx context.Context, assemblyID string, chroms []genome.Chromosome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM chromosome_cache WHERE assembly=?", assemblyID); err != nil {
		return fmt.Errorf("delete chromosomes: %w", err)
	}
	if len(chroms) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "chromosome_cache")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	fetched := s.now().UTC()
	seen := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if err := appender.AppendRow(assemblyID, c.Name, c.Size, fetched); err != nil {
			return fmt.Errorf("append chromosome: %w", err)
		}
	}

	return appender.Flush()
}

// LookupChromosomes returns the cached chromosomes of an assembly fetched
// within maxAge, in chromosome order. ok is false when nothing fresh is
// cached.
func (s *Store) LookupChromosomes(ctx context.Context, assemblyID string, maxAge time.Duration) (chroms []genome.Chromosome, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, size
		FROM chromosome_cache
		WHERE assembly=? AND fetched_at >= ?`,
		assemblyID, s.cutoff(maxAge))
	if err != nil {
		return nil, false, fmt.Errorf("query chromosomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c genome.Chromosome
		if err := rows.Scan(&c.Name, &c.Size); err != nil {
			return nil, false, fmt.Errorf("scan chromosome: %w", err)
		}
		chroms = append(chroms, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate chromosomes: %w", err)
	}
	if len(chroms) == 0 {
		return nil, false, nil
	}

	chromosome.SortBy(chroms, func(c genome.Chromosome) string { return c.Name })
	return chroms, true, nil
}

// InvalidateAssembly drops the cached chromosome list of an assembly.
func (s *Store) InvalidateAssembly(ctx context.Context, assemblyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM chromosome_cache WHERE assembly=?", assemblyID); err != nil {
		return fmt.Errorf("invalidate %s: %w", assemblyID, err)
	}
	return nil
}
