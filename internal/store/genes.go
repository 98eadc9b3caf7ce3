package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inodb/genome-nav/internal/genome"
)

// WriteGene caches a gene record, replacing any earlier entry.
func (s *Store) WriteGene(ctx context.Context, geneID string, rec *genome.GeneRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode gene %s: %w", geneID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO gene_cache (gene_id, payload, fetched_at) VALUES (?, ?, ?)",
		geneID, string(payload), s.now().UTC()); err != nil {
		return fmt.Errorf("write gene %s: %w", geneID, err)
	}
	return nil
}

// LookupGene returns the cached record of a gene fetched within maxAge.
func (s *Store) LookupGene(ctx context.Context, geneID string, maxAge time.Duration) (*genome.GeneRecord, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM gene_cache WHERE gene_id=? AND fetched_at >= ?",
		geneID, s.cutoff(maxAge)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query gene %s: %w", geneID, err)
	}

	var rec genome.GeneRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, false, fmt.Errorf("decode gene %s: %w", geneID, err)
	}
	return &rec, true, nil
}
