package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// DefaultTTL is how long cached entries are served.
const DefaultTTL = 24 * time.Hour

// CachingService serves chromosome lists and gene records from a Store,
// delegating everything else, and every miss, to the wrapped service.
// Cache failures are logged and fall through to the network.
type CachingService struct {
	next   genome.Service
	store  *Store
	ttl    time.Duration
	logger *zap.Logger
}

var _ genome.Service = (*CachingService)(nil)

// NewCachingService wraps next. A non-positive ttl uses DefaultTTL.
func NewCachingService(next genome.Service, st *Store, ttl time.Duration) *CachingService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingService{next: next, store: st, ttl: ttl, logger: zap.NewNop()}
}

// SetLogger sets the logger for cache hits and failures.
func (c *CachingService) SetLogger(l *zap.Logger) {
	c.logger = l
}

func (c *CachingService) ListAssemblies(ctx context.Context) (map[string][]genome.Assembly, error) {
	return c.next.ListAssemblies(ctx)
}

func (c *CachingService) ListChromosomes(ctx context.Context, assemblyID string) ([]genome.Chromosome, error) {
	chroms, ok, err := c.store.LookupChromosomes(ctx, assemblyID, c.ttl)
	switch {
	case err != nil:
		c.logger.Warn("chromosome cache lookup failed", zap.String("assembly", assemblyID), zap.Error(err))
	case ok:
		c.logger.Debug("chromosome cache hit", zap.String("assembly", assemblyID), zap.Int("count", len(chroms)))
		return chroms, nil
	}

	chroms, err = c.next.ListChromosomes(ctx, assemblyID)
	if err != nil {
		return nil, err
	}
	if err := c.store.WriteChromosomes(ctx, assemblyID, chroms); err != nil {
		c.logger.Warn("chromosome cache write failed", zap.String("assembly", assemblyID), zap.Error(err))
	}
	return chroms, nil
}

func (c *CachingService) SearchGenes(ctx context.Context, query, assemblyID string) ([]genome.GeneSummary, error) {
	return c.next.SearchGenes(ctx, query, assemblyID)
}

func (c *CachingService) FetchGeneDetails(ctx context.Context, geneID string) (*genome.GeneRecord, error) {
	rec, ok, err := c.store.LookupGene(ctx, geneID, c.ttl)
	switch {
	case err != nil:
		c.logger.Warn("gene cache lookup failed", zap.String("gene_id", geneID), zap.Error(err))
	case ok:
		c.logger.Debug("gene cache hit", zap.String("gene_id", geneID))
		return rec, nil
	}

	rec, err = c.next.FetchGeneDetails(ctx, geneID)
	if err != nil {
		return nil, err
	}
	if err := c.store.WriteGene(ctx, geneID, rec); err != nil {
		c.logger.Warn("gene cache write failed", zap.String("gene_id", geneID), zap.Error(err))
	}
	return rec, nil
}

func (c *CachingService) FetchGeneSequence(ctx context.Context, chrom string, r interval.Range, assemblyID string) (*genome.SequenceResult, error) {
	return c.next.FetchGeneSequence(ctx, chrom, r, assemblyID)
}

// Invalidate drops the cached chromosome list of an assembly.
func (c *CachingService) Invalidate(ctx context.Context, assemblyID string) error {
	return c.store.InvalidateAssembly(ctx, assemblyID)
}

// Clear drops every cached entry.
func (c *CachingService) Clear() error {
	return c.store.Clear()
}
