package genome

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/chromosome"
)

// ListChromosomes returns the primary chromosomes of an assembly, sorted by
// chromosome.Compare. Unplaced, unlocalized and random scaffolds are dropped.
func (c *Client) ListChromosomes(ctx context.Context, assemblyID string) ([]Chromosome, error) {
	op := fmt.Sprintf("list chromosomes for %s", assemblyID)

	var payload struct {
		Chromosomes map[string]flexInt `json:"chromosomes"`
	}
	query := url.Values{"genome": {assemblyID}}
	if err := c.getJSON(ctx, op, c.ucscURL, "/list/chromosomes", query, &payload); err != nil {
		return nil, err
	}
	if payload.Chromosomes == nil {
		return nil, unavailable(op, errors.New("UCSC API error: missing chromosomes"))
	}

	chroms := make([]Chromosome, 0, len(payload.Chromosomes))
	skipped := 0
	for name, size := range payload.Chromosomes {
		if !chromosome.IsPrimary(name) {
			skipped++
			continue
		}
		chroms = append(chroms, Chromosome{Name: name, Size: int64(size)})
	}
	chromosome.SortBy(chroms, func(c Chromosome) string { return c.Name })

	c.logger.Debug("loaded chromosomes",
		zap.String("assembly", assemblyID),
		zap.Int("primary", len(chroms)),
		zap.Int("skipped", skipped))

	return chroms, nil
}
