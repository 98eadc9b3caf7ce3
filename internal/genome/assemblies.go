package genome

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
)

// ucscGenome is one entry of the UCSC list/ucscGenomes payload.
type ucscGenome struct {
	Organism    string   `json:"organism"`
	Description string   `json:"description"`
	SourceName  string   `json:"sourceName"`
	Active      flexBool `json:"active"`
	OrderKey    int      `json:"orderKey"`
}

func (g ucscGenome) toAssembly(id string) Assembly {
	a := Assembly{
		ID:          id,
		DisplayName: g.Description,
		SourceName:  g.SourceName,
		Active:      bool(g.Active),
		OrderKey:    g.OrderKey,
	}
	if a.DisplayName == "" {
		a.DisplayName = id
	}
	if a.SourceName == "" {
		a.SourceName = id
	}
	return a
}

// ListAssemblies returns every UCSC assembly grouped by organism. Records
// without an organism are grouped under "Other". Each group is ordered by the
// UCSC order key, then by id.
func (c *Client) ListAssemblies(ctx context.Context) (map[string][]Assembly, error) {
	const op = "list assemblies"

	var payload struct {
		UCSCGenomes map[string]ucscGenome `json:"ucscGenomes"`
	}
	if err := c.getJSON(ctx, op, c.ucscURL, "/list/ucscGenomes", nil, &payload); err != nil {
		return nil, err
	}
	if payload.UCSCGenomes == nil {
		return nil, unavailable(op, errors.New("UCSC API error: missing ucscGenomes"))
	}

	groups := make(map[string][]Assembly)
	for id, g := range payload.UCSCGenomes {
		organism := g.Organism
		if organism == "" {
			organism = "Other"
		}
		groups[organism] = append(groups[organism], g.toAssembly(id))
	}
	for _, list := range groups {
		sort.Slice(list, func(i, j int) bool {
			if list[i].OrderKey != list[j].OrderKey {
				return list[i].OrderKey < list[j].OrderKey
			}
			return list[i].ID < list[j].ID
		})
	}

	c.logger.Debug("loaded assemblies",
		zap.Int("assemblies", len(payload.UCSCGenomes)),
		zap.Int("organisms", len(groups)))

	return groups, nil
}
