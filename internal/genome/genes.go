package genome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/interval"
)

// Display fields requested from the NCBI gene table, in row order.
const searchDisplayFields = "chromosome,Symbol,description,map_location,type_of_gene"

// SearchGenes searches NCBI genes by symbol or name. A blank query returns
// no results without issuing a request. assemblyID is accepted for symmetry
// with the other operations; gene search is not assembly specific.
func (c *Client) SearchGenes(ctx context.Context, query, assemblyID string) ([]GeneSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	op := fmt.Sprintf("search genes %q", query)

	params := url.Values{
		"terms":   {query},
		"df":      {searchDisplayFields},
		"ef":      {"GeneID"},
		"maxList": {strconv.Itoa(c.searchLimit)},
	}

	// [total, codes, {extraField: [values]}, [[display fields]]]
	var payload []json.RawMessage
	if err := c.getJSON(ctx, op, c.searchURL, "/api/ncbi_genes/v3/search", params, &payload); err != nil {
		return nil, err
	}
	if len(payload) < 4 {
		return nil, unavailable(op, fmt.Errorf("malformed search payload: %d elements", len(payload)))
	}

	var (
		codes  []string
		extras map[string][]string
		rows   [][]string
	)
	if err := json.Unmarshal(payload[1], &codes); err != nil {
		return nil, unavailable(op, fmt.Errorf("decode codes: %w", err))
	}
	if err := json.Unmarshal(payload[2], &extras); err != nil {
		return nil, unavailable(op, fmt.Errorf("decode extra fields: %w", err))
	}
	if err := json.Unmarshal(payload[3], &rows); err != nil {
		return nil, unavailable(op, fmt.Errorf("decode rows: %w", err))
	}

	geneIDs := extras["GeneID"]
	results := make([]GeneSummary, 0, len(rows))
	for i, row := range rows {
		g := GeneSummary{
			Chrom:    NormalizeChrom(field(row, 0)),
			Symbol:   field(row, 1),
			Name:     field(row, 2),
			Location: field(row, 3),
			Type:     field(row, 4),
		}
		switch {
		case i < len(geneIDs) && geneIDs[i] != "":
			g.ID = geneIDs[i]
		case i < len(codes):
			g.ID = codes[i]
		}
		if g.ID == "" || g.Symbol == "" {
			continue
		}
		results = append(results, g)
	}

	c.logger.Debug("gene search",
		zap.String("query", query),
		zap.String("assembly", assemblyID),
		zap.Int("results", len(results)))

	return results, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// esummaryGene is one document of the NCBI esummary gene payload.
type esummaryGene struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	MapLocation string `json:"maplocation"`
	Error       string `json:"error"`
	Organism    struct {
		ScientificName string `json:"scientificname"`
	} `json:"organism"`
	GenomicInfo []struct {
		ChrLoc    string  `json:"chrloc"`
		ChrStart  flexInt `json:"chrstart"`
		ChrStop   flexInt `json:"chrstop"`
		ExonCount flexInt `json:"exoncount"`
	} `json:"genomicinfo"`
}

// FetchGeneDetails loads the NCBI record for geneID, its bounds and the
// initial range to fetch.
func (c *Client) FetchGeneDetails(ctx context.Context, geneID string) (*GeneRecord, error) {
	geneID = strings.TrimSpace(geneID)
	op := fmt.Sprintf("fetch gene %q", geneID)
	if geneID == "" {
		return nil, notFound(op, errors.New("gene ID is missing"))
	}

	var payload struct {
		Result         map[string]json.RawMessage `json:"result"`
		Error          string                     `json:"error"`
		ESummaryResult []string                   `json:"esummaryresult"`
	}
	params := url.Values{"db": {"gene"}, "id": {geneID}, "retmode": {"json"}}
	if err := c.getJSON(ctx, op, c.eutilsURL, "/esummary.fcgi", params, &payload); err != nil {
		return nil, err
	}
	if payload.Result == nil {
		if payload.Error != "" || len(payload.ESummaryResult) > 0 {
			return nil, notFound(op, fmt.Errorf("%s%s", payload.Error, strings.Join(payload.ESummaryResult, "; ")))
		}
		return nil, unavailable(op, errors.New("NCBI API error: missing result"))
	}

	raw, ok := payload.Result[geneID]
	if !ok {
		return nil, notFound(op, errors.New("no such gene"))
	}
	var doc esummaryGene
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, unavailable(op, fmt.Errorf("decode gene summary: %w", err))
	}
	if doc.Error != "" {
		return nil, notFound(op, errors.New(doc.Error))
	}
	if len(doc.GenomicInfo) == 0 {
		return nil, notFound(op, errors.New("gene has no genomic location"))
	}

	// NCBI positions are 0-based and reversed for minus-strand genes.
	info := doc.GenomicInfo[0]
	lo, hi := int64(info.ChrStart), int64(info.ChrStop)
	if lo > hi {
		lo, hi = hi, lo
	}
	bounds := GeneBounds{
		Chrom: NormalizeChrom(info.ChrLoc),
		Start: lo + 1,
		End:   hi + 1,
	}

	detail := GeneDetail{
		ID:          geneID,
		Symbol:      doc.Name,
		Description: doc.Description,
		Summary:     doc.Summary,
		Organism:    doc.Organism.ScientificName,
		Location:    doc.MapLocation,
		ExonCount:   int(info.ExonCount),
		Bounds:      bounds,
	}

	rec := &GeneRecord{
		Detail:       detail,
		Bounds:       bounds,
		InitialRange: interval.ResolveInitial(bounds.Range(), c.maxInitialWindow),
	}

	c.logger.Debug("loaded gene",
		zap.String("gene", geneID),
		zap.String("symbol", detail.Symbol),
		zap.String("chrom", bounds.Chrom),
		zap.Int64("start", bounds.Start),
		zap.Int64("end", bounds.End))

	return rec, nil
}
