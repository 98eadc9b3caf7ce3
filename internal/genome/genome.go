// Package genome provides typed access to the public genome data services:
// the UCSC Genome Browser API for assemblies, chromosomes and sequence, and
// NCBI for gene search and gene detail.
package genome

import (
	"context"
	"strings"

	"github.com/inodb/genome-nav/internal/interval"
)

// DefaultOrganism is the assembly group shown when none is configured.
const DefaultOrganism = "Human"

// Assembly is a reference genome assembly such as hg38.
type Assembly struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	SourceName  string `json:"sourceName"`
	Active      bool   `json:"isActive"`
	OrderKey    int    `json:"orderKey,omitempty"`
}

// Chromosome is a primary chromosome of an assembly.
type Chromosome struct {
	Name string `json:"name"`
	Size int64  `json:"sizeBases"`
}

// GeneSummary is one gene search hit.
type GeneSummary struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Chrom    string `json:"chrom"`
	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
}

// GeneBounds is the nominal location of a gene. Coordinates are 1-based and
// inclusive, with Start <= End regardless of strand.
type GeneBounds struct {
	Chrom string `json:"chrom"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// Range returns the bounds as an interval.
func (b GeneBounds) Range() interval.Range {
	return interval.Range{Start: b.Start, End: b.End}
}

// GeneDetail is the descriptive record for a gene.
type GeneDetail struct {
	ID          string     `json:"id"`
	Symbol      string     `json:"symbol"`
	Description string     `json:"description"`
	Summary     string     `json:"summary,omitempty"`
	Organism    string     `json:"organism,omitempty"`
	Location    string     `json:"location,omitempty"`
	ExonCount   int        `json:"exonCount,omitempty"`
	Bounds      GeneBounds `json:"bounds"`
}

// GeneRecord is the result of FetchGeneDetails: the detail, its bounds and
// the range to fetch first.
type GeneRecord struct {
	Detail       GeneDetail     `json:"detail"`
	Bounds       GeneBounds     `json:"bounds"`
	InitialRange interval.Range `json:"initialRange"`
}

// SequenceResult holds the bases served for a requested range. Actual is the
// range the service reports having served. Error carries a non-fatal message
// (for example a truncation warning); the bases are still usable.
type SequenceResult struct {
	Sequence string         `json:"sequence"`
	Actual   interval.Range `json:"actualRange"`
	Error    string         `json:"error,omitempty"`
}

// Service is the set of remote operations the navigator depends on.
// Client implements it; store.CachingService decorates it.
type Service interface {
	ListAssemblies(ctx context.Context) (map[string][]Assembly, error)
	ListChromosomes(ctx context.Context, assemblyID string) ([]Chromosome, error)
	SearchGenes(ctx context.Context, query, assemblyID string) ([]GeneSummary, error)
	FetchGeneDetails(ctx context.Context, geneID string) (*GeneRecord, error)
	FetchGeneSequence(ctx context.Context, chrom string, r interval.Range, assemblyID string) (*SequenceResult, error)
}

// NormalizeChrom returns the UCSC-style name for a chromosome: "17" becomes
// "chr17" and "MT" becomes "chrM". Alternatives such as "X|Y" keep the first.
func NormalizeChrom(chrom string) string {
	chrom = strings.TrimSpace(chrom)
	if i := strings.IndexByte(chrom, '|'); i >= 0 {
		chrom = chrom[:i]
	}
	if chrom == "" {
		return ""
	}
	if !strings.HasPrefix(chrom, "chr") {
		chrom = "chr" + chrom
	}
	if chrom == "chrMT" {
		chrom = "chrM"
	}
	return chrom
}

// FindChromosome returns the chromosome with the given name, if present.
func FindChromosome(chroms []Chromosome, name string) (Chromosome, bool) {
	for _, c := range chroms {
		if c.Name == name {
			return c, true
		}
	}
	return Chromosome{}, false
}
