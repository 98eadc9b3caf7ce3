package navigate

import (
	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// Msg is anything Update accepts: a user intent or a command result.
type Msg interface{}

// Cmd performs I/O off the owning goroutine and returns the message to feed
// back into Update. A nil result is ignored.
type Cmd func() Msg

// Start loads the assembly list and the chromosomes of the current assembly.
type Start struct{}

// LoadAssemblies (re)loads the assembly list.
type LoadAssemblies struct{}

// SelectAssembly switches the session to another assembly.
type SelectAssembly struct {
	ID string `json:"id"`
}

// SwitchMode switches between search and browse.
type SwitchMode struct {
	Mode Mode `json:"mode"`
}

// SetQuery replaces the search query text.
type SetQuery struct {
	Text string `json:"text"`
}

// SubmitSearch searches for the current query.
type SubmitSearch struct{}

// LoadExample runs the example gene search.
type LoadExample struct{}

// SelectChromosome marks a chromosome as selected.
type SelectChromosome struct {
	Name string `json:"name"`
}

// SelectGene loads a gene and its initial sequence window.
type SelectGene struct {
	Gene genome.GeneSummary `json:"gene"`
}

// RequestRange fetches a user-edited range. Chrom is optional; by default the
// loaded gene's chromosome is used, or the selected chromosome in browse mode.
type RequestRange struct {
	Chrom string `json:"chrom,omitempty"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// tag identifies the request a result belongs to.
type tag struct {
	slot     Slot
	epoch    uint64
	assembly string
}

type assembliesLoaded struct {
	tag
	groups map[string][]genome.Assembly
	err    error
}

type chromosomesLoaded struct {
	tag
	chroms []genome.Chromosome
	err    error
}

type searchDone struct {
	tag
	query   string
	results []genome.GeneSummary
	err     error
}

type geneLoaded struct {
	tag
	rec *genome.GeneRecord
	err error
}

type sequenceLoaded struct {
	tag
	chrom     string
	requested interval.Range
	clamped   bool
	res       *genome.SequenceResult
	err       error
}
