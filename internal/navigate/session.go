// Package navigate owns a genome browsing session: the selected assembly,
// chromosome and gene, the current sequence window and the loading and error
// state of each request.
//
// Machine is a reducer in the Elm style. Update applies one message and
// returns commands; commands perform network I/O away from the owning
// goroutine and return result messages that are fed back into Update. Only
// the goroutine calling Update mutates the session.
package navigate

import (
	"slices"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// Mode is the navigation mode.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeBrowse Mode = "browse"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSearch || m == ModeBrowse
}

// Slot names an independently loaded part of the session.
type Slot string

const (
	SlotAssemblies  Slot = "assemblies"
	SlotChromosomes Slot = "chromosomes"
	SlotSearch      Slot = "search"
	SlotGene        Slot = "gene"
	SlotSequence    Slot = "sequence"
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotAssemblies, SlotChromosomes, SlotSearch, SlotGene, SlotSequence}

// Status is the load state of a slot.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// SlotState is the status of one slot and, when failed, its error message.
type SlotState struct {
	Status Status `json:"status"`
	Err    string `json:"error,omitempty"`
}

// SequenceWindow is one fetched stretch of sequence. Requested is what the
// user or the gene record asked for; Effective is what was served.
type SequenceWindow struct {
	Chrom      string         `json:"chrom"`
	Requested  interval.Range `json:"requested"`
	Effective  interval.Range `json:"effective"`
	Bases      string         `json:"bases"`
	WasClamped bool           `json:"wasClamped"`
}

// Session is a snapshot of the navigation state.
type Session struct {
	AssemblyID         string               `json:"assemblyId"`
	Organism           string               `json:"organism"`
	Organisms          []string             `json:"organisms,omitempty"`
	Assemblies         []genome.Assembly    `json:"assemblies"`
	Mode               Mode                 `json:"mode"`
	Chromosomes        []genome.Chromosome  `json:"chromosomes"`
	SelectedChromosome string               `json:"selectedChromosome,omitempty"`
	Query              string               `json:"query"`
	SearchResults      []genome.GeneSummary `json:"searchResults,omitempty"`
	SelectedGene       *genome.GeneSummary  `json:"selectedGene,omitempty"`
	Gene               *genome.GeneRecord   `json:"gene,omitempty"`
	Window             *SequenceWindow      `json:"window,omitempty"`
	Slots              map[Slot]SlotState   `json:"slots"`
	Loading            bool                 `json:"loading"`
	Error              string               `json:"error,omitempty"`
	Warning            string               `json:"warning,omitempty"`
}

// Status returns the status of a slot.
func (s Session) Status(slot Slot) Status {
	if st, ok := s.Slots[slot]; ok {
		return st.Status
	}
	return StatusIdle
}

// ChromosomeSize returns the size of a chromosome of the current assembly,
// or nil when it is not known.
func (s Session) ChromosomeSize(name string) *int64 {
	if c, ok := genome.FindChromosome(s.Chromosomes, name); ok {
		return interval.Size(c.Size)
	}
	return nil
}

// clone returns a deep copy safe to hand to another goroutine.
func (s Session) clone() Session {
	c := s
	c.Organisms = slices.Clone(s.Organisms)
	c.Assemblies = slices.Clone(s.Assemblies)
	c.Chromosomes = slices.Clone(s.Chromosomes)
	c.SearchResults = slices.Clone(s.SearchResults)
	if s.SelectedGene != nil {
		g := *s.SelectedGene
		c.SelectedGene = &g
	}
	if s.Gene != nil {
		g := *s.Gene
		c.Gene = &g
	}
	if s.Window != nil {
		w := *s.Window
		c.Window = &w
	}
	c.Slots = make(map[Slot]SlotState, len(s.Slots))
	for k, v := range s.Slots {
		c.Slots[k] = v
	}
	return c
}
