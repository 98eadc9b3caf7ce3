package navigate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/chromosome"
	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// Defaults for Options.
const (
	DefaultAssembly    = "hg38"
	DefaultExampleGene = "BRCA1"
)

// ErrNoSelection is reported when a range is requested with neither a gene
// nor a chromosome selected.
var ErrNoSelection = errors.New("no gene or chromosome selected")

// Options configures a Machine.
type Options struct {
	DefaultAssembly string
	Organism        string
	ExampleGene     string
}

// Machine is the navigation state machine. It is not safe for concurrent
// use: Update must be called from a single goroutine. Commands it returns may
// run anywhere.
type Machine struct {
	svc    genome.Service
	opts   Options
	logger *zap.Logger

	base     context.Context
	closeAll context.CancelFunc

	s          Session
	groups     map[string][]genome.Assembly
	epochs     map[Slot]uint64
	cancels    map[Slot]context.CancelFunc
	lastFailed Slot
}

// New creates a machine backed by svc.
func New(svc genome.Service, opts Options) *Machine {
	if opts.DefaultAssembly == "" {
		opts.DefaultAssembly = DefaultAssembly
	}
	if opts.Organism == "" {
		opts.Organism = genome.DefaultOrganism
	}
	if opts.ExampleGene == "" {
		opts.ExampleGene = DefaultExampleGene
	}

	base, cancel := context.WithCancel(context.Background())
	m := &Machine{
		svc:      svc,
		opts:     opts,
		logger:   zap.NewNop(),
		base:     base,
		closeAll: cancel,
		epochs:   make(map[Slot]uint64),
		cancels:  make(map[Slot]context.CancelFunc),
	}
	m.s = Session{
		AssemblyID: opts.DefaultAssembly,
		Organism:   opts.Organism,
		Mode:       ModeSearch,
		Slots:      make(map[Slot]SlotState, len(Slots)),
	}
	for _, slot := range Slots {
		m.s.Slots[slot] = SlotState{Status: StatusIdle}
	}
	return m
}

// SetLogger sets the logger for transitions and discarded results.
func (m *Machine) SetLogger(l *zap.Logger) {
	m.logger = l
}

// ExampleGene returns the symbol LoadExample searches for.
func (m *Machine) ExampleGene() string {
	return m.opts.ExampleGene
}

// Session returns a snapshot of the current state.
func (m *Machine) Session() Session {
	s := m.s.clone()
	s.Loading = false
	for _, st := range s.Slots {
		if st.Status == StatusLoading {
			s.Loading = true
		}
	}
	s.Error = m.errorMessage()
	return s
}

// Init returns the commands that start a session.
func (m *Machine) Init() []Cmd {
	return m.Update(Start{})
}

// Close cancels every in-flight request.
func (m *Machine) Close() {
	m.closeAll()
}

// Update applies msg and returns the commands to run.
func (m *Machine) Update(msg Msg) []Cmd {
	switch msg := msg.(type) {
	case Start:
		return join(m.loadAssemblies(), m.loadChromosomes())
	case LoadAssemblies:
		return join(m.loadAssemblies())
	case SelectAssembly:
		return m.selectAssembly(msg.ID)
	case SwitchMode:
		m.switchMode(msg.Mode)
		return nil
	case SetQuery:
		m.s.Query = msg.Text
		return nil
	case SubmitSearch:
		return m.submitSearch()
	case LoadExample:
		m.s.Mode = ModeSearch
		m.s.Query = m.opts.ExampleGene
		return m.submitSearch()
	case SelectChromosome:
		if msg.Name != "" {
			m.s.SelectedChromosome = msg.Name
		}
		return nil
	case SelectGene:
		return join(m.selectGene(msg.Gene))
	case RequestRange:
		return m.requestRange(msg)

	case assembliesLoaded:
		return m.onAssemblies(msg)
	case chromosomesLoaded:
		return m.onChromosomes(msg)
	case searchDone:
		return m.onSearch(msg)
	case geneLoaded:
		return m.onGene(msg)
	case sequenceLoaded:
		return m.onSequence(msg)
	}
	return nil
}

// start invalidates any earlier request in slot and returns a command for a
// new one. run receives a context canceled when the slot is superseded and
// the tag to stamp on its result.
func (m *Machine) start(slot Slot, run func(ctx context.Context, t tag) Msg) Cmd {
	m.invalidate(slot)
	ctx, cancel := context.WithCancel(m.base)
	m.cancels[slot] = cancel
	m.s.Slots[slot] = SlotState{Status: StatusLoading}

	t := tag{slot: slot, epoch: m.epochs[slot], assembly: m.s.AssemblyID}
	return func() Msg {
		defer cancel()
		return run(ctx, t)
	}
}

// invalidate cancels the in-flight request of slot, if any, and makes any
// result it still delivers stale.
func (m *Machine) invalidate(slot Slot) {
	if cancel, ok := m.cancels[slot]; ok {
		cancel()
		delete(m.cancels, slot)
	}
	m.epochs[slot]++
	m.s.Slots[slot] = SlotState{Status: StatusIdle}
}

// current reports whether a result still belongs to the latest request of
// its slot and to the current assembly.
func (m *Machine) current(t tag) bool {
	if t.epoch != m.epochs[t.slot] || t.assembly != m.s.AssemblyID {
		m.logger.Debug("discarding stale result",
			zap.String("slot", string(t.slot)),
			zap.Uint64("epoch", t.epoch),
			zap.Uint64("current_epoch", m.epochs[t.slot]),
			zap.String("assembly", t.assembly),
			zap.String("current_assembly", m.s.AssemblyID))
		return false
	}
	delete(m.cancels, t.slot)
	return true
}

func (m *Machine) fail(slot Slot, err error) {
	m.s.Slots[slot] = SlotState{Status: StatusFailed, Err: err.Error()}
	m.lastFailed = slot
	m.logger.Warn("request failed",
		zap.String("slot", string(slot)),
		zap.String("assembly", m.s.AssemblyID),
		zap.Error(err))
}

func (m *Machine) succeed(slot Slot) {
	m.s.Slots[slot] = SlotState{Status: StatusLoaded}
}

func (m *Machine) errorMessage() string {
	if st := m.s.Slots[m.lastFailed]; st.Status == StatusFailed {
		return st.Err
	}
	for _, slot := range Slots {
		if st := m.s.Slots[slot]; st.Status == StatusFailed {
			return st.Err
		}
	}
	return ""
}

func (m *Machine) loadAssemblies() Cmd {
	svc := m.svc
	return m.start(SlotAssemblies, func(ctx context.Context, t tag) Msg {
		groups, err := svc.ListAssemblies(ctx)
		return assembliesLoaded{tag: t, groups: groups, err: err}
	})
}

func (m *Machine) loadChromosomes() Cmd {
	svc := m.svc
	assembly := m.s.AssemblyID
	return m.start(SlotChromosomes, func(ctx context.Context, t tag) Msg {
		chroms, err := svc.ListChromosomes(ctx, assembly)
		return chromosomesLoaded{tag: t, chroms: chroms, err: err}
	})
}

func (m *Machine) selectAssembly(id string) []Cmd {
	id = strings.TrimSpace(id)
	if id == "" || id == m.s.AssemblyID {
		return nil
	}

	m.logger.Info("switching assembly",
		zap.String("from", m.s.AssemblyID),
		zap.String("to", id))

	m.s.AssemblyID = id
	m.s.Chromosomes = nil
	m.s.SelectedChromosome = ""
	m.s.SelectedGene = nil
	m.s.Gene = nil
	m.s.Window = nil
	m.s.Warning = ""
	m.invalidate(SlotGene)
	m.invalidate(SlotSequence)

	return join(m.loadChromosomes())
}

func (m *Machine) switchMode(mode Mode) {
	if !mode.Valid() || mode == m.s.Mode {
		return
	}
	m.s.Mode = mode
}

func (m *Machine) submitSearch() []Cmd {
	query := strings.TrimSpace(m.s.Query)
	if query == "" {
		return nil
	}
	svc := m.svc
	assembly := m.s.AssemblyID
	return join(m.start(SlotSearch, func(ctx context.Context, t tag) Msg {
		results, err := svc.SearchGenes(ctx, query, assembly)
		return searchDone{tag: t, query: query, results: results, err: err}
	}))
}

func (m *Machine) selectGene(g genome.GeneSummary) Cmd {
	m.s.SelectedGene = &g
	m.s.Gene = nil
	m.s.Window = nil
	m.s.Warning = ""
	m.invalidate(SlotSequence)

	svc := m.svc
	return m.start(SlotGene, func(ctx context.Context, t tag) Msg {
		rec, err := svc.FetchGeneDetails(ctx, g.ID)
		return geneLoaded{tag: t, rec: rec, err: err}
	})
}

func (m *Machine) requestRange(msg RequestRange) []Cmd {
	chrom := msg.Chrom
	switch {
	case chrom != "":
	case m.s.Mode == ModeBrowse && m.s.SelectedChromosome != "":
		chrom = m.s.SelectedChromosome
	case m.s.Gene != nil:
		chrom = m.s.Gene.Bounds.Chrom
	case m.s.SelectedGene != nil && m.s.SelectedGene.Chrom != "":
		// Detail still loading; the search hit knows the chromosome.
		chrom = genome.NormalizeChrom(m.s.SelectedGene.Chrom)
	case m.s.SelectedChromosome != "":
		chrom = m.s.SelectedChromosome
	default:
		m.invalidate(SlotSequence)
		m.fail(SlotSequence, ErrNoSelection)
		return nil
	}
	return join(m.fetchSequence(chrom, interval.Range{Start: msg.Start, End: msg.End}))
}

// fetchSequence validates and clamps requested against the chromosome size,
// when known, before anything reaches the network.
func (m *Machine) fetchSequence(chrom string, requested interval.Range) Cmd {
	res, err := interval.Clamp(requested, m.s.ChromosomeSize(chrom))
	if err != nil {
		m.invalidate(SlotSequence)
		m.fail(SlotSequence, err)
		return nil
	}

	m.s.Warning = ""
	if res.WasClamped {
		m.s.Warning = fmt.Sprintf("requested range %s adjusted to %s", requested, res.Effective)
	}

	svc := m.svc
	assembly := m.s.AssemblyID
	effective := res.Effective
	clamped := res.WasClamped
	return m.start(SlotSequence, func(ctx context.Context, t tag) Msg {
		seq, err := svc.FetchGeneSequence(ctx, chrom, effective, assembly)
		return sequenceLoaded{tag: t, chrom: chrom, requested: requested, clamped: clamped, res: seq, err: err}
	})
}

func (m *Machine) onAssemblies(msg assembliesLoaded) []Cmd {
	// The assembly list does not depend on the selected assembly.
	msg.tag.assembly = m.s.AssemblyID
	if !m.current(msg.tag) {
		return nil
	}
	if msg.err != nil {
		m.fail(SlotAssemblies, msg.err)
		return nil
	}

	m.groups = msg.groups
	m.s.Organisms = make([]string, 0, len(msg.groups))
	for organism := range msg.groups {
		m.s.Organisms = append(m.s.Organisms, organism)
	}
	sort.Strings(m.s.Organisms)
	m.s.Assemblies = msg.groups[m.opts.Organism]
	m.succeed(SlotAssemblies)
	return nil
}

func (m *Machine) onChromosomes(msg chromosomesLoaded) []Cmd {
	if !m.current(msg.tag) {
		return nil
	}
	if msg.err != nil {
		m.fail(SlotChromosomes, msg.err)
		return nil
	}

	chroms := make([]genome.Chromosome, 0, len(msg.chroms))
	seen := make(map[string]bool, len(msg.chroms))
	for _, c := range msg.chroms {
		if seen[c.Name] || !chromosome.IsPrimary(c.Name) {
			continue
		}
		seen[c.Name] = true
		chroms = append(chroms, c)
	}
	chromosome.SortBy(chroms, func(c genome.Chromosome) string { return c.Name })

	m.s.Chromosomes = chroms
	if _, ok := genome.FindChromosome(chroms, m.s.SelectedChromosome); !ok {
		m.s.SelectedChromosome = ""
		if len(chroms) > 0 {
			m.s.SelectedChromosome = chroms[0].Name
		}
	}
	m.succeed(SlotChromosomes)
	return nil
}

func (m *Machine) onSearch(msg searchDone) []Cmd {
	// Search results are not tied to an assembly.
	msg.tag.assembly = m.s.AssemblyID
	if !m.current(msg.tag) {
		return nil
	}
	if msg.err != nil {
		m.fail(SlotSearch, msg.err)
		return nil
	}

	m.s.SearchResults = msg.results
	m.succeed(SlotSearch)

	for _, g := range msg.results {
		if strings.EqualFold(g.Symbol, msg.query) {
			return join(m.selectGene(g))
		}
	}
	return nil
}

func (m *Machine) onGene(msg geneLoaded) []Cmd {
	if !m.current(msg.tag) {
		return nil
	}
	if msg.err != nil {
		m.fail(SlotGene, msg.err)
		return nil
	}
	if msg.rec == nil {
		m.fail(SlotGene, errors.New("empty gene record"))
		return nil
	}

	rec := *msg.rec
	m.s.Gene = &rec
	m.succeed(SlotGene)
	return join(m.fetchSequence(rec.Bounds.Chrom, rec.InitialRange))
}

func (m *Machine) onSequence(msg sequenceLoaded) []Cmd {
	if !m.current(msg.tag) {
		return nil
	}
	if msg.err != nil {
		m.fail(SlotSequence, msg.err)
		return nil
	}
	if msg.res == nil {
		m.fail(SlotSequence, errors.New("empty sequence result"))
		return nil
	}

	// The service's range is not trusted to fit the chromosome.
	res, err := interval.Clamp(msg.res.Actual, m.s.ChromosomeSize(msg.chrom))
	if err != nil {
		m.fail(SlotSequence, fmt.Errorf("service returned range %s on %s: %w", msg.res.Actual, msg.chrom, err))
		return nil
	}

	m.s.Window = &SequenceWindow{
		Chrom:      msg.chrom,
		Requested:  msg.requested,
		Effective:  res.Effective,
		Bases:      msg.res.Sequence,
		WasClamped: msg.clamped || res.WasClamped,
	}
	if msg.res.Error != "" {
		m.s.Warning = joinWarnings(m.s.Warning, msg.res.Error)
	}
	m.succeed(SlotSequence)
	return nil
}

func joinWarnings(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}

func join(cmds ...Cmd) []Cmd {
	out := cmds[:0]
	for _, c := range cmds {
		if c != nil {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
