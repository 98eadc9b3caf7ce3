package navigate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// fakeService serves canned data and records the calls it receives.
type fakeService struct {
	mu sync.Mutex

	assemblies  map[string][]genome.Assembly
	chromosomes map[string][]genome.Chromosome
	search      map[string][]genome.GeneSummary
	genes       map[string]*genome.GeneRecord
	err         map[string]error

	seqCalls []interval.Range
	ctxErrs  []error

	// served overrides the range sequence results report.
	served *interval.Range
}

func newFakeService() *fakeService {
	return &fakeService{
		assemblies: map[string][]genome.Assembly{
			"Human": {{ID: "hg38", DisplayName: "GRCh38"}, {ID: "hg19", DisplayName: "GRCh37"}},
			"Chimp": {{ID: "panTro4", DisplayName: "panTro4"}},
		},
		chromosomes: map[string][]genome.Chromosome{
			"hg38": {
				{Name: "chr10", Size: 133797422},
				{Name: "chrX", Size: 156040895},
				{Name: "chr2", Size: 242193529},
				{Name: "chr1", Size: 248956422},
				{Name: "chr17", Size: 83257441},
				{Name: "chrUn_KI270302v1", Size: 2274},
				{Name: "chr1_KI270706v1_random", Size: 175055},
				{Name: "chrTiny", Size: 50},
			},
			"hg19": {
				{Name: "chr1", Size: 249250621},
				{Name: "chr17", Size: 81195210},
			},
		},
		search: map[string][]genome.GeneSummary{
			"BRCA1": {
				{ID: "672", Symbol: "BRCA1", Name: "BRCA1 DNA repair associated", Chrom: "17"},
				{ID: "8068", Symbol: "BRCA1P1", Name: "BRCA1 pseudogene 1", Chrom: "17"},
			},
			"BRC": {
				{ID: "672", Symbol: "BRCA1", Chrom: "17"},
				{ID: "675", Symbol: "BRCA2", Chrom: "13"},
			},
		},
		genes: map[string]*genome.GeneRecord{
			"672": {
				Detail:       genome.GeneDetail{ID: "672", Symbol: "BRCA1"},
				Bounds:       genome.GeneBounds{Chrom: "chr17", Start: 43044295, End: 43125483},
				InitialRange: interval.Range{Start: 43044295, End: 43054294},
			},
			"675": {
				Detail:       genome.GeneDetail{ID: "675", Symbol: "BRCA2"},
				Bounds:       genome.GeneBounds{Chrom: "chr13", Start: 32315508, End: 32400268},
				InitialRange: interval.Range{Start: 32315508, End: 32325507},
			},
		},
		err: map[string]error{},
	}
}

func (f *fakeService) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err[op] = err
}

func (f *fakeService) check(ctx context.Context, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.err[op]
}

func (f *fakeService) ListAssemblies(ctx context.Context) (map[string][]genome.Assembly, error) {
	if err := f.check(ctx, "assemblies"); err != nil {
		return nil, err
	}
	return f.assemblies, nil
}

func (f *fakeService) ListChromosomes(ctx context.Context, assemblyID string) ([]genome.Chromosome, error) {
	if err := f.check(ctx, "chromosomes"); err != nil {
		return nil, err
	}
	return f.chromosomes[assemblyID], nil
}

func (f *fakeService) SearchGenes(ctx context.Context, query, _ string) ([]genome.GeneSummary, error) {
	if err := f.check(ctx, "search"); err != nil {
		return nil, err
	}
	return f.search[query], nil
}

func (f *fakeService) FetchGeneDetails(ctx context.Context, geneID string) (*genome.GeneRecord, error) {
	if err := f.check(ctx, "gene"); err != nil {
		return nil, err
	}
	rec, ok := f.genes[geneID]
	if !ok {
		return nil, genome.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeService) FetchGeneSequence(ctx context.Context, _ string, r interval.Range, _ string) (*genome.SequenceResult, error) {
	if err := f.check(ctx, "sequence"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.seqCalls = append(f.seqCalls, r)
	actual := r
	if f.served != nil {
		actual = *f.served
	}
	f.mu.Unlock()
	return &genome.SequenceResult{Sequence: strings.Repeat("A", int(r.Len())), Actual: actual}, nil
}

// drain runs cmds and every command they lead to, depth first.
func drain(m *Machine, cmds []Cmd) {
	for _, cmd := range cmds {
		if msg := cmd(); msg != nil {
			drain(m, m.Update(msg))
		}
	}
}

func chromNames(chroms []genome.Chromosome) []string {
	names := make([]string, len(chroms))
	for i, c := range chroms {
		names[i] = c.Name
	}
	return names
}

func TestInit(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})

	cmds := m.Init()
	require.Len(t, cmds, 2)
	s := m.Session()
	assert.True(t, s.Loading)
	assert.Equal(t, StatusLoading, s.Status(SlotAssemblies))
	assert.Equal(t, StatusLoading, s.Status(SlotChromosomes))

	drain(m, cmds)
	s = m.Session()
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Equal(t, "hg38", s.AssemblyID)
	assert.Equal(t, ModeSearch, s.Mode)
	assert.Equal(t, []genome.Assembly{{ID: "hg38", DisplayName: "GRCh38"}, {ID: "hg19", DisplayName: "GRCh37"}}, s.Assemblies)
	assert.Equal(t, []string{"Chimp", "Human"}, s.Organisms)
	assert.Equal(t, []string{"chr1", "chr2", "chr10", "chr17", "chrTiny", "chrX"}, chromNames(s.Chromosomes))
	assert.Equal(t, "chr1", s.SelectedChromosome)
}

func TestInit_OtherOrganism(t *testing.T) {
	m := New(newFakeService(), Options{Organism: "Chimp", DefaultAssembly: "panTro4"})
	drain(m, m.Init())

	s := m.Session()
	require.Len(t, s.Assemblies, 1)
	assert.Equal(t, "panTro4", s.Assemblies[0].ID)
	assert.Empty(t, s.Chromosomes)
	assert.Empty(t, s.SelectedChromosome)
}

func TestSelectAssembly_DiscardsStaleChromosomes(t *testing.T) {
	m := New(newFakeService(), Options{})
	initCmds := m.Init()
	staleChroms := initCmds[1]

	cmds := m.Update(SelectAssembly{ID: "hg19"})
	require.Len(t, cmds, 1)

	s := m.Session()
	assert.Equal(t, "hg19", s.AssemblyID)
	assert.Empty(t, s.Chromosomes, "list cleared before the new one arrives")
	assert.True(t, s.Loading)

	// The hg38 response arriving first must not show up under hg19.
	assert.Nil(t, m.Update(staleChroms()))
	s = m.Session()
	assert.Empty(t, s.Chromosomes)
	assert.Equal(t, StatusLoading, s.Status(SlotChromosomes))

	drain(m, cmds)
	s = m.Session()
	assert.Equal(t, []string{"chr1", "chr17"}, chromNames(s.Chromosomes))
	assert.Equal(t, int64(249250621), s.Chromosomes[0].Size)
	assert.Equal(t, StatusLoaded, s.Status(SlotChromosomes))
}

func TestSelectAssembly_StaleAfterNewResult(t *testing.T) {
	m := New(newFakeService(), Options{})
	initCmds := m.Init()

	drain(m, m.Update(SelectAssembly{ID: "hg19"}))
	m.Update(initCmds[1]())

	s := m.Session()
	assert.Equal(t, []string{"chr1", "chr17"}, chromNames(s.Chromosomes))
	assert.Equal(t, int64(249250621), s.Chromosomes[0].Size)
}

func TestSelectAssembly_Same(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())
	before := m.Session()

	assert.Nil(t, m.Update(SelectAssembly{ID: "hg38"}))
	assert.Nil(t, m.Update(SelectAssembly{ID: ""}))
	assert.Equal(t, before, m.Session())
}

func TestSelectAssembly_ClearsGene(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())
	drain(m, m.Update(LoadExample{}))
	require.NotNil(t, m.Session().Window)

	cmds := m.Update(SelectAssembly{ID: "hg19"})
	s := m.Session()
	assert.Nil(t, s.Gene)
	assert.Nil(t, s.SelectedGene)
	assert.Nil(t, s.Window)
	assert.Equal(t, StatusIdle, s.Status(SlotSequence))
	drain(m, cmds)
}

func TestSwitchMode(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())
	before := m.Session()

	assert.Nil(t, m.Update(SwitchMode{Mode: ModeSearch}))
	assert.Equal(t, before, m.Session(), "switching to the current mode is a no-op")

	assert.Nil(t, m.Update(SwitchMode{Mode: "zoom"}))
	assert.Equal(t, ModeSearch, m.Session().Mode)

	assert.Nil(t, m.Update(SwitchMode{Mode: ModeBrowse}))
	assert.Equal(t, ModeBrowse, m.Session().Mode)
}

func TestSubmitSearch_Blank(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	calls := len(svc.ctxErrs)

	for _, q := range []string{"", "   ", "\t"} {
		m.Update(SetQuery{Text: q})
		assert.Nil(t, m.Update(SubmitSearch{}), "query %q", q)
	}
	assert.Len(t, svc.ctxErrs, calls)
	assert.Equal(t, StatusIdle, m.Session().Status(SlotSearch))
}

func TestSubmitSearch_NoExactMatch(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())

	m.Update(SetQuery{Text: "BRC"})
	drain(m, m.Update(SubmitSearch{}))

	s := m.Session()
	assert.Len(t, s.SearchResults, 2)
	assert.Nil(t, s.SelectedGene)
	assert.Equal(t, StatusIdle, s.Status(SlotGene))
}

func TestLoadExample(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	m.Update(SwitchMode{Mode: ModeBrowse})

	drain(m, m.Update(LoadExample{}))

	s := m.Session()
	assert.Equal(t, ModeSearch, s.Mode)
	assert.Equal(t, "BRCA1", s.Query)
	require.NotNil(t, s.SelectedGene)
	assert.Equal(t, "672", s.SelectedGene.ID)
	require.NotNil(t, s.Gene)
	assert.Equal(t, int64(43044295), s.Gene.Bounds.Start)

	require.NotNil(t, s.Window)
	want := interval.Range{Start: 43044295, End: 43054294}
	assert.Equal(t, "chr17", s.Window.Chrom)
	assert.Equal(t, want, s.Window.Requested)
	assert.Equal(t, want, s.Window.Effective)
	assert.False(t, s.Window.WasClamped)
	assert.Len(t, s.Window.Bases, 10000)
	assert.True(t, s.Window.Effective.Within(interval.Range{Start: 0, End: 83257441 - 1}))
	assert.Empty(t, s.Warning)
	assert.Equal(t, []interval.Range{want}, svc.seqCalls)
}

func TestRequestRange_Clamped(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	m.Update(SwitchMode{Mode: ModeBrowse})
	m.Update(SelectChromosome{Name: "chrTiny"})

	drain(m, m.Update(RequestRange{Start: -5, End: 100}))

	s := m.Session()
	require.NotNil(t, s.Window)
	assert.Equal(t, "chrTiny", s.Window.Chrom)
	assert.Equal(t, interval.Range{Start: -5, End: 100}, s.Window.Requested)
	assert.Equal(t, interval.Range{Start: 0, End: 49}, s.Window.Effective)
	assert.True(t, s.Window.WasClamped)
	assert.Contains(t, s.Warning, "adjusted to 0-49")
	assert.Equal(t, []interval.Range{{Start: 0, End: 49}}, svc.seqCalls)
}

func TestRequestRange_Invalid(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	m.Update(SwitchMode{Mode: ModeBrowse})
	m.Update(SelectChromosome{Name: "chrTiny"})

	tests := []struct {
		name  string
		start int64
		end   int64
	}{
		{"inverted", 30, 10},
		{"past end", 60, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, m.Update(RequestRange{Start: tt.start, End: tt.end}))
			s := m.Session()
			assert.Equal(t, StatusFailed, s.Status(SlotSequence))
			assert.Contains(t, s.Error, "InvalidRange")
		})
	}
	assert.Empty(t, svc.seqCalls, "invalid ranges never reach the service")
}

func TestRequestRange_NoSelection(t *testing.T) {
	m := New(newFakeService(), Options{})
	assert.Nil(t, m.Update(RequestRange{Start: 1, End: 10}))

	s := m.Session()
	assert.Equal(t, StatusFailed, s.Status(SlotSequence))
	assert.Equal(t, ErrNoSelection.Error(), s.Error)
}

func TestRequestRange_UsesGeneChromosome(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	drain(m, m.Update(LoadExample{}))

	drain(m, m.Update(RequestRange{Start: 43044295, End: 43044394}))

	s := m.Session()
	require.NotNil(t, s.Window)
	assert.Equal(t, "chr17", s.Window.Chrom)
	assert.Len(t, s.Window.Bases, 100)
}

func TestRequestRange_UsesSelectedGeneWhileLoading(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())
	require.Equal(t, "chr1", m.Session().SelectedChromosome)

	// The detail request is left pending.
	pending := m.Update(SelectGene{Gene: genome.GeneSummary{ID: "672", Symbol: "BRCA1", Chrom: "17"}})
	require.Len(t, pending, 1)

	cmds := m.Update(RequestRange{Start: 43044295, End: 43044394})
	require.Len(t, cmds, 1)
	drain(m, cmds)

	s := m.Session()
	require.NotNil(t, s.Window)
	assert.Equal(t, "chr17", s.Window.Chrom)
	assert.Equal(t, interval.Range{Start: 43044295, End: 43044394}, s.Window.Effective)
	assert.Equal(t, StatusLoading, s.Status(SlotGene))
}

func TestSequence_ServedRangeOutsideChromosome(t *testing.T) {
	tests := []struct {
		name   string
		served interval.Range
	}{
		{"inverted", interval.Range{Start: 60, End: 59}},
		{"past end", interval.Range{Start: 70, End: 90}},
		{"reversed inside", interval.Range{Start: 20, End: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			m := New(svc, Options{})
			drain(m, m.Init())

			svc.served = &tt.served
			drain(m, m.Update(RequestRange{Chrom: "chrTiny", Start: 10, End: 20}))

			s := m.Session()
			assert.Nil(t, s.Window)
			assert.Equal(t, StatusFailed, s.Status(SlotSequence))
			assert.Contains(t, s.Error, "InvalidRange")
		})
	}
}

func TestSequence_ServedRangeClampedToChromosome(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	drain(m, m.Init())

	svc.served = &interval.Range{Start: 40, End: 55}
	drain(m, m.Update(RequestRange{Chrom: "chrTiny", Start: 40, End: 49}))

	s := m.Session()
	require.NotNil(t, s.Window)
	assert.Equal(t, interval.Range{Start: 40, End: 49}, s.Window.Effective)
	assert.True(t, s.Window.WasClamped)
	assert.Equal(t, StatusLoaded, s.Status(SlotSequence))
}

func TestSelectGene_StaleResultDiscarded(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())

	first := m.Update(SelectGene{Gene: genome.GeneSummary{ID: "672", Symbol: "BRCA1"}})
	second := m.Update(SelectGene{Gene: genome.GeneSummary{ID: "675", Symbol: "BRCA2"}})
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	drain(m, second)
	assert.Nil(t, m.Update(first[0]()))

	s := m.Session()
	require.NotNil(t, s.Gene)
	assert.Equal(t, "BRCA2", s.Gene.Detail.Symbol)
	require.NotNil(t, s.Window)
	assert.Equal(t, int64(32315508), s.Window.Effective.Start)
}

func TestFailureIsolation(t *testing.T) {
	svc := newFakeService()
	svc.fail("chromosomes", genome.ErrUnavailable)
	m := New(svc, Options{})
	drain(m, m.Init())

	s := m.Session()
	assert.Equal(t, StatusFailed, s.Status(SlotChromosomes))
	assert.Equal(t, StatusLoaded, s.Status(SlotAssemblies))
	assert.Len(t, s.Assemblies, 2)
	assert.NotEmpty(t, s.Error)
	assert.False(t, s.Loading)

	// A failed gene lookup leaves search results intact.
	svc.fail("gene", errors.New("boom"))
	m.Update(SetQuery{Text: "BRCA1"})
	drain(m, m.Update(SubmitSearch{}))

	s = m.Session()
	assert.Len(t, s.SearchResults, 2)
	assert.Equal(t, StatusLoaded, s.Status(SlotSearch))
	assert.Equal(t, StatusFailed, s.Status(SlotGene))
	assert.Equal(t, "boom", s.Error)
	assert.Nil(t, s.Window)
}

func TestClose_CancelsInFlight(t *testing.T) {
	svc := newFakeService()
	m := New(svc, Options{})
	cmds := m.Init()
	m.Close()
	drain(m, cmds)

	for _, err := range svc.ctxErrs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSession_IsCopy(t *testing.T) {
	m := New(newFakeService(), Options{})
	drain(m, m.Init())

	s := m.Session()
	s.Chromosomes[0].Name = "mutated"
	s.Slots[SlotSearch] = SlotState{Status: StatusFailed}

	again := m.Session()
	assert.Equal(t, "chr1", again.Chromosomes[0].Name)
	assert.Equal(t, StatusIdle, again.Status(SlotSearch))
}
