package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
	"github.com/inodb/genome-nav/internal/navigate"
)

type fakeService struct{}

func (fakeService) ListAssemblies(context.Context) (map[string][]genome.Assembly, error) {
	return map[string][]genome.Assembly{"Human": {{ID: "hg38"}, {ID: "hg19"}}}, nil
}

func (fakeService) ListChromosomes(_ context.Context, id string) ([]genome.Chromosome, error) {
	if id == "hg19" {
		return []genome.Chromosome{{Name: "chr1", Size: 249250621}}, nil
	}
	return []genome.Chromosome{
		{Name: "chr2", Size: 242193529},
		{Name: "chr1", Size: 248956422},
		{Name: "chr17", Size: 83257441},
	}, nil
}

func (fakeService) SearchGenes(_ context.Context, q, _ string) ([]genome.GeneSummary, error) {
	if strings.HasPrefix(strings.ToUpper(q), "BRCA") {
		return []genome.GeneSummary{
			{ID: "8068", Symbol: "BRCA1P1", Chrom: "17", Name: "BRCA1 pseudogene 1"},
			{ID: "672", Symbol: "BRCA1", Chrom: "17", Name: "BRCA1 DNA repair associated"},
		}, nil
	}
	return nil, nil
}

func (fakeService) FetchGeneDetails(_ context.Context, id string) (*genome.GeneRecord, error) {
	start := int64(43044295)
	if id == "8068" {
		start = 43100000
	}
	return &genome.GeneRecord{
		Detail:       genome.GeneDetail{ID: id, Symbol: "gene" + id, Description: "test gene"},
		Bounds:       genome.GeneBounds{Chrom: "chr17", Start: start, End: start + 999},
		InitialRange: interval.Range{Start: start, End: start + 999},
	}, nil
}

func (fakeService) FetchGeneSequence(_ context.Context, _ string, r interval.Range, _ string) (*genome.SequenceResult, error) {
	return &genome.SequenceResult{Sequence: strings.Repeat("T", int(r.Len())), Actual: r}, nil
}

func newModel(t *testing.T) *model {
	t.Helper()
	m := New(navigate.New(fakeService{}, navigate.Options{})).(*model)
	drive(m, m.initMachine())
	return m
}

// drive runs cmd and every machine command it leads to.
func drive(m *model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drive(m, c)
		}
	case machineMsg:
		_, next := m.Update(msg)
		drive(m, next)
	}
}

func press(m *model, key tea.KeyMsg) {
	_, cmd := m.Update(key)
	drive(m, cmd)
}

func typeText(m *model, s string) {
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestInitLoadsSession(t *testing.T) {
	m := newModel(t)
	assert.Equal(t, "hg38", m.session.AssemblyID)
	require.Len(t, m.session.Chromosomes, 3)
	assert.Equal(t, "chr1", m.session.SelectedChromosome)

	view := m.View()
	assert.Contains(t, view, "genome-nav")
	assert.Contains(t, view, "hg19")
	assert.Contains(t, view, "Results (0)")
}

func TestSearchAndSelect(t *testing.T) {
	m := newModel(t)

	typeText(m, "BRCA1")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, m.session.SearchResults, 2)
	require.NotNil(t, m.session.Gene, "exact match is opened")
	assert.Equal(t, "672", m.session.Gene.Detail.ID)
	require.NotNil(t, m.session.Window)
	assert.Len(t, m.session.Window.Bases, 1000)

	view := m.View()
	assert.Contains(t, view, "BRCA1P1")
	assert.Contains(t, view, "chr17:43044295-43045294")

	// Enter on an unchanged query opens the highlighted hit.
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "8068", m.session.Gene.Detail.ID)

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "672", m.session.Gene.Detail.ID)
}

func TestLoadExample(t *testing.T) {
	m := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, navigate.ModeBrowse, m.session.Mode)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlE})
	assert.Equal(t, navigate.ModeSearch, m.session.Mode)
	assert.Equal(t, "BRCA1", m.input.Value())
	require.NotNil(t, m.session.Gene)
	assert.Equal(t, "672", m.session.Gene.Detail.ID)
}

func TestBrowseRange(t *testing.T) {
	m := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Chromosomes (3)")

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "chr2", m.session.SelectedChromosome)
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "chr17", m.session.SelectedChromosome, "selection wraps")

	typeText(m, "-10-20")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.session.Window)
	assert.Equal(t, "chr17", m.session.Window.Chrom)
	assert.Equal(t, interval.Range{Start: 0, End: 20}, m.session.Window.Effective)
	assert.True(t, m.session.Window.WasClamped)
	assert.Contains(t, m.View(), "adjusted from -10-20")
}

func TestStepAssembly(t *testing.T) {
	m := newModel(t)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "hg19", m.session.AssemblyID)
	assert.Len(t, m.session.Chromosomes, 1)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, "hg38", m.session.AssemblyID)
	assert.Len(t, m.session.Chromosomes, 3)
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want navigate.RequestRange
		ok   bool
	}{
		{"100-200", navigate.RequestRange{Start: 100, End: 200}, true},
		{"-5-100", navigate.RequestRange{Start: -5, End: 100}, true},
		{"17:1,000-2,000", navigate.RequestRange{Chrom: "chr17", Start: 1000, End: 2000}, true},
		{"BRCA1", navigate.RequestRange{}, false},
		{"100", navigate.RequestRange{}, false},
		{"a-b", navigate.RequestRange{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseRange(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
