// Package tui is the interactive terminal shell for genome navigation. It
// drives a navigate.Machine directly: machine commands become tea.Cmds and
// their results are fed back through Update.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/navigate"
)

// machineMsg carries a machine result through the bubbletea runtime.
type machineMsg struct {
	msg navigate.Msg
}

type model struct {
	machine *navigate.Machine
	session navigate.Session

	input   textinput.Model
	spinner spinner.Model

	// highlighted search result
	cursor int
	width  int
	height int
	info   string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(m *navigate.Machine) tea.Model {
	input := textinput.New()
	input.Placeholder = "gene symbol, e.g. BRCA1"
	input.CharLimit = 80
	input.Width = 40
	input.Prompt = "> "
	input.Cursor.SetMode(cursor.CursorStatic)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = accentStyle

	return &model{
		machine: m,
		session: m.Session(),
		input:   input,
		spinner: spin,
		width:   100,
		height:  40,
		info:    "tab: switch mode  ctrl+e: example  ctrl+n/ctrl+p: assembly  esc: quit",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initMachine())
}

func (m *model) initMachine() tea.Cmd {
	cmds := m.machine.Init()
	m.session = m.machine.Session()
	return run(cmds)
}

// run wraps machine commands so their results come back as machineMsgs.
func run(cmds []navigate.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	tcs := make([]tea.Cmd, len(cmds))
	for i, c := range cmds {
		tcs[i] = func() tea.Msg {
			return machineMsg{msg: c()}
		}
	}
	return tea.Batch(tcs...)
}

// dispatch applies an intent and refreshes the snapshot.
func (m *model) dispatch(msg navigate.Msg) tea.Cmd {
	cmds := m.machine.Update(msg)
	m.session = m.machine.Session()
	if m.cursor >= len(m.session.SearchResults) {
		m.cursor = 0
	}
	return run(cmds)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case machineMsg:
		if msg.msg == nil {
			return m, nil
		}
		return m, m.dispatch(msg.msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc":
		m.machine.Close()
		return m, tea.Quit
	case "tab":
		next := navigate.ModeBrowse
		if m.session.Mode == navigate.ModeBrowse {
			next = navigate.ModeSearch
		}
		cmd := m.dispatch(navigate.SwitchMode{Mode: next})
		m.updatePlaceholder()
		return m, cmd
	case "ctrl+e":
		m.input.SetValue(m.machine.ExampleGene())
		cmd := m.dispatch(navigate.LoadExample{})
		m.updatePlaceholder()
		return m, cmd
	case "ctrl+n":
		return m, m.stepAssembly(1)
	case "ctrl+p":
		return m, m.stepAssembly(-1)
	case "up":
		return m, m.move(-1)
	case "down":
		return m, m.move(1)
	case "enter":
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

// submit handles enter. A range ("start-end" or "chrom:start-end") is
// fetched in either mode; in search mode other text is searched for, or,
// when unchanged since the last search, the highlighted hit is opened.
func (m *model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if req, ok := parseRange(text); ok {
		return m.dispatch(req)
	}
	if m.session.Mode != navigate.ModeSearch {
		m.info = fmt.Sprintf("not a range: %q", text)
		return nil
	}
	if text == m.session.Query && len(m.session.SearchResults) > 0 {
		return m.dispatch(navigate.SelectGene{Gene: m.session.SearchResults[m.cursor]})
	}
	m.machine.Update(navigate.SetQuery{Text: text})
	m.cursor = 0
	return m.dispatch(navigate.SubmitSearch{})
}

// move moves the highlight through search results, or the chromosome
// selection in browse mode.
func (m *model) move(delta int) tea.Cmd {
	if m.session.Mode == navigate.ModeBrowse {
		chroms := m.session.Chromosomes
		if len(chroms) == 0 {
			return nil
		}
		i := 0
		if c, ok := indexOf(chroms, m.session.SelectedChromosome); ok {
			i = wrap(c+delta, len(chroms))
		}
		return m.dispatch(navigate.SelectChromosome{Name: chroms[i].Name})
	}
	if n := len(m.session.SearchResults); n > 0 {
		m.cursor = wrap(m.cursor+delta, n)
	}
	return nil
}

func (m *model) stepAssembly(delta int) tea.Cmd {
	as := m.session.Assemblies
	if len(as) == 0 {
		return nil
	}
	i := 0
	for j, a := range as {
		if a.ID == m.session.AssemblyID {
			i = wrap(j+delta, len(as))
			break
		}
	}
	return m.dispatch(navigate.SelectAssembly{ID: as[i].ID})
}

func (m *model) updatePlaceholder() {
	if m.session.Mode == navigate.ModeBrowse {
		m.input.Placeholder = "range, e.g. 1000-2000 or chr17:43044295-43045294"
	} else {
		m.input.Placeholder = "gene symbol, e.g. BRCA1"
	}
}

// parseRange accepts "start-end" or "chrom:start-end".
func parseRange(s string) (navigate.RequestRange, bool) {
	var req navigate.RequestRange
	if chrom, rest, ok := strings.Cut(s, ":"); ok {
		req.Chrom = genome.NormalizeChrom(chrom)
		s = rest
	}
	i := strings.LastIndexByte(s, '-')
	if i <= 0 {
		return req, false
	}
	start, err := strconv.ParseInt(strings.ReplaceAll(s[:i], ",", ""), 10, 64)
	if err != nil {
		return req, false
	}
	end, err := strconv.ParseInt(strings.ReplaceAll(s[i+1:], ",", ""), 10, 64)
	if err != nil {
		return req, false
	}
	req.Start, req.End = start, end
	return req, true
}

func indexOf(chroms []genome.Chromosome, name string) (int, bool) {
	for i, c := range chroms {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
