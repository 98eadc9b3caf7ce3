package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/inodb/genome-nav/internal/navigate"
)

var (
	accentColor = lipgloss.Color("81")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	accentStyle   = lipgloss.NewStyle().Foreground(accentColor)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	helperStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	baseStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("150"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
)

// maxListRows bounds the visible part of the chromosome and result lists.
const maxListRows = 12

// basesPerLine is the width of the sequence panel.
const basesPerLine = 60

func (m *model) View() string {
	s := m.session
	var b strings.Builder

	b.WriteString(titleStyle.Render("genome-nav"))
	b.WriteString("  ")
	b.WriteString(accentStyle.Render(s.AssemblyID))
	b.WriteString(helperStyle.Render(fmt.Sprintf("  [%s]", s.Mode)))
	if s.Loading {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(m.assemblyLine())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	var left string
	if s.Mode == navigate.ModeBrowse {
		left = m.chromosomePanel()
	} else {
		left = m.resultsPanel()
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxStyle.Render(left), " ", boxStyle.Render(m.genePanel())))
	b.WriteString("\n")
	if w := m.sequencePanel(); w != "" {
		b.WriteString(boxStyle.Render(w))
		b.WriteString("\n")
	}

	if s.Error != "" {
		b.WriteString(errorStyle.Render("error: " + s.Error))
		b.WriteString("\n")
	}
	if s.Warning != "" {
		b.WriteString(warningStyle.Render("warning: " + s.Warning))
		b.WriteString("\n")
	}
	b.WriteString(helperStyle.Render(m.info))
	return b.String()
}

func (m *model) assemblyLine() string {
	s := m.session
	if len(s.Assemblies) == 0 {
		return helperStyle.Render(s.Organism + ": no assemblies loaded")
	}
	ids := make([]string, len(s.Assemblies))
	for i, a := range s.Assemblies {
		if a.ID == s.AssemblyID {
			ids[i] = selectedStyle.Render(a.ID)
		} else {
			ids[i] = a.ID
		}
	}
	return helperStyle.Render(s.Organism+": ") + strings.Join(ids, " ")
}

func (m *model) chromosomePanel() string {
	s := m.session
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Chromosomes (%d)", len(s.Chromosomes))))
	b.WriteString("\n")

	sel, _ := indexOf(s.Chromosomes, s.SelectedChromosome)
	lo, hi := visible(sel, len(s.Chromosomes))
	for _, c := range s.Chromosomes[lo:hi] {
		line := fmt.Sprintf("%-8s %12d", c.Name, c.Size)
		if c.Name == s.SelectedChromosome {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *model) resultsPanel() string {
	s := m.session
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Results (%d)", len(s.SearchResults))))
	b.WriteString("\n")
	if len(s.SearchResults) == 0 {
		b.WriteString(helperStyle.Render("no results"))
		return b.String()
	}

	lo, hi := visible(m.cursor, len(s.SearchResults))
	for i := lo; i < hi; i++ {
		g := s.SearchResults[i]
		line := fmt.Sprintf("%-10s chr%-3s %s", g.Symbol, g.Chrom, truncate(g.Name, 36))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *model) genePanel() string {
	s := m.session
	var b strings.Builder
	b.WriteString(headerStyle.Render("Gene"))
	b.WriteString("\n")

	switch {
	case s.Gene != nil:
		d := s.Gene.Detail
		fmt.Fprintf(&b, "%s (%s)\n", d.Symbol, d.ID)
		if d.Description != "" {
			b.WriteString(truncate(d.Description, 48) + "\n")
		}
		fmt.Fprintf(&b, "%s:%s\n", s.Gene.Bounds.Chrom, s.Gene.Bounds.Range())
		if d.Location != "" {
			b.WriteString(helperStyle.Render(d.Location))
		}
	case s.Status(navigate.SlotGene) == navigate.StatusLoading:
		b.WriteString(helperStyle.Render("loading…"))
	default:
		b.WriteString(helperStyle.Render("none selected"))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *model) sequencePanel() string {
	w := m.session.Window
	if w == nil {
		return ""
	}
	var b strings.Builder
	header := fmt.Sprintf("%s:%s (%d bp)", w.Chrom, w.Effective, len(w.Bases))
	if w.WasClamped {
		header += fmt.Sprintf(" adjusted from %s", w.Requested)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	rows := max(m.height-24, 4)
	bases := w.Bases
	for i := 0; i < rows && len(bases) > 0; i++ {
		n := min(basesPerLine, len(bases))
		b.WriteString(baseStyle.Render(bases[:n]) + "\n")
		bases = bases[n:]
	}
	if len(bases) > 0 {
		b.WriteString(helperStyle.Render(fmt.Sprintf("… %d more bases", len(bases))))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// visible returns the window of list rows to show around the selection.
func visible(sel, n int) (lo, hi int) {
	if n <= maxListRows {
		return 0, n
	}
	lo = max(0, sel-maxListRows/2)
	hi = min(n, lo+maxListRows)
	return hi - maxListRows, hi
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
