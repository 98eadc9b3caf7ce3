package output

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/genome-nav/internal/genome"
)

// TabWriter writes rows in tab-delimited format. Empty values are written
// as "-".
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w), columns: columns}
}

// WriteHeader writes the header line, prefixed with '#'.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString("#" + strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes one row. Missing trailing values are written as "-".
func (tw *TabWriter) WriteRow(values ...string) error {
	n := max(len(tw.columns), len(values))
	row := make([]string, n)
	for i := range row {
		row[i] = "-"
		if i < len(values) && values[i] != "" {
			row[i] = values[i]
		}
	}
	_, err := tw.w.WriteString(strings.Join(row, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WriteAssemblies writes the assemblies of one organism, or of all
// organisms (sorted by name) when organism is empty.
func WriteAssemblies(w io.Writer, groups map[string][]genome.Assembly, organism string) error {
	tw := NewTabWriter(w, "Organism", "ID", "Description", "Source", "Active")
	if err := tw.WriteHeader(); err != nil {
		return err
	}

	organisms := []string{organism}
	if organism == "" {
		organisms = organisms[:0]
		for o := range groups {
			organisms = append(organisms, o)
		}
		sort.Strings(organisms)
	}
	for _, o := range organisms {
		for _, a := range groups[o] {
			if err := tw.WriteRow(o, a.ID, a.DisplayName, a.SourceName, yesNo(a.Active)); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

// WriteChromosomes writes a chromosome list in the order given.
func WriteChromosomes(w io.Writer, chroms []genome.Chromosome) error {
	tw := NewTabWriter(w, "Chrom", "Size")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, c := range chroms {
		if err := tw.WriteRow(c.Name, strconv.FormatInt(c.Size, 10)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteGenes writes gene search hits.
func WriteGenes(w io.Writer, genes []genome.GeneSummary) error {
	tw := NewTabWriter(w, "GeneID", "Symbol", "Chrom", "Location", "Type", "Name")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, g := range genes {
		if err := tw.WriteRow(g.ID, g.Symbol, g.Chrom, g.Location, g.Type, g.Name); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteGene writes a gene record as key/value lines.
func WriteGene(w io.Writer, rec *genome.GeneRecord) error {
	tw := NewTabWriter(w, "Field", "Value")
	d := rec.Detail
	rows := [][2]string{
		{"GeneID", d.ID},
		{"Symbol", d.Symbol},
		{"Description", d.Description},
		{"Organism", d.Organism},
		{"Location", d.Location},
		{"Bounds", rec.Bounds.Chrom + ":" + rec.Bounds.Range().String()},
		{"InitialRange", rec.InitialRange.String()},
		{"Summary", d.Summary},
	}
	if d.ExonCount > 0 {
		rows = append(rows, [2]string{"Exons", strconv.Itoa(d.ExonCount)})
	}
	for _, r := range rows {
		if err := tw.WriteRow(r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RegionRow summarizes one fetched region.
type RegionRow struct {
	Chrom      string
	Requested  string
	Effective  string
	Length     int
	WasClamped bool
	Warning    string
	Err        string
}

// NewRegionWriter returns a writer for RegionRows.
func NewRegionWriter(w io.Writer) *RegionWriter {
	return &RegionWriter{tw: NewTabWriter(w, "Chrom", "Requested", "Effective", "Length", "Clamped", "Warning", "Error")}
}

// RegionWriter writes fetch summaries, one row per region.
type RegionWriter struct {
	tw *TabWriter
}

// WriteHeader writes the header line.
func (rw *RegionWriter) WriteHeader() error {
	return rw.tw.WriteHeader()
}

// Write writes one region row.
func (rw *RegionWriter) Write(r RegionRow) error {
	return rw.tw.WriteRow(r.Chrom, r.Requested, r.Effective, strconv.Itoa(r.Length), yesNo(r.WasClamped), r.Warning, r.Err)
}

// Flush flushes any buffered data to the underlying writer.
func (rw *RegionWriter) Flush() error {
	return rw.tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
