// Package output writes sequence windows and listings for the command line.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/genome-nav/internal/interval"
)

// DefaultLineWidth is the number of bases per FASTA line.
const DefaultLineWidth = 60

// Record is one stretch of sequence to write.
type Record struct {
	Assembly string
	Chrom    string
	Range    interval.Range
	Bases    string
}

// Header returns the FASTA header line without the leading '>'.
func (r Record) Header() string {
	return fmt.Sprintf("%s:%s:%s", r.Assembly, r.Chrom, r.Range)
}

// FastaWriter writes records in FASTA format.
type FastaWriter struct {
	w     *bufio.Writer
	width int
}

// NewFastaWriter creates a FASTA writer wrapping bases at DefaultLineWidth.
func NewFastaWriter(w io.Writer) *FastaWriter {
	return &FastaWriter{w: bufio.NewWriter(w), width: DefaultLineWidth}
}

// SetLineWidth changes the wrap width. Non-positive widths write each
// sequence on one line.
func (fw *FastaWriter) SetLineWidth(n int) {
	fw.width = n
}

// Write writes a single record.
func (fw *FastaWriter) Write(r Record) error {
	if _, err := fmt.Fprintf(fw.w, ">%s\n", r.Header()); err != nil {
		return err
	}
	seq := r.Bases
	if fw.width <= 0 {
		_, err := fw.w.WriteString(seq + "\n")
		return err
	}
	for len(seq) > 0 {
		n := min(fw.width, len(seq))
		if _, err := fw.w.WriteString(seq[:n] + "\n"); err != nil {
			return err
		}
		seq = seq[n:]
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (fw *FastaWriter) Flush() error {
	return fw.w.Flush()
}
