// Package batch fetches many sequence regions concurrently and hands the
// results back in input order.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// Region is one requested stretch of sequence. Seq is its position in the
// input.
type Region struct {
	Seq   int
	Chrom string
	Range interval.Range
}

func (r Region) String() string {
	return r.Chrom + ":" + r.Range.String()
}

// ParseRegion parses "chr17:43044295-43054294" or "17 43044295 43054294".
// Coordinates are 1-based inclusive; thousands separators are allowed.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	var chrom, start, end string
	if fields := strings.Fields(s); len(fields) == 3 {
		chrom, start, end = fields[0], fields[1], fields[2]
	} else {
		var rest string
		var ok bool
		chrom, rest, ok = strings.Cut(s, ":")
		if !ok {
			return Region{}, fmt.Errorf("region %q: expected chrom:start-end", s)
		}
		// Split on the last '-' so negative starts still parse.
		i := strings.LastIndexByte(rest, '-')
		if i <= 0 {
			return Region{}, fmt.Errorf("region %q: expected chrom:start-end", s)
		}
		start, end = rest[:i], rest[i+1:]
	}

	startPos, err := parseCoord(start)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: start: %w", s, err)
	}
	endPos, err := parseCoord(end)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: end: %w", s, err)
	}
	chrom = genome.NormalizeChrom(chrom)
	if chrom == "" {
		return Region{}, fmt.Errorf("region %q: missing chromosome", s)
	}
	return Region{Chrom: chrom, Range: interval.Range{Start: startPos, End: endPos}}, nil
}

func parseCoord(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
}

// ReadRegions reads one region per line. Blank lines and lines starting
// with '#' are skipped.
func ReadRegions(r io.Reader) ([]Region, error) {
	var regions []Region
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reg, err := ParseRegion(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		reg.Seq = len(regions)
		regions = append(regions, reg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	return regions, nil
}
