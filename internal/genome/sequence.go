package genome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/interval"
)

// ucscSequence is the UCSC getData/sequence payload. Coordinates are 0-based
// half-open.
type ucscSequence struct {
	DNA   string   `json:"dna"`
	Start *flexInt `json:"start"`
	End   *flexInt `json:"end"`
	Error string   `json:"error"`
}

// FetchGeneSequence fetches the bases of r (1-based, inclusive) on chrom.
//
// The service may serve a narrower range than requested; Actual reports what
// it served, converted back to 1-based coordinates, without re-validation.
// An error reported by the service, or a truncation, is returned in
// SequenceResult.Error rather than as a failure.
func (c *Client) FetchGeneSequence(ctx context.Context, chrom string, r interval.Range, assemblyID string) (*SequenceResult, error) {
	chrom = NormalizeChrom(chrom)
	op := fmt.Sprintf("fetch sequence %s:%s:%s", assemblyID, chrom, r)

	// Position 0 has no 1-based meaning; the first base is served instead.
	served := r
	if served.Start < 1 {
		served.Start = 1
	}
	params := url.Values{
		"genome": {assemblyID},
		"chrom":  {chrom},
		"start":  {strconv.FormatInt(served.Start-1, 10)},
		"end":    {strconv.FormatInt(r.End, 10)},
	}

	status, body, err := c.get(ctx, op, c.ucscURL, "/getData/sequence", params)
	if err != nil {
		return nil, err
	}

	var payload ucscSequence
	decodeErr := json.Unmarshal(body, &payload)
	if decodeErr == nil && payload.Error != "" {
		c.logger.Warn("sequence service reported an error",
			zap.String("assembly", assemblyID),
			zap.String("chrom", chrom),
			zap.Stringer("range", r),
			zap.String("error", payload.Error))
		return &SequenceResult{
			Sequence: strings.ToUpper(payload.DNA),
			Actual:   actualRange(payload, served),
			Error:    payload.Error,
		}, nil
	}
	if !isSuccess(status) {
		return nil, unavailable(op, fmt.Errorf("HTTP error %d: %s", status, snippet(body)))
	}
	if decodeErr != nil {
		return nil, unavailable(op, fmt.Errorf("decode response: %w", decodeErr))
	}
	if payload.DNA == "" && payload.Start == nil && payload.End == nil {
		return nil, unavailable(op, errors.New("UCSC API error: missing dna"))
	}

	res := &SequenceResult{
		Sequence: strings.ToUpper(payload.DNA),
		Actual:   actualRange(payload, served),
	}
	if res.Actual != served && res.Actual.Within(served) {
		res.Error = fmt.Sprintf("%s: requested %s, served %s", TruncationWarning, served, res.Actual)
	}
	return res, nil
}

func actualRange(p ucscSequence, requested interval.Range) interval.Range {
	actual := requested
	if p.Start != nil {
		actual.Start = int64(*p.Start) + 1
	}
	if p.End != nil {
		actual.End = int64(*p.End)
	}
	return actual
}
