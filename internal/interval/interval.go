// Package interval resolves and validates genomic coordinate ranges before
// they are sent to a sequence service.
//
// Ranges are inclusive on both ends and use whatever coordinate convention
// the caller received from upstream; this package never shifts them.
package interval

import (
	"errors"
	"fmt"

	"github.com/cznic/mathutil"
)

// DefaultMaxInitialWindow caps the span of the first sequence fetch for a gene.
const DefaultMaxInitialWindow int64 = 10000

// Range is an inclusive [Start, End] coordinate interval.
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len returns the number of positions covered by the range, or 0 if it is inverted.
func (r Range) Len() int64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Within reports whether r lies entirely inside other.
func (r Range) Within(other Range) bool {
	return r.Start >= other.Start && r.End <= other.End
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// ErrInvalidRange is matched by every ValidationError of kind InvalidRange.
var ErrInvalidRange = errors.New("invalid range")

// ValidationErrorKind classifies a ValidationError.
type ValidationErrorKind int

const (
	// InvalidRange means start > end, either as requested or after clamping.
	InvalidRange ValidationErrorKind = iota
)

func (k ValidationErrorKind) String() string {
	switch k {
	case InvalidRange:
		return "InvalidRange"
	}
	return "Unknown"
}

// ValidationError reports a range that cannot be fetched.
type ValidationError struct {
	Kind  ValidationErrorKind
	Range Range
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Range, e.Msg)
}

// Is makes errors.Is(err, ErrInvalidRange) work for InvalidRange errors.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRange && e.Kind == InvalidRange
}

// ResolveInitial picks the first window to fetch for a gene: the full span,
// or the first maxWindow bases when the span is larger. A non-positive
// maxWindow disables the cap.
func ResolveInitial(bounds Range, maxWindow int64) Range {
	if bounds.End < bounds.Start {
		bounds.Start, bounds.End = bounds.End, bounds.Start
	}
	if maxWindow <= 0 || bounds.Len() <= maxWindow {
		return bounds
	}
	return Range{Start: bounds.Start, End: bounds.Start + maxWindow - 1}
}

// Result is the outcome of Clamp.
type Result struct {
	Effective  Range `json:"effective"`
	WasClamped bool  `json:"wasClamped"`
}

// Clamp validates a requested range and narrows it to [0, size) when the
// chromosome size is known (size != nil).
//
// The bounds are applied to Range coordinates as they are, which are 1-based
// in this module: position size, the last base of the chromosome, is outside
// [0, size) and is never part of a clamped range.
func Clamp(requested Range, size *int64) (Result, error) {
	if requested.Start > requested.End {
		return Result{}, &ValidationError{Kind: InvalidRange, Range: requested, Msg: "start > end"}
	}
	if size == nil {
		return Result{Effective: requested}, nil
	}

	eff := Range{
		Start: mathutil.MaxInt64(0, requested.Start),
		End:   mathutil.MinInt64(*size-1, requested.End),
	}
	if eff.Start > eff.End {
		return Result{}, &ValidationError{
			Kind:  InvalidRange,
			Range: requested,
			Msg:   fmt.Sprintf("outside chromosome of %d bases", *size),
		}
	}
	return Result{Effective: eff, WasClamped: eff != requested}, nil
}

// Size is a convenience for passing a known chromosome size to Clamp.
func Size(n int64) *int64 {
	return &n
}
