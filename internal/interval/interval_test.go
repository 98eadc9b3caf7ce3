package interval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name        string
		requested   Range
		size        *int64
		wantRange   Range
		wantClamped bool
	}{
		{"negative start and past end", Range{-5, 100}, Size(50), Range{0, 49}, true},
		{"inside bounds", Range{10, 20}, Size(50), Range{10, 20}, false},
		{"last base", Range{0, 49}, Size(50), Range{0, 49}, false},
		{"end only", Range{40, 60}, Size(50), Range{40, 49}, true},
		{"unknown size", Range{-5, 1_000_000}, nil, Range{-5, 1_000_000}, false},
		{"single base", Range{7, 7}, Size(50), Range{7, 7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Clamp(tt.requested, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRange, res.Effective)
			assert.Equal(t, tt.wantClamped, res.WasClamped)
		})
	}
}

func TestClamp_InvalidRange(t *testing.T) {
	_, err := Clamp(Range{30, 10}, Size(50))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, InvalidRange, verr.Kind)
	assert.Equal(t, Range{30, 10}, verr.Range)

	_, err = Clamp(Range{30, 10}, nil)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestClamp_PastChromosomeEnd(t *testing.T) {
	_, err := Clamp(Range{100, 200}, Size(50))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestClamp_EffectiveWithinChromosome(t *testing.T) {
	size := int64(1000)
	for start := int64(-20); start < 1020; start += 37 {
		for end := start; end < 1100; end += 53 {
			res, err := Clamp(Range{start, end}, &size)
			if err != nil {
				assert.ErrorIs(t, err, ErrInvalidRange)
				continue
			}
			assert.LessOrEqual(t, res.Effective.Start, res.Effective.End)
			assert.GreaterOrEqual(t, res.Effective.Start, int64(0))
			assert.Less(t, res.Effective.End, size)
		}
	}
}

func TestResolveInitial(t *testing.T) {
	brca1 := Range{43044295, 43125483}

	assert.Equal(t, Range{43044295, 43054294}, ResolveInitial(brca1, DefaultMaxInitialWindow))
	assert.Equal(t, int64(DefaultMaxInitialWindow), ResolveInitial(brca1, DefaultMaxInitialWindow).Len())
	assert.Equal(t, brca1, ResolveInitial(brca1, 0), "non-positive cap disables it")
	assert.Equal(t, brca1, ResolveInitial(brca1, brca1.Len()))

	small := Range{100, 199}
	assert.Equal(t, small, ResolveInitial(small, DefaultMaxInitialWindow))

	assert.Equal(t, Range{100, 199}, ResolveInitial(Range{199, 100}, DefaultMaxInitialWindow))
}

func TestRange(t *testing.T) {
	r := Range{10, 19}
	assert.Equal(t, int64(10), r.Len())
	assert.True(t, Range{12, 15}.Within(r))
	assert.False(t, Range{5, 15}.Within(r))
	assert.Equal(t, "10-19", r.String())
	assert.Equal(t, int64(0), Range{5, 4}.Len())
}

func TestClamp_LastPositionExcluded(t *testing.T) {
	res, err := Clamp(Range{40, 50}, Size(50))
	require.NoError(t, err)
	assert.Equal(t, Range{40, 49}, res.Effective)
	assert.True(t, res.WasClamped)

	_, err = Clamp(Range{50, 50}, Size(50))
	assert.ErrorIs(t, err, ErrInvalidRange)
}
