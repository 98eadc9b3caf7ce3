package chromosome

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare("chr9", "chr10"))
	assert.Positive(t, Compare("chr10", "chr9"))
	assert.Negative(t, Compare("chr2", "chrX"))
	assert.Positive(t, Compare("chrX", "chr22"))
	assert.Negative(t, Compare("chrX", "chrY"))
	assert.Negative(t, Compare("chrM", "chrX"))
	assert.Zero(t, Compare("chr1", "chr1"))
	assert.NotZero(t, Compare("chr01", "chr1"))
	assert.Negative(t, Compare("2", "chr10"), "prefix is optional")
}

func TestSortNames(t *testing.T) {
	names := []string{"chrY", "chr10", "chrX", "chr2", "chrM", "chr1", "chr22", "chr9"}
	SortNames(names)
	assert.Equal(t, []string{"chr1", "chr2", "chr9", "chr10", "chr22", "chrM", "chrX", "chrY"}, names)

	again := slices.Clone(names)
	SortNames(again)
	assert.Equal(t, names, again, "sorting is idempotent")
}

func TestSortBy(t *testing.T) {
	type chrom struct {
		name string
		size int64
	}
	items := []chrom{{"chrX", 1}, {"chr3", 2}, {"chr1", 3}}
	SortBy(items, func(c chrom) string { return c.name })
	assert.Equal(t, []chrom{{"chr1", 3}, {"chr3", 2}, {"chrX", 1}}, items)
}

func TestCompare_StrictTotalOrder(t *testing.T) {
	names := []string{
		"chr1", "chr2", "chr10", "chr01", "chrX", "chrY", "chrM", "chrx",
		"chrW", "chrZ", "2L", "2R", "chr2L", "chrIV", "chrI", "chrV", "chr100",
	}

	for _, a := range names {
		for _, b := range names {
			ab, ba := Compare(a, b), Compare(b, a)
			assert.Equal(t, -ab, ba, "antisymmetry %s %s", a, b)
			if a != b {
				assert.NotZero(t, ab, "distinct names %s %s", a, b)
			}
			for _, c := range names {
				if ab < 0 && Compare(b, c) < 0 {
					assert.Negative(t, Compare(a, c), "transitivity %s < %s < %s", a, b, c)
				}
			}
		}
	}
}

func TestIsPrimary(t *testing.T) {
	assert.True(t, IsPrimary("chr1"))
	assert.True(t, IsPrimary("chrX"))
	assert.True(t, IsPrimary("chrM"))
	assert.False(t, IsPrimary("chr1_random"))
	assert.False(t, IsPrimary("chrUn_gl000220"))
	assert.False(t, IsPrimary("chr1_KI270706v1_random"))
	assert.False(t, IsPrimary("chr17_KI270909v1_alt"))
	assert.False(t, IsPrimary("random"))
}
