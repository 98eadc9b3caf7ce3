package batch

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/interval"
)

// Result holds the outcome of fetching one region. Err is per region and
// does not stop the batch.
type Result struct {
	Seq        int
	Region     Region
	Effective  interval.Range
	WasClamped bool
	Sequence   *genome.SequenceResult
	Err        error
}

// Fetcher fetches regions of one assembly with a bounded number of
// concurrent requests.
type Fetcher struct {
	svc      genome.Service
	assembly string
	workers  int
	sizes    map[string]int64
	logger   *zap.Logger
}

// NewFetcher creates a fetcher. If workers is 0, runtime.NumCPU() is used.
func NewFetcher(svc genome.Service, assemblyID string, workers int) *Fetcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Fetcher{svc: svc, assembly: assemblyID, workers: workers, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-region failures.
func (f *Fetcher) SetLogger(l *zap.Logger) {
	f.logger = l
}

// LoadSizes fetches the chromosome sizes of the assembly so regions are
// clamped before they are requested.
func (f *Fetcher) LoadSizes(ctx context.Context) error {
	chroms, err := f.svc.ListChromosomes(ctx, f.assembly)
	if err != nil {
		return err
	}
	f.sizes = make(map[string]int64, len(chroms))
	for _, c := range chroms {
		f.sizes[c.Name] = c.Size
	}
	return nil
}

// Fetch fetches regions concurrently. Results are sent to the returned
// channel in arrival order (not sequence order); use OrderedCollect to
// consume them in input order. The channel is closed when every region has
// been handled or ctx is canceled.
func (f *Fetcher) Fetch(ctx context.Context, regions []Region) <-chan Result {
	results := make(chan Result, 2*f.workers)

	go func() {
		defer close(results)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.workers)
		for i, r := range regions {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				res := f.fetchOne(gctx, i, r)
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		_ = g.Wait()
	}()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, seq int, r Region) Result {
	res := Result{Seq: seq, Region: r}

	var size *int64
	if n, ok := f.sizes[r.Chrom]; ok {
		size = interval.Size(n)
	}
	clamped, err := interval.Clamp(r.Range, size)
	if err != nil {
		res.Err = err
		return res
	}
	res.Effective = clamped.Effective
	res.WasClamped = clamped.WasClamped

	res.Sequence, res.Err = f.svc.FetchGeneSequence(ctx, r.Chrom, clamped.Effective, f.assembly)
	if res.Err != nil {
		f.logger.Warn("region fetch failed",
			zap.String("assembly", f.assembly),
			zap.Stringer("region", r),
			zap.Error(res.Err))
	}
	return res
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan Result, fn func(Result) error) error {
	pending := make(map[int]Result)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

// Run fetches regions and calls fn for each result in input order. It
// returns fn's first error, or ctx's error when the batch was cut short.
func (f *Fetcher) Run(ctx context.Context, regions []Region, fn func(Result) error) error {
	if err := OrderedCollect(f.Fetch(ctx, regions), fn); err != nil {
		return err
	}
	return ctx.Err()
}
