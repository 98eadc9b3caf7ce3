package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/genome-nav/internal/batch"
	"github.com/inodb/genome-nav/internal/output"
)

func newSequenceCmd(a *app) *cobra.Command {
	var (
		assembly    string
		regionsFile string
		workers     int
		format      string
		width       int
	)
	cmd := &cobra.Command{
		Use:   "sequence [region...]",
		Short: "Fetch DNA sequence for chromosome ranges",
		Long: `Fetch DNA sequence for one or more regions, written as FASTA in input order.

Regions are chrom:start-end with 1-based inclusive coordinates. Ranges are
clamped to the chromosome before they are requested; a range entirely
outside the chromosome is reported and skipped.`,
		Example: `  genome-nav sequence chr17:43044295-43044394
  genome-nav sequence --genome hg19 17:41196312-41196411 MT:1-100
  genome-nav sequence --regions regions.txt --workers 8 --format tab`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var regions []batch.Region
			if regionsFile != "" {
				f, err := os.Open(regionsFile)
				if err != nil {
					return fmt.Errorf("open regions: %w", err)
				}
				regions, err = batch.ReadRegions(f)
				f.Close()
				if err != nil {
					return err
				}
			}
			for _, arg := range args {
				r, err := batch.ParseRegion(arg)
				if err != nil {
					return err
				}
				r.Seq = len(regions)
				regions = append(regions, r)
			}
			if len(regions) == 0 {
				return fmt.Errorf("no regions given: pass chrom:start-end arguments or --regions")
			}

			id := assemblyOrDefault(a, assembly)
			f := batch.NewFetcher(a.svc, id, workers)
			f.SetLogger(a.logger.Named("batch"))
			if err := f.LoadSizes(cmd.Context()); err != nil {
				return fmt.Errorf("load chromosome sizes: %w", err)
			}

			var write func(batch.Result) error
			var flush func() error
			out := cmd.OutOrStdout()
			failed := 0

			switch format {
			case "fasta":
				fw := output.NewFastaWriter(out)
				fw.SetLineWidth(width)
				write = func(r batch.Result) error {
					if r.Err != nil {
						failed++
						fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", r.Region, r.Err)
						return nil
					}
					if r.Sequence.Error != "" {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %s\n", r.Region, r.Sequence.Error)
					}
					return fw.Write(output.Record{
						Assembly: id,
						Chrom:    r.Region.Chrom,
						Range:    r.Sequence.Actual,
						Bases:    r.Sequence.Sequence,
					})
				}
				flush = fw.Flush
			case "tab":
				rw := output.NewRegionWriter(out)
				if err := rw.WriteHeader(); err != nil {
					return err
				}
				write = func(r batch.Result) error {
					row := output.RegionRow{
						Chrom:      r.Region.Chrom,
						Requested:  r.Region.Range.String(),
						WasClamped: r.WasClamped,
					}
					if r.Err != nil {
						failed++
						row.Err = r.Err.Error()
					} else {
						row.Effective = r.Sequence.Actual.String()
						row.Length = len(r.Sequence.Sequence)
						row.Warning = r.Sequence.Error
					}
					return rw.Write(row)
				}
				flush = rw.Flush
			default:
				return fmt.Errorf("unknown --format %q (want fasta or tab)", format)
			}

			if err := f.Run(cmd.Context(), regions, write); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
			if failed > 0 {
				a.logger.Warn("some regions failed", zap.Int("failed", failed), zap.Int("total", len(regions)))
				return fmt.Errorf("%d of %d regions failed", failed, len(regions))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&assembly, "genome", "g", "", "assembly id (default from navigation.default-assembly)")
	cmd.Flags().StringVar(&regionsFile, "regions", "", "file with one region per line")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent requests (0 = number of CPUs)")
	cmd.Flags().StringVarP(&format, "format", "f", "fasta", "output format: fasta or tab")
	cmd.Flags().IntVar(&width, "width", output.DefaultLineWidth, "bases per FASTA line (0 = no wrapping)")
	return cmd
}
