package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inodb/genome-nav/internal/batch"
	"github.com/inodb/genome-nav/internal/navigate"
	"github.com/inodb/genome-nav/internal/output"
)

func newNavigateCmd(a *app) *cobra.Command {
	var (
		assembly string
		gene     string
		region   string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "navigate",
		Short: "Run one navigation session non-interactively",
		Long: `Run a navigation session the way the interactive shell does: load the
assemblies and chromosomes, optionally switch assembly, search for a gene
(the example gene by default) and fetch its first sequence window, then
optionally fetch another range. The final session is printed.`,
		Example: `  genome-nav navigate
  genome-nav navigate --gene TP53 --genome hg19
  genome-nav navigate --gene BRCA1 --range 43044295-43044394
  genome-nav navigate --range chrM:1-200 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m := navigate.New(a.svc, a.cfg.MachineOptions())
			m.SetLogger(a.logger.Named("navigate"))
			r := navigate.NewRunner(m)
			go r.Run(ctx)

			steps := []navigate.Msg{nil}
			if assembly != "" {
				steps = append(steps, navigate.SelectAssembly{ID: assembly})
			}
			switch {
			case gene != "":
				steps = append(steps, navigate.SetQuery{Text: gene}, navigate.SubmitSearch{})
			case region == "":
				steps = append(steps, navigate.LoadExample{})
			}
			if region != "" {
				req, err := parseRequestRange(region)
				if err != nil {
					return err
				}
				steps = append(steps, req)
			}

			var s navigate.Session
			for _, msg := range steps {
				var err error
				if s, err = r.Dispatch(ctx, msg); err != nil {
					return err
				}
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			} else if err := writeSession(cmd.OutOrStdout(), s); err != nil {
				return err
			}
			if s.Error != "" {
				return fmt.Errorf("session: %s", s.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&assembly, "genome", "g", "", "switch to this assembly after start-up")
	cmd.Flags().StringVar(&gene, "gene", "", "gene to search for (default: the example gene)")
	cmd.Flags().StringVar(&region, "range", "", "range to fetch afterwards: start-end or chrom:start-end")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the session as JSON")
	return cmd
}

// parseRequestRange accepts chrom:start-end or start-end.
func parseRequestRange(s string) (navigate.RequestRange, error) {
	if r, err := batch.ParseRegion(s); err == nil {
		return navigate.RequestRange{Chrom: r.Chrom, Start: r.Range.Start, End: r.Range.End}, nil
	}
	r, err := batch.ParseRegion("_:" + s)
	if err != nil {
		return navigate.RequestRange{}, fmt.Errorf("--range %q: expected start-end or chrom:start-end", s)
	}
	return navigate.RequestRange{Start: r.Range.Start, End: r.Range.End}, nil
}

func writeSession(w io.Writer, s navigate.Session) error {
	fmt.Fprintf(w, "Assembly:    %s (%s, %d assemblies)\n", s.AssemblyID, s.Organism, len(s.Assemblies))
	fmt.Fprintf(w, "Chromosomes: %d", len(s.Chromosomes))
	if s.SelectedChromosome != "" {
		fmt.Fprintf(w, " (selected %s)", s.SelectedChromosome)
	}
	fmt.Fprintln(w)
	if s.Query != "" {
		fmt.Fprintf(w, "Search:      %q, %d results\n", s.Query, len(s.SearchResults))
	}
	if s.Gene != nil {
		fmt.Fprintf(w, "Gene:        %s (%s) %s:%s\n", s.Gene.Detail.Symbol, s.Gene.Detail.ID, s.Gene.Bounds.Chrom, s.Gene.Bounds.Range())
	}
	if s.Warning != "" {
		fmt.Fprintf(w, "Warning:     %s\n", s.Warning)
	}
	if s.Window == nil {
		return nil
	}
	fmt.Fprintln(w)
	fw := output.NewFastaWriter(w)
	if err := fw.Write(output.Record{
		Assembly: s.AssemblyID,
		Chrom:    s.Window.Chrom,
		Range:    s.Window.Effective,
		Bases:    s.Window.Bases,
	}); err != nil {
		return err
	}
	return fw.Flush()
}
