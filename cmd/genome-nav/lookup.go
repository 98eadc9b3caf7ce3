package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/genome-nav/internal/chromosome"
	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/output"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newAssembliesCmd(a *app) *cobra.Command {
	var (
		organism string
		all      bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "assemblies",
		Short: "List genome assemblies",
		Long:  "List the assemblies of one organism (default from navigation.organism), or of all organisms with --all.",
		Example: `  genome-nav assemblies
  genome-nav assemblies --organism Mouse
  genome-nav assemblies --all --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.svc.ListAssemblies(cmd.Context())
			if err != nil {
				return err
			}
			if organism == "" && !all {
				organism = a.cfg.Navigation.Organism
			}
			if all {
				organism = ""
			}
			if asJSON {
				if organism != "" {
					return writeJSON(cmd.OutOrStdout(), groups[organism])
				}
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			return output.WriteAssemblies(cmd.OutOrStdout(), groups, organism)
		},
	}
	cmd.Flags().StringVar(&organism, "organism", "", "organism group to list")
	cmd.Flags().BoolVar(&all, "all", false, "list every organism")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newChromosomesCmd(a *app) *cobra.Command {
	var (
		assembly string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "chromosomes [names...]",
		Short: "List the primary chromosomes of an assembly",
		Long: `List the primary chromosomes of an assembly in natural order. Names given as
arguments are sorted the same way instead, without contacting any service.`,
		Example: `  genome-nav chromosomes
  genome-nav chromosomes --genome hg19
  genome-nav chromosomes chr10 chr2 chrX chr1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				names := append([]string(nil), args...)
				chromosome.SortNames(names)
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
				return err
			}
			chroms, err := a.svc.ListChromosomes(cmd.Context(), assemblyOrDefault(a, assembly))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), chroms)
			}
			return output.WriteChromosomes(cmd.OutOrStdout(), chroms)
		},
	}
	cmd.Flags().StringVarP(&assembly, "genome", "g", "", "assembly id (default from navigation.default-assembly)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		assembly string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search genes by symbol or name",
		Example: `  genome-nav search BRCA`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genes, err := a.svc.SearchGenes(cmd.Context(), strings.Join(args, " "), assemblyOrDefault(a, assembly))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), genes)
			}
			return output.WriteGenes(cmd.OutOrStdout(), genes)
		},
	}
	cmd.Flags().StringVarP(&assembly, "genome", "g", "", "assembly id (default from navigation.default-assembly)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

func newGeneCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "gene <gene-id|symbol>",
		Short: "Show gene details and location",
		Long: `Show the details of a gene. A numeric argument is taken as an NCBI gene id;
anything else is searched for and the exact symbol match is shown.`,
		Example: `  genome-nav gene 672
  genome-nav gene BRCA1 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveGeneID(cmd, a, args[0])
			if err != nil {
				return err
			}
			rec, err := a.svc.FetchGeneDetails(cmd.Context(), id)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			return output.WriteGene(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON")
	return cmd
}

// resolveGeneID returns arg when it is a gene id, or the id of the gene
// whose symbol matches arg exactly.
func resolveGeneID(cmd *cobra.Command, a *app, arg string) (string, error) {
	if strings.Trim(arg, "0123456789") == "" {
		return arg, nil
	}
	genes, err := a.svc.SearchGenes(cmd.Context(), arg, a.cfg.Navigation.DefaultAssembly)
	if err != nil {
		return "", err
	}
	for _, g := range genes {
		if strings.EqualFold(g.Symbol, arg) {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("gene %q: %w (%d search hits, none with that symbol)", arg, genome.ErrNotFound, len(genes))
}

func assemblyOrDefault(a *app, assembly string) string {
	if assembly != "" {
		return assembly
	}
	return a.cfg.Navigation.DefaultAssembly
}
