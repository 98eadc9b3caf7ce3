package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/inodb/genome-nav/internal/navigate"
	"github.com/inodb/genome-nav/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse interactively in the terminal",
		Long: `Open the interactive shell. Type a gene symbol and press enter to search; an
exact match opens the gene and its first sequence window. Tab switches
between search and browse mode; in browse mode the arrow keys pick a
chromosome and a range such as 1000-2000 fetches its sequence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := navigate.New(a.svc, a.cfg.MachineOptions())
			m.SetLogger(a.logger.Named("navigate"))
			defer m.Close()

			p := tea.NewProgram(tui.New(m), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}
