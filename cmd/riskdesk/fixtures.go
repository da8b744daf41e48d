package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/riskdesk/app"
	"github.com/jask/riskdesk/internal/database"
)

func newFixturesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures [kind]",
		Short: "Print the seeded records",
		Long:  "Print the seeded records. Without a kind every listing is printed.",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return listingKinds(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			kind := ""
			if len(args) == 1 {
				kind = strings.ToLower(args[0])
			}
			return printFixtures(cmd.Context(), cmd.OutOrStdout(), cfg.Database.Path, kind)
		},
	}
}

func listingKinds() []string {
	var kinds []string
	for _, l := range app.Listings(&app.Source{}) {
		kinds = append(kinds, l.Kind)
	}
	return kinds
}

func printFixtures(ctx context.Context, w io.Writer, path, kind string) error {
	if kind != "" && !slices.Contains(listingKinds(), kind) {
		return fmt.Errorf("unknown kind %q (want one of %s)", kind, strings.Join(listingKinds(), ", "))
	}
	db, err := database.Bootstrap(ctx, path)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer db.Close()

	heading := lipgloss.NewStyle().Bold(true)
	for _, l := range app.Listings(app.NewSource(db)) {
		if kind != "" && l.Kind != kind {
			continue
		}
		records, err := l.Load(ctx)
		if err != nil {
			return err
		}
		headers := make([]string, len(l.Columns))
		for i, c := range l.Columns {
			headers[i] = c.Title
		}
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = r.Cells
		}
		t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...).Rows(rows...)
		fmt.Fprintf(w, "%s (%d)\n%s\n\n", heading.Render(l.Kind), len(records), t.Render())
	}
	return nil
}
