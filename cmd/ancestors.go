package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kinbranch/internal/branches"
	"github.com/agentic-research/kinbranch/internal/genealogy"
)

var (
	ancestorTree   string
	ancestorSelf   string
	ancestorFormat string
)

// privateName replaces the name of an ancestor the store hides.
const privateName = "Private"

type ancestorEntry struct {
	Sosa       int64  `json:"sosa"`
	Generation int    `json:"generation"`
	XRef       string `json:"xref"`
	Name       string `json:"name"`
	Lifespan   string `json:"lifespan,omitempty"`
}

// listAncestors returns the direct-line ancestors of xref in walk order.
// A hidden root is reported as not found; hidden ancestors keep their
// position but not their name or dates.
func listAncestors(ctx context.Context, store genealogy.Store, tree, xref string) ([]ancestorEntry, error) {
	self, err := store.Individual(ctx, tree, xref)
	if err != nil {
		return nil, err
	}
	if !store.Visible(self) {
		return nil, fmt.Errorf("individual %s in tree %s: %w", xref, tree, genealogy.ErrNotFound)
	}
	m, err := branches.BuildAncestorMap(ctx, store, self)
	if err != nil {
		return nil, err
	}
	out := make([]ancestorEntry, 0, m.Len())
	for _, a := range m.Entries() {
		e := ancestorEntry{
			Sosa:       a.Sosa,
			Generation: branches.Generation(a.Sosa),
			XRef:       a.Individual.XRef,
			Name:       privateName,
		}
		if store.Visible(a.Individual) {
			e.Name = a.Individual.FullName()
			e.Lifespan = a.Individual.Lifespan
		}
		out = append(out, e)
	}
	return out, nil
}

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors",
	Short: "List the direct-line ancestors of an individual by Sosa number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, release, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer release()

		entries, err := listAncestors(ctx, store, ancestorTree, ancestorSelf)
		if err != nil {
			return err
		}

		switch ancestorFormat {
		case "json":
			return writeJSON(cmd.OutOrStdout(), entries)
		case "text":
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOSA\tGEN\tXREF\tNAME\tLIFESPAN")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", e.Sosa, e.Generation, e.XRef, e.Name, e.Lifespan)
			}
			return tw.Flush()
		default:
			return fmt.Errorf("unknown format %q", ancestorFormat)
		}
	},
}

func init() {
	ancestorsCmd.Flags().StringVarP(&ancestorTree, "tree", "t", "", "Tree (dataset) name")
	ancestorsCmd.Flags().StringVar(&ancestorSelf, "self", "", "Xref of the root individual")
	ancestorsCmd.Flags().StringVarP(&ancestorFormat, "format", "f", "text", "Output format: text or json")
	_ = ancestorsCmd.MarkFlagRequired("tree")
	_ = ancestorsCmd.MarkFlagRequired("self")
	rootCmd.AddCommand(ancestorsCmd)
}
