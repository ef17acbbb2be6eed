package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentic-research/kinbranch/api"
	"github.com/agentic-research/kinbranch/internal/branches"
	"github.com/agentic-research/kinbranch/internal/genealogy"
)

var (
	branchTree    string
	branchSurname string
	branchSelf    string
	branchStd     bool
	branchDM      bool
	branchFormat  string
)

// branchesParams are the inputs shared by the CLI command and the MCP tool.
type branchesParams struct {
	Tree    string
	Surname string
	Self    string
	Std     bool
	DM      bool
}

// runBranches resolves the self individual and renders the forest. When no
// surname is given, the surname of self's first name is used. A self the
// store hides is ignored.
func runBranches(ctx context.Context, e *branches.Engine, store genealogy.Store, p branchesParams) (*api.Forest, error) {
	var self *genealogy.Individual
	if p.Self != "" {
		ind, err := store.Individual(ctx, p.Tree, p.Self)
		if err != nil {
			return nil, fmt.Errorf("self: %w", err)
		}
		if store.Visible(ind) {
			self = ind
		}
	}
	surname := p.Surname
	if surname == "" && self != nil && len(self.Names) > 0 {
		surname = self.Names[0].Surn
	}
	return e.RenderBranches(ctx, branches.Request{
		Tree:       p.Tree,
		Surname:    surname,
		SoundexStd: p.Std,
		SoundexDM:  p.DM,
		Self:       self,
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "Render the family branches of a surname",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if branchSurname == "" && branchSelf == "" {
			return fmt.Errorf("one of --surname or --self is required")
		}
		if !cmd.Flags().Changed("soundex-std") {
			branchStd = cfg.Branches.SoundexStd
		}
		if !cmd.Flags().Changed("soundex-dm") {
			branchDM = cfg.Branches.SoundexDM
		}

		ctx := cmd.Context()
		store, release, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer release()

		e, err := newEngine(store, nil)
		if err != nil {
			return err
		}
		forest, err := runBranches(ctx, e, store, branchesParams{
			Tree:    branchTree,
			Surname: branchSurname,
			Self:    branchSelf,
			Std:     branchStd,
			DM:      branchDM,
		})
		if err != nil {
			return err
		}

		switch branchFormat {
		case "json":
			return writeJSON(cmd.OutOrStdout(), forest)
		case "outline":
			return api.WriteOutline(cmd.OutOrStdout(), forest)
		default:
			return fmt.Errorf("unknown format %q", branchFormat)
		}
	},
}

func init() {
	branchesCmd.Flags().StringVarP(&branchTree, "tree", "t", "", "Tree (dataset) name")
	branchesCmd.Flags().StringVar(&branchSurname, "surname", "", "Surname to draw (defaults to the surname of --self)")
	branchesCmd.Flags().StringVar(&branchSelf, "self", "", "Xref of the individual whose ancestors are highlighted")
	branchesCmd.Flags().BoolVar(&branchStd, "soundex-std", false, "Also match surnames sharing a Russell soundex code")
	branchesCmd.Flags().BoolVar(&branchDM, "soundex-dm", false, "Also match surnames sharing a Daitch-Mokotoff code")
	branchesCmd.Flags().StringVarP(&branchFormat, "format", "f", "outline", "Output format: outline or json")
	_ = branchesCmd.MarkFlagRequired("tree")
	rootCmd.AddCommand(branchesCmd)
}
