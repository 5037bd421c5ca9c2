package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newExplainCmd(a *app) *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "explain <fact>",
		Short: "Show why a fact holds",
		Long: `Print the justification tree of a stored fact: the rules and facts it was
derived from, down to asserted statements. --html writes a standalone HTML
page instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), a.factsPath, a.rulesPath, false)
			if err != nil {
				return err
			}
			defer e.Close()

			fact := strings.Join(args, " ")
			if asHTML {
				return e.ExplainHTML(cmd.OutOrStdout(), fact)
			}
			tree, err := e.Explain(fact)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tree)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "write HTML")
	return cmd
}
