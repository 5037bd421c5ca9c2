package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <question>",
		Short: "Answer one question",
		Long: `Answer one question against --facts and --rules. The question is a fact
that may contain variables, e.g. "ancestor alice ?who".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), a.factsPath, a.rulesPath, false)
			if err != nil {
				return err
			}
			defer e.Close()

			question := strings.Join(args, " ")
			results, err := e.Ask(question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, noAnswer)
				return nil
			}
			for _, r := range results {
				fmt.Fprintln(out, r.String())
			}
			return nil
		},
	}
}
