package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/chainer/pkg/chainer"
)

const noAnswer = "There is no true statements"

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl [facts rules]",
		Short: "Answer questions read from stdin, one per line",
		Long: `Load the facts file, then the rules file, then answer every line read from
stdin. Each answer prints one binding set per line, or "` + noAnswer + `".
"exit" quits.

Commands:
  :tell <fact or rule>   add a statement
  :explain <fact>        show why a fact holds
  :facts                 list stored facts
  :rules                 list stored rules
  :stats                 show counters`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			factsPath, rulesPath := a.factsPath, a.rulesPath
			if len(args) > 0 {
				factsPath = args[0]
			}
			if len(args) > 1 {
				rulesPath = args[1]
			}

			e, err := a.engine(cmd.Context(), factsPath, rulesPath, false)
			if err != nil {
				return err
			}
			defer e.Close()

			return runREPL(e, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runREPL reads questions and commands from in until EOF or "exit".
func runREPL(e *chainer.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "exit":
			return nil
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			command(e, line, out)
		default:
			answer(e, line, out)
		}
	}
	return scanner.Err()
}

// answer prints the binding sets for question.
func answer(e *chainer.Engine, question string, out io.Writer) {
	results, err := e.Ask(question)
	if err != nil {
		fmt.Fprintln(out, "Error:", err)
		return
	}
	if len(results) == 0 {
		fmt.Fprintln(out, noAnswer)
		return
	}
	for _, r := range results {
		fmt.Fprintln(out, r.String())
	}
}

func command(e *chainer.Engine, line string, out io.Writer) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case ":tell":
		if err := e.Tell(rest); err != nil {
			fmt.Fprintln(out, "Error:", err)
			return
		}
		fmt.Fprintln(out, "ok")
	case ":explain":
		tree, err := e.Explain(rest)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			return
		}
		fmt.Fprint(out, tree)
	case ":facts":
		for _, f := range e.Facts() {
			if f.Asserted {
				fmt.Fprintln(out, f.String())
			} else {
				fmt.Fprintf(out, "%s (derived)\n", f)
			}
		}
	case ":rules":
		for _, r := range e.Rules() {
			if r.Asserted {
				fmt.Fprintln(out, r.String())
			} else {
				fmt.Fprintf(out, "%s (derived)\n", r)
			}
		}
	case ":stats":
		s := e.Stats()
		fmt.Fprintf(out, "facts: %d\nrules: %d\nderivations: %d\nmerges: %d\nchecks: %d\n",
			s.Facts, s.Rules, s.Derivations, s.Merges, s.Checks)
	default:
		fmt.Fprintf(out, "Error: unknown command %s\n", name)
	}
}
