package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore knowledge bases",
		Long: `Snapshots keep the asserted facts and rules in the database named by
--db (or store.path). Restoring replays them, so derived facts come back too.

Examples:
  chainer snapshot save --facts facts.txt --rules rules.txt --label family
  chainer snapshot list
  chainer snapshot restore 01HZX3... "ancestor alice ?who"
  chainer snapshot delete 01HZX3...`,
	}
	cmd.AddCommand(
		newSnapshotSaveCmd(a),
		newSnapshotListCmd(a),
		newSnapshotRestoreCmd(a),
		newSnapshotDeleteCmd(a),
	)
	return cmd
}

func newSnapshotSaveCmd(a *app) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save --facts and --rules as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), a.factsPath, a.rulesPath, true)
			if err != nil {
				return err
			}
			defer e.Close()

			info, err := e.Save(cmd.Context(), label)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "snapshot label")
	return cmd
}

func newSnapshotListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), "", "", true)
			if err != nil {
				return err
			}
			defer e.Close()

			list, err := e.Snapshots(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range list {
				fmt.Fprintf(out, "%s  %s  facts=%d rules=%d  %s\n",
					info.ID, info.CreatedAt.Format(time.RFC3339), info.Facts, info.Rules, info.Label)
			}
			return nil
		},
	}
}

func newSnapshotRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id> [question]",
		Short: "Restore a snapshot and answer a question, or start a REPL on it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), "", "", true)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			if len(args) > 1 {
				answer(e, strings.Join(args[1:], " "), cmd.OutOrStdout())
				return nil
			}
			return runREPL(e, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newSnapshotDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(cmd.Context(), "", "", true)
			if err != nil {
				return err
			}
			defer e.Close()

			for _, id := range args {
				if err := e.DeleteSnapshot(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
