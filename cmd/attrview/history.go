package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/attrview/internal/transaction"
)

var historyLimit int

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last journaled transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd.Context(), func(ctx context.Context, j *transaction.Journal) error {
			e, err := j.Undo(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "undid %s (%d operations)\n", e.ID, len(e.Undo))
			return nil
		})
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Redo the last undone transaction",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd.Context(), func(ctx context.Context, j *transaction.Journal) error {
			e, err := j.Redo(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "redid %s (%d operations)\n", e.ID, len(e.Do))
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journaled transactions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withJournal(cmd.Context(), func(ctx context.Context, j *transaction.Journal) error {
			entries, err := j.History(ctx, historyLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				mark := " "
				if e.Undone {
					mark = "u"
				}
				fmt.Fprintf(out, "%s %s %s %d ops", mark, e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.ID, len(e.Do))
				for _, op := range e.Do {
					if op.Action == transaction.ActionUpdateCell {
						fmt.Fprintf(out, " %s/%s", op.RowID, op.KeyID)
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of transactions to list")
}

func withJournal(ctx context.Context, fn func(context.Context, *transaction.Journal) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, j, err := openStore(cfg, newLogger(os.Stderr))
	if err != nil {
		return err
	}
	defer j.Close()
	if ctx == nil {
		ctx = context.Background()
	}
	err = fn(ctx, j)
	if errors.Is(err, transaction.ErrNothingToUndo) || errors.Is(err, transaction.ErrNothingToRedo) {
		fmt.Fprintln(os.Stderr, err)
		return nil
	}
	return err
}
