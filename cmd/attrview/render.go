package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/attrview/internal/avstore"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/view"
)

var renderCmd = &cobra.Command{
	Use:   "render <avID> [rowID colID]",
	Short: "Print the cell markup of a view",
	Long: `Render prints the markup of every cell of an attribute view, one
cell per line, or of a single cell when a row and column id are given.

Example:
  attrview render 20240101120000-abcdefg
  attrview render 20240101120000-abcdefg r1 c2`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 3 {
			return fmt.Errorf("accepts 1 or 3 args, received %d", len(args))
		}
		return nil
	},
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, err := avstore.New(cfg.Store.DataDir).Load(args[0])
	if err != nil {
		return err
	}
	opts := codec.DefaultOptions()
	opts.ShowIcon = cfg.Editor.ShowIcon

	out := cmd.OutOrStdout()
	if len(args) == 3 {
		ref := view.CellRef{RowID: args[1], ColID: args[2]}
		val, err := v.Value(ref)
		if err != nil {
			return fmt.Errorf("cell %s/%s: %w", ref.RowID, ref.ColID, err)
		}
		opts.RowIndex = v.RowIndex(ref.RowID)
		fmt.Fprintln(out, codec.RenderCell(val, ref.ColID, opts))
		return nil
	}
	for i, row := range v.Rows {
		opts.RowIndex = i
		for _, col := range v.Columns {
			val, err := v.Value(view.CellRef{RowID: row.ID, ColID: col.ID})
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", row.ID, col.ID, codec.RenderCell(val, col.ID, opts))
		}
	}
	return nil
}
