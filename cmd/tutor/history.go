package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/db"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent flashcard outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			conn, err := db.Open(e.cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			gens, err := db.RecentGenerations(conn, limit)
			if err != nil {
				return err
			}
			if len(gens) == 0 {
				fmt.Fprintln(e.out, "No history yet.")
				return nil
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tWORD\tLANGUAGE\tSTATUS\tDECK\tNOTE")
			for _, gen := range gens {
				note := "-"
				if gen.NoteID != 0 {
					note = fmt.Sprint(gen.NoteID)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					gen.CreatedAt.Local().Format("2006-01-02 15:04"), gen.Word, gen.Language, gen.Status, gen.Deck, note)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}
