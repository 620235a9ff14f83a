package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/article"
	"github.com/japaniel/tutor/pkg/tutor"
)

func newGenerateCmd(g *globals) *cobra.Command {
	var deck, language string
	cmd := &cobra.Command{
		Use:     "generate-flashcard-from-word [WORD...]",
		Aliases: []string{"g"},
		Short:   "Generate and add flashcards for words that are not in the deck yet",
		Long: "Generate and add flashcards for words that are not in the deck yet.\n" +
			"With no arguments, words are read from stdin one per line and confirmation is skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			opts, err := e.options(g, deck, language)
			if err != nil {
				return err
			}

			words := args
			if len(words) == 0 {
				if words, err = readWords(e.in); err != nil {
					return err
				}
				opts.SkipConfirm = true
			}
			if len(words) == 0 {
				return errors.New("no words given")
			}

			svc, err := e.service(e.confirmer())
			if err != nil {
				return err
			}
			report, err := svc.GenerateForWords(cmd.Context(), words, opts)
			printReport(e.out, report)
			return err
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "deck to add cards to (default: default_deck)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "mandarin or cantonese (default: default_language)")
	return cmd
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		for _, w := range strings.Fields(sc.Text()) {
			words = append(words, w)
		}
	}
	return words, sc.Err()
}

func newRegenerateCmd(g *globals) *cobra.Command {
	var deck, language string
	cmd := &cobra.Command{
		Use:     "regenerate-flashcard WORD",
		Aliases: []string{"rg"},
		Short:   "Regenerate the content and audio of an existing card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			opts, err := e.options(g, deck, language)
			if err != nil {
				return err
			}
			svc, err := e.service(e.confirmer())
			if err != nil {
				return err
			}

			res, err := svc.Regenerate(cmd.Context(), args[0], opts)
			switch {
			case errors.Is(err, tutor.ErrNotFound):
				fmt.Fprintf(e.out, "Could not find a card for %q in %q.\n", res.Word, opts.Deck)
				return nil
			case errors.Is(err, tutor.ErrAmbiguous):
				fmt.Fprintf(e.out, "Multiple cards match %q in %q; fix them in Anki first.\n", res.Word, opts.Deck)
				return nil
			case err != nil && !tutor.IsStructural(err):
				fmt.Fprintf(e.out, "%s: failed: %v\n", res.Word, err)
				return nil
			case err != nil:
				return err
			}
			if res.Outcome == tutor.Declined {
				fmt.Fprintf(e.out, "%s: skipped\n", res.Word)
				return nil
			}
			fmt.Fprintf(e.out, "%s: updated (note %d)\n", res.Word, res.NoteID)
			return nil
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "deck holding the card (default: default_deck)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "mandarin or cantonese (default: default_language)")
	return cmd
}

func newFixCardsCmd(g *globals) *cobra.Command {
	var (
		deck, language string
		dryRun, force  bool
		limit          int
	)
	cmd := &cobra.Command{
		Use:   "fix-cards",
		Short: "Fill in missing content and audio on existing cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			opts, err := e.options(g, deck, language)
			if err != nil {
				return err
			}
			if language == "" {
				// Infer per note from its note type.
				opts.Language = ""
			}
			svc, err := e.service(nil)
			if err != nil {
				return err
			}

			stats, err := svc.FixCards(cmd.Context(), tutor.FixOptions{Options: opts, DryRun: dryRun, Limit: limit, ForceUpdate: force})
			verb := "Updated"
			if dryRun {
				verb = "Would update"
			}
			fmt.Fprintf(e.out, "Cards: %d. %s content on %d, audio on %d. Skipped %d, over limit %d, failed %d.\n",
				stats.Total, verb, stats.Updated, stats.AudioUpdated, stats.Skipped, stats.Deferred, stats.Failed)
			if stats.Interrupted {
				fmt.Fprintln(e.out, "Interrupted.")
			}
			return err
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "deck to fix (default: default_deck)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "treat every card as this language instead of inferring it")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().IntVar(&limit, "limit", 0, "fix at most N cards (0 for all)")
	cmd.Flags().BoolVar(&force, "force-update", false, "regenerate content and audio for every card")
	return cmd
}

func newLesserKnownCmd(g *globals) *cobra.Command {
	var (
		deck  string
		count int
		days  int
	)
	cmd := &cobra.Command{
		Use:   "list-lesser-known-cards",
		Short: "List random cards recently answered again or hard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			opts, err := e.options(g, deck, "")
			if err != nil {
				return err
			}
			opts.Language = ""
			svc := tutor.New(tutor.Deps{Store: e.anki, Logger: e.logger})
			cards, err := svc.LesserKnown(cmd.Context(), opts, count, days)
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintf(e.out, "No cards in %q were rated again or hard in the last %d day(s).\n", opts.Deck, days)
				return nil
			}
			for _, c := range cards {
				fmt.Fprintf(e.out, "%s (%s) - %s\n", c.Word, c.Pronunciation, c.English)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "deck to search (default: default_deck)")
	cmd.Flags().IntVar(&count, "count", 5, "number of cards to list")
	cmd.Flags().IntVar(&days, "days", 7, "look back this many days")
	return cmd
}

func newArticleCmd(g *globals) *cobra.Command {
	var deck, language, subdeck string
	cmd := &cobra.Command{
		Use:   "generate-flashcards-from-article URL|FILE",
		Short: "Extract vocabulary cards from an article into a subdeck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			opts, err := e.options(g, deck, language)
			if err != nil {
				return err
			}
			art, err := article.NewFetcher(nil).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			e.logger.Info("article loaded", slog.String("title", art.Title), slog.Int("runes", len([]rune(art.Text))))

			svc, err := e.service(e.confirmer())
			if err != nil {
				return err
			}
			report, err := svc.FromArticle(cmd.Context(), art, tutor.ArticleOptions{Options: opts, Subdeck: subdeck})
			printReport(e.out, report)
			return err
		},
	}
	cmd.Flags().StringVar(&deck, "deck", "", "base deck (default: default_deck)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "mandarin or cantonese (default: default_language)")
	cmd.Flags().StringVar(&subdeck, "subdeck", "", "subdeck name (default: article title)")
	return cmd
}
