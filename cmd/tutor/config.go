package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/config"
	"github.com/japaniel/tutor/pkg/flashcard"
)

func newConfigCmd(g *globals) *cobra.Command {
	var language, level string
	cmd := &cobra.Command{
		Use:   "config [DEFAULT_DECK]",
		Short: "Show or set the default deck, language and learner level",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var updates [][2]string
			if len(args) == 1 {
				updates = append(updates, [2]string{"default_deck", args[0]})
			}
			if language != "" {
				lang, err := flashcard.ParseLanguage(language)
				if err != nil {
					return err
				}
				updates = append(updates, [2]string{"default_language", string(lang)})
			}
			if level != "" {
				updates = append(updates, [2]string{"learner_level", level})
			}
			for _, u := range updates {
				if err := config.Set(path, u[0], u[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Set %s to %q.\n", u[0], u[1])
			}

			cfg, err := config.Read(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Config file:      %s\n", path)
			fmt.Fprintf(out, "default_deck:     %s\n", cfg.DefaultDeck)
			fmt.Fprintf(out, "default_language: %s\n", cfg.DefaultLanguage)
			fmt.Fprintf(out, "learner_level:    %s\n", cfg.LearnerLevel)
			fmt.Fprintf(out, "llm.provider:     %s\n", cfg.LLM.Provider)
			return nil
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "default language: mandarin or cantonese")
	cmd.Flags().StringVar(&level, "learner-level", "", "learner level used in prompts, e.g. intermediate")
	return cmd
}
