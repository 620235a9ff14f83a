package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/flashcard"
	"github.com/japaniel/tutor/pkg/notetype"
)

func parseLanguages(list []string) ([]flashcard.Language, error) {
	if len(list) == 0 {
		return flashcard.Languages(), nil
	}
	var out []flashcard.Language
	for _, item := range list {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			lang, err := flashcard.ParseLanguage(s)
			if err != nil {
				return nil, err
			}
			out = append(out, lang)
		}
	}
	return out, nil
}

func newSetupAnkiCmd(g *globals) *cobra.Command {
	var languages []string
	cmd := &cobra.Command{
		Use:   "setup-anki",
		Short: "Create or update the note types the tutor writes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			langs, err := parseLanguages(languages)
			if err != nil {
				return err
			}
			p := notetype.New(e.anki, e.logger)

			var incomplete int
			for _, lang := range langs {
				res, err := p.Provision(cmd.Context(), lang)
				var schemaErr *notetype.SchemaIncompleteError
				switch {
				case errors.As(err, &schemaErr):
					incomplete++
					fmt.Fprintf(e.out, "%s: incomplete, missing fields: %s\n", res.ModelName, strings.Join(schemaErr.Missing, ", "))
					fmt.Fprintln(e.out, "  Add the fields in Anki (Tools > Manage Note Types) and run setup-anki again.")
				case err != nil:
					return err
				case res.Created:
					fmt.Fprintf(e.out, "%s: created\n", res.ModelName)
				case res.Updated:
					fmt.Fprintf(e.out, "%s: up to date, styling refreshed\n", res.ModelName)
				}
			}
			if incomplete > 0 {
				return fmt.Errorf("%d note type(s) need manual changes", incomplete)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "languages to set up, comma separated (default: all)")
	return cmd
}

func newUpdateStylingCmd(g *globals) *cobra.Command {
	var languages []string
	cmd := &cobra.Command{
		Use:   "update-card-styling",
		Short: "Push the latest card templates and stylesheet to existing note types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			langs, err := parseLanguages(languages)
			if err != nil {
				return err
			}
			p := notetype.New(e.anki, e.logger)
			for _, lang := range langs {
				if err := p.UpdateStyling(cmd.Context(), lang); err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s: styling updated\n", lang.ModelName())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "languages to update, comma separated (default: all)")
	return cmd
}
