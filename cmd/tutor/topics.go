package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/tutor/pkg/topics"
)

func newTopicsPromptCmd(g *globals) *cobra.Command {
	var path string
	var num int
	cmd := &cobra.Command{
		Use:   "generate-topics-prompt",
		Short: "Print a prompt asking a chat model for new conversation topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = e.cfg.TopicsPath
			}
			past, err := topics.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, topics.Prompt(past, num))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "conversation-topics-path", "", "YAML file with past topics (default: topics_path)")
	cmd.Flags().IntVar(&num, "num-topics", 10, "number of new topics to ask for")
	return cmd
}

func newSelectTopicCmd(g *globals) *cobra.Command {
	var path string
	var markUsed bool
	cmd := &cobra.Command{
		Use:   "select-conversation-topic",
		Short: "Pick a random unused conversation topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.load(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path = e.cfg.TopicsPath
			}
			list, err := topics.Load(path)
			if err != nil {
				return err
			}
			i, err := topics.SelectUnused(list)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, list[i])
			if markUsed {
				list[i].Used = true
				return topics.Save(path, list)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "conversation-topics-path", "", "YAML file with topics (default: topics_path)")
	cmd.Flags().BoolVar(&markUsed, "mark-used", false, "mark the selected topic as used")
	return cmd
}
