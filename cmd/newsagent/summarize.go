package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate and store a summary for an article",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		article, err := a.summary.Summarize(ctx, url)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), *article.Summary)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().String("url", "", "article url")
	_ = summarizeCmd.MarkFlagRequired("url")
}
