package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"newsagent/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Rate, comment on or mark an article as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		url, _ := flags.GetString("url")

		upd := domain.StatusUpdate{URL: url}
		if flags.Changed("rating") {
			rating, _ := flags.GetInt("rating")
			upd.Rating = &rating
		}
		if flags.Changed("comment") {
			comment, _ := flags.GetString("comment")
			upd.Comment = &comment
		}
		if flags.Changed("read") {
			read, _ := flags.GetBool("read")
			upd.Read = &read
		}
		if upd.Rating == nil && upd.Comment == nil && upd.Read == nil {
			return fmt.Errorf("nothing to update: set --rating, --comment or --read")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		article, err := a.status.Update(ctx, upd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (rating: %d, read: %t)\n", article.URL, article.Rating, article.Read)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("url", "", "article url")
	statusCmd.Flags().Int("rating", 0, "rating from 0 to 5")
	statusCmd.Flags().String("comment", "", "free text comment")
	statusCmd.Flags().Bool("read", false, "mark as read")
	_ = statusCmd.MarkFlagRequired("url")
}
