package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newsagent/internal/service"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Run one crawl now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd, func(ctx context.Context, a *app) (*service.Result, error) {
			return a.tasks.Crawl(ctx)
		})
	},
}

var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Send digests for every unsent article now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(cmd, func(ctx context.Context, a *app) (*service.Result, error) {
			return a.tasks.Deliver(ctx)
		})
	},
}

func runTask(cmd *cobra.Command, run func(context.Context, *app) (*service.Result, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := run(ctx, a)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}
