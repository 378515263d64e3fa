// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Show trending projects, models and discussions",
	Long: `Trending runs fixed platform queries for popular, recently active
repositories, most-downloaded models and programming discussions. Threads
with community warnings are dropped. The view is cached longer than
searches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		a, _, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.engine.Trending(ctx)
		if err != nil {
			return err
		}
		return writeResponse(os.Stdout, resp, format)
	},
}

func init() {
	trendingCmd.Flags().String("format", formatTable, fmt.Sprintf("output format: %s, %s, %s", formatTable, formatJSON, formatYAML))

	rootCmd.AddCommand(trendingCmd)
}
