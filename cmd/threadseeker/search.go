// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search repositories, models and discussions for a question",
	Long: `Search classifies the question's intent, generates one query per platform,
fetches GitHub, Hugging Face and Reddit in parallel, and prints the fused
ranking with a summary. Source failures are listed but never abort the
search.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		query = strings.Join(args, " ")
	}
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

	if format == formatJSON {
		data, err := a.engine.SearchJSON(ctx, query)
		if err != nil {
			return err
		}
		return writeIndentedJSON(os.Stdout, data)
	}

	resp, err := a.engine.Search(ctx, query)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, resp, format)
}

func init() {
	searchCmd.Flags().String("query", "", "question to search for (or pass it as arguments)")
	searchCmd.Flags().String("format", formatTable, fmt.Sprintf("output format: %s, %s, %s", formatTable, formatJSON, formatYAML))

	rootCmd.AddCommand(searchCmd)
}
