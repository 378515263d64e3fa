// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/threadseeker/pkg/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown format %q: want %s, %s or %s", format, formatTable, formatJSON, formatYAML)
}

// writeResponse renders resp in the requested format.
func writeResponse(w io.Writer, resp *types.SearchResponse, format string) error {
	switch format {
	case formatJSON:
		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		return writeIndentedJSON(w, data)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		return enc.Close()
	default:
		writeTable(w, resp)
		return nil
	}
}

// writeIndentedJSON re-indents already serialized JSON.
func writeIndentedJSON(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("indenting response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// writeTable writes the fused ranking as a human-readable table followed by
// the summary and any non-fatal errors.
func writeTable(w io.Writer, resp *types.SearchResponse) {
	fmt.Fprintf(w, "Query: %s  (intent: %s, queries by %s)\n\n", resp.Query, resp.Intent, resp.Queries.Provider)

	if len(resp.Ranked) == 0 {
		fmt.Fprintln(w, "No results found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-10s  %-50s  %-12s  %-7s  %s\n",
			"Rank", "Source", "Title", "Signal", "Score", "URL")
		fmt.Fprintln(w, strings.Repeat("-", 120))

		for _, e := range resp.Ranked {
			fmt.Fprintf(w, "%-4d  %-10s  %-50s  %-12s  %-7.1f  %s\n",
				e.Rank, e.Record.Source, truncate(e.Record.Title, 50), recordSignal(e.Record), e.Score, e.Record.Identifier)
		}
		fmt.Fprintf(w, "\n%d results in %dms\n", len(resp.Ranked), resp.DurationMS)
	}

	fmt.Fprintf(w, "\nSummary (%s):\n%s\n", resp.SummaryProvider, resp.Summary)

	if len(resp.Errors) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, e := range resp.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

// recordSignal is the most telling per-source attribute of a record.
func recordSignal(r types.ResultRecord) string {
	switch r.Source {
	case types.SourceRepo:
		return fmt.Sprintf("%d★ %s", r.Stars, r.Status)
	case types.SourceModel:
		return fmt.Sprintf("%d dl", r.Downloads)
	case types.SourceDiscussion:
		if r.HasWarning {
			return "warning"
		}
		return fmt.Sprintf("%d up", r.Upvotes)
	}
	return ""
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
