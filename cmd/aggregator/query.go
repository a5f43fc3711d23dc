package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/finscope/aggregator/internal/platform"
	"github.com/finscope/aggregator/internal/query"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [free-text query]",
		Short: "Resolve a finance query across every enabled provider",
		Long:  "Parses free text (or explicit flags) into a normalized query and dispatches it through the federation engine",
		RunE:  runQuery,
	}

	cmd.Flags().String("ticker", "", "Explicit ticker symbol (overrides inference)")
	cmd.Flags().String("intent", "", "Explicit intent: quote|fundamentals|filings|insider|news")
	cmd.Flags().String("form", "", "Filing form filter (e.g. 10-K), only applies to filings intent")
	cmd.Flags().String("coverage", "default", "default|comprehensive")
	cmd.Flags().Bool("refresh", false, "Bypass the TTL cache")
	cmd.Flags().String("providers-config", "providers.yaml", "Path to providers.yaml")
	cmd.Flags().Duration("timeout", 12*time.Second, "Per-call timeout")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) > 0 {
		text = args[0]
	}

	ticker, _ := cmd.Flags().GetString("ticker")
	intent, _ := cmd.Flags().GetString("intent")
	form, _ := cmd.Flags().GetString("form")
	coverage, _ := cmd.Flags().GetString("coverage")
	refresh, _ := cmd.Flags().GetBool("refresh")
	providersPath, _ := cmd.Flags().GetString("providers-config")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	dataRoot, _ := cmd.Flags().GetString("data-root")

	normalized, err := query.Parse(query.Input{
		Query:    text,
		Ticker:   ticker,
		Intent:   intent,
		Form:     form,
		Coverage: coverage,
	})
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}
	normalized.Refresh = refresh

	log.Info().
		Str("ticker", normalized.Ticker).
		Str("intent", string(normalized.Intent)).
		Str("coverage", string(normalized.Coverage)).
		Msg("resolving query")

	engine := buildEngine(dataRoot, providersPath)

	ctx, cancel := platform.Compose(cmd.Context(), timeout)
	defer cancel()

	result := engine.Resolve(ctx, normalized)

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(encoded))

	if len(result.Errors) > 0 {
		log.Warn().Strs("errors", result.Errors).Msg("query completed with provider errors")
	}
	return nil
}
