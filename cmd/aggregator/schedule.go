package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newScheduleCmd mirrors the teacher's cmd_schedule.go job-daemon shape,
// generalized to periodic backtest/darkpool re-runs via robfig/cron/v3
// instead of the teacher's own hand-rolled scan scheduler.
func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run backtest/darkpool workflows on a cron schedule",
		Long:  "Starts a daemon that re-runs a political-backtest or darkpool command on a cron schedule until interrupted",
		RunE:  runSchedule,
	}

	cmd.Flags().String("cron", "0 6 * * *", "Cron schedule (standard 5-field, local time)")
	cmd.Flags().String("run", "", "The aggregator subcommand line to execute each tick, e.g. 'backtest political --ticker=AAPL' (required)")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	spec, _ := cmd.Flags().GetString("cron")
	runLine, _ := cmd.Flags().GetString("run")
	if runLine == "" {
		return fmt.Errorf("--run is required, e.g. --run=\"backtest political --ticker=AAPL\"")
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		log.Info().Str("run", runLine).Msg("scheduled tick firing")
		if err := executeSubcommand(cmd.Root(), runLine); err != nil {
			log.Error().Err(err).Str("run", runLine).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	fmt.Printf("Scheduler started: %q every %q\n", runLine, spec)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Scheduler stopping")
	return nil
}

// executeSubcommand re-dispatches a space-separated subcommand line through
// the root command's normal Execute path, so persistent flags (--data-root)
// merge the same way they do for a direct invocation.
func executeSubcommand(root *cobra.Command, line string) error {
	fields, err := splitArgsLine(line)
	if err != nil {
		return err
	}
	root.SetArgs(fields)
	return root.Execute()
}

// splitArgsLine splits a shell-like argument line on whitespace. It does not
// attempt quote handling; scheduled run lines are expected to be simple
// flag=value pairs with no embedded spaces.
func splitArgsLine(line string) ([]string, error) {
	var fields []string
	var current []rune
	for _, r := range line {
		if r == ' ' || r == '\t' {
			if len(current) > 0 {
				fields = append(fields, string(current))
				current = nil
			}
			continue
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		fields = append(fields, string(current))
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command line")
	}
	return fields, nil
}
