// Package app wires configuration, collaborators and the CLI together.
package app

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"standupbot/internal/config"
	"standupbot/internal/httpx"
	"standupbot/internal/integrations/gcal"
	"standupbot/internal/integrations/linear"
	"standupbot/internal/integrations/llm"
	slackbot "standupbot/internal/integrations/slack"
	"standupbot/internal/integrations/weather"
	"standupbot/internal/schedule"
	"standupbot/internal/standup"
	"standupbot/internal/storage/sqlite"
)

var (
	dryRun       bool
	runDate      string
	postSchedule string
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "standupbot",
	Short: "Post a daily standup report to Slack",
	Long: `standupbot gathers yesterday's and today's calendar events and Linear issues,
adds a weather-aware greeting and posts a "Did / Doing" report to Slack.

Examples:
  standupbot run                            # Build and post today's report
  standupbot run --dry-run                  # Print the report without posting
  standupbot run --date "last friday 9am"   # Report as of another moment
  standupbot run --schedule "30 8 * * 1-5"  # Schedule the post for 8:30
  standupbot history --limit 5              # Show recent runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build and deliver the standup report",
	Args:  cobra.NoArgs,
	RunE:  runStandup,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent standup runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the report instead of delivering it")
	runCmd.Flags().StringVar(&runDate, "date", "", `Run as of this moment ("yesterday 9am", "2026-10-15", RFC 3339)`)
	runCmd.Flags().StringVar(&postSchedule, "schedule", "", "Cron expression for a scheduled post (overrides post_schedule)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Timezone=%s Calendar=%s UseStandupChannel=%t LLMProvider=%s Holidays=%d PostSchedule=%q History=%t ExternalHTTPTimeout=%s",
		cfg.Timezone,
		cfg.GoogleCalendarID,
		cfg.UseStandupChannel,
		cfg.LLMProvider,
		len(cfg.Holidays),
		cfg.PostSchedule,
		cfg.HistoryEnabled(),
		appliedHTTPTimeout,
	)
	return cfg
}

func openHistory(cfg config.Config) (*sql.DB, error) {
	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init run history at %s: %w", cfg.DBPath, err)
	}
	log.Printf("Run history database initialized at %s", cfg.DBPath)
	return db, nil
}

func runStandup(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	now := time.Now().In(cfg.Location)
	if runDate != "" {
		parsed, err := parseRunDate(runDate, now)
		if err != nil {
			return err
		}
		now = parsed
		log.Printf("Running as of %s", now.Format(time.RFC3339))
	}

	if postSchedule != "" {
		if err := schedule.Validate(postSchedule); err != nil {
			return err
		}
		cfg.PostSchedule = postSchedule
	}

	runner := &standup.Runner{
		Calendar:     gcal.NewClient(cfg),
		Issues:       linear.NewClient(cfg),
		Weather:      weather.NewClient(cfg),
		Greeter:      llm.NewGreeter(cfg),
		Delivery:     slackbot.NewNotifier(cfg),
		Holidays:     cfg.Holidays,
		Location:     cfg.Location,
		PostSchedule: cfg.PostSchedule,
		DryRun:       dryRun,
	}
	if cfg.HistoryEnabled() {
		db, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		runner.Recorder = sqlite.NewRunLog(db)
	}

	res, err := runner.Run(cmd.Context(), now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun && res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	fmt.Fprintln(out, res.Body)
	if res.Outcome == standup.OutcomeSent && !res.Delivered {
		fmt.Fprintf(out, "Delivery failed: %v\n", res.DeliveryErr)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if !cfg.HistoryEnabled() {
		return fmt.Errorf("run history is disabled; set db_path (or DB_PATH) to enable it")
	}
	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := sqlite.RecentRuns(cmd.Context(), db, historyLimit)
	if err != nil {
		return err
	}
	printRuns(cmd.OutOrStdout(), runs, cfg.Location)
	return nil
}

func printRuns(out io.Writer, runs []sqlite.RunRecord, loc *time.Location) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return
	}
	for _, r := range runs {
		status := r.Outcome
		switch {
		case r.Outcome == standup.OutcomeSent && r.Delivered:
			status = "sent to " + r.ChannelID
		case r.Outcome == standup.OutcomeSent:
			status = "send failed: " + r.DeliveryError
		}
		fmt.Fprintf(out, "%s  %-32s  at %s\n", r.RunDate, status, r.CreatedAt.In(loc).Format("Mon Jan 2 15:04"))
	}
}
