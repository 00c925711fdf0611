package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/constants"
	"github.com/kozaktomas/photo-diary/internal/database"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "List dates, weeks and months with diary content",
	Long: `Lists which units of a date range would produce pages: dates with a
non-blank note, a photo or a sticker, the Mondays of weeks containing such
dates, and the months containing them.`,
	RunE: runCalendar,
}

func init() {
	rootCmd.AddCommand(calendarCmd)

	calendarCmd.Flags().String("from", "", "First date (YYYY-MM-DD)")
	calendarCmd.Flags().String("to", "", "Last date (YYYY-MM-DD)")
	calendarCmd.Flags().String("owner", "", "Diary owner (defaults to DIARY_OWNER)")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	owner := mustGetString(cmd, "owner")
	if owner == "" {
		owner = cfg.Export.DefaultOwner
	}
	if owner == "" {
		return errors.New("--owner or DIARY_OWNER is required")
	}
	from, err := database.ParseDate(mustGetString(cmd, "from"))
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := database.ParseDate(mustGetString(cmd, "to"))
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	if from.After(to) {
		return errors.New("--from is after --to")
	}

	closeStore, err := initEntryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	stack, err := newExportStack(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer stack.Close()

	dates, err := stack.provider.DatesWithContent(ctx, owner, from, to)
	if err != nil {
		return fmt.Errorf("failed to list dates: %w", err)
	}
	weeks, err := stack.provider.WeeksWithContent(ctx, owner, from, to)
	if err != nil {
		return fmt.Errorf("failed to list weeks: %w", err)
	}
	months, err := stack.provider.MonthsWithContent(ctx, owner, from, to)
	if err != nil {
		return fmt.Errorf("failed to list months: %w", err)
	}

	fmt.Printf("Dates with content (%d):\n", len(dates))
	for _, d := range dates {
		fmt.Printf("  %s %s\n", d.Format(constants.DateLayout), d.Weekday().String()[:3])
	}
	weekLabels := make([]string, 0, len(weeks))
	for _, w := range weeks {
		weekLabels = append(weekLabels, w.Format(constants.DateLayout))
	}
	monthLabels := make([]string, 0, len(months))
	for _, m := range months {
		monthLabels = append(monthLabels, m.String())
	}
	fmt.Printf("Weeks (%d): %s\n", len(weeks), strings.Join(weekLabels, ", "))
	fmt.Printf("Months (%d): %s\n", len(months), strings.Join(monthLabels, ", "))
	return nil
}
