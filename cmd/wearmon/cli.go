package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/j-veylop/wearmon/internal/config"
	"github.com/j-veylop/wearmon/internal/models"
	"github.com/j-veylop/wearmon/internal/services"
	"github.com/j-veylop/wearmon/internal/services/sleep"
	"github.com/j-veylop/wearmon/internal/version"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	valueColor  = color.New(color.FgWhite, color.Bold)
	dimColor    = color.New(color.FgHiBlack)
	okColor     = color.New(color.FgGreen)
)

// withManager runs fn against a manager that has no device sources. Only
// the database backed operations are available.
func withManager(fn func(*services.Manager) error) error {
	cfg, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	return runWithConfig(cfg, fn)
}

func runWithConfig(cfg *config.Config, fn func(*services.Manager) error) error {
	mgr, err := services.NewManager(cfg, services.Sources{})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	return fn(mgr)
}

func newSleepCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sleep", Short: "Inspect and seed the sleep history"}

	var days int
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Print last night's sleep, or every night of the last --days",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			out := c.OutOrStdout()
			return withManager(func(mgr *services.Manager) error {
				if days <= 1 {
					report, err := mgr.RefreshSleepSummary(ctx)
					if err != nil {
						return err
					}
					if report == nil {
						_, _ = dimColor.Fprintln(out, "No sleep session found.")
						return nil
					}
					printReport(out, *report)
					return nil
				}

				reports, err := mgr.SleepHistory(ctx, rangeForDays(days))
				if err != nil {
					return err
				}
				printHistory(out, reports)
				return nil
			})
		},
	}
	summary.Flags().IntVar(&days, "days", 1, "number of days to list (1, 3 or 7)")

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import sleep sessions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			records, err := sleep.ParseImport(data)
			if err != nil {
				return err
			}

			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				n, err := mgr.ImportSleep(ctx, records)
				if err != nil {
					return err
				}
				_, _ = okColor.Fprintf(c.OutOrStdout(), "Imported %d sleep session(s)\n", n)
				return nil
			})
		},
	}

	debug := &cobra.Command{
		Use:   "debug",
		Short: "Insert a synthetic eight hour night ending now",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				report, err := mgr.InsertDebugSleep(ctx)
				if err != nil {
					return err
				}
				_, _ = okColor.Fprintln(c.OutOrStdout(), "Inserted debug sleep session")
				printReport(c.OutOrStdout(), *report)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored sleep session",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				if err := mgr.DeleteSleep(ctx, args[0]); err != nil {
					return err
				}
				_, _ = okColor.Fprintf(c.OutOrStdout(), "Deleted sleep session %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(summary, importCmd, debug, deleteCmd)
	return cmd
}

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "db", Short: "Inspect and maintain the local database"}

	info := &cobra.Command{
		Use:   "info",
		Short: "Print the database path, schema version and row counts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				stats, err := mgr.DatabaseStats(ctx)
				if err != nil {
					return err
				}
				printDatabaseStats(c.OutOrStdout(), stats)
				return nil
			})
		},
	}

	vacuum := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim space left by deleted rows",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				if err := mgr.CompactDatabase(ctx); err != nil {
					return err
				}
				_, _ = okColor.Fprintln(c.OutOrStdout(), "Database vacuumed")
				return nil
			})
		},
	}

	cmd.AddCommand(info, vacuum)
	return cmd
}

func newWorkoutsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "workouts",
		Short: "List recently recorded workouts",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			return withManager(func(mgr *services.Manager) error {
				workouts, err := mgr.RecentWorkouts(ctx, limit)
				if err != nil {
					return err
				}
				printWorkouts(c.OutOrStdout(), workouts)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of workouts")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(c *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(c.OutOrStdout(), version.Info())
		},
	}
}

func rangeForDays(days int) models.TimeRange {
	switch {
	case days <= 1:
		return models.TimeRangeLastNight
	case days <= 3:
		return models.TimeRange3Days
	default:
		return models.TimeRange7Days
	}
}

func printReport(w io.Writer, r models.SleepReport) {
	title := r.Title
	if title == "" {
		title = "Sleep"
	}
	_, _ = headerColor.Fprintf(w, "%s  %s -> %s\n", title,
		r.Start.Local().Format("Mon Jan 2 15:04"), r.End.Local().Format("15:04"))
	if r.ID != "" {
		_, _ = dimColor.Fprintf(w, "  id %s\n", r.ID)
	}

	s, p := r.Summary, r.Shares
	printStage(w, "Total", s.TotalMinutes, -1)
	printStage(w, "Deep", s.DeepMinutes, p.Deep)
	printStage(w, "Light", s.LightMinutes, p.Light)
	printStage(w, "REM", s.REMMinutes, p.REM)
	printStage(w, "Awake", s.AwakeMinutes, p.Awake)
}

func printStage(w io.Writer, label string, minutes, percent int) {
	_, _ = fmt.Fprintf(w, "  %-6s ", label)
	_, _ = valueColor.Fprintf(w, "%4d min", minutes)
	if percent >= 0 {
		_, _ = dimColor.Fprintf(w, "  %3d%%", percent)
	}
	_, _ = fmt.Fprintln(w)
}

func printHistory(w io.Writer, reports []models.SleepReport) {
	if len(reports) == 0 {
		_, _ = dimColor.Fprintln(w, "No sleep sessions in range.")
		return
	}
	for i, r := range reports {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		printReport(w, r)
	}
}

func printDatabaseStats(w io.Writer, s services.DatabaseStats) {
	_, _ = fmt.Fprintf(w, "  %-15s ", "Path")
	_, _ = valueColor.Fprintln(w, s.Path)
	_, _ = fmt.Fprintf(w, "  %-15s ", "Schema")
	_, _ = valueColor.Fprintf(w, "v%d", s.SchemaVersion)
	if s.Dirty {
		_, _ = dimColor.Fprint(w, " (dirty)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  %-15s ", "Sleep sessions")
	_, _ = valueColor.Fprintf(w, "%d\n", s.SleepSessions)
}

func printWorkouts(w io.Writer, workouts []models.Workout) {
	if len(workouts) == 0 {
		_, _ = dimColor.Fprintln(w, "No workouts recorded.")
		return
	}

	_, _ = headerColor.Fprintf(w, "%-17s %-10s %9s %8s %9s %7s\n",
		"STARTED", "TYPE", "DURATION", "STEPS", "DISTANCE", "MAX HR")
	for _, wo := range workouts {
		_, _ = fmt.Fprintf(w, "%-17s %-10s %9s %8d %7.2fkm %7.0f\n",
			wo.StartedAt.Local().Format("2006-01-02 15:04"),
			wo.ExerciseType,
			wo.ActiveDuration.Truncate(time.Second),
			wo.Totals.Steps,
			wo.Totals.DistanceMeters/1000,
			wo.MaxHeartRate,
		)
	}
}
