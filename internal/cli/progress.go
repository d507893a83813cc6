package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/apresai/creatorpilot/internal/observability"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show this week's progress report",
	RunE:  runProgressShow,
}

var progressAddCmd = &cobra.Command{
	Use:   "add <metric> <amount>",
	Short: "Add to a content counter (feed_posts, ppv_drops, story_posts, rest_days)",
	Args:  cobra.ExactArgs(2),
	RunE:  runProgressAdd,
}

var progressRevenueCmd = &cobra.Command{
	Use:   "revenue <amount>",
	Short: "Add revenue earned this week",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressRevenue,
}

var progressSubscribersCmd = &cobra.Command{
	Use:   "subscribers <count>",
	Short: "Add new subscribers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProgressCount(cmd, args[0], (*progress.Tracker).UpdateSubscribers)
	},
}

var progressCustomsCmd = &cobra.Command{
	Use:   "customs <count>",
	Short: "Add completed custom requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProgressCount(cmd, args[0], (*progress.Tracker).UpdateCustoms)
	},
}

var progressSelfCheckCmd = &cobra.Command{
	Use:   "self-check",
	Short: "Record the weekly self-check (unset flags count as no)",
	RunE:  runProgressSelfCheck,
}

var progressUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Interactive wizard to log the week's numbers and self-check",
	RunE:  runProgressUpdate,
}

var progressHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously saved reports",
	RunE:  runProgressHistory,
}

var progressResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a new week with all counters at zero",
	RunE:  runProgressReset,
}

var (
	flagJSON            bool
	flagHistoryLimit    int
	flagProtectedEnergy bool
	flagReinforcedValue bool
	flagStayedCalm      bool
	flagFeltIntentional bool
)

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.AddCommand(progressAddCmd, progressRevenueCmd, progressSubscribersCmd, progressCustomsCmd,
		progressSelfCheckCmd, progressUpdateCmd, progressHistoryCmd, progressResetCmd)

	progressCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the report as JSON")
	progressHistoryCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 10, "Number of reports to show")

	f := progressSelfCheckCmd.Flags()
	f.BoolVar(&flagProtectedEnergy, "protected-energy", false, "I protected my energy")
	f.BoolVar(&flagReinforcedValue, "reinforced-value", false, "I reinforced my value")
	f.BoolVar(&flagStayedCalm, "stayed-calm", false, "I stayed calm")
	f.BoolVar(&flagFeltIntentional, "felt-intentional", false, "The week felt intentional")
}

func runProgressShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := loadTracker(a.cfg.Progress.File, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		return printReport(cmd, t)
	})
}

func printReport(cmd *cobra.Command, t *progress.Tracker) error {
	report := t.BuildReport()
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	progress.NewRenderer(cmd.OutOrStdout()).Render(report, t.SelfCheck())
	return nil
}

// mutate loads the week, applies fn, saves and prints the new report.
func mutate(cmd *cobra.Command, fn func(t *progress.Tracker)) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := loadTracker(a.cfg.Progress.File, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fn(t)
		if err := a.saveTracker(ctx, t); err != nil {
			return err
		}
		return printReport(cmd, t)
	})
}

func runProgressAdd(cmd *cobra.Command, args []string) error {
	metric, err := progress.ParseMetric(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	if err := progress.CheckAmount(amount); err != nil {
		return err
	}
	return mutate(cmd, func(t *progress.Tracker) {
		t.UpdateContent(metric, amount)
	})
}

func runProgressRevenue(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	if err := progress.CheckAmount(amount); err != nil {
		return err
	}
	return mutate(cmd, func(t *progress.Tracker) {
		t.UpdateRevenue(amount)
	})
}

func runProgressCount(cmd *cobra.Command, arg string, update func(*progress.Tracker, int)) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", arg, err)
	}
	return mutate(cmd, func(t *progress.Tracker) {
		update(t, n)
	})
}

func runProgressSelfCheck(cmd *cobra.Command, args []string) error {
	return mutate(cmd, func(t *progress.Tracker) {
		t.CompleteSelfCheck(flagProtectedEnergy, flagReinforcedValue, flagStayedCalm, flagFeltIntentional)
	})
}

func runProgressUpdate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		t, err := loadTracker(a.cfg.Progress.File, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		entry, err := runUpdateWizard(t)
		if err != nil {
			return err
		}
		entry.apply(t)
		if err := a.saveTracker(ctx, t); err != nil {
			return err
		}
		return printReport(cmd, t)
	})
}

func runProgressHistory(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		rows, err := a.rec.Reports(ctx, flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(rows) == 0 {
			fmt.Fprintln(out, "No saved reports yet.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SAVED\tOVERALL\tAVG\tREVENUE\tNEW SUBS\tSELF-CHECK")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t$%.2f\t%d\t%s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04"),
				progress.OverallLabel(r.OverallStatus),
				r.AvgProgress,
				r.WeeklyRevenue,
				r.NewSubscribers,
				progress.SelfCheckLabel(r.SelfCheckStatus))
		}
		return tw.Flush()
	})
}

func runProgressReset(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		path := a.cfg.Progress.File
		if prev, err := progress.LoadFile(path); err == nil {
			closing := prev.BuildReport()
			if err := a.rec.RecordReport(observability.DetachTraceContext(ctx), closing); err != nil {
				a.log.WarnContext(ctx, "could not record closing report", "error", err)
			}
		} else if !errors.Is(err, progress.ErrNotFound) {
			a.log.WarnContext(ctx, "discarding unreadable progress", "file", path, "error", err)
		}

		if err := progress.New().Save(path); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Started a new week in %s\n", path)
		return nil
	})
}
