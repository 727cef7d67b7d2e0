package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/planwise/internal/observability"
)

var (
	statsJSON  bool
	statsSince string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show activity counters and sync health",
	Long: `Summarize the local event log: tasks created, completed and reordered,
the points those completions were worth, and sync failures by kind.

Active alerts follow the counters: a session the backend rejected, repeated
sync failures, frequent out-of-order reloads, and a list that has not been
refreshed for a long time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log unavailable)")
		}

		since, err := observability.ParseSince(statsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		var alerts []observability.Alert
		if AlertEngine != nil {
			alerts, err = AlertEngine.Evaluate()
			if err != nil {
				return fmt.Errorf("evaluating alerts: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			data, err := sonic.MarshalIndent(struct {
				Metrics *observability.Metrics `json:"metrics"`
				Alerts  []observability.Alert  `json:"alerts"`
			}{metrics, alerts}, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Activity (since %s)\n\n", since.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-22s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-22s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Fprintf(out, "  %-22s %d\n", "Tasks updated:", metrics.TasksUpdated)
		fmt.Fprintf(out, "  %-22s %d\n", "Tasks completed:", metrics.TasksCompleted)
		fmt.Fprintf(out, "  %-22s %d\n", "Tasks reopened:", metrics.TasksReopened)
		fmt.Fprintf(out, "  %-22s %d\n", "Tasks deleted:", metrics.TasksDeleted)
		fmt.Fprintf(out, "  %-22s %d\n", "Reorders:", metrics.Reorders)
		fmt.Fprintf(out, "  %-22s %d\n", "Points (preview):", metrics.PointsPreview)
		fmt.Fprintf(out, "  %-22s %d\n", "Reloads:", metrics.Reloads)
		fmt.Fprintf(out, "  %-22s %d\n", "Stale reloads dropped:", metrics.StaleDiscarded)
		fmt.Fprintf(out, "  %-22s %d\n", "Sync failures:", metrics.SyncFailures)

		if len(metrics.FailuresByKind) > 0 {
			fmt.Fprintln(out, "\n  Failures by kind:")
			for _, k := range sortedKeys(metrics.FailuresByKind) {
				fmt.Fprintf(out, "    %-20s %d\n", k+":", metrics.FailuresByKind[k])
			}
		}
		if len(metrics.FailuresByOp) > 0 {
			fmt.Fprintln(out, "\n  Failures by operation:")
			for _, k := range sortedKeys(metrics.FailuresByOp) {
				fmt.Fprintf(out, "    %-20s %d\n", k+":", metrics.FailuresByOp[k])
			}
		}

		if len(alerts) == 0 {
			fmt.Fprintln(out, "\nNo active alerts.")
			return nil
		}
		fmt.Fprintf(out, "\n%d active alert(s):\n", len(alerts))
		notifier := observability.NewWriterNotifier(out)
		for _, a := range alerts {
			notifier.Notify(observability.AlertNotice(a))
		}
		return nil
	},
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")
	statsCmd.Flags().StringVar(&statsSince, "since", observability.DefaultSince, "Time window (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(statsCmd)
}
