package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/slmhealth/internal/control"
	"github.com/vietddude/slmhealth/internal/core/config"
	"github.com/vietddude/slmhealth/internal/health"
)

var (
	statusExplain bool
	statusJSON    bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Evaluate SLM health once and print the report",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusExplain, "explain", false, "include details, impacts and diagnosis")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
		monitor, err := control.NewMonitor(cfg, store)
		if err != nil {
			return err
		}

		report := monitor.CheckHealth(ctx, statusExplain)
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(os.Stdout, report, statusExplain)
		return nil
	})
}

func printReport(out io.Writer, report *health.Report, explain bool) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDICATOR\tSTATUS\tSUMMARY")

	names := make([]string, 0, len(report.Indicators))
	for name := range report.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ind := report.Indicators[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.ToUpper(string(ind.Status)), ind.Summary)
	}
	_, _ = fmt.Fprintf(w, "OVERALL\t%s\t%s\n", strings.ToUpper(string(report.Status)), report.Status.Label())
	_ = w.Flush()

	if !explain {
		return
	}
	for _, name := range names {
		ind := report.Indicators[name]
		if len(ind.Details) > 0 {
			details, _ := json.Marshal(ind.Details)
			_, _ = fmt.Fprintf(out, "\n[%s] details: %s\n", name, details)
		}
		for _, imp := range ind.Impacts {
			_, _ = fmt.Fprintf(out, "[%s] impact (severity %d): %s\n", name, imp.Severity, imp.Description)
		}
		for _, act := range ind.Actions {
			_, _ = fmt.Fprintf(out, "[%s] %s: %s %s\n", name, act.Definition.ID, act.Definition.Cause, act.Definition.Action)
			if len(act.AffectedResources) > 0 {
				_, _ = fmt.Fprintf(out, "[%s]   affected: %s\n", name, strings.Join(act.AffectedResources, ", "))
			}
		}
	}
}
