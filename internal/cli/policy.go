package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/slmhealth/internal/control"
	"github.com/vietddude/slmhealth/internal/core/config"
	"github.com/vietddude/slmhealth/internal/core/domain"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage snapshot lifecycle policies",
}

var policyAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Register a policy with no recorded invocations",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
			if err := store.PutPolicy(ctx, domain.PolicyStatus{Name: args[0]}); err != nil {
				return err
			}
			fmt.Printf("Policy %s added\n", args[0])
			return nil
		})
	},
}

var policyDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove a policy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
			if err := store.DeletePolicy(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Policy %s deleted\n", args[0])
			return nil
		})
	},
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List policies and their last invocations",
	Run: func(cmd *cobra.Command, args []string) {
		withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
			state, err := store.State(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintf(w, "MODE: %s\n", state.OperationMode)
			_, _ = fmt.Fprintln(w, "POLICY\tLAST SUCCESS\tLAST FAILURE")
			for _, name := range state.PolicyNames() {
				p := state.Policies[name]
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, formatInvocation(p.LastSuccess), formatInvocation(p.LastFailure))
			}
			return w.Flush()
		})
	},
}

func init() {
	policyCmd.AddCommand(policyAddCmd, policyDeleteCmd, policyListCmd)
	rootCmd.AddCommand(policyCmd)
}

func formatInvocation(inv *domain.SnapshotInvocation) string {
	if inv == nil {
		return "-"
	}
	if inv.SnapshotName == "" {
		return fmt.Sprintf("%d", inv.Timestamp)
	}
	return fmt.Sprintf("%d (%s)", inv.Timestamp, inv.SnapshotName)
}
