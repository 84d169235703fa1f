package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vietddude/slmhealth/internal/control"
	"github.com/vietddude/slmhealth/internal/core/config"
	"github.com/vietddude/slmhealth/internal/core/opmode"
)

var setModeReason string

var setModeCmd = &cobra.Command{
	Use:   "set-mode [running|stopping|stopped]",
	Short: "Change the SLM operation mode",
	Args:  cobra.ExactArgs(1),
	Run:   runSetMode,
}

func init() {
	setModeCmd.Flags().StringVar(&setModeReason, "reason", "", "reason recorded in the log")
	rootCmd.AddCommand(setModeCmd)
}

func runSetMode(cmd *cobra.Command, args []string) {
	withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
		mode, err := opmode.Parse(args[0])
		if err != nil {
			return err
		}
		state, err := store.State(ctx)
		if err != nil {
			return err
		}
		tr := opmode.NewTransition(state.OperationMode, mode, setModeReason)

		if err := store.SetOperationMode(ctx, mode); err != nil {
			return err
		}
		slog.Info("Operation mode changed", "from", tr.From, "to", tr.To, "reason", tr.Reason, "at", tr.Timestamp)
		fmt.Printf("Operation mode set to %s (%s)\n", mode, opmode.Describe(mode))
		return nil
	})
}
