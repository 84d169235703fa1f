package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/slmhealth/internal/control"
	"github.com/vietddude/slmhealth/internal/core/config"
	"github.com/vietddude/slmhealth/internal/core/domain"
)

var (
	recordAt       int64
	recordSnapshot string
	recordDetails  string
)

var recordCmd = &cobra.Command{
	Use:   "record [policy] [success|failure]",
	Short: "Record a snapshot invocation for a policy",
	Args:  cobra.ExactArgs(2),
	Run:   runRecord,
}

func init() {
	recordCmd.Flags().Int64Var(&recordAt, "at", 0, "invocation time in epoch milliseconds (default now)")
	recordCmd.Flags().StringVar(&recordSnapshot, "snapshot", "", "snapshot name")
	recordCmd.Flags().StringVar(&recordDetails, "details", "", "failure details")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) {
	withStore(cmd, func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error {
		name, outcome := args[0], strings.ToLower(args[1])

		inv := domain.SnapshotInvocation{
			SnapshotName: recordSnapshot,
			Timestamp:    recordAt,
			Details:      recordDetails,
		}
		if inv.Timestamp == 0 {
			inv.Timestamp = time.Now().UnixMilli()
		}

		var err error
		switch outcome {
		case "success":
			err = store.RecordSuccess(ctx, name, inv)
		case "failure":
			err = store.RecordFailure(ctx, name, inv)
		default:
			return fmt.Errorf("invalid outcome %q: want success or failure", args[1])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Recorded %s for policy %s at %d\n", outcome, name, inv.Timestamp)
		return nil
	})
}
