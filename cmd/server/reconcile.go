package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dhoini/clearpath-signup/internal/service"
	"github.com/spf13/cobra"
)

var (
	reconcileDryRun bool
	reconcileLimit  int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile-duplicates",
	Short: "Merge metadata of customers that share an email",
	Long: `Groups billing customers by email, copies missing metadata keys onto the most recent record
and tags the others with merged_into. Nothing is deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if !a.provider.Configured() {
			return errors.New("STRIPE_SECRET_KEY is required for reconciliation")
		}

		svc := service.NewReconcileService(a.provider, a.publisher, reconcileLimit, a.metrics, a.log)
		report, err := svc.ReconcileDuplicates(ctx, reconcileDryRun)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report duplicate groups without writing")
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 0, "maximum number of customers to scan (0 scans all)")
}
