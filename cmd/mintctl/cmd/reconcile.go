// cmd/mintctl/cmd/reconcile.go
package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mintcart/mintcart-backend/internal/database"
	"github.com/mintcart/mintcart-backend/internal/services"
)

var staleAge time.Duration

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Finish submitted products whose record was never written",
	Long: `Runs one reconcile pass over the creation journal. Intents with a live
transaction are confirmed and posted to the record API; nothing is published
or submitted again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		stores, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer stores.Close()

		workflow, err := services.NewCreateProductWorkflow(cfg, stores.Intents, nil)
		if err != nil {
			return err
		}

		report, err := services.NewReconcileService(stores.Intents, workflow, cfg.Reconciler.Interval, staleAge).RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(report)
	},
}

func init() {
	reconcileCmd.Flags().DurationVar(&staleAge, "stale-age", 5*time.Minute, "only resume intents untouched for this long")
	rootCmd.AddCommand(reconcileCmd)
}
