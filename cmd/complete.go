// -- cmd/complete.go --
package cmd

import (
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Interactively answer the fields a previous run skipped.",
	Long: `Walks the skip ledger of a previous run and asks you for each
unresolved field. Reviewed answers are written to the completed artifact
and cached, so the next run resolves them automatically. Fields that
already have an answer are never asked again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.close(cmd.Context())

		return app.runner.Complete(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
