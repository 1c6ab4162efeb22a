// -- cmd/extract.go --
package cmd

import (
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [url]",
	Short: "Discover the form at the URL and write its field schema to the artifact store.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.close(cmd.Context())

		_, err = app.runner.Extract(cmd.Context(), args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
