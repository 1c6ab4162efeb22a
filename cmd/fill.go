// -- cmd/fill.go --
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fillCmd = &cobra.Command{
	Use:   "fill [url]",
	Short: "Extract, resolve, and fill the form at the URL end to end.",
	Long: `Runs the whole pipeline against a live page: click through any apply
gate, discover the form, resolve an answer for every field, write the
answers into the page, and capture before/after screenshots. Submission
only happens with --submit and an interactive confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.close(cmd.Context())

		return app.runner.Fill(cmd.Context(), args[0])
	},
}

func init() {
	fillCmd.Flags().Bool("submit", false, "submit the form after filling (asks for confirmation)")
	_ = viper.BindPFlag("fill.submit_enabled", fillCmd.Flags().Lookup("submit"))
	rootCmd.AddCommand(fillCmd)
}
