// -- cmd/answer.go --
package cmd

import (
	"github.com/spf13/cobra"
)

var answerFieldsFile string

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Resolve answers for a previously extracted field schema, without a browser.",
	Long: `Resolves an answer for every field of the stored schema using the
profile, the answer cache, and (when configured) LLM inference, then
writes the answer and skip artifacts. With --fields, an externally
produced field-list JSON is normalized and imported first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.close(cmd.Context())

		if answerFieldsFile != "" {
			if _, err := app.runner.ImportFields(answerFieldsFile); err != nil {
				return err
			}
		}
		return app.runner.Answer(cmd.Context())
	},
}

func init() {
	answerCmd.Flags().StringVar(&answerFieldsFile, "fields", "", "field-list JSON to normalize and import before resolving")
	rootCmd.AddCommand(answerCmd)
}
