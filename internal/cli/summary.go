package cli

import (
	"github.com/spf13/cobra"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/services/exporter"
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Print the statistics of an export",
	Long: `Summary reads a JSON export (envelope or array) or a JSON Lines export and
prints its statistics as tables.

Example:
  hargaberas summary output/harga_beras_20240112_150405.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	records, err := exporter.ReadRecords(args[0])
	if err != nil {
		return err
	}
	return exporter.WriteSummary(cmd.OutOrStdout(), record.Summarize(records))
}
