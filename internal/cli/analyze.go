package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aahmdakml/MatkulBigdata/internal/app"
	"github.com/aahmdakml/MatkulBigdata/services/analysis"
	"github.com/aahmdakml/MatkulBigdata/services/exporter"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Ask the language model for the sentiment and word cloud of an export",
	Long: `Analyze reads a JSON or JSON Lines export, sends the text, price, quality,
region, source and date of up to 400 records to the language model and prints
the sentiment split, the top words and the summary.

Example:
  hargaberas analyze output/harga_beras_20240112_150405.json --by harga --svg cloud.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("by", string(analysis.ByKualitas), "focus of the analysis: kualitas or harga")
	analyzeCmd.Flags().String("prompt", "", "extra instructions for the model")
	analyzeCmd.Flags().String("svg", "", "write the word cloud to this file")

	_ = viper.BindPFlag("analyze.by", analyzeCmd.Flags().Lookup("by"))
	_ = viper.BindPFlag("analyze.prompt", analyzeCmd.Flags().Lookup("prompt"))
	_ = viper.BindPFlag("analyze.svg", analyzeCmd.Flags().Lookup("svg"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	records, err := exporter.ReadRecords(args[0])
	if err != nil {
		return err
	}
	rows, err := analysis.RowsFromRecords(records)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.NewAnalysisService(cfg)
	if err != nil {
		return err
	}

	result, err := svc.Analyze(context.Background(), rows, analysis.By(viper.GetString("analyze.by")), viper.GetString("analyze.prompt"))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if result.Data == nil {
		fmt.Fprintf(w, "The model answer could not be used (%s):\n%s\n", result.Note, result.Raw)
		return nil
	}

	writeCloud(w, result.Data)

	if path := viper.GetString("analyze.svg"); path != "" {
		if err := os.WriteFile(path, []byte(result.Data.SVG), 0o644); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
		fmt.Fprintf(w, "Word cloud written to %s\n", path)
	}
	return nil
}

func writeCloud(w io.Writer, c *analysis.CloudResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Sentiment")
	t.AppendHeader(table.Row{"Positive", "Neutral", "Negative", "Method"})
	t.AppendRow(table.Row{c.Sentiments.Positive, c.Sentiments.Neutral, c.Sentiments.Negative, c.Sentiments.Method})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(c.TopWords) > 0 {
		words := table.NewWriter()
		words.SetOutputMirror(w)
		words.SetTitle("Top words")
		words.AppendHeader(table.Row{"Word", "Weight", "Sentiment"})
		for _, word := range c.TopWords {
			words.AppendRow(table.Row{word.Text, word.Weight, word.Sentiment})
		}
		words.SetStyle(table.StyleRounded)
		words.Render()
	}

	fmt.Fprintln(w, c.Summary)
}
