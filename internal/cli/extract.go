package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aahmdakml/MatkulBigdata/config"
	"github.com/aahmdakml/MatkulBigdata/internal/app"
	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [text...]",
	Short: "Extract the price fact of one text",
	Long: `Extract runs the fact extractor on the arguments joined by spaces, or on
standard input when no argument is given, and prints the fact as JSON.

Example:
  hargaberas extract "Harga beras premium di Bandung Rp 15.000/kg"
  echo "gabah kering panen Rp 6.500 per kg di Karawang" | hargaberas extract --explain
  hargaberas extract --likes 120 --reshares 30 "beras medium 12rb sekilo di Bogor"`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Int("likes", 0, "likes of the post the text comes from")
	extractCmd.Flags().Int("reshares", 0, "reshares of the post the text comes from")
	extractCmd.Flags().Bool("explain", false, "print the signal of every evaluator as a table")
	extractCmd.Flags().Bool("annotate", false, "include the supplementary annotations")
	extractCmd.Flags().String("extractor-config", "", "YAML file overriding the extractor tables")

	_ = viper.BindPFlag("extract.likes", extractCmd.Flags().Lookup("likes"))
	_ = viper.BindPFlag("extract.reshares", extractCmd.Flags().Lookup("reshares"))
	_ = viper.BindPFlag("extract.explain", extractCmd.Flags().Lookup("explain"))
	_ = viper.BindPFlag("extract.annotate", extractCmd.Flags().Lookup("annotate"))
	_ = viper.BindPFlag("extractor_config_file", extractCmd.Flags().Lookup("extractor-config"))
}

type extractOutput struct {
	extractor.Fact
	Annotations *extractor.Annotations `json:"annotations,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	text, err := inputText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	if file := viper.GetString("extractor_config_file"); file != "" {
		cfg.ExtractorConfigFile = file
	}
	ext, err := app.NewExtractor(cfg)
	if err != nil {
		return err
	}

	var eng *extractor.Engagement
	if cmd.Flags().Changed("likes") || cmd.Flags().Changed("reshares") {
		eng = &extractor.Engagement{
			Likes:    viper.GetInt("extract.likes"),
			Reshares: viper.GetInt("extract.reshares"),
		}
	}

	out := extractOutput{Fact: ext.ExtractWithEngagement(text, eng)}
	if viper.GetBool("extract.annotate") {
		a := ext.Annotate(text)
		out.Annotations = &a
	}

	w := cmd.OutOrStdout()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if viper.GetBool("extract.explain") {
		writeSignals(w, ext.Evaluate(text, eng))
	}
	return nil
}

// inputText joins args, or reads r when there are none
func inputText(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeSignals(w io.Writer, signals []extractor.Signal) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Value", "Pattern", "Increment"})
	total := 0
	for _, s := range signals {
		value := s.Value
		if s.Field == extractor.FieldPrice && s.Price > 0 {
			value = fmt.Sprintf("%d", s.Price)
		}
		t.AppendRow(table.Row{s.Field, value, s.Pattern, s.Increment})
		total += s.Increment
	}
	t.AppendFooter(table.Row{"", "", "Total (capped at 100)", total})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
