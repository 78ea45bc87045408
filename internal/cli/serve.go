package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aahmdakml/MatkulBigdata/internal/app"
	"github.com/aahmdakml/MatkulBigdata/services/analysis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ingest and analysis API",
	Long: `Serve starts the HTTP API used by the dashboard:

  POST /api/ingest-file        normalize uploaded rows to region, price per kg and quality
  POST /api/analyze-sentiment  word cloud, sentiment split and summary of rows
  POST /api/prompt             free prompt with optional JSON data

The language model is any OpenAI compatible endpoint (LLM_BASE_URL, LLM_MODEL,
LLM_API_KEY); the default is Gemini.

Example:
  LLM_API_KEY=... hargaberas serve --addr :5000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default API_ADDR)")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr := viper.GetString("serve.addr"); addr != "" {
		cfg.APIAddr = addr
	}

	svc, err := app.NewAnalysisService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return analysis.Serve(ctx, cfg.APIAddr, analysis.NewHandler(svc))
}
