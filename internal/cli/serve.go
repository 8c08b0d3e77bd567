package cli

import (
	"github.com/ppiankov/ownfunds/internal/server"
	"github.com/ppiankov/ownfunds/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scenario API over HTTP",
	Long: `Serve exposes the pipeline as a JSON API:

  POST /v1/scenarios   {"text": "..."} -> report
  GET  /v1/schema      loaded template rows
  GET  /v1/rules       loaded concept rules
  GET  /healthz        liveness

Provider calls are throttled by server.requests_per_second.

Example:
  ownfunds serve --addr :8080
  OWNFUNDS_LLM_PROVIDER=groq ownfunds serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	limiter := worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.BurstSize)
	engine, err := newEngine(cfg, limiter)
	if err != nil {
		return err
	}

	logger.Info("tables loaded",
		zap.String("template", engine.Schema().Template()),
		zap.Int("rules", len(engine.Rules().Concepts())),
		zap.String("provider", cfg.LLM.Provider))

	srv := server.New(engine, cfg.Server, logger.Named("http"))
	return srv.ListenAndServe(cmd.Context())
}
