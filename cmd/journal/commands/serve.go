package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Badar25/Journal-backend/internal/auth"
	"github.com/Badar25/Journal-backend/internal/logging"
	"github.com/Badar25/Journal-backend/internal/provider"
	"github.com/Badar25/Journal-backend/internal/retention"
	"github.com/Badar25/Journal-backend/internal/server"
	"github.com/Badar25/Journal-backend/internal/tracing"
)

// NewServeCmd constructs the `journal serve` command, which starts the HTTP
// API and, unless disabled, the retention sweeper.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the journal HTTP API",
		Long: `Start the journal HTTP API.

Entries are served under /v1/journals behind bearer-token authentication.
/api/health, /api/ready and /metrics are public. Expired entries are swept
in the background unless RETENTION_ENABLED=false.

Examples:
  journal serve
  journal serve --port 9090
  STORE_BACKEND=qdrant MODEL_PROVIDER=openai journal serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing is opt-in and a no-op when keys are absent.
			traceCfg, err := tracing.ConfigFromEnv()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			if handler, flush, ok := tracing.Setup(traceCfg); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled", slog.String("host", traceCfg.Host))
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
			}

			a, err := buildApp(ctx, log, appOptions{withModel: true, registerer: prometheus.DefaultRegisterer})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer a.close()

			verifier, err := auth.NewFromEnv()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{a.backend, server.NewEmbedderPinger(a.embedder, a.store.Dimensions())}
			if hc := provider.HealthCheckFor(a.providerCfg); hc != nil {
				pingers = append(pingers, server.NewLLMPinger(hc, string(a.providerCfg.Backend)))
			}

			srvCfg := &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				RateLimit: getEnvFloat("SERVER_RATE_LIMIT", 0),
				RateBurst: getEnvInt("SERVER_RATE_BURST", 0),
			}
			// A nil *JWTVerifier must not become a non-nil interface.
			if verifier != nil {
				srvCfg.Verifier = verifier
			}

			srv, err := server.New(a.svc, srvCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			if retention.Enabled() {
				rcfg, err := retention.ConfigFromEnv()
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				rcfg.Registerer = prometheus.DefaultRegisterer
				go retention.New(a.store, rcfg).Run(ctx)
			} else {
				log.Info("retention sweeper disabled", slog.String("reason", "RETENTION_ENABLED=false"))
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("SERVER_HOST", "127.0.0.1"), "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("SERVER_PORT", 8080), "TCP port to listen on")

	return cmd
}
