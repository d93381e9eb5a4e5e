package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "evalgo.org/sparqlds/docs"
	"evalgo.org/sparqlds/internal/audit"
	"evalgo.org/sparqlds/internal/client"
	"evalgo.org/sparqlds/internal/logging"
	"evalgo.org/sparqlds/internal/metrics"
	"evalgo.org/sparqlds/internal/query"
	"evalgo.org/sparqlds/internal/secret"
	"evalgo.org/sparqlds/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodySize     = "1M"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Start the SPARQL datasource API server",
	Long: `Start the SPARQL datasource API server.

The server exposes:
  - POST /v1/api/validate: validate a SPARQL query
  - POST /v1/api/endpoint/check: check an endpoint URL
  - /v1/api/datasources: manage datasources and run queries against them
  - GET /v1/api/audit: read the query audit log
  - GET /health, GET /metrics, GET /swagger/*

Environment Variables:
  - SPARQLDS_PORT: Port to listen on (default: 8080)
  - SPARQLDS_API_KEY: Optional API key required in the x-api-key header
  - SPARQLDS_SECRET_KEY: Key used to encrypt datasource passwords (required)
  - SPARQLDS_DATA_DIR: Directory for datasources and audit logs
  - SPARQLDS_AUDIT_RETENTION_DAYS: Days of audit logs to keep (default: 30)
  - SPARQLDS_DEBUG: Enable debug logging`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serviceCmd.Flags().String("api-key", "", "API key for endpoint protection")
	serviceCmd.Flags().String("secret-key", "", "Key used to encrypt datasource passwords")
	serviceCmd.Flags().Int("audit-retention-days", 30, "Days of audit logs to keep")

	_ = viper.BindPFlag("port", serviceCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("api_key", serviceCmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("secret_key", serviceCmd.Flags().Lookup("secret-key"))
	_ = viper.BindPFlag("audit_retention_days", serviceCmd.Flags().Lookup("audit-retention-days"))
}

// serverConfig holds the settings of the API server.
type serverConfig struct {
	Port               int
	APIKey             string
	SecretKey          string
	DataDir            string
	AuditRetentionDays int
	Debug              bool
}

func loadServerConfig() serverConfig {
	return serverConfig{
		Port:               viper.GetInt("port"),
		APIKey:             viper.GetString("api_key"),
		SecretKey:          viper.GetString("secret_key"),
		DataDir:            viper.GetString("data_dir"),
		AuditRetentionDays: viper.GetInt("audit_retention_days"),
		Debug:              viper.GetBool("debug"),
	}
}

// api holds the dependencies of the HTTP handlers.
type api struct {
	store    *store.Store
	clients  *client.Manager
	executor *query.Executor
	audit    *audit.Logger
	metrics  *metrics.Metrics
	log      *logrus.Entry
}

// newServer wires the stores, executor and routes.
func newServer(cfg serverConfig, logger *logrus.Entry) (*echo.Echo, error) {
	h, err := newAPI(cfg, logger)
	if err != nil {
		return nil, err
	}
	return h.server(cfg.APIKey), nil
}

// newAPI opens the datasource store and audit log and builds the executor.
func newAPI(cfg serverConfig, logger *logrus.Entry) (*api, error) {
	box, err := secret.NewBox(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("secret key: %w", err)
	}
	datasources, err := store.NewStore(cfg.DataDir, box)
	if err != nil {
		return nil, err
	}
	auditLog, err := audit.NewLogger(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.AuditRetentionDays > 0 {
		removed, err := auditLog.Rotate(cfg.AuditRetentionDays)
		if err != nil {
			logger.WithError(err).Warn("Failed to rotate audit logs")
		} else if removed > 0 {
			logger.WithField("removed", removed).Info("Rotated audit logs")
		}
	}

	clients := client.NewManager(logger)
	return &api{
		store:   datasources,
		clients: clients,
		executor: query.NewExecutor(clients, logger,
			query.WithMetrics(m),
			query.WithAudit(auditLog),
		),
		audit:   auditLog,
		metrics: m,
		log:     logger,
	}, nil
}

// server builds the echo instance. A non-empty apiKey protects /v1/api.
func (h *api) server(apiKey string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = h.errorHandler(e.DefaultHTTPErrorHandler)

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "x-api-key"},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Always public
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, buildInfo())
	})
	e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	g := e.Group("/v1/api")
	if apiKey != "" {
		g.Use(apiKeyMiddleware(apiKey))
	}
	h.register(g)

	return e
}

func runService(_ *cobra.Command, _ []string) error {
	cfg := loadServerConfig()
	logger := logging.ServiceLogger("sparqlds", version, cfg.Debug)

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"data_dir":    cfg.DataDir,
		"debug":       cfg.Debug,
		"api_key_set": cfg.APIKey != "",
	}).Info("Configuration loaded")

	e, err := newServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize server")
		return err
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down service...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during graceful shutdown")
		return err
	}

	logger.Info("Service stopped")
	return nil
}
