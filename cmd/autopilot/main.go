// Package main is the entry point for the clicker autopilot, which runs one
// autonomous control loop per roster account against the clicker service.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/clicker-autopilot/internal/api"
	"github.com/yourorg/clicker-autopilot/internal/config"
	"github.com/yourorg/clicker-autopilot/internal/loop"
	"github.com/yourorg/clicker-autopilot/internal/metrics"
	"github.com/yourorg/clicker-autopilot/internal/otel"
)

// startTime records when the process was initialized for uptime reporting
var startTime = time.Now()

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()

	roster, err := config.LoadRoster(cfg.AccountsFile)
	if err != nil {
		logrus.Fatalf("Loading accounts roster: %v", err)
	}

	shutdownTracer := otel.InitTracer(cfg.OtelEndpoint)
	defer shutdownTracer()

	registry := prometheus.NewRegistry()
	mets := metrics.New(registry)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := startStatusServer(cfg.Port, registry, len(roster.Accounts))

	logrus.WithFields(logrus.Fields{
		"accounts": len(roster.Accounts),
		"api":      cfg.APIBaseURL,
		"port":     cfg.Port,
	}).Info("Autopilot starting")

	// One independent loop per account; no shared mutable state between
	// them, so a single account's failure never takes the process down.
	var wg sync.WaitGroup
	for _, account := range roster.Accounts {
		wg.Add(1)
		go func(account config.Account) {
			defer wg.Done()
			client := api.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout)
			l := loop.New(account, cfg, client, mets)
			if err := l.Run(ctx); err != nil && ctx.Err() == nil {
				logrus.WithField("account", account.Name).Errorf("Account loop stopped: %v", err)
			}
		}(account)
	}

	wg.Wait()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Warnf("Status server shutdown: %v", err)
	}

	logrus.Info("Autopilot stopped")
}

// setupLogging configures the logging for the application
func setupLogging() {
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))

	switch logFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// startStatusServer exposes health, status and Prometheus metrics endpoints.
func startStatusServer(port string, registry *prometheus.Registry, accountCount int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "operational",
			"uptime":   time.Since(startTime).String(),
			"accounts": accountCount,
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Status server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting status server: %v", err)
		}
	}()

	return server
}
