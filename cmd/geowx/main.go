package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"geowx/internal/config"
	"geowx/internal/geocache"
	"geowx/internal/handler"
	"geowx/internal/middleware"
	"geowx/internal/provider"
	"geowx/internal/redisstore"
	"geowx/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "geowx",
		Short: "Geospatially cached weather service",
		Long:  "Serves point weather and forecast queries backed by OpenWeatherMap and Open-Meteo with a Redis proximity cache",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the weather service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.GetLogger()
			defer func() { _ = logger.Sync() }()

			// Store connectivity is checked before anything else; a failure
			// here aborts startup rather than running without a cache.
			redisClient, err := redisstore.New(cmd.Context(), config.GetRedisAddr())
			if err != nil {
				return fmt.Errorf("unable to connect to cache store: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			logger.Infow("Cache store connection established", "addr", config.GetRedisAddr())

			cache := geocache.New(redisClient, config.GetSearchRadiusMeters(), config.GetWeatherTTL())

			httpClient := &http.Client{Timeout: config.GetUpstreamTimeout()}
			orchestrator := service.New(cache, logger,
				provider.NewOpenWeatherAdapter(httpClient),
				provider.NewOpenMeteoAdapter(httpClient),
			)

			h := handler.NewWeatherHandler(orchestrator, logger)

			mux := http.NewServeMux()
			mux.HandleFunc("/weather", h.HandleWeather)
			mux.HandleFunc("/forecast", h.HandleForecast)
			mux.HandleFunc("/health", h.HandleHealth)

			middleware.StartRateLimiterCleanup()

			srv := &http.Server{
				Addr:         ":" + config.GetServerPort(),
				Handler:      middleware.RateLimitMiddleware(mux),
				ReadTimeout:  config.GetServerTimeout("read_timeout"),
				WriteTimeout: config.GetServerTimeout("write_timeout"),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Infow("Weather service listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetServerTimeout("write_timeout"))
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorw("error during shutdown", "error", err)
			}
			return nil
		},
	}
}
