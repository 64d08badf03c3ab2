package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"golf-tracker/internal/config"
	"golf-tracker/internal/constants"
	fxmodules "golf-tracker/internal/fx"
	"golf-tracker/internal/middleware"
	"golf-tracker/internal/server"
	"golf-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	trackerServer *server.TrackerServer,
	rounds *service.RoundService,
	syncSvc *service.SyncService,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	root := chi.NewRouter()
	root.Use(middleware.RequestID(logger))
	root.Use(c.Handler)
	root.Mount("/", trackerServer.Routes())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: root,
	}

	appCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			rounds.Load(ctx)

			// Push loop and the one startup reconciliation; both talk to
			// the store only through its defined entry points.
			go syncSvc.Run(appCtx)
			go syncSvc.ReconcileOnStartup(appCtx)

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
