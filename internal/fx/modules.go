package fx

import (
	"golf-tracker/internal/api"
	"golf-tracker/internal/config"
	"golf-tracker/internal/course"
	"golf-tracker/internal/database"
	"golf-tracker/internal/domain"
	"golf-tracker/internal/geolocate"
	"golf-tracker/internal/logger"
	"golf-tracker/internal/repository"
	"golf-tracker/internal/server"
	"golf-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideCatalog(cfg *config.Config, log zerolog.Logger) (*course.Catalog, error) {
	catalog, err := course.LoadFile(cfg.CoursePath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("holes", catalog.Len()).Str("override", cfg.CoursePath).Msg("course catalog loaded")
	return catalog, nil
}

func ProvideSensor(cfg *config.Config) geolocate.Sensor {
	if !cfg.SensorEnabled {
		return geolocate.Disabled{}
	}
	return geolocate.Static{Location: domain.GeoLocation{Lat: cfg.SensorLat, Lon: cfg.SensorLon}}
}

func ProvideRoundService(catalog *course.Catalog, repo *repository.RoundRepository, sensor geolocate.Sensor, log zerolog.Logger) *service.RoundService {
	return service.NewRoundService(catalog, repo, sensor, log)
}

func ProvideSyncService(sheets *api.SheetsClient, repo *repository.RoundRepository, rounds *service.RoundService, cfg *config.Config, log zerolog.Logger) *service.SyncService {
	return service.NewSyncService(sheets, repo, rounds, cfg.SyncEnabled(), log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideCatalog),
	// repo
	fx.Provide(repository.NewRoundRepository),
	// remote store client + sensor
	fx.Provide(api.NewSheetsClient),
	fx.Provide(ProvideSensor),
	// svc
	fx.Provide(ProvideRoundService),
	fx.Provide(ProvideSyncService),
	// server
	fx.Provide(server.NewTrackerServer),
)
