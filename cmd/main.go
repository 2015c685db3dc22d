package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundmatch/internal/metrics"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/repositories"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

const version = "0.1.0"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv(".env")
	shared.SetLogLevel(logger, config.Log.Level)

	metrics.Register(prometheus.DefaultRegisterer)

	db, err := openHistory(context.Background(), config.Database)
	if err != nil {
		logger.Warn("history database unavailable", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(wire(config, db, logger, RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
		Gatherer:   prometheus.DefaultGatherer,
	}))

	err = runner.app().Run(context.Background(), os.Args)
	if db != nil {
		db.Close()
	}
	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// openHistory opens and migrates the history database.
func openHistory(ctx context.Context, cfg shared.DatabaseConfig) (*sql.DB, error) {
	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, cfg)
	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// wire builds the provider adapters and engine components from config.
// Platforms without credentials stay registered and report failures per call.
func wire(config *shared.Config, db *sql.DB, logger *log.Logger, opts RunnerOpts) RunnerOpts {
	creds := config.Credentials
	timeout := config.Search.Timeout()
	httpClient := &http.Client{Timeout: timeout}

	serviceOpts := func(p models.Platform) services.Options {
		return services.Options{
			HTTPClient: httpClient,
			Limiter:    services.NewLimiter(config.Search.RequestsPerSecond, config.Search.Burst),
			Logger:     shared.WithLogger(logger, "platform", p),
		}
	}

	spotifyTokens := services.NewClientCredentials(creds.Spotify.ClientID, creds.Spotify.ClientSecret, services.SpotifyTokenURL, httpClient)
	yandexTokens := services.NewClientCredentials(creds.Yandex.ClientID, creds.Yandex.ClientSecret, services.YandexTokenURL, httpClient)

	spotify := services.NewSpotifyService(spotifyTokens, creds.Spotify.Market, serviceOpts(models.Spotify))
	providers := []services.Provider{
		spotify,
		services.NewYouTubeService(creds.YouTube.APIKey, serviceOpts(models.YouTube)),
		services.NewAppleService(0, serviceOpts(models.Apple)),
		services.NewYandexService(yandexTokens, serviceOpts(models.Yandex)),
	}
	opts.Search = tasks.NewSearchEngine(providers, timeout, logger)

	var (
		catalog    tasks.Catalog
		audio      tasks.AudioCatalog
		recognizer services.Recognizer
	)
	if spotifyTokens != nil {
		catalog, audio = spotify, spotify
	} else {
		logger.Debug("spotify credentials missing, recommendations use the fallback set")
	}
	if acr := creds.ACRCloud; acr.Host != "" && acr.AccessKey != "" && acr.AccessSecret != "" {
		recognizer = services.NewACRCloud(acr, services.Options{HTTPClient: httpClient, Logger: shared.WithLogger(logger, "service", "acrcloud")})
	}

	if db == nil {
		opts.Recommender = tasks.NewRecommender(catalog, nil, nil, timeout, logger)
		opts.Identifier = tasks.NewIdentifier(opts.Search, audio, nil, recognizer, timeout, logger)
		return opts
	}

	history := repositories.NewHistoryRepository(db)
	opts.History = history
	opts.Recommender = tasks.NewRecommender(catalog, history, nil, timeout, logger)
	opts.Identifier = tasks.NewIdentifier(opts.Search, audio, history, recognizer, timeout, logger)
	return opts
}
