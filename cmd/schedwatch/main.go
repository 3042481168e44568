package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/schedwatch/internal/config"
	"github.com/aleister1102/schedwatch/internal/datastore"
	"github.com/aleister1102/schedwatch/internal/differ"
	"github.com/aleister1102/schedwatch/internal/httpclient"
	"github.com/aleister1102/schedwatch/internal/logger"
	"github.com/aleister1102/schedwatch/internal/monitor"
	"github.com/aleister1102/schedwatch/internal/rasterizer"
	"github.com/aleister1102/schedwatch/internal/rslimiter"
	"github.com/aleister1102/schedwatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

func main() {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for --config")

	urlFile := flag.String("url-file", "", "Path to a text file with URLs to monitor, one per line. Appended to monitor_urls from the config.")
	urlFileAlias := flag.String("u", "", "Alias for --url-file")
	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}
	if *urlFile == "" && *urlFileAlias != "" {
		*urlFile = *urlFileAlias
	}

	gCfg, err := config.LoadGlobalConfig(*configFile)
	if err != nil {
		log.Fatalf("[FATAL] Could not load config using path '%s': %v", *configFile, err)
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Fatalf("[FATAL] Could not initialize logger: %v", err)
	}

	// Create the artifact directory up front so the dirpath validation can
	// check it like any preexisting directory.
	if gCfg.ArtifactConfig.OutputDir != "" {
		if err := os.MkdirAll(gCfg.ArtifactConfig.OutputDir, 0755); err != nil {
			zLogger.Fatal().Err(err).Str("directory", gCfg.ArtifactConfig.OutputDir).Msg("Could not create artifact output directory before validation")
		}
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	monitorURLs := append([]string(nil), gCfg.MonitorConfig.MonitorURLs...)
	if *urlFile != "" {
		urlsFromFile, err := urlhandler.ReadURLsFromFile(*urlFile, zLogger)
		if err != nil {
			zLogger.Fatal().Err(err).Str("file", *urlFile).Msg("Failed to load URLs from file")
		}
		monitorURLs = append(monitorURLs, urlsFromFile...)
	}
	if len(monitorURLs) == 0 {
		zLogger.Fatal().Msg("No URLs to monitor: set monitor_config.monitor_urls or pass --url-file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zLogger.Info().Str("signal", sig.String()).Msg("Received interrupt signal, initiating graceful shutdown")
		cancel()
	}()

	poller, cleanup, err := buildPoller(gCfg, monitorURLs, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("Failed to initialize poller")
	}
	defer cleanup()

	if err := poller.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			zLogger.Info().Msg("Poller stopped due to interrupt")
		} else {
			zLogger.Error().Err(err).Msg("Poller stopped with error")
		}
	}

	zLogger.Info().Msg("Application finished")
}

// buildPoller wires the HTTP client, stores, and trackers together. The
// returned cleanup closes everything the poller holds open.
func buildPoller(gCfg *config.GlobalConfig, monitorURLs []string, zLogger zerolog.Logger) (*monitor.Poller, func(), error) {
	httpClient, err := httpclient.NewHTTPClientBuilder(zLogger).
		WithTimeout(gCfg.MonitorConfig.HTTPTimeout()).
		WithInsecureSkipVerify(gCfg.MonitorConfig.InsecureSkipVerify).
		Build()
	if err != nil {
		return nil, nil, err
	}

	artifactStore, err := datastore.NewArtifactStore(&gCfg.ArtifactConfig, zLogger)
	if err != nil {
		httpClient.Close()
		return nil, nil, err
	}

	historyStore, err := datastore.NewHistoryStore(&gCfg.StorageConfig, zLogger)
	if err != nil {
		zLogger.Warn().Err(err).Msg("Fetch history store unavailable, continuing without history")
		historyStore = nil
	}

	cycleDB, err := datastore.NewCycleDB(gCfg.StorageConfig.CycleDBPath, zLogger)
	if err != nil {
		zLogger.Warn().Err(err).Msg("Cycle history database unavailable, continuing without cycle records")
		cycleDB = nil
	}

	fetcher := monitor.NewFetcher(httpClient, gCfg.MonitorConfig.MaxContentSize, zLogger)
	contentDiffer := differ.NewContentDiffer(differ.DefaultDiffConfig(), zLogger)
	tracker := monitor.NewChangeTracker(fetcher, artifactStore, historyStore, contentDiffer, zLogger)

	builder := monitor.NewPollerBuilder(&gCfg.MonitorConfig, tracker, zLogger).
		WithURLs(monitorURLs).
		WithResourceLimiter(rslimiter.NewResourceLimiter(gCfg.ResourceLimiterConfig, zLogger)).
		WithRasterizer(rasterizer.NewFromConfig(gCfg.RasterizerConfig, zLogger))
	if cycleDB != nil {
		builder = builder.WithCycleDB(cycleDB)
	}

	poller, err := builder.Build()
	if err != nil {
		httpClient.Close()
		if cycleDB != nil {
			_ = cycleDB.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		httpClient.Close()
		if cycleDB != nil {
			_ = cycleDB.Close()
		}
	}
	return poller, cleanup, nil
}
