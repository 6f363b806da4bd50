// Gray Logic Soundscape - ambient sound sequencer
//
// This is the main entry point for the soundscape controller. It drives a
// DFPlayer Mini over a serial port, playing short randomised sequences of
// tracks at a configurable interval, and can be controlled over MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-soundscape/internal/dfplayer"
	"github.com/nerrad567/gray-logic-soundscape/internal/history"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-soundscape/internal/remote"
	"github.com/nerrad567/gray-logic-soundscape/internal/runner"
	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
	"github.com/nerrad567/gray-logic-soundscape/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup sequence: each optional service adds a branch
	log := logging.Default()
	log.Info("starting Gray Logic Soundscape",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)
	defer func() { log.Info("Gray Logic Soundscape stopped") }()

	// History database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := history.NewSQLiteRepository(db.DB)
	settings, volume := restoreSettings(ctx, cfg, repo, log)

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Playback device
	player, err := openPlayer(cfg.Device, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing DFPlayer")
		if closeErr := player.Close(); closeErr != nil {
			log.Error("error closing DFPlayer", "error", closeErr)
		}
	}()

	opts := sequencer.Options{
		Settings:        &settings,
		ResponseTimeout: cfg.Device.ResponseTimeout,
	}
	if cfg.Sequencer.Diagnostics {
		opts.Diagnostics = sequencer.LogDiagnostics{Logger: log}
	}
	sched := sequencer.New(opts)

	log.Info("initialising DFPlayer", "port", cfg.Device.Port)
	if initErr := sched.Initialize(ctx, player, volume); initErr != nil {
		return fmt.Errorf("initialising DFPlayer: %w", initErr)
	}
	log.Info("DFPlayer online", "volume", volume, "folder", settings.Group, "tracks", settings.MaxTrack)

	// Driver loop and sinks
	loop := runner.New(sched, runner.Options{
		PollInterval: cfg.Sequencer.PollInterval,
		EventBuffer:  cfg.Sequencer.EventBuffer,
		Sinks:        []runner.Sink{history.NewRecorder(repo)},
		Logger:       log.With("component", "runner"),
	})
	if influxClient != nil {
		loop.AddSink(metricsSink{client: influxClient})
	}

	if mqttClient != nil {
		controller := remote.NewController(remote.Options{
			Site:      cfg.Site.ID,
			Executor:  loop,
			Publisher: mqttClient,
			Store:     repo,
			Logger:    log.With("component", "remote"),
			Volume:    volume,
		})
		loop.AddSink(controller)

		if subErr := mqttClient.Subscribe(mqttClient.Topics().Command(), mqttClient.QoS(), controller.HandleCommand); subErr != nil {
			return fmt.Errorf("subscribing to commands: %w", subErr)
		}
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
			if pubErr := controller.PublishStatus(); pubErr != nil {
				log.Warn("failed to publish status", "error", pubErr)
			}
		})
		if pubErr := controller.PublishStatus(); pubErr != nil {
			log.Warn("failed to publish status", "error", pubErr)
		}
		log.Info("remote control ready", "topic", mqttClient.Topics().Command())
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		if loopErr := <-loopDone; loopErr != nil {
			log.Error("scheduler loop error", "error", loopErr)
		}
		stats := loop.Stats()
		log.Info("scheduler loop stopped",
			"polls", stats.Polls,
			"events_dispatched", stats.EventsDispatched,
			"events_dropped", stats.EventsDropped,
		)
	}()

	if cfg.Sequencer.Autostart {
		if startErr := loop.Do(ctx, func(s *sequencer.Scheduler) error {
			s.Start()
			return nil
		}); startErr != nil {
			return fmt.Errorf("starting scheduler: %w", startErr)
		}
		log.Info("sequencing started", "interval", settings.SequenceInterval)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient, player); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

func getConfigPath() string {
	if path := os.Getenv("SOUNDSCAPE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// restoreSettings returns the scheduler settings and volume to start with:
// the values last set over MQTT when restore is enabled and present,
// otherwise those from config.
func restoreSettings(ctx context.Context, cfg *config.Config, repo *history.SQLiteRepository, log *logging.Logger) (sequencer.Settings, int) {
	settings, volume := cfg.Sequencer.Settings(), cfg.Device.Volume
	if !cfg.Sequencer.RestoreSettings {
		return settings, volume
	}

	stored, err := repo.LoadSettings(ctx)
	switch {
	case errors.Is(err, history.ErrNotFound):
		log.Info("no stored settings, using configuration")
	case err != nil:
		log.Warn("failed to load stored settings, using configuration", "error", err)
	default:
		settings, volume = stored.Settings.Normalize(), min(max(stored.Volume, 0), dfplayer.MaxVolume)
		log.Info("restored settings from database",
			"interval", settings.SequenceInterval,
			"max_track", settings.MaxTrack,
			"volume", volume,
		)
	}
	return settings, volume
}

func openPlayer(cfg config.DeviceConfig, log *logging.Logger) (*dfplayer.Player, error) {
	port, err := dfplayer.OpenSerial(dfplayer.SerialConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port: %w", err)
	}

	player := dfplayer.New(port, dfplayer.Config{
		ResponseTimeout:  cfg.ResponseTimeout,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Feedback:         cfg.Feedback,
		SkipReset:        cfg.SkipReset,
	})
	playerLog := log.With("component", "dfplayer")
	player.SetLogger(playerLog)
	player.SetOnReport(func(f dfplayer.Frame) {
		playerLog.Debug("module report", "frame", f.String())
	})
	return player, nil
}

func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, player *dfplayer.Player) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := player.HealthCheck(ctx); err != nil {
		return fmt.Errorf("dfplayer: %w", err)
	}

	return nil
}
