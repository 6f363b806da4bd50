package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// Config is the root configuration structure for the soundscape controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Device    DeviceConfig    `yaml:"device"`
	Sequencer SequencerConfig `yaml:"sequencer"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig identifies the installation. The ID is used in MQTT topics.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DeviceConfig contains the DFPlayer serial settings.
type DeviceConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`

	// Volume is applied once the module is online (0-30).
	Volume int `yaml:"volume"`

	// ResponseTimeout bounds request/reply exchanges with the module.
	ResponseTimeout time.Duration `yaml:"response_timeout"`

	// HandshakeTimeout bounds the reset handshake. The module needs 3-5s.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// Feedback sets the ack-request bit on commands. Acks are counted, never awaited.
	Feedback bool `yaml:"feedback"`

	// SkipReset queries the module instead of resetting it at startup.
	SkipReset bool `yaml:"skip_reset"`
}

// SequencerConfig contains scheduling settings.
type SequencerConfig struct {
	Interval  time.Duration `yaml:"interval"`
	MinDelay  time.Duration `yaml:"min_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
	MinSounds int           `yaml:"min_sounds"`
	MaxSounds int           `yaml:"max_sounds"`
	MaxTrack  int           `yaml:"max_track"`
	Group     int           `yaml:"group"`

	// Autostart arms the scheduler as soon as the device is online.
	Autostart bool `yaml:"autostart"`

	// PollInterval is the tick rate of the driver loop.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Diagnostics routes transition messages to the debug log.
	Diagnostics bool `yaml:"diagnostics"`

	// EventBuffer is the capacity of the event queue between the loop and its sinks.
	EventBuffer int `yaml:"event_buffer"`

	// RestoreSettings loads settings changed at runtime from the database at startup.
	RestoreSettings bool `yaml:"restore_settings"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SOUNDSCAPE_SECTION_KEY
// For example: SOUNDSCAPE_DEVICE_PORT, SOUNDSCAPE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "Soundscape",
		},
		Device: DeviceConfig{
			Port:             "/dev/ttyS0",
			BaudRate:         9600,
			Volume:           10,
			ResponseTimeout:  sequencer.DefaultResponseTimeout,
			HandshakeTimeout: 5 * time.Second,
		},
		Sequencer: SequencerConfig{
			Interval:        sequencer.DefaultSequenceInterval,
			MinDelay:        sequencer.DefaultMinDelay,
			MaxDelay:        sequencer.DefaultMaxDelay,
			MinSounds:       sequencer.DefaultMinSounds,
			MaxSounds:       sequencer.DefaultMaxSounds,
			MaxTrack:        sequencer.DefaultMaxTrack,
			Group:           sequencer.DefaultGroup,
			Autostart:       true,
			PollInterval:    5 * time.Millisecond,
			EventBuffer:     64,
			RestoreSettings: true,
		},
		Database: DatabaseConfig{
			Path:        "./data/soundscape.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "soundscape",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "soundscape",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SOUNDSCAPE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Site
	if v := os.Getenv("SOUNDSCAPE_SITE_ID"); v != "" {
		cfg.Site.ID = v
	}

	// Device
	if v := os.Getenv("SOUNDSCAPE_DEVICE_PORT"); v != "" {
		cfg.Device.Port = v
	}
	if v := os.Getenv("SOUNDSCAPE_DEVICE_VOLUME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Device.Volume = n
		}
	}

	// Database
	if v := os.Getenv("SOUNDSCAPE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SOUNDSCAPE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SOUNDSCAPE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SOUNDSCAPE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SOUNDSCAPE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("SOUNDSCAPE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if strings.ContainsAny(c.Site.ID, "/+#") {
		errs = append(errs, "site.id must not contain MQTT wildcards or '/'")
	}

	errs = append(errs, c.Device.validate()...)
	errs = append(errs, c.Sequencer.validate()...)

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (d DeviceConfig) validate() []string {
	var errs []string
	if d.Port == "" {
		errs = append(errs, "device.port is required")
	}
	if d.BaudRate <= 0 {
		errs = append(errs, "device.baud_rate must be positive")
	}
	if d.Volume < 0 || d.Volume > 30 {
		errs = append(errs, "device.volume must be between 0 and 30")
	}
	if d.ResponseTimeout <= 0 {
		errs = append(errs, "device.response_timeout must be positive")
	}
	if d.HandshakeTimeout <= 0 {
		errs = append(errs, "device.handshake_timeout must be positive")
	}
	return errs
}

func (s SequencerConfig) validate() []string {
	var errs []string
	if s.Interval < 0 {
		errs = append(errs, "sequencer.interval must not be negative")
	}
	if s.MinDelay < 0 || s.MaxDelay < s.MinDelay {
		errs = append(errs, "sequencer.min_delay must be >= 0 and <= sequencer.max_delay")
	}
	if s.MinSounds < 0 || s.MaxSounds < s.MinSounds {
		errs = append(errs, "sequencer.min_sounds must be >= 0 and <= sequencer.max_sounds")
	}
	if s.MaxTrack < 1 || s.MaxTrack > 255 {
		errs = append(errs, "sequencer.max_track must be between 1 and 255")
	}
	if s.Group < 1 || s.Group > 99 {
		errs = append(errs, "sequencer.group must be between 1 and 99")
	}
	if s.PollInterval <= 0 {
		errs = append(errs, "sequencer.poll_interval must be positive")
	}
	if s.EventBuffer < 1 {
		errs = append(errs, "sequencer.event_buffer must be at least 1")
	}
	return errs
}

// Settings returns the scheduler settings described by the sequencer section.
func (s SequencerConfig) Settings() sequencer.Settings {
	return sequencer.Settings{
		SequenceInterval: s.Interval,
		MinDelay:         s.MinDelay,
		MaxDelay:         s.MaxDelay,
		MinSounds:        s.MinSounds,
		MaxSounds:        s.MaxSounds,
		MaxTrack:         s.MaxTrack,
		Group:            s.Group,
	}
}

// GetFlushInterval returns the InfluxDB flush interval as a Duration.
func (c *Config) GetFlushInterval() time.Duration {
	return time.Duration(c.InfluxDB.FlushInterval) * time.Second
}
