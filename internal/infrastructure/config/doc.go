// Package config handles loading and validating soundscape configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields and ranges
//   - Default value handling
//
// Durations are written as Go duration strings ("10s", "80ms").
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings := cfg.Sequencer.Settings()
package config
