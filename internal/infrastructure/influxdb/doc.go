// Package influxdb records soundscape playback metrics in InfluxDB v2.
//
// It wraps influxdb-client-go with the non-blocking batched write API:
// one soundscape_sound point per play command and one
// soundscape_sequence point per sequence transition, each tagged with
// the site ID.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSoundPlayed(1, 17, 2, 5)
//
// # Error Handling
//
// Writes never block and never return errors; batch failures are delivered
// to the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb
