package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSound    = "soundscape_sound"
	MeasurementSequence = "soundscape_sequence"
)

// WriteSoundPlayed records one play command.
//
// Parameters:
//   - group: Folder the track was played from
//   - track: Track index within the folder
//   - ordinal: Position of the sound in its sequence (1-based)
//   - planned: Sounds planned for the sequence
//
// Example:
//
//	client.WriteSoundPlayed(1, 17, 2, 5)
func (c *Client) WriteSoundPlayed(group, track, ordinal, planned int) {
	c.WritePoint(MeasurementSound,
		map[string]string{"group": strconv.Itoa(group)},
		map[string]interface{}{
			"track":   track,
			"ordinal": ordinal,
			"planned": planned,
		},
		time.Now(),
	)
}

// WriteSequence records a sequence transition, event being the scheduler
// event kind (e.g. "sequence_started").
func (c *Client) WriteSequence(event string, planned, played int) {
	c.WritePoint(MeasurementSequence,
		map[string]string{"event": event},
		map[string]interface{}{
			"planned": planned,
			"played":  played,
		},
		time.Now(),
	)
}

// WritePoint writes a custom point. The site tag is added to tags.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	merged := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		merged[k] = v
	}
	if c.site != "" {
		merged["site"] = c.site
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, merged, fields, ts))
}
