package history

import (
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// EndReason records why a sequence ended.
type EndReason string

// End reasons.
const (
	// EndCompleted means every planned sound was played.
	EndCompleted EndReason = "completed"

	// EndEarly means the sequence was ended before playing all planned sounds.
	EndEarly EndReason = "ended_early"

	// EndStopped means the scheduler was stopped mid-sequence.
	EndStopped EndReason = "stopped"
)

// Sequence is one row of the sequences table. EndedAt is nil while the
// sequence is running or if the process died before it ended.
type Sequence struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Planned   int        `json:"planned"`
	Played    int        `json:"played"`
	EndReason EndReason  `json:"end_reason,omitempty"`
}

// Play is one play command sent to the device.
type Play struct {
	SequenceID string        `json:"sequence_id"`
	Ordinal    int           `json:"ordinal"`
	Folder     int           `json:"folder"`
	Track      int           `json:"track"`
	PlayedAt   time.Time     `json:"played_at"`
	NextDelay  time.Duration `json:"next_delay"`
	Error      string        `json:"error,omitempty"`
}

// RuntimeSettings is the configuration set over MQTT.
type RuntimeSettings struct {
	Settings sequencer.Settings `json:"settings"`
	Volume   int                `json:"volume"`
}
