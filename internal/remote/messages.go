package remote

import (
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// Command names.
const (
	CommandStart       = "start"
	CommandStop        = "stop"
	CommandTrigger     = "trigger"
	CommandEndSequence = "end_sequence"
	CommandConfigure   = "configure"
	CommandVolume      = "volume"
)

// CommandMessage is a remote command.
// Topic: graylogic/command/soundscape/{site}
type CommandMessage struct {
	// ID correlates the command with its acknowledgement.
	ID string `json:"id"`

	// Command is one of the Command* names.
	Command string `json:"command"`

	// Parameters holds command arguments.
	// Examples:
	//   {"level": 20} for volume
	//   {"min_delay": "100ms", "max_sounds": 6} for configure
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the command originated (api, automation, panel).
	Source string `json:"source,omitempty"`
}

// AckStatus represents the acknowledgement status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command was applied.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command was rejected or could not be applied.
	AckFailed AckStatus = "failed"
)

// Error codes for failed commands.
const (
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodeNotInitialized    = "NOT_INITIALIZED"
	ErrCodeDeviceError       = "DEVICE_ERROR"
	ErrCodeBusy              = "BUSY"
	ErrCodeTimeout           = "TIMEOUT"
)

// AckMessage acknowledges a command.
// Topic: graylogic/ack/soundscape/{site}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Command   string    `json:"command,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Status    AckStatus `json:"status"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError contains details for failed commands.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SettingsPayload is Settings with durations in milliseconds.
type SettingsPayload struct {
	SequenceIntervalMS int64 `json:"sequence_interval_ms"`
	MinDelayMS         int64 `json:"min_delay_ms"`
	MaxDelayMS         int64 `json:"max_delay_ms"`
	MinSounds          int   `json:"min_sounds"`
	MaxSounds          int   `json:"max_sounds"`
	MaxTrack           int   `json:"max_track"`
	Group              int   `json:"group"`
}

// StatusMessage is the retained scheduler status.
// Topic: graylogic/state/soundscape/{site}
// QoS: 1, Retained: Yes
type StatusMessage struct {
	Site            string          `json:"site"`
	Timestamp       time.Time       `json:"timestamp"`
	Initialized     bool            `json:"initialized"`
	Active          bool            `json:"active"`
	SequenceRunning bool            `json:"sequence_running"`
	SoundsPlanned   int             `json:"sounds_planned"`
	SoundsPlayed    int             `json:"sounds_played"`
	Volume          int             `json:"volume"`
	Settings        SettingsPayload `json:"settings"`
}

// EventMessage reports one scheduler transition.
// Topic: graylogic/event/soundscape/{site}
type EventMessage struct {
	Site          string              `json:"site"`
	Kind          sequencer.EventKind `json:"kind"`
	Timestamp     time.Time           `json:"timestamp"`
	Group         int                 `json:"group,omitempty"`
	Track         int                 `json:"track,omitempty"`
	NextDelayMS   int64               `json:"next_delay_ms,omitempty"`
	SoundsPlanned int                 `json:"sounds_planned"`
	SoundsPlayed  int                 `json:"sounds_played"`
	Error         string              `json:"error,omitempty"`
}

// NewAckMessage creates an accepted acknowledgement.
func NewAckMessage(cmd CommandMessage) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Command:   cmd.Command,
		Timestamp: time.Now().UTC(),
		Status:    AckAccepted,
	}
}

// NewAckError creates a failed acknowledgement.
func NewAckError(cmd CommandMessage, code, message string) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Command:   cmd.Command,
		Timestamp: time.Now().UTC(),
		Status:    AckFailed,
		Error:     &AckError{Code: code, Message: message},
	}
}

// NewSettingsPayload converts scheduler settings for the wire.
func NewSettingsPayload(s sequencer.Settings) SettingsPayload {
	return SettingsPayload{
		SequenceIntervalMS: s.SequenceInterval.Milliseconds(),
		MinDelayMS:         s.MinDelay.Milliseconds(),
		MaxDelayMS:         s.MaxDelay.Milliseconds(),
		MinSounds:          s.MinSounds,
		MaxSounds:          s.MaxSounds,
		MaxTrack:           s.MaxTrack,
		Group:              s.Group,
	}
}

// NewEventMessage converts a scheduler event for the wire.
func NewEventMessage(site string, ev sequencer.Event) EventMessage {
	msg := EventMessage{
		Site:          site,
		Kind:          ev.Kind,
		Timestamp:     ev.Time.UTC(),
		Group:         ev.Group,
		Track:         ev.Track,
		NextDelayMS:   ev.NextDelay.Milliseconds(),
		SoundsPlanned: ev.State.SoundsPlanned,
		SoundsPlayed:  ev.State.SoundsPlayed,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}
