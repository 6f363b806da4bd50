package sequencer

import (
	"context"
	"time"
)

// Default configuration, matching the behaviour of the original controller firmware.
const (
	DefaultSequenceInterval = 10 * time.Second
	DefaultMinDelay         = 80 * time.Millisecond
	DefaultMaxDelay         = 500 * time.Millisecond
	DefaultMinSounds        = 3
	DefaultMaxSounds        = 8
	DefaultMaxTrack         = 50
	DefaultGroup            = 1
	DefaultResponseTimeout  = time.Second
)

// PlaybackDevice is the outbound command sink for sound playback.
//
// The scheduler never parses device responses. PlayFolder is fire-and-forget:
// an error only reports that the command could not be written.
type PlaybackDevice interface {
	// Begin performs the device handshake. It blocks until the device
	// reports ready, ctx is cancelled or the device's own timeout expires.
	Begin(ctx context.Context) error

	// SetVolume sets the output level (0-30).
	SetVolume(level int) error

	// SetResponseTimeout bounds how long the device waits for replies.
	SetResponseTimeout(d time.Duration)

	// PlayFolder plays track index from the given group (folder).
	PlayFolder(group, index int) error
}

// Diagnostics receives human-readable messages at transition points.
// Implementations must not block.
type Diagnostics interface {
	Log(msg string)
}

// Clock supplies monotonic time readings.
type Clock interface {
	Now() time.Time
}

// RandomSource draws uniform integers in [0, n). *rand.Rand from
// math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
	Int64N(n int64) int64
}

// EventHandler is called synchronously on the polling goroutine for every
// transition. Handlers must return quickly.
type EventHandler func(Event)

// Settings is the externally settable configuration.
type Settings struct {
	// SequenceInterval is the minimum time between the starts of two sequences.
	SequenceInterval time.Duration `json:"sequence_interval"`

	// MinDelay and MaxDelay bound the wait between sounds, drawn from [MinDelay, MaxDelay).
	MinDelay time.Duration `json:"min_delay"`
	MaxDelay time.Duration `json:"max_delay"`

	// MinSounds and MaxSounds bound the sounds per sequence, drawn from [MinSounds, MaxSounds).
	MinSounds int `json:"min_sounds"`
	MaxSounds int `json:"max_sounds"`

	// MaxTrack is the highest playable track index in the group.
	MaxTrack int `json:"max_track"`

	// Group is the folder on the playback medium.
	Group int `json:"group"`
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		SequenceInterval: DefaultSequenceInterval,
		MinDelay:         DefaultMinDelay,
		MaxDelay:         DefaultMaxDelay,
		MinSounds:        DefaultMinSounds,
		MaxSounds:        DefaultMaxSounds,
		MaxTrack:         DefaultMaxTrack,
		Group:            DefaultGroup,
	}
}

// Normalize returns a copy with reversed ranges swapped, negative values
// clamped to zero and MaxTrack and Group raised to at least one.
func (s Settings) Normalize() Settings {
	s.SequenceInterval = max(s.SequenceInterval, 0)
	s.MinDelay, s.MaxDelay = orderedDurations(s.MinDelay, s.MaxDelay)
	s.MinSounds, s.MaxSounds = orderedInts(s.MinSounds, s.MaxSounds)
	s.MaxTrack = max(s.MaxTrack, 1)
	s.Group = max(s.Group, 1)
	return s
}

func orderedDurations(lo, hi time.Duration) (time.Duration, time.Duration) {
	lo, hi = max(lo, 0), max(hi, 0)
	if lo > hi {
		return hi, lo
	}
	return lo, hi
}

func orderedInts(lo, hi int) (int, int) {
	lo, hi = max(lo, 0), max(hi, 0)
	if lo > hi {
		return hi, lo
	}
	return lo, hi
}

// State is a snapshot of the scheduler's timing and sequence state.
type State struct {
	Active          bool          `json:"active"`
	SequenceRunning bool          `json:"sequence_running"`
	SoundsPlanned   int           `json:"sounds_planned"`
	SoundsPlayed    int           `json:"sounds_played"`
	LastSound       time.Time     `json:"last_sound"`
	LastSequence    time.Time     `json:"last_sequence_start"`
	NextSoundDelay  time.Duration `json:"next_sound_delay"`
}

// EventKind identifies a scheduler transition.
type EventKind string

// Event kinds emitted by the scheduler.
const (
	EventStarted         EventKind = "started"
	EventStopped         EventKind = "stopped"
	EventSequenceStarted EventKind = "sequence_started"
	EventSoundPlayed     EventKind = "sound_played"
	EventSequenceEnded   EventKind = "sequence_ended"
)

// Event describes one transition. Group and Track are set for
// EventSoundPlayed only; Err carries a device write failure, if any.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Time      time.Time     `json:"time"`
	Group     int           `json:"group,omitempty"`
	Track     int           `json:"track,omitempty"`
	NextDelay time.Duration `json:"next_delay,omitempty"`
	State     State         `json:"state"`
	Err       error         `json:"-"`
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type nopDiagnostics struct{}

func (nopDiagnostics) Log(string) {}

type nopDevice struct{}

func (nopDevice) Begin(context.Context) error      { return nil }
func (nopDevice) SetVolume(int) error              { return nil }
func (nopDevice) SetResponseTimeout(time.Duration) {}
func (nopDevice) PlayFolder(int, int) error        { return nil }
