package sequencer

import (
	"context"
	"fmt"
	"time"
)

// Options configures a new Scheduler. Zero values select defaults.
type Options struct {
	// Settings is the initial configuration. A zero value selects DefaultSettings.
	Settings *Settings

	// Clock supplies time for Start, Update and TimeSinceLastSequenceStart.
	// Default: the system clock.
	Clock Clock

	// Random overrides the random source. When set, Initialize does not reseed it.
	Random RandomSource

	// Entropy supplies the seed used by Initialize. Default: crypto/rand.
	Entropy Entropy

	// Diagnostics receives transition messages. Default: discarded.
	Diagnostics Diagnostics

	// OnEvent receives structured transition events. May be nil.
	OnEvent EventHandler

	// ResponseTimeout is applied to the device during Initialize.
	// Default: DefaultResponseTimeout.
	ResponseTimeout time.Duration
}

// Scheduler drives randomised sound sequences from a non-blocking poll.
//
// Thread Safety:
//   - Not safe for concurrent use. Call every method from the polling goroutine.
type Scheduler struct {
	settings Settings
	state    State

	device      PlaybackDevice
	initialized bool
	triggered   bool

	clock           Clock
	rng             RandomSource
	fixedRandom     bool
	entropy         Entropy
	diag            Diagnostics
	onEvent         EventHandler
	responseTimeout time.Duration
}

// New creates an unarmed Scheduler with all timers set to the current time.
func New(opts Options) *Scheduler {
	settings := DefaultSettings()
	if opts.Settings != nil {
		settings = opts.Settings.Normalize()
	}

	s := &Scheduler{
		settings:        settings,
		device:          nopDevice{},
		clock:           opts.Clock,
		rng:             opts.Random,
		fixedRandom:     opts.Random != nil,
		entropy:         opts.Entropy,
		diag:            opts.Diagnostics,
		onEvent:         opts.OnEvent,
		responseTimeout: opts.ResponseTimeout,
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	if s.entropy == nil {
		s.entropy = CryptoEntropy
	}
	if s.diag == nil {
		s.diag = nopDiagnostics{}
	}
	if s.responseTimeout <= 0 {
		s.responseTimeout = DefaultResponseTimeout
	}
	if s.rng == nil {
		s.rng = NewRandom(s.entropy())
	}

	now := s.clock.Now()
	s.state.LastSound = now
	s.state.LastSequence = now
	return s
}

// Initialize attaches the playback device and prepares the timers.
//
// It seeds the random source from the entropy source, runs the device
// handshake, applies the response timeout and volume, resets both timers to
// now and samples an initial inter-sound delay.
//
// Returns:
//   - error: wraps ErrInit if the handshake or initial configuration fails;
//     the scheduler is then stopped and detached from any device
func (s *Scheduler) Initialize(ctx context.Context, device PlaybackDevice, volume int) error {
	if device == nil {
		s.detach()
		return fmt.Errorf("%w: device is nil", ErrInit)
	}

	if !s.fixedRandom {
		s.rng = NewRandom(s.entropy())
	}

	s.diag.Log("Initializing playback device (may take 3-5 seconds)")
	if err := device.Begin(ctx); err != nil {
		s.diag.Log("Unable to begin playback device: check the connection and the storage medium")
		s.detach()
		return fmt.Errorf("%w: %w", ErrInit, err)
	}
	s.diag.Log("Playback device online")

	device.SetResponseTimeout(s.responseTimeout)
	if err := device.SetVolume(volume); err != nil {
		s.detach()
		return fmt.Errorf("%w: setting volume: %w", ErrInit, err)
	}

	s.device = device
	s.initialized = true

	now := s.clock.Now()
	s.state.LastSound = now
	s.state.LastSequence = now
	s.state.NextSoundDelay = s.drawDelay()
	return nil
}

// Start arms the scheduler and restarts the sequence interval timer.
// Calling Start while active only resets the timer.
func (s *Scheduler) Start() {
	s.state.Active = true
	s.state.LastSequence = s.clock.Now()
	s.diag.Log("Sequencing started")
	s.emit(Event{Kind: EventStarted, Time: s.state.LastSequence})
}

// Stop disarms the scheduler and abandons any running sequence.
func (s *Scheduler) Stop() {
	s.state.Active = false
	s.state.SequenceRunning = false
	s.state.SoundsPlanned = 0
	s.state.SoundsPlayed = 0
	s.triggered = false
	s.diag.Log("Sequencing stopped")
	s.emit(Event{Kind: EventStopped, Time: s.clock.Now()})
}

// detach stops the scheduler if it is armed and drops the device.
func (s *Scheduler) detach() {
	if s.state.Active || s.state.SequenceRunning {
		s.Stop()
	}
	s.device = nopDevice{}
	s.initialized = false
}

// Trigger makes the next poll start a sequence regardless of the interval.
// It has no effect while inactive or while a sequence is running.
func (s *Scheduler) Trigger() {
	if !s.state.Active || s.state.SequenceRunning {
		return
	}
	s.triggered = true
}

// EndSequence ends the running sequence without disarming the scheduler.
// Planned and played counts are kept for inspection until the next start.
func (s *Scheduler) EndSequence() {
	if !s.state.SequenceRunning {
		return
	}
	s.endSequence(s.clock.Now())
}

// Update polls with the scheduler's clock.
func (s *Scheduler) Update() {
	s.Poll(s.clock.Now())
}

// Poll runs one decision step. It never blocks and performs at most one
// device call.
func (s *Scheduler) Poll(now time.Time) {
	if !s.state.Active {
		return
	}

	switch {
	case !s.state.SequenceRunning:
		if s.triggered || now.Sub(s.state.LastSequence) >= s.settings.SequenceInterval {
			s.beginSequence(now)
		}
	case now.Sub(s.state.LastSound) >= s.state.NextSoundDelay:
		if s.state.SoundsPlayed < s.state.SoundsPlanned {
			s.playNext(now)
		} else {
			s.endSequence(now)
		}
	}
}

func (s *Scheduler) beginSequence(now time.Time) {
	s.triggered = false
	s.state.SoundsPlanned = s.drawInt(s.settings.MinSounds, s.settings.MaxSounds)
	s.state.SoundsPlayed = 0
	s.state.SequenceRunning = true
	s.state.LastSound = now
	s.state.LastSequence = now
	s.state.NextSoundDelay = 0

	s.diag.Log(fmt.Sprintf("Starting sequence! Will play %d sounds", s.state.SoundsPlanned))
	s.emit(Event{Kind: EventSequenceStarted, Time: now})
}

func (s *Scheduler) playNext(now time.Time) {
	group := s.settings.Group
	track := 1 + s.rng.IntN(s.settings.MaxTrack)

	s.diag.Log(fmt.Sprintf("Playing sound %d of %d: %d",
		s.state.SoundsPlayed+1, s.state.SoundsPlanned, track))

	err := s.device.PlayFolder(group, track)
	if err != nil {
		s.diag.Log(fmt.Sprintf("Play command failed: %v", err))
	}

	s.state.SoundsPlayed++
	s.state.LastSound = now
	s.state.NextSoundDelay = s.drawDelay()

	s.diag.Log(fmt.Sprintf("Next interval: %v", s.state.NextSoundDelay))
	s.emit(Event{
		Kind:      EventSoundPlayed,
		Time:      now,
		Group:     group,
		Track:     track,
		NextDelay: s.state.NextSoundDelay,
		Err:       err,
	})
}

func (s *Scheduler) endSequence(now time.Time) {
	s.state.SequenceRunning = false
	s.diag.Log("Sequence complete! Waiting for next interval...")
	s.emit(Event{Kind: EventSequenceEnded, Time: now})
}

// drawInt returns a value in [lo, hi), or lo when hi <= lo.
func (s *Scheduler) drawInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo)
}

// drawDelay returns a delay in [MinDelay, MaxDelay), or MinDelay when the range is empty.
func (s *Scheduler) drawDelay() time.Duration {
	lo, hi := s.settings.MinDelay, s.settings.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)))
}

func (s *Scheduler) emit(ev Event) {
	if s.onEvent == nil {
		return
	}
	ev.State = s.state
	s.onEvent(ev)
}
