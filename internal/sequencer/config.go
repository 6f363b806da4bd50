package sequencer

import "time"

// IsActive reports whether the scheduler is armed.
func (s *Scheduler) IsActive() bool { return s.state.Active }

// IsSequenceRunning reports whether a sequence is in progress.
func (s *Scheduler) IsSequenceRunning() bool { return s.state.SequenceRunning }

// SoundsPlanned returns the number of sounds sampled for the current sequence.
func (s *Scheduler) SoundsPlanned() int { return s.state.SoundsPlanned }

// SoundsPlayed returns the number of sounds played in the current sequence.
func (s *Scheduler) SoundsPlayed() int { return s.state.SoundsPlayed }

// TimeSinceLastSequenceStart returns the time elapsed since the sequence
// interval timer was last reset.
func (s *Scheduler) TimeSinceLastSequenceStart() time.Duration {
	return s.clock.Now().Sub(s.state.LastSequence)
}

// IsInitialized reports whether a device handshake has succeeded.
func (s *Scheduler) IsInitialized() bool { return s.initialized }

// Snapshot returns a copy of the current state.
func (s *Scheduler) Snapshot() State { return s.state }

// Settings returns a copy of the current configuration.
func (s *Scheduler) Settings() Settings { return s.settings }

// Apply replaces the whole configuration. Values are normalised.
func (s *Scheduler) Apply(settings Settings) {
	s.settings = settings.Normalize()
}

// SetSequenceInterval sets the minimum time between sequence starts.
func (s *Scheduler) SetSequenceInterval(d time.Duration) {
	s.settings.SequenceInterval = max(d, 0)
}

// SetInterSoundDelayRange sets the bounds of the wait between sounds.
// A reversed range is swapped.
func (s *Scheduler) SetInterSoundDelayRange(lo, hi time.Duration) {
	s.settings.MinDelay, s.settings.MaxDelay = orderedDurations(lo, hi)
}

// SetSequenceLengthRange sets the bounds of the sounds per sequence.
// A reversed range is swapped.
func (s *Scheduler) SetSequenceLengthRange(lo, hi int) {
	s.settings.MinSounds, s.settings.MaxSounds = orderedInts(lo, hi)
}

// SetMaxTrackNumber sets the highest playable track; values below 1 become 1.
func (s *Scheduler) SetMaxTrackNumber(n int) {
	s.settings.MaxTrack = max(n, 1)
}

// SetGroup sets the folder tracks are played from.
func (s *Scheduler) SetGroup(g int) {
	s.settings.Group = max(g, 1)
}

// SetVolume forwards the output level to the device.
func (s *Scheduler) SetVolume(level int) error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return s.device.SetVolume(level)
}

// SetResponseTimeout sets the device response timeout. Before Initialize the
// value is kept and applied during the handshake.
func (s *Scheduler) SetResponseTimeout(d time.Duration) {
	s.responseTimeout = d
	if s.initialized {
		s.device.SetResponseTimeout(d)
	}
}

// SetDiagnostics replaces the diagnostics sink. nil discards messages.
func (s *Scheduler) SetDiagnostics(d Diagnostics) {
	if d == nil {
		d = nopDiagnostics{}
	}
	s.diag = d
}

// SetEventHandler replaces the event handler. nil disables events.
func (s *Scheduler) SetEventHandler(h EventHandler) {
	s.onEvent = h
}
