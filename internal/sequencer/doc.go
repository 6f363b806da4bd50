// Package sequencer schedules randomised sequences of sound clips on an
// external playback device.
//
// The Scheduler is a cooperative, non-blocking state machine. The host loop
// calls Poll (or Update) far more often than the configured delays; each poll
// compares elapsed time against two independent timers and performs at most
// one transition:
//
//   - sequence start: sample how many sounds the sequence will play
//   - play one sound: pick a random track and send it to the device
//   - sequence end: wait for the sequence interval before the next start
//
// # Timing
//
// The gap between sequences is measured from the start of the previous
// sequence, not its end. A sequence that runs longer than the interval is
// followed immediately by the next one.
//
// # Randomness
//
// Sequence length and inter-sound delay are drawn from [min, max). When max is
// not greater than min the draw returns min, so a [1, 1] length range always
// plans exactly one sound. Track indices are drawn from [1, maxTrack].
//
// The random source is owned by the Scheduler and seeded from an entropy
// source during Initialize. Tests inject a fixed Entropy or RandomSource for
// reproducible runs.
//
// # Configuration
//
// Setters normalise their input instead of rejecting it: reversed ranges are
// swapped, negative values become zero and a track limit below one becomes
// one. New values take effect at the next decision made by Poll.
//
// # Thread Safety
//
// A Scheduler is not safe for concurrent use. All calls must come from the
// goroutine that polls it; see internal/runner for the host loop that
// serialises remote commands onto that goroutine.
//
// # Usage
//
//	s := sequencer.New(sequencer.Options{})
//	if err := s.Initialize(ctx, player, 10); err != nil {
//	    return err
//	}
//	s.Start()
//	for range ticker.C {
//	    s.Update()
//	}
package sequencer
