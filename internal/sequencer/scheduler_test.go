package sequencer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

type playCall struct {
	Group int
	Track int
}

type fakeDevice struct {
	beginErr  error
	volumeErr error
	playErr   error

	volumes  []int
	timeouts []time.Duration
	plays    []playCall
}

func (d *fakeDevice) Begin(context.Context) error { return d.beginErr }

func (d *fakeDevice) SetVolume(level int) error {
	d.volumes = append(d.volumes, level)
	return d.volumeErr
}

func (d *fakeDevice) SetResponseTimeout(t time.Duration) {
	d.timeouts = append(d.timeouts, t)
}

func (d *fakeDevice) PlayFolder(group, index int) error {
	d.plays = append(d.plays, playCall{Group: group, Track: index})
	return d.playErr
}

// zeroRandom always draws the lower bound.
type zeroRandom struct{}

func (zeroRandom) IntN(int) int       { return 0 }
func (zeroRandom) Int64N(int64) int64 { return 0 }

// topRandom always draws the highest value below n.
type topRandom struct{}

func (topRandom) IntN(n int) int       { return n - 1 }
func (topRandom) Int64N(n int64) int64 { return n - 1 }

type recordedDiagnostics struct {
	msgs []string
}

func (r *recordedDiagnostics) Log(msg string) { r.msgs = append(r.msgs, msg) }

// ─── Helpers ────────────────────────────────────────────────────────────────

func newTestScheduler(t *testing.T, settings Settings, rng RandomSource) (*Scheduler, *fakeClock, *fakeDevice) {
	t.Helper()

	clock := newFakeClock()
	dev := &fakeDevice{}
	s := New(Options{
		Settings: &settings,
		Clock:    clock,
		Random:   rng,
	})
	if err := s.Initialize(context.Background(), dev, 10); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return s, clock, dev
}

// pollFor advances the clock in steps and polls after each step.
func pollFor(s *Scheduler, clock *fakeClock, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		s.Poll(clock.Advance(step))
	}
}

func scenarioSettings() Settings {
	return Settings{
		SequenceInterval: 10 * time.Second,
		MinDelay:         80 * time.Millisecond,
		MaxDelay:         500 * time.Millisecond,
		MinSounds:        3,
		MaxSounds:        4,
		MaxTrack:         50,
		Group:            1,
	}
}

// ─── Construction & initialisation ──────────────────────────────────────────

func TestNew_Defaults(t *testing.T) {
	s := New(Options{Clock: newFakeClock()})

	if got := s.Settings(); got != DefaultSettings() {
		t.Errorf("Settings() = %+v, want %+v", got, DefaultSettings())
	}
	if s.IsActive() {
		t.Error("IsActive() = true, want false")
	}
	if s.IsSequenceRunning() {
		t.Error("IsSequenceRunning() = true, want false")
	}
	if s.IsInitialized() {
		t.Error("IsInitialized() = true before Initialize")
	}
}

func TestInitialize_Success(t *testing.T) {
	clock := newFakeClock()
	dev := &fakeDevice{}
	diag := &recordedDiagnostics{}
	s := New(Options{Clock: clock, Random: zeroRandom{}, Diagnostics: diag})

	clock.Advance(time.Minute)
	if err := s.Initialize(context.Background(), dev, 22); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if !s.IsInitialized() {
		t.Error("IsInitialized() = false after Initialize")
	}
	if len(dev.volumes) != 1 || dev.volumes[0] != 22 {
		t.Errorf("volumes = %v, want [22]", dev.volumes)
	}
	if len(dev.timeouts) != 1 || dev.timeouts[0] != DefaultResponseTimeout {
		t.Errorf("timeouts = %v, want [%v]", dev.timeouts, DefaultResponseTimeout)
	}
	if got := s.TimeSinceLastSequenceStart(); got != 0 {
		t.Errorf("TimeSinceLastSequenceStart() = %v, want 0 (timers reset)", got)
	}
	if got := s.Snapshot().NextSoundDelay; got != DefaultMinDelay {
		t.Errorf("NextSoundDelay = %v, want %v", got, DefaultMinDelay)
	}
	if s.IsActive() {
		t.Error("Initialize should not arm the scheduler")
	}
	if len(diag.msgs) == 0 {
		t.Error("expected diagnostics during Initialize")
	}
}

func TestInitialize_DeviceFailure(t *testing.T) {
	tests := []struct {
		name string
		dev  *fakeDevice
	}{
		{name: "handshake fails", dev: &fakeDevice{beginErr: errors.New("no medium")}},
		{name: "volume fails", dev: &fakeDevice{volumeErr: errors.New("write failed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{Clock: newFakeClock()})

			err := s.Initialize(context.Background(), tt.dev, 10)
			if !errors.Is(err, ErrInit) {
				t.Fatalf("Initialize() error = %v, want ErrInit", err)
			}
			if s.IsInitialized() {
				t.Error("IsInitialized() = true after failure")
			}
			if s.IsActive() {
				t.Error("IsActive() = true after failure")
			}
		})
	}
}

func TestInitialize_FailureDisarms(t *testing.T) {
	tests := []struct {
		name string
		dev  PlaybackDevice
	}{
		{name: "handshake fails", dev: &fakeDevice{beginErr: errors.New("no sd")}},
		{name: "volume fails", dev: &fakeDevice{volumeErr: errors.New("write failed")}},
		{name: "nil device", dev: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, first := newTestScheduler(t, scenarioSettings(), zeroRandom{})
			var stops int
			s.SetEventHandler(func(ev Event) {
				if ev.Kind == EventStopped {
					stops++
				}
			})

			s.Start()
			s.Trigger()
			s.Poll(clock.Advance(time.Millisecond))
			if !s.IsSequenceRunning() {
				t.Fatal("sequence not running before re-initialise")
			}

			if err := s.Initialize(context.Background(), tt.dev, 10); !errors.Is(err, ErrInit) {
				t.Fatalf("Initialize() error = %v, want ErrInit", err)
			}

			state := s.Snapshot()
			if state.Active || state.SequenceRunning || state.SoundsPlanned != 0 || state.SoundsPlayed != 0 {
				t.Errorf("state after failure = %+v, want stopped", state)
			}
			if s.IsInitialized() {
				t.Error("IsInitialized() = true after failure")
			}
			if stops != 1 {
				t.Errorf("stopped events = %d, want 1", stops)
			}

			played := len(first.plays)
			pollFor(s, clock, time.Minute, 50*time.Millisecond)
			if len(first.plays) != played {
				t.Errorf("previous device played %d more sounds after failed Initialize", len(first.plays)-played)
			}
			if s.IsActive() {
				t.Error("scheduler re-armed itself")
			}
		})
	}
}

func TestInitialize_NilDevice(t *testing.T) {
	s := New(Options{Clock: newFakeClock()})
	if err := s.Initialize(context.Background(), nil, 10); !errors.Is(err, ErrInit) {
		t.Errorf("Initialize(nil) error = %v, want ErrInit", err)
	}
}

func TestInitialize_ReseedsFromEntropy(t *testing.T) {
	run := func(seed uint64) []playCall {
		clock := newFakeClock()
		dev := &fakeDevice{}
		settings := DefaultSettings()
		settings.SequenceInterval = time.Second
		s := New(Options{Settings: &settings, Clock: clock, Entropy: FixedEntropy(seed)})
		if err := s.Initialize(context.Background(), dev, 10); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		s.Start()
		pollFor(s, clock, 30*time.Second, 10*time.Millisecond)
		return dev.plays
	}

	first := run(42)
	second := run(42)

	if len(first) == 0 {
		t.Fatal("expected plays")
	}
	if len(first) != len(second) {
		t.Fatalf("play counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("play %d = %+v, want %+v", i, second[i], first[i])
		}
	}
}

func TestSetVolume_BeforeInitialize(t *testing.T) {
	s := New(Options{Clock: newFakeClock()})
	if err := s.SetVolume(5); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SetVolume() error = %v, want ErrNotInitialized", err)
	}
}

func TestSetResponseTimeout(t *testing.T) {
	clock := newFakeClock()
	dev := &fakeDevice{}
	s := New(Options{Clock: clock})

	s.SetResponseTimeout(3 * time.Second)
	if err := s.Initialize(context.Background(), dev, 10); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	s.SetResponseTimeout(2 * time.Second)

	want := []time.Duration{3 * time.Second, 2 * time.Second}
	if len(dev.timeouts) != len(want) {
		t.Fatalf("timeouts = %v, want %v", dev.timeouts, want)
	}
	for i := range want {
		if dev.timeouts[i] != want[i] {
			t.Errorf("timeouts[%d] = %v, want %v", i, dev.timeouts[i], want[i])
		}
	}
}

// ─── Decision algorithm ─────────────────────────────────────────────────────

func TestPoll_InactiveDoesNothing(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})

	before := s.Snapshot()
	pollFor(s, clock, 30*time.Second, 100*time.Millisecond)

	if len(dev.plays) != 0 {
		t.Errorf("plays = %d, want 0", len(dev.plays))
	}
	if s.Snapshot() != before {
		t.Errorf("state changed while inactive: %+v -> %+v", before, s.Snapshot())
	}
}

func TestPoll_FirstSequenceWaitsForInterval(t *testing.T) {
	s, clock, _ := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	s.Start()

	s.Poll(clock.Advance(10*time.Second - time.Millisecond))
	if s.IsSequenceRunning() {
		t.Fatal("sequence started before the interval elapsed")
	}

	s.Poll(clock.Advance(time.Millisecond))
	if !s.IsSequenceRunning() {
		t.Fatal("sequence did not start once the interval elapsed")
	}
	if got := s.SoundsPlanned(); got != 3 {
		t.Errorf("SoundsPlanned() = %d, want 3", got)
	}
	if got := s.SoundsPlayed(); got != 0 {
		t.Errorf("SoundsPlayed() = %d, want 0", got)
	}
}

func TestPoll_FirstSoundIsImmediate(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	s.Start()

	s.Poll(clock.Advance(10 * time.Second))
	if len(dev.plays) != 0 {
		t.Fatalf("plays = %d on the start poll, want 0", len(dev.plays))
	}

	// Same instant: the forced zero delay lets the very next poll play.
	s.Poll(clock.now)
	if len(dev.plays) != 1 {
		t.Fatalf("plays = %d on the following poll, want 1", len(dev.plays))
	}
	if got := s.SoundsPlayed(); got != 1 {
		t.Errorf("SoundsPlayed() = %d, want 1", got)
	}
}

func TestPoll_RespectsInterSoundDelay(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	s.Start()
	s.Poll(clock.Advance(10 * time.Second))
	s.Poll(clock.now)

	s.Poll(clock.Advance(79 * time.Millisecond))
	if len(dev.plays) != 1 {
		t.Fatalf("plays = %d before the delay elapsed, want 1", len(dev.plays))
	}
	s.Poll(clock.Advance(time.Millisecond))
	if len(dev.plays) != 2 {
		t.Fatalf("plays = %d after the delay elapsed, want 2", len(dev.plays))
	}
}

func TestScenario_SingleSequenceWithScriptedRandom(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})

	var starts int
	s.SetEventHandler(func(ev Event) {
		if ev.Kind == EventSequenceStarted {
			starts++
		}
	})
	s.Start()

	pollFor(s, clock, 11*time.Second, 10*time.Millisecond)
	if s.IsSequenceRunning() {
		t.Error("IsSequenceRunning() = true at the 11 s mark")
	}

	pollFor(s, clock, 4*time.Second, 10*time.Millisecond)

	if starts != 1 {
		t.Errorf("sequence starts = %d, want 1", starts)
	}
	if len(dev.plays) != 3 {
		t.Fatalf("plays = %d, want 3", len(dev.plays))
	}
	for i, p := range dev.plays {
		if p.Group != 1 {
			t.Errorf("play %d group = %d, want 1", i, p.Group)
		}
		if p.Track != 1 {
			t.Errorf("play %d track = %d, want 1", i, p.Track)
		}
	}
}

func TestScenario_SingleSequenceWithSeededRandom(t *testing.T) {
	settings := scenarioSettings()
	clock := newFakeClock()
	dev := &fakeDevice{}
	s := New(Options{Settings: &settings, Clock: clock, Entropy: FixedEntropy(7)})
	if err := s.Initialize(context.Background(), dev, 10); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	var starts int
	s.SetEventHandler(func(ev Event) {
		if ev.Kind == EventSequenceStarted {
			starts++
		}
	})
	s.Start()

	// Worst case: start at 10.00 s, three sounds and a final wait of <500 ms
	// each, all quantised to the 10 ms poll period.
	pollFor(s, clock, 11520*time.Millisecond, 10*time.Millisecond)
	if s.IsSequenceRunning() {
		t.Error("IsSequenceRunning() = true after the longest possible sequence")
	}
	pollFor(s, clock, 15*time.Second-11520*time.Millisecond, 10*time.Millisecond)

	if starts != 1 {
		t.Errorf("sequence starts = %d, want 1", starts)
	}
	if len(dev.plays) != 3 {
		t.Fatalf("plays = %d, want 3", len(dev.plays))
	}
	for i, p := range dev.plays {
		if p.Track < 1 || p.Track > 50 {
			t.Errorf("play %d track = %d, want within [1,50]", i, p.Track)
		}
	}
}

func TestScenario_StopMidSequence(t *testing.T) {
	settings := scenarioSettings()
	settings.MinSounds, settings.MaxSounds = 5, 5
	s, clock, dev := newTestScheduler(t, settings, zeroRandom{})
	s.Start()

	s.Poll(clock.Advance(10 * time.Second))
	s.Poll(clock.Advance(10 * time.Millisecond))
	if s.SoundsPlanned() != 5 || s.SoundsPlayed() != 1 {
		t.Fatalf("planned/played = %d/%d, want 5/1", s.SoundsPlanned(), s.SoundsPlayed())
	}

	s.Stop()

	if got := s.SoundsPlayed(); got != 0 {
		t.Errorf("SoundsPlayed() = %d after Stop, want 0", got)
	}
	if got := s.SoundsPlanned(); got != 0 {
		t.Errorf("SoundsPlanned() = %d after Stop, want 0", got)
	}
	if s.IsSequenceRunning() || s.IsActive() {
		t.Error("Stop should clear both active and sequence running")
	}

	pollFor(s, clock, time.Minute, 10*time.Millisecond)
	if len(dev.plays) != 1 {
		t.Errorf("plays = %d after Stop, want 1", len(dev.plays))
	}

	s.Start()
	pollFor(s, clock, 10*time.Second+20*time.Millisecond, 10*time.Millisecond)
	if len(dev.plays) < 2 {
		t.Errorf("plays = %d after restart, want playback to resume", len(dev.plays))
	}
}

func TestScenario_DegenerateLengthRange(t *testing.T) {
	settings := scenarioSettings()
	settings.MinSounds, settings.MaxSounds = 1, 1

	for _, rng := range []RandomSource{zeroRandom{}, topRandom{}, NewRandom(99)} {
		s, clock, dev := newTestScheduler(t, settings, rng)
		s.Start()
		s.Poll(clock.Advance(10 * time.Second))

		if got := s.SoundsPlanned(); got != 1 {
			t.Errorf("SoundsPlanned() = %d, want 1", got)
		}
		pollFor(s, clock, 2*time.Second, 10*time.Millisecond)
		if len(dev.plays) != 1 {
			t.Errorf("plays = %d, want 1", len(dev.plays))
		}
	}
}

func TestPoll_IntervalMeasuredFromSequenceStart(t *testing.T) {
	settings := Settings{
		SequenceInterval: time.Second,
		MinDelay:         400 * time.Millisecond,
		MaxDelay:         400 * time.Millisecond,
		MinSounds:        4,
		MaxSounds:        4,
		MaxTrack:         10,
		Group:            2,
	}
	s, clock, _ := newTestScheduler(t, settings, zeroRandom{})

	var ends, starts []time.Time
	s.SetEventHandler(func(ev Event) {
		switch ev.Kind {
		case EventSequenceStarted:
			starts = append(starts, ev.Time)
		case EventSequenceEnded:
			ends = append(ends, ev.Time)
		}
	})
	s.Start()
	pollFor(s, clock, 5*time.Second, 10*time.Millisecond)

	if len(starts) < 2 || len(ends) < 1 {
		t.Fatalf("starts = %d, ends = %d; want at least 2 and 1", len(starts), len(ends))
	}
	// The sequence lasts longer than the interval, so the next one starts on
	// the poll right after the previous one ends.
	if gap := starts[1].Sub(ends[0]); gap != 10*time.Millisecond {
		t.Errorf("gap after a long sequence = %v, want one poll period", gap)
	}
}

func TestPoll_TrackRangeInclusive(t *testing.T) {
	settings := scenarioSettings()
	settings.MaxTrack = 7

	for _, tt := range []struct {
		name string
		rng  RandomSource
		want int
	}{
		{name: "lowest draw", rng: zeroRandom{}, want: 1},
		{name: "highest draw", rng: topRandom{}, want: 7},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, dev := newTestScheduler(t, settings, tt.rng)
			s.Start()
			s.Poll(clock.Advance(10 * time.Second))
			s.Poll(clock.now)

			if len(dev.plays) != 1 {
				t.Fatalf("plays = %d, want 1", len(dev.plays))
			}
			if dev.plays[0].Track != tt.want {
				t.Errorf("track = %d, want %d", dev.plays[0].Track, tt.want)
			}
		})
	}
}

func TestPoll_UpperBoundsExclusive(t *testing.T) {
	s, clock, _ := newTestScheduler(t, scenarioSettings(), topRandom{})
	s.Start()
	s.Poll(clock.Advance(10 * time.Second))

	if got := s.SoundsPlanned(); got != 3 {
		t.Errorf("SoundsPlanned() = %d, want 3 for [3,4)", got)
	}
	s.Poll(clock.now)
	if got := s.Snapshot().NextSoundDelay; got != 500*time.Millisecond-1 {
		t.Errorf("NextSoundDelay = %v, want just below 500ms", got)
	}
}

func TestPoll_DeviceErrorStillCounts(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	dev.playErr = errors.New("write failed")

	var played []Event
	s.SetEventHandler(func(ev Event) {
		if ev.Kind == EventSoundPlayed {
			played = append(played, ev)
		}
	})
	s.Start()
	s.Poll(clock.Advance(10 * time.Second))
	s.Poll(clock.now)

	if got := s.SoundsPlayed(); got != 1 {
		t.Errorf("SoundsPlayed() = %d, want 1", got)
	}
	if len(played) != 1 || played[0].Err == nil {
		t.Errorf("expected one sound_played event carrying the device error, got %+v", played)
	}
}

// ─── Controls ───────────────────────────────────────────────────────────────

func TestStart_IsIdempotent(t *testing.T) {
	s, clock, _ := newTestScheduler(t, scenarioSettings(), zeroRandom{})

	s.Start()
	clock.Advance(6 * time.Second)
	s.Start()

	if !s.IsActive() {
		t.Fatal("IsActive() = false after Start")
	}
	if got := s.TimeSinceLastSequenceStart(); got != 0 {
		t.Errorf("TimeSinceLastSequenceStart() = %v, want 0 after second Start", got)
	}

	s.Poll(clock.Advance(6 * time.Second))
	if s.IsSequenceRunning() {
		t.Error("second Start should have reset the interval timer")
	}
}

func TestTrigger(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})

	s.Trigger()
	s.Poll(clock.Advance(10 * time.Millisecond))
	if s.IsSequenceRunning() {
		t.Fatal("Trigger while inactive should have no effect")
	}

	s.Start()
	s.Trigger()
	s.Poll(clock.Advance(10 * time.Millisecond))
	if !s.IsSequenceRunning() {
		t.Fatal("Trigger should start a sequence on the next poll")
	}
	s.Poll(clock.Advance(10 * time.Millisecond))
	if len(dev.plays) != 1 {
		t.Errorf("plays = %d, want 1", len(dev.plays))
	}
}

func TestEndSequence(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	s.Start()
	s.Poll(clock.Advance(10 * time.Second))
	s.Poll(clock.now)

	s.EndSequence()

	if s.IsSequenceRunning() {
		t.Error("IsSequenceRunning() = true after EndSequence")
	}
	if !s.IsActive() {
		t.Error("EndSequence should not disarm the scheduler")
	}
	pollFor(s, clock, 5*time.Second, 10*time.Millisecond)
	if len(dev.plays) != 1 {
		t.Errorf("plays = %d, want 1 before the next interval", len(dev.plays))
	}
}

func TestEvents_Order(t *testing.T) {
	s, clock, _ := newTestScheduler(t, scenarioSettings(), zeroRandom{})

	var kinds []EventKind
	s.SetEventHandler(func(ev Event) { kinds = append(kinds, ev.Kind) })

	s.Start()
	pollFor(s, clock, 11*time.Second, 10*time.Millisecond)
	s.Stop()

	want := []EventKind{
		EventStarted,
		EventSequenceStarted,
		EventSoundPlayed, EventSoundPlayed, EventSoundPlayed,
		EventSequenceEnded,
		EventStopped,
	}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestDiagnostics_Messages(t *testing.T) {
	s, clock, _ := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	diag := &recordedDiagnostics{}
	s.SetDiagnostics(diag)

	s.Start()
	pollFor(s, clock, 11*time.Second, 10*time.Millisecond)

	joined := strings.Join(diag.msgs, "\n")
	for _, want := range []string{
		"Sequencing started",
		"Starting sequence! Will play 3 sounds",
		"Playing sound 1 of 3: 1",
		"Next interval: 80ms",
		"Sequence complete!",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}

	s.SetDiagnostics(nil)
	s.Stop() // must not panic with diagnostics disabled
}

// ─── Configuration ──────────────────────────────────────────────────────────

func TestSetters_Normalise(t *testing.T) {
	s := New(Options{Clock: newFakeClock()})

	s.SetSequenceInterval(-time.Second)
	s.SetInterSoundDelayRange(500*time.Millisecond, 80*time.Millisecond)
	s.SetSequenceLengthRange(8, -3)
	s.SetMaxTrackNumber(0)
	s.SetGroup(-2)

	want := Settings{
		SequenceInterval: 0,
		MinDelay:         80 * time.Millisecond,
		MaxDelay:         500 * time.Millisecond,
		MinSounds:        0,
		MaxSounds:        8,
		MaxTrack:         1,
		Group:            1,
	}
	if got := s.Settings(); got != want {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}
}

func TestApply_TakesEffectAtNextDecision(t *testing.T) {
	s, clock, dev := newTestScheduler(t, scenarioSettings(), zeroRandom{})
	s.Start()
	s.Poll(clock.Advance(10 * time.Second))

	next := scenarioSettings()
	next.Group = 4
	next.MaxTrack = 3
	s.Apply(next)
	s.Poll(clock.now)

	if len(dev.plays) != 1 || dev.plays[0].Group != 4 {
		t.Errorf("plays = %+v, want one play from group 4", dev.plays)
	}
}

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "already valid",
			in:   DefaultSettings(),
			want: DefaultSettings(),
		},
		{
			name: "reversed ranges swapped",
			in:   Settings{MinDelay: 2, MaxDelay: 1, MinSounds: 9, MaxSounds: 2, MaxTrack: 5, Group: 1},
			want: Settings{MinDelay: 1, MaxDelay: 2, MinSounds: 2, MaxSounds: 9, MaxTrack: 5, Group: 1},
		},
		{
			name: "negatives clamped",
			in:   Settings{SequenceInterval: -1, MinDelay: -5, MaxDelay: 3, MinSounds: -1, MaxSounds: 1, MaxTrack: -4, Group: -1},
			want: Settings{SequenceInterval: 0, MinDelay: 0, MaxDelay: 3, MinSounds: 0, MaxSounds: 1, MaxTrack: 1, Group: 1},
		},
		{
			name: "zero group raised to first folder",
			in:   Settings{MaxTrack: 5},
			want: Settings{MaxTrack: 5, Group: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
