package remote

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// Limits for remotely set values.
const (
	maxVolume = 30
	maxTrack  = 255
	maxGroup  = 99
)

// Parameter names accepted by the configure command.
const (
	paramSequenceInterval = "sequence_interval"
	paramMinDelay         = "min_delay"
	paramMaxDelay         = "max_delay"
	paramMinSounds        = "min_sounds"
	paramMaxSounds        = "max_sounds"
	paramMaxTrack         = "max_track"
	paramGroup            = "group"
	paramLevel            = "level"
)

// mergeSettings applies configure parameters on top of current and
// validates the result. Durations are duration strings ("250ms") or
// numbers of milliseconds.
func mergeSettings(current sequencer.Settings, params map[string]any) (sequencer.Settings, error) {
	if len(params) == 0 {
		return current, fmt.Errorf("%w: no settings given", ErrInvalidParameters)
	}

	next := current
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := params[key]
		var err error
		switch key {
		case paramSequenceInterval:
			next.SequenceInterval, err = durationParam(key, value)
		case paramMinDelay:
			next.MinDelay, err = durationParam(key, value)
		case paramMaxDelay:
			next.MaxDelay, err = durationParam(key, value)
		case paramMinSounds:
			next.MinSounds, err = intParam(key, value)
		case paramMaxSounds:
			next.MaxSounds, err = intParam(key, value)
		case paramMaxTrack:
			next.MaxTrack, err = intParam(key, value)
		case paramGroup:
			next.Group, err = intParam(key, value)
		default:
			err = fmt.Errorf("%w: unknown setting %q", ErrInvalidParameters, key)
		}
		if err != nil {
			return current, err
		}
	}

	if err := validateSettings(next); err != nil {
		return current, err
	}
	return next, nil
}

func validateSettings(s sequencer.Settings) error {
	switch {
	case s.SequenceInterval < 0 || s.MinDelay < 0 || s.MaxDelay < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidParameters)
	case s.MinDelay > s.MaxDelay:
		return fmt.Errorf("%w: min_delay %v exceeds max_delay %v", ErrInvalidParameters, s.MinDelay, s.MaxDelay)
	case s.MinSounds < 0 || s.MinSounds > s.MaxSounds:
		return fmt.Errorf("%w: need 0 <= min_sounds <= max_sounds, got %d and %d",
			ErrInvalidParameters, s.MinSounds, s.MaxSounds)
	case s.MaxTrack < 1 || s.MaxTrack > maxTrack:
		return fmt.Errorf("%w: max_track must be 1-%d, got %d", ErrInvalidParameters, maxTrack, s.MaxTrack)
	case s.Group < 1 || s.Group > maxGroup:
		return fmt.Errorf("%w: group must be 1-%d, got %d", ErrInvalidParameters, maxGroup, s.Group)
	}
	return nil
}

// volumeParam extracts the level parameter (0-30).
func volumeParam(params map[string]any) (int, error) {
	value, ok := params[paramLevel]
	if !ok {
		return 0, fmt.Errorf("%w: missing 'level' parameter", ErrInvalidParameters)
	}
	level, err := intParam(paramLevel, value)
	if err != nil {
		return 0, err
	}
	if level < 0 || level > maxVolume {
		return 0, fmt.Errorf("%w: 'level' must be 0-%d, got %d", ErrInvalidParameters, maxVolume, level)
	}
	return level, nil
}

func durationParam(key string, value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: '%s': %w", ErrInvalidParameters, key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("%w: '%s' must be a duration string or milliseconds", ErrInvalidParameters, key)
	}
}

func intParam(key string, value any) (int, error) {
	v, ok := value.(float64)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: '%s' must be an integer", ErrInvalidParameters, key)
	}
	return int(v), nil
}
