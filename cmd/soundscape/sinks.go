package main

import (
	"context"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// pointWriter is the part of influxdb.Client used for playback metrics.
type pointWriter interface {
	WriteSoundPlayed(group, track, ordinal, planned int)
	WriteSequence(event string, planned, played int)
}

// metricsSink writes playback metrics for each scheduler event.
type metricsSink struct {
	client pointWriter
}

func (m metricsSink) HandleEvent(_ context.Context, ev sequencer.Event) error {
	switch ev.Kind {
	case sequencer.EventSoundPlayed:
		m.client.WriteSoundPlayed(ev.Group, ev.Track, ev.State.SoundsPlayed, ev.State.SoundsPlanned)
	case sequencer.EventSequenceStarted, sequencer.EventSequenceEnded:
		m.client.WriteSequence(string(ev.Kind), ev.State.SoundsPlanned, ev.State.SoundsPlayed)
	}
	return nil
}
