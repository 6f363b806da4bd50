package history

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// Recorder writes scheduler events to a Repository, assigning a
// "seq-xxxxxxxx" ID to each sequence it sees start.
//
// Thread Safety:
//   - HandleEvent may be called from any goroutine but events must arrive in order.
type Recorder struct {
	repo Repository

	mu      sync.Mutex
	current string
	ordinal int

	newID func() string
}

// NewRecorder creates a Recorder writing to repo.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo:  repo,
		newID: func() string { return "seq-" + uuid.NewString()[:8] },
	}
}

// Current returns the ID of the running sequence, or "".
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// HandleEvent records one event. Events outside a recorded sequence
// (a play with no start, e.g. after a restart) are ignored.
func (r *Recorder) HandleEvent(ctx context.Context, ev sequencer.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case sequencer.EventSequenceStarted:
		id := r.newID()
		err := r.repo.RecordSequenceStart(ctx, Sequence{
			ID:        id,
			StartedAt: ev.Time,
			Planned:   ev.State.SoundsPlanned,
		})
		if err != nil {
			r.current = ""
			return err
		}
		r.current, r.ordinal = id, 0

	case sequencer.EventSoundPlayed:
		if r.current == "" {
			return nil
		}
		r.ordinal++
		play := Play{
			SequenceID: r.current,
			Ordinal:    ev.State.SoundsPlayed,
			Folder:     ev.Group,
			Track:      ev.Track,
			PlayedAt:   ev.Time,
			NextDelay:  ev.NextDelay,
		}
		if play.Ordinal == 0 {
			play.Ordinal = r.ordinal
		}
		if ev.Err != nil {
			play.Error = ev.Err.Error()
		}
		return r.repo.RecordPlay(ctx, play)

	case sequencer.EventSequenceEnded:
		if r.current == "" {
			return nil
		}
		reason := EndCompleted
		if ev.State.SoundsPlayed < ev.State.SoundsPlanned {
			reason = EndEarly
		}
		return r.end(ctx, ev, ev.State.SoundsPlayed, reason)

	case sequencer.EventStopped:
		if r.current == "" {
			return nil
		}
		// Stop zeroes the counters before the event is emitted.
		return r.end(ctx, ev, r.ordinal, EndStopped)
	}
	return nil
}

func (r *Recorder) end(ctx context.Context, ev sequencer.Event, played int, reason EndReason) error {
	id := r.current
	r.current, r.ordinal = "", 0

	err := r.repo.RecordSequenceEnd(ctx, id, ev.Time, played, reason)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
