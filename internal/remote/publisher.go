package remote

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// HandleEvent publishes ev and refreshes the retained status, so a
// Controller can be registered as a runner sink. Events are dropped
// while the broker is unreachable; the status is republished on the next
// event after reconnecting.
func (c *Controller) HandleEvent(_ context.Context, ev sequencer.Event) error {
	err := c.pub.PublishJSON(c.topics.Event(), NewEventMessage(c.site, ev), false)
	if err == nil {
		err = c.publishStatus(ev.State)
	}
	if errors.Is(err, mqtt.ErrNotConnected) {
		return nil
	}
	return err
}

// PublishStatus publishes the current status, retained.
func (c *Controller) PublishStatus() error {
	return c.publishStatus(c.exec.Status().State)
}

// Status builds the status message for state.
func (c *Controller) Status(state sequencer.State) StatusMessage {
	st := c.exec.Status()
	return StatusMessage{
		Site:            c.site,
		Timestamp:       time.Now().UTC(),
		Initialized:     st.Initialized,
		Active:          state.Active,
		SequenceRunning: state.SequenceRunning,
		SoundsPlanned:   state.SoundsPlanned,
		SoundsPlayed:    state.SoundsPlayed,
		Volume:          c.Volume(),
		Settings:        NewSettingsPayload(st.Settings),
	}
}

func (c *Controller) publishStatus(state sequencer.State) error {
	return c.pub.PublishJSON(c.topics.State(), c.Status(state), true)
}

func (c *Controller) publishStatusLogged() {
	if err := c.PublishStatus(); err != nil {
		c.logger.Warn("failed to publish status", "error", err)
	}
}

func (c *Controller) publishAck(ack AckMessage) error {
	return c.pub.PublishJSON(c.topics.Ack(), ack, false)
}
