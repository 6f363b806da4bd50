package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/history"
	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-soundscape/internal/runner"
	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
)

// defaultCommandTimeout bounds how long a command waits for the loop.
const defaultCommandTimeout = 5 * time.Second

// Executor runs commands against the scheduler. *runner.Runner satisfies it.
type Executor interface {
	Do(ctx context.Context, cmd runner.Command) error
	Status() runner.Status
}

// Publisher sends JSON messages. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// SettingsStore persists runtime settings. *history.SQLiteRepository satisfies it.
type SettingsStore interface {
	SaveSettings(ctx context.Context, settings history.RuntimeSettings) error
}

// Logger is the subset of logging.Logger used by the controller.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Options configures a Controller.
type Options struct {
	Site      string
	Executor  Executor
	Publisher Publisher

	// Store persists configure and volume changes. May be nil.
	Store SettingsStore

	Logger Logger

	// Volume is the level applied at startup.
	Volume int

	// CommandTimeout bounds each command. Default: 5s.
	CommandTimeout time.Duration
}

// Controller applies remote commands and publishes acks, events and status.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Controller struct {
	site    string
	topics  mqtt.Topics
	exec    Executor
	pub     Publisher
	store   SettingsStore
	logger  Logger
	timeout time.Duration

	mu     sync.Mutex
	volume int
}

// NewController creates a controller for one site.
func NewController(opts Options) *Controller {
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		site:    opts.Site,
		topics:  mqtt.Topics{Site: opts.Site},
		exec:    opts.Executor,
		pub:     opts.Publisher,
		store:   opts.Store,
		logger:  logger,
		timeout: timeout,
		volume:  opts.Volume,
	}
}

// Volume returns the last volume level applied.
func (c *Controller) Volume() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// HandleCommand decodes, executes and acknowledges a command payload.
// Its signature matches mqtt.MessageHandler.
func (c *Controller) HandleCommand(_ string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		ack := NewAckError(cmd, ErrCodeInvalidCommand, fmt.Sprintf("malformed command: %v", err))
		if pubErr := c.publishAck(ack); pubErr != nil {
			return pubErr
		}
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	ack := c.Execute(ctx, cmd)
	return c.publishAck(ack)
}

// Execute applies cmd and returns its acknowledgement.
func (c *Controller) Execute(ctx context.Context, cmd CommandMessage) AckMessage {
	c.logger.Info("received command", "command_id", cmd.ID, "command", cmd.Command, "source", cmd.Source)

	var err error
	switch cmd.Command {
	case CommandStart:
		err = c.exec.Do(ctx, func(s *sequencer.Scheduler) error { s.Start(); return nil })
	case CommandStop:
		err = c.exec.Do(ctx, func(s *sequencer.Scheduler) error { s.Stop(); return nil })
	case CommandTrigger:
		err = c.exec.Do(ctx, func(s *sequencer.Scheduler) error { s.Trigger(); return nil })
	case CommandEndSequence:
		err = c.exec.Do(ctx, func(s *sequencer.Scheduler) error { s.EndSequence(); return nil })
	case CommandConfigure:
		err = c.configure(ctx, cmd.Parameters)
	case CommandVolume:
		err = c.setVolume(ctx, cmd.Parameters)
	case "":
		return NewAckError(cmd, ErrCodeInvalidCommand, "missing command")
	default:
		return NewAckError(cmd, ErrCodeInvalidCommand, fmt.Sprintf("unknown command: %s", cmd.Command))
	}

	if err != nil {
		c.logger.Warn("command failed", "command_id", cmd.ID, "command", cmd.Command, "error", err)
		return NewAckError(cmd, errorCode(err), err.Error())
	}
	return NewAckMessage(cmd)
}

func (c *Controller) configure(ctx context.Context, params map[string]any) error {
	var applied sequencer.Settings
	err := c.exec.Do(ctx, func(s *sequencer.Scheduler) error {
		next, err := mergeSettings(s.Settings(), params)
		if err != nil {
			return err
		}
		s.Apply(next)
		applied = s.Settings()
		return nil
	})
	if err != nil {
		return err
	}

	c.persist(ctx, applied, c.Volume())
	c.publishStatusLogged()
	return nil
}

func (c *Controller) setVolume(ctx context.Context, params map[string]any) error {
	level, err := volumeParam(params)
	if err != nil {
		return err
	}

	var settings sequencer.Settings
	err = c.exec.Do(ctx, func(s *sequencer.Scheduler) error {
		settings = s.Settings()
		return s.SetVolume(level)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.volume = level
	c.mu.Unlock()

	c.persist(ctx, settings, level)
	c.publishStatusLogged()
	return nil
}

func (c *Controller) persist(ctx context.Context, settings sequencer.Settings, volume int) {
	if c.store == nil {
		return
	}
	err := c.store.SaveSettings(ctx, history.RuntimeSettings{Settings: settings, Volume: volume})
	if err != nil {
		c.logger.Warn("failed to persist settings", "error", err)
	}
}

// errorCode maps a command error to an ack error code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidParameters):
		return ErrCodeInvalidParameters
	case errors.Is(err, sequencer.ErrNotInitialized):
		return ErrCodeNotInitialized
	case errors.Is(err, runner.ErrBusy), errors.Is(err, runner.ErrStopped):
		return ErrCodeBusy
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	default:
		return ErrCodeDeviceError
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
