package dfplayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and sizes.
const (
	// DefaultResponseTimeout bounds how long a request waits for its reply.
	DefaultResponseTimeout = time.Second

	// DefaultHandshakeTimeout bounds Begin. The module needs 3-5 seconds
	// after reset to scan its medium.
	DefaultHandshakeTimeout = 5 * time.Second

	// MaxVolume is the loudest level the module accepts.
	MaxVolume = 30

	// readBufferSize is the size of a single read from the port.
	readBufferSize = 64

	// replyQueueSize is the number of undelivered replies kept.
	replyQueueSize = 8
)

// Config holds Player configuration.
type Config struct {
	// ResponseTimeout bounds request/reply exchanges.
	// Default: 1 second.
	ResponseTimeout time.Duration

	// HandshakeTimeout bounds Begin.
	// Default: 5 seconds.
	HandshakeTimeout time.Duration

	// Feedback sets the ack-request bit on every command. Acks are only
	// counted in Stats; commands never wait for them.
	// Default: false.
	Feedback bool

	// SkipReset makes Begin query the module status instead of resetting it.
	SkipReset bool
}

// Stats holds operational statistics.
type Stats struct {
	FramesTx       uint64
	FramesRx       uint64
	FramesDropped  uint64 // Replies dropped because nobody was waiting
	ErrorsTotal    uint64
	TracksFinished uint64
	AcksRequested  uint64 // Commands sent with the ack-request bit
	AcksReceived   uint64
	LastActivity   time.Time
	Ready          bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Player drives a DFPlayer module over a byte stream.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Report callbacks are invoked on the reader goroutine.
type Player struct {
	port io.ReadWriteCloser
	cfg  Config

	writeMu sync.Mutex
	reqMu   sync.Mutex // serialises request/reply exchanges
	replies chan Frame

	responseTimeout atomic.Int64
	ready           atomic.Bool

	onReport   func(Frame)
	callbackMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex

	done *closeOnce
	wg   sync.WaitGroup

	framesTx       atomic.Uint64
	framesRx       atomic.Uint64
	framesDropped  atomic.Uint64
	errorsTotal    atomic.Uint64
	tracksFinished atomic.Uint64
	acksRequested  atomic.Uint64
	acksReceived   atomic.Uint64
	lastActivity   atomic.Int64
}

// New wraps port and starts the reader goroutine. The module is not
// contacted until Begin is called.
func New(port io.ReadWriteCloser, cfg Config) *Player {
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = DefaultResponseTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	p := &Player{
		port:    port,
		cfg:     cfg,
		replies: make(chan Frame, replyQueueSize),
		done:    newCloseOnce(),
	}
	p.responseTimeout.Store(int64(cfg.ResponseTimeout))
	p.lastActivity.Store(time.Now().Unix())

	p.wg.Add(1)
	go p.readLoop()
	return p
}

// Begin performs the module handshake.
//
// By default it resets the module and waits for the online report that
// follows the medium scan. With SkipReset it sends a status query instead.
//
// Parameters:
//   - ctx: Context for cancellation; HandshakeTimeout is applied on top
//
// Returns:
//   - error: ErrMediumMissing if no medium is present, ErrNoResponse on timeout
func (p *Player) Begin(ctx context.Context) error {
	if p.isClosed() {
		return ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.HandshakeTimeout)
	defer cancel()

	p.ready.Store(false)

	if p.cfg.SkipReset {
		if _, err := p.request(ctx, Frame{Command: CmdQueryStatus}, CmdQueryStatus); err != nil {
			return fmt.Errorf("handshake: %w", mediumError(err))
		}
	} else {
		reply, err := p.request(ctx, Frame{Command: CmdReset, Feedback: p.cfg.Feedback}, RespOnline)
		if err != nil {
			return fmt.Errorf("handshake: %w", mediumError(err))
		}
		if reply.Param&0xFF == 0 {
			return fmt.Errorf("handshake: %w", ErrMediumMissing)
		}
	}

	p.ready.Store(true)
	p.logInfo("module online")
	return nil
}

// SetVolume sets the output level, clamped to 0-30.
func (p *Player) SetVolume(level int) error {
	level = min(max(level, 0), MaxVolume)
	return p.command(Frame{Command: CmdVolume, Param: uint16(level), Feedback: p.cfg.Feedback}) //nolint:gosec // clamped above
}

// SetResponseTimeout changes the reply timeout. Non-positive values restore
// the default.
func (p *Player) SetResponseTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultResponseTimeout
	}
	p.responseTimeout.Store(int64(d))
}

// ResponseTimeout returns the current reply timeout.
func (p *Player) ResponseTimeout() time.Duration {
	return time.Duration(p.responseTimeout.Load())
}

// PlayFolder plays track from folder. The call returns as soon as the
// frame is written.
//
// Returns:
//   - error: ErrInvalidTrack for folder outside 1-99 or track outside 1-255
func (p *Player) PlayFolder(folder, track int) error {
	f, err := playFolderFrame(folder, track, p.cfg.Feedback)
	if err != nil {
		return err
	}
	return p.command(f)
}

// QueryStatus asks the module for its playback status.
func (p *Player) QueryStatus(ctx context.Context) (uint16, error) {
	ctx, cancel := context.WithTimeout(ctx, p.ResponseTimeout())
	defer cancel()

	reply, err := p.request(ctx, Frame{Command: CmdQueryStatus}, CmdQueryStatus)
	if err != nil {
		return 0, err
	}
	return reply.Param, nil
}

// QueryVolume asks the module for its current volume.
func (p *Player) QueryVolume(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.ResponseTimeout())
	defer cancel()

	reply, err := p.request(ctx, Frame{Command: CmdQueryVolume}, CmdQueryVolume)
	if err != nil {
		return 0, err
	}
	return int(reply.Param & 0xFF), nil
}

// HealthCheck verifies the module answers a status query.
func (p *Player) HealthCheck(ctx context.Context) error {
	_, err := p.QueryStatus(ctx)
	return err
}

// IsReady reports whether the last handshake succeeded.
func (p *Player) IsReady() bool {
	return p.ready.Load()
}

// SetOnReport sets the callback invoked for every frame the module sends.
// Panics in the callback are recovered and logged.
func (p *Player) SetOnReport(callback func(Frame)) {
	p.callbackMu.Lock()
	p.onReport = callback
	p.callbackMu.Unlock()
}

// SetLogger sets the logger for this player.
func (p *Player) SetLogger(logger Logger) {
	p.loggerMu.Lock()
	p.logger = logger
	p.loggerMu.Unlock()
}

// Stats returns current operational statistics.
func (p *Player) Stats() Stats {
	return Stats{
		FramesTx:       p.framesTx.Load(),
		FramesRx:       p.framesRx.Load(),
		FramesDropped:  p.framesDropped.Load(),
		ErrorsTotal:    p.errorsTotal.Load(),
		TracksFinished: p.tracksFinished.Load(),
		AcksRequested:  p.acksRequested.Load(),
		AcksReceived:   p.acksReceived.Load(),
		LastActivity:   time.Unix(p.lastActivity.Load(), 0),
		Ready:          p.ready.Load(),
	}
}

// Close stops the reader and closes the port. Safe to call multiple times.
func (p *Player) Close() error {
	if p.isClosed() {
		return nil
	}
	p.done.Close()
	p.ready.Store(false)

	err := p.port.Close()
	p.wg.Wait()

	p.logInfo("player closed")
	if err != nil {
		return fmt.Errorf("closing port: %w", err)
	}
	return nil
}

// command writes f without waiting for any reply.
func (p *Player) command(f Frame) error {
	if p.isClosed() {
		return ErrClosed
	}
	if err := p.write(f); err != nil {
		return err
	}
	if f.Feedback {
		p.acksRequested.Add(1)
	}
	return nil
}

// request writes f and waits for a reply with the wanted command code.
// Error reports end the wait early; other replies are discarded.
func (p *Player) request(ctx context.Context, f Frame, want byte) (Frame, error) {
	p.reqMu.Lock()
	defer p.reqMu.Unlock()

	p.drainReplies()
	if err := p.write(f); err != nil {
		return Frame{}, err
	}

	for {
		select {
		case <-p.done.Done():
			return Frame{}, ErrClosed
		case <-ctx.Done():
			return Frame{}, fmt.Errorf("%w: command %#02x: %w", ErrNoResponse, f.Command, ctx.Err())
		case reply := <-p.replies:
			switch reply.Command {
			case want:
				return reply, nil
			case RespError:
				return Frame{}, &ModuleError{Code: byte(reply.Param)} //nolint:gosec // low byte
			}
		}
	}
}

func (p *Player) write(f Frame) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := p.port.Write(f.Encode()); err != nil {
		p.errorsTotal.Add(1)
		return fmt.Errorf("writing %s: %w", f, err)
	}
	p.framesTx.Add(1)
	p.lastActivity.Store(time.Now().Unix())
	return nil
}

func (p *Player) drainReplies() {
	for {
		select {
		case <-p.replies:
		default:
			return
		}
	}
}

// readLoop decodes frames from the port until it is closed.
func (p *Player) readLoop() {
	defer p.wg.Done()

	chunk := make([]byte, readBufferSize)
	buf := make([]byte, 0, 2*FrameSize)

	for {
		n, err := p.port.Read(chunk)
		if n > 0 {
			buf = p.consume(append(buf, chunk[:n]...))
		}
		if err != nil {
			if !p.isClosed() && !errors.Is(err, io.EOF) {
				p.errorsTotal.Add(1)
				p.logError("read failed", err)
			}
			p.ready.Store(false)
			return
		}
	}
}

// consume dispatches every complete frame in buf and returns the unread tail.
// Bytes before a start marker and frames that fail to decode are skipped.
func (p *Player) consume(buf []byte) []byte {
	for {
		i := bytes.IndexByte(buf, frameStart)
		if i < 0 {
			return buf[:0]
		}
		buf = buf[i:]
		if len(buf) < FrameSize {
			return buf
		}

		f, err := DecodeFrame(buf[:FrameSize])
		if err != nil {
			p.errorsTotal.Add(1)
			p.logDebug("discarding bytes", "error", err)
			buf = buf[1:]
			continue
		}
		buf = buf[FrameSize:]
		p.dispatch(f)
	}
}

func (p *Player) dispatch(f Frame) {
	p.framesRx.Add(1)
	p.lastActivity.Store(time.Now().Unix())

	switch f.Command {
	case RespFinishedSD, RespFinishedUSB:
		p.tracksFinished.Add(1)
	case RespAck:
		p.acksReceived.Add(1)
	case RespMediumRemoved:
		p.ready.Store(false)
		p.logWarn("storage medium removed")
	case RespError:
		p.logDebug("module error", "code", f.Param&0xFF, "reason", errorText(byte(f.Param))) //nolint:gosec // low byte
	}

	if !f.IsReport() && f.Command != RespAck {
		select {
		case p.replies <- f:
		default:
			p.framesDropped.Add(1)
		}
	}

	p.callbackMu.RLock()
	callback := p.onReport
	p.callbackMu.RUnlock()
	if callback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logError("report callback panic", fmt.Errorf("%v", r))
				}
			}()
			callback(f)
		}()
	}
}

func (p *Player) isClosed() bool {
	select {
	case <-p.done.Done():
		return true
	default:
		return false
	}
}

// ModuleError is an error report sent by the module. It matches
// ErrModuleError, and ErrMediumMissing for the no-medium code.
type ModuleError struct {
	Code byte
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("dfplayer: module error: %s", errorText(e.Code))
}

// Is supports errors.Is.
func (e *ModuleError) Is(target error) bool {
	return target == ErrModuleError
}

// mediumError maps a no-medium module error during the handshake.
func mediumError(err error) error {
	var me *ModuleError
	if errors.As(err, &me) && me.Code == errorCodeNoMedium {
		return fmt.Errorf("%w: %w", ErrMediumMissing, err)
	}
	return err
}

func (p *Player) getLogger() Logger {
	p.loggerMu.RLock()
	defer p.loggerMu.RUnlock()
	return p.logger
}

func (p *Player) logDebug(msg string, keysAndValues ...any) {
	if l := p.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

func (p *Player) logInfo(msg string, keysAndValues ...any) {
	if l := p.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

func (p *Player) logWarn(msg string, keysAndValues ...any) {
	if l := p.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

func (p *Player) logError(msg string, err error) {
	if l := p.getLogger(); l != nil {
		l.Error(msg, "error", err)
	}
}
