package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"scanpay/internal/logger"
	"scanpay/internal/metrics"
	"scanpay/internal/services/qr"
)

// session is the cancellation token of one scan. The loop goroutine holds
// its own pointer and compares it with the service's current session.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
}

type service struct {
	devices     MediaDevices
	reader      Reader
	interpreter Interpreter
	log         logger.Logger
	metrics     metrics.Recorder
	retryDelay  time.Duration

	// delivering counts listener fan-outs in progress; Dispose waits on it.
	delivering sync.WaitGroup

	mu         sync.Mutex
	base       context.Context
	stop       context.CancelFunc
	state      State
	listeners  map[int]Listener
	nextID     int
	onDetected DetectFunc
	session    *session
	// interpretCancel aborts an in-flight interpret call on stop, reset or dispose.
	interpretCancel context.CancelFunc
	needsReset      bool
	disposed        bool
}

type Option func(*service)

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// NewService creates a scanner over the given camera, decoder and interpreter.
func NewService(devices MediaDevices, reader Reader, interpreter Interpreter, log logger.Logger, rec metrics.Recorder, opts ...Option) Service {
	if devices == nil {
		panic("media devices are required")
	}
	if reader == nil {
		panic("reader is required")
	}
	if interpreter == nil {
		panic("interpreter is required")
	}
	if log == nil {
		panic("logger is required")
	}
	if rec == nil {
		panic("metrics recorder is required")
	}

	base, stop := context.WithCancel(context.Background())
	s := &service{
		devices:     devices,
		reader:      reader,
		interpreter: interpreter,
		log:         log,
		metrics:     rec,
		retryDelay:  DefaultRetryDelay,
		base:        base,
		stop:        stop,
		listeners:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.copy()
}

func (s *service) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || fn == nil {
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *service) OnDetected(fn DetectFunc) {
	s.mu.Lock()
	s.onDetected = fn
	s.mu.Unlock()
}

// emit delivers the current state to every listener without holding any
// service lock, so listeners may call back into the service. Listeners must
// not call Dispose.
func (s *service) emit() {
	s.mu.Lock()
	if s.disposed || len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	st := s.state.copy()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.delivering.Add(1)
	s.mu.Unlock()
	defer s.delivering.Done()

	for _, l := range ls {
		l(st)
	}
}

func (s *service) RequestPermission(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrDisposed
	}
	s.state.IsLoading = true
	s.mu.Unlock()
	s.emit()

	stream, err := s.devices.RequestStream(ctx)
	if err != nil && ctx.Err() != nil {
		s.mu.Lock()
		s.state.IsLoading = false
		s.mu.Unlock()
		s.emit()
		return false, ctx.Err()
	}

	granted := err == nil
	if granted {
		// The probe stream is never used for decoding.
		if cerr := stream.Close(); cerr != nil {
			s.log.Warn("failed to release permission probe stream", map[string]any{"error": cerr})
		}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, ErrDisposed
	}
	s.state.HasPermission = &granted
	s.state.IsLoading = false
	if !granted {
		s.state.Error = MsgPermissionDenied
	} else if s.state.Error == MsgPermissionDenied {
		s.state.Error = ""
	}
	s.mu.Unlock()
	s.emit()

	s.metrics.IncCounter("scanner_permission", map[string]string{metrics.LabelResult: fmt.Sprint(granted)})
	if !granted {
		return false, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return true, nil
}

func (s *service) StartScanning(ctx context.Context, sink VideoSink) error {
	if sink == nil {
		return ErrNoSink
	}

	s.mu.Lock()
	if err := s.startableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	granted := s.state.Granted()
	s.mu.Unlock()

	// A denied or unknown permission is requested again before starting.
	if !granted {
		if _, err := s.RequestPermission(ctx); err != nil {
			return err
		}
	}

	devices, err := s.devices.Devices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.deviceError(fmt.Errorf("enumerate devices: %w", err), err.Error())
		return err
	}
	device, ok := PickDevice(devices)
	if !ok {
		s.deviceError(ErrNoDevice, MsgNoDevice)
		return ErrNoDevice
	}

	s.mu.Lock()
	// Another start may have won while permission was being requested.
	if err := s.startableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cancelInterpretLocked()
	sctx, cancel := context.WithCancel(s.base)
	sess := &session{ctx: sctx, cancel: cancel}
	s.session = sess
	s.state.IsScanning = true
	s.state.Error = ""
	s.state.ScanResult = ""
	s.state.IsLoading = false
	s.mu.Unlock()
	s.emit()

	s.log.Info("scan session started", map[string]any{"deviceId": device.ID, "label": device.Label})
	go s.loop(sess, device.ID, sink)
	return nil
}

func (s *service) startableLocked() error {
	switch {
	case s.disposed:
		return ErrDisposed
	case s.session != nil:
		return ErrAlreadyScanning
	case s.needsReset:
		return ErrResetRequired
	}
	return nil
}

// loop runs one DecodeOnce at a time until a result, a device error or the
// session is cancelled.
func (s *service) loop(sess *session, deviceID string, sink VideoSink) {
	for {
		raw, err := s.reader.DecodeOnce(sess.ctx, deviceID, sink)
		if sess.ctx.Err() != nil {
			return
		}

		switch {
		case err == nil:
			s.handleDecode(sess, raw)
			return
		case errors.Is(err, ErrNotFound):
			timer := time.NewTimer(s.retryDelay)
			select {
			case <-sess.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		default:
			s.sessionError(sess, err)
			return
		}
	}
}

func (s *service) handleDecode(sess *session, raw string) {
	s.mu.Lock()
	if s.session != sess || sess.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	sess.cancel()
	s.session = nil
	s.state.IsScanning = false
	s.state.ScanResult = raw
	s.state.IsLoading = true
	ictx, icancel := context.WithCancel(s.base)
	s.interpretCancel = icancel
	s.mu.Unlock()
	defer icancel()

	s.reader.Reset()
	s.emit()
	s.metrics.IncCounter("scanner_decoded", nil)

	if qr.Parse(raw) == nil {
		s.finishInterpret(ictx, raw, nil, qr.ErrNotPaymentURI)
		return
	}

	start := time.Now()
	res, err := s.interpreter.Interpret(ictx, raw)
	s.metrics.ObserveLatency("scanner.interpret", time.Since(start), map[string]string{metrics.LabelResult: resultLabel(err)})
	s.finishInterpret(ictx, raw, res, err)
}

func (s *service) finishInterpret(ictx context.Context, raw string, res *qr.Result, err error) {
	s.mu.Lock()
	if ictx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.state.IsLoading = false
	detected := err == nil && res != nil
	if !detected {
		s.state.Error = interpretMessage(err)
	}
	cb := s.onDetected
	s.mu.Unlock()
	s.emit()

	if !detected {
		s.log.Info("scanned code rejected", map[string]any{"error": err})
		return
	}
	// A stop or reset may have landed while listeners ran.
	if cb != nil && ictx.Err() == nil {
		cb(raw, res)
	}
}

func interpretMessage(err error) string {
	switch {
	case errors.Is(err, qr.ErrNotPaymentURI):
		return MsgNotPaymentURI
	case err != nil:
		return err.Error()
	default:
		return MsgInterpretFailed
	}
}

// sessionError stops a session after a device or runtime error.
func (s *service) sessionError(sess *session, err error) {
	s.mu.Lock()
	if s.session != sess {
		s.mu.Unlock()
		return
	}
	sess.cancel()
	s.session = nil
	s.state.IsScanning = false
	s.state.Error = err.Error()
	s.needsReset = true
	s.mu.Unlock()

	s.reader.Reset()
	s.emit()
	s.log.Error("scan session failed", map[string]any{"error": err})
	s.metrics.IncCounter("scanner_error", nil)
}

// deviceError records a failure that happened before a session existed.
func (s *service) deviceError(err error, msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.state.IsScanning = false
	s.needsReset = true
	s.mu.Unlock()
	s.emit()
	s.log.Error("camera unavailable", map[string]any{"error": err})
	s.metrics.IncCounter("scanner_error", nil)
}

func (s *service) StopScanning() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.cancelInterpretLocked() {
		s.state.IsLoading = false
	}
	release := s.session != nil
	if release {
		s.session.cancel()
		s.session = nil
	}
	s.state.IsScanning = false
	s.mu.Unlock()

	if release {
		s.reader.Reset()
	}
	s.emit()
	return nil
}

func (s *service) ToggleScanning(ctx context.Context, sink VideoSink) error {
	s.mu.Lock()
	scanning := s.session != nil
	s.mu.Unlock()

	if scanning {
		return s.StopScanning()
	}
	return s.StartScanning(ctx, sink)
}

func (s *service) Reset() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.cancelInterpretLocked()
	s.state.ScanResult = ""
	s.state.Error = ""
	s.state.IsLoading = false
	s.needsReset = false
	s.mu.Unlock()
	s.emit()
	return nil
}

// ResetAndRestart resets and, when permission is already granted and a sink
// is given, starts a new session without prompting.
func (s *service) ResetAndRestart(ctx context.Context, sink VideoSink) error {
	if err := s.Reset(); err != nil {
		return err
	}

	s.mu.Lock()
	restart := s.state.Granted() && sink != nil && s.session == nil
	s.mu.Unlock()

	if !restart {
		return nil
	}
	return s.StartScanning(ctx, sink)
}

// Dispose detaches listeners and waits for deliveries in progress, then stops
// any session and releases the reader.
func (s *service) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	s.disposed = true
	s.listeners = map[int]Listener{}
	s.onDetected = nil
	s.mu.Unlock()
	s.delivering.Wait()

	s.mu.Lock()
	if s.cancelInterpretLocked() {
		s.state.IsLoading = false
	}
	if s.session != nil {
		s.session.cancel()
		s.session = nil
	}
	s.state = State{}
	s.mu.Unlock()

	s.stop()
	s.reader.Reset()
	return nil
}

// cancelInterpretLocked reports whether an interpret context was still live.
func (s *service) cancelInterpretLocked() bool {
	if s.interpretCancel == nil {
		return false
	}
	s.interpretCancel()
	s.interpretCancel = nil
	return true
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
