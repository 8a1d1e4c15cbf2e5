// Package pipeline runs the two long-lived goroutines of a sensor node.
//
// The intake goroutine owns the camera for its whole life: it initializes it,
// reads inbound events, runs the handler and queues responses. The emission
// goroutine owns the outbound transport and drains the queue. The queue is
// the only thing they share.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"flock-camera-sensor/camera"
	"flock-camera-sensor/flockapi"
)

var (
	ErrIntakeExited   = errors.New("pipeline: intake exited unexpectedly")
	ErrEmissionExited = errors.New("pipeline: emission exited unexpectedly")
)

// PanicError carries a panic recovered from one of the pipeline goroutines.
type PanicError struct {
	Context string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Context, e.Value)
}

// Handler turns one inbound event into an optional response payload.
// It runs on the intake goroutine and is the only code that touches cam.
type Handler func(cam *camera.Camera, ev Event) *flockapi.Payload

type IntakeState uint32

const (
	AwaitingHardwareReady IntakeState = iota
	Serving
	IntakeStopped
)

func (s IntakeState) String() string {
	switch s {
	case AwaitingHardwareReady:
		return "awaiting_hardware_ready"
	case Serving:
		return "serving"
	case IntakeStopped:
		return "stopped"
	}
	return fmt.Sprintf("IntakeState(%d)", uint32(s))
}

type EmissionState uint32

const (
	Idle EmissionState = iota
	Draining
	EmissionStopped
)

func (s EmissionState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	case EmissionStopped:
		return "stopped"
	}
	return fmt.Sprintf("EmissionState(%d)", uint32(s))
}

type Options struct {
	// Identity is this node's origin id on every outbound message.
	Identity string
	// Controller receives every response.
	Controller string

	Driver camera.Driver
	Camera camera.Config
	// Profile, if set, is applied once right after the camera comes up.
	Profile *camera.Profile

	Handler  Handler
	Inbound  Inbound
	Outbound Outbound
	Logger   *slog.Logger
}

// Runtime supervises intake and emission.
type Runtime struct {
	opts  Options
	log   *slog.Logger
	queue *Queue

	stopping atomic.Bool
	intake   atomic.Uint32
	emission atomic.Uint32
	cam      atomic.Pointer[camera.Camera]

	received        atomic.Uint64
	responses       atomic.Uint64
	published       atomic.Uint64
	publishFailures atomic.Uint64
}

func New(opts Options) (*Runtime, error) {
	switch {
	case opts.Identity == "":
		return nil, errors.New("pipeline: identity is required")
	case opts.Controller == "":
		return nil, errors.New("pipeline: controller is required")
	case opts.Driver == nil:
		return nil, errors.New("pipeline: camera driver is required")
	case opts.Handler == nil:
		return nil, errors.New("pipeline: handler is required")
	case opts.Inbound == nil || opts.Outbound == nil:
		return nil, errors.New("pipeline: inbound and outbound transports are required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		opts:  opts,
		log:   log.With("component", "pipeline"),
		queue: NewQueue(),
	}, nil
}

// Run starts both goroutines and blocks. It returns nil only after a clean
// shutdown requested through ctx. Any other exit of either goroutine, panics
// included, comes back as an error the caller should treat as fatal.
// Run only stops the inbound side; queued responses are still published, and
// closing the transport is left to the caller once Run returns.
func (r *Runtime) Run(ctx context.Context) error {
	intakeDone := make(chan error, 1)
	emissionDone := make(chan error, 1)
	go r.guard("intake", intakeDone, r.runIntake)
	go r.guard("emission", emissionDone, r.runEmission)

	select {
	case err := <-intakeDone:
		r.queue.Close()
		return exited(ErrIntakeExited, err)

	case err := <-emissionDone:
		r.stopping.Store(true)
		if cerr := r.opts.Inbound.Stop(); cerr != nil {
			r.log.Warn("stopping inbound transport", "error", cerr)
		}
		return errors.Join(exited(ErrEmissionExited, err), <-intakeDone)

	case <-ctx.Done():
		r.log.Info("shutting down pipeline")
		r.stopping.Store(true)
		if err := r.opts.Inbound.Stop(); err != nil {
			r.log.Warn("stopping inbound transport", "error", err)
		}
		ierr := <-intakeDone
		r.queue.Close()
		eerr := <-emissionDone
		return errors.Join(ierr, eerr)
	}
}

func exited(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (r *Runtime) guard(name string, done chan<- error, fn func() error) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("goroutine panicked", "goroutine", name, "panic", v)
			done <- &PanicError{Context: name, Value: v, Stack: debug.Stack()}
		}
	}()
	done <- fn()
}

func (r *Runtime) runIntake() (err error) {
	r.intake.Store(uint32(AwaitingHardwareReady))
	defer r.intake.Store(uint32(IntakeStopped))

	cam, err := camera.Init(r.opts.Driver, r.opts.Camera, r.log.With("component", "camera"))
	if err != nil {
		return err
	}
	r.cam.Store(cam)
	defer func() {
		if cerr := cam.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if p := r.opts.Profile; p != nil {
		if err := p.Apply(cam.Sensor()); err != nil {
			return fmt.Errorf("apply startup profile: %w", err)
		}
	}

	r.intake.Store(uint32(Serving))
	r.log.Info("intake serving", "identity", r.opts.Identity, "controller", r.opts.Controller)

	for {
		ev, err := r.opts.Inbound.Next()
		if err != nil {
			if r.stopping.Load() && errors.Is(err, ErrInboundClosed) {
				return nil
			}
			return err
		}
		r.received.Add(1)
		r.logEvent(ev)

		p := r.opts.Handler(cam, ev)
		if p == nil {
			continue
		}
		msg := flockapi.NewMessage(r.opts.Identity, r.opts.Controller, *p)
		if !r.queue.Push(msg) {
			return errors.New("response queue closed")
		}
		r.responses.Add(1)
	}
}

func (r *Runtime) logEvent(ev Event) {
	switch ev.Kind {
	case EventMessage:
		r.log.Debug("message received",
			"from", ev.Message.OriginID,
			"message_id", ev.Message.MessageID,
			"payload", ev.Message.Payload.String(),
		)
	case EventConnected:
		r.log.Info("transport connected")
	case EventDisconnected:
		r.log.Warn("transport disconnected")
	case EventDecodeFailure:
		r.log.Warn("inbound message could not be decoded", "code", DecodeFailure, "error", ev.Err)
	case EventError:
		r.log.Error("inbound transport error", "error", ev.Err)
	}
}

func (r *Runtime) runEmission() error {
	r.emission.Store(uint32(Draining))
	defer r.emission.Store(uint32(EmissionStopped))

	for {
		msg, ok := r.queue.Pop()
		if !ok {
			return nil
		}
		if err := r.opts.Outbound.Publish(msg); err != nil {
			r.publishFailures.Add(1)
			r.log.Error("publish failed",
				"code", PublishFailure,
				"recipient", msg.Destination,
				"payload", msg.Payload.Kind.String(),
				"error", err,
			)
			continue
		}
		r.published.Add(1)
		r.log.Debug("response published", "recipient", msg.Destination, "payload", msg.Payload.Kind.String())
	}
}

// Stats is a point-in-time snapshot, safe to take from any goroutine.
type Stats struct {
	Intake          string       `json:"intake"`
	Emission        string       `json:"emission"`
	Received        uint64       `json:"received"`
	Responses       uint64       `json:"responses"`
	Published       uint64       `json:"published"`
	PublishFailures uint64       `json:"publishFailures"`
	Queued          int          `json:"queued"`
	Frames          camera.Stats `json:"frames"`
}

func (r *Runtime) Stats() Stats {
	s := Stats{
		Intake:          IntakeState(r.intake.Load()).String(),
		Emission:        EmissionState(r.emission.Load()).String(),
		Received:        r.received.Load(),
		Responses:       r.responses.Load(),
		Published:       r.published.Load(),
		PublishFailures: r.publishFailures.Load(),
		Queued:          r.queue.Len(),
	}
	if cam := r.cam.Load(); cam != nil {
		s.Frames = cam.Stats()
	}
	return s
}

// Serving reports whether intake has a live camera and is reading events.
func (r *Runtime) Serving() bool {
	return IntakeState(r.intake.Load()) == Serving
}
