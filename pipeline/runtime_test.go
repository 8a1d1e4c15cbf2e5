package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"flock-camera-sensor/camera"
	"flock-camera-sensor/dispatch"
	"flock-camera-sensor/flockapi"
	"flock-camera-sensor/pipeline"
	"flock-camera-sensor/simcam"
)

const (
	identity   = "flock-client-7"
	controller = "flock/controller"
)

type mockInbound struct {
	events chan pipeline.Event
	errs   chan error
	done   chan struct{}
	once   sync.Once
}

func newMockInbound() *mockInbound {
	return &mockInbound{
		events: make(chan pipeline.Event, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (m *mockInbound) Next() (pipeline.Event, error) {
	select {
	case ev := <-m.events:
		return ev, nil
	case err := <-m.errs:
		return pipeline.Event{}, err
	case <-m.done:
		return pipeline.Event{}, pipeline.ErrInboundClosed
	}
}

func (m *mockInbound) Stop() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *mockInbound) instruct(instr flockapi.Instruction) {
	m.events <- pipeline.Event{
		Kind:    pipeline.EventMessage,
		Message: flockapi.NewMessage(controller, identity, flockapi.InstructionPayload(instr)),
	}
}

type mockOutbound struct {
	mu       sync.Mutex
	failures int
	msgs     chan flockapi.Message
}

func newMockOutbound() *mockOutbound {
	return &mockOutbound{msgs: make(chan flockapi.Message, 16)}
}

func (m *mockOutbound) Publish(msg flockapi.Message) error {
	m.mu.Lock()
	if m.failures > 0 {
		m.failures--
		m.mu.Unlock()
		return errors.New("broker unreachable")
	}
	m.mu.Unlock()
	if _, err := flockapi.Encode(msg); err != nil {
		return err
	}
	m.msgs <- msg
	return nil
}

func (m *mockOutbound) next(t *testing.T) flockapi.Message {
	t.Helper()
	select {
	case msg := <-m.msgs:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for published message")
	}
	return flockapi.Message{}
}

func (m *mockOutbound) none(t *testing.T) {
	t.Helper()
	select {
	case msg := <-m.msgs:
		t.Fatalf("unexpected message %v", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

type harness struct {
	rt   *pipeline.Runtime
	drv  *simcam.Driver
	in   *mockInbound
	out  *mockOutbound
	stop context.CancelFunc
	errc chan error
}

func start(t *testing.T, drv *simcam.Driver, profile *camera.Profile) *harness {
	t.Helper()
	h := &harness{drv: drv, in: newMockInbound(), out: newMockOutbound(), errc: make(chan error, 1)}
	rt, err := pipeline.New(pipeline.Options{
		Identity:   identity,
		Controller: controller,
		Driver:     drv,
		Camera:     camera.DefaultConfig(),
		Profile:    profile,
		Handler:    dispatch.HandleEvent,
		Inbound:    h.in,
		Outbound:   h.out,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	h.rt = rt
	ctx, cancel := context.WithCancel(context.Background())
	h.stop = cancel
	go func() { h.errc <- rt.Run(ctx) }()
	return h
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop")
	}
	return nil
}

func (h *harness) shutdown(t *testing.T) error {
	t.Helper()
	h.stop()
	return h.wait(t)
}

func waitServing(t *testing.T, rt *pipeline.Runtime) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !rt.Serving() {
		select {
		case <-deadline:
			t.Fatal("intake never reached serving")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestReadWriteReadScenario(t *testing.T) {
	h := start(t, simcam.New(), nil)

	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensorConfig})
	h.in.instruct(flockapi.WriteConfig(flockapi.CameraSensorConfig{
		Brightness: 2, AWB: true, AWBGain: true, LensCorrection: true,
	}))
	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensor})

	first := h.out.next(t)
	if first.Payload.Kind != flockapi.PayloadSensorConfig {
		t.Fatalf("first response = %v, want sensorConfig", first.Payload)
	}
	if b := first.Payload.SensorConfig.Camera.Brightness; b != 0 {
		t.Errorf("initial brightness = %d", b)
	}

	second := h.out.next(t)
	if second.Payload.Kind != flockapi.PayloadSensorConfig {
		t.Fatalf("second response = %v, want sensorConfig", second.Payload)
	}
	if b := second.Payload.SensorConfig.Camera.Brightness; b != 2 {
		t.Errorf("updated brightness = %d, want 2", b)
	}

	third := h.out.next(t)
	if third.Payload.Kind != flockapi.PayloadSensorReading {
		t.Fatalf("third response = %v, want sensorReading", third.Payload)
	}
	if got, want := string(third.Payload.SensorReading.Camera.FrameBuffer), string(simcam.FakeJPEG(1)); got != want {
		t.Errorf("frame = %x, want %x", got, want)
	}

	for _, msg := range []flockapi.Message{first, second, third} {
		if msg.OriginID != identity || msg.Destination != controller {
			t.Errorf("bad envelope %q -> %q", msg.OriginID, msg.Destination)
		}
	}
	h.out.none(t)

	st := h.rt.Stats()
	if st.Received != 3 || st.Responses != 3 || st.Frames.Acquired != 1 || st.Frames.Released != 1 {
		t.Errorf("unexpected stats %+v", st)
	}

	if err := h.shutdown(t); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if c := h.drv.Counts(); c.Inits != 1 || c.Deinits != 1 {
		t.Errorf("camera lifecycle %+v", c)
	}
	if st := h.rt.Stats(); st.Intake != "stopped" || st.Emission != "stopped" {
		t.Errorf("states after shutdown %s/%s", st.Intake, st.Emission)
	}
}

func TestConnectedIsAnnounced(t *testing.T) {
	h := start(t, simcam.New(), nil)
	defer h.shutdown(t)

	h.in.events <- pipeline.Event{Kind: pipeline.EventConnected}
	h.in.events <- pipeline.Event{Kind: pipeline.EventDisconnected}

	msg := h.out.next(t)
	if msg.Payload.Kind != flockapi.PayloadConnected || msg.Destination != controller {
		t.Errorf("unexpected %v to %s", msg.Payload, msg.Destination)
	}
	h.out.none(t)
}

func TestDecodeFailureAnswered(t *testing.T) {
	h := start(t, simcam.New(), nil)
	defer h.shutdown(t)

	h.in.events <- pipeline.Decode([]byte(`{"clientId":"ctl"`))
	msg := h.out.next(t)
	if msg.Payload.Kind != flockapi.PayloadError || !strings.HasPrefix(msg.Payload.Error, pipeline.DecodeFailure) {
		t.Errorf("unexpected response %v", msg.Payload)
	}
}

func TestNoFrameNoResponse(t *testing.T) {
	h := start(t, simcam.New(simcam.WithFrameBudget(0)), nil)
	defer h.shutdown(t)

	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensor})
	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensorConfig})

	if msg := h.out.next(t); msg.Payload.Kind != flockapi.PayloadSensorConfig {
		t.Errorf("expected only the config response, got %v", msg.Payload)
	}
	h.out.none(t)
}

func TestPublishFailureKeepsDraining(t *testing.T) {
	h := start(t, simcam.New(), nil)
	defer h.shutdown(t)
	h.out.failures = 1

	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensorConfig})
	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensor})

	if msg := h.out.next(t); msg.Payload.Kind != flockapi.PayloadSensorReading {
		t.Fatalf("expected the reading after a failed publish, got %v", msg.Payload)
	}
	if st := h.rt.Stats(); st.PublishFailures != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

// sharedLink is one transport serving as both Inbound and Outbound. Publish
// fails once the link is closed, as a disconnected client would.
type sharedLink struct {
	*mockInbound

	mu        sync.Mutex
	closed    bool
	published []flockapi.Message
	holding   chan struct{}
	release   chan struct{}
	holdOnce  sync.Once
}

func (l *sharedLink) Publish(msg flockapi.Message) error {
	l.holdOnce.Do(func() {
		close(l.holding)
		<-l.release
	})
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("client disconnected")
	}
	l.published = append(l.published, msg)
	return nil
}

func (l *sharedLink) Close() error {
	l.Stop()
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

func TestShutdownDrainsIntoLiveTransport(t *testing.T) {
	link := &sharedLink{
		mockInbound: newMockInbound(),
		holding:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	rt, err := pipeline.New(pipeline.Options{
		Identity:   identity,
		Controller: controller,
		Driver:     simcam.New(),
		Camera:     camera.DefaultConfig(),
		Handler:    dispatch.HandleEvent,
		Inbound:    link,
		Outbound:   link,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- rt.Run(ctx) }()

	for i := 0; i < 3; i++ {
		link.instruct(flockapi.Instruction{Kind: flockapi.ReadSensorConfig})
	}
	select {
	case <-link.holding:
	case <-time.After(2 * time.Second):
		t.Fatal("emission never published")
	}
	deadline := time.After(2 * time.Second)
	for rt.Stats().Responses != 3 {
		select {
		case <-deadline:
			t.Fatalf("responses queued = %d", rt.Stats().Responses)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-link.done:
	case <-time.After(2 * time.Second):
		t.Fatal("inbound was not stopped")
	}
	close(link.release)

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not stop")
	}
	link.Close()

	if len(link.published) != 3 {
		t.Errorf("published %d responses, want 3", len(link.published))
	}
	if st := rt.Stats(); st.Published != 3 || st.PublishFailures != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestHardwareFaultIsReported(t *testing.T) {
	h := start(t, simcam.New(), nil)
	defer h.shutdown(t)

	h.in.instruct(flockapi.WriteConfig(flockapi.CameraSensorConfig{Contrast: 1, GainCeiling: 255}))
	msg := h.out.next(t)
	if msg.Payload.Kind != flockapi.PayloadError || !strings.Contains(msg.Payload.Error, "set_gain_ceiling") {
		t.Fatalf("unexpected response %v", msg.Payload)
	}

	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensorConfig})
	if cfg := h.out.next(t).Payload.SensorConfig.Camera; cfg.Contrast != 1 {
		t.Errorf("fields before the failure should stay applied, contrast = %d", cfg.Contrast)
	}
}

func TestStartupProfileApplied(t *testing.T) {
	p := camera.DefaultProfile()
	h := start(t, simcam.New(), &p)
	defer h.shutdown(t)
	waitServing(t, h.rt)

	st := h.drv.Sensor().Status()
	if st.AECValue != 300 || st.Brightness != 2 || st.AEC {
		t.Errorf("profile not applied: %+v", st)
	}
}

func TestIntakePanicIsFatal(t *testing.T) {
	drv := simcam.New(simcam.WithPanic(simcam.OpFrameGet))
	h := start(t, drv, nil)

	h.in.instruct(flockapi.Instruction{Kind: flockapi.ReadSensor})
	err := h.wait(t)

	var pe *pipeline.PanicError
	if !errors.As(err, &pe) || pe.Context != "intake" {
		t.Fatalf("expected intake panic, got %v", err)
	}
	if len(pe.Stack) == 0 {
		t.Error("panic should carry a stack")
	}
	if drv.Counts().Deinits != 1 {
		t.Error("camera should be torn down while unwinding")
	}
}

func TestInitFailureIsFatal(t *testing.T) {
	h := start(t, simcam.New(simcam.WithInitError(errors.New("no camera"))), nil)
	err := h.wait(t)
	if !errors.Is(err, pipeline.ErrIntakeExited) || !errors.Is(err, camera.InitializationFailed) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestInboundFailureIsFatal(t *testing.T) {
	h := start(t, simcam.New(), nil)
	h.in.errs <- errors.New("socket gone")
	err := h.wait(t)
	if !errors.Is(err, pipeline.ErrIntakeExited) {
		t.Fatalf("unexpected error %v", err)
	}
	if h.drv.Counts().Deinits != 1 {
		t.Error("camera should be closed when intake exits")
	}
}

func TestTeardownFailureOnShutdown(t *testing.T) {
	h := start(t, simcam.New(simcam.WithDeinitError(errors.New("ledc busy"))), nil)
	waitServing(t, h.rt)
	if err := h.shutdown(t); !errors.Is(err, camera.TeardownFailed) {
		t.Fatalf("expected teardown failure, got %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := pipeline.New(pipeline.Options{Identity: identity})
	if err == nil {
		t.Fatal("expected missing options to be rejected")
	}
}
