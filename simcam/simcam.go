// Package simcam is an in-memory camera driver. It backs the "sim" camera
// driver setting and every test above the driver boundary.
package simcam

import (
	"errors"
	"sync"
	"time"

	"flock-camera-sensor/camera"
)

var (
	ErrNotInitialized     = errors.New("simcam: driver not initialized")
	ErrAlreadyInitialized = errors.New("simcam: driver already initialized")
)

// OpFrameGet names the capture call for WithPanic.
const OpFrameGet = "frame_get"

type Option func(*Driver)

// WithFrame serves the same bytes on every capture.
func WithFrame(b []byte) Option {
	return func(d *Driver) {
		d.frameFn = func(uint64) []byte { return b }
	}
}

// WithFrameFunc builds each frame from its sequence number, starting at 1.
func WithFrameFunc(fn func(seq uint64) []byte) Option {
	return func(d *Driver) { d.frameFn = fn }
}

// WithFrameBudget limits how many frames are ever available. Negative means unlimited.
func WithFrameBudget(n int) Option {
	return func(d *Driver) { d.budget = n }
}

func WithInitError(err error) Option {
	return func(d *Driver) { d.initErr = err }
}

func WithDeinitError(err error) Option {
	return func(d *Driver) { d.deinitErr = err }
}

// WithoutSensor makes SensorGet report no sensor on the bus.
func WithoutSensor() Option {
	return func(d *Driver) { d.noSensor = true }
}

// WithFailure makes the sensor operation op (e.g. "set_contrast") fail with err.
func WithFailure(op string, err error) Option {
	return func(d *Driver) { d.sensor.failOn[op] = err }
}

// WithPanic makes op panic. op is a sensor operation or OpFrameGet.
func WithPanic(op string) Option {
	return func(d *Driver) {
		d.panicOn = op
		d.sensor.panicOn = op
	}
}

// Counts is the driver's call instrumentation.
type Counts struct {
	Inits          int
	Deinits        int
	FrameGets      int
	FrameReturns   int
	MaxOutstanding int
}

// Driver implements camera.Driver.
type Driver struct {
	mu sync.Mutex

	initErr   error
	deinitErr error
	noSensor  bool
	panicOn   string
	frameFn   func(seq uint64) []byte
	budget    int

	cfg         camera.Config
	initialized bool
	sensor      *Sensor
	outstanding map[*camera.Frame]struct{}
	seq         uint64
	counts      Counts
}

func New(opts ...Option) *Driver {
	d := &Driver{
		frameFn:     FakeJPEG,
		budget:      -1,
		sensor:      newSensor(),
		outstanding: map[*camera.Frame]struct{}{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Init(cfg camera.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts.Inits++
	if d.initErr != nil {
		return d.initErr
	}
	if d.initialized {
		return ErrAlreadyInitialized
	}
	d.cfg = cfg
	d.initialized = true
	d.sensor.reset(cfg)
	return nil
}

func (d *Driver) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts.Deinits++
	if !d.initialized {
		return ErrNotInitialized
	}
	d.initialized = false
	return d.deinitErr
}

func (d *Driver) SensorGet() camera.Sensor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.noSensor || !d.initialized {
		return nil
	}
	return d.sensor
}

// FrameGet returns nil once the frame budget is spent or every configured
// buffer is already handed out.
func (d *Driver) FrameGet() *camera.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts.FrameGets++
	if d.panicOn == OpFrameGet {
		panic("simcam: injected panic in " + OpFrameGet)
	}
	if !d.initialized || d.budget == 0 || len(d.outstanding) >= d.cfg.FbCount {
		return nil
	}
	if d.budget > 0 {
		d.budget--
	}
	d.seq++
	w, h := d.cfg.FrameSize.Dimensions()
	fb := &camera.Frame{
		Buf:       d.frameFn(d.seq),
		Width:     w,
		Height:    h,
		Format:    d.cfg.PixelFormat,
		Timestamp: time.Now(),
	}
	d.outstanding[fb] = struct{}{}
	if n := len(d.outstanding); n > d.counts.MaxOutstanding {
		d.counts.MaxOutstanding = n
	}
	return fb
}

// FrameReturn panics on a buffer it does not own, which is how a double
// return shows up.
func (d *Driver) FrameReturn(fb *camera.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.outstanding[fb]; !ok {
		panic("simcam: returned a frame buffer that is not outstanding")
	}
	delete(d.outstanding, fb)
	d.counts.FrameReturns++
}

func (d *Driver) Counts() Counts {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts
}

func (d *Driver) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.outstanding)
}

// Sensor gives tests direct access to the simulated registers.
func (d *Driver) Sensor() *Sensor { return d.sensor }

// FakeJPEG returns a small JPEG-framed buffer whose body encodes seq.
func FakeJPEG(seq uint64) []byte {
	b := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	for i := 0; i < 8; i++ {
		b = append(b, byte(seq>>(8*i)))
	}
	return append(b, 0xFF, 0xD9)
}
