// Package camera owns the camera driver session, its sensor register facade
// and the frame buffers borrowed from the driver.
//
// A Camera is not safe for concurrent use. It is meant to be owned by one
// goroutine for its whole life, which is what keeps register access serial.
package camera

import (
	"log/slog"
	"sync/atomic"
)

// Camera is one initialized driver session.
type Camera struct {
	drv    Driver
	sensor *SensorHandle
	log    *slog.Logger

	out    *FrameBuffer // outstanding guard, at most one
	closed bool

	acquired atomic.Uint64
	released atomic.Uint64
}

// Stats counts frame buffers taken from and returned to the driver.
// Acquired-Released is always 0 or 1.
type Stats struct {
	Acquired uint64 `json:"acquired"`
	Released uint64 `json:"released"`
}

// Init sets up the driver from cfg and resolves the sensor.
// If no sensor answers, the driver session is torn down before returning.
func Init(drv Driver, cfg Config, log *slog.Logger) (*Camera, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Code: InitializationFailed, Op: "config", Err: err}
	}
	log.Info("initializing camera driver",
		"pixel_format", cfg.PixelFormat,
		"frame_size", cfg.FrameSize,
		"fb_count", cfg.FbCount,
		"xclk_hz", cfg.XclkFreqHz,
	)
	if err := drv.Init(cfg); err != nil {
		return nil, &Error{Code: InitializationFailed, Op: "init", Err: err}
	}

	s := drv.SensorGet()
	if s == nil {
		if err := drv.Deinit(); err != nil {
			log.Error("camera deinit after missing sensor failed", "error", err)
		}
		return nil, &Error{Code: SensorNotDetected, Op: "sensor_get"}
	}

	c := &Camera{drv: drv, log: log}
	c.sensor = &SensorHandle{cam: c, s: s, log: log.With("component", "sensor")}

	id := s.ID()
	log.Info("camera sensor detected", "pid", id.PID, "ver", id.VER, "midh", id.MIDH, "midl", id.MIDL)
	return c, nil
}

// Sensor returns the borrowed register facade.
func (c *Camera) Sensor() *SensorHandle {
	return c.sensor
}

// Capture requests one frame. It returns nil when the driver has no frame
// ready. Each returned guard must be released before the next Capture.
func (c *Camera) Capture() *FrameBuffer {
	if c.closed {
		panic("camera: capture after close")
	}
	if c.out != nil {
		panic("camera: capture while a frame buffer is outstanding")
	}
	fb := c.drv.FrameGet()
	if fb == nil {
		return nil
	}
	c.acquired.Add(1)
	c.out = &FrameBuffer{cam: c, fb: fb}
	return c.out
}

// WithFrame captures one frame and calls fn with it, releasing the buffer on
// every exit path. It reports whether a frame was available.
func (c *Camera) WithFrame(fn func(fb *FrameBuffer) error) (bool, error) {
	fb := c.Capture()
	if fb == nil {
		return false, nil
	}
	defer fb.Release()
	return true, fn(fb)
}

func (c *Camera) release(fb *FrameBuffer) {
	c.drv.FrameReturn(fb.fb)
	c.released.Add(1)
	if c.out == fb {
		c.out = nil
	}
}

// Close returns any outstanding buffer and de-initializes the driver.
// Only the first call does anything. A failure leaves the driver in an
// undefined state and should be treated as fatal.
func (c *Camera) Close() error {
	if c.closed {
		return nil
	}
	if c.out != nil {
		c.log.Warn("returning outstanding frame buffer before deinit")
		c.out.Release()
	}
	c.closed = true
	c.log.Info("de-initializing camera driver")
	if err := c.drv.Deinit(); err != nil {
		return &Error{Code: TeardownFailed, Op: "deinit", Err: err}
	}
	return nil
}

// Stats is safe to call from any goroutine.
func (c *Camera) Stats() Stats {
	return Stats{Acquired: c.acquired.Load(), Released: c.released.Load()}
}
