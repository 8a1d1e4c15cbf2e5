// Package gocvcam drives a V4L/UVC camera through OpenCV. It stands in for
// the on-board sensor when the node runs on a Linux host.
package gocvcam

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"flock-camera-sensor/camera"
)

var (
	ErrNotOpen     = errors.New("gocvcam: capture device not open")
	ErrAlreadyOpen = errors.New("gocvcam: capture device already open")
)

// Frames read and discarded after opening, while exposure settles.
const purgeFrames = 3

type Option func(*Driver)

// WithFramerate asks the device for fps frames per second.
func WithFramerate(fps int) Option {
	return func(d *Driver) { d.fps = fps }
}

// Driver implements camera.Driver over a gocv.VideoCapture.
type Driver struct {
	mu sync.Mutex

	device int
	fps    int

	vc     *gocv.VideoCapture
	sensor *Sensor

	// out is the frame handed to the camera layer; release frees its
	// native memory.
	out     *camera.Frame
	release func()
}

func New(device int, opts ...Option) *Driver {
	d := &Driver{device: device, fps: 30}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Driver) Init(cfg camera.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc != nil {
		return ErrAlreadyOpen
	}
	if !supported(cfg.PixelFormat) {
		return fmt.Errorf("%w: pixel format %s", camera.ErrUnsupported, cfg.PixelFormat)
	}

	vc, err := gocv.OpenVideoCapture(d.device)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", d.device, err)
	}
	w, h := cfg.FrameSize.Dimensions()
	vc.Set(gocv.VideoCaptureFrameWidth, float64(w))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(h))
	vc.Set(gocv.VideoCaptureFPS, float64(d.fps))
	vc.Set(gocv.VideoCaptureBufferSize, float64(cfg.FbCount))

	mat := gocv.NewMat()
	defer mat.Close()
	for i := 0; i < purgeFrames; i++ {
		vc.Read(&mat)
	}

	d.vc = vc
	d.sensor = newSensor(vc, cfg)
	return nil
}

func (d *Driver) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc == nil {
		return ErrNotOpen
	}
	if d.release != nil {
		d.release()
	}
	d.out, d.release = nil, nil
	err := d.vc.Close()
	d.vc = nil
	d.sensor = nil
	return err
}

// SensorGet returns nil when the device could not be opened.
func (d *Driver) SensorGet() camera.Sensor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sensor == nil {
		return nil
	}
	return d.sensor
}

// FrameGet reads one frame, renders the sensor's software effects into it
// and encodes it in the configured pixel format.
func (d *Driver) FrameGet() *camera.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.vc == nil {
		return nil
	}

	mat := gocv.NewMat()
	defer mat.Close()
	if ok := d.vc.Read(&mat); !ok || mat.Empty() {
		return nil
	}
	d.sensor.render(&mat)

	format := d.sensor.pixFormat()
	buf, release, err := encodeFrame(mat, format, d.sensor.Status().Quality)
	if err != nil {
		return nil
	}
	d.out = &camera.Frame{
		Buf:       buf,
		Width:     mat.Cols(),
		Height:    mat.Rows(),
		Format:    format,
		Timestamp: time.Now(),
	}
	d.release = release
	return d.out
}

// FrameReturn frees the outstanding frame. Anything else is ignored, so a
// frame is released exactly once.
func (d *Driver) FrameReturn(fb *camera.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if fb == nil || fb != d.out {
		return
	}
	if d.release != nil {
		d.release()
	}
	d.out, d.release = nil, nil
	fb.Buf = nil
}

// jpegQuality maps the sensor's 0 (best) to 63 (worst) scale onto OpenCV's
// 100 (best) to 0.
func jpegQuality(q uint8) int {
	return 100 - int(q)*100/camera.QualityMax
}
