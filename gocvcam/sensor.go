package gocvcam

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"flock-camera-sensor/camera"
)

// UVC devices report no SCCB identity.
var uvcID = camera.SensorID{PID: 0xFFFF}

// Sensor keeps a shadow register record. Controls the device exposes are
// pushed to it; the rest are rendered in software on each frame.
type Sensor struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	status camera.SensorStatus
	format camera.PixelFormat
}

func newSensor(vc *gocv.VideoCapture, cfg camera.Config) *Sensor {
	return &Sensor{
		vc:     vc,
		format: cfg.PixelFormat,
		status: camera.SensorStatus{
			FrameSize: cfg.FrameSize,
			Quality:   uint8(cfg.JPEGQuality),
			AWB:       true,
			AWBGain:   true,
			AEC:       true,
			AGC:       true,
			Lenc:      true,
		},
	}
}

// levelProp maps a -2..2 level onto OpenCV's normalized 0..1 property range.
func levelProp(level int) float64 {
	return 0.5 + float64(level)*0.25
}

func boolProp(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (s *Sensor) set(check error, apply func(st *camera.SensorStatus)) error {
	if check != nil {
		return check
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	apply(&s.status)
	return nil
}

func (s *Sensor) ID() camera.SensorID { return uvcID }

func (s *Sensor) Status() camera.SensorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sensor) InitStatus() error { return nil }

func (s *Sensor) Reset() error {
	s.mu.Lock()
	s.status = camera.SensorStatus{FrameSize: s.status.FrameSize, Quality: s.status.Quality}
	s.mu.Unlock()
	s.vc.Set(gocv.VideoCaptureBrightness, levelProp(0))
	s.vc.Set(gocv.VideoCaptureContrast, levelProp(0))
	s.vc.Set(gocv.VideoCaptureSaturation, levelProp(0))
	return nil
}

func (s *Sensor) SetPixFormat(format camera.PixelFormat) error {
	if !supported(format) {
		return fmt.Errorf("%w: pixel format %s", camera.ErrUnsupported, format)
	}
	s.mu.Lock()
	s.format = format
	s.mu.Unlock()
	return nil
}

func (s *Sensor) pixFormat() camera.PixelFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func (s *Sensor) SetFrameSize(size camera.FrameSize) error {
	return s.set(camera.CheckRange("frame size", int(size), 0, int(camera.FrameSizeInvalid)-1), func(st *camera.SensorStatus) {
		w, h := size.Dimensions()
		s.vc.Set(gocv.VideoCaptureFrameWidth, float64(w))
		s.vc.Set(gocv.VideoCaptureFrameHeight, float64(h))
		st.FrameSize = size
	})
}

func (s *Sensor) SetQuality(quality int) error {
	return s.set(camera.CheckRange("quality", quality, 0, camera.QualityMax), func(st *camera.SensorStatus) {
		st.Quality = uint8(quality)
	})
}

func (s *Sensor) SetBrightness(level int) error {
	return s.set(camera.CheckRange("brightness", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureBrightness, levelProp(level))
		st.Brightness = int8(level)
	})
}

func (s *Sensor) SetContrast(level int) error {
	return s.set(camera.CheckRange("contrast", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureContrast, levelProp(level))
		st.Contrast = int8(level)
	})
}

func (s *Sensor) SetSaturation(level int) error {
	return s.set(camera.CheckRange("saturation", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureSaturation, levelProp(level))
		st.Saturation = int8(level)
	})
}

func (s *Sensor) SetSharpness(level int) error {
	return s.set(camera.CheckRange("sharpness", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureSharpness, levelProp(level))
		st.Sharpness = int8(level)
	})
}

func (s *Sensor) SetDenoise(level int) error {
	return s.set(camera.CheckRange("denoise", level, 0, camera.DenoiseMax), func(st *camera.SensorStatus) {
		st.Denoise = uint8(level)
	})
}

// Only none, negative and grayscale are rendered. Tints are accepted and
// recorded but not drawn.
func (s *Sensor) SetSpecialEffect(effect int) error {
	return s.set(camera.CheckRange("special effect", effect, 0, camera.EffectMax), func(st *camera.SensorStatus) {
		st.SpecialEffect = uint8(effect)
	})
}

func (s *Sensor) SetWBMode(mode int) error {
	return s.set(camera.CheckRange("wb mode", mode, 0, camera.WBModeMax), func(st *camera.SensorStatus) {
		st.WBMode = uint8(mode)
	})
}

func (s *Sensor) SetWhitebal(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureAutoWB, boolProp(enable))
		st.AWB = enable
	})
}

func (s *Sensor) SetAWBGain(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.AWBGain = enable })
}

func (s *Sensor) SetGainCeiling(ceiling int) error {
	return s.set(camera.CheckRange("gain ceiling", ceiling, 0, camera.GainCeilingMax), func(st *camera.SensorStatus) {
		st.GainCeiling = uint8(ceiling)
	})
}

func (s *Sensor) SetLenc(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.Lenc = enable })
}

func (s *Sensor) SetHMirror(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.HorizontalMirror = enable })
}

func (s *Sensor) SetVFlip(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.VerticalFlip = enable })
}

func (s *Sensor) SetExposureCtrl(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.AEC = enable })
}

func (s *Sensor) SetAEC2(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.AEC2 = enable })
}

func (s *Sensor) SetAELevel(level int) error {
	return s.set(camera.CheckRange("ae level", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.AELevel = int8(level)
	})
}

func (s *Sensor) SetAECValue(value int) error {
	return s.set(camera.CheckRange("aec value", value, 0, camera.AECValueMax), func(st *camera.SensorStatus) {
		st.AECValue = uint16(value)
	})
}

func (s *Sensor) SetGainCtrl(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.AGC = enable })
}

func (s *Sensor) SetAGCGain(gain int) error {
	return s.set(camera.CheckRange("agc gain", gain, 0, camera.AGCGainMax), func(st *camera.SensorStatus) {
		s.vc.Set(gocv.VideoCaptureGain, float64(gain))
		st.AGCGain = uint8(gain)
	})
}

func (s *Sensor) SetBPC(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.BPC = enable })
}

func (s *Sensor) SetWPC(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.WPC = enable })
}

func (s *Sensor) SetRawGMA(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.RawGMA = enable })
}

func (s *Sensor) SetDCW(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.DCW = enable })
}

func (s *Sensor) SetColorBar(enable bool) error {
	return s.set(nil, func(st *camera.SensorStatus) { st.ColorBar = enable })
}

// render applies the software-only controls to mat in place.
func (s *Sensor) render(mat *gocv.Mat) {
	st := s.Status()

	if st.Denoise > 0 {
		k := int(st.Denoise)*2 + 1
		gocv.GaussianBlur(*mat, mat, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	}
	switch {
	case st.HorizontalMirror && st.VerticalFlip:
		gocv.Flip(*mat, mat, -1)
	case st.HorizontalMirror:
		gocv.Flip(*mat, mat, 1)
	case st.VerticalFlip:
		gocv.Flip(*mat, mat, 0)
	}
	switch camera.SpecialEffect(st.SpecialEffect) {
	case camera.EffectNegative:
		gocv.BitwiseNot(*mat, mat)
	case camera.EffectGrayscale:
		gocv.CvtColor(*mat, mat, gocv.ColorBGRToGray)
	}
}
