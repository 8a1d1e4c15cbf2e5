package simcam

import (
	"sync"

	"flock-camera-sensor/camera"
)

// OV2640 identification as read over SCCB.
var ov2640 = camera.SensorID{MIDH: 0x7F, MIDL: 0xA2, PID: 0x26, VER: 0x42}

// Sensor implements camera.Sensor over an in-memory status record.
// Range checks follow the ESP32 camera driver.
type Sensor struct {
	mu      sync.Mutex
	status  camera.SensorStatus
	calls   []string
	failOn  map[string]error
	panicOn string
}

func newSensor() *Sensor {
	return &Sensor{failOn: map[string]error{}}
}

func (s *Sensor) reset(cfg camera.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = camera.SensorStatus{
		FrameSize: cfg.FrameSize,
		Quality:   uint8(cfg.JPEGQuality),
		AWB:       true,
		AWBGain:   true,
		AEC:       true,
		AECValue:  204,
		AGC:       true,
		WPC:       true,
		RawGMA:    true,
		Lenc:      true,
		DCW:       true,
	}
}

// set records op, runs the injected faults, then the range check, then apply.
func (s *Sensor) set(op string, check error, apply func(st *camera.SensorStatus)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	if op == s.panicOn {
		panic("simcam: injected panic in " + op)
	}
	if err, ok := s.failOn[op]; ok {
		return err
	}
	if check != nil {
		return check
	}
	apply(&s.status)
	return nil
}

// Calls lists every operation attempted, in order.
func (s *Sensor) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Sensor) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func (s *Sensor) ID() camera.SensorID { return ov2640 }

func (s *Sensor) Status() camera.SensorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sensor) InitStatus() error {
	return s.set("init_status", nil, func(*camera.SensorStatus) {})
}

func (s *Sensor) Reset() error {
	return s.set("reset", nil, func(st *camera.SensorStatus) {
		*st = camera.SensorStatus{FrameSize: st.FrameSize, Quality: st.Quality}
	})
}

func (s *Sensor) SetPixFormat(format camera.PixelFormat) error {
	return s.set("set_pixformat", camera.CheckRange("pixel format", int(format), 0, int(camera.PixelFormatRGB555)), func(*camera.SensorStatus) {})
}

func (s *Sensor) SetFrameSize(size camera.FrameSize) error {
	return s.set("set_framesize", camera.CheckRange("frame size", int(size), 0, int(camera.FrameSizeInvalid)-1), func(st *camera.SensorStatus) {
		st.FrameSize = size
	})
}

func (s *Sensor) SetQuality(quality int) error {
	return s.set("set_quality", camera.CheckRange("quality", quality, 0, camera.QualityMax), func(st *camera.SensorStatus) {
		st.Quality = uint8(quality)
	})
}

func (s *Sensor) SetBrightness(level int) error {
	return s.set("set_brightness", camera.CheckRange("brightness", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.Brightness = int8(level)
	})
}

func (s *Sensor) SetContrast(level int) error {
	return s.set("set_contrast", camera.CheckRange("contrast", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.Contrast = int8(level)
	})
}

func (s *Sensor) SetSaturation(level int) error {
	return s.set("set_saturation", camera.CheckRange("saturation", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.Saturation = int8(level)
	})
}

func (s *Sensor) SetSharpness(level int) error {
	return s.set("set_sharpness", camera.CheckRange("sharpness", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.Sharpness = int8(level)
	})
}

func (s *Sensor) SetDenoise(level int) error {
	return s.set("set_denoise", camera.CheckRange("denoise", level, 0, camera.DenoiseMax), func(st *camera.SensorStatus) {
		st.Denoise = uint8(level)
	})
}

func (s *Sensor) SetSpecialEffect(effect int) error {
	return s.set("set_special_effect", camera.CheckRange("special effect", effect, 0, camera.EffectMax), func(st *camera.SensorStatus) {
		st.SpecialEffect = uint8(effect)
	})
}

func (s *Sensor) SetWBMode(mode int) error {
	return s.set("set_wb_mode", camera.CheckRange("wb mode", mode, 0, camera.WBModeMax), func(st *camera.SensorStatus) {
		st.WBMode = uint8(mode)
	})
}

func (s *Sensor) SetWhitebal(enable bool) error {
	return s.set("set_whitebal", nil, func(st *camera.SensorStatus) { st.AWB = enable })
}

func (s *Sensor) SetAWBGain(enable bool) error {
	return s.set("set_awb_gain", nil, func(st *camera.SensorStatus) { st.AWBGain = enable })
}

func (s *Sensor) SetGainCeiling(ceiling int) error {
	return s.set("set_gain_ceiling", camera.CheckRange("gain ceiling", ceiling, 0, camera.GainCeilingMax), func(st *camera.SensorStatus) {
		st.GainCeiling = uint8(ceiling)
	})
}

func (s *Sensor) SetLenc(enable bool) error {
	return s.set("set_lenc", nil, func(st *camera.SensorStatus) { st.Lenc = enable })
}

func (s *Sensor) SetHMirror(enable bool) error {
	return s.set("set_hmirror", nil, func(st *camera.SensorStatus) { st.HorizontalMirror = enable })
}

func (s *Sensor) SetVFlip(enable bool) error {
	return s.set("set_vflip", nil, func(st *camera.SensorStatus) { st.VerticalFlip = enable })
}

func (s *Sensor) SetExposureCtrl(enable bool) error {
	return s.set("set_exposure_ctrl", nil, func(st *camera.SensorStatus) { st.AEC = enable })
}

func (s *Sensor) SetAEC2(enable bool) error {
	return s.set("set_aec2", nil, func(st *camera.SensorStatus) { st.AEC2 = enable })
}

func (s *Sensor) SetAELevel(level int) error {
	return s.set("set_ae_level", camera.CheckRange("ae level", level, camera.LevelMin, camera.LevelMax), func(st *camera.SensorStatus) {
		st.AELevel = int8(level)
	})
}

func (s *Sensor) SetAECValue(value int) error {
	return s.set("set_aec_value", camera.CheckRange("aec value", value, 0, camera.AECValueMax), func(st *camera.SensorStatus) {
		st.AECValue = uint16(value)
	})
}

func (s *Sensor) SetGainCtrl(enable bool) error {
	return s.set("set_gain_ctrl", nil, func(st *camera.SensorStatus) { st.AGC = enable })
}

func (s *Sensor) SetAGCGain(gain int) error {
	return s.set("set_agc_gain", camera.CheckRange("agc gain", gain, 0, camera.AGCGainMax), func(st *camera.SensorStatus) {
		st.AGCGain = uint8(gain)
	})
}

func (s *Sensor) SetBPC(enable bool) error {
	return s.set("set_bpc", nil, func(st *camera.SensorStatus) { st.BPC = enable })
}

func (s *Sensor) SetWPC(enable bool) error {
	return s.set("set_wpc", nil, func(st *camera.SensorStatus) { st.WPC = enable })
}

func (s *Sensor) SetRawGMA(enable bool) error {
	return s.set("set_raw_gma", nil, func(st *camera.SensorStatus) { st.RawGMA = enable })
}

func (s *Sensor) SetDCW(enable bool) error {
	return s.set("set_dcw", nil, func(st *camera.SensorStatus) { st.DCW = enable })
}

func (s *Sensor) SetColorBar(enable bool) error {
	return s.set("set_color_bar", nil, func(st *camera.SensorStatus) { st.ColorBar = enable })
}
