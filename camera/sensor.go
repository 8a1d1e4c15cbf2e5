package camera

import "log/slog"

// SensorHandle is the typed register facade over the driver's Sensor.
// It is borrowed from a Camera and must not be used after the Camera is closed.
// Every setter reaches the hardware, even when the value is unchanged.
type SensorHandle struct {
	cam *Camera
	s   Sensor
	log *slog.Logger
}

func (h *SensorHandle) sensor() Sensor {
	if h.cam.closed {
		panic("camera: sensor handle used after close")
	}
	return h.s
}

func (h *SensorHandle) ID() SensorID { return h.sensor().ID() }

// Status reads the full register status record.
func (h *SensorHandle) Status() SensorStatus { return h.sensor().Status() }

func (h *SensorHandle) InitStatus() error {
	return fault("init_status", h.sensor().InitStatus())
}

func (h *SensorHandle) Reset() error {
	h.log.Debug("resetting sensor")
	return fault("reset", h.sensor().Reset())
}

func (h *SensorHandle) SetPixFormat(format PixelFormat) error {
	h.log.Debug("setting sensor pixel format", "format", format)
	return fault("set_pixformat", h.sensor().SetPixFormat(format))
}

// SetFrameSize must run before any geometry-dependent call.
func (h *SensorHandle) SetFrameSize(size FrameSize) error {
	h.log.Debug("setting sensor frame size", "size", size)
	return fault("set_framesize", h.sensor().SetFrameSize(size))
}

// SetQuality sets JPEG quality, 0 (best) to 63.
func (h *SensorHandle) SetQuality(quality int) error {
	h.log.Debug("setting sensor quality", "quality", quality)
	return fault("set_quality", h.sensor().SetQuality(quality))
}

// SetBrightness takes a level from -2 to 2.
func (h *SensorHandle) SetBrightness(level int) error {
	h.log.Debug("setting sensor brightness", "level", level)
	return fault("set_brightness", h.sensor().SetBrightness(level))
}

// SetContrast takes a level from -2 to 2.
func (h *SensorHandle) SetContrast(level int) error {
	h.log.Debug("setting sensor contrast", "level", level)
	return fault("set_contrast", h.sensor().SetContrast(level))
}

// SetSaturation takes a level from -2 to 2.
func (h *SensorHandle) SetSaturation(level int) error {
	h.log.Debug("setting sensor saturation", "level", level)
	return fault("set_saturation", h.sensor().SetSaturation(level))
}

// SetSharpness takes a level from -2 to 2.
func (h *SensorHandle) SetSharpness(level int) error {
	h.log.Debug("setting sensor sharpness", "level", level)
	return fault("set_sharpness", h.sensor().SetSharpness(level))
}

// SetDenoise takes a level from 0 to 8.
func (h *SensorHandle) SetDenoise(level int) error {
	h.log.Debug("setting sensor denoise", "level", level)
	return fault("set_denoise", h.sensor().SetDenoise(level))
}

func (h *SensorHandle) SetSpecialEffect(effect SpecialEffect) error {
	h.log.Debug("setting sensor special effect", "effect", effect)
	return fault("set_special_effect", h.sensor().SetSpecialEffect(int(effect)))
}

func (h *SensorHandle) SetWBMode(mode WhiteBalanceMode) error {
	h.log.Debug("setting sensor white-balance mode", "mode", mode)
	return fault("set_wb_mode", h.sensor().SetWBMode(int(mode)))
}

func (h *SensorHandle) SetWhitebal(enable bool) error {
	h.log.Debug("setting sensor white-balance", "enable", enable)
	return fault("set_whitebal", h.sensor().SetWhitebal(enable))
}

func (h *SensorHandle) SetAWBGain(enable bool) error {
	h.log.Debug("setting sensor awb gain", "enable", enable)
	return fault("set_awb_gain", h.sensor().SetAWBGain(enable))
}

func (h *SensorHandle) SetGainCeiling(ceiling GainCeiling) error {
	h.log.Debug("setting sensor gain ceiling", "ceiling", ceiling)
	return fault("set_gain_ceiling", h.sensor().SetGainCeiling(int(ceiling)))
}

func (h *SensorHandle) SetLenc(enable bool) error {
	h.log.Debug("setting sensor lenc", "enable", enable)
	return fault("set_lenc", h.sensor().SetLenc(enable))
}

func (h *SensorHandle) SetHMirror(enable bool) error {
	h.log.Debug("setting sensor hmirror", "enable", enable)
	return fault("set_hmirror", h.sensor().SetHMirror(enable))
}

func (h *SensorHandle) SetVFlip(enable bool) error {
	h.log.Debug("setting sensor vflip", "enable", enable)
	return fault("set_vflip", h.sensor().SetVFlip(enable))
}

func (h *SensorHandle) SetExposureCtrl(enable bool) error {
	h.log.Debug("setting sensor exposure control", "enable", enable)
	return fault("set_exposure_ctrl", h.sensor().SetExposureCtrl(enable))
}

func (h *SensorHandle) SetAEC2(enable bool) error {
	h.log.Debug("setting sensor aec2", "enable", enable)
	return fault("set_aec2", h.sensor().SetAEC2(enable))
}

// SetAELevel takes a level from -2 to 2.
func (h *SensorHandle) SetAELevel(level int) error {
	h.log.Debug("setting sensor ae level", "level", level)
	return fault("set_ae_level", h.sensor().SetAELevel(level))
}

// SetAECValue takes a value from 0 to 1200.
func (h *SensorHandle) SetAECValue(value int) error {
	h.log.Debug("setting sensor aec value", "value", value)
	return fault("set_aec_value", h.sensor().SetAECValue(value))
}

func (h *SensorHandle) SetGainCtrl(enable bool) error {
	h.log.Debug("setting sensor gain control", "enable", enable)
	return fault("set_gain_ctrl", h.sensor().SetGainCtrl(enable))
}

// SetAGCGain takes a gain from 0 to 30.
func (h *SensorHandle) SetAGCGain(gain int) error {
	h.log.Debug("setting sensor agc gain", "gain", gain)
	return fault("set_agc_gain", h.sensor().SetAGCGain(gain))
}

func (h *SensorHandle) SetBPC(enable bool) error {
	h.log.Debug("setting sensor bpc", "enable", enable)
	return fault("set_bpc", h.sensor().SetBPC(enable))
}

func (h *SensorHandle) SetWPC(enable bool) error {
	h.log.Debug("setting sensor wpc", "enable", enable)
	return fault("set_wpc", h.sensor().SetWPC(enable))
}

func (h *SensorHandle) SetRawGMA(enable bool) error {
	h.log.Debug("setting sensor raw gma", "enable", enable)
	return fault("set_raw_gma", h.sensor().SetRawGMA(enable))
}

func (h *SensorHandle) SetDCW(enable bool) error {
	h.log.Debug("setting sensor dcw", "enable", enable)
	return fault("set_dcw", h.sensor().SetDCW(enable))
}

func (h *SensorHandle) SetColorBar(enable bool) error {
	h.log.Debug("setting sensor color bar", "enable", enable)
	return fault("set_color_bar", h.sensor().SetColorBar(enable))
}
