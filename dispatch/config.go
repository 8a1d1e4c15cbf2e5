package dispatch

import (
	"flock-camera-sensor/camera"
	"flock-camera-sensor/flockapi"
)

// ApplyConfig writes every field of cfg to the sensor. It stops at the first
// failing register and leaves the ones already written in place.
func ApplyConfig(h *camera.SensorHandle, cfg flockapi.CameraSensorConfig) error {
	steps := []func() error{
		func() error { return h.SetBrightness(int(cfg.Brightness)) },
		func() error { return h.SetContrast(int(cfg.Contrast)) },
		func() error { return h.SetSaturation(int(cfg.Saturation)) },
		func() error { return h.SetSharpness(int(cfg.Sharpness)) },
		func() error { return h.SetDenoise(int(cfg.DeNoise)) },
		func() error { return h.SetSpecialEffect(camera.SpecialEffect(cfg.SpecialEffect)) },
		func() error { return h.SetWBMode(camera.WhiteBalanceMode(cfg.WBMode)) },
		func() error { return h.SetWhitebal(cfg.AWB) },
		func() error { return h.SetAWBGain(cfg.AWBGain) },
		func() error { return h.SetGainCeiling(camera.GainCeiling(cfg.GainCeiling)) },
		func() error { return h.SetLenc(cfg.LensCorrection) },
		func() error { return h.SetHMirror(cfg.HorizontalMirror) },
		func() error { return h.SetVFlip(cfg.VerticalFlip) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Project reduces the full register status to the fields the controller sees.
func Project(st camera.SensorStatus) flockapi.CameraSensorConfig {
	return flockapi.CameraSensorConfig{
		Brightness:       st.Brightness,
		Contrast:         st.Contrast,
		Saturation:       st.Saturation,
		Sharpness:        st.Sharpness,
		DeNoise:          st.Denoise,
		SpecialEffect:    st.SpecialEffect,
		WBMode:           st.WBMode,
		AWB:              st.AWB,
		AWBGain:          st.AWBGain,
		GainCeiling:      st.GainCeiling,
		LensCorrection:   st.Lenc,
		HorizontalMirror: st.HorizontalMirror,
		VerticalFlip:     st.VerticalFlip,
	}
}
