package camera

// Profile is a full set of register values applied once after Init.
type Profile struct {
	Brightness    int
	Contrast      int
	Saturation    int
	SpecialEffect SpecialEffect
	Whitebal      bool
	AWBGain       bool
	WBMode        WhiteBalanceMode
	ExposureCtrl  bool
	AEC2          bool
	AELevel       int
	AECValue      int
	GainCtrl      bool
	AGCGain       int
	GainCeiling   GainCeiling
	BPC           bool
	WPC           bool
	RawGMA        bool
	Lenc          bool
	HMirror       bool
	VFlip         bool
	DCW           bool
	ColorBar      bool
}

// DefaultProfile is the field-tested startup setup for the node's sensor.
func DefaultProfile() Profile {
	return Profile{
		Brightness:    2,
		Contrast:      0,
		Saturation:    0,
		SpecialEffect: EffectNone,
		Whitebal:      true,
		AWBGain:       true,
		WBMode:        WBAuto,
		ExposureCtrl:  false,
		AEC2:          true,
		AELevel:       0,
		AECValue:      300,
		GainCtrl:      true,
		AGCGain:       0,
		GainCeiling:   GainCeiling2X,
		BPC:           false,
		WPC:           true,
		RawGMA:        true,
		Lenc:          true,
		HMirror:       false,
		VFlip:         false,
		DCW:           true,
		ColorBar:      false,
	}
}

// Apply writes the profile in register order and stops at the first failure.
func (p Profile) Apply(h *SensorHandle) error {
	steps := []func() error{
		func() error { return h.SetBrightness(p.Brightness) },
		func() error { return h.SetContrast(p.Contrast) },
		func() error { return h.SetSaturation(p.Saturation) },
		func() error { return h.SetSpecialEffect(p.SpecialEffect) },
		func() error { return h.SetWhitebal(p.Whitebal) },
		func() error { return h.SetAWBGain(p.AWBGain) },
		func() error { return h.SetWBMode(p.WBMode) },
		func() error { return h.SetExposureCtrl(p.ExposureCtrl) },
		func() error { return h.SetAEC2(p.AEC2) },
		func() error { return h.SetAELevel(p.AELevel) },
		func() error { return h.SetAECValue(p.AECValue) },
		func() error { return h.SetGainCtrl(p.GainCtrl) },
		func() error { return h.SetAGCGain(p.AGCGain) },
		func() error { return h.SetGainCeiling(p.GainCeiling) },
		func() error { return h.SetBPC(p.BPC) },
		func() error { return h.SetWPC(p.WPC) },
		func() error { return h.SetRawGMA(p.RawGMA) },
		func() error { return h.SetLenc(p.Lenc) },
		func() error { return h.SetHMirror(p.HMirror) },
		func() error { return h.SetVFlip(p.VFlip) },
		func() error { return h.SetDCW(p.DCW) },
		func() error { return h.SetColorBar(p.ColorBar) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
