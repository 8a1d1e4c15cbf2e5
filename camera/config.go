package camera

import "fmt"

type FbLocation uint8

const (
	FbInPSRAM FbLocation = iota
	FbInDRAM
)

type GrabMode uint8

const (
	// GrabWhenEmpty fills buffers when they are empty. The first FbCount frames may be old.
	GrabWhenEmpty GrabMode = iota
	// GrabLatest keeps the last FbCount frames queued (unless FbCount is 1).
	GrabLatest
)

// Config is the fixed driver setup used for Init.
type Config struct {
	PinPwdn  int
	PinReset int
	PinXclk  int
	PinSDA   int
	PinSCL   int
	PinD7    int
	PinD6    int
	PinD5    int
	PinD4    int
	PinD3    int
	PinD2    int
	PinD1    int
	PinD0    int
	PinVsync int
	PinHref  int
	PinPclk  int

	XclkFreqHz  int
	LedcTimer   uint32
	LedcChannel uint32

	PixelFormat PixelFormat
	FrameSize   FrameSize
	JPEGQuality int
	FbCount     int
	FbLocation  FbLocation
	GrabMode    GrabMode
}

// DefaultConfig is the AI-Thinker ESP32-CAM wiring.
func DefaultConfig() Config {
	return Config{
		PinPwdn:  32,
		PinReset: -1,
		PinXclk:  0,
		PinSDA:   26,
		PinSCL:   27,
		PinD7:    35,
		PinD6:    34,
		PinD5:    39,
		PinD4:    36,
		PinD3:    21,
		PinD2:    19,
		PinD1:    18,
		PinD0:    5,
		PinVsync: 25,
		PinHref:  23,
		PinPclk:  22,

		XclkFreqHz:  20_000_000,
		LedcTimer:   0,
		LedcChannel: 0,

		PixelFormat: PixelFormatRGB565,
		FrameSize:   FrameSizeQVGA,
		JPEGQuality: 12,
		FbCount:     1,
		FbLocation:  FbInPSRAM,
		GrabMode:    GrabWhenEmpty,
	}
}

func (c *Config) Validate() error {
	if c.FbCount < 1 {
		return fmt.Errorf("fb count must be at least 1, got %d", c.FbCount)
	}
	if err := CheckRange("jpeg quality", c.JPEGQuality, 0, QualityMax); err != nil {
		return err
	}
	if c.FrameSize >= FrameSizeInvalid {
		return fmt.Errorf("invalid frame size %d", c.FrameSize)
	}
	if c.XclkFreqHz <= 0 {
		return fmt.Errorf("xclk frequency must be positive, got %d", c.XclkFreqHz)
	}
	return nil
}
