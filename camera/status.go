package camera

import "fmt"

type PixelFormat uint8

const (
	PixelFormatRGB565    PixelFormat = iota // 2BPP/RGB565
	PixelFormatYUV422                       // 2BPP/YUV422
	PixelFormatYUV420                       // 1.5BPP/YUV420
	PixelFormatGrayscale                    // 1BPP/GRAYSCALE
	PixelFormatJPEG                         // JPEG/COMPRESSED
	PixelFormatRGB888                       // 3BPP/RGB888
	PixelFormatRaw                          // RAW
	PixelFormatRGB444                       // 3BP2P/RGB444
	PixelFormatRGB555                       // 3BP2P/RGB555
)

var pixelFormatNames = [...]string{
	"RGB565", "YUV422", "YUV420", "GRAYSCALE", "JPEG", "RGB888", "RAW", "RGB444", "RGB555",
}

func (p PixelFormat) String() string {
	if int(p) < len(pixelFormatNames) {
		return pixelFormatNames[p]
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(p))
}

type FrameSize uint8

const (
	FrameSize96X96   FrameSize = iota // 96x96
	FrameSizeQQVGA                    // 160x120
	FrameSizeQCIF                     // 176x144
	FrameSizeHQVGA                    // 240x176
	FrameSize240X240                  // 240x240
	FrameSizeQVGA                     // 320x240
	FrameSizeCIF                      // 400x296
	FrameSizeHVGA                     // 480x320
	FrameSizeVGA                      // 640x480
	FrameSizeSVGA                     // 800x600
	FrameSizeXGA                      // 1024x768
	FrameSizeHD                       // 1280x720
	FrameSizeSXGA                     // 1280x1024
	FrameSizeUXGA                     // 1600x1200
	// 3MP sensors
	FrameSizeFHD  // 1920x1080
	FrameSizePHD  // 720x1280
	FrameSizeP3MP // 864x1536
	FrameSizeQXGA // 2048x1536
	// 5MP sensors
	FrameSizeQHD   // 2560x1440
	FrameSizeWQXGA // 2560x1600
	FrameSizePFHD  // 1080x1920
	FrameSizeQSXGA // 2560x1920
	FrameSizeInvalid
)

var frameSizeDims = [...][2]int{
	{96, 96}, {160, 120}, {176, 144}, {240, 176}, {240, 240}, {320, 240},
	{400, 296}, {480, 320}, {640, 480}, {800, 600}, {1024, 768}, {1280, 720},
	{1280, 1024}, {1600, 1200}, {1920, 1080}, {720, 1280}, {864, 1536},
	{2048, 1536}, {2560, 1440}, {2560, 1600}, {1080, 1920}, {2560, 1920},
}

// Dimensions returns width and height in pixels, or zeros for an invalid size.
func (f FrameSize) Dimensions() (width, height int) {
	if int(f) < len(frameSizeDims) {
		d := frameSizeDims[f]
		return d[0], d[1]
	}
	return 0, 0
}

func (f FrameSize) String() string {
	w, h := f.Dimensions()
	if w == 0 {
		return "INVALID"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

// GainCeiling is the AGC gain ceiling register value, 0 (2X) to 6 (128X).
type GainCeiling uint8

const (
	GainCeiling2X GainCeiling = iota
	GainCeiling4X
	GainCeiling8X
	GainCeiling16X
	GainCeiling32X
	GainCeiling64X
	GainCeiling128X
)

func (g GainCeiling) String() string {
	if g <= GainCeiling128X {
		return fmt.Sprintf("%dX", 2<<g)
	}
	return fmt.Sprintf("GainCeiling(%d)", uint8(g))
}

type SpecialEffect uint8

const (
	EffectNone SpecialEffect = iota
	EffectNegative
	EffectGrayscale
	EffectRedTint
	EffectGreenTint
	EffectBlueTint
	EffectSepia
)

var effectNames = [...]string{"none", "negative", "grayscale", "red_tint", "green_tint", "blue_tint", "sepia"}

func (e SpecialEffect) String() string {
	if int(e) < len(effectNames) {
		return effectNames[e]
	}
	return fmt.Sprintf("SpecialEffect(%d)", uint8(e))
}

type WhiteBalanceMode uint8

const (
	WBAuto WhiteBalanceMode = iota
	WBSunny
	WBCloudy
	WBOffice
	WBHome
)

var wbNames = [...]string{"auto", "sunny", "cloudy", "office", "home"}

func (m WhiteBalanceMode) String() string {
	if int(m) < len(wbNames) {
		return wbNames[m]
	}
	return fmt.Sprintf("WhiteBalanceMode(%d)", uint8(m))
}

// Register ranges accepted by the sensor. Drivers reject anything outside.
const (
	LevelMin       = -2 // brightness, contrast, saturation, sharpness, ae level
	LevelMax       = 2
	DenoiseMax     = 8
	QualityMax     = 63
	AGCGainMax     = 30
	AECValueMax    = 1200
	GainCeilingMax = int(GainCeiling128X)
	EffectMax      = int(EffectSepia)
	WBModeMax      = int(WBHome)
)

// CheckRange returns ErrOutOfRange, annotated with name, when v is outside [lo, hi].
func CheckRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s %d not in [%d,%d]", ErrOutOfRange, name, v, lo, hi)
	}
	return nil
}

// SensorID identifies the sensor chip on the SCCB bus.
type SensorID struct {
	MIDH uint8
	MIDL uint8
	PID  uint16
	VER  uint8
}

// SensorStatus is the full register status record held by the driver.
// Only a subset of it travels on the wire.
type SensorStatus struct {
	FrameSize        FrameSize `json:"frameSize"`
	Scale            bool      `json:"scale"`
	Binning          bool      `json:"binning"`
	Quality          uint8     `json:"quality"`
	Brightness       int8      `json:"brightness"`
	Contrast         int8      `json:"contrast"`
	Saturation       int8      `json:"saturation"`
	Sharpness        int8      `json:"sharpness"`
	Denoise          uint8     `json:"deNoise"`
	SpecialEffect    uint8     `json:"specialEffect"`
	WBMode           uint8     `json:"wbMode"`
	AWB              bool      `json:"awb"`
	AWBGain          bool      `json:"awbGain"`
	AEC              bool      `json:"aec"`
	AEC2             bool      `json:"aec2"`
	AELevel          int8      `json:"aeLevel"`
	AECValue         uint16    `json:"aecValue"`
	AGC              bool      `json:"agc"`
	AGCGain          uint8     `json:"agcGain"`
	GainCeiling      uint8     `json:"gainCeiling"`
	BPC              bool      `json:"bpc"`
	WPC              bool      `json:"wpc"`
	RawGMA           bool      `json:"rawGma"`
	Lenc             bool      `json:"lenc"`
	HorizontalMirror bool      `json:"horizontalMirror"`
	VerticalFlip     bool      `json:"verticalFlip"`
	DCW              bool      `json:"dcw"`
	ColorBar         bool      `json:"colorBar"`
}
