package camera

import "time"

// Driver is the platform camera driver: one session with one sensor.
// Implementations adapt a native driver; all calls come from a single goroutine.
type Driver interface {
	Init(cfg Config) error
	Deinit() error
	// SensorGet returns nil when no sensor answered after Init.
	SensorGet() Sensor
	// FrameGet returns nil when no frame is ready within the driver's own wait.
	FrameGet() *Frame
	// FrameReturn hands a buffer obtained from FrameGet back to the driver.
	FrameReturn(fb *Frame)
}

// Frame is driver-owned memory for one captured frame.
type Frame struct {
	Buf       []byte
	Width     int
	Height    int
	Format    PixelFormat
	Timestamp time.Time
}

// Sensor is the per-device control function table.
// Values are raw register values; range checks belong to the driver.
type Sensor interface {
	ID() SensorID
	Status() SensorStatus
	InitStatus() error
	Reset() error

	SetPixFormat(format PixelFormat) error
	SetFrameSize(size FrameSize) error
	SetQuality(quality int) error

	SetBrightness(level int) error
	SetContrast(level int) error
	SetSaturation(level int) error
	SetSharpness(level int) error
	SetDenoise(level int) error
	SetSpecialEffect(effect int) error
	SetWBMode(mode int) error
	SetWhitebal(enable bool) error
	SetAWBGain(enable bool) error
	SetGainCeiling(ceiling int) error
	SetLenc(enable bool) error
	SetHMirror(enable bool) error
	SetVFlip(enable bool) error

	SetExposureCtrl(enable bool) error
	SetAEC2(enable bool) error
	SetAELevel(level int) error
	SetAECValue(value int) error
	SetGainCtrl(enable bool) error
	SetAGCGain(gain int) error
	SetBPC(enable bool) error
	SetWPC(enable bool) error
	SetRawGMA(enable bool) error
	SetDCW(enable bool) error
	SetColorBar(enable bool) error
}
