package camera

import "errors"

// Code is a stable error identifier for camera failures.
// It is a string newtype and implements error, so it can be used directly
// as an errors.Is target.
type Code string

func (c Code) Error() string { return string(c) }

const (
	// Fatal, startup only.
	InitializationFailed Code = "initialization_failed"
	SensorNotDetected    Code = "sensor_not_detected"

	// Per operation; reported to the controller.
	HardwareFault Code = "hardware_fault"

	// Fatal, shutdown only.
	TeardownFailed Code = "teardown_failed"

	Unknown Code = "error"
)

// Errors returned by drivers. Facade calls wrap them in an *Error.
var (
	ErrOutOfRange  = errors.New("value out of range")
	ErrUnsupported = errors.New("unsupported")
	ErrBus         = errors.New("register bus failure")
)

// Error keeps the code, the failing operation and the driver cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	s := string(e.Code)
	if e.Op != "" {
		s += ": " + e.Op
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Code of e.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf extracts a Code from err, defaulting to Unknown.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Unknown
}

func fault(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: HardwareFault, Op: op, Err: err}
}
