// Package dispatch turns controller instructions into camera operations and
// camera state into response payloads. It does no I/O.
package dispatch

import (
	"flock-camera-sensor/camera"
	"flock-camera-sensor/flockapi"
	"flock-camera-sensor/pipeline"
)

// Camera is the part of *camera.Camera the dispatcher needs.
type Camera interface {
	WithFrame(fn func(fb *camera.FrameBuffer) error) (bool, error)
	Sensor() *camera.SensorHandle
}

// HandleEvent maps one transport event to an optional response payload.
// It has the signature pipeline.Handler expects.
func HandleEvent(cam *camera.Camera, ev pipeline.Event) *flockapi.Payload {
	switch ev.Kind {
	case pipeline.EventConnected:
		p := flockapi.Connected()
		return &p
	case pipeline.EventDecodeFailure:
		p := flockapi.ErrorText(pipeline.DecodeFailure + ": " + ev.Err.Error())
		return &p
	case pipeline.EventMessage:
		return Dispatch(cam, ev.Message.Payload)
	}
	return nil
}

// Dispatch handles one inbound payload. Only instructions produce a response.
func Dispatch(cam Camera, p flockapi.Payload) *flockapi.Payload {
	if p.Kind != flockapi.PayloadInstruction || p.Instruction == nil {
		return nil
	}
	return Instruction(cam, *p.Instruction)
}

// Instruction executes instr against cam. A nil result means there is
// nothing to send, which happens when no frame is ready.
func Instruction(cam Camera, instr flockapi.Instruction) *flockapi.Payload {
	var out flockapi.Payload
	switch instr.Kind {
	case flockapi.ReadSensor:
		var frame []byte
		ok, err := cam.WithFrame(func(fb *camera.FrameBuffer) error {
			frame = fb.Bytes()
			return nil
		})
		if !ok {
			return nil
		}
		if err != nil {
			out = flockapi.ErrorText(err.Error())
			break
		}
		out = flockapi.Reading(frame)

	case flockapi.ReadSensorConfig:
		out = flockapi.Config(Project(cam.Sensor().Status()))

	case flockapi.WriteSensorConfig:
		if instr.Config == nil || instr.Config.Camera == nil {
			out = flockapi.ErrorText("writeSensorConfig: missing camera config")
			break
		}
		if err := ApplyConfig(cam.Sensor(), *instr.Config.Camera); err != nil {
			out = flockapi.ErrorText(err.Error())
			break
		}
		out = flockapi.Config(Project(cam.Sensor().Status()))

	default:
		return nil
	}
	return &out
}
