// Package flockapi is the message vocabulary shared by flock nodes and the
// controller, together with its JSON wire encoding.
package flockapi

import (
	"fmt"

	"github.com/google/uuid"
)

// Message is the envelope exchanged over the transport.
type Message struct {
	MessageID   string  `json:"messageId,omitempty"`
	OriginID    string  `json:"clientId"`
	Destination string  `json:"recipient"`
	Payload     Payload `json:"payload"`
}

// NewMessage stamps a fresh message id.
func NewMessage(origin, destination string, p Payload) Message {
	return Message{
		MessageID:   uuid.NewString(),
		OriginID:    origin,
		Destination: destination,
		Payload:     p,
	}
}

type PayloadKind uint8

const (
	PayloadConnected PayloadKind = iota + 1
	PayloadDisconnected
	PayloadInstruction
	PayloadSensorReading
	PayloadSensorConfig
	PayloadError
)

var payloadTags = map[PayloadKind]string{
	PayloadConnected:     "connected",
	PayloadDisconnected:  "disconnected",
	PayloadInstruction:   "instruction",
	PayloadSensorReading: "sensorReading",
	PayloadSensorConfig:  "sensorConfig",
	PayloadError:         "error",
}

func (k PayloadKind) String() string {
	if s, ok := payloadTags[k]; ok {
		return s
	}
	return fmt.Sprintf("PayloadKind(%d)", uint8(k))
}

// Payload is a tagged union. Kind selects which of the other fields is set.
type Payload struct {
	Kind          PayloadKind
	Instruction   *Instruction
	SensorReading *SensorData
	SensorConfig  *SensorConfig
	Error         string
}

func Connected() Payload    { return Payload{Kind: PayloadConnected} }
func Disconnected() Payload { return Payload{Kind: PayloadDisconnected} }

func InstructionPayload(i Instruction) Payload {
	return Payload{Kind: PayloadInstruction, Instruction: &i}
}

// Reading wraps one frame. frame must already be a copy owned by the caller.
func Reading(frame []byte) Payload {
	return Payload{
		Kind:          PayloadSensorReading,
		SensorReading: &SensorData{Camera: &CameraData{FrameBuffer: frame}},
	}
}

func Config(cfg CameraSensorConfig) Payload {
	return Payload{
		Kind:         PayloadSensorConfig,
		SensorConfig: &SensorConfig{Camera: &cfg},
	}
}

func ErrorText(text string) Payload {
	return Payload{Kind: PayloadError, Error: text}
}

func Errorf(format string, args ...any) Payload {
	return ErrorText(fmt.Sprintf(format, args...))
}

func (p Payload) String() string {
	switch p.Kind {
	case PayloadInstruction:
		if p.Instruction != nil {
			return "instruction(" + p.Instruction.Kind.String() + ")"
		}
	case PayloadError:
		return "error(" + p.Error + ")"
	}
	return p.Kind.String()
}

type InstructionKind uint8

const (
	ReadSensor InstructionKind = iota + 1
	ReadSensorConfig
	WriteSensorConfig
)

var instructionTags = map[InstructionKind]string{
	ReadSensor:        "readSensor",
	ReadSensorConfig:  "readSensorConfig",
	WriteSensorConfig: "writeSensorConfig",
}

func (k InstructionKind) String() string {
	if s, ok := instructionTags[k]; ok {
		return s
	}
	return fmt.Sprintf("InstructionKind(%d)", uint8(k))
}

// Instruction is a controller request. Config is set for WriteSensorConfig only.
type Instruction struct {
	Kind   InstructionKind
	Config *SensorConfig
}

func WriteConfig(cfg CameraSensorConfig) Instruction {
	return Instruction{Kind: WriteSensorConfig, Config: &SensorConfig{Camera: &cfg}}
}

// SensorData has a single variant today.
type SensorData struct {
	Camera *CameraData
}

type CameraData struct {
	FrameBuffer Bytes `json:"frame_buffer"`
}

type SensorConfig struct {
	Camera *CameraSensorConfig
}

// CameraSensorConfig is the controller-visible subset of the sensor status.
// Levels run -2..2, de-noise 0..8, special effect 0..6, white balance mode
// 0..4 and gain ceiling 0..6. Ranges are enforced by the hardware, not here.
type CameraSensorConfig struct {
	Brightness       int8  `json:"brightness"`
	Contrast         int8  `json:"contrast"`
	Saturation       int8  `json:"saturation"`
	Sharpness        int8  `json:"sharpness"`
	DeNoise          uint8 `json:"deNoise"`
	SpecialEffect    uint8 `json:"specialEffect"`
	WBMode           uint8 `json:"wbMode"`
	AWB              bool  `json:"awb"`
	AWBGain          bool  `json:"awbGain"`
	GainCeiling      uint8 `json:"gainCeiling"`
	LensCorrection   bool  `json:"lensCorrection"`
	HorizontalMirror bool  `json:"horizontalMirror"`
	VerticalFlip     bool  `json:"verticalFlip"`
}
