package flockapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrUnknownVariant = errors.New("flockapi: unknown variant")
	ErrMissingField   = errors.New("flockapi: missing field")
	ErrInvalid        = errors.New("flockapi: invalid value")
)

// Encode renders msg in the wire format.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode parses one wire message. Every envelope field except messageId is
// required.
func Decode(data []byte) (Message, error) {
	var w struct {
		MessageID   string   `json:"messageId"`
		OriginID    *string  `json:"clientId"`
		Destination *string  `json:"recipient"`
		Payload     *Payload `json:"payload"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("flockapi: decode message: %w", err)
	}
	switch {
	case w.OriginID == nil:
		return Message{}, fmt.Errorf("%w: clientId", ErrMissingField)
	case w.Destination == nil:
		return Message{}, fmt.Errorf("%w: recipient", ErrMissingField)
	case w.Payload == nil:
		return Message{}, fmt.Errorf("%w: payload", ErrMissingField)
	}
	return Message{
		MessageID:   w.MessageID,
		OriginID:    *w.OriginID,
		Destination: *w.Destination,
		Payload:     *w.Payload,
	}, nil
}

// tagged encodes an externally tagged variant: {"tag": body}.
func tagged(tag string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{tag: b})
}

// untag splits an externally tagged value. A bare string is a unit variant
// and comes back with a nil body.
func untag(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("%w: expected a variant tag: %v", ErrInvalid, err)
	}
	if len(m) != 1 {
		return "", nil, fmt.Errorf("%w: expected exactly one variant tag, got %d", ErrInvalid, len(m))
	}
	for tag, body := range m {
		return tag, body, nil
	}
	panic("unreachable")
}

func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PayloadConnected, PayloadDisconnected:
		return json.Marshal(p.Kind.String())
	case PayloadInstruction:
		if p.Instruction == nil {
			return nil, fmt.Errorf("%w: instruction payload without instruction", ErrInvalid)
		}
		return tagged(p.Kind.String(), p.Instruction)
	case PayloadSensorReading:
		if p.SensorReading == nil {
			return nil, fmt.Errorf("%w: sensor reading payload without data", ErrInvalid)
		}
		return tagged(p.Kind.String(), p.SensorReading)
	case PayloadSensorConfig:
		if p.SensorConfig == nil {
			return nil, fmt.Errorf("%w: sensor config payload without config", ErrInvalid)
		}
		return tagged(p.Kind.String(), p.SensorConfig)
	case PayloadError:
		return tagged(p.Kind.String(), p.Error)
	}
	return nil, fmt.Errorf("%w: payload kind %d", ErrInvalid, uint8(p.Kind))
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	tag, body, err := untag(data)
	if err != nil {
		return err
	}
	var out Payload
	switch tag {
	case "connected":
		out.Kind = PayloadConnected
	case "disconnected":
		out.Kind = PayloadDisconnected
	case "instruction":
		out.Kind = PayloadInstruction
		out.Instruction = new(Instruction)
		err = decodeBody(tag, body, out.Instruction)
	case "sensorReading":
		out.Kind = PayloadSensorReading
		out.SensorReading = new(SensorData)
		err = decodeBody(tag, body, out.SensorReading)
	case "sensorConfig":
		out.Kind = PayloadSensorConfig
		out.SensorConfig = new(SensorConfig)
		err = decodeBody(tag, body, out.SensorConfig)
	case "error":
		err = decodeBody(tag, body, &out.Error)
		out.Kind = PayloadError
	default:
		return fmt.Errorf("%w: payload %q", ErrUnknownVariant, tag)
	}
	if err != nil {
		return err
	}
	if body != nil && (out.Kind == PayloadConnected || out.Kind == PayloadDisconnected) {
		return fmt.Errorf("%w: %s takes no data", ErrInvalid, tag)
	}
	*p = out
	return nil
}

// decodeBody rejects a data variant written as a bare tag.
func decodeBody(tag string, body json.RawMessage, v any) error {
	if body == nil {
		return fmt.Errorf("%w: %s requires data", ErrInvalid, tag)
	}
	return json.Unmarshal(body, v)
}

func (i Instruction) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case ReadSensor, ReadSensorConfig:
		return json.Marshal(i.Kind.String())
	case WriteSensorConfig:
		if i.Config == nil {
			return nil, fmt.Errorf("%w: writeSensorConfig without config", ErrInvalid)
		}
		return tagged(i.Kind.String(), i.Config)
	}
	return nil, fmt.Errorf("%w: instruction kind %d", ErrInvalid, uint8(i.Kind))
}

func (i *Instruction) UnmarshalJSON(data []byte) error {
	tag, body, err := untag(data)
	if err != nil {
		return err
	}
	var out Instruction
	switch tag {
	case "readSensor":
		out.Kind = ReadSensor
	case "readSensorConfig":
		out.Kind = ReadSensorConfig
	case "writeSensorConfig":
		out.Kind = WriteSensorConfig
		out.Config = new(SensorConfig)
		if err := decodeBody(tag, body, out.Config); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: instruction %q", ErrUnknownVariant, tag)
	}
	if body != nil && out.Kind != WriteSensorConfig {
		return fmt.Errorf("%w: %s takes no data", ErrInvalid, tag)
	}
	*i = out
	return nil
}

func (d SensorData) MarshalJSON() ([]byte, error) {
	if d.Camera == nil {
		return nil, fmt.Errorf("%w: empty sensor data", ErrInvalid)
	}
	return tagged("camera", d.Camera)
}

func (d *SensorData) UnmarshalJSON(data []byte) error {
	tag, body, err := untag(data)
	if err != nil {
		return err
	}
	if tag != "camera" {
		return fmt.Errorf("%w: sensor data %q", ErrUnknownVariant, tag)
	}
	var cd struct {
		FrameBuffer *Bytes `json:"frame_buffer"`
	}
	if err := decodeBody(tag, body, &cd); err != nil {
		return err
	}
	if cd.FrameBuffer == nil {
		return fmt.Errorf("%w: frame_buffer", ErrMissingField)
	}
	d.Camera = &CameraData{FrameBuffer: *cd.FrameBuffer}
	return nil
}

func (c SensorConfig) MarshalJSON() ([]byte, error) {
	if c.Camera == nil {
		return nil, fmt.Errorf("%w: empty sensor config", ErrInvalid)
	}
	return tagged("camera", c.Camera)
}

func (c *SensorConfig) UnmarshalJSON(data []byte) error {
	tag, body, err := untag(data)
	if err != nil {
		return err
	}
	if tag != "camera" {
		return fmt.Errorf("%w: sensor config %q", ErrUnknownVariant, tag)
	}
	cfg := new(CameraSensorConfig)
	if err := decodeBody(tag, body, cfg); err != nil {
		return err
	}
	c.Camera = cfg
	return nil
}

var cameraConfigKeys = []string{
	"brightness", "contrast", "saturation", "sharpness", "deNoise",
	"specialEffect", "wbMode", "awb", "awbGain", "gainCeiling",
	"lensCorrection", "horizontalMirror", "verticalFlip",
}

// UnmarshalJSON requires all fields. Numbers outside the field width are
// rejected by encoding/json.
func (c *CameraSensorConfig) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	for _, k := range cameraConfigKeys {
		if _, ok := keys[k]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, k)
		}
	}
	type plain CameraSensorConfig
	return json.Unmarshal(data, (*plain)(c))
}

// Bytes encodes as an array of numbers rather than base64.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+4*len(b))
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = nil
		return nil
	}
	// []uint8 would be read as base64, so go through a wider type.
	var wide []uint16
	if err := json.Unmarshal(data, &wide); err != nil {
		return fmt.Errorf("%w: frame buffer: %v", ErrInvalid, err)
	}
	nums := make([]uint8, len(wide))
	for i, v := range wide {
		if v > 0xFF {
			return fmt.Errorf("%w: frame buffer byte %d out of range", ErrInvalid, v)
		}
		nums[i] = uint8(v)
	}
	*b = nums
	return nil
}
