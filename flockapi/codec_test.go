package flockapi

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeUnitPayload(t *testing.T) {
	msg := Message{OriginID: "flock-client-7", Destination: "flock/controller", Payload: Connected()}
	b, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"clientId":"flock-client-7","recipient":"flock/controller","payload":"connected"}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestEncodeReading(t *testing.T) {
	msg := Message{OriginID: "n", Destination: "c", Payload: Reading([]byte{255, 216, 0})}
	b, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"clientId":"n","recipient":"c","payload":{"sensorReading":{"camera":{"frame_buffer":[255,216,0]}}}}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestEncodeError(t *testing.T) {
	b, err := Encode(Message{OriginID: "n", Destination: "c", Payload: ErrorText("hardware_fault: set_gain_ceiling")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"payload":{"error":"hardware_fault: set_gain_ceiling"}`) {
		t.Errorf("unexpected encoding %s", b)
	}
}

func TestEncodeConfig(t *testing.T) {
	cfg := CameraSensorConfig{Brightness: -1, DeNoise: 3, AWB: true, GainCeiling: 6, VerticalFlip: true}
	b, err := Encode(Message{OriginID: "n", Destination: "c", Payload: Config(cfg)})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"clientId":"n","recipient":"c","payload":{"sensorConfig":{"camera":{` +
		`"brightness":-1,"contrast":0,"saturation":0,"sharpness":0,"deNoise":3,` +
		`"specialEffect":0,"wbMode":0,"awb":true,"awbGain":false,"gainCeiling":6,` +
		`"lensCorrection":false,"horizontalMirror":false,"verticalFlip":true}}}}`
	if string(b) != want {
		t.Errorf("got %s\nwant %s", b, want)
	}
}

func TestNewMessageStampsID(t *testing.T) {
	a := NewMessage("n", "c", Connected())
	b := NewMessage("n", "c", Connected())
	if a.MessageID == "" || a.MessageID == b.MessageID {
		t.Errorf("expected distinct ids, got %q and %q", a.MessageID, b.MessageID)
	}
	enc, err := Encode(a)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(enc), `"messageId":"`+a.MessageID+`"`) {
		t.Errorf("message id missing from %s", enc)
	}
}

func TestDecodeInstructions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want InstructionKind
	}{
		{"read sensor", `{"clientId":"ctl","recipient":"n","payload":{"instruction":"readSensor"}}`, ReadSensor},
		{"read config", `{"clientId":"ctl","recipient":"n","payload":{"instruction":"readSensorConfig"}}`, ReadSensorConfig},
		{"write config", `{"clientId":"ctl","recipient":"n","payload":{"instruction":{"writeSensorConfig":{"camera":{` +
			`"brightness":2,"contrast":1,"saturation":0,"sharpness":-2,"deNoise":0,"specialEffect":2,"wbMode":1,` +
			`"awb":true,"awbGain":true,"gainCeiling":3,"lensCorrection":true,"horizontalMirror":false,"verticalFlip":true}}}}}`,
			WriteSensorConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if msg.OriginID != "ctl" || msg.Destination != "n" {
				t.Errorf("envelope = %q -> %q", msg.OriginID, msg.Destination)
			}
			if msg.Payload.Kind != PayloadInstruction || msg.Payload.Instruction == nil {
				t.Fatalf("expected instruction, got %v", msg.Payload)
			}
			if got := msg.Payload.Instruction.Kind; got != tt.want {
				t.Errorf("instruction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeWriteConfigFields(t *testing.T) {
	in := `{"clientId":"ctl","recipient":"n","payload":{"instruction":{"writeSensorConfig":{"camera":{` +
		`"brightness":2,"contrast":1,"saturation":0,"sharpness":-2,"deNoise":0,"specialEffect":2,"wbMode":1,` +
		`"awb":true,"awbGain":true,"gainCeiling":3,"lensCorrection":true,"horizontalMirror":false,"verticalFlip":true}}}}}`
	msg, err := Decode([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	got := *msg.Payload.Instruction.Config.Camera
	want := CameraSensorConfig{
		Brightness: 2, Contrast: 1, Sharpness: -2, SpecialEffect: 2, WBMode: 1,
		AWB: true, AWBGain: true, GainCeiling: 3, LensCorrection: true, VerticalFlip: true,
	}
	if got != want {
		t.Errorf("got %+v\nwant %+v", got, want)
	}
}

func TestDecodeReading(t *testing.T) {
	msg, err := Decode([]byte(`{"clientId":"n","recipient":"c","payload":{"sensorReading":{"camera":{"frame_buffer":[1,2,255]}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	fb := msg.Payload.SensorReading.Camera.FrameBuffer
	if len(fb) != 3 || fb[2] != 255 {
		t.Errorf("frame buffer = %v", fb)
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing payload", `{"clientId":"a","recipient":"b"}`, ErrMissingField},
		{"missing recipient", `{"clientId":"a","payload":"connected"}`, ErrMissingField},
		{"unknown payload", `{"clientId":"a","recipient":"b","payload":"reboot"}`, ErrUnknownVariant},
		{"unknown instruction", `{"clientId":"a","recipient":"b","payload":{"instruction":"format"}}`, ErrUnknownVariant},
		{"two tags", `{"clientId":"a","recipient":"b","payload":{"error":"x","connected":null}}`, ErrInvalid},
		{"write without config", `{"clientId":"a","recipient":"b","payload":{"instruction":"writeSensorConfig"}}`, ErrInvalid},
		{"missing config field", `{"clientId":"a","recipient":"b","payload":{"instruction":{"writeSensorConfig":{"camera":{"brightness":1}}}}}`, ErrMissingField},
		{"byte out of range", `{"clientId":"a","recipient":"b","payload":{"sensorReading":{"camera":{"frame_buffer":[256]}}}}`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := Decode([]byte(`{"clientId":"a","recipient":"b","payload":{"instruction":{"writeSensorConfig":{"camera":{` +
		`"brightness":300,"contrast":0,"saturation":0,"sharpness":0,"deNoise":0,"specialEffect":0,"wbMode":0,` +
		`"awb":true,"awbGain":true,"gainCeiling":0,"lensCorrection":true,"horizontalMirror":false,"verticalFlip":false}}}}}`)); err == nil {
		t.Fatal("expected brightness overflow to be rejected")
	}
}

func TestEncodeRejectsEmptyPayload(t *testing.T) {
	if _, err := Encode(Message{OriginID: "a", Destination: "b"}); err == nil {
		t.Fatal("expected zero payload to fail")
	}
}
