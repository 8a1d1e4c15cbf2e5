package mqttlink

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func TestBridgeLogsTagsComponentOnce(t *testing.T) {
	critical, errLog, warn, debug := mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN, mqtt.DEBUG
	t.Cleanup(func() {
		mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN, mqtt.DEBUG = critical, errLog, warn, debug
	})

	var buf bytes.Buffer
	BridgeLogs(slog.New(slog.NewJSONHandler(&buf, nil)))
	mqtt.ERROR.Println("connection refused")

	line := buf.String()
	if n := strings.Count(line, `"component"`); n != 1 {
		t.Fatalf("component attribute appears %d times in %s", n, line)
	}
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q", line)
	}
	if rec["component"] != "paho" || rec["level"] != "ERROR" || !strings.Contains(rec["msg"].(string), "connection refused") {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestBridgeLogsSkipsDebugByDefault(t *testing.T) {
	debug := mqtt.DEBUG
	critical, errLog, warn := mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN
	t.Cleanup(func() {
		mqtt.CRITICAL, mqtt.ERROR, mqtt.WARN, mqtt.DEBUG = critical, errLog, warn, debug
	})

	var buf bytes.Buffer
	BridgeLogs(slog.New(slog.NewJSONHandler(&buf, nil)))
	mqtt.DEBUG.Println("ping")
	if buf.Len() != 0 {
		t.Errorf("debug output leaked: %s", buf.String())
	}
}
