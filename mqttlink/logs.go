package mqttlink

import (
	"context"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// BridgeLogs routes paho's package loggers into log. DEBUG is only wired
// when log has debug enabled, paho is very chatty there.
func BridgeLogs(log *slog.Logger) {
	h := log.With("component", "paho").Handler()
	mqtt.CRITICAL = slog.NewLogLogger(h, slog.LevelError)
	mqtt.ERROR = slog.NewLogLogger(h, slog.LevelError)
	mqtt.WARN = slog.NewLogLogger(h, slog.LevelWarn)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		mqtt.DEBUG = slog.NewLogLogger(h, slog.LevelDebug)
	}
}
