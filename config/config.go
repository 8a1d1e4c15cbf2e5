// Package config reads the node configuration from the environment once at
// startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	TransportMQTT = "mqtt"
	TransportWS   = "ws"

	DriverGoCV = "gocv"
	DriverSim  = "sim"
)

// Config is built once in main and passed down. Nothing reads the
// environment after Load.
type Config struct {
	// ClientID is the per-node suffix; see Identity.
	ClientID        string
	// ControllerTopic is where every response goes.
	ControllerTopic string

	Transport     string
	// BrokerAddr is the MQTT broker URL. Empty means discover it over mDNS.
	BrokerAddr    string
	DiscoveryWait time.Duration
	WebSocketURL  string
	CameraDriver  string
	CameraDevice  int
	DiagAddr      string
	LogLevel      string
	Env           string
}

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads through getenv so tests can supply their own environment.
func LoadFrom(getenv func(string) string) (Config, error) {
	c := Config{
		ClientID:        getenv("FLOCK_CLIENT_ID"),
		ControllerTopic: getenv("FLOCK_CONTROLLER_TOPIC"),
		Transport:       withDefault(getenv("FLOCK_TRANSPORT"), TransportMQTT),
		BrokerAddr:      getenv("FLOCK_MQTT_BROKER_ADDR"),
		DiscoveryWait:   5 * time.Second,
		WebSocketURL:    getenv("FLOCK_WS_URL"),
		CameraDriver:    withDefault(getenv("FLOCK_CAMERA_DRIVER"), DriverGoCV),
		DiagAddr:        getenv("FLOCK_DIAG_ADDR"),
		LogLevel:        withDefault(getenv("LOG_LEVEL"), "INFO"),
		Env:             getenv("GO_ENV"),
	}
	if s := getenv("FLOCK_CAMERA_DEVICE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("FLOCK_CAMERA_DEVICE: %w", err)
		}
		c.CameraDevice = n
	}
	if s := getenv("FLOCK_DISCOVERY_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("FLOCK_DISCOVERY_TIMEOUT: %w", err)
		}
		c.DiscoveryWait = d
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("FLOCK_CLIENT_ID is required")
	}
	if c.ControllerTopic == "" {
		return fmt.Errorf("FLOCK_CONTROLLER_TOPIC is required")
	}
	switch c.Transport {
	case TransportMQTT:
	case TransportWS:
		if c.WebSocketURL == "" {
			return fmt.Errorf("FLOCK_WS_URL is required for the ws transport")
		}
	default:
		return fmt.Errorf("FLOCK_TRANSPORT must be '%s' or '%s', got '%s'", TransportMQTT, TransportWS, c.Transport)
	}
	if c.CameraDriver != DriverGoCV && c.CameraDriver != DriverSim {
		return fmt.Errorf("FLOCK_CAMERA_DRIVER must be '%s' or '%s', got '%s'", DriverGoCV, DriverSim, c.CameraDriver)
	}
	if c.CameraDevice < 0 {
		return fmt.Errorf("FLOCK_CAMERA_DEVICE must not be negative, got %d", c.CameraDevice)
	}
	return nil
}

// Identity is the node's client id on the transport and the origin of every
// message it sends.
func (c Config) Identity() string {
	return "flock-client-" + c.ClientID
}
