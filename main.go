package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"flock-camera-sensor/camera"
	"flock-camera-sensor/config"
	"flock-camera-sensor/diag"
	"flock-camera-sensor/dispatch"
	"flock-camera-sensor/gocvcam"
	"flock-camera-sensor/logging"
	"flock-camera-sensor/mqttlink"
	"flock-camera-sensor/pipeline"
	"flock-camera-sensor/simcam"
	"flock-camera-sensor/wslink"
)

type transport interface {
	pipeline.Inbound
	pipeline.Outbound
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.LogLevel, cfg.Env)
	mqttlink.BridgeLogs(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("node stopped", "error", err, "code", camera.CodeOf(err))
		os.Exit(1)
	}
	log.Info("node stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	link, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Warn("closing transport", "error", err)
		}
	}()

	profile := camera.DefaultProfile()
	rt, err := pipeline.New(pipeline.Options{
		Identity:   cfg.Identity(),
		Controller: cfg.ControllerTopic,
		Driver:     newDriver(cfg),
		Camera:     camera.DefaultConfig(),
		Profile:    &profile,
		Handler:    dispatch.HandleEvent,
		Inbound:    link,
		Outbound:   link,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	if cfg.DiagAddr != "" {
		go func() {
			if err := diag.Serve(ctx, cfg.DiagAddr, rt, log.With("component", "diag")); err != nil {
				log.Warn("diagnostics server failed", "error", err)
			}
		}()
	}

	log.Info("starting node", "identity", cfg.Identity(), "controller", cfg.ControllerTopic, "transport", cfg.Transport)
	return rt.Run(ctx)
}

func newDriver(cfg config.Config) camera.Driver {
	if cfg.CameraDriver == config.DriverSim {
		return simcam.New()
	}
	return gocvcam.New(cfg.CameraDevice)
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (transport, error) {
	switch cfg.Transport {
	case config.TransportWS:
		wc := wslink.DefaultConfig()
		wc.URL = cfg.WebSocketURL
		wc.ClientID = cfg.Identity()
		return wslink.New(wc, log.With("component", "wslink"))

	case config.TransportMQTT:
		broker := cfg.BrokerAddr
		if broker == "" {
			log.Info("no broker configured, discovering over mDNS", "service", mqttlink.BrokerService)
			url, err := mqttlink.DiscoverBroker(cfg.DiscoveryWait, log.With("component", "mdns"))
			if err != nil {
				return nil, err
			}
			broker = url
		}
		mc := mqttlink.DefaultConfig()
		mc.Broker = broker
		mc.ClientID = cfg.Identity()
		return mqttlink.Dial(ctx, mc, log.With("component", "mqttlink"))
	}
	return nil, errors.New("unknown transport " + cfg.Transport)
}
