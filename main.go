package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/genmon-tools/ha-bridge/discovery"
)

const version = "1.0.0"

func mainImpl() error {
	configPath := flag.String("config", "bridge.yaml", "path to config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	logger.Info("starting", "version", version, "genmon_topic", cfg.Bridge.GenmonTopic)

	device := discovery.NewDeviceInfo(cfg.Device.ID, cfg.Device.Name, cfg.Device.Manufacturer, cfg.Device.Model)
	origin := discovery.OriginInfo{
		Name:       cfg.Origin.Name,
		SWVersion:  cfg.Origin.SWVersion,
		SupportURL: cfg.Origin.SupportURL,
	}

	events := newEventStream(logger)
	listener := NewMQTTListener(&cfg.MQTT, cfg.Bridge.GenmonTopic, events, logger)
	registry := discovery.NewRegistry(cfg.Bridge.DiscoveryPrefix, cfg.GenmonPrefix(), device, origin, listener, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", newMetricsHandler())
	mux.Handle("/ws", events)
	go func() {
		if err := http.ListenAndServe(cfg.Bridge.Listen, mux); err != nil {
			logger.Error("http server stopped", "error", err)
		}
	}()

	listener.Start(registry)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	listener.Stop()
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "genmon-ha-bridge: %s.\n", err)
		os.Exit(1)
	}
}
