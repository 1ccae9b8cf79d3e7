package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genmon-tools/ha-bridge/discovery"
)

var (
	messagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genmon_bridge",
		Subsystem: "mqtt",
		Name:      "messages_total",
		Help:      "Inbound genmon messages by processing result.",
	}, []string{"result"})

	entitiesRegistered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genmon_bridge",
		Subsystem: "discovery",
		Name:      "entities_registered_total",
		Help:      "Discovery descriptors published, by component.",
	}, []string{"component"})

	metadataUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genmon_bridge",
		Subsystem: "discovery",
		Name:      "device_metadata_updates_total",
		Help:      "Updates to the shared device block, by field.",
	}, []string{"field"})
)

// newMetricsHandler builds the /metrics endpoint on a dedicated registry.
func newMetricsHandler() http.Handler {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollections(collectors.GoRuntimeMemStatsCollection | collectors.GoRuntimeMetricsCollection),
	))

	reg.MustRegister(messagesTotal)
	reg.MustRegister(entitiesRegistered)
	reg.MustRegister(metadataUpdates)

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func recordEvent(ev discovery.Event) {
	messagesTotal.With(prometheus.Labels{"result": string(ev.Result)}).Inc()

	if ev.Result == discovery.ResultRegistered {
		entitiesRegistered.With(prometheus.Labels{"component": string(ev.Component)}).Inc()
	}
	if ev.MetadataField != "" {
		metadataUpdates.With(prometheus.Labels{"field": ev.MetadataField}).Inc()
	}
}
