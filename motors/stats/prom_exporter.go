/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stats

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/rotor/motors"
)

// PrometheusExporter publishes MotBatt telemetry as prometheus gauges
type PrometheusExporter struct {
	registry   *prometheus.Registry
	listenPort int

	liftMax      prometheus.Gauge
	batVolt      prometheus.Gauge
	thLimit      prometheus.Gauge
	thAverageMax prometheus.Gauge
	thOut        prometheus.Gauge
	thrustBoost  prometheus.Gauge
	records      prometheus.Counter
}

// NewPrometheusExporter creates a new instance of PrometheusExporter
func NewPrometheusExporter(listenPort int) *PrometheusExporter {
	e := &PrometheusExporter{
		registry:   prometheus.NewRegistry(),
		listenPort: listenPort,
	}
	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "rotor", Name: name, Help: help})
		e.registry.MustRegister(g)
		return g
	}
	e.liftMax = gauge("lift_max", "voltage derived thrust scale")
	e.batVolt = gauge("bat_volt", "filtered battery voltage")
	e.thLimit = gauge("th_limit", "current limiter throttle limit")
	e.thAverageMax = gauge("th_average_max", "average throttle ceiling")
	e.thOut = gauge("th_out", "mixed throttle output")
	e.thrustBoost = gauge("thrust_boost", "thrust boost active")
	e.records = prometheus.NewCounter(prometheus.CounterOpts{Namespace: "rotor", Name: "motbatt_records_total", Help: "MotBatt records received"})
	e.registry.MustRegister(e.records)
	return e
}

// WriteMotBatt implements motors.Telemetry
func (e *PrometheusExporter) WriteMotBatt(rec motors.MotBatt) {
	e.liftMax.Set(rec.LiftMax)
	e.batVolt.Set(rec.BatVolt)
	e.thLimit.Set(rec.ThLimit)
	e.thAverageMax.Set(rec.ThAverageMax)
	e.thOut.Set(rec.ThOut)
	if rec.Flags&motors.MotBattFlagThrustBoost != 0 {
		e.thrustBoost.Set(1)
	} else {
		e.thrustBoost.Set(0)
	}
	e.records.Inc()
}

// Start starts the exporter
func (e *PrometheusExporter) Start() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		e.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", e.listenPort), mux))
}
