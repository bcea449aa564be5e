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

// Package stats exposes motor/battery telemetry for monitoring. The
// output stage pushes MotBatt records; implementations here serve
// them over HTTP as JSON or Prometheus metrics.
package stats

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/rotor/motors"
)

// JSONStats is what we want to report as stats via http
type JSONStats struct {
	mu      sync.Mutex
	last    motors.MotBatt
	records uint64
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	return &JSONStats{}
}

// WriteMotBatt implements motors.Telemetry
func (s *JSONStats) WriteMotBatt(rec motors.MotBatt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = rec
	s.records++
}

// Last returns the most recent record and the total count
func (s *JSONStats) Last() (motors.MotBatt, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.records
}

func (s *JSONStats) toMap() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]float64{
		"time_us":        float64(s.last.TimeUS),
		"lift_max":       s.last.LiftMax,
		"bat_volt":       s.last.BatVolt,
		"th_limit":       s.last.ThLimit,
		"th_average_max": s.last.ThAverageMax,
		"th_out":         s.last.ThOut,
		"flags":          float64(s.last.Flags),
		"records":        float64(s.records),
	}
}

// handleRequest is a handler used for all http monitoring requests
func (s *JSONStats) handleRequest(w http.ResponseWriter, r *http.Request) {
	js, err := json.Marshal(s.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Start runs the http json server
func (s *JSONStats) Start(monitoringport int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringport)
	log.Infof("Starting http json server on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Fatalf("Failed to start listener: %v", err)
	}
}

// Tee fans one telemetry stream out to several sinks
func Tee(sinks ...motors.Telemetry) motors.Telemetry {
	return tee(sinks)
}

type tee []motors.Telemetry

func (t tee) WriteMotBatt(rec motors.MotBatt) {
	for _, s := range t {
		s.WriteMotBatt(rec)
	}
}
