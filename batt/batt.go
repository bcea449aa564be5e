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

// Package batt provides the battery telemetry consumed by the motor
// output stage for voltage compensation and current limiting.
package batt

// Monitor reports battery telemetry for one or more battery instances.
// Implementations must be safe for repeated calls at the control rate.
type Monitor interface {
	// Voltage returns battery voltage in volts, 0 if not available
	Voltage(idx int) float64
	// CurrentAmps returns battery current in amps and whether current
	// monitoring is available
	CurrentAmps(idx int) (float64, bool)
	// Resistance returns estimated battery internal resistance in ohms
	Resistance(idx int) float64
}

// Static is a fixed-value Monitor used in tests
type Static struct {
	Volts      float64
	Amps       float64
	HasCurrent bool
	Ohms       float64
}

// Voltage implements Monitor
func (s *Static) Voltage(idx int) float64 { return s.Volts }

// CurrentAmps implements Monitor
func (s *Static) CurrentAmps(idx int) (float64, bool) { return s.Amps, s.HasCurrent }

// Resistance implements Monitor
func (s *Static) Resistance(idx int) float64 { return s.Ohms }
