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

package batt

import (
	"fmt"

	"github.com/Knetic/govaluate"
	"github.com/eclesh/welford"
)

// SimHelp is a help message used by flags in main
const SimHelp = `The -sagformula expression is evaluated with govaluate,
see https://github.com/Knetic/govaluate/blob/master/MANUAL.md
supported variables:
  v0 (resting pack voltage, V)
  i (current draw, A)
  r (internal resistance, Ohm)
  t (seconds since simulation start)`

// SimDefaultFormula is the default sag model: plain IR drop
const SimDefaultFormula = "v0 - i * r"

// Simulator is a Monitor backed by a configurable sag formula.
// The load current is pushed in by the simulation loop; voltage is
// whatever the formula evaluates to.
type Simulator struct {
	RestingVoltage float64
	Ohms           float64

	formula *govaluate.EvaluableExpression
	amps    float64
	seconds float64
	volts   float64
	stats   *welford.Stats
}

// NewSimulator builds a Simulator from a sag formula
func NewSimulator(restingVoltage, resistanceOhms float64, formula string) (*Simulator, error) {
	if formula == "" {
		formula = SimDefaultFormula
	}
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return nil, fmt.Errorf("evaluating sag formula: %w", err)
	}
	s := &Simulator{
		RestingVoltage: restingVoltage,
		Ohms:           resistanceOhms,
		formula:        expr,
		stats:          welford.New(),
	}
	s.volts = restingVoltage
	return s, nil
}

// Step advances the simulation: sets the load current and re-evaluates
// the sag formula
func (s *Simulator) Step(amps, dt float64) error {
	s.amps = amps
	s.seconds += dt
	result, err := s.formula.Evaluate(map[string]any{
		"v0": s.RestingVoltage,
		"i":  amps,
		"r":  s.Ohms,
		"t":  s.seconds,
	})
	if err != nil {
		return fmt.Errorf("evaluating sag formula: %w", err)
	}
	v, ok := result.(float64)
	if !ok {
		return fmt.Errorf("sag formula did not produce a number: %v", result)
	}
	s.volts = v
	s.stats.Add(v)
	return nil
}

// Voltage implements Monitor
func (s *Simulator) Voltage(idx int) float64 { return s.volts }

// CurrentAmps implements Monitor
func (s *Simulator) CurrentAmps(idx int) (float64, bool) { return s.amps, true }

// Resistance implements Monitor
func (s *Simulator) Resistance(idx int) float64 { return s.Ohms }

// VoltageStats returns mean and standard deviation of the simulated
// voltage over the run so far
func (s *Simulator) VoltageStats() (mean, stddev float64) {
	return s.stats.Mean(), s.stats.Stddev()
}
