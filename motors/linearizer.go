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

package motors

import (
	"math"

	"github.com/facebook/rotor/batt"
)

// battery voltage filter time constant, seconds
const battVoltageFiltTC = 0.32

// ThrustLinearizer maps commanded thrust fractions to ESC actuator
// fractions. It models the ESC+prop nonlinearity with a two term
// expo curve and scales commanded thrust by the voltage derived
// lift_max so a sagging battery still produces the requested thrust.
type ThrustLinearizer struct {
	curveExpo      float64
	spinMin        float64
	spinMax        float64
	battVoltageMin float64
	battVoltageMax float64
	battIdx        int
	useRawVoltage  bool

	voltFilter  LowPass
	voltPrimed  bool
	liftMax     float64
}

// NewThrustLinearizer builds a linearizer from the stage config
func NewThrustLinearizer(cfg *Config) *ThrustLinearizer {
	return &ThrustLinearizer{
		curveExpo:      constrain(cfg.ThrustExpo, -1, 1),
		spinMin:        cfg.SpinMin,
		spinMax:        cfg.SpinMax,
		battVoltageMin: cfg.BattVoltageMin,
		battVoltageMax: cfg.BattVoltageMax,
		battIdx:        cfg.BattIdx,
		useRawVoltage:  cfg.Options&OptionVoltageCompRaw != 0,
		voltFilter:     NewLowPass(battVoltageFiltTC),
		liftMax:        1.0,
	}
}

// UpdateLiftMax filters the battery voltage and recomputes lift_max.
// With compensation disabled, or no battery monitor, lift_max stays 1.
func (l *ThrustLinearizer) UpdateLiftMax(b batt.Monitor, dt float64) {
	if b == nil {
		l.liftMax = 1.0
		return
	}
	v := b.Voltage(l.battIdx)
	if !l.voltPrimed {
		l.voltFilter.Reset(v)
		l.voltPrimed = true
	} else {
		l.voltFilter.Apply(v, dt)
	}
	if l.battVoltageMax <= 0 {
		l.liftMax = 1.0
		return
	}
	used := l.voltFilter.Value()
	if l.useRawVoltage {
		used = v
	}
	used = constrain(used, l.battVoltageMin, l.battVoltageMax)
	l.liftMax = used / l.battVoltageMax
}

// LiftMax returns the current voltage derived thrust scale
func (l *ThrustLinearizer) LiftMax() float64 {
	return l.liftMax
}

// BattVoltageFilt returns the filtered battery voltage
func (l *ThrustLinearizer) BattVoltageFilt() float64 {
	return l.voltFilter.Value()
}

// CompensationGain returns the gain applied to commanded thrust to
// undo battery sag. External telemetry readers use it to remove the
// scaling again.
func (l *ThrustLinearizer) CompensationGain() float64 {
	if l.liftMax <= 0 {
		return 1.0
	}
	return 1.0 / l.liftMax
}

// SpinMin returns the low endpoint of the useful actuator range
func (l *ThrustLinearizer) SpinMin() float64 {
	return l.spinMin
}

// SpinMax returns the high endpoint of the useful actuator range
func (l *ThrustLinearizer) SpinMax() float64 {
	return l.spinMax
}

// applyThrustCurve maps normalized thrust through the two term expo
// curve, domain and range 0..1
func (l *ThrustLinearizer) applyThrustCurve(t float64) float64 {
	return (1.0-l.curveExpo)*t + l.curveExpo*t*t
}

// removeThrustCurve is the numerical inverse of applyThrustCurve
func (l *ThrustLinearizer) removeThrustCurve(a float64) float64 {
	if l.curveExpo == 0 {
		return a
	}
	e := l.curveExpo
	disc := (1.0-e)*(1.0-e) + 4.0*e*a
	if disc < 0 {
		disc = 0
	}
	return ((e - 1.0) + math.Sqrt(disc)) / (2.0 * e)
}

// ThrustToActuator converts a commanded thrust fraction to an
// actuator fraction within [spin_min, spin_max], applying battery
// compensation and the thrust curve
func (l *ThrustLinearizer) ThrustToActuator(thrust float64) float64 {
	t := constrain(thrust*l.CompensationGain(), 0, 1)
	return l.spinMin + l.applyThrustCurve(t)*(l.spinMax-l.spinMin)
}

// ActuatorToThrust converts an actuator fraction back to the
// compensated thrust fraction. Dividing the result by
// CompensationGain recovers the original commanded thrust.
func (l *ThrustLinearizer) ActuatorToThrust(actuator float64) float64 {
	if l.spinMax <= l.spinMin {
		return 0
	}
	a := constrain((actuator-l.spinMin)/(l.spinMax-l.spinMin), 0, 1)
	return constrain(l.removeThrustCurve(a), 0, 1)
}
