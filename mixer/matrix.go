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

// Package mixer provides frame geometry implementations of the
// motors.Mixer contract. Matrix covers the symmetric multirotor
// frames; other frame types plug in the same way.
package mixer

import (
	"math"

	"github.com/facebook/rotor/motors"
)

// Motor is one rotor position in a matrix frame
type Motor struct {
	RollFactor  float64
	PitchFactor float64
	YawFactor   float64
}

// Matrix mixes roll/pitch/yaw/throttle demands over a set of motors
// placed by their roll/pitch/yaw factors
type Matrix struct {
	motorDefs []Motor

	// scratch thrusts, fixed size to keep the output path free of
	// allocation
	thrust [motors.MaxNumMotors]float64
}

// NewMatrix builds a mixer from explicit motor factors
func NewMatrix(motorDefs []Motor) *Matrix {
	return &Matrix{motorDefs: motorDefs}
}

// NewQuadX returns the standard X quad layout: motors at 45 degrees
// off the body axes, alternating rotation directions
func NewQuadX() *Matrix {
	f := math.Sqrt2 / 2
	return NewMatrix([]Motor{
		{RollFactor: -f, PitchFactor: f, YawFactor: 1},  // front right, CCW
		{RollFactor: f, PitchFactor: -f, YawFactor: 1},  // rear left, CCW
		{RollFactor: f, PitchFactor: f, YawFactor: -1},  // front left, CW
		{RollFactor: -f, PitchFactor: -f, YawFactor: -1}, // rear right, CW
	})
}

// MotorMask implements motors.Mixer
func (x *Matrix) MotorMask() uint32 {
	var mask uint32
	for i := range x.motorDefs {
		mask |= 1 << uint(i)
	}
	return mask
}

// RollFactor implements motors.Mixer
func (x *Matrix) RollFactor(motor int) float64 {
	if motor < 0 || motor >= len(x.motorDefs) {
		return 0
	}
	return x.motorDefs[motor].RollFactor
}

// ThrustCompensation implements motors.Mixer; matrix frames need none
func (x *Matrix) ThrustCompensation(m *motors.Multicopter) {}

// OutputArmedStabilizing mixes the filtered demands into per-motor
// thrusts. Throttle is capped by the spool ceiling; yaw is granted at
// least the configured headroom; the mix is shifted, then clipped,
// to stay within 0..ceiling, setting the limit flags it saturates.
func (x *Matrix) OutputArmedStabilizing(m *motors.Multicopter) {
	ceiling := m.ThrottleThrustMax()
	throttle := m.Throttle()
	if throttle > ceiling {
		throttle = ceiling
		m.Limit.ThrottleUpper = true
	}
	if throttle <= 0 {
		throttle = 0
		m.Limit.ThrottleLower = true
	}

	roll, pitch, yaw := m.RollIn(), m.PitchIn(), m.YawIn()

	// grant yaw at least its headroom of authority, but no more than
	// the frame can mix without starving roll and pitch
	yawAllowed := math.Max(m.YawHeadroom(), 1.0-(math.Abs(roll)+math.Abs(pitch)))
	if math.Abs(yaw) > yawAllowed {
		yaw = math.Copysign(yawAllowed, yaw)
		m.Limit.Yaw = true
	}

	n := len(x.motorDefs)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, def := range x.motorDefs {
		t := throttle + roll*def.RollFactor + pitch*def.PitchFactor + yaw*def.YawFactor
		x.thrust[i] = t
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}

	// shift the whole mix up if any motor went below zero
	if lo < 0 {
		for i := 0; i < n; i++ {
			x.thrust[i] -= lo
		}
		hi -= lo
		m.Limit.ThrottleLower = true
	}
	// clip at the ceiling, giving up attitude authority
	if hi > ceiling {
		for i := 0; i < n; i++ {
			if x.thrust[i] > ceiling {
				x.thrust[i] = ceiling
			}
		}
		m.Limit.Roll = true
		m.Limit.Pitch = true
		m.Limit.ThrottleUpper = true
	}

	for i := 0; i < n; i++ {
		m.SetMotorThrust(i, x.thrust[i])
	}
	m.SetThrottleOut(throttle)
	m.SetThrottleAvgMax(ceiling)
}
