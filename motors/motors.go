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

// Package motors implements the multicopter motor output stage: the
// per-tick pipeline that turns roll/pitch/yaw/thrust demands plus
// arming and interlock state into per-motor actuator values and PWM
// output. It owns the spool state machine, thrust linearisation with
// battery compensation, throttle filtering, current limiting, actuator
// slew limiting and hover throttle learning. Frame geometry lives
// behind the Mixer interface; hardware behind srv.Driver.
package motors

// MaxNumMotors is the size of the fixed per-motor arrays
const MaxNumMotors = 12

// SpoolState is the current state of the motor spool state machine
type SpoolState uint8

// All the states of the spool state machine
const (
	SpoolShutDown SpoolState = iota
	SpoolGroundIdle
	SpoolSpoolingUp
	SpoolThrottleUnlimited
	SpoolSpoolingDown
)

func (s SpoolState) String() string {
	switch s {
	case SpoolShutDown:
		return "SHUT_DOWN"
	case SpoolGroundIdle:
		return "GROUND_IDLE"
	case SpoolSpoolingUp:
		return "SPOOLING_UP"
	case SpoolThrottleUnlimited:
		return "THROTTLE_UNLIMITED"
	case SpoolSpoolingDown:
		return "SPOOLING_DOWN"
	}
	return "UNSUPPORTED"
}

// DesiredSpoolState is the externally requested spool target
type DesiredSpoolState uint8

// Valid desired spool states
const (
	DesiredShutDown DesiredSpoolState = iota
	DesiredGroundIdle
	DesiredThrottleUnlimited
)

func (s DesiredSpoolState) String() string {
	switch s {
	case DesiredShutDown:
		return "SHUT_DOWN"
	case DesiredGroundIdle:
		return "GROUND_IDLE"
	case DesiredThrottleUnlimited:
		return "THROTTLE_UNLIMITED"
	}
	return "UNSUPPORTED"
}

// Limit carries the axis saturation flags for one tick. Flags are only
// ever set within a tick, never cleared, so downstream controllers can
// freeze their integrators on the saturated axes.
type Limit struct {
	Roll          bool
	Pitch         bool
	Yaw           bool
	ThrottleLower bool
	ThrottleUpper bool
}

// SetAll sets every flag to b
func (l *Limit) SetAll(b bool) {
	l.Roll = b
	l.Pitch = b
	l.Yaw = b
	l.ThrottleLower = b
	l.ThrottleUpper = b
}

// Or merges flags from o
func (l *Limit) Or(o Limit) {
	l.Roll = l.Roll || o.Roll
	l.Pitch = l.Pitch || o.Pitch
	l.Yaw = l.Yaw || o.Yaw
	l.ThrottleLower = l.ThrottleLower || o.ThrottleLower
	l.ThrottleUpper = l.ThrottleUpper || o.ThrottleUpper
}

// MotBatt flag bits
const (
	MotBattFlagThrustBoost    = 1 << 0
	MotBattFlagThrustBalanced = 1 << 1
)

// MotBatt is the periodic motor/battery telemetry record
type MotBatt struct {
	TimeUS       uint64
	LiftMax      float64
	BatVolt      float64
	ThLimit      float64
	ThAverageMax float64
	ThOut        float64
	Flags        uint8
}

// Telemetry consumes MotBatt records, typically at 10Hz
type Telemetry interface {
	WriteMotBatt(MotBatt)
}

// Params is the persistent parameter store seam used for hover
// throttle saving and the PWM_MIN/MAX migration
type Params interface {
	Configured(name string) bool
	SetFloat(name string, v float64)
	Save() error
}

// Parameter names used with the Params store
const (
	ParamThrottleHover = "MOT_THST_HOVER"
	ParamPWMMin        = "MOT_PWM_MIN"
	ParamPWMMax        = "MOT_PWM_MAX"
)

// Mixer is the frame-specific seam. It converts the filtered pilot
// demands into per-motor thrust fractions via SetMotorThrust and sets
// whatever Limit flags it saturates. Resolved once at construction.
type Mixer interface {
	// OutputArmedStabilizing mixes demands into per-motor thrusts
	OutputArmedStabilizing(m *Multicopter)
	// ThrustCompensation applies any frame specific thrust correction
	ThrustCompensation(m *Multicopter)
	// RollFactor returns the roll contribution factor of a motor
	RollFactor(motor int) float64
	// MotorMask returns the bitmask of outputs used as motors
	MotorMask() uint32
}

func constrain(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
