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
	"fmt"

	"github.com/facebook/rotor/batt"
	"github.com/facebook/rotor/clock"
	"github.com/facebook/rotor/srv"
)

// Deps bundles the external collaborators of the output stage.
// Mixer, Output and Clock are required; Battery, Params and Telemetry
// may be nil and degrade gracefully.
type Deps struct {
	Mixer     Mixer
	Battery   batt.Monitor
	Output    srv.Driver
	Clock     clock.Clock
	Params    Params
	Telemetry Telemetry
}

// Multicopter is the motor output stage. Output must be called at the
// control rate; all other methods are scheduler callbacks or state
// inputs. Not safe for concurrent use: the flight scheduler is the
// single caller.
type Multicopter struct {
	cfg     Config
	mixer   Mixer
	battery batt.Monitor
	out     srv.Driver
	clk     clock.Clock
	params  Params
	telem   Telemetry

	dt float64

	armed        bool
	interlock    bool
	spoolUpBlock bool

	throttleIn                   float64
	rollIn, pitchIn, yawIn       float64
	rollInFF, pitchInFF, yawInFF float64

	throttleFilter   LowPass
	throttleSlew     SlewCalculator
	slewRateFilter   LowPass
	throttleSlewRate float64

	thrLin  *ThrustLinearizer
	limiter *CurrentLimiter

	spoolDesired      DesiredSpoolState
	spoolState        SpoolState
	spinUpRatio       float64
	throttleThrustMax float64
	disarmSafeTimer   float64

	thrustBoost      bool
	thrustBalanced   bool
	thrustBoostRatio float64

	throttleOut    float64
	throttleAvgMax float64

	// Limit carries this tick's saturation flags. The mixer sets the
	// flags it saturates; they are only ORed within a tick.
	Limit          Limit
	externalLimits Limit

	motorEnabled      [MaxNumMotors]bool
	thrustOut         [MaxNumMotors]float64
	actuator          [MaxNumMotors]float64
	motorMaskOverride uint32
}

// slew rate telemetry filter time constant, seconds
const throttleSlewRateFiltTC = 0.08

// New builds the output stage. dt is the nominal control period in
// seconds.
func New(cfg Config, deps Deps, dt float64) (*Multicopter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Mixer == nil {
		return nil, fmt.Errorf("bad deps: frame mixer is required")
	}
	if deps.Output == nil {
		return nil, fmt.Errorf("bad deps: output driver is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("bad deps: clock is required")
	}
	if dt <= 0 {
		return nil, fmt.Errorf("bad deps: control period must be positive")
	}
	m := &Multicopter{
		cfg:            cfg,
		mixer:          deps.Mixer,
		battery:        deps.Battery,
		out:            deps.Output,
		clk:            deps.Clock,
		params:         deps.Params,
		telem:          deps.Telemetry,
		dt:             dt,
		throttleFilter: NewLowPass(cfg.ThrottleFilterTC),
		slewRateFilter: NewLowPass(throttleSlewRateFiltTC),
		thrLin:         NewThrustLinearizer(&cfg),
		limiter:        NewCurrentLimiter(&cfg),
	}
	mask := deps.Mixer.MotorMask()
	for i := 0; i < MaxNumMotors; i++ {
		m.motorEnabled[i] = mask&(1<<uint(i)) != 0
	}
	return m, nil
}

// Output runs one control tick: filter, compensate, spool, mix, slew
// and write PWM. The stage ordering is fixed; state from each step is
// visible to the next.
func (m *Multicopter) Output() {
	m.updateThrottleFilter()
	m.thrLin.UpdateLiftMax(m.battery, m.dt)
	m.outputLogic()
	m.mixer.OutputArmedStabilizing(m)
	m.mixer.ThrustCompensation(m)
	m.outputToMotors()
	m.outputBoostThrottle()
	m.outputRPYT()
	m.Limit.Or(m.externalLimits)
	m.motorMaskOverride = 0
}

// OutputMin forces the spool state machine to shut down and sends
// minimum values to the motors
func (m *Multicopter) OutputMin() {
	m.SetDesiredSpoolState(DesiredShutDown)
	m.spoolState = SpoolShutDown
	m.Output()
}

// updateThrottleFilter advances the pilot throttle low pass and the
// slew rate telemetry. Disarmed, the filter output is pinned to zero.
func (m *Multicopter) updateThrottleFilter() {
	last := m.throttleFilter.Value()

	if m.armed {
		m.throttleFilter.Apply(m.throttleIn, m.dt)
		// reset to the bound rather than saturating
		if m.throttleFilter.Value() < 0 {
			m.throttleFilter.Reset(0)
		}
		if m.throttleFilter.Value() > 1 {
			m.throttleFilter.Reset(1)
		}
	} else {
		m.throttleFilter.Reset(0)
	}

	if now := m.throttleFilter.Value(); now != last {
		m.throttleSlew.Update(now, m.clk.Micros())
	}
	m.throttleSlewRate = m.slewRateFilter.Apply(m.throttleSlew.SlewRate(), m.dt)
}

// outputToMotors converts the mixed per-motor thrusts into actuator
// values and PWM writes. Motors claimed by OutputMotorMask this tick
// are skipped.
func (m *Multicopter) outputToMotors() {
	for i := 0; i < MaxNumMotors; i++ {
		if !m.motorEnabled[i] || m.motorMaskOverride&(1<<uint(i)) != 0 {
			continue
		}
		switch m.spoolState {
		case SpoolShutDown:
			// no slew in shutdown so disarm stops motors immediately
			m.actuator[i] = 0
		case SpoolGroundIdle:
			m.setActuatorWithSlew(i, m.actuatorSpinUpToGroundIdle())
		default:
			m.setActuatorWithSlew(i, m.thrLin.ThrustToActuator(m.thrustOut[i]))
		}
		m.out.RCWrite(i, m.outputToPWM(m.actuator[i]))
	}
}

// setActuatorWithSlew applies the per-motor rising and falling slew
// limits. A zero slew time leaves that direction unlimited.
func (m *Multicopter) setActuatorWithSlew(i int, input float64) {
	up := 1.0
	dn := 0.0
	if m.cfg.SlewUpTime > 0 {
		deltaUp := m.dt / constrain(m.cfg.SlewUpTime, 0, 0.5)
		up = constrain(m.actuator[i]+deltaUp, 0, 1)
	}
	if m.cfg.SlewDnTime > 0 {
		deltaDn := m.dt / constrain(m.cfg.SlewDnTime, 0, 0.5)
		dn = constrain(m.actuator[i]-deltaDn, 0, 1)
	}
	m.actuator[i] = constrain(input, dn, up)
}

// actuatorSpinUpToGroundIdle ramps the idle actuator with the spool
// ratio
func (m *Multicopter) actuatorSpinUpToGroundIdle() float64 {
	return constrain(m.spinUpRatio, 0, 1) * m.cfg.SpinMin
}

// outputToPWM converts an actuator fraction to PWM microseconds
func (m *Multicopter) outputToPWM(actuator float64) int {
	if m.spoolState == SpoolShutDown {
		if m.cfg.DisarmDisablePWM && !m.armed {
			return 0
		}
		return m.cfg.PWMMin
	}
	return m.cfg.PWMMin + int(float64(m.cfg.PWMMax-m.cfg.PWMMin)*actuator)
}

// outputBoostThrottle drives the booster motor channel from the main
// throttle
func (m *Multicopter) outputBoostThrottle() {
	if m.cfg.BoostScale > 0 {
		throttle := constrain(m.Throttle()*m.cfg.BoostScale, 0, 1)
		m.out.SetOutputScaled(srv.FunctionBoostThrottle, throttle*1000)
	} else {
		m.out.SetOutputScaled(srv.FunctionBoostThrottle, 0)
	}
}

// outputRPYT mirrors the demands to the logging channels
func (m *Multicopter) outputRPYT() {
	m.out.SetOutputScaled(srv.FunctionRollOut, m.rollInFF*4500)
	m.out.SetOutputScaled(srv.FunctionPitchOut, m.pitchInFF*4500)
	m.out.SetOutputScaled(srv.FunctionYawOut, m.yawInFF*4500)
	m.out.SetOutputScaled(srv.FunctionThrustOut, m.Throttle()*1000)
}

// SetThrottlePassthroughForESCCalibration sends the pilot throttle
// directly to every enabled motor and the bicopter throttle channels,
// bypassing mixer, filter, slew and spool. Armed only.
func (m *Multicopter) SetThrottlePassthroughForESCCalibration(throttle float64) {
	if !m.armed {
		return
	}
	pwm := m.cfg.PWMMin + int(constrain(throttle, 0, 1)*float64(m.cfg.PWMMax-m.cfg.PWMMin))
	for i := 0; i < MaxNumMotors; i++ {
		if m.motorEnabled[i] {
			m.out.RCWrite(i, pwm)
		}
	}
	m.out.SetOutputPWM(srv.FunctionThrottleRight, pwm)
	m.out.SetOutputPWM(srv.FunctionThrottleLeft, pwm)
}

// OutputMotorMask directly drives the motors in mask with thrust plus
// rudder differential, marking them as already handled this tick.
// Used for tiltrotor motors in forward flight.
func (m *Multicopter) OutputMotorMask(thrust float64, mask uint32, rudderDT float64) {
	m.motorMaskOverride = mask

	for i := 0; i < MaxNumMotors; i++ {
		if !m.motorEnabled[i] || mask&(1<<uint(i)) == 0 {
			continue
		}
		if m.armed && m.interlock {
			// copter frame roll is plane frame yaw here
			diff := m.mixer.RollFactor(i) * rudderDT * 0.5
			m.setActuatorWithSlew(i, thrust+diff)
		} else {
			m.actuator[i] = 0
		}
		pwm := m.cfg.PWMMin + int(float64(m.cfg.PWMMax-m.cfg.PWMMin)*m.actuator[i])
		m.out.RCWrite(i, pwm)
	}
}

// UpdateThrottleRange forces the 1000-2000 PWM range for digital and
// scaled-range outputs and pushes the endpoints to the ESC backend
func (m *Multicopter) UpdateThrottleRange() {
	if m.out.HaveDigitalOutputs(m.mixer.MotorMask()) || m.cfg.PWMType == srv.PWMTypePWMRange || m.cfg.PWMType == srv.PWMTypePWMAngle {
		m.cfg.PWMMin = 1000
		m.cfg.PWMMax = 2000
	}
	m.out.SetESCScaling(m.cfg.PWMMin, m.cfg.PWMMax)
}

// ConvertPWMMinMaxParam migrates legacy radio endpoints into
// MOT_PWM_MIN/MAX, unless the user configured either one
func (m *Multicopter) ConvertPWMMinMaxParam(radioMin, radioMax int) {
	if m.params == nil {
		return
	}
	if m.params.Configured(ParamPWMMin) || m.params.Configured(ParamPWMMax) {
		return
	}
	m.cfg.PWMMin = radioMin
	m.cfg.PWMMax = radioMax
	m.params.SetFloat(ParamPWMMin, float64(radioMin))
	m.params.SetFloat(ParamPWMMax, float64(radioMax))
}

// LogWrite emits one MotBatt telemetry record, typically at 10Hz
func (m *Multicopter) LogWrite() {
	if m.telem == nil {
		return
	}
	var flags uint8
	if m.thrustBoost {
		flags |= MotBattFlagThrustBoost
	}
	if m.thrustBalanced {
		flags |= MotBattFlagThrustBalanced
	}
	m.telem.WriteMotBatt(MotBatt{
		TimeUS:       m.clk.Micros(),
		LiftMax:      m.thrLin.LiftMax(),
		BatVolt:      m.thrLin.BattVoltageFilt(),
		ThLimit:      m.limiter.ThrottleLimit(),
		ThAverageMax: m.throttleAvgMax,
		ThOut:        m.throttleOut,
		Flags:        flags,
	})
}

// GetThrust returns the commanded thrust fraction for a motor with
// linearization and battery compensation removed
func (m *Multicopter) GetThrust(motorNum int) (float64, bool) {
	if motorNum < 0 || motorNum >= MaxNumMotors || !m.motorEnabled[motorNum] {
		return 0, false
	}
	actuator := constrain(m.actuator[motorNum], m.thrLin.SpinMin(), m.thrLin.SpinMax())
	return m.thrLin.ActuatorToThrust(actuator) / m.thrLin.CompensationGain(), true
}

// GetRawMotorThrottle returns the raw actuator fraction for a motor
func (m *Multicopter) GetRawMotorThrottle(motorNum int) (float64, bool) {
	if motorNum < 0 || motorNum >= MaxNumMotors || !m.motorEnabled[motorNum] {
		return 0, false
	}
	return constrain(m.actuator[motorNum], 0, 1), true
}

// SaveParamsOnDisarm persists the learned hover throttle if the
// learner is in learn-and-save mode
func (m *Multicopter) SaveParamsOnDisarm() error {
	if m.cfg.HoverLearn != HoverLearnAndSave || m.params == nil {
		return nil
	}
	m.params.SetFloat(ParamThrottleHover, m.cfg.ThrottleHover)
	return m.params.Save()
}

// State inputs

// SetArmed sets the armed state
func (m *Multicopter) SetArmed(armed bool) { m.armed = armed }

// Armed returns the armed state
func (m *Multicopter) Armed() bool { return m.armed }

// SetInterlock sets the motor interlock; false forces shutdown
func (m *Multicopter) SetInterlock(enabled bool) { m.interlock = enabled }

// SetDesiredSpoolState requests a spool target
func (m *Multicopter) SetDesiredSpoolState(s DesiredSpoolState) { m.spoolDesired = s }

// DesiredSpoolState returns the requested spool target
func (m *Multicopter) DesiredSpoolState() DesiredSpoolState { return m.spoolDesired }

// SpoolState returns the current spool state
func (m *Multicopter) SpoolState() SpoolState { return m.spoolState }

// SetSpoolUpBlock holds the machine in ground idle until spoolup
// checks pass
func (m *Multicopter) SetSpoolUpBlock(block bool) { m.spoolUpBlock = block }

// SetThrottle sets the pilot throttle input, 0..1
func (m *Multicopter) SetThrottle(t float64) { m.throttleIn = constrain(t, 0, 1) }

// SetThrottleFilterTC sets the pilot throttle filter time constant in
// seconds. The control loop owns the cutoff; zero means passthrough.
func (m *Multicopter) SetThrottleFilterTC(tau float64) {
	m.cfg.ThrottleFilterTC = tau
	m.throttleFilter.SetTimeConstant(tau)
}

// Throttle returns the filtered throttle, 0..1
func (m *Multicopter) Throttle() float64 { return constrain(m.throttleFilter.Value(), 0, 1) }

// ThrottleSlewRate returns the filtered throttle slew rate per second
func (m *Multicopter) ThrottleSlewRate() float64 { return m.throttleSlewRate }

// SetRollPitchYaw sets the attitude controller demands, -1..1
func (m *Multicopter) SetRollPitchYaw(roll, pitch, yaw float64) {
	m.rollIn, m.pitchIn, m.yawIn = roll, pitch, yaw
}

// SetRollPitchYawFF sets the feed forward demands mirrored to the
// logging channels
func (m *Multicopter) SetRollPitchYawFF(roll, pitch, yaw float64) {
	m.rollInFF, m.pitchInFF, m.yawInFF = roll, pitch, yaw
}

// RollIn returns the roll demand
func (m *Multicopter) RollIn() float64 { return m.rollIn }

// PitchIn returns the pitch demand
func (m *Multicopter) PitchIn() float64 { return m.pitchIn }

// YawIn returns the yaw demand
func (m *Multicopter) YawIn() float64 { return m.yawIn }

// SetThrustBoost flags a suspected motor failure; the boost ratio
// ramps while set and thrust is unbalanced
func (m *Multicopter) SetThrustBoost(b bool) { m.thrustBoost = b }

// SetThrustBalanced reports whether the healthy motors are symmetric
// again
func (m *Multicopter) SetThrustBalanced(b bool) { m.thrustBalanced = b }

// ThrustBoostRatio returns the boost blend ratio, 0..1
func (m *Multicopter) ThrustBoostRatio() float64 { return m.thrustBoostRatio }

// SetExternalLimits supplies limit flags ORed in at the end of each
// tick
func (m *Multicopter) SetExternalLimits(l Limit) { m.externalLimits = l }

// SpinUpRatio returns the fraction of the way from stopped to ground
// idle spin
func (m *Multicopter) SpinUpRatio() float64 { return m.spinUpRatio }

// ThrottleThrustMax returns the current ceiling on commanded thrust
func (m *Multicopter) ThrottleThrustMax() float64 { return m.throttleThrustMax }

// ThrottleHover returns the current hover throttle estimate
func (m *Multicopter) ThrottleHover() float64 { return m.cfg.ThrottleHover }

// YawHeadroom returns the yaw authority floor as a 0..1 fraction of
// the output range
func (m *Multicopter) YawHeadroom() float64 {
	span := m.cfg.PWMMax - m.cfg.PWMMin
	if span <= 0 {
		return 0
	}
	return constrain(float64(m.cfg.YawHeadroom)/float64(span), 0, 1)
}

// LiftMax returns the voltage derived thrust scale
func (m *Multicopter) LiftMax() float64 { return m.thrLin.LiftMax() }

// CompensationGain returns the battery compensation gain
func (m *Multicopter) CompensationGain() float64 { return m.thrLin.CompensationGain() }

// SetMotorThrust is called by the mixer to set the thrust fraction
// for one motor this tick
func (m *Multicopter) SetMotorThrust(motorNum int, thrust float64) {
	if motorNum < 0 || motorNum >= MaxNumMotors {
		return
	}
	m.thrustOut[motorNum] = constrain(thrust, 0, 1)
}

// SetThrottleOut records the mixed average throttle for telemetry
func (m *Multicopter) SetThrottleOut(t float64) { m.throttleOut = t }

// SetThrottleAvgMax records the attitude-reserved average throttle
// ceiling for telemetry
func (m *Multicopter) SetThrottleAvgMax(t float64) { m.throttleAvgMax = t }

// MotorEnabled reports whether a motor output is in use
func (m *Multicopter) MotorEnabled(motorNum int) bool {
	if motorNum < 0 || motorNum >= MaxNumMotors {
		return false
	}
	return m.motorEnabled[motorNum]
}

// MotorMask returns the bitmask of enabled motor outputs
func (m *Multicopter) MotorMask() uint32 {
	var mask uint32
	for i := 0; i < MaxNumMotors; i++ {
		if m.motorEnabled[i] {
			mask |= 1 << uint(i)
		}
	}
	return mask
}
