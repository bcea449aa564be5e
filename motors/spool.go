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

import log "github.com/sirupsen/logrus"

// minimumSpoolTime is the fastest allowed spool ramp, seconds
const minimumSpoolTime = 0.05

// spoolDownTime returns the effective spool down ramp time
func (m *Multicopter) spoolDownTime() float64 {
	if m.cfg.SpoolDownTime > minimumSpoolTime {
		return m.cfg.SpoolDownTime
	}
	return m.cfg.SpoolUpTime
}

// currentLimitMaxThrottle advances the current limiter and returns
// the throttle ceiling for this tick
func (m *Multicopter) currentLimitMaxThrottle() float64 {
	return m.limiter.MaxThrottle(m.battery, m.armed, m.cfg.ThrottleHover, m.dt)
}

// outputLogic runs the spool state machine for one tick
func (m *Multicopter) outputLogic() {
	if m.armed {
		if m.cfg.DisarmDisablePWM && m.disarmSafeTimer < m.cfg.SafeTime {
			m.disarmSafeTimer += m.dt
		} else {
			m.disarmSafeTimer = m.cfg.SafeTime
		}
	} else {
		m.disarmSafeTimer = 0
	}

	// disarm or interlock drop forces shutdown regardless of the
	// requested state
	if !m.armed || !m.interlock {
		m.spoolDesired = DesiredShutDown
		m.spoolState = SpoolShutDown
	}

	if m.cfg.SpoolUpTime < minimumSpoolTime {
		log.Warningf("spool up time %.3fs too short, clamping to %.2fs", m.cfg.SpoolUpTime, minimumSpoolTime)
		m.cfg.SpoolUpTime = minimumSpoolTime
	}

	switch m.spoolState {
	case SpoolShutDown:
		// Motors stationary.
		m.Limit.SetAll(true)

		if m.spoolDesired != DesiredShutDown && m.disarmSafeTimer >= m.cfg.SafeTime {
			m.spoolState = SpoolGroundIdle
			break
		}

		m.spinUpRatio = 0
		m.throttleThrustMax = 0

		m.thrustBoost = false
		m.thrustBoostRatio = 0

	case SpoolGroundIdle:
		// Motors stationary or at ground idle, servos moving.
		m.Limit.SetAll(true)

		switch m.spoolDesired {
		case DesiredShutDown:
			m.spinUpRatio -= m.dt / m.spoolDownTime()
			if m.spinUpRatio <= 0 {
				m.spinUpRatio = 0
				m.spoolState = SpoolShutDown
			}
		case DesiredThrottleUnlimited:
			m.spinUpRatio += m.dt / m.cfg.SpoolUpTime
			if m.spinUpRatio >= 1 {
				m.spinUpRatio = 1
				if !m.spoolUpBlock {
					// only leave ground idle once spoolup checks pass
					m.spoolState = SpoolSpoolingUp
				}
			}
		case DesiredGroundIdle:
			spinUpArmedRatio := 0.0
			if m.cfg.SpinMin > 0 {
				spinUpArmedRatio = m.cfg.SpinArm / m.cfg.SpinMin
			}
			step := constrain(spinUpArmedRatio-m.spinUpRatio, -m.dt/m.spoolDownTime(), m.dt/m.cfg.SpoolUpTime)
			m.spinUpRatio += step
		}
		m.throttleThrustMax = 0

		m.thrustBoost = false
		m.thrustBoostRatio = 0

	case SpoolSpoolingUp:
		// Throttle ceiling ramps from minimum toward maximum.
		m.Limit.SetAll(false)

		if m.spoolDesired != DesiredThrottleUnlimited {
			m.spoolState = SpoolSpoolingDown
			break
		}

		spoolStep := m.dt / m.cfg.SpoolUpTime
		m.spinUpRatio = 1
		m.throttleThrustMax += spoolStep

		currentLimit := m.currentLimitMaxThrottle()
		threshold := m.Throttle()
		if currentLimit < threshold {
			threshold = currentLimit
		}
		if m.throttleThrustMax >= threshold {
			m.throttleThrustMax = currentLimit
			m.spoolState = SpoolThrottleUnlimited
		} else if m.throttleThrustMax < 0 {
			m.throttleThrustMax = 0
		}

		m.thrustBoost = false
		m.thrustBoostRatio = constrain(m.thrustBoostRatio-spoolStep, 0, 1)

	case SpoolThrottleUnlimited:
		// Normal flight.
		m.Limit.SetAll(false)

		if m.spoolDesired != DesiredThrottleUnlimited {
			m.spoolState = SpoolSpoolingDown
			break
		}

		spoolStep := m.dt / m.cfg.SpoolUpTime
		m.spinUpRatio = 1
		m.throttleThrustMax = m.currentLimitMaxThrottle()

		if m.thrustBoost && !m.thrustBalanced {
			m.thrustBoostRatio = constrain(m.thrustBoostRatio+spoolStep, 0, 1)
		} else {
			m.thrustBoostRatio = constrain(m.thrustBoostRatio-spoolStep, 0, 1)
		}

	case SpoolSpoolingDown:
		// Throttle ceiling ramps from maximum toward minimum.
		m.Limit.SetAll(false)

		if m.spoolDesired == DesiredThrottleUnlimited {
			m.spoolState = SpoolSpoolingUp
			break
		}

		m.spinUpRatio = 1
		spoolStep := m.dt / m.spoolDownTime()
		m.throttleThrustMax -= spoolStep

		currentLimit := m.currentLimitMaxThrottle()
		if m.throttleThrustMax <= 0 {
			m.throttleThrustMax = 0
		}
		if m.throttleThrustMax >= currentLimit {
			m.throttleThrustMax = currentLimit
		} else if m.throttleThrustMax == 0 {
			m.spoolState = SpoolGroundIdle
		}

		m.thrustBoostRatio = constrain(m.thrustBoostRatio-spoolStep, 0, 1)
	}
}
