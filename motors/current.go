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

import "github.com/facebook/rotor/batt"

// CurrentLimiter derives a dynamic maximum throttle from battery
// current headroom. The limit decays smoothly toward a floor of 20%
// of the hover-to-full range while current exceeds the ceiling, and
// recovers the same way.
type CurrentLimiter struct {
	maxAmps        float64
	timeConstant   float64
	battVoltageMin float64
	battIdx        int

	throttleLimit float64
}

// NewCurrentLimiter builds a limiter from the stage config
func NewCurrentLimiter(cfg *Config) *CurrentLimiter {
	return &CurrentLimiter{
		maxAmps:        cfg.BattCurrentMax,
		timeConstant:   cfg.BattCurrentTC,
		battVoltageMin: cfg.BattVoltageMin,
		battIdx:        cfg.BattIdx,
		throttleLimit:  1.0,
	}
}

// MaxThrottle returns the current limited max throttle in
// [throttle_hover, 1]. Disarmed, disabled or telemetry-less operation
// returns 1 and resets the internal limit.
func (c *CurrentLimiter) MaxThrottle(b batt.Monitor, armed bool, throttleHover, dt float64) float64 {
	if c.maxAmps <= 0 || !armed || b == nil {
		c.throttleLimit = 1.0
		return 1.0
	}
	amps, ok := b.CurrentAmps(c.battIdx)
	if !ok {
		c.throttleLimit = 1.0
		return 1.0
	}
	resistance := b.Resistance(c.battIdx)
	if resistance == 0 {
		c.throttleLimit = 1.0
		return 1.0
	}

	// cap the ceiling so voltage cannot sag below batt_voltage_min
	ceiling := amps + (b.Voltage(c.battIdx)-c.battVoltageMin)/resistance
	if c.maxAmps < ceiling {
		ceiling = c.maxAmps
	}

	// a collapsed ceiling means we are already past the sag limit
	ratio := 2.0
	if ceiling > 0 {
		ratio = amps / ceiling
	}

	c.throttleLimit += (dt / (dt + c.timeConstant)) * (1.0 - ratio)
	c.throttleLimit = constrain(c.throttleLimit, 0.2, 1.0)

	return throttleHover + (1.0-throttleHover)*c.throttleLimit
}

// ThrottleLimit returns the internal 0.2..1 limit state for telemetry
func (c *CurrentLimiter) ThrottleLimit() float64 {
	return c.throttleLimit
}
