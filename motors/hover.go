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

// Hover throttle learner constants. The bounds keep the estimate
// within the range reachable by the thrust expo polynomial.
const (
	throttleHoverTC  = 10.0
	throttleHoverMin = 0.125
	throttleHoverMax = 0.6875
)

// UpdateThrottleHover slowly pulls the hover throttle estimate toward
// the current throttle. Should be called at 100Hz, and only learns in
// unlimited flight.
func (m *Multicopter) UpdateThrottleHover(dt float64) {
	if m.cfg.HoverLearn == HoverLearnDisabled {
		return
	}
	if m.spoolState != SpoolThrottleUnlimited {
		return
	}
	alpha := dt / (dt + throttleHoverTC)
	est := m.cfg.ThrottleHover + alpha*(m.Throttle()-m.cfg.ThrottleHover)
	m.cfg.ThrottleHover = constrain(est, throttleHoverMin, throttleHoverMax)
}
