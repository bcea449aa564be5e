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

import "math"

// LowPass is a first order low pass filter in alpha = dt/(dt+tau)
// form, which keeps behaviour stable under variable dt. A zero time
// constant makes it a passthrough.
type LowPass struct {
	tau   float64
	value float64
}

// NewLowPass returns a filter with the given time constant in seconds
func NewLowPass(tau float64) LowPass {
	return LowPass{tau: tau}
}

// SetTimeConstant changes the filter time constant
func (f *LowPass) SetTimeConstant(tau float64) {
	f.tau = tau
}

// Apply advances the filter by dt with a new sample and returns the
// filtered value
func (f *LowPass) Apply(sample, dt float64) float64 {
	alpha := 1.0
	if f.tau > 0 && dt > 0 {
		alpha = dt / (dt + f.tau)
	}
	f.value += alpha * (sample - f.value)
	return f.value
}

// Reset forces the filter output to v
func (f *LowPass) Reset(v float64) {
	f.value = v
}

// Value returns the current filter output
func (f *LowPass) Value() float64 {
	return f.value
}

// SlewCalculator measures the slope of a signal against the wall
// clock in value units per microsecond
type SlewCalculator struct {
	lastValue float64
	lastUS    uint64
	slope     float64
	primed    bool
}

// Update records a new value at monotonic time nowUS
func (s *SlewCalculator) Update(value float64, nowUS uint64) {
	if s.primed && nowUS > s.lastUS {
		s.slope = (value - s.lastValue) / float64(nowUS-s.lastUS)
	}
	s.lastValue = value
	s.lastUS = nowUS
	s.primed = true
}

// Slope returns the last measured slope per microsecond
func (s *SlewCalculator) Slope() float64 {
	return s.slope
}

// SlewRate returns the absolute slope normalized to per second
func (s *SlewCalculator) SlewRate() float64 {
	return math.Abs(s.slope) * 1e6
}
