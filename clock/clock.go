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

// Package clock provides the monotonic time source used by the motor
// output stage. The control code never reads wall time directly so that
// tests can drive it with a fake clock.
package clock

import "time"

// Clock is a monotonic microsecond time source
type Clock interface {
	// Micros returns monotonic time in microseconds
	Micros() uint64
}

// System is a Clock backed by the runtime monotonic clock
type System struct {
	start time.Time
}

// NewSystem returns a System clock anchored at construction time
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Micros returns microseconds since the clock was created
func (s *System) Micros() uint64 {
	return uint64(time.Since(s.start).Microseconds())
}
