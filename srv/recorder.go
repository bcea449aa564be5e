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

package srv

// Recorder is a Driver that remembers the last value written to every
// output. It backs the motors package tests and the simulator.
type Recorder struct {
	// Motor PWM in microseconds, indexed by motor number
	MotorPWM map[int]int
	// Scaled values per channel function
	Scaled map[Function]float64
	// Raw PWM per channel function
	PWM map[Function]int
	// Channel assignment per function; motors are assigned on demand
	Channels map[Function]int
	// Digital makes HaveDigitalOutputs return true and enables DShot
	// frame encoding on motor writes
	Digital bool
	// Encoded DShot frames per motor, populated only when Digital is set
	DShotFrames map[int]uint16

	escMin, escMax int
}

// NewRecorder returns a Recorder with channels assigned for the first
// numMotors motor functions
func NewRecorder(numMotors int) *Recorder {
	r := &Recorder{
		MotorPWM:    map[int]int{},
		Scaled:      map[Function]float64{},
		PWM:         map[Function]int{},
		Channels:    map[Function]int{},
		DShotFrames: map[int]uint16{},
	}
	for i := 0; i < numMotors; i++ {
		r.Channels[MotorFunction(i)] = i
	}
	return r
}

// RCWrite implements Driver. On digital outputs the PWM value is also
// encoded to its DShot frame using the configured ESC scaling.
func (r *Recorder) RCWrite(motorNum int, pwmUS int) {
	r.MotorPWM[motorNum] = pwmUS
	if r.Digital {
		f := DShotFrame{Throttle: DShotFromPWM(pwmUS, r.escMin, r.escMax)}
		r.DShotFrames[motorNum] = f.Encode()
	}
}

// SetOutputScaled implements Driver
func (r *Recorder) SetOutputScaled(fn Function, value float64) {
	r.Scaled[fn] = value
}

// SetOutputPWM implements Driver
func (r *Recorder) SetOutputPWM(fn Function, pwmUS int) {
	r.PWM[fn] = pwmUS
}

// HaveDigitalOutputs implements Driver
func (r *Recorder) HaveDigitalOutputs(mask uint32) bool {
	return r.Digital
}

// SetESCScaling implements Driver
func (r *Recorder) SetESCScaling(minUS, maxUS int) {
	r.escMin, r.escMax = minUS, maxUS
}

// FindChannel implements Driver
func (r *Recorder) FindChannel(fn Function) (int, bool) {
	ch, ok := r.Channels[fn]
	return ch, ok
}

// ESCScaling returns the endpoints passed to SetESCScaling
func (r *Recorder) ESCScaling() (int, int) {
	return r.escMin, r.escMax
}
