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

// Package srv is the seam between the motor output stage and the actual
// servo/ESC output hardware. The motors package only talks to the Driver
// interface; hardware backends and the test Recorder implement it.
package srv

import "fmt"

// Function identifies what a servo output channel is used for
type Function uint8

// Channel functions used by the motor output stage
const (
	FunctionNone Function = iota
	FunctionMotor1
	FunctionMotor2
	FunctionMotor3
	FunctionMotor4
	FunctionMotor5
	FunctionMotor6
	FunctionMotor7
	FunctionMotor8
	FunctionMotor9
	FunctionMotor10
	FunctionMotor11
	FunctionMotor12
	FunctionBoostThrottle
	FunctionRollOut
	FunctionPitchOut
	FunctionYawOut
	FunctionThrustOut
	FunctionThrottleLeft
	FunctionThrottleRight
)

func (f Function) String() string {
	if f >= FunctionMotor1 && f <= FunctionMotor12 {
		return fmt.Sprintf("Motor%d", int(f-FunctionMotor1)+1)
	}
	switch f {
	case FunctionNone:
		return "None"
	case FunctionBoostThrottle:
		return "BoostThrottle"
	case FunctionRollOut:
		return "RollOut"
	case FunctionPitchOut:
		return "PitchOut"
	case FunctionYawOut:
		return "YawOut"
	case FunctionThrustOut:
		return "ThrustOut"
	case FunctionThrottleLeft:
		return "ThrottleLeft"
	case FunctionThrottleRight:
		return "ThrottleRight"
	}
	return "UNSUPPORTED"
}

// MotorFunction returns the channel function for motor number num (0-based)
func MotorFunction(num int) Function {
	return FunctionMotor1 + Function(num)
}

// Driver writes actuator commands to the output hardware.
// It is the single consumer of motor PWM values; the motors package
// is its single producer.
type Driver interface {
	// RCWrite writes a raw PWM value in microseconds to the channel
	// assigned to motor number motorNum
	RCWrite(motorNum int, pwmUS int)
	// SetOutputScaled sets a scaled output value for a non-motor function
	SetOutputScaled(fn Function, value float64)
	// SetOutputPWM writes a raw PWM value to all channels assigned to fn
	SetOutputPWM(fn Function, pwmUS int)
	// HaveDigitalOutputs reports whether every output in mask is a
	// digital (DShot style) output
	HaveDigitalOutputs(mask uint32) bool
	// SetESCScaling tells the backend the PWM endpoints used for
	// digital protocol scaling
	SetESCScaling(minUS, maxUS int)
	// FindChannel returns the channel assigned to fn
	FindChannel(fn Function) (int, bool)
}
