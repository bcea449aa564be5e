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

// DShot throttle encoding. Values 0-47 are reserved for commands,
// 48-2047 carry throttle. A frame is 11 bits of value, one telemetry
// request bit and a 4 bit checksum.
const (
	DShotCmdMotorStop = 0
	DShotMinThrottle  = 48
	DShotMaxThrottle  = 2047
)

// DShotFrame is a single 16 bit DShot frame before line encoding
type DShotFrame struct {
	Throttle  uint16
	Telemetry bool
}

// Encode packs the frame into its 16 bit wire representation
func (f DShotFrame) Encode() uint16 {
	v := f.Throttle & 0x07ff
	packet := v << 1
	if f.Telemetry {
		packet |= 1
	}
	crc := (packet ^ (packet >> 4) ^ (packet >> 8)) & 0x0f
	return packet<<4 | crc
}

// DShotFromPWM converts a PWM value in microseconds within [minUS, maxUS]
// to a DShot throttle value. PWM at or below minUS maps to motor stop.
func DShotFromPWM(pwmUS, minUS, maxUS int) uint16 {
	if maxUS <= minUS || pwmUS <= minUS {
		return DShotCmdMotorStop
	}
	if pwmUS > maxUS {
		pwmUS = maxUS
	}
	span := float64(maxUS - minUS)
	frac := float64(pwmUS-minUS) / span
	return DShotMinThrottle + uint16(frac*float64(DShotMaxThrottle-DShotMinThrottle)+0.5)
}
