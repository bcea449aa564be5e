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

// PWMType selects the output protocol for the motor channels
type PWMType uint8

// Supported output protocols
const (
	PWMTypeNormal PWMType = iota
	PWMTypeOneShot
	PWMTypeOneShot125
	PWMTypeBrushed
	PWMTypeDShot150
	PWMTypeDShot300
	PWMTypeDShot600
	PWMTypeDShot1200
	PWMTypePWMRange
	PWMTypePWMAngle
)

func (t PWMType) String() string {
	switch t {
	case PWMTypeNormal:
		return "Normal"
	case PWMTypeOneShot:
		return "OneShot"
	case PWMTypeOneShot125:
		return "OneShot125"
	case PWMTypeBrushed:
		return "Brushed"
	case PWMTypeDShot150:
		return "DShot150"
	case PWMTypeDShot300:
		return "DShot300"
	case PWMTypeDShot600:
		return "DShot600"
	case PWMTypeDShot1200:
		return "DShot1200"
	case PWMTypePWMRange:
		return "PWMRange"
	case PWMTypePWMAngle:
		return "PWMAngle"
	}
	return "UNSUPPORTED"
}

// Digital reports whether the protocol is a digital ESC protocol.
// Digital outputs always use the fixed 1000-2000 scaled range.
func (t PWMType) Digital() bool {
	switch t {
	case PWMTypeDShot150, PWMTypeDShot300, PWMTypeDShot600, PWMTypeDShot1200:
		return true
	}
	return false
}
