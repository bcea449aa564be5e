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
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/rotor/srv"
)

// HoverLearnMode controls automatic learning of hover throttle
type HoverLearnMode uint8

// Hover learn modes
const (
	HoverLearnDisabled HoverLearnMode = iota
	HoverLearn
	HoverLearnAndSave
)

// Options bitmask bits
const (
	// OptionVoltageCompRaw makes voltage compensation use the raw
	// battery reading instead of the filtered one
	OptionVoltageCompRaw = 1 << 0
)

// Config is the parameter surface of the motor output stage. Field
// defaults follow the MOT_ parameter defaults; values are fixed at
// construction time apart from the hover throttle, which the learner
// may adjust in flight.
type Config struct {
	YawHeadroom      int            `yaml:"yaw_headroom"`       // yaw authority floor, PWM us
	ThrustExpo       float64        `yaml:"thrust_expo"`        // thrust curve exponent, -1..1
	SpinMin          float64        `yaml:"spin_min"`           // actuator where thrust starts
	SpinMax          float64        `yaml:"spin_max"`           // actuator where thrust saturates
	SpinArm          float64        `yaml:"spin_arm"`           // actuator at armed idle
	BattVoltageMin   float64        `yaml:"batt_voltage_min"`   // V, compensation lower clamp
	BattVoltageMax   float64        `yaml:"batt_voltage_max"`   // V, 0 disables compensation
	BattCurrentMax   float64        `yaml:"batt_current_max"`   // A, 0 disables current limiting
	BattCurrentTC    float64        `yaml:"batt_current_tc"`    // s
	PWMMin           int            `yaml:"pwm_min"`            // us
	PWMMax           int            `yaml:"pwm_max"`            // us
	PWMType          srv.PWMType    `yaml:"pwm_type"`
	ThrottleHover    float64        `yaml:"throttle_hover"`     // 0.125..0.6875
	HoverLearn       HoverLearnMode `yaml:"hover_learn"`
	DisarmDisablePWM bool           `yaml:"disarm_disable_pwm"`
	SafeTime         float64        `yaml:"safe_time"`          // s
	SpoolUpTime      float64        `yaml:"spool_up_time"`      // s, clamped >= 0.05
	SpoolDownTime    float64        `yaml:"spool_down_time"`    // s, 0 means use SpoolUpTime
	SlewUpTime       float64        `yaml:"slew_up_time"`       // s, 0..0.5, 0 means unlimited
	SlewDnTime       float64        `yaml:"slew_dn_time"`       // s, 0..0.5, 0 means unlimited
	BoostScale       float64        `yaml:"boost_scale"`
	Options          uint8          `yaml:"options"`
	BattIdx          int            `yaml:"batt_idx"`
	ThrottleFilterTC float64        `yaml:"throttle_filter_tc"` // s, set by the vehicle control loop
}

// DefaultConfig returns the stock parameter defaults
func DefaultConfig() Config {
	return Config{
		YawHeadroom:    200,
		ThrustExpo:     0.65,
		SpinMin:        0.15,
		SpinMax:        0.95,
		SpinArm:        0.1,
		BattCurrentTC:  5.0,
		PWMMin:         1000,
		PWMMax:         2000,
		PWMType:        srv.PWMTypeNormal,
		ThrottleHover:  0.35,
		HoverLearn:     HoverLearnAndSave,
		SafeTime:       1.0,
		SpoolUpTime:    0.5,
	}
}

// Validate makes sure the configuration is usable. Arming checks do
// their own, stricter validation with user facing messages.
func (c *Config) Validate() error {
	if c.SpinMin < 0 || c.SpinMin > 1 || c.SpinMax < 0 || c.SpinMax > 1 || c.SpinArm < 0 || c.SpinArm > 1 {
		return fmt.Errorf("bad config: spin values must be within 0..1")
	}
	if c.SpinMin > c.SpinMax {
		return fmt.Errorf("bad config: 'spin_min' above 'spin_max'")
	}
	if c.ThrustExpo < -1 || c.ThrustExpo > 1 {
		return fmt.Errorf("bad config: 'thrust_expo' must be within -1..1")
	}
	if c.BattVoltageMax > 0 && c.BattVoltageMin >= c.BattVoltageMax {
		return fmt.Errorf("bad config: 'batt_voltage_min' must be below 'batt_voltage_max'")
	}
	if c.SlewUpTime < 0 || c.SlewUpTime > 0.5 || c.SlewDnTime < 0 || c.SlewDnTime > 0.5 {
		return fmt.Errorf("bad config: slew times must be within 0..0.5s")
	}
	if c.SpoolUpTime < 0 || c.SpoolDownTime < 0 || c.SafeTime < 0 {
		return fmt.Errorf("bad config: spool and safe times must not be negative")
	}
	if c.BoostScale < 0 {
		return fmt.Errorf("bad config: 'boost_scale' must not be negative")
	}
	return nil
}

// ReadConfig reads config and unmarshals it from yaml on top of the
// defaults
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
