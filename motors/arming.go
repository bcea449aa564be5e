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

	"github.com/facebook/rotor/srv"
)

// ArmingChecks validates the configuration and output assignment
// before arming is allowed. The returned error carries the user
// facing reason; nil means arming may proceed.
func (m *Multicopter) ArmingChecks() error {
	// at least one motor must be configured by the frame
	any := false
	for i := 0; i < MaxNumMotors; i++ {
		if m.motorEnabled[i] {
			any = true
			break
		}
	}
	if !any {
		return fmt.Errorf("no motors configured by frame")
	}

	// every enabled motor needs an output channel assigned
	for i := 0; i < MaxNumMotors; i++ {
		if !m.motorEnabled[i] {
			continue
		}
		if _, ok := m.out.FindChannel(srv.MotorFunction(i)); !ok {
			return fmt.Errorf("no SERVOx_FUNCTION set to Motor%d", i+1)
		}
	}

	if m.cfg.SpinMin > 0.3 {
		return fmt.Errorf("MOT_SPIN_MIN too high %.2f > 0.3", m.cfg.SpinMin)
	}
	if m.cfg.SpinArm > m.cfg.SpinMin {
		return fmt.Errorf("MOT_SPIN_ARM > MOT_SPIN_MIN")
	}
	if m.cfg.PWMMin < 1 || m.cfg.PWMMin >= m.cfg.PWMMax {
		return fmt.Errorf("Check MOT_PWM_MIN and MOT_PWM_MAX")
	}

	return nil
}
