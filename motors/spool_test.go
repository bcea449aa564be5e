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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpoolColdStartToHover(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpoolUpTime = 0.5
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetThrottle(0.5)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)

	// shut down -> ground idle on the first tick
	rig.tick()
	require.Equal(t, SpoolGroundIdle, m.SpoolState())

	// ground idle ramps spin_up_ratio over spool_up_time
	for i := 0; i < 199; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolGroundIdle, m.SpoolState())
	rig.tick()
	require.Equal(t, SpoolSpoolingUp, m.SpoolState())
	require.InEpsilon(t, 1.0, m.SpinUpRatio(), 1e-9)

	// spooling up ramps the thrust ceiling to the throttle, then
	// snaps it to the current limit
	for i := 0; i < 300; i++ {
		rig.tick()
		if m.SpoolState() == SpoolThrottleUnlimited {
			break
		}
	}
	require.Equal(t, SpoolThrottleUnlimited, m.SpoolState())
	require.InEpsilon(t, 1.0, m.ThrottleThrustMax(), 1e-9)
	require.False(t, m.Limit.ThrottleUpper)
	require.False(t, m.Limit.Roll)

	// every enabled motor gets an in-range PWM
	for i := 0; i < 4; i++ {
		pwm := rig.out.MotorPWM[i]
		require.GreaterOrEqual(t, pwm, 1000)
		require.LessOrEqual(t, pwm, 2000)
	}
}

func TestSpoolDisarmInFlight(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetThrottle(0.5)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	for i := 0; i < 500; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolThrottleUnlimited, m.SpoolState())

	m.SetArmed(false)
	rig.tick()

	require.Equal(t, SpoolShutDown, m.SpoolState())
	require.True(t, m.Limit.Roll)
	require.True(t, m.Limit.Pitch)
	require.True(t, m.Limit.Yaw)
	require.True(t, m.Limit.ThrottleLower)
	require.True(t, m.Limit.ThrottleUpper)
	require.InDelta(t, 0.0, m.Throttle(), 1e-9)
	require.InDelta(t, 0.0, m.SpinUpRatio(), 1e-9)
	require.InDelta(t, 0.0, m.ThrottleThrustMax(), 1e-9)
	for i := 0; i < 4; i++ {
		require.Equal(t, 1000, rig.out.MotorPWM[i])
	}
}

func TestSpoolDisarmDisablePWM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisarmDisablePWM = true
	rig := newTestRig(cfg, nil)
	m := rig.m

	// disarmed and shut down, PWM is fully off
	rig.tick()
	require.Equal(t, SpoolShutDown, m.SpoolState())
	for i := 0; i < 4; i++ {
		require.Equal(t, 0, rig.out.MotorPWM[i])
	}

	// arming has to wait out the safe timer before leaving shutdown
	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetDesiredSpoolState(DesiredGroundIdle)
	rig.tick()
	require.Equal(t, SpoolShutDown, m.SpoolState())

	// safe_time is 1s, run past it
	for i := 0; i < 400; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolGroundIdle, m.SpoolState())
}

func TestSpoolInterlockDropForcesShutdown(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetThrottle(0.3)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	for i := 0; i < 500; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolThrottleUnlimited, m.SpoolState())

	m.SetInterlock(false)
	rig.tick()
	require.Equal(t, SpoolShutDown, m.SpoolState())
	require.Equal(t, DesiredShutDown, m.DesiredSpoolState())
}

func TestSpoolGroundIdleHoldsSpinArm(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetDesiredSpoolState(DesiredGroundIdle)
	for i := 0; i < 600; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolGroundIdle, m.SpoolState())
	// spin_up_ratio settles at spin_arm/spin_min
	require.InEpsilon(t, cfg.SpinArm/cfg.SpinMin, m.SpinUpRatio(), 1e-6)
	require.InDelta(t, 0.0, m.ThrottleThrustMax(), 1e-9)

	// motors idle at spin_arm
	for i := 0; i < 4; i++ {
		want := 1000 + int(1000*cfg.SpinArm)
		require.InDelta(t, want, rig.out.MotorPWM[i], 2)
	}
}

func TestSpoolDownAndBackUp(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetThrottle(0.6)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	for i := 0; i < 500; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolThrottleUnlimited, m.SpoolState())

	m.SetDesiredSpoolState(DesiredGroundIdle)
	rig.tick()
	require.Equal(t, SpoolSpoolingDown, m.SpoolState())

	// a renewed request flips straight back to spooling up
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	rig.tick()
	require.Equal(t, SpoolSpoolingUp, m.SpoolState())

	// spool all the way down to ground idle
	m.SetDesiredSpoolState(DesiredGroundIdle)
	for i := 0; i < 600; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolGroundIdle, m.SpoolState())
}

func TestSpoolUpBlockHoldsGroundIdle(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetSpoolUpBlock(true)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	for i := 0; i < 400; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolGroundIdle, m.SpoolState())
	require.InEpsilon(t, 1.0, m.SpinUpRatio(), 1e-9)

	m.SetSpoolUpBlock(false)
	rig.tick()
	require.Equal(t, SpoolSpoolingUp, m.SpoolState())
}

func TestSpoolShortSpoolTimeClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpoolUpTime = 0.001
	rig := newTestRig(cfg, nil)

	rig.tick()
	require.InEpsilon(t, minimumSpoolTime, rig.m.cfg.SpoolUpTime, 1e-9)
}

func TestThrustBoostRampsInFlight(t *testing.T) {
	cfg := DefaultConfig()
	rig := newTestRig(cfg, nil)
	m := rig.m

	m.SetArmed(true)
	m.SetInterlock(true)
	m.SetThrottle(0.5)
	m.SetDesiredSpoolState(DesiredThrottleUnlimited)
	for i := 0; i < 500; i++ {
		rig.tick()
	}
	require.Equal(t, SpoolThrottleUnlimited, m.SpoolState())
	require.InDelta(t, 0.0, m.ThrustBoostRatio(), 1e-9)

	m.SetThrustBoost(true)
	m.SetThrustBalanced(false)
	for i := 0; i < 50; i++ {
		rig.tick()
	}
	mid := m.ThrustBoostRatio()
	require.Greater(t, mid, 0.0)

	// balanced thrust decays the ratio again
	m.SetThrustBalanced(true)
	for i := 0; i < 500; i++ {
		rig.tick()
	}
	require.InDelta(t, 0.0, m.ThrustBoostRatio(), 1e-9)
}
