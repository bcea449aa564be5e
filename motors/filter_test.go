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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLowPassPassthrough(t *testing.T) {
	f := NewLowPass(0)
	require.InEpsilon(t, 0.7, f.Apply(0.7, 0.0025), 1e-9)
	require.InEpsilon(t, 0.2, f.Apply(0.2, 0.0025), 1e-9)
}

func TestLowPassConverges(t *testing.T) {
	f := NewLowPass(0.1)
	dt := 0.0025

	prev := 0.0
	for i := 0; i < 10; i++ {
		next := f.Apply(1.0, dt)
		require.Greater(t, next, prev)
		require.Less(t, next, 1.0)
		prev = next
	}

	// first step is exactly alpha
	g := NewLowPass(0.1)
	require.InEpsilon(t, dt/(dt+0.1), g.Apply(1.0, dt), 1e-9)

	// several time constants later the output is settled
	for i := 0; i < 4000; i++ {
		f.Apply(1.0, dt)
	}
	require.InEpsilon(t, 1.0, f.Value(), 1e-6)
}

func TestLowPassReset(t *testing.T) {
	f := NewLowPass(0.5)
	f.Apply(1.0, 0.0025)
	f.Reset(0.25)
	require.InEpsilon(t, 0.25, f.Value(), 1e-9)
}

func TestSlewCalculator(t *testing.T) {
	var s SlewCalculator

	// first sample only primes
	s.Update(0.2, 1000)
	require.Zero(t, s.Slope())

	// 0.1 over 10ms is 10/s
	s.Update(0.3, 11000)
	require.InEpsilon(t, 10.0, s.SlewRate(), 1e-9)

	// falling edge keeps the magnitude
	s.Update(0.2, 21000)
	require.InEpsilon(t, -1e-5, s.Slope(), 1e-9)
	require.InEpsilon(t, 10.0, s.SlewRate(), 1e-9)

	// repeated timestamp does not divide by zero
	s.Update(0.5, 21000)
	require.False(t, math.IsInf(s.Slope(), 0))
}

func TestThrottleFilterDisarmedPinnedToZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThrottleFilterTC = 0.15
	rig := newTestRig(cfg, nil)

	rig.m.SetThrottle(0.8)
	for i := 0; i < 100; i++ {
		rig.tick()
	}
	require.Zero(t, rig.m.Throttle())

	rig.m.SetArmed(true)
	rig.tick()
	require.Greater(t, rig.m.Throttle(), 0.0)
}

func TestThrottleFilterTracksInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThrottleFilterTC = 0.15
	rig := newTestRig(cfg, nil)
	rig.m.SetArmed(true)

	rig.m.SetThrottle(0.6)
	prev := 0.0
	for i := 0; i < 50; i++ {
		rig.tick()
		require.GreaterOrEqual(t, rig.m.Throttle(), prev)
		prev = rig.m.Throttle()
	}
	require.Less(t, prev, 0.6)

	for i := 0; i < 4000; i++ {
		rig.tick()
	}
	require.InEpsilon(t, 0.6, rig.m.Throttle(), 1e-4)
}

func TestThrottleSlewRateTelemetry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ThrottleFilterTC = 0.15
	rig := newTestRig(cfg, nil)
	rig.m.SetArmed(true)

	require.Zero(t, rig.m.ThrottleSlewRate())

	// a step produces a visible slew rate once two samples are in
	rig.m.SetThrottle(0.5)
	rig.tick()
	rig.tick()
	require.Greater(t, rig.m.ThrottleSlewRate(), 0.0)

	// a held input decays the telemetry back toward zero
	for i := 0; i < 4000; i++ {
		rig.tick()
	}
	require.Less(t, rig.m.ThrottleSlewRate(), 1e-3)
}
