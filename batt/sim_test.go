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

package batt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulatorDefaultFormula(t *testing.T) {
	s, err := NewSimulator(16.8, 0.02, "")
	require.NoError(t, err)

	require.InEpsilon(t, 16.8, s.Voltage(0), 1e-9)

	require.NoError(t, s.Step(50, 0.0025))
	require.InEpsilon(t, 16.8-50*0.02, s.Voltage(0), 1e-9)

	amps, ok := s.CurrentAmps(0)
	require.True(t, ok)
	require.InEpsilon(t, 50.0, amps, 1e-9)
	require.InEpsilon(t, 0.02, s.Resistance(0), 1e-9)
}

func TestSimulatorCustomFormula(t *testing.T) {
	s, err := NewSimulator(16.8, 0.02, "v0 - i * r - 0.1 * t")
	require.NoError(t, err)

	require.NoError(t, s.Step(0, 1.0))
	require.InEpsilon(t, 16.7, s.Voltage(0), 1e-9)
	require.NoError(t, s.Step(0, 1.0))
	require.InEpsilon(t, 16.6, s.Voltage(0), 1e-9)
}

func TestSimulatorBadFormula(t *testing.T) {
	_, err := NewSimulator(16.8, 0.02, "v0 +* i")
	require.Error(t, err)

	s, err := NewSimulator(16.8, 0.02, "v0 > i")
	require.NoError(t, err)
	require.Error(t, s.Step(1, 0.0025))
}

func TestSimulatorVoltageStats(t *testing.T) {
	s, err := NewSimulator(16.0, 0.0, "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Step(0, 0.0025))
	}
	mean, stddev := s.VoltageStats()
	require.InEpsilon(t, 16.0, mean, 1e-9)
	require.InDelta(t, 0.0, stddev, 1e-9)
}
