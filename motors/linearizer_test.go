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

	"github.com/facebook/rotor/batt"
)

func TestLiftMaxFromBattVoltage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BattVoltageMax = 16.8
	cfg.BattVoltageMin = 13.2
	l := NewThrustLinearizer(&cfg)

	// no monitor: compensation disabled
	l.UpdateLiftMax(nil, 0.0025)
	require.InEpsilon(t, 1.0, l.LiftMax(), 1e-9)

	// the first reading primes the filter directly
	mon := &batt.Static{Volts: 14.4}
	l.UpdateLiftMax(mon, 0.0025)
	require.InEpsilon(t, 14.4/16.8, l.LiftMax(), 1e-6)
	require.InEpsilon(t, 14.4, l.BattVoltageFilt(), 1e-6)
	require.InEpsilon(t, 16.8/14.4, l.CompensationGain(), 1e-6)

	// voltage below the window clamps at the minimum
	mon.Volts = 10.0
	for i := 0; i < 10000; i++ {
		l.UpdateLiftMax(mon, 0.0025)
	}
	require.InEpsilon(t, 13.2/16.8, l.LiftMax(), 1e-3)
}

func TestLiftMaxDisabled(t *testing.T) {
	cfg := DefaultConfig()
	// batt_voltage_max zero disables compensation entirely
	l := NewThrustLinearizer(&cfg)
	l.UpdateLiftMax(&batt.Static{Volts: 9.0}, 0.0025)
	require.InEpsilon(t, 1.0, l.LiftMax(), 1e-9)
	require.InEpsilon(t, 1.0, l.CompensationGain(), 1e-9)
}

func TestLiftMaxRawVoltageOption(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BattVoltageMax = 16.8
	cfg.BattVoltageMin = 13.2
	cfg.Options = OptionVoltageCompRaw
	l := NewThrustLinearizer(&cfg)

	mon := &batt.Static{Volts: 16.8}
	l.UpdateLiftMax(mon, 0.0025)

	// a step on the raw reading shows up immediately despite the
	// slow filter
	mon.Volts = 14.4
	l.UpdateLiftMax(mon, 0.0025)
	require.InEpsilon(t, 14.4/16.8, l.LiftMax(), 1e-6)
	require.Greater(t, l.BattVoltageFilt(), 16.0)
}

func TestThrustToActuatorBatterySag(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BattVoltageMax = 16.8
	cfg.BattVoltageMin = 13.2
	e := cfg.ThrustExpo
	l := NewThrustLinearizer(&cfg)
	l.UpdateLiftMax(&batt.Static{Volts: 14.4}, 0.0025)

	liftMax := 14.4 / 16.8
	tc := 0.5 / liftMax
	want := cfg.SpinMin + ((1-e)*tc+e*tc*tc)*(cfg.SpinMax-cfg.SpinMin)
	require.InEpsilon(t, want, l.ThrustToActuator(0.5), 1e-6)
}

func TestThrustActuatorRoundTrip(t *testing.T) {
	for _, expo := range []float64{-0.5, 0.0, 0.25, 0.65, 1.0} {
		cfg := DefaultConfig()
		cfg.ThrustExpo = expo
		l := NewThrustLinearizer(&cfg)

		for thrust := 0.0; thrust <= 1.0; thrust += 0.05 {
			actuator := l.ThrustToActuator(thrust)
			require.GreaterOrEqual(t, actuator, cfg.SpinMin)
			require.LessOrEqual(t, actuator, cfg.SpinMax+1e-9)
			back := l.ActuatorToThrust(actuator) / l.CompensationGain()
			require.InDelta(t, thrust, back, 1e-6, "expo %v thrust %v", expo, thrust)
		}
	}
}

func TestActuatorToThrustOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	l := NewThrustLinearizer(&cfg)
	require.InDelta(t, 0.0, l.ActuatorToThrust(0.0), 1e-9)
	require.InDelta(t, 1.0, l.ActuatorToThrust(1.0), 1e-9)
}
