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
	"github.com/facebook/rotor/batt"
	"github.com/facebook/rotor/clock"
	"github.com/facebook/rotor/srv"
)

// passMixer feeds the collective throttle straight to every motor,
// enough structure to exercise the output stage end to end
type passMixer struct {
	numMotors int
}

func (p *passMixer) OutputArmedStabilizing(m *Multicopter) {
	thr := m.Throttle()
	if thr > m.ThrottleThrustMax() {
		thr = m.ThrottleThrustMax()
		m.Limit.ThrottleUpper = true
	}
	for i := 0; i < p.numMotors; i++ {
		m.SetMotorThrust(i, thr)
	}
	m.SetThrottleOut(thr)
	m.SetThrottleAvgMax(m.ThrottleThrustMax())
}

func (p *passMixer) ThrustCompensation(m *Multicopter) {}

func (p *passMixer) RollFactor(motor int) float64 { return 0.5 }

func (p *passMixer) MotorMask() uint32 {
	return 1<<uint(p.numMotors) - 1
}

type testRig struct {
	m   *Multicopter
	out *srv.Recorder
	clk *clock.Fake
	bat *batt.Static
}

// tick advances fake time by the control period and runs one Output
func (r *testRig) tick() {
	r.clk.Advance(2500)
	r.m.Output()
}

func newTestRig(cfg Config, battery *batt.Static) *testRig {
	out := srv.NewRecorder(4)
	clk := &clock.Fake{}
	var monitor batt.Monitor
	if battery != nil {
		monitor = battery
	}
	m, err := New(cfg, Deps{
		Mixer:   &passMixer{numMotors: 4},
		Battery: monitor,
		Output:  out,
		Clock:   clk,
	}, 0.0025)
	if err != nil {
		panic(err)
	}
	return &testRig{m: m, out: out, clk: clk, bat: battery}
}
