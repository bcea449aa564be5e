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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/rotor/batt"
	"github.com/facebook/rotor/batt/esctelem"
	"github.com/facebook/rotor/clock"
	"github.com/facebook/rotor/mixer"
	"github.com/facebook/rotor/motors"
	"github.com/facebook/rotor/srv"
)

func TestLoadRunParamsResumesHover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("MOT_THST_HOVER: 0.33\n"), 0644))

	cfg := motors.DefaultConfig()
	store, err := loadRunParams(path, &cfg)
	require.NoError(t, err)
	require.InEpsilon(t, 0.33, cfg.ThrottleHover, 1e-9)
	require.True(t, store.Configured(motors.ParamThrottleHover))
}

func TestLoadRunParamsMissingFile(t *testing.T) {
	cfg := motors.DefaultConfig()
	def := cfg.ThrottleHover
	store, err := loadRunParams(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	require.NoError(t, err)
	require.InEpsilon(t, def, cfg.ThrottleHover, 1e-9)
	require.False(t, store.Configured(motors.ParamThrottleHover))
}

func TestLoadRunParamsPersistsLearnedHover(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	cfg := motors.DefaultConfig()
	store, err := loadRunParams(path, &cfg)
	require.NoError(t, err)

	m, err := motors.New(cfg, motors.Deps{
		Mixer:  mixer.NewQuadX(),
		Output: srv.NewRecorder(4),
		Clock:  &clock.Fake{},
		Params: store,
	}, 0.0025)
	require.NoError(t, err)
	require.NoError(t, m.SaveParamsOnDisarm())

	// a fresh run picks the saved value back up
	cfg2 := motors.DefaultConfig()
	cfg2.ThrottleHover = 0.2
	_, err = loadRunParams(path, &cfg2)
	require.NoError(t, err)
	require.InEpsilon(t, cfg.ThrottleHover, cfg2.ThrottleHover, 1e-9)
}

func TestESCTelemetryAsBatteryMonitor(t *testing.T) {
	var monitor batt.Monitor = esctelem.NewReader(0.012)

	cfg := motors.DefaultConfig()
	m, err := motors.New(cfg, motors.Deps{
		Mixer:   mixer.NewQuadX(),
		Battery: monitor,
		Output:  srv.NewRecorder(4),
		Clock:   &clock.Fake{},
	}, 0.0025)
	require.NoError(t, err)

	// no frames yet: current monitoring reports unavailable and the
	// stage runs without limiting
	_, have := monitor.CurrentAmps(0)
	require.False(t, have)
	m.SetArmed(true)
	m.Output()
}
