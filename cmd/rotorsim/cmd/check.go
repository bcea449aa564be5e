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
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/rotor/clock"
	"github.com/facebook/rotor/mixer"
	"github.com/facebook/rotor/motors"
	"github.com/facebook/rotor/srv"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
)

// diagnoser is a function that checks one aspect of the configuration
type diagnoser func(cfg *motors.Config, m *motors.Multicopter) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

func checkArming(cfg *motors.Config, m *motors.Multicopter) (status, string) {
	if err := m.ArmingChecks(); err != nil {
		return FAIL, fmt.Sprintf("arming checks: %s", color.RedString("%v", err))
	}
	return OK, "arming checks pass"
}

func checkThrustExpo(cfg *motors.Config, _ *motors.Multicopter) (status, string) {
	// outside this range the curve is usually a misconfigured frame
	if cfg.ThrustExpo < 0 || cfg.ThrustExpo > 0.8 {
		return WARN, fmt.Sprintf(
			"thrust_expo is %s, typical frames sit within %s",
			color.YellowString("%g", cfg.ThrustExpo),
			color.BlueString("0..0.8"),
		)
	}
	return OK, fmt.Sprintf("thrust_expo is %s", color.GreenString("%g", cfg.ThrustExpo))
}

func checkVoltageCompensation(cfg *motors.Config, _ *motors.Multicopter) (status, string) {
	if cfg.BattVoltageMax <= 0 {
		return WARN, "voltage compensation is disabled, thrust will fade as the pack sags"
	}
	return OK, fmt.Sprintf(
		"voltage compensation active within %s..%sV",
		color.GreenString("%g", cfg.BattVoltageMin),
		color.GreenString("%g", cfg.BattVoltageMax),
	)
}

func checkCurrentLimit(cfg *motors.Config, _ *motors.Multicopter) (status, string) {
	if cfg.BattCurrentMax <= 0 {
		return WARN, "current limiting is disabled"
	}
	return OK, fmt.Sprintf("current limited to %sA", color.GreenString("%g", cfg.BattCurrentMax))
}

func checkSpoolTime(cfg *motors.Config, _ *motors.Multicopter) (status, string) {
	if cfg.SpoolUpTime < 0.05 {
		return WARN, fmt.Sprintf(
			"spool_up_time %s is below the %s floor and will be clamped",
			color.YellowString("%g", cfg.SpoolUpTime),
			color.BlueString("0.05s"),
		)
	}
	return OK, fmt.Sprintf("spool_up_time is %ss", color.GreenString("%g", cfg.SpoolUpTime))
}

func checkHoverThrottle(cfg *motors.Config, _ *motors.Multicopter) (status, string) {
	if cfg.ThrottleHover < 0.125 || cfg.ThrottleHover > 0.6875 {
		return FAIL, fmt.Sprintf(
			"throttle_hover is %s, the learner only operates within %s",
			color.RedString("%g", cfg.ThrottleHover),
			color.BlueString("0.125..0.6875"),
		)
	}
	return OK, fmt.Sprintf("throttle_hover is %s", color.GreenString("%g", cfg.ThrottleHover))
}

var diagnosers = []diagnoser{
	checkArming,
	checkThrustExpo,
	checkVoltageCompensation,
	checkCurrentLimit,
	checkSpoolTime,
	checkHoverThrottle,
}

func runDiagnosers(cfg *motors.Config, m *motors.Multicopter, toRun []diagnoser) int {
	failed := 0
	for _, check := range toRun {
		status, msg := check(cfg, m)
		if status != OK {
			failed++
		}
		fmt.Printf("%s %s\n", statusToColor[status], msg)
	}
	return failed
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run configuration diagnosis, report in human-readable form.",
	Long: `Run configuration diagnosis, report in human-readable form.
Builds the output stage from the given config the way a vehicle would
and runs a set of checks against it. Exit code equals the number of
failed checks.`,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		m, err := motors.New(cfg, motors.Deps{
			Mixer:  mixer.NewQuadX(),
			Output: srv.NewRecorder(4),
			Clock:  clock.NewSystem(),
		}, 0.0025)
		if err != nil {
			log.Fatal(err)
		}
		os.Exit(runDiagnosers(&cfg, m, diagnosers))
	},
}
