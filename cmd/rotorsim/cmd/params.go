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

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/rotor/motors"
)

func init() {
	RootCmd.AddCommand(paramsCmd)
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective motor parameters",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		printParams(&cfg)
	},
}

func printParams(cfg *motors.Config) {
	rows := [][]string{
		{"yaw_headroom", fmt.Sprintf("%d", cfg.YawHeadroom), "yaw authority floor, PWM us"},
		{"thrust_expo", fmt.Sprintf("%g", cfg.ThrustExpo), "thrust curve exponent"},
		{"spin_min", fmt.Sprintf("%g", cfg.SpinMin), "actuator where thrust starts"},
		{"spin_max", fmt.Sprintf("%g", cfg.SpinMax), "actuator where thrust saturates"},
		{"spin_arm", fmt.Sprintf("%g", cfg.SpinArm), "actuator at armed idle"},
		{"batt_voltage_min", fmt.Sprintf("%g", cfg.BattVoltageMin), "V, compensation lower clamp"},
		{"batt_voltage_max", fmt.Sprintf("%g", cfg.BattVoltageMax), "V, 0 disables compensation"},
		{"batt_current_max", fmt.Sprintf("%g", cfg.BattCurrentMax), "A, 0 disables current limiting"},
		{"batt_current_tc", fmt.Sprintf("%g", cfg.BattCurrentTC), "s"},
		{"pwm_min", fmt.Sprintf("%d", cfg.PWMMin), "us"},
		{"pwm_max", fmt.Sprintf("%d", cfg.PWMMax), "us"},
		{"pwm_type", cfg.PWMType.String(), ""},
		{"throttle_hover", fmt.Sprintf("%g", cfg.ThrottleHover), "0.125..0.6875"},
		{"hover_learn", fmt.Sprintf("%d", cfg.HoverLearn), "0 off, 1 learn, 2 learn and save"},
		{"disarm_disable_pwm", fmt.Sprintf("%v", cfg.DisarmDisablePWM), ""},
		{"safe_time", fmt.Sprintf("%g", cfg.SafeTime), "s"},
		{"spool_up_time", fmt.Sprintf("%g", cfg.SpoolUpTime), "s"},
		{"spool_down_time", fmt.Sprintf("%g", cfg.SpoolDownTime), "s, 0 means spool_up_time"},
		{"slew_up_time", fmt.Sprintf("%g", cfg.SlewUpTime), "s, 0 means unlimited"},
		{"slew_dn_time", fmt.Sprintf("%g", cfg.SlewDnTime), "s, 0 means unlimited"},
		{"boost_scale", fmt.Sprintf("%g", cfg.BoostScale), "0 disables the booster motor"},
		{"options", fmt.Sprintf("%#x", cfg.Options), "bit 0: raw voltage compensation"},
		{"batt_idx", fmt.Sprintf("%d", cfg.BattIdx), ""},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(60)
	table.SetHeader([]string{"param", "value", "meaning"})
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
