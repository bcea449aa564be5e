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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/rotor/motors"
)

// RootCmd is a main entry point. It's exported so rotorsim could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "rotorsim",
	Short: "Multicopter motor output stage simulator and checker",
}

// flags
var rootVerboseFlag bool
var rootConfigFlag string

func init() {
	RootCmd.PersistentFlags().BoolVarP(&rootVerboseFlag, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&rootConfigFlag, "config", "c", "", "path to the motor config yaml, empty means defaults")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if rootVerboseFlag {
		log.SetLevel(log.DebugLevel)
	}
}

func loadConfig() (motors.Config, error) {
	if rootConfigFlag == "" {
		return motors.DefaultConfig(), nil
	}
	cfg, err := motors.ReadConfig(rootConfigFlag)
	if err != nil {
		return motors.Config{}, err
	}
	return *cfg, nil
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
