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
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/rotor/batt"
	"github.com/facebook/rotor/batt/esctelem"
	"github.com/facebook/rotor/clock"
	"github.com/facebook/rotor/mixer"
	"github.com/facebook/rotor/motors"
	"github.com/facebook/rotor/motors/stats"
	"github.com/facebook/rotor/param"
	"github.com/facebook/rotor/srv"
)

// flags
var (
	runDurationFlag    time.Duration
	runTickFlag        time.Duration
	runThrottleFlag    float64
	runMonPortFlag     int
	runPromPortFlag    int
	runBattVoltsFlag   float64
	runBattOhmsFlag    float64
	runBattFormulaFlag string
	runFullAmpsFlag    float64
	runParamsFlag      string
	runESCTelemFlag    string
	runESCBaudFlag     int
)

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVarP(&runDurationFlag, "duration", "d", 30*time.Second, "How long to fly before spooling down")
	runCmd.Flags().DurationVar(&runTickFlag, "tick", 2500*time.Microsecond, "Control loop period")
	runCmd.Flags().Float64VarP(&runThrottleFlag, "throttle", "t", 0.5, "Pilot throttle to hold in flight, 0..1")
	runCmd.Flags().IntVar(&runMonPortFlag, "monitoringport", 8888, "Port to run the JSON monitoring server on")
	runCmd.Flags().IntVar(&runPromPortFlag, "promport", 0, "Port to run the prometheus exporter on, 0 disables")
	runCmd.Flags().Float64Var(&runBattVoltsFlag, "battvolts", 16.8, "Simulated resting pack voltage, V")
	runCmd.Flags().Float64Var(&runBattOhmsFlag, "battohms", 0.012, "Simulated pack internal resistance, Ohm")
	runCmd.Flags().StringVar(&runBattFormulaFlag, "battformula", batt.SimDefaultFormula, "Sag formula, see 'rotorsim run --help'")
	runCmd.Flags().Float64Var(&runFullAmpsFlag, "fullamps", 60, "Pack current at full collective throttle, A")
	runCmd.Flags().StringVar(&runParamsFlag, "params", "rotorsim_params.yaml", "File the learned parameters persist to, empty disables")
	runCmd.Flags().StringVar(&runESCTelemFlag, "esctelem", "", "Serial device carrying KISS ESC telemetry, replaces the battery simulator")
	runCmd.Flags().IntVar(&runESCBaudFlag, "escbaud", 115200, "ESC telemetry baud rate")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fly a simulated spool-up, hover and spool-down and report on it",
	Long: `Fly a simulated flight against a battery sag model: spool the motors
up, hold the requested throttle for the given duration, then spool down
and disarm. Telemetry is exposed over the JSON monitoring port (and
optionally prometheus) while the flight runs.

The sag formula is evaluated every tick with variables:
  v0 (resting pack voltage, V)
  i (current draw, A)
  r (internal resistance, Ohm)
  t (seconds since simulation start)`,
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal(err)
		}
		if err := runSimulation(cfg); err != nil {
			log.Fatal(err)
		}
	},
}

// sim couples the output stage to the simulated battery and drives
// both from a wall clock ticker
type sim struct {
	m   *motors.Multicopter
	mon batt.Monitor
	// battery is nil when flying against real ESC telemetry
	battery *batt.Simulator
	out     *srv.Recorder
	dt      float64

	// tick interval observations in microseconds
	jitter *welford.Stats
}

// loadRunParams reads the persisted parameter file and folds any
// previously learned hover throttle back into the config, so the
// learner resumes from where the last flight left off
func loadRunParams(path string, cfg *motors.Config) (*param.Store, error) {
	store, err := param.Load(path)
	if err != nil {
		return nil, err
	}
	if store.Configured(motors.ParamThrottleHover) {
		cfg.ThrottleHover = store.Float(motors.ParamThrottleHover, cfg.ThrottleHover)
	}
	return store, nil
}

func runSimulation(cfg motors.Config) error {
	var params *param.Store
	if runParamsFlag != "" {
		var err error
		params, err = loadRunParams(runParamsFlag, &cfg)
		if err != nil {
			return err
		}
		log.Debugf("hover throttle starting at %.3f", cfg.ThrottleHover)
	}

	// battery telemetry comes from real ESC telemetry when a device is
	// given, otherwise from the sag simulator
	var battery *batt.Simulator
	var monitor batt.Monitor
	if runESCTelemFlag != "" {
		reader := esctelem.NewReader(runBattOhmsFlag)
		if err := reader.Open(runESCTelemFlag, runESCBaudFlag); err != nil {
			return fmt.Errorf("opening esc telemetry %s: %w", runESCTelemFlag, err)
		}
		monitor = reader
	} else {
		var err error
		battery, err = batt.NewSimulator(runBattVoltsFlag, runBattOhmsFlag, runBattFormulaFlag)
		if err != nil {
			return err
		}
		monitor = battery
	}

	jsonStats := stats.NewJSONStats()
	telem := motors.Telemetry(jsonStats)
	var prom *stats.PrometheusExporter
	if runPromPortFlag > 0 {
		prom = stats.NewPrometheusExporter(runPromPortFlag)
		telem = stats.Tee(jsonStats, prom)
	}

	out := srv.NewRecorder(4)
	out.Digital = cfg.PWMType.Digital()
	dt := runTickFlag.Seconds()
	deps := motors.Deps{
		Mixer:     mixer.NewQuadX(),
		Battery:   monitor,
		Output:    out,
		Clock:     clock.NewSystem(),
		Telemetry: telem,
	}
	if params != nil {
		deps.Params = params
	}
	m, err := motors.New(cfg, deps, dt)
	if err != nil {
		return err
	}
	if err := m.ArmingChecks(); err != nil {
		return fmt.Errorf("arming checks: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		jsonStats.Start(runMonPortFlag)
		return nil
	})
	if prom != nil {
		eg.Go(func() error {
			prom.Start()
			return nil
		})
	}

	s := &sim{m: m, mon: monitor, battery: battery, out: out, dt: dt, jitter: welford.New()}
	eg.Go(func() error {
		defer cancel()
		return s.fly(ctx)
	})

	// monitoring servers have no shutdown path, so don't wait on them
	<-ctx.Done()
	s.report()
	return nil
}

// fly runs the flight profile: spool up, hold throttle, spool down
func (s *sim) fly(ctx context.Context) error {
	s.m.SetArmed(true)
	s.m.SetInterlock(true)
	s.m.SetDesiredSpoolState(motors.DesiredThrottleUnlimited)
	s.m.SetThrottle(runThrottleFlag)

	ticker := time.NewTicker(runTickFlag)
	defer ticker.Stop()
	logEvery := time.Second / 10
	lastLog := time.Now()
	lastTick := time.Now()
	deadline := time.Now().Add(runDurationFlag)
	spoolingDown := false

	for {
		select {
		case <-ctx.Done():
			s.m.SetArmed(false)
			s.m.OutputMin()
			if err := s.m.SaveParamsOnDisarm(); err != nil {
				log.Warningf("saving params: %v", err)
			}
			return ctx.Err()
		case now := <-ticker.C:
			s.jitter.Add(float64(now.Sub(lastTick).Microseconds()))
			lastTick = now

			if err := s.tick(); err != nil {
				return err
			}

			if now.Sub(lastLog) >= logEvery {
				lastLog = now
				s.m.LogWrite()
				log.Debugf("state=%v throttle_hover=%.3f volts=%.2f pwm=%v",
					s.m.SpoolState(), s.m.ThrottleHover(), s.mon.Voltage(0), s.out.MotorPWM)
			}

			if !spoolingDown && now.After(deadline) {
				log.Infof("flight time reached, spooling down")
				s.m.SetDesiredSpoolState(motors.DesiredShutDown)
				spoolingDown = true
			}
			if spoolingDown && s.m.SpoolState() == motors.SpoolShutDown {
				s.m.SetArmed(false)
				s.m.Output()
				if err := s.m.SaveParamsOnDisarm(); err != nil {
					log.Warningf("saving params: %v", err)
				}
				return nil
			}
		}
	}
}

// tick advances the battery model and runs one output stage cycle.
// With real ESC telemetry there is no model to advance.
func (s *sim) tick() error {
	if s.battery != nil {
		// crude load model: full collective draws fullamps
		throttle, _ := s.m.GetRawMotorThrottle(0)
		if err := s.battery.Step(throttle*runFullAmpsFlag, s.dt); err != nil {
			return err
		}
	}
	s.m.Output()
	s.m.UpdateThrottleHover(s.dt)
	return nil
}

func (s *sim) report() {
	if s.battery != nil {
		mean, stddev := s.battery.VoltageStats()
		log.Infof("battery voltage: mean %.3fV stddev %.3fV", mean, stddev)
	}
	log.Infof("tick interval: mean %.1fus stddev %.1fus min %.1fus max %.1fus",
		s.jitter.Mean(), s.jitter.Stddev(), s.jitter.Min(), s.jitter.Max())
	log.Infof("learned hover throttle: %.3f", s.m.ThrottleHover())
}
