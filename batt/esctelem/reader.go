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

package esctelem

import (
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// resistance estimator filter gain per accepted sample
const resistanceAlpha = 0.05

// Reader consumes telemetry frames from an ESC telemetry wire and
// exposes the latest values as a batt.Monitor. The control loop reads
// it at 400Hz while frames arrive at ESC rate, so the latest frame is
// kept under a mutex rather than channeled.
type Reader struct {
	mu       sync.Mutex
	last     Telemetry
	haveData bool

	// resistance estimate state
	restingV  float64
	estimateR float64
}

// NewReader returns a Reader with an initial resistance guess.
// initialOhms is used until enough load samples arrive to estimate.
func NewReader(initialOhms float64) *Reader {
	return &Reader{estimateR: initialOhms}
}

// Open opens the serial device and starts consuming frames until the
// port reports an error or EOF
func (r *Reader) Open(device string, baud int) error {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return err
	}
	go func() {
		defer port.Close()
		if err := r.Run(port); err != nil {
			log.Errorf("esc telemetry reader stopped: %v", err)
		}
	}()
	return nil
}

// Run reads frames from rd until error or EOF. Bad checksums cause a
// one byte resync rather than an abort, since the stream has no frame
// delimiter.
func (r *Reader) Run(rd io.Reader) error {
	buf := make([]byte, 0, 2*FrameSize)
	chunk := make([]byte, FrameSize)
	for {
		n, err := rd.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for len(buf) >= FrameSize {
				t, perr := ParseFrame(buf)
				if perr != nil {
					buf = buf[1:]
					continue
				}
				buf = buf[FrameSize:]
				r.accept(t)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func (r *Reader) accept(t Telemetry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = t
	r.haveData = true

	if t.Current < 0.5 {
		// near zero load, track resting voltage
		if r.restingV == 0 {
			r.restingV = t.Voltage
		} else {
			r.restingV += 0.1 * (t.Voltage - r.restingV)
		}
		return
	}
	if r.restingV > t.Voltage {
		sample := (r.restingV - t.Voltage) / t.Current
		r.estimateR += resistanceAlpha * (sample - r.estimateR)
	}
}

// Last returns the most recent frame and whether any frame has arrived
func (r *Reader) Last() (Telemetry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.haveData
}

// Voltage implements batt.Monitor
func (r *Reader) Voltage(idx int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.Voltage
}

// CurrentAmps implements batt.Monitor
func (r *Reader) CurrentAmps(idx int) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.Current, r.haveData
}

// Resistance implements batt.Monitor
func (r *Reader) Resistance(idx int) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.estimateR
}
