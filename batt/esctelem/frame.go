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

// Package esctelem reads KISS style ESC telemetry frames and exposes
// them as a batt.Monitor, so voltage compensation and current limiting
// can run from ESC telemetry when no dedicated power module is fitted.
package esctelem

import (
	"encoding/binary"
	"fmt"
)

// FrameSize is the size of a single telemetry frame on the wire
const FrameSize = 10

// Telemetry is one decoded ESC telemetry frame
type Telemetry struct {
	TemperatureC   int
	Voltage        float64 // volts
	Current        float64 // amps
	ConsumptionMAH int
	ERPM           int
}

// crc8 implements the CRC-8 used by KISS telemetry (poly 0x07, init 0)
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// ParseFrame decodes a single telemetry frame, verifying its checksum
func ParseFrame(buf []byte) (Telemetry, error) {
	if len(buf) < FrameSize {
		return Telemetry{}, fmt.Errorf("short telemetry frame: %d bytes", len(buf))
	}
	if crc := crc8(buf[:FrameSize-1]); crc != buf[FrameSize-1] {
		return Telemetry{}, fmt.Errorf("telemetry crc mismatch: got 0x%02x want 0x%02x", buf[FrameSize-1], crc)
	}
	return Telemetry{
		TemperatureC:   int(buf[0]),
		Voltage:        float64(binary.BigEndian.Uint16(buf[1:3])) / 100.0,
		Current:        float64(binary.BigEndian.Uint16(buf[3:5])) / 100.0,
		ConsumptionMAH: int(binary.BigEndian.Uint16(buf[5:7])),
		ERPM:           int(binary.BigEndian.Uint16(buf[7:9])) * 100,
	}, nil
}

// AppendFrame encodes t as a wire frame, for tests and loopback rigs
func AppendFrame(dst []byte, t Telemetry) []byte {
	var buf [FrameSize]byte
	buf[0] = byte(t.TemperatureC)
	binary.BigEndian.PutUint16(buf[1:3], uint16(t.Voltage*100.0+0.5))
	binary.BigEndian.PutUint16(buf[3:5], uint16(t.Current*100.0+0.5))
	binary.BigEndian.PutUint16(buf[5:7], uint16(t.ConsumptionMAH))
	binary.BigEndian.PutUint16(buf[7:9], uint16(t.ERPM/100))
	buf[FrameSize-1] = crc8(buf[:FrameSize-1])
	return append(dst, buf[:]...)
}
