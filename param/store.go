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

// Package param is the persistent parameter store behind the motor
// output stage. Parameters are scalar values keyed by their MOT_ name.
// A value is "configured" once it has been explicitly set or loaded
// from file, as opposed to running on its default; the distinction
// drives the PWM_MIN/MAX migration path.
package param

import (
	"fmt"
	"os"
	"sync"

	yaml "gopkg.in/yaml.v2"
)

// Store holds scalar parameters and their configured flags.
// Reads on the control path take a mutex held only for map access.
type Store struct {
	mu     sync.Mutex
	path   string
	values map[string]float64
}

// NewStore returns an empty Store persisting to path. An empty path
// disables persistence: Save becomes a no-op.
func NewStore(path string) *Store {
	return &Store{
		path:   path,
		values: map[string]float64{},
	}
}

// Load reads a yaml parameter file into a Store. A missing file is not
// an error: the store starts empty and all parameters report
// unconfigured.
func Load(path string) (*Store, error) {
	s := NewStore(path)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing params %s: %w", path, err)
	}
	return s, nil
}

// Float returns the stored value for name, or def if not configured
func (s *Store) Float(name string, def float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[name]; ok {
		return v
	}
	return def
}

// Int returns the stored value for name truncated to int, or def
func (s *Store) Int(name string, def int) int {
	return int(s.Float(name, float64(def)))
}

// SetFloat stores a value and marks the parameter configured
func (s *Store) SetFloat(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = v
}

// Configured reports whether name has been set or loaded
func (s *Store) Configured(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[name]
	return ok
}

// Save writes all configured parameters back to the backing file
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
