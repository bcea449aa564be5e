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

package clock

// Fake is a manually advanced Clock for tests
type Fake struct {
	now uint64
}

// Micros returns the current fake time
func (f *Fake) Micros() uint64 {
	return f.now
}

// Advance moves the fake clock forward by us microseconds
func (f *Fake) Advance(us uint64) {
	f.now += us
}

// Set sets the fake clock to an absolute microsecond value
func (f *Fake) Set(us uint64) {
	f.now = us
}
