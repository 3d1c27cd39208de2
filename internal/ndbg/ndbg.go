// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build debug

// Package ndbg provides internal assertion helpers that only compile in when
// built with the "debug" tag, so that release builds pay nothing for them.
package ndbg

import "fmt"

// Enabled is true when this binary was built with the debug tag.
const Enabled = true

// Assert panics if cond is false. Only active in debug builds; release
// builds never call into this at all, so prefer checking ndbg.Enabled
// before doing expensive work to compute cond.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("noproto: internal assertion failed: "+format, args...))
	}
}

// Value holds a value of type T that only exists in debug builds.
type Value[T any] struct {
	x T
}

// Get returns a pointer to the debug value.
func (v *Value[T]) Get() *T { return &v.x }
