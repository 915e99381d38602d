// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docstore

import "time"

// Observer receives store events, typically to feed metrics
type Observer interface {
	// ObserveOperation is called once per get, set or patch
	ObserveOperation(operation string, err error, duration time.Duration)
	// ObserveRecovery is called when a read was served from "shadow" or degraded to "empty"
	ObserveRecovery(source string)
	// ObserveShadowFailure is called when the last-good copy could not be refreshed
	ObserveShadowFailure()
	// ObserveQueued is called with +1/-1 as operations start and stop waiting for their key
	ObserveQueued(delta int)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, error, time.Duration) {}
func (nopObserver) ObserveRecovery(string)                        {}
func (nopObserver) ObserveShadowFailure()                         {}
func (nopObserver) ObserveQueued(int)                             {}
