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
package metrics

import "time"

// StoreObserver feeds document store events into Metrics
type StoreObserver struct {
	m        *Metrics
	classify func(error) string
}

// NewStoreObserver returns an observer; classify maps an operation error to
// the "error" label value.
func NewStoreObserver(m *Metrics, classify func(error) string) *StoreObserver {
	if classify == nil {
		classify = func(error) string { return "error" }
	}
	return &StoreObserver{m: m, classify: classify}
}

func (o *StoreObserver) ObserveOperation(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
		o.m.RecordStorageError(operation, o.classify(err))
	}
	o.m.RecordStorageOperation(operation, status, duration)
}

func (o *StoreObserver) ObserveRecovery(source string) {
	o.m.StorageRecoveries.WithLabelValues(source).Inc()
}

func (o *StoreObserver) ObserveShadowFailure() {
	o.m.ShadowCopyFailures.Inc()
}

func (o *StoreObserver) ObserveQueued(delta int) {
	o.m.QueuedOperations.Add(float64(delta))
}
