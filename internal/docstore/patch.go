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

import (
	"encoding/json"
	"fmt"
	"math"
)

// Action list mutation applied by Patch
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Patch describes one list mutation.
//
// Item is appended as-is by add and shallow-merged into matching elements by
// update. ID addresses elements for delete, and for update when Item carries
// no id of its own. A nil ID means "not given".
type Patch struct {
	Action Action
	Item   interface{}
	ID     interface{}
}

// PatchResult reports what a patch did. Unmatched update and delete are not
// errors; Matched lets callers tell "changed" from "nothing to change".
type PatchResult struct {
	Matched int
	Length  int
}

// targetID returns the id an update or delete addresses
func (p Patch) targetID() interface{} {
	if p.Action == ActionUpdate {
		if obj, ok := p.Item.(map[string]interface{}); ok {
			if id, ok := obj["id"]; ok && id != nil {
				return id
			}
		}
	}
	return p.ID
}

// validate rejects patches that cannot be applied before any file is touched
func (p Patch) validate() error {
	if !p.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}

	switch p.Action {
	case ActionAdd:
		if p.Item == nil {
			return ErrMissingItem
		}
	case ActionUpdate:
		if _, ok := p.Item.(map[string]interface{}); !ok {
			return fmt.Errorf("%w: update item must be an object", ErrMissingItem)
		}
		if p.targetID() == nil {
			return ErrMissingID
		}
	case ActionDelete:
		if p.ID == nil {
			return ErrMissingID
		}
	}
	return nil
}

// applyPatch computes the new list. current is coerced to an empty list when
// it is not a list. The input slice is never modified.
func applyPatch(current interface{}, p Patch) ([]interface{}, PatchResult) {
	list, _ := current.([]interface{})

	var out []interface{}
	matched := 0

	switch p.Action {
	case ActionAdd:
		out = make([]interface{}, 0, len(list)+1)
		out = append(out, list...)
		out = append(out, p.Item)

	case ActionUpdate:
		target := p.targetID()
		fields := p.Item.(map[string]interface{})
		out = make([]interface{}, len(list))
		for i, elem := range list {
			obj, ok := elem.(map[string]interface{})
			if !ok || !idEqual(obj["id"], target) {
				out[i] = elem
				continue
			}
			merged := make(map[string]interface{}, len(obj)+len(fields))
			for k, v := range obj {
				merged[k] = v
			}
			for k, v := range fields {
				merged[k] = v
			}
			out[i] = merged
			matched++
		}

	case ActionDelete:
		out = make([]interface{}, 0, len(list))
		for _, elem := range list {
			if obj, ok := elem.(map[string]interface{}); ok && idEqual(obj["id"], p.ID) {
				matched++
				continue
			}
			out = append(out, elem)
		}
	}

	return out, PatchResult{Matched: matched, Length: len(out)}
}

// idEqual compares two item ids. Numbers compare by value whatever their Go
// representation, strings compare exactly, and a number never equals a string.
func idEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
