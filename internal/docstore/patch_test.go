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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDEqual(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{json.Number("1"), 1, true},
		{json.Number("1.0"), json.Number("1"), true},
		{json.Number("2"), 2.0, true},
		{int64(3), json.Number("3"), true},
		{"a", "a", true},
		{"a", "b", false},
		{json.Number("1"), "1", false},
		{"1", 1, false},
		{nil, nil, false},
		{nil, 1, false},
		{true, true, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, idEqual(tt.a, tt.b), "%#v == %#v", tt.a, tt.b)
	}
}

func TestApplyPatch_DoesNotModifyInput(t *testing.T) {
	original := map[string]interface{}{"id": json.Number("1"), "v": "old"}
	current := []interface{}{original}

	out, res := applyPatch(current, Patch{Action: ActionUpdate, Item: map[string]interface{}{"id": 1, "v": "new"}})

	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "old", original["v"])
	assert.Equal(t, "new", out[0].(map[string]interface{})["v"])
}

func TestApplyPatch_UpdateMatchesAllDuplicates(t *testing.T) {
	current := []interface{}{
		map[string]interface{}{"id": "x", "n": 1},
		map[string]interface{}{"id": "y", "n": 2},
		map[string]interface{}{"id": "x", "n": 3},
	}

	out, res := applyPatch(current, Patch{Action: ActionUpdate, Item: map[string]interface{}{"n": 0}, ID: "x"})

	assert.Equal(t, PatchResult{Matched: 2, Length: 3}, res)
	assert.Equal(t, 0, out[0].(map[string]interface{})["n"])
	assert.Equal(t, 2, out[1].(map[string]interface{})["n"])
	assert.Equal(t, 0, out[2].(map[string]interface{})["n"])
}

func TestApplyPatch_SkipsNonObjects(t *testing.T) {
	current := []interface{}{"plain", json.Number("5"), map[string]interface{}{"id": json.Number("5")}}

	out, res := applyPatch(current, Patch{Action: ActionDelete, ID: 5})

	assert.Equal(t, PatchResult{Matched: 1, Length: 2}, res)
	assert.Equal(t, []interface{}{"plain", json.Number("5")}, out)
}

func TestApplyPatch_AddToNonList(t *testing.T) {
	for _, current := range []interface{}{nil, "text", json.Number("3"), map[string]interface{}{}} {
		out, res := applyPatch(current, Patch{Action: ActionAdd, Item: "x"})
		assert.Equal(t, []interface{}{"x"}, out)
		assert.Equal(t, PatchResult{Matched: 0, Length: 1}, res)
	}
}

func TestPatch_ItemIDWinsOverExplicitID(t *testing.T) {
	p := Patch{Action: ActionUpdate, Item: map[string]interface{}{"id": "from-item"}, ID: "explicit"}
	assert.Equal(t, "from-item", p.targetID())

	p = Patch{Action: ActionDelete, Item: map[string]interface{}{"id": "from-item"}, ID: "explicit"}
	assert.Equal(t, "explicit", p.targetID())
}
