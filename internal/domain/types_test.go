/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIDKindPrefixes(t *testing.T) {
	cases := map[string]IDKind{
		string(NewPerimeterID()): KindPerimeter,
		string(NewWallID()):      KindWall,
		string(NewCornerID()):    KindCorner,
		string(NewOpeningID()):   KindOpening,
		string(NewPostID()):      KindPost,
		string(NewConstraintID()): KindConstraint,
	}
	for id, want := range cases {
		if got := KindOf(id); got != want {
			t.Fatalf("KindOf(%q) = %q, want %q", id, got, want)
		}
	}
	if KindOf("bogus") != KindUnknown || KindOf("") != KindUnknown || KindOf("zzz_123") != KindUnknown {
		t.Fatalf("malformed IDs must map to KindUnknown")
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[WallID]bool{}
	for i := 0; i < 100; i++ {
		id := NewWallID()
		if seen[id] {
			t.Fatalf("duplicate wall ID %q", id)
		}
		seen[id] = true
		if !strings.HasPrefix(string(id), "wall_") {
			t.Fatalf("wall ID missing prefix: %q", id)
		}
	}
}

func TestConstraintReferences(t *testing.T) {
	w1, w2, w3 := NewWallID(), NewWallID(), NewWallID()
	c := Constraint{ID: NewConstraintID(), Kind: ConstraintParallel, WallA: w1, WallB: w2}
	if !c.ReferencesWall(w1) || !c.ReferencesWall(w2) {
		t.Fatalf("parallel constraint must reference both walls")
	}
	if c.ReferencesWall(w3) {
		t.Fatalf("unrelated wall must not be referenced")
	}
	cc := Constraint{Kind: ConstraintColinearCorner, Corner: NewCornerID()}
	if !cc.ReferencesCorner(cc.Corner) {
		t.Fatalf("corner constraint must reference its corner")
	}
}

func TestModelRoundTripsThroughJSON(t *testing.T) {
	sill := 900.0
	m := Model{
		Openings: []Opening{{
			ID:           NewOpeningID(),
			WallID:       NewWallID(),
			OpeningType:  "window",
			CenterOffset: 2000,
			Width:        1200,
			Height:       1400,
			SillHeight:   &sill,
		}},
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), "centerOffsetFromWallStart") {
		t.Fatalf("offset field name not serialized: %s", b)
	}
	var back Model
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Openings[0].SillHeight == nil || *back.Openings[0].SillHeight != 900 {
		t.Fatalf("sill height lost in round trip")
	}
}
