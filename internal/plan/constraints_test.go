/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

import (
	"errors"
	"math"
	"testing"

	"gofloorplan/internal/domain"
)

func TestAddConstraintValidation(t *testing.T) {
	s, p := newRectStore(t)
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintColinearCorner, Corner: "crnr_missing",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown corner: err = %v, want ErrNotFound", err)
	}
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintParallel, WallA: p.WallIDs[0], WallB: p.WallIDs[0],
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self-parallel: err = %v, want ErrInvalid", err)
	}
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintWallLength, Wall: p.WallIDs[0], Side: "middle", Length: 5000,
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad side: err = %v, want ErrInvalid", err)
	}
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: "banana", Wall: p.WallIDs[0],
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown kind: err = %v, want ErrInvalid", err)
	}
	c, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintWallLength, Wall: p.WallIDs[0], Side: domain.WallSideLeft, Length: 10000,
	})
	if err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("no ID assigned")
	}
	if err := s.RemoveConstraint(c.ID); err != nil {
		t.Fatalf("RemoveConstraint: %v", err)
	}
	if err := s.RemoveConstraint(c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double remove: err = %v, want ErrNotFound", err)
	}
}

func TestTransferSplitRules(t *testing.T) {
	const (
		wallA domain.WallID   = "wall_a"
		wallB domain.WallID   = "wall_b"
		wallN domain.WallID   = "wall_n"
		crnrX domain.CornerID = "crnr_x"
	)
	dist := 3000.0
	ctx := TransferContext{
		Kind:         TransitionSplit,
		SplitWall:    wallA,
		NewWall:      wallN,
		FirstLength:  2000,
		SecondLength: 3000,
	}
	in := []domain.Constraint{
		{ID: "cons_1", Kind: domain.ConstraintColinearCorner, Corner: crnrX},
		{ID: "cons_2", Kind: domain.ConstraintParallel, WallA: wallA, WallB: wallB, Distance: &dist},
		{ID: "cons_3", Kind: domain.ConstraintWallLength, Wall: wallA, Side: domain.WallSideRight, Length: 5000},
		{ID: "cons_4", Kind: domain.ConstraintHorizontalWall, Wall: wallA},
		{ID: "cons_5", Kind: domain.ConstraintWallLength, Wall: wallB, Side: domain.WallSideLeft, Length: 4000},
	}
	out := ApplyTransfer(in, ctx)

	byKindWall := func(k domain.ConstraintKind, w domain.WallID) []domain.Constraint {
		var r []domain.Constraint
		for _, c := range out {
			if c.Kind == k && (c.Wall == w || c.WallA == w || c.WallB == w) {
				r = append(r, c)
			}
		}
		return r
	}

	// corner constraint untouched
	if n := len(out); n != 8 {
		t.Fatalf("got %d constraints, want 8: %+v", n, out)
	}
	// parallel duplicated onto the new wall, distance not carried
	dup := byKindWall(domain.ConstraintParallel, wallN)
	if len(dup) != 1 || dup[0].Distance != nil || dup[0].WallB != wallB {
		t.Fatalf("parallel duplicate = %+v", dup)
	}
	orig := byKindWall(domain.ConstraintParallel, wallA)
	if len(orig) != 1 || orig[0].Distance == nil {
		t.Fatalf("original parallel = %+v", orig)
	}
	// wallLength apportioned by the split ratio, side retained, sum kept
	first := byKindWall(domain.ConstraintWallLength, wallA)
	second := byKindWall(domain.ConstraintWallLength, wallN)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("wallLength halves = %+v / %+v", first, second)
	}
	if math.Abs(first[0].Length-2000) > 1e-9 || math.Abs(second[0].Length-3000) > 1e-9 {
		t.Fatalf("apportioned lengths = %v + %v, want 2000 + 3000", first[0].Length, second[0].Length)
	}
	if first[0].Side != domain.WallSideRight || second[0].Side != domain.WallSideRight {
		t.Fatalf("side not retained: %v / %v", first[0].Side, second[0].Side)
	}
	// horizontal duplicated
	if len(byKindWall(domain.ConstraintHorizontalWall, wallN)) != 1 {
		t.Fatalf("horizontal not duplicated: %+v", out)
	}
	// constraint on an unrelated wall passes through
	if got := byKindWall(domain.ConstraintWallLength, wallB); len(got) != 1 || got[0].ID != "cons_5" {
		t.Fatalf("unrelated wallLength changed: %+v", got)
	}
}

func TestTransferMergeRules(t *testing.T) {
	const (
		surv  domain.WallID   = "wall_s"
		abs   domain.WallID   = "wall_x"
		other domain.WallID   = "wall_o"
		gone  domain.CornerID = "crnr_gone"
		stays domain.CornerID = "crnr_stays"
	)
	ctx := TransferContext{
		Kind:          TransitionMerge,
		RemovedCorner: gone,
		Survivor:      surv,
		Absorbed:      abs,
	}
	in := []domain.Constraint{
		{ID: "cons_1", Kind: domain.ConstraintColinearCorner, Corner: gone},
		{ID: "cons_2", Kind: domain.ConstraintPerpendicularCorner, Corner: stays},
		{ID: "cons_3", Kind: domain.ConstraintParallel, WallA: abs, WallB: other},
		{ID: "cons_4", Kind: domain.ConstraintParallel, WallA: surv, WallB: abs},
		{ID: "cons_5", Kind: domain.ConstraintWallLength, Wall: surv, Side: domain.WallSideLeft, Length: 2000},
		{ID: "cons_6", Kind: domain.ConstraintWallLength, Wall: abs, Side: domain.WallSideLeft, Length: 3000},
		{ID: "cons_7", Kind: domain.ConstraintVerticalWall, Wall: surv},
		{ID: "cons_8", Kind: domain.ConstraintVerticalWall, Wall: abs},
		{ID: "cons_9", Kind: domain.ConstraintHorizontalWall, Wall: surv},
	}
	out := ApplyTransfer(in, ctx)

	find := func(id domain.ConstraintID) *domain.Constraint {
		for i := range out {
			if out[i].ID == id {
				return &out[i]
			}
		}
		return nil
	}

	if find("cons_1") != nil {
		t.Fatalf("constraint at removed corner survived")
	}
	if find("cons_2") == nil {
		t.Fatalf("corner constraint elsewhere dropped")
	}
	// parallel repointed at the survivor
	if c := find("cons_3"); c == nil || c.WallA != surv {
		t.Fatalf("parallel not repointed: %+v", c)
	}
	// parallel collapsing onto one wall dropped
	if find("cons_4") != nil {
		t.Fatalf("self-parallel survived merge")
	}
	// matching-side lengths summed into the survivor's constraint
	if c := find("cons_5"); c == nil || math.Abs(c.Length-5000) > 1e-9 || c.Side != domain.WallSideLeft {
		t.Fatalf("summed wallLength = %+v, want 5000 left", c)
	}
	if find("cons_6") != nil {
		t.Fatalf("absorbed wallLength emitted twice")
	}
	// vertical present on both halves kept once
	if find("cons_7") == nil || find("cons_8") != nil {
		t.Fatalf("axis pairing wrong: %+v", out)
	}
	// horizontal on only one half dropped
	if find("cons_9") != nil {
		t.Fatalf("unpaired axis constraint survived")
	}
	if n := len(out); n != 4 {
		t.Fatalf("got %d constraints, want 4: %+v", n, out)
	}
}

func TestMergeWallLengthMismatchedSideDropped(t *testing.T) {
	ctx := TransferContext{
		Kind:     TransitionMerge,
		Survivor: "wall_s",
		Absorbed: "wall_x",
	}
	in := []domain.Constraint{
		{ID: "cons_1", Kind: domain.ConstraintWallLength, Wall: "wall_s", Side: domain.WallSideLeft, Length: 2000},
		{ID: "cons_2", Kind: domain.ConstraintWallLength, Wall: "wall_x", Side: domain.WallSideRight, Length: 3000},
	}
	if out := ApplyTransfer(in, ctx); len(out) != 0 {
		t.Fatalf("mismatched sides kept: %+v", out)
	}
}

func TestStoreSplitApportionsWallLength(t *testing.T) {
	s, p := newRectStore(t)
	wall := p.WallIDs[0]
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintWallLength, Wall: wall, Side: domain.WallSideLeft, Length: 10420,
	}); err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}
	newWall, _, err := s.SplitPerimeterWall(wall, 5000)
	if err != nil {
		t.Fatalf("SplitPerimeterWall: %v", err)
	}
	sum := 0.0
	for _, c := range s.Constraints() {
		if c.Kind != domain.ConstraintWallLength {
			continue
		}
		if c.Wall != wall && c.Wall != newWall {
			t.Fatalf("wallLength on unexpected wall: %+v", c)
		}
		sum += c.Length
	}
	if math.Abs(sum-10420) > 1e-9 {
		t.Fatalf("apportioned lengths sum to %v, want 10420", sum)
	}
}
