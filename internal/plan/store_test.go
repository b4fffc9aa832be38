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
	"gofloorplan/internal/geom"
)

func TestAddPerimeterValidation(t *testing.T) {
	s := NewStore()
	if _, err := s.AddPerimeter("st", []geom.Pt{{X: 0, Y: 0}, {X: 1, Y: 0}}, "asm", 300); !errors.Is(err, ErrInvalid) {
		t.Fatalf("two points: err = %v, want ErrInvalid", err)
	}
	if _, err := s.AddPerimeter("st", []geom.Pt{{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 0, Y: 1000}}, "asm", 0); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero thickness: err = %v, want ErrInvalid", err)
	}
	if _, err := s.AddPerimeter("st", []geom.Pt{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1000}, {X: 1000, Y: 0}}, "asm", 300); !errors.Is(err, ErrInvalid) {
		t.Fatalf("coincident points: err = %v, want ErrInvalid", err)
	}
	// bow tie
	if _, err := s.AddPerimeter("st", []geom.Pt{
		{X: 0, Y: 0}, {X: 1000, Y: 1000}, {X: 1000, Y: 0}, {X: 0, Y: 1000},
	}, "asm", 300); !errors.Is(err, ErrInvalid) {
		t.Fatalf("self-intersecting boundary: err = %v, want ErrInvalid", err)
	}
}

func TestAddPerimeterNormalizesOrientation(t *testing.T) {
	s := NewStore()
	// counter-orientation input ends up with the same derived geometry as
	// the canonical order
	p, err := s.AddPerimeter("st", []geom.Pt{
		{X: 0, Y: 5000},
		{X: 10000, Y: 5000},
		{X: 10000, Y: 0},
		{X: 0, Y: 0},
	}, "asm", 420)
	if err != nil {
		t.Fatalf("AddPerimeter: %v", err)
	}
	for _, cid := range p.CornerIDs {
		g, err := s.CornerGeometryOf(cid)
		if err != nil {
			t.Fatalf("CornerGeometryOf: %v", err)
		}
		if math.Abs(g.InteriorAngle-90) > 1e-9 {
			t.Fatalf("interior angle = %v, want 90", g.InteriorAngle)
		}
	}
}

func TestWallEntityPolymorphicLookup(t *testing.T) {
	s, p := newRectStore(t)
	wall := p.WallIDs[0]
	o, err := s.AddWallOpening(wall, OpeningSpec{OpeningType: "door", CenterOffset: 2000, Width: 900, Height: 2100})
	if err != nil {
		t.Fatalf("AddWallOpening: %v", err)
	}
	post, err := s.AddWallPost(wall, PostSpec{PostType: "support", CenterOffset: 5000, Width: 200, Thickness: 200})
	if err != nil {
		t.Fatalf("AddWallPost: %v", err)
	}

	e, err := s.WallEntity(string(o.ID))
	if err != nil || e.Opening == nil || e.Post != nil {
		t.Fatalf("opening lookup = %+v, %v", e, err)
	}
	if e.Width() != 900 || e.CenterOffset() != 2000 {
		t.Fatalf("opening accessors = %v / %v", e.Width(), e.CenterOffset())
	}
	e, err = s.WallEntity(string(post.ID))
	if err != nil || e.Post == nil {
		t.Fatalf("post lookup = %+v, %v", e, err)
	}
	if _, err := s.WallEntity(string(wall)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wall ID as entity: err = %v, want ErrNotFound", err)
	}
	if _, err := s.WallEntity("open_nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown opening: err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotLoadRoundTrip(t *testing.T) {
	s, p := newRectStore(t)
	wall := p.WallIDs[0]
	sill := 900.0
	o, err := s.AddWallOpening(wall, OpeningSpec{OpeningType: "window", CenterOffset: 3000, Width: 1200, Height: 1300, SillHeight: &sill})
	if err != nil {
		t.Fatalf("AddWallOpening: %v", err)
	}
	if _, err := s.AddConstraint(domain.Constraint{
		Kind: domain.ConstraintHorizontalWall, Wall: wall,
	}); err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}

	m := s.Snapshot()
	s2, err := LoadStore(m)
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	g1, _ := s.WallGeometryOf(wall)
	g2, err := s2.WallGeometryOf(wall)
	if err != nil {
		t.Fatalf("WallGeometryOf after load: %v", err)
	}
	if math.Abs(g1.WallLength-g2.WallLength) > 1e-9 {
		t.Fatalf("wall length changed across round trip: %v -> %v", g1.WallLength, g2.WallLength)
	}
	o2, err := s2.Opening(o.ID)
	if err != nil {
		t.Fatalf("Opening after load: %v", err)
	}
	if o2.SillHeight == nil || *o2.SillHeight != 900 {
		t.Fatalf("sill height lost: %+v", o2)
	}
	if len(s2.Constraints()) != 1 {
		t.Fatalf("constraints lost: %+v", s2.Constraints())
	}
	if _, err := s2.EntityGeometryOf(string(o.ID)); err != nil {
		t.Fatalf("entity geometry not rebuilt on load: %v", err)
	}
}

func TestLoadStoreRejectsBrokenLoop(t *testing.T) {
	s, p := newRectStore(t)
	m := s.Snapshot()
	// corrupt one wall's corner reference
	for i := range m.Walls {
		if m.Walls[i].ID == p.WallIDs[0] {
			m.Walls[i].EndCornerID = p.CornerIDs[3]
		}
	}
	if _, err := LoadStore(m); !errors.Is(err, ErrInvalid) {
		t.Fatalf("broken loop: err = %v, want ErrInvalid", err)
	}
}

func TestRemovePerimeterCascades(t *testing.T) {
	s, p := newRectStore(t)
	wall := p.WallIDs[0]
	o, _ := s.AddWallOpening(wall, OpeningSpec{OpeningType: "door", CenterOffset: 2000, Width: 900, Height: 2100})
	c, _ := s.AddConstraint(domain.Constraint{Kind: domain.ConstraintHorizontalWall, Wall: wall})

	if err := s.RemovePerimeter(p.ID); err != nil {
		t.Fatalf("RemovePerimeter: %v", err)
	}
	if _, err := s.Perimeter(p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("perimeter survived: %v", err)
	}
	if _, err := s.Wall(wall); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wall survived: %v", err)
	}
	if _, err := s.Opening(o.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("opening survived: %v", err)
	}
	for _, got := range s.Constraints() {
		if got.ID == c.ID {
			t.Fatalf("constraint survived cascade")
		}
	}
	// removing twice reports not found
	if err := s.RemovePerimeter(p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double remove: err = %v, want ErrNotFound", err)
	}
}

func TestRemoveEntityIdempotent(t *testing.T) {
	s, p := newRectStore(t)
	o, _ := s.AddWallOpening(p.WallIDs[0], OpeningSpec{OpeningType: "door", CenterOffset: 2000, Width: 900, Height: 2100})
	s.RemoveWallOpening(o.ID)
	s.RemoveWallOpening(o.ID) // no-op
	w, _ := s.Wall(p.WallIDs[0])
	if len(w.EntityIDs) != 0 {
		t.Fatalf("entity list not cleaned: %v", w.EntityIDs)
	}
}
