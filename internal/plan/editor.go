/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

// Topology editor: split/merge/remove transitions over the perimeter
// loop. Every transition preserves the loop invariant (equal wall/corner
// counts, cyclic adjacency), recomputes geometry scoped to the affected
// set plus one adjacency hop, and runs constraint transfer. Preconditions
// are checked before any mutation; a violated precondition is reported as
// ErrNotApplicable and leaves the store untouched.

import (
	"fmt"
	"log/slog"

	"gofloorplan/internal/domain"
)

// Affected is the exact set of entities whose derived geometry a
// transition recomputed. Callers (canvas layers, exporters) use it to
// invalidate their own caches.
type Affected struct {
	Walls    []domain.WallID
	Corners  []domain.CornerID
	Entities []string
}

func (a Affected) merge(b Affected) Affected {
	seenW := map[domain.WallID]bool{}
	seenC := map[domain.CornerID]bool{}
	seenE := map[string]bool{}
	out := Affected{}
	add := func(x Affected) {
		for _, id := range x.Walls {
			if !seenW[id] {
				seenW[id] = true
				out.Walls = append(out.Walls, id)
			}
		}
		for _, id := range x.Corners {
			if !seenC[id] {
				seenC[id] = true
				out.Corners = append(out.Corners, id)
			}
		}
		for _, id := range x.Entities {
			if !seenE[id] {
				seenE[id] = true
				out.Entities = append(out.Entities, id)
			}
		}
	}
	add(a)
	add(b)
	return out
}

// SplitPerimeterWall inserts a new corner at position (measured along the
// wall's centerline from its start) and a new wall from that corner to
// the original end corner. The new corner is colinear by construction and
// gets a colinearCorner constraint; entities are redistributed to
// whichever resulting wall contains their center offset. Positions
// outside (0, wallLength) are not applicable.
func (s *Store) SplitPerimeterWall(wallID domain.WallID, position float64) (domain.WallID, Affected, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return "", Affected{}, err
	}
	wg := s.wallGeo[wallID]
	if position <= 0 || position >= wg.WallLength {
		return "", Affected{}, fmt.Errorf("split position %v outside (0, %v): %w", position, wg.WallLength, ErrNotApplicable)
	}
	p := s.perimeters[w.PerimeterID]

	newCornerID := domain.NewCornerID()
	newWallID := domain.NewWallID()

	// The new corner's reference point sits on the wall's reference-side
	// face, level with the centerline split point.
	splitPt := wg.CenterLine.PointAt(position)
	refPt := s.refLine(w).Project(splitPt)

	endCorner := s.corners[w.EndCornerID]
	newCorner := &domain.PerimeterCorner{
		ID:             newCornerID,
		PerimeterID:    p.ID,
		PreviousWallID: wallID,
		NextWallID:     newWallID,
		ReferencePoint: refPt,
		ConstructedBy:  domain.ConstructedByNext,
	}
	newWall := &domain.PerimeterWall{
		ID:                 newWallID,
		PerimeterID:        p.ID,
		StartCornerID:      newCornerID,
		EndCornerID:        w.EndCornerID,
		Thickness:          w.Thickness,
		WallAssemblyID:     w.WallAssemblyID,
		RingBeamAssemblyID: w.RingBeamAssemblyID,
		EntityIDs:          []string{},
	}

	// Redistribute entities: centers past the split move to the new wall
	// with offsets rebased to its start.
	keep := make([]string, 0, len(w.EntityIDs))
	for _, id := range w.EntityIDs {
		e, err := s.WallEntity(id)
		if err != nil {
			continue
		}
		if e.CenterOffset() <= position {
			keep = append(keep, id)
			continue
		}
		newWall.EntityIDs = append(newWall.EntityIDs, id)
		if e.Opening != nil {
			e.Opening.WallID = newWallID
			e.Opening.CenterOffset -= position
		} else {
			e.Post.WallID = newWallID
			e.Post.CenterOffset -= position
		}
	}
	w.EntityIDs = keep

	s.corners[newCornerID] = newCorner
	s.walls[newWallID] = newWall
	endCorner.PreviousWallID = newWallID
	w.EndCornerID = newCornerID

	k := indexOfWall(p.WallIDs, wallID)
	p.WallIDs = insertWallID(p.WallIDs, k+1, newWallID)
	p.CornerIDs = insertCornerID(p.CornerIDs, k+1, newCornerID)

	s.applyTransfer(TransferContext{
		Kind:         TransitionSplit,
		SplitWall:    wallID,
		NewWall:      newWallID,
		SplitCorner:  newCornerID,
		FirstLength:  position,
		SecondLength: wg.WallLength - position,
	})
	// The split corner is colinear by construction; pin that down.
	s.putConstraint(domain.Constraint{
		ID:     domain.NewConstraintID(),
		Kind:   domain.ConstraintColinearCorner,
		Corner: newCornerID,
	})

	aff := newAffectedSet()
	aff.addWall(wallID)
	aff.addWall(newWallID)
	aff.addCorner(newCornerID)
	res := s.recomputeAffected(p.ID, aff)
	s.log.Info("wall split",
		slog.String("wall", string(wallID)),
		slog.String("new_wall", string(newWallID)),
		slog.Float64("position", position))
	return newWallID, res, nil
}

// RemovePerimeterCorner merges the corner's two walls into one. Only
// legal at a colinear corner (interior angle 180°); anything else is not
// applicable, as is a merge that would shrink the loop below 3 walls.
func (s *Store) RemovePerimeterCorner(cornerID domain.CornerID) (Affected, error) {
	c, err := s.Corner(cornerID)
	if err != nil {
		return Affected{}, err
	}
	if !s.cornerGeo[cornerID].Colinear() {
		return Affected{}, fmt.Errorf("corner %s is not colinear: %w", cornerID, ErrNotApplicable)
	}
	p := s.perimeters[c.PerimeterID]
	if len(p.WallIDs) <= 3 {
		return Affected{}, fmt.Errorf("merge would leave fewer than 3 walls: %w", ErrNotApplicable)
	}
	return s.mergeAtCorner(c), nil
}

// mergeAtCorner performs the merge transition; preconditions are already
// checked. The previous wall survives and absorbs the next wall.
func (s *Store) mergeAtCorner(c *domain.PerimeterCorner) Affected {
	p := s.perimeters[c.PerimeterID]
	survivor := s.walls[c.PreviousWallID]
	absorbed := s.walls[c.NextWallID]
	survivorLen := s.wallGeo[survivor.ID].WallLength

	ctx := TransferContext{
		Kind:          TransitionMerge,
		RemovedCorner: c.ID,
		Survivor:      survivor.ID,
		Absorbed:      absorbed.ID,
	}

	// Rebase the absorbed wall's entities onto the survivor; at a
	// colinear corner the centerlines continue each other, so offsets
	// shift by exactly the survivor's pre-merge length.
	for _, id := range absorbed.EntityIDs {
		e, err := s.WallEntity(id)
		if err != nil {
			continue
		}
		if e.Opening != nil {
			e.Opening.WallID = survivor.ID
			e.Opening.CenterOffset += survivorLen
		} else {
			e.Post.WallID = survivor.ID
			e.Post.CenterOffset += survivorLen
		}
		survivor.EntityIDs = append(survivor.EntityIDs, id)
	}

	endCorner := s.corners[absorbed.EndCornerID]
	endCorner.PreviousWallID = survivor.ID
	survivor.EndCornerID = absorbed.EndCornerID

	p.WallIDs = removeWallID(p.WallIDs, absorbed.ID)
	p.CornerIDs = removeCornerID(p.CornerIDs, c.ID)
	delete(s.walls, absorbed.ID)
	delete(s.wallGeo, absorbed.ID)
	delete(s.corners, c.ID)
	delete(s.cornerGeo, c.ID)

	s.applyTransfer(ctx)

	aff := newAffectedSet()
	aff.addWall(survivor.ID)
	res := s.recomputeAffected(p.ID, aff)
	s.log.Info("corner merged",
		slog.String("corner", string(c.ID)),
		slog.String("survivor", string(survivor.ID)))
	return res
}

// RemovePerimeterWall deletes a wall, cascading over its openings and
// posts. The loop is reclosed by attaching the following wall to the
// removed wall's start corner; if that junction ends up colinear the two
// neighboring walls are merged automatically.
func (s *Store) RemovePerimeterWall(wallID domain.WallID) (Affected, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return Affected{}, err
	}
	p := s.perimeters[w.PerimeterID]
	if len(p.WallIDs) <= 3 {
		return Affected{}, fmt.Errorf("removal would leave fewer than 3 walls: %w", ErrNotApplicable)
	}

	startCorner := s.corners[w.StartCornerID]
	endCorner := s.corners[w.EndCornerID]
	next := s.walls[endCorner.NextWallID]

	s.dropWallEntities(w)
	// No transfer rule exists for outright deletion: constraints naming
	// the wall or its vanishing end corner are dropped, not left dangling.
	s.dropConstraintsReferencingWall(wallID)
	s.dropConstraintsReferencingCorner(endCorner.ID)

	next.StartCornerID = startCorner.ID
	startCorner.NextWallID = next.ID

	endIdx := indexOfCorner(p.CornerIDs, endCorner.ID)
	p.WallIDs = removeWallID(p.WallIDs, wallID)
	p.CornerIDs = removeCornerID(p.CornerIDs, endCorner.ID)
	// The removed wall's end corner sits one ring slot after the wall. When
	// the wall was last in the ring that slot wraps to index 0, and dropping
	// it leaves the corner list rotated against the wall list ("corner i
	// starts wall i" breaks). Rotate the reconnecting start corner to the
	// front to restore the alignment.
	if endIdx == 0 {
		last := p.CornerIDs[len(p.CornerIDs)-1]
		copy(p.CornerIDs[1:], p.CornerIDs[:len(p.CornerIDs)-1])
		p.CornerIDs[0] = last
	}
	delete(s.walls, wallID)
	delete(s.wallGeo, wallID)
	delete(s.corners, endCorner.ID)
	delete(s.cornerGeo, endCorner.ID)

	aff := newAffectedSet()
	aff.addCorner(startCorner.ID)
	res := s.recomputeAffected(p.ID, aff)

	// The junction may now be a straight run of two walls; merge it away
	// as RemovePerimeterCorner would.
	if s.cornerGeo[startCorner.ID].Colinear() && len(p.WallIDs) > 3 {
		res = res.merge(s.mergeAtCorner(startCorner))
	}
	s.log.Info("wall removed", slog.String("wall", string(wallID)))
	return res, nil
}

// SetPerimeterReferenceSide flips which face is authoritative. Corner
// reference points are carried over to the opposite face points so the
// physical shape is preserved, then every derived point of the perimeter
// is recomputed.
func (s *Store) SetPerimeterReferenceSide(perimeterID domain.PerimeterID, side domain.ReferenceSide) (Affected, error) {
	p, err := s.Perimeter(perimeterID)
	if err != nil {
		return Affected{}, err
	}
	if side != domain.ReferenceInside && side != domain.ReferenceOutside {
		return Affected{}, fmt.Errorf("reference side %q: %w", side, ErrInvalid)
	}
	if p.ReferenceSide == side {
		return Affected{}, nil
	}
	for _, cid := range p.CornerIDs {
		g := s.cornerGeo[cid]
		if side == domain.ReferenceOutside {
			s.corners[cid].ReferencePoint = g.OutsidePoint
		} else {
			s.corners[cid].ReferencePoint = g.InsidePoint
		}
	}
	p.ReferenceSide = side

	aff := newAffectedSet()
	for _, cid := range p.CornerIDs {
		aff.addCorner(cid)
	}
	for _, wid := range p.WallIDs {
		aff.addWall(wid)
	}
	res := s.recomputeAffected(p.ID, aff)
	s.log.Info("reference side changed", slog.String("perimeter", string(perimeterID)), slog.String("side", string(side)))
	return res, nil
}

// UpdatePerimeterWallThickness changes one wall's thickness. Both corner
// caches shift with it, which propagates to the neighboring walls' lines
// and the entities on them.
func (s *Store) UpdatePerimeterWallThickness(wallID domain.WallID, thickness float64) (Affected, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return Affected{}, err
	}
	if thickness <= 0 {
		return Affected{}, fmt.Errorf("thickness must be > 0, got %v: %w", thickness, ErrInvalid)
	}
	w.Thickness = thickness
	aff := newAffectedSet()
	aff.addWall(wallID)
	return s.recomputeAffected(w.PerimeterID, aff), nil
}

func indexOfWall(ids []domain.WallID, id domain.WallID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func indexOfCorner(ids []domain.CornerID, id domain.CornerID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func insertWallID(ids []domain.WallID, at int, id domain.WallID) []domain.WallID {
	ids = append(ids, "")
	copy(ids[at+1:], ids[at:])
	ids[at] = id
	return ids
}

func insertCornerID(ids []domain.CornerID, at int, id domain.CornerID) []domain.CornerID {
	ids = append(ids, "")
	copy(ids[at+1:], ids[at:])
	ids[at] = id
	return ids
}

func removeWallID(ids []domain.WallID, id domain.WallID) []domain.WallID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func removeCornerID(ids []domain.CornerID, id domain.CornerID) []domain.CornerID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
