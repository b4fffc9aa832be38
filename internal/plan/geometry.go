/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

// Geometry engine: derives corner points/angles, wall lines/quads and
// entity footprints from topology, wall thickness and the perimeter's
// reference side. Derivation assumes structurally valid topology; calling
// it on a corner or wall with missing neighbor references is a
// programming error, not a recoverable condition.

import (
	"math"
	"sort"

	"gofloorplan/internal/domain"
	"gofloorplan/internal/geom"
)

// colinearTolDeg is the angular tolerance for treating a corner as
// colinear (180°). Wide enough to absorb float drift from split points.
const colinearTolDeg = 1e-6

// CornerGeometry is the derived cache for one corner.
type CornerGeometry struct {
	InsidePoint   geom.Pt
	OutsidePoint  geom.Pt
	InteriorAngle float64 // degrees, (0, 360]; reflex corners > 180
	ExteriorAngle float64 // 360 - InteriorAngle
}

// Colinear reports whether the corner is geometrically removable.
func (g CornerGeometry) Colinear() bool {
	return math.Abs(g.InteriorAngle-180) <= colinearTolDeg
}

// WallGeometry is the derived cache for one wall.
type WallGeometry struct {
	InsideLine       geom.Line
	OutsideLine      geom.Line
	CenterLine       geom.Line // between corner intersection points
	InsideLength     float64
	OutsideLength    float64
	WallLength       float64 // centerline span usable for entity placement
	Direction        geom.Pt // unit vector along the centerline
	OutsideDirection geom.Pt // unit outward normal
	Polygon          geom.Polygon
}

// EntityGeometry is the derived cache for one opening or post.
type EntityGeometry struct {
	Polygon     geom.Polygon
	Center      geom.Pt
	InsideLine  geom.Line
	OutsideLine geom.Line
}

// refSign converts the reference side into the sign of the offset from
// the reference line toward the outside: reference on the inside face
// means the opposite face lies one thickness outward (+), and vice versa.
func refSign(side domain.ReferenceSide) float64 {
	if side == domain.ReferenceOutside {
		return -1
	}
	return 1
}

// wallAxis returns the unit direction of a wall from the stored corner
// reference points.
func (s *Store) wallAxis(w *domain.PerimeterWall) geom.Pt {
	a := s.corners[w.StartCornerID].ReferencePoint
	b := s.corners[w.EndCornerID].ReferencePoint
	return b.Sub(a).Norm()
}

// refLine returns the wall's reference-side face as a directed line.
func (s *Store) refLine(w *domain.PerimeterWall) geom.Line {
	return geom.Line{
		Start: s.corners[w.StartCornerID].ReferencePoint,
		End:   s.corners[w.EndCornerID].ReferencePoint,
	}
}

// computeCornerGeometry derives one corner's cache entry. The offset face
// point is the intersection of the two adjacent walls' offset face lines,
// each displaced by its own thickness, which handles adjacent walls of
// different thickness. At colinear corners the lines are parallel and the
// point falls back to a plain normal offset using the thickness of the
// wall that constructs the corner.
func (s *Store) computeCornerGeometry(c *domain.PerimeterCorner, side domain.ReferenceSide) CornerGeometry {
	prev := s.walls[c.PreviousWallID]
	next := s.walls[c.NextWallID]
	dPrev := s.wallAxis(prev)
	dNext := s.wallAxis(next)

	interior := geom.AngleDeg(dNext, dPrev.Scale(-1))
	if interior <= 0 {
		interior += 360
	}

	sign := refSign(side)
	ref := c.ReferencePoint
	pPrev := ref.Add(geom.OutwardNormal(dPrev).Scale(sign * prev.Thickness))
	pNext := ref.Add(geom.OutwardNormal(dNext).Scale(sign * next.Thickness))
	offset, ok := geom.LineIntersection(pPrev, dPrev, pNext, dNext)
	if !ok {
		t := next.Thickness
		d := dNext
		if c.ConstructedBy == domain.ConstructedByPrevious {
			t = prev.Thickness
			d = dPrev
		}
		offset = ref.Add(geom.OutwardNormal(d).Scale(sign * t))
	}

	g := CornerGeometry{InteriorAngle: interior, ExteriorAngle: 360 - interior}
	if side == domain.ReferenceOutside {
		g.OutsidePoint = ref
		g.InsidePoint = offset
	} else {
		g.InsidePoint = ref
		g.OutsidePoint = offset
	}
	return g
}

// centerLinePoint returns the intersection of wall w's centerline with
// the centerline of the neighboring wall at the given corner, falling
// back to a perpendicular projection when the walls are colinear.
func (s *Store) centerLinePoint(w, neighbor *domain.PerimeterWall, c *domain.PerimeterCorner, side domain.ReferenceSide) geom.Pt {
	sign := refSign(side)
	d := s.wallAxis(w)
	own := s.refLine(w).Start.Add(geom.OutwardNormal(d).Scale(sign * w.Thickness / 2))
	dN := s.wallAxis(neighbor)
	other := s.refLine(neighbor).Start.Add(geom.OutwardNormal(dN).Scale(sign * neighbor.Thickness / 2))
	if p, ok := geom.LineIntersection(own, d, other, dN); ok {
		return p
	}
	return geom.Line{Start: own, End: own.Add(d)}.Project(c.ReferencePoint)
}

// computeWallGeometry derives one wall's cache entry from the corner
// caches of its two corners plus its neighbors' topology. WallLength is
// measured between the centerline corner intersection points, which is
// the span usable for entity placement; at non-right corners it differs
// from the raw face lengths.
func (s *Store) computeWallGeometry(w *domain.PerimeterWall, side domain.ReferenceSide) WallGeometry {
	sc := s.corners[w.StartCornerID]
	ec := s.corners[w.EndCornerID]
	sg := s.cornerGeo[sc.ID]
	eg := s.cornerGeo[ec.ID]

	inside := geom.Line{Start: sg.InsidePoint, End: eg.InsidePoint}
	outside := geom.Line{Start: sg.OutsidePoint, End: eg.OutsidePoint}
	d := s.wallAxis(w)

	center := geom.Line{
		Start: s.centerLinePoint(w, s.walls[sc.PreviousWallID], sc, side),
		End:   s.centerLinePoint(w, s.walls[ec.NextWallID], ec, side),
	}

	return WallGeometry{
		InsideLine:       inside,
		OutsideLine:      outside,
		CenterLine:       center,
		InsideLength:     inside.Length(),
		OutsideLength:    outside.Length(),
		WallLength:       center.Length(),
		Direction:        d,
		OutsideDirection: geom.OutwardNormal(d),
		Polygon:          geom.Polygon{inside.Start, inside.End, outside.End, outside.Start},
	}
}

// ComputeEntityGeometry derives an entity's footprint purely from its
// wall's geometry and the entity's center offset and width. The inside
// and outside segments are the perpendicular projections of the centers
// of the two entity edges onto the wall faces; the polygon is the quad
// they span.
func ComputeEntityGeometry(wg WallGeometry, centerOffset, width float64) EntityGeometry {
	center := wg.CenterLine.PointAt(centerOffset)
	half := wg.Direction.Scale(width / 2)
	a := center.Sub(half)
	b := center.Add(half)
	inside := geom.Line{Start: wg.InsideLine.Project(a), End: wg.InsideLine.Project(b)}
	outside := geom.Line{Start: wg.OutsideLine.Project(a), End: wg.OutsideLine.Project(b)}
	return EntityGeometry{
		Polygon:     geom.Polygon{inside.Start, inside.End, outside.End, outside.Start},
		Center:      center,
		InsideLine:  inside,
		OutsideLine: outside,
	}
}

// affectedSet accumulates the wall/corner IDs touched by a transition.
// Geometry recompute is scoped to the set plus one hop of adjacency.
type affectedSet struct {
	corners map[domain.CornerID]struct{}
	walls   map[domain.WallID]struct{}
}

func newAffectedSet() *affectedSet {
	return &affectedSet{
		corners: map[domain.CornerID]struct{}{},
		walls:   map[domain.WallID]struct{}{},
	}
}

func (a *affectedSet) addWall(id domain.WallID)     { a.walls[id] = struct{}{} }
func (a *affectedSet) addCorner(id domain.CornerID) { a.corners[id] = struct{}{} }

// expand grows the set by one hop: every affected wall pulls in its two
// corners, every affected corner pulls in both adjacent walls.
func (s *Store) expand(a *affectedSet) {
	for id := range a.walls {
		if w, ok := s.walls[id]; ok {
			a.addCorner(w.StartCornerID)
			a.addCorner(w.EndCornerID)
		}
	}
	for id := range a.corners {
		if c, ok := s.corners[id]; ok {
			a.addWall(c.PreviousWallID)
			a.addWall(c.NextWallID)
		}
	}
}

// recomputeAffected recomputes geometry for the expanded affected set:
// corners first (walls read their caches), then walls, then the entities
// on those walls. The returned Affected is the exact recompute scope.
func (s *Store) recomputeAffected(perimeterID domain.PerimeterID, a *affectedSet) Affected {
	p, ok := s.perimeters[perimeterID]
	if !ok {
		return Affected{}
	}
	s.expand(a)
	for id := range a.corners {
		if c, ok := s.corners[id]; ok {
			s.cornerGeo[id] = s.computeCornerGeometry(c, p.ReferenceSide)
		}
	}
	for id := range a.walls {
		w, ok := s.walls[id]
		if !ok {
			continue
		}
		s.wallGeo[id] = s.computeWallGeometry(w, p.ReferenceSide)
		s.recomputeWallEntities(w)
	}
	return s.affectedResult(a)
}

// affectedResult flattens an expanded set into a sorted Affected value.
func (s *Store) affectedResult(a *affectedSet) Affected {
	out := Affected{}
	for id := range a.walls {
		if w, ok := s.walls[id]; ok {
			out.Walls = append(out.Walls, id)
			out.Entities = append(out.Entities, w.EntityIDs...)
		}
	}
	for id := range a.corners {
		if _, ok := s.corners[id]; ok {
			out.Corners = append(out.Corners, id)
		}
	}
	sort.Slice(out.Walls, func(i, j int) bool { return out.Walls[i] < out.Walls[j] })
	sort.Slice(out.Corners, func(i, j int) bool { return out.Corners[i] < out.Corners[j] })
	sort.Strings(out.Entities)
	return out
}

// recomputePerimeter recomputes every cache of a perimeter. Used on
// creation, load and reference-side changes; editor transitions go
// through recomputeAffected instead.
func (s *Store) recomputePerimeter(perimeterID domain.PerimeterID) {
	p, ok := s.perimeters[perimeterID]
	if !ok {
		return
	}
	a := newAffectedSet()
	for _, id := range p.CornerIDs {
		a.addCorner(id)
	}
	for _, id := range p.WallIDs {
		a.addWall(id)
	}
	s.recomputeAffected(perimeterID, a)
}

// recomputeWallEntities refreshes the geometry cache of every entity on a
// wall from the wall's current geometry.
func (s *Store) recomputeWallEntities(w *domain.PerimeterWall) {
	wg := s.wallGeo[w.ID]
	for _, id := range w.EntityIDs {
		e, err := s.WallEntity(id)
		if err != nil {
			continue
		}
		s.entityGeo[id] = ComputeEntityGeometry(wg, e.CenterOffset(), e.Width())
	}
}
