/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

// Placement validation for wall entities: bounds against the usable
// centerline length, corner clearance rules, and strict interval overlap
// against the other entities on the wall.

import (
	"math"
	"sort"

	"gofloorplan/internal/domain"
)

// IsPlacementValid reports whether an entity of the given width centered
// at centerOffset fits on the wall. exclude names an entity ID to ignore
// during overlap checks (the entity being moved); pass "" for none.
//
// An end of the interval may extend past the wall bounds only where the
// adjoining corner is constructed by this wall; the permitted overrun is
// the corner zone occupied by the neighboring wall's material, with no
// extra clearance margin.
func (s *Store) IsPlacementValid(wallID domain.WallID, centerOffset, width float64, exclude string) (bool, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return false, err
	}
	return s.placementValid(w, centerOffset, width, exclude), nil
}

func (s *Store) placementValid(w *domain.PerimeterWall, centerOffset, width float64, exclude string) bool {
	if width <= 0 {
		return false
	}
	wg := s.wallGeo[w.ID]
	start := centerOffset - width/2
	end := centerOffset + width/2

	if start < -s.startOverrun(w) || end > wg.WallLength+s.endOverrun(w) {
		return false
	}
	for _, e := range s.wallEntities(w, exclude) {
		os := e.CenterOffset() - e.Width()/2
		oe := e.CenterOffset() + e.Width()/2
		// strict interval intersection, zero tolerance; touching is fine
		if start < oe && end > os {
			return false
		}
	}
	return true
}

// startOverrun returns how far an entity may extend before the wall start
// into the corner zone: the neighboring wall's thickness when the start
// corner is constructed by this wall, otherwise 0.
func (s *Store) startOverrun(w *domain.PerimeterWall) float64 {
	c := s.corners[w.StartCornerID]
	if c.ConstructedBy != domain.ConstructedByNext {
		return 0
	}
	return s.walls[c.PreviousWallID].Thickness
}

// endOverrun is the counterpart at the wall end, applying when the end
// corner is constructed by this wall.
func (s *Store) endOverrun(w *domain.PerimeterWall) float64 {
	c := s.corners[w.EndCornerID]
	if c.ConstructedBy != domain.ConstructedByPrevious {
		return 0
	}
	return s.walls[c.NextWallID].Thickness
}

// FindNearestValidPosition searches outward from desiredOffset for the
// closest center offset at which an entity of the given width fits,
// preferring the smaller absolute displacement and, on ties, the offset
// nearer the wall start. ok is false when no placement of that width
// exists anywhere on the wall.
func (s *Store) FindNearestValidPosition(wallID domain.WallID, desiredOffset, width float64, exclude string) (float64, bool, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return 0, false, err
	}
	if width <= 0 {
		return 0, false, nil
	}
	wg := s.wallGeo[w.ID]
	lo := width/2 - s.startOverrun(w)
	hi := wg.WallLength + s.endOverrun(w) - width/2
	if hi < lo {
		return 0, false, nil
	}

	// Valid offsets form a union of intervals bounded by the wall limits
	// and the edges of other entities, so the nearest valid offset is
	// either the (clamped) desired offset or one of those boundaries.
	candidates := []float64{math.Min(math.Max(desiredOffset, lo), hi), lo, hi}
	for _, e := range s.wallEntities(w, exclude) {
		candidates = append(candidates,
			e.CenterOffset()-e.Width()/2-width/2,
			e.CenterOffset()+e.Width()/2+width/2,
		)
	}
	sort.Float64s(candidates)

	best := 0.0
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if c < lo || c > hi {
			continue
		}
		if !s.placementValid(w, c, width, exclude) {
			continue
		}
		d := math.Abs(c - desiredOffset)
		if d < bestDist-1e-12 || (math.Abs(d-bestDist) <= 1e-12 && c < best) {
			best = c
			bestDist = d
		}
	}
	if math.IsInf(bestDist, 1) {
		return 0, false, nil
	}
	return best, true, nil
}
