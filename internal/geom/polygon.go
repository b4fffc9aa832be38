/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// Polygon is an ordered ring of vertices. The closing edge from the last
// vertex back to the first is implicit.
type Polygon []Pt

// SignedArea uses the shoelace formula. Positive under this package's
// winding convention.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	for i, a := range p {
		b := p[(i+1)%len(p)]
		sum += a.Cross(b)
	}
	return sum / 2
}

// Area returns the absolute enclosed area.
func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// Normalized returns a copy of p with positive signed area, reversing the
// vertex order if necessary. The first vertex is preserved.
func (p Polygon) Normalized() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	if p.SignedArea() < 0 {
		for i, j := 1, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// SelfIntersects reports whether any two non-adjacent edges of the ring
// touch or cross. Shared endpoints of adjacent edges do not count.
func (p Polygon) SelfIntersects() bool {
	n := len(p)
	if n < 4 {
		return false
	}
	for i := 0; i < n; i++ {
		a1 := p[i]
		a2 := p[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// skip adjacent edges (shared vertex)
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			b1 := p[j]
			b2 := p[(j+1)%n]
			if SegmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// Centroid returns the vertex average. Good enough for label anchoring;
// not the area centroid.
func (p Polygon) Centroid() Pt {
	if len(p) == 0 {
		return Pt{}
	}
	var c Pt
	for _, v := range p {
		c = c.Add(v)
	}
	return c.Scale(1 / float64(len(p)))
}

// Bounds returns the axis-aligned bounding box as (min, max).
func (p Polygon) Bounds() (Pt, Pt) {
	if len(p) == 0 {
		return Pt{}, Pt{}
	}
	lo, hi := p[0], p[0]
	for _, v := range p[1:] {
		lo.X = math.Min(lo.X, v.X)
		lo.Y = math.Min(lo.Y, v.Y)
		hi.X = math.Max(hi.X, v.X)
		hi.Y = math.Max(hi.Y, v.Y)
	}
	return lo, hi
}
