/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geom holds the 2D primitives used by the plan engine: points,
// lines and polygons with the handful of operations the engine needs
// (offsetting, intersection, winding, simplicity tests). Units are
// millimeters; float64 throughout.
//
// Coordinate convention: screen-style, origin top-left, Y growing down.
// Perimeter boundaries are normalized to positive signed area, which on
// screen reads as clockwise. With that ordering the outside of a wall
// running along direction d is d rotated by -90°, i.e. (d.Y, -d.X).
package geom

import "math"

// Eps is the tolerance used for coincidence and parallelism tests.
const Eps = 1e-9

// Pt is a 2D point or vector.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Pt) Add(b Pt) Pt          { return Pt{a.X + b.X, a.Y + b.Y} }
func (a Pt) Sub(b Pt) Pt          { return Pt{a.X - b.X, a.Y - b.Y} }
func (a Pt) Scale(s float64) Pt   { return Pt{a.X * s, a.Y * s} }
func (a Pt) Dot(b Pt) float64     { return a.X*b.X + a.Y*b.Y }
func (a Pt) Cross(b Pt) float64   { return a.X*b.Y - a.Y*b.X }
func (a Pt) Len() float64         { return math.Hypot(a.X, a.Y) }
func (a Pt) Dist(b Pt) float64    { return b.Sub(a).Len() }

// Norm returns the unit vector in the direction of a. The zero vector is
// returned unchanged.
func (a Pt) Norm() Pt {
	l := a.Len()
	if l < Eps {
		return a
	}
	return Pt{a.X / l, a.Y / l}
}

// Perp rotates a by +90° (counter-clockwise in math coordinates).
func (a Pt) Perp() Pt { return Pt{-a.Y, a.X} }

// AlmostEqual reports whether two points coincide within tol.
func (a Pt) AlmostEqual(b Pt, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Line is a directed segment from Start to End.
type Line struct {
	Start Pt `json:"start"`
	End   Pt `json:"end"`
}

func (l Line) Length() float64 { return l.Start.Dist(l.End) }

// Dir returns the unit direction from Start to End.
func (l Line) Dir() Pt { return l.End.Sub(l.Start).Norm() }

// PointAt returns the point at distance d from Start along the segment
// direction. d may lie outside [0, Length].
func (l Line) PointAt(d float64) Pt { return l.Start.Add(l.Dir().Scale(d)) }

// Offset translates the segment perpendicular to its direction. Positive
// d moves toward Dir rotated by -90° (the outside under the package's
// winding convention).
func (l Line) Offset(d float64) Line {
	n := outwardNormal(l.Dir()).Scale(d)
	return Line{Start: l.Start.Add(n), End: l.End.Add(n)}
}

// Project returns the foot of the perpendicular from p onto the infinite
// line through l.
func (l Line) Project(p Pt) Pt {
	d := l.Dir()
	t := p.Sub(l.Start).Dot(d)
	return l.Start.Add(d.Scale(t))
}

func outwardNormal(d Pt) Pt { return Pt{d.Y, -d.X} }

// OutwardNormal returns the outside-pointing unit normal of a wall
// direction under the positive-area winding convention.
func OutwardNormal(d Pt) Pt { return outwardNormal(d) }

// LineIntersection intersects the two infinite lines given by a point and
// a direction each. ok is false when the lines are parallel (including
// coincident).
func LineIntersection(p1, d1, p2, d2 Pt) (Pt, bool) {
	den := d1.Cross(d2)
	if math.Abs(den) < Eps {
		return Pt{}, false
	}
	t := p2.Sub(p1).Cross(d2) / den
	return p1.Add(d1.Scale(t)), true
}

// SegmentsIntersect reports whether the closed segments a1a2 and b1b2
// share a point. Colinear overlap counts as intersection.
func SegmentsIntersect(a1, a2, b1, b2 Pt) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}
	return false
}

func orient(a, b, c Pt) float64 {
	v := b.Sub(a).Cross(c.Sub(a))
	if math.Abs(v) < Eps {
		return 0
	}
	return v
}

func onSegment(a, b, p Pt) bool {
	return math.Min(a.X, b.X)-Eps <= p.X && p.X <= math.Max(a.X, b.X)+Eps &&
		math.Min(a.Y, b.Y)-Eps <= p.Y && p.Y <= math.Max(a.Y, b.Y)+Eps
}

// AngleDeg returns the signed angle from a to b in degrees, in (-180, 180].
func AngleDeg(a, b Pt) float64 {
	deg := math.Atan2(a.Cross(b), a.Dot(b)) * 180 / math.Pi
	if deg <= -180 {
		deg += 360
	}
	return deg
}
