/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// ConstraintKind tags the constraint union.
type ConstraintKind string

const (
	ConstraintColinearCorner      ConstraintKind = "colinearCorner"
	ConstraintPerpendicularCorner ConstraintKind = "perpendicularCorner"
	ConstraintParallel            ConstraintKind = "parallel"
	ConstraintWallLength          ConstraintKind = "wallLength"
	ConstraintHorizontalWall      ConstraintKind = "horizontalWall"
	ConstraintVerticalWall        ConstraintKind = "verticalWall"
)

// WallSide selects which face a wallLength constraint measures.
type WallSide string

const (
	WallSideLeft  WallSide = "left"
	WallSideRight WallSide = "right"
)

// Constraint is a user-authored geometric constraint referencing walls and
// corners by ID only; it carries no geometry of its own. Which fields are
// meaningful depends on Kind:
//
//	colinearCorner, perpendicularCorner: Corner
//	parallel:                            WallA, WallB, Distance (optional)
//	wallLength:                          Wall, Side, Length
//	horizontalWall, verticalWall:        Wall
type Constraint struct {
	ID       ConstraintID   `json:"id"`
	Kind     ConstraintKind `json:"kind"`
	Corner   CornerID       `json:"corner,omitempty"`
	Wall     WallID         `json:"wall,omitempty"`
	WallA    WallID         `json:"wallA,omitempty"`
	WallB    WallID         `json:"wallB,omitempty"`
	Side     WallSide       `json:"side,omitempty"`
	Length   float64        `json:"length,omitempty"`
	Distance *float64       `json:"distance,omitempty"`
}

// ReferencesWall reports whether the constraint mentions the given wall.
func (c Constraint) ReferencesWall(id WallID) bool {
	return c.Wall == id || c.WallA == id || c.WallB == id
}

// ReferencesCorner reports whether the constraint mentions the given corner.
func (c Constraint) ReferencesCorner(id CornerID) bool {
	return c.Corner == id
}
