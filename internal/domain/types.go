/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for a building storey's perimeter
// topology: a closed loop of walls and corners with openings and posts
// attached to walls. Entities reference each other by ID only; all derived
// geometry lives in caches owned by the plan engine and is never persisted.
// Lengths are millimeters, angles degrees.

import "gofloorplan/internal/geom"

// ReferenceSide names which face of the wall loop is authoritative for
// corner reference points.
type ReferenceSide string

const (
	ReferenceInside  ReferenceSide = "inside"
	ReferenceOutside ReferenceSide = "outside"
)

// ConstructedBy names which of the two walls meeting at a corner owns the
// corner's construction. It governs entity clearance at that corner.
type ConstructedBy string

const (
	ConstructedByPrevious ConstructedBy = "previous"
	ConstructedByNext     ConstructedBy = "next"
)

// Perimeter is the closed loop bounding one storey's footprint.
// WallIDs and CornerIDs have equal length n >= 3; corner i sits between
// wall i-1 (cyclically) and wall i.
type Perimeter struct {
	ID            PerimeterID   `json:"id"`
	StoreyID      string        `json:"storeyId"`
	ReferenceSide ReferenceSide `json:"referenceSide"`
	WallIDs       []WallID      `json:"wallIds"`
	CornerIDs     []CornerID    `json:"cornerIds"`
}

// PerimeterWall is one straight wall segment of the loop.
// EntityIDs holds the openings and posts on this wall, unordered.
type PerimeterWall struct {
	ID                 WallID      `json:"id"`
	PerimeterID        PerimeterID `json:"perimeterId"`
	StartCornerID      CornerID    `json:"startCornerId"`
	EndCornerID        CornerID    `json:"endCornerId"`
	Thickness          float64     `json:"thickness"`
	WallAssemblyID     string      `json:"wallAssemblyId"`
	EntityIDs          []string    `json:"entityIds"`
	RingBeamAssemblyID string      `json:"ringBeamAssemblyId,omitempty"`
}

// PerimeterCorner is the junction between two walls. ReferencePoint is the
// authoritative point on the perimeter's reference side.
type PerimeterCorner struct {
	ID             CornerID      `json:"id"`
	PerimeterID    PerimeterID   `json:"perimeterId"`
	PreviousWallID WallID        `json:"previousWallId"`
	NextWallID     WallID        `json:"nextWallId"`
	ReferencePoint geom.Pt       `json:"referencePoint"`
	ConstructedBy  ConstructedBy `json:"constructedByWall"`
}

// Opening is a window or door cut into a wall. Width/Height/SillHeight are
// fitted dimensions (assembly padding already applied by the caller).
type Opening struct {
	ID                OpeningID   `json:"id"`
	PerimeterID       PerimeterID `json:"perimeterId"`
	WallID            WallID      `json:"wallId"`
	OpeningType       string      `json:"openingType"`
	CenterOffset      float64     `json:"centerOffsetFromWallStart"`
	Width             float64     `json:"width"`
	Height            float64     `json:"height"`
	SillHeight        *float64    `json:"sillHeight,omitempty"`
	OpeningAssemblyID string      `json:"openingAssemblyId,omitempty"`
}

// WallPost is a structural post inside a wall.
type WallPost struct {
	ID           PostID      `json:"id"`
	PerimeterID  PerimeterID `json:"perimeterId"`
	WallID       WallID      `json:"wallId"`
	PostType     string      `json:"postType"`
	CenterOffset float64     `json:"centerOffsetFromWallStart"`
	Width        float64     `json:"width"`
	Thickness    float64     `json:"thickness"`
	MaterialID   string      `json:"materialId,omitempty"`
}

// Storey is one building level; perimeters reference it by StoreyID.
type Storey struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Level     int     `json:"level"`
	Elevation float64 `json:"elevation"`
	Height    float64 `json:"height"`
}

// Metadata contains optional descriptive metadata for a plan.
type Metadata struct {
	Project   string `json:"project,omitempty"`
	Client    string `json:"client,omitempty"`
	Architect string `json:"architect,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Model is the serializable whole-plan topology state: every entity arena
// flattened to slices. It is what storage persists and the sync backend
// ships around; the plan engine loads it into an owning store and derives
// all geometry from it.
type Model struct {
	Perimeters  []Perimeter       `json:"perimeters"`
	Walls       []PerimeterWall   `json:"walls"`
	Corners     []PerimeterCorner `json:"corners"`
	Openings    []Opening         `json:"openings"`
	Posts       []WallPost        `json:"posts"`
	Constraints []Constraint      `json:"constraints"`
}

// Plan is the manifest root: plan metadata plus storeys and the topology
// model.
type Plan struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata,omitempty"`
	Storeys  []Storey `json:"storeys"`
	Model    Model    `json:"model"`
}
