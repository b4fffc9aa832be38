/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Entities are referenced by opaque string IDs carrying a kind prefix, so
// a bare ID is enough to route a lookup to the right typed collection.
// The uuid suffix keeps IDs unique across plans and sync peers.

type (
	PerimeterID  string
	WallID       string
	CornerID     string
	OpeningID    string
	PostID       string
	ConstraintID string
)

// IDKind identifies the entity collection an ID belongs to.
type IDKind string

const (
	KindPerimeter  IDKind = "peri"
	KindWall       IDKind = "wall"
	KindCorner     IDKind = "crnr"
	KindOpening    IDKind = "open"
	KindPost       IDKind = "post"
	KindConstraint IDKind = "cons"
	KindUnknown    IDKind = ""
)

func newID(kind IDKind) string { return string(kind) + "_" + uuid.NewString() }

func NewPerimeterID() PerimeterID   { return PerimeterID(newID(KindPerimeter)) }
func NewWallID() WallID             { return WallID(newID(KindWall)) }
func NewCornerID() CornerID         { return CornerID(newID(KindCorner)) }
func NewOpeningID() OpeningID       { return OpeningID(newID(KindOpening)) }
func NewPostID() PostID             { return PostID(newID(KindPost)) }
func NewConstraintID() ConstraintID { return ConstraintID(newID(KindConstraint)) }

// KindOf parses the kind prefix of an ID. Unknown or malformed IDs map to
// KindUnknown.
func KindOf(id string) IDKind {
	i := strings.IndexByte(id, '_')
	if i <= 0 {
		return KindUnknown
	}
	switch k := IDKind(id[:i]); k {
	case KindPerimeter, KindWall, KindCorner, KindOpening, KindPost, KindConstraint:
		return k
	default:
		return KindUnknown
	}
}
