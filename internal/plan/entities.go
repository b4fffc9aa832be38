/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

// CRUD for wall entities (openings and posts). Dimensions passed here are
// fitted dimensions; converting finished (user-visible) dimensions with
// assembly padding is the caller's job.

import (
	"fmt"
	"log/slog"

	"gofloorplan/internal/domain"
)

// OpeningSpec describes a new opening.
type OpeningSpec struct {
	OpeningType       string
	CenterOffset      float64 // from wall start, along the centerline
	Width             float64
	Height            float64
	SillHeight        *float64
	OpeningAssemblyID string
}

// PostSpec describes a new wall post.
type PostSpec struct {
	PostType     string
	CenterOffset float64
	Width        float64
	Thickness    float64
	MaterialID   string
}

// AddWallOpening validates dimensions and placement and attaches a new
// opening to the wall.
func (s *Store) AddWallOpening(wallID domain.WallID, spec OpeningSpec) (*domain.Opening, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return nil, err
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("opening width/height must be > 0: %w", ErrInvalid)
	}
	if !s.placementValid(w, spec.CenterOffset, spec.Width, "") {
		return nil, fmt.Errorf("opening placement at %v (width %v) on wall %s: %w", spec.CenterOffset, spec.Width, wallID, ErrInvalid)
	}
	o := &domain.Opening{
		ID:                domain.NewOpeningID(),
		PerimeterID:       w.PerimeterID,
		WallID:            wallID,
		OpeningType:       spec.OpeningType,
		CenterOffset:      spec.CenterOffset,
		Width:             spec.Width,
		Height:            spec.Height,
		SillHeight:        spec.SillHeight,
		OpeningAssemblyID: spec.OpeningAssemblyID,
	}
	s.openings[o.ID] = o
	w.EntityIDs = append(w.EntityIDs, string(o.ID))
	s.entityGeo[string(o.ID)] = ComputeEntityGeometry(s.wallGeo[wallID], o.CenterOffset, o.Width)
	s.log.Debug("opening added", slog.String("opening", string(o.ID)), slog.String("wall", string(wallID)))
	return o, nil
}

// AddWallPost validates dimensions and placement and attaches a new post
// to the wall.
func (s *Store) AddWallPost(wallID domain.WallID, spec PostSpec) (*domain.WallPost, error) {
	w, err := s.Wall(wallID)
	if err != nil {
		return nil, err
	}
	if spec.Width <= 0 || spec.Thickness <= 0 {
		return nil, fmt.Errorf("post width/thickness must be > 0: %w", ErrInvalid)
	}
	if !s.placementValid(w, spec.CenterOffset, spec.Width, "") {
		return nil, fmt.Errorf("post placement at %v (width %v) on wall %s: %w", spec.CenterOffset, spec.Width, wallID, ErrInvalid)
	}
	p := &domain.WallPost{
		ID:           domain.NewPostID(),
		PerimeterID:  w.PerimeterID,
		WallID:       wallID,
		PostType:     spec.PostType,
		CenterOffset: spec.CenterOffset,
		Width:        spec.Width,
		Thickness:    spec.Thickness,
		MaterialID:   spec.MaterialID,
	}
	s.posts[p.ID] = p
	w.EntityIDs = append(w.EntityIDs, string(p.ID))
	s.entityGeo[string(p.ID)] = ComputeEntityGeometry(s.wallGeo[wallID], p.CenterOffset, p.Width)
	return p, nil
}

// OpeningUpdate is a partial update; nil fields are left unchanged.
type OpeningUpdate struct {
	OpeningType  *string
	CenterOffset *float64
	Width        *float64
	Height       *float64
	SillHeight   *float64
}

// PostUpdate is a partial update; nil fields are left unchanged.
type PostUpdate struct {
	PostType     *string
	CenterOffset *float64
	Width        *float64
	Thickness    *float64
}

// UpdateWallOpening applies a partial update after re-validating
// dimensions and placement. On failure the opening is left unchanged.
func (s *Store) UpdateWallOpening(id domain.OpeningID, upd OpeningUpdate) error {
	o, err := s.Opening(id)
	if err != nil {
		return err
	}
	next := *o
	if upd.OpeningType != nil {
		next.OpeningType = *upd.OpeningType
	}
	if upd.CenterOffset != nil {
		next.CenterOffset = *upd.CenterOffset
	}
	if upd.Width != nil {
		next.Width = *upd.Width
	}
	if upd.Height != nil {
		next.Height = *upd.Height
	}
	if upd.SillHeight != nil {
		v := *upd.SillHeight
		next.SillHeight = &v
	}
	if next.Width <= 0 || next.Height <= 0 {
		return fmt.Errorf("opening width/height must be > 0: %w", ErrInvalid)
	}
	w := s.walls[next.WallID]
	if !s.placementValid(w, next.CenterOffset, next.Width, string(id)) {
		return fmt.Errorf("opening placement at %v (width %v): %w", next.CenterOffset, next.Width, ErrInvalid)
	}
	*o = next
	s.entityGeo[string(id)] = ComputeEntityGeometry(s.wallGeo[o.WallID], o.CenterOffset, o.Width)
	return nil
}

// UpdateWallPost applies a partial update after re-validating dimensions
// and placement. On failure the post is left unchanged.
func (s *Store) UpdateWallPost(id domain.PostID, upd PostUpdate) error {
	p, err := s.Post(id)
	if err != nil {
		return err
	}
	next := *p
	if upd.PostType != nil {
		next.PostType = *upd.PostType
	}
	if upd.CenterOffset != nil {
		next.CenterOffset = *upd.CenterOffset
	}
	if upd.Width != nil {
		next.Width = *upd.Width
	}
	if upd.Thickness != nil {
		next.Thickness = *upd.Thickness
	}
	if next.Width <= 0 || next.Thickness <= 0 {
		return fmt.Errorf("post width/thickness must be > 0: %w", ErrInvalid)
	}
	w := s.walls[next.WallID]
	if !s.placementValid(w, next.CenterOffset, next.Width, string(id)) {
		return fmt.Errorf("post placement at %v (width %v): %w", next.CenterOffset, next.Width, ErrInvalid)
	}
	*p = next
	s.entityGeo[string(id)] = ComputeEntityGeometry(s.wallGeo[p.WallID], p.CenterOffset, p.Width)
	return nil
}

// RemoveWallOpening deletes an opening. Unknown IDs are a silent no-op:
// cascading removals may have deleted the opening already.
func (s *Store) RemoveWallOpening(id domain.OpeningID) {
	o, ok := s.openings[id]
	if !ok {
		return
	}
	s.detachEntity(o.WallID, string(id))
	delete(s.openings, id)
	delete(s.entityGeo, string(id))
}

// RemoveWallPost deletes a post. Unknown IDs are a silent no-op.
func (s *Store) RemoveWallPost(id domain.PostID) {
	p, ok := s.posts[id]
	if !ok {
		return
	}
	s.detachEntity(p.WallID, string(id))
	delete(s.posts, id)
	delete(s.entityGeo, string(id))
}

func (s *Store) detachEntity(wallID domain.WallID, id string) {
	w, ok := s.walls[wallID]
	if !ok {
		return
	}
	for i, eid := range w.EntityIDs {
		if eid == id {
			w.EntityIDs = append(w.EntityIDs[:i], w.EntityIDs[i+1:]...)
			return
		}
	}
}
