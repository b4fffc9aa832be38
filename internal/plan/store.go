/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package plan implements the parametric floor-plan topology engine: an
// owning store of perimeters, walls, corners and wall entities, the
// geometry derivation for all of them, placement validation, the topology
// editor (split/merge/remove) and the constraint transfer engine.
//
// The store is single-threaded by contract: one edit session at a time,
// every public operation runs to completion. Operations validate all
// inputs before touching any collection, so a failed call leaves the
// store exactly as it was.
package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gofloorplan/internal/domain"
	"gofloorplan/internal/geom"
	applog "gofloorplan/internal/log"
)

// Error classes of the engine. Callers discriminate with errors.Is.
var (
	// ErrNotFound marks lookups or mutations naming an unknown entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks validation failures: bad dimensions, invalid
	// placement, degenerate boundary polygons.
	ErrInvalid = errors.New("invalid")
	// ErrNotApplicable marks topology transitions whose precondition does
	// not hold (merge at a non-colinear corner, split outside the wall).
	// The call is a no-op; UI code probes these interactively.
	ErrNotApplicable = errors.New("not applicable")
)

// Store owns all topology entities of one plan and their derived geometry
// caches. Caches are recomputed after every mutation that can affect them
// and are never edited directly.
type Store struct {
	perimeters  map[domain.PerimeterID]*domain.Perimeter
	walls       map[domain.WallID]*domain.PerimeterWall
	corners     map[domain.CornerID]*domain.PerimeterCorner
	openings    map[domain.OpeningID]*domain.Opening
	posts       map[domain.PostID]*domain.WallPost
	constraints map[domain.ConstraintID]domain.Constraint

	cornerGeo map[domain.CornerID]CornerGeometry
	wallGeo   map[domain.WallID]WallGeometry
	entityGeo map[string]EntityGeometry

	log *slog.Logger
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		perimeters:  map[domain.PerimeterID]*domain.Perimeter{},
		walls:       map[domain.WallID]*domain.PerimeterWall{},
		corners:     map[domain.CornerID]*domain.PerimeterCorner{},
		openings:    map[domain.OpeningID]*domain.Opening{},
		posts:       map[domain.PostID]*domain.WallPost{},
		constraints: map[domain.ConstraintID]domain.Constraint{},
		cornerGeo:   map[domain.CornerID]CornerGeometry{},
		wallGeo:     map[domain.WallID]WallGeometry{},
		entityGeo:   map[string]EntityGeometry{},
		log:         applog.WithComponent("plan"),
	}
}

// AddPerimeter creates a closed wall loop for a storey from a boundary
// polygon lying on the reference side (inside by default). The boundary
// must have at least three points and must not self-intersect.
func (s *Store) AddPerimeter(storeyID string, boundary []geom.Pt, wallAssemblyID string, thickness float64) (*domain.Perimeter, error) {
	if len(boundary) < 3 {
		return nil, fmt.Errorf("boundary needs at least 3 points, got %d: %w", len(boundary), ErrInvalid)
	}
	if thickness <= 0 {
		return nil, fmt.Errorf("thickness must be > 0, got %v: %w", thickness, ErrInvalid)
	}
	ring := geom.Polygon(boundary)
	for i, p := range ring {
		if p.AlmostEqual(ring[(i+1)%len(ring)], geom.Eps) {
			return nil, fmt.Errorf("boundary has coincident consecutive points: %w", ErrInvalid)
		}
	}
	if ring.SelfIntersects() {
		return nil, fmt.Errorf("boundary self-intersects: %w", ErrInvalid)
	}
	ring = ring.Normalized()

	p := &domain.Perimeter{
		ID:            domain.NewPerimeterID(),
		StoreyID:      storeyID,
		ReferenceSide: domain.ReferenceInside,
	}
	n := len(ring)
	cornerIDs := make([]domain.CornerID, n)
	wallIDs := make([]domain.WallID, n)
	for i := range ring {
		cornerIDs[i] = domain.NewCornerID()
		wallIDs[i] = domain.NewWallID()
	}
	for i, pt := range ring {
		s.corners[cornerIDs[i]] = &domain.PerimeterCorner{
			ID:             cornerIDs[i],
			PerimeterID:    p.ID,
			PreviousWallID: wallIDs[(i+n-1)%n],
			NextWallID:     wallIDs[i],
			ReferencePoint: pt,
			ConstructedBy:  domain.ConstructedByNext,
		}
	}
	for i := range ring {
		s.walls[wallIDs[i]] = &domain.PerimeterWall{
			ID:             wallIDs[i],
			PerimeterID:    p.ID,
			StartCornerID:  cornerIDs[i],
			EndCornerID:    cornerIDs[(i+1)%n],
			Thickness:      thickness,
			WallAssemblyID: wallAssemblyID,
			EntityIDs:      []string{},
		}
	}
	p.WallIDs = wallIDs
	p.CornerIDs = cornerIDs
	s.perimeters[p.ID] = p
	s.recomputePerimeter(p.ID)
	s.log.Info("perimeter added", slog.String("perimeter", string(p.ID)), slog.Int("walls", n))
	return p, nil
}

// RemovePerimeter deletes a perimeter and cascades over all of its walls,
// corners, entities, geometry caches and constraints.
func (s *Store) RemovePerimeter(id domain.PerimeterID) error {
	p, ok := s.perimeters[id]
	if !ok {
		return fmt.Errorf("perimeter %s: %w", id, ErrNotFound)
	}
	for _, wid := range p.WallIDs {
		s.dropWallEntities(s.walls[wid])
		s.dropConstraintsReferencingWall(wid)
		delete(s.wallGeo, wid)
		delete(s.walls, wid)
	}
	for _, cid := range p.CornerIDs {
		s.dropConstraintsReferencingCorner(cid)
		delete(s.cornerGeo, cid)
		delete(s.corners, cid)
	}
	delete(s.perimeters, id)
	return nil
}

// Perimeter returns a perimeter by ID.
func (s *Store) Perimeter(id domain.PerimeterID) (*domain.Perimeter, error) {
	p, ok := s.perimeters[id]
	if !ok {
		return nil, fmt.Errorf("perimeter %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Wall returns a perimeter wall by ID.
func (s *Store) Wall(id domain.WallID) (*domain.PerimeterWall, error) {
	w, ok := s.walls[id]
	if !ok {
		return nil, fmt.Errorf("wall %s: %w", id, ErrNotFound)
	}
	return w, nil
}

// Corner returns a perimeter corner by ID.
func (s *Store) Corner(id domain.CornerID) (*domain.PerimeterCorner, error) {
	c, ok := s.corners[id]
	if !ok {
		return nil, fmt.Errorf("corner %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Opening returns a wall opening by ID.
func (s *Store) Opening(id domain.OpeningID) (*domain.Opening, error) {
	o, ok := s.openings[id]
	if !ok {
		return nil, fmt.Errorf("opening %s: %w", id, ErrNotFound)
	}
	return o, nil
}

// Post returns a wall post by ID.
func (s *Store) Post(id domain.PostID) (*domain.WallPost, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// WallEntity is the tagged variant over the two entity kinds that can sit
// on a wall. Exactly one of Opening/Post is non-nil.
type WallEntity struct {
	Opening *domain.Opening
	Post    *domain.WallPost
}

// CenterOffset returns the entity's center offset from wall start.
func (e WallEntity) CenterOffset() float64 {
	if e.Opening != nil {
		return e.Opening.CenterOffset
	}
	return e.Post.CenterOffset
}

// Width returns the entity's width along the wall.
func (e WallEntity) Width() float64 {
	if e.Opening != nil {
		return e.Opening.Width
	}
	return e.Post.Width
}

// ID returns the entity's ID as an untyped string.
func (e WallEntity) ID() string {
	if e.Opening != nil {
		return string(e.Opening.ID)
	}
	return string(e.Post.ID)
}

// WallEntity resolves an untyped entity ID to whichever of opening or post
// it names. The ID's kind prefix routes the lookup; an ID of any other
// kind (or no known kind) is reported as not found.
func (s *Store) WallEntity(id string) (WallEntity, error) {
	switch domain.KindOf(id) {
	case domain.KindOpening:
		if o, ok := s.openings[domain.OpeningID(id)]; ok {
			return WallEntity{Opening: o}, nil
		}
	case domain.KindPost:
		if p, ok := s.posts[domain.PostID(id)]; ok {
			return WallEntity{Post: p}, nil
		}
	}
	return WallEntity{}, fmt.Errorf("wall entity %s: %w", id, ErrNotFound)
}

// wallEntities collects the resolved entities on a wall, excluding the
// given entity ID (empty string excludes nothing).
func (s *Store) wallEntities(w *domain.PerimeterWall, exclude string) []WallEntity {
	out := make([]WallEntity, 0, len(w.EntityIDs))
	for _, id := range w.EntityIDs {
		if id == exclude {
			continue
		}
		if e, err := s.WallEntity(id); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// CornerGeometryOf returns the derived geometry cache for a corner.
func (s *Store) CornerGeometryOf(id domain.CornerID) (CornerGeometry, error) {
	g, ok := s.cornerGeo[id]
	if !ok {
		return CornerGeometry{}, fmt.Errorf("corner geometry %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// WallGeometryOf returns the derived geometry cache for a wall.
func (s *Store) WallGeometryOf(id domain.WallID) (WallGeometry, error) {
	g, ok := s.wallGeo[id]
	if !ok {
		return WallGeometry{}, fmt.Errorf("wall geometry %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// EntityGeometryOf returns the derived geometry cache for an opening or
// post by its untyped ID.
func (s *Store) EntityGeometryOf(id string) (EntityGeometry, error) {
	g, ok := s.entityGeo[id]
	if !ok {
		return EntityGeometry{}, fmt.Errorf("entity geometry %s: %w", id, ErrNotFound)
	}
	return g, nil
}

// Snapshot flattens the store into a deterministic, serializable model.
func (s *Store) Snapshot() domain.Model {
	m := domain.Model{
		Perimeters:  make([]domain.Perimeter, 0, len(s.perimeters)),
		Walls:       make([]domain.PerimeterWall, 0, len(s.walls)),
		Corners:     make([]domain.PerimeterCorner, 0, len(s.corners)),
		Openings:    make([]domain.Opening, 0, len(s.openings)),
		Posts:       make([]domain.WallPost, 0, len(s.posts)),
		Constraints: make([]domain.Constraint, 0, len(s.constraints)),
	}
	for _, p := range s.perimeters {
		m.Perimeters = append(m.Perimeters, *p)
	}
	for _, w := range s.walls {
		m.Walls = append(m.Walls, *w)
	}
	for _, c := range s.corners {
		m.Corners = append(m.Corners, *c)
	}
	for _, o := range s.openings {
		m.Openings = append(m.Openings, *o)
	}
	for _, p := range s.posts {
		m.Posts = append(m.Posts, *p)
	}
	for _, c := range s.constraints {
		m.Constraints = append(m.Constraints, c)
	}
	sort.Slice(m.Perimeters, func(i, j int) bool { return m.Perimeters[i].ID < m.Perimeters[j].ID })
	sort.Slice(m.Walls, func(i, j int) bool { return m.Walls[i].ID < m.Walls[j].ID })
	sort.Slice(m.Corners, func(i, j int) bool { return m.Corners[i].ID < m.Corners[j].ID })
	sort.Slice(m.Openings, func(i, j int) bool { return m.Openings[i].ID < m.Openings[j].ID })
	sort.Slice(m.Posts, func(i, j int) bool { return m.Posts[i].ID < m.Posts[j].ID })
	sort.Slice(m.Constraints, func(i, j int) bool { return m.Constraints[i].ID < m.Constraints[j].ID })
	return m
}

// LoadStore builds a store from a serialized model, verifies the loop
// invariants of every perimeter and recomputes all geometry.
func LoadStore(m domain.Model) (*Store, error) {
	s := NewStore()
	for i := range m.Perimeters {
		p := m.Perimeters[i]
		s.perimeters[p.ID] = &p
	}
	for i := range m.Walls {
		w := m.Walls[i]
		if w.EntityIDs == nil {
			w.EntityIDs = []string{}
		}
		s.walls[w.ID] = &w
	}
	for i := range m.Corners {
		c := m.Corners[i]
		s.corners[c.ID] = &c
	}
	for i := range m.Openings {
		o := m.Openings[i]
		s.openings[o.ID] = &o
	}
	for i := range m.Posts {
		p := m.Posts[i]
		s.posts[p.ID] = &p
	}
	for _, c := range m.Constraints {
		s.constraints[c.ID] = c
	}
	for _, p := range s.perimeters {
		if err := s.checkLoop(p); err != nil {
			return nil, err
		}
		s.recomputePerimeter(p.ID)
	}
	return s, nil
}

// checkLoop verifies the structural invariants of a perimeter: equal wall
// and corner counts, n >= 3 and cyclic adjacency consistency.
func (s *Store) checkLoop(p *domain.Perimeter) error {
	n := len(p.WallIDs)
	if n < 3 || n != len(p.CornerIDs) {
		return fmt.Errorf("perimeter %s: %d walls, %d corners: %w", p.ID, n, len(p.CornerIDs), ErrInvalid)
	}
	for i := 0; i < n; i++ {
		w, ok := s.walls[p.WallIDs[i]]
		if !ok {
			return fmt.Errorf("perimeter %s: wall %s: %w", p.ID, p.WallIDs[i], ErrNotFound)
		}
		c, ok := s.corners[p.CornerIDs[i]]
		if !ok {
			return fmt.Errorf("perimeter %s: corner %s: %w", p.ID, p.CornerIDs[i], ErrNotFound)
		}
		if w.StartCornerID != p.CornerIDs[i] || w.EndCornerID != p.CornerIDs[(i+1)%n] {
			return fmt.Errorf("perimeter %s: wall %s corner refs out of order: %w", p.ID, w.ID, ErrInvalid)
		}
		if c.PreviousWallID != p.WallIDs[(i+n-1)%n] || c.NextWallID != p.WallIDs[i] {
			return fmt.Errorf("perimeter %s: corner %s wall refs out of order: %w", p.ID, c.ID, ErrInvalid)
		}
	}
	return nil
}

// dropWallEntities removes all openings and posts of a wall together with
// their geometry caches.
func (s *Store) dropWallEntities(w *domain.PerimeterWall) {
	for _, id := range w.EntityIDs {
		switch domain.KindOf(id) {
		case domain.KindOpening:
			delete(s.openings, domain.OpeningID(id))
		case domain.KindPost:
			delete(s.posts, domain.PostID(id))
		}
		delete(s.entityGeo, id)
	}
	w.EntityIDs = []string{}
}
