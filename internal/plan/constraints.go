/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package plan

// Constraint CRUD plus the transfer engine that rewrites constraints
// across topology transitions so no constraint ever references a deleted
// entity and the preserved ones keep their meaning (split lengths are
// apportioned, merged lengths summed).

import (
	"fmt"
	"log/slog"
	"sort"

	"gofloorplan/internal/domain"
)

// AddConstraint validates a constraint against the current topology and
// stores it. A zero ID is filled in; the stored value is returned.
func (s *Store) AddConstraint(c domain.Constraint) (domain.Constraint, error) {
	switch c.Kind {
	case domain.ConstraintColinearCorner, domain.ConstraintPerpendicularCorner:
		if _, ok := s.corners[c.Corner]; !ok {
			return domain.Constraint{}, fmt.Errorf("constraint corner %s: %w", c.Corner, ErrNotFound)
		}
	case domain.ConstraintParallel:
		if _, ok := s.walls[c.WallA]; !ok {
			return domain.Constraint{}, fmt.Errorf("constraint wall %s: %w", c.WallA, ErrNotFound)
		}
		if _, ok := s.walls[c.WallB]; !ok {
			return domain.Constraint{}, fmt.Errorf("constraint wall %s: %w", c.WallB, ErrNotFound)
		}
		if c.WallA == c.WallB {
			return domain.Constraint{}, fmt.Errorf("parallel constraint on a single wall: %w", ErrInvalid)
		}
	case domain.ConstraintWallLength:
		if _, ok := s.walls[c.Wall]; !ok {
			return domain.Constraint{}, fmt.Errorf("constraint wall %s: %w", c.Wall, ErrNotFound)
		}
		if c.Side != domain.WallSideLeft && c.Side != domain.WallSideRight {
			return domain.Constraint{}, fmt.Errorf("wallLength side %q: %w", c.Side, ErrInvalid)
		}
		if c.Length <= 0 {
			return domain.Constraint{}, fmt.Errorf("wallLength length must be > 0, got %v: %w", c.Length, ErrInvalid)
		}
	case domain.ConstraintHorizontalWall, domain.ConstraintVerticalWall:
		if _, ok := s.walls[c.Wall]; !ok {
			return domain.Constraint{}, fmt.Errorf("constraint wall %s: %w", c.Wall, ErrNotFound)
		}
	default:
		return domain.Constraint{}, fmt.Errorf("constraint kind %q: %w", c.Kind, ErrInvalid)
	}
	if c.ID == "" {
		c.ID = domain.NewConstraintID()
	}
	s.putConstraint(c)
	return c, nil
}

// RemoveConstraint deletes a constraint by ID.
func (s *Store) RemoveConstraint(id domain.ConstraintID) error {
	if _, ok := s.constraints[id]; !ok {
		return fmt.Errorf("constraint %s: %w", id, ErrNotFound)
	}
	delete(s.constraints, id)
	return nil
}

// Constraints returns all constraints sorted by ID.
func (s *Store) Constraints() []domain.Constraint {
	out := make([]domain.Constraint, 0, len(s.constraints))
	for _, c := range s.constraints {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConstraintsForWall returns the constraints mentioning a wall, sorted by ID.
func (s *Store) ConstraintsForWall(id domain.WallID) []domain.Constraint {
	var out []domain.Constraint
	for _, c := range s.constraints {
		if c.ReferencesWall(id) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConstraintsForCorner returns the constraints mentioning a corner, sorted by ID.
func (s *Store) ConstraintsForCorner(id domain.CornerID) []domain.Constraint {
	var out []domain.Constraint
	for _, c := range s.constraints {
		if c.ReferencesCorner(id) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) putConstraint(c domain.Constraint) {
	s.constraints[c.ID] = c
}

func (s *Store) dropConstraintsReferencingWall(id domain.WallID) {
	for cid, c := range s.constraints {
		if c.ReferencesWall(id) {
			delete(s.constraints, cid)
		}
	}
}

func (s *Store) dropConstraintsReferencingCorner(id domain.CornerID) {
	for cid, c := range s.constraints {
		if c.ReferencesCorner(id) {
			delete(s.constraints, cid)
		}
	}
}

// TransitionKind names a topology transition the transfer engine knows.
type TransitionKind string

const (
	TransitionSplit TransitionKind = "split"
	TransitionMerge TransitionKind = "merge"
)

// TransferContext carries everything a transfer rule may need about one
// transition. Split fields are set for TransitionSplit, merge fields for
// TransitionMerge. All holds the pre-transition constraint set so pairing
// rules (merged wallLength, merged axis) can look across constraints.
type TransferContext struct {
	Kind TransitionKind

	// split
	SplitWall    domain.WallID
	NewWall      domain.WallID
	SplitCorner  domain.CornerID
	FirstLength  float64 // length of SplitWall after the split
	SecondLength float64 // length of NewWall

	// merge
	RemovedCorner domain.CornerID
	Survivor      domain.WallID
	Absorbed      domain.WallID

	All []domain.Constraint
}

// TransferRule maps one pre-transition constraint to its post-transition
// replacements: the constraint itself to keep it, several to fan out, an
// empty slice to drop it.
type TransferRule func(c domain.Constraint, ctx TransferContext) []domain.Constraint

// transferRules is the dispatch table. A missing entry means the kind
// passes through the transition untouched.
var transferRules = map[TransitionKind]map[domain.ConstraintKind]TransferRule{
	TransitionSplit: {
		domain.ConstraintParallel:       splitParallel,
		domain.ConstraintWallLength:     splitWallLength,
		domain.ConstraintHorizontalWall: splitAxis,
		domain.ConstraintVerticalWall:   splitAxis,
	},
	TransitionMerge: {
		domain.ConstraintColinearCorner:      mergeCornerConstraint,
		domain.ConstraintPerpendicularCorner: mergeCornerConstraint,
		domain.ConstraintParallel:            mergeParallel,
		domain.ConstraintWallLength:          mergeWallLength,
		domain.ConstraintHorizontalWall:      mergeAxis,
		domain.ConstraintVerticalWall:        mergeAxis,
	},
}

// splitParallel keeps the original and adds a copy binding the new wall.
// A fixed Distance is not carried onto the copy: the two halves are
// colinear, so the original distance already pins both.
func splitParallel(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.WallA != ctx.SplitWall && c.WallB != ctx.SplitWall {
		return []domain.Constraint{c}
	}
	dup := c
	dup.ID = domain.NewConstraintID()
	dup.Distance = nil
	if c.WallA == ctx.SplitWall {
		dup.WallA = ctx.NewWall
	} else {
		dup.WallB = ctx.NewWall
	}
	return []domain.Constraint{c, dup}
}

// splitWallLength apportions the constrained length over the two halves
// in proportion to the geometric split, keeping the measured side.
func splitWallLength(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.Wall != ctx.SplitWall {
		return []domain.Constraint{c}
	}
	total := ctx.FirstLength + ctx.SecondLength
	first := c
	first.Length = c.Length * ctx.FirstLength / total
	second := c
	second.ID = domain.NewConstraintID()
	second.Wall = ctx.NewWall
	second.Length = c.Length - first.Length
	return []domain.Constraint{first, second}
}

// splitAxis duplicates a horizontal/vertical constraint onto the new wall.
func splitAxis(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.Wall != ctx.SplitWall {
		return []domain.Constraint{c}
	}
	dup := c
	dup.ID = domain.NewConstraintID()
	dup.Wall = ctx.NewWall
	return []domain.Constraint{c, dup}
}

// mergeCornerConstraint drops constraints anchored at the corner that
// ceases to exist; corner constraints elsewhere are unaffected.
func mergeCornerConstraint(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.Corner == ctx.RemovedCorner {
		return nil
	}
	return []domain.Constraint{c}
}

// mergeParallel repoints references to the absorbed wall at the survivor,
// dropping a constraint that collapses onto a single wall.
func mergeParallel(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.WallA == ctx.Absorbed {
		c.WallA = ctx.Survivor
	}
	if c.WallB == ctx.Absorbed {
		c.WallB = ctx.Survivor
	}
	if c.WallA == c.WallB {
		return nil
	}
	return []domain.Constraint{c}
}

// mergeWallLength sums the two halves' lengths into one constraint on the
// survivor when both walls constrain the same side. A length on only one
// half no longer states anything about the merged wall and is dropped.
func mergeWallLength(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.Wall == ctx.Absorbed {
		// emitted from the survivor side, if at all
		return nil
	}
	if c.Wall != ctx.Survivor {
		return []domain.Constraint{c}
	}
	for _, o := range ctx.All {
		if o.Kind == domain.ConstraintWallLength && o.Wall == ctx.Absorbed && o.Side == c.Side {
			c.Length += o.Length
			return []domain.Constraint{c}
		}
	}
	return nil
}

// mergeAxis keeps a horizontal/vertical constraint once when both halves
// carried it, drops it otherwise.
func mergeAxis(c domain.Constraint, ctx TransferContext) []domain.Constraint {
	if c.Wall == ctx.Absorbed {
		return nil
	}
	if c.Wall != ctx.Survivor {
		return []domain.Constraint{c}
	}
	for _, o := range ctx.All {
		if o.Kind == c.Kind && o.Wall == ctx.Absorbed {
			return []domain.Constraint{c}
		}
	}
	return nil
}

// ApplyTransfer runs the transfer rules for one transition over a
// constraint set and returns the post-transition set. Pure function; the
// store wraps it in applyTransfer.
func ApplyTransfer(constraints []domain.Constraint, ctx TransferContext) []domain.Constraint {
	ctx.All = constraints
	rules := transferRules[ctx.Kind]
	out := make([]domain.Constraint, 0, len(constraints))
	for _, c := range constraints {
		rule, ok := rules[c.Kind]
		if !ok {
			out = append(out, c)
			continue
		}
		out = append(out, rule(c, ctx)...)
	}
	return out
}

func (s *Store) applyTransfer(ctx TransferContext) {
	before := s.Constraints()
	after := ApplyTransfer(before, ctx)
	s.constraints = make(map[domain.ConstraintID]domain.Constraint, len(after))
	for _, c := range after {
		s.constraints[c.ID] = c
	}
	if len(after) != len(before) {
		s.log.Debug("constraints transferred",
			slog.String("transition", string(ctx.Kind)),
			slog.Int("before", len(before)),
			slog.Int("after", len(after)))
	}
}
