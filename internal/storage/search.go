/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes an entity catalog lookup. All filters are optional;
// Term matches the label with a case-insensitive contains. Kinds restricts
// to entity kinds (wall, corner, opening, post, constraint, perimeter,
// storey). Limit/Offset implement pagination with defaults applied if zero.
type SearchQuery struct {
	Term     string
	Kinds    []string
	StoreyID string
	WallID   string
	Limit    int
	Offset   int
}

// SearchResult represents a single catalog row.
type SearchResult struct {
	EntityID    string
	Kind        string
	StoreyID    string
	PerimeterID string
	WallID      string
	Label       string
}

// Search queries the embedded entity catalog with optional filters.
func Search(ctx context.Context, planRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(planRoot) == "" {
		return nil, errors.New("plan root is required")
	}
	db, err := InitOrOpenIndex(planRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT entity_id, kind, COALESCE(storey_id,''), COALESCE(perimeter_id,''), COALESCE(wall_id,''), COALESCE(label,'')\n")
	sb.WriteString("FROM entities\nWHERE 1=1\n")
	if s := strings.TrimSpace(q.Term); s != "" {
		sb.WriteString(" AND lower(label) LIKE ?\n")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, k)
		}
	}
	if s := strings.TrimSpace(q.StoreyID); s != "" {
		sb.WriteString(" AND storey_id = ?\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.WallID); s != "" {
		sb.WriteString(" AND wall_id = ?\n")
		args = append(args, s)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY kind, entity_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.EntityID, &r.Kind, &r.StoreyID, &r.PerimeterID, &r.WallID, &r.Label); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
