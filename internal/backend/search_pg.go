/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gofloorplan/internal/storage"
)

// SearchPG executes a search over the Postgres plan_entities table and
// returns results mapped to storage.SearchResult to ease parity checks
// against the local SQLite index.
func SearchPG(ctx context.Context, db *sql.DB, planID int64, q storage.SearchQuery) ([]storage.SearchResult, error) {
	var (
		args []any
		b    strings.Builder
	)
	b.WriteString("SELECT e.entity_id, e.kind, COALESCE(e.storey_id,''), COALESCE(e.perimeter_id,''), COALESCE(e.wall_id,''), COALESCE(e.label,'') ")
	b.WriteString("FROM plan_entities e WHERE e.plan_id = $1 ")
	args = append(args, planID)

	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if s := strings.TrimSpace(q.Term); s != "" {
		b.WriteString(" AND lower(COALESCE(e.label,'')) LIKE " + place("%"+strings.ToLower(s)+"%") + " ")
	}
	if len(q.Kinds) > 0 {
		b.WriteString(" AND e.kind = ANY (" + place(q.Kinds) + ") ")
	}
	if q.StoreyID != "" {
		b.WriteString(" AND e.storey_id = " + place(q.StoreyID) + " ")
	}
	if q.WallID != "" {
		b.WriteString(" AND e.wall_id = " + place(q.WallID) + " ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY e.kind, e.entity_id ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.EntityID, &r.Kind, &r.StoreyID, &r.PerimeterID, &r.WallID, &r.Label); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SyncEntities replaces the server-side entity catalog for a plan with the
// rows from a freshly flattened model. Runs in one transaction.
func SyncEntities(ctx context.Context, db *sql.DB, planID int64, rows []storage.SearchResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM plan_entities WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_entities(entity_id, plan_id, kind, storey_id, perimeter_id, wall_id, label) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.EntityID, planID, r.Kind, r.StoreyID, r.PerimeterID, r.WallID, r.Label); err != nil {
			return fmt.Errorf("insert entity %s: %w", r.EntityID, err)
		}
	}
	return tx.Commit()
}
