/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"gofloorplan/internal/domain"
	applog "gofloorplan/internal/log"
	"gofloorplan/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-plan ephemeral/index data under the plan root.
	IndexDirName  = ".gfp"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// IndexPath returns the full path to the plan's embedded index database file.
func IndexPath(planRoot string) string {
	return filepath.Join(planRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-plan SQLite index exists at
// .gfp/index.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version tables exist. The returned *sql.DB is ready for use.
func InitOrOpenIndex(planRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", planRoot),
	)
	if strings.TrimSpace(planRoot) == "" {
		return nil, errors.New("plan root is required")
	}
	if err := os.MkdirAll(filepath.Join(planRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .gfp dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gfp dir: %w", err)
	}

	path := IndexPath(planRoot)
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			// Add lookup indexes for wall- and storey-scoped queries
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_entities_wall ON entities(wall_id);`,
				`CREATE INDEX IF NOT EXISTS idx_entities_storey ON entities(storey_id);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// Unknown future step; break
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates core index tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// Entity catalog: one row per topology entity of the plan, used by
		// the search surface and the info command.
		`CREATE TABLE IF NOT EXISTS entities (
			entity_id    TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			storey_id    TEXT,
			perimeter_id TEXT,
			wall_id      TEXT,
			label        TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);`,
		`CREATE INDEX IF NOT EXISTS idx_entities_perimeter ON entities(perimeter_id);`,

		// Snapshots (history of model state, whole-model JSON blobs)
		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY,
			ts         TEXT NOT NULL,
			label      TEXT,
			model_blob BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds
// the index if needed. It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, planRoot string, plan domain.Plan) (bool, error) {
	path := IndexPath(planRoot)
	db, err := InitOrOpenIndex(planRoot)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := RebuildIndex(ctx, planRoot, plan); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM entities LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := RebuildIndex(ctx, planRoot, plan); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in
// .gfp/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// BuildIndexIfEmpty ensures the DB exists and, if the entities table is
// empty, populates it from the given manifest.
func BuildIndexIfEmpty(ctx context.Context, planRoot string, plan domain.Plan) error {
	db, err := InitOrOpenIndex(planRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	var cnt int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities;").Scan(&cnt); err != nil {
		return fmt.Errorf("check entities count: %w", err)
	}
	if cnt > 0 {
		return nil // already built
	}
	return rebuildEntitiesFromPlan(ctx, db, plan)
}

// UpdateIndex replaces the entity catalog from the provided manifest.
func UpdateIndex(ctx context.Context, planRoot string, plan domain.Plan) error {
	db, err := InitOrOpenIndex(planRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildEntitiesFromPlan(ctx, db, plan)
}

// RebuildIndex drops and recreates the entity catalog and rebuilds content
// from the manifest. Meta/version and snapshots are preserved; the catalog
// is derived from plan.json and disposable.
func RebuildIndex(ctx context.Context, planRoot string, plan domain.Plan) error {
	db, err := InitOrOpenIndex(planRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS entities;"); err != nil {
		return fmt.Errorf("drop entities: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return rebuildEntitiesFromPlan(ctx, db, plan)
}

// rebuildEntitiesFromPlan replaces the entities table content from the
// given plan manifest.
func rebuildEntitiesFromPlan(ctx context.Context, db *sql.DB, plan domain.Plan) error {
	type row struct {
		entityID    string
		kind        string
		storeyID    sql.NullString
		perimeterID sql.NullString
		wallID      sql.NullString
		label       string
	}
	ns := func(s string) sql.NullString {
		if strings.TrimSpace(s) == "" {
			return sql.NullString{}
		}
		return sql.NullString{String: s, Valid: true}
	}

	storeyOf := map[domain.PerimeterID]string{}
	rows := make([]row, 0, 256)
	for _, st := range plan.Storeys {
		rows = append(rows, row{entityID: st.ID, kind: "storey", storeyID: ns(st.ID), label: st.Name})
	}
	for _, p := range plan.Model.Perimeters {
		storeyOf[p.ID] = p.StoreyID
		rows = append(rows, row{
			entityID: string(p.ID), kind: "perimeter",
			storeyID: ns(p.StoreyID), perimeterID: ns(string(p.ID)),
			label: string(p.ReferenceSide),
		})
	}
	for _, w := range plan.Model.Walls {
		rows = append(rows, row{
			entityID: string(w.ID), kind: "wall",
			storeyID: ns(storeyOf[w.PerimeterID]), perimeterID: ns(string(w.PerimeterID)),
			wallID: ns(string(w.ID)), label: w.WallAssemblyID,
		})
	}
	for _, c := range plan.Model.Corners {
		rows = append(rows, row{
			entityID: string(c.ID), kind: "corner",
			storeyID: ns(storeyOf[c.PerimeterID]), perimeterID: ns(string(c.PerimeterID)),
			label: string(c.ConstructedBy),
		})
	}
	for _, o := range plan.Model.Openings {
		rows = append(rows, row{
			entityID: string(o.ID), kind: "opening",
			storeyID: ns(storeyOf[o.PerimeterID]), perimeterID: ns(string(o.PerimeterID)),
			wallID: ns(string(o.WallID)), label: o.OpeningType,
		})
	}
	for _, p := range plan.Model.Posts {
		rows = append(rows, row{
			entityID: string(p.ID), kind: "post",
			storeyID: ns(storeyOf[p.PerimeterID]), perimeterID: ns(string(p.PerimeterID)),
			wallID: ns(string(p.WallID)), label: p.PostType,
		})
	}
	for _, c := range plan.Model.Constraints {
		wallID := c.Wall
		if wallID == "" {
			wallID = c.WallA
		}
		rows = append(rows, row{
			entityID: string(c.ID), kind: "constraint",
			wallID: ns(string(wallID)), label: string(c.Kind),
		})
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM entities;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear entities: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO entities(entity_id, kind, storey_id, perimeter_id, wall_id, label) VALUES(?,?,?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, r.entityID, r.kind, r.storeyID, r.perimeterID, r.wallID, r.label); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert entity: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
