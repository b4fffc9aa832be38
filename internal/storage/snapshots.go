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
	"encoding/json"
	"errors"
	"time"

	"gofloorplan/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(ts, label, model_blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, model_blob FROM snapshots ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, label, model_blob FROM snapshots ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY ts DESC LIMIT ?
)`

// Snapshot is one stored model state.
type Snapshot struct {
	TS    time.Time
	Label string
	Model domain.Model
}

// SaveSnapshot persists the whole topology model as a labeled snapshot.
func SaveSnapshot(ctx context.Context, ph *PlanHandle, m domain.Model, label string, ts time.Time) error {
	if ph == nil {
		return errors.New("nil PlanHandle")
	}
	blob, err := json.Marshal(m)
	if err != nil {
		return err
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, ts.UTC().Format(time.RFC3339Nano), label, blob)
	return err
}

// GetLatestSnapshot returns the latest snapshot model, or ok=false if none.
func GetLatestSnapshot(ctx context.Context, ph *PlanHandle) (domain.Model, time.Time, bool, error) {
	if ph == nil {
		return domain.Model{}, time.Time{}, false, errors.New("nil PlanHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return domain.Model{}, time.Time{}, false, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Model{}, time.Time{}, false, nil
	}
	if err != nil {
		return domain.Model{}, time.Time{}, false, err
	}
	var m domain.Model
	if err := json.Unmarshal(blob, &m); err != nil {
		return domain.Model{}, time.Time{}, false, err
	}
	ts, _ := time.Parse(time.RFC3339Nano, tsStr)
	return m, ts, true, nil
}

// ListSnapshots returns up to limit most recent snapshots.
func ListSnapshots(ctx context.Context, ph *PlanHandle, limit int) ([]Snapshot, error) {
	if ph == nil {
		return nil, errors.New("nil PlanHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		var tsStr string
		var label sql.NullString
		var blob []byte
		if err := rows.Scan(&tsStr, &label, &blob); err != nil {
			return nil, err
		}
		var m domain.Model
		if err := json.Unmarshal(blob, &m); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Snapshot{TS: ts, Label: label.String, Model: m})
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast snapshots and deletes older ones.
func PruneOldSnapshots(ctx context.Context, ph *PlanHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil PlanHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
