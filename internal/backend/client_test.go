/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientListPlans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/plans" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"stable_id":"ab","name":"House A","updated_at":"2026-03-01T12:00:00Z","version":3}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok-123")
	plans, err := c.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].Name != "House A" || plans[0].Version != 3 {
		t.Fatalf("plans = %+v", plans)
	}
}

func TestClientGetSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/plans/7/snapshot" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plan_id":7,"version":2,"created_at":"2026-03-01T12:00:00Z","model":{"walls":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	env, err := c.GetSnapshot(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if env.PlanID != 7 || env.Version != 2 {
		t.Fatalf("envelope = %+v", env)
	}
	var model map[string]any
	if err := json.Unmarshal(env.Model, &model); err != nil {
		t.Fatalf("model payload not JSON: %v", err)
	}
	if _, ok := model["walls"]; !ok {
		t.Fatalf("model payload missing walls: %v", model)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	if _, err := c.ListPlans(context.Background()); err == nil {
		t.Fatalf("expected error on 401")
	}
}
