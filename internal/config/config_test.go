/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"testing"
)

type fakeTokenStore struct {
	values map[string]string
}

func (f *fakeTokenStore) Get(service, key string) (string, error) {
	v, ok := f.values[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeTokenStore) Set(service, key, value string) error {
	f.values[service+"/"+key] = value
	return nil
}
func (f *fakeTokenStore) Delete(service, key string) error {
	delete(f.values, service+"/"+key)
	return nil
}

func withFakeKeyring(t *testing.T) *fakeTokenStore {
	t.Helper()
	old := tokenStore
	fs := &fakeTokenStore{values: map[string]string{}}
	tokenStore = fs
	t.Cleanup(func() { tokenStore = old })
	return fs
}

func TestEnvOverridesBackendURL(t *testing.T) {
	withFakeKeyring(t)
	old := os.Getenv(EnvBackendURL)
	_ = os.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	withFakeKeyring(t)
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeIncludesExport(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Export.PageSize = "a3"
	src.Export.Scale = 50
	src.Export.MarginMm = 15
	mergeInto(&dst, &src)
	if dst.Export.PageSize != "A3" || dst.Export.Scale != 50 || dst.Export.MarginMm != 15 {
		t.Fatalf("export fields not merged correctly: %#v", dst.Export)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/gfp.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gfp.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesExportScale(t *testing.T) {
	withFakeKeyring(t)
	old := os.Getenv(EnvExportScale)
	_ = os.Setenv(EnvExportScale, "50")
	t.Cleanup(func() { _ = os.Setenv(EnvExportScale, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Export.Scale != 50 {
		t.Fatalf("Export.Scale = %v, want 50", cfg.Export.Scale)
	}
	if env, ok := EnvOverrideFor("export.scale"); !ok || env != EnvExportScale {
		t.Fatalf("EnvOverrideFor(export.scale) = %q, %v", env, ok)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	fs := withFakeKeyring(t)
	fs.values[keyringService+"/"+keyringToken] = "secret-token"
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "secret-token" {
		t.Fatalf("token = %q, want secret-token", tok)
	}
}
