/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gofloorplan/internal/backend"
	"gofloorplan/internal/config"
	"gofloorplan/internal/crash"
	"gofloorplan/internal/domain"
	"gofloorplan/internal/export"
	"gofloorplan/internal/geom"
	applog "gofloorplan/internal/log"
	"gofloorplan/internal/plan"
	"gofloorplan/internal/storage"
	"gofloorplan/internal/telemetry"
	"gofloorplan/internal/version"
)

func usage() {
	fmt.Println("GoFloorPlan - parametric floor plan tool")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gofloorplan version|-v|--version              Show version")
	fmt.Println("  gofloorplan init <dir> <name> [flags]          Create a plan with one rectangular storey perimeter")
	fmt.Println("      -width mm -depth mm -thickness mm")
	fmt.Println("  gofloorplan info <dir>                         Open plan at <dir> and print a topology summary")
	fmt.Println("  gofloorplan check <dir>                        Validate manifest and perimeter loop invariants")
	fmt.Println("  gofloorplan export <dir> pdf|png [out]         Export plan sheets (pdf) or previews (png)")
	fmt.Println("  gofloorplan serve                              Run the sync backend server")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var ph *storage.PlanHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
	case "init":
		ph = cmdInit(l, args[2:])
	case "info":
		ph = cmdInfo(l, args[2:])
	case "check":
		ph = cmdCheck(l, args[2:])
	case "export":
		ph = cmdExport(l, args[2:])
	case "serve":
		l.Info("starting sync server")
		if err := backend.Start(); err != nil {
			l.Error("server failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func cmdInit(l *slog.Logger, args []string) *storage.PlanHandle {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	width := fs.Float64("width", 10000, "inside width in mm")
	depth := fs.Float64("depth", 8000, "inside depth in mm")
	thickness := fs.Float64("thickness", 420, "wall thickness in mm")
	assembly := fs.String("assembly", "asm-wall-ext", "wall assembly id")
	if len(args) < 2 {
		fmt.Println("init requires <dir> and <name>")
		usage()
		os.Exit(2)
	}
	dir, name := args[0], args[1]
	_ = fs.Parse(args[2:])

	abs, _ := filepath.Abs(dir)
	l.Info("init plan", slog.String("root", abs), slog.String("name", name))

	s := plan.NewStore()
	if _, err := s.AddPerimeter("storey-0", []geom.Pt{
		{X: 0, Y: 0},
		{X: *width, Y: 0},
		{X: *width, Y: *depth},
		{X: 0, Y: *depth},
	}, *assembly, *thickness); err != nil {
		fail(l, "init failed", err)
	}
	p := domain.Plan{
		Name:    name,
		Storeys: []domain.Storey{{ID: "storey-0", Name: "Ground floor", Level: 0, Height: 2600}},
		Model:   s.Snapshot(),
	}
	ph, err := storage.InitPlan(abs, p)
	if err != nil {
		fail(l, "init failed", err)
	}
	if err := storage.UpdateIndex(context.Background(), abs, ph.Plan); err != nil {
		l.Warn("index build failed", slog.Any("err", err))
	}
	telemetry.Event("plan_created", map[string]any{"walls": 4})
	fmt.Println("Created plan at", abs)
	return ph
}

func cmdInfo(l *slog.Logger, args []string) *storage.PlanHandle {
	ph := openPlan(l, args, "info")
	st, err := plan.LoadStore(ph.Plan.Model)
	if err != nil {
		fail(l, "model invalid", err)
	}
	telemetry.Event("plan_opened", nil)

	fmt.Printf("Plan: %s\n", ph.Plan.Name)
	fmt.Printf("Storeys: %d\n", len(ph.Plan.Storeys))
	for _, p := range ph.Plan.Model.Perimeters {
		var inside, outside float64
		for _, wid := range p.WallIDs {
			if wg, err := st.WallGeometryOf(wid); err == nil {
				inside += wg.InsideLength
				outside += wg.OutsideLength
			}
		}
		fmt.Printf("Perimeter %s (storey %s): %d walls, %d corners, reference %s\n",
			p.ID, p.StoreyID, len(p.WallIDs), len(p.CornerIDs), p.ReferenceSide)
		fmt.Printf("  inside %.0f mm, outside %.0f mm\n", inside, outside)
	}
	fmt.Printf("Openings: %d, Posts: %d, Constraints: %d\n",
		len(ph.Plan.Model.Openings), len(ph.Plan.Model.Posts), len(ph.Plan.Model.Constraints))
	return ph
}

func cmdCheck(l *slog.Logger, args []string) *storage.PlanHandle {
	ph := openPlan(l, args, "check")
	if _, err := plan.LoadStore(ph.Plan.Model); err != nil {
		fmt.Println("INVALID:", err)
		os.Exit(1)
	}
	fmt.Println("OK: manifest parses and all perimeter loops are consistent")
	return ph
}

func cmdExport(l *slog.Logger, args []string) *storage.PlanHandle {
	if len(args) < 2 {
		fmt.Println("export requires <dir> and pdf|png")
		usage()
		os.Exit(2)
	}
	ph := openPlan(l, args[:1], "export")
	format := args[1]
	out := ""
	if len(args) > 2 {
		out = args[2]
	}

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	switch format {
	case "pdf":
		if out == "" {
			out = "plan.pdf"
		}
		opt := export.PDFOptions{
			PageSize:      cfg.Export.PageSize,
			Scale:         cfg.Export.Scale,
			MarginMm:      cfg.Export.MarginMm,
			IncludeLabels: true,
		}
		if err := export.ExportPlanPDF(ph, out, opt); err != nil {
			fail(l, "export failed", err)
		}
		telemetry.Event("export_pdf", nil)
	case "png":
		if out == "" {
			out = "previews"
		}
		if err := export.ExportPlanPNGs(ph, out, export.PNGOptions{IncludeLabels: true}); err != nil {
			fail(l, "export failed", err)
		}
		telemetry.Event("export_png", nil)
	default:
		fmt.Println("unknown export format:", format)
		os.Exit(2)
	}
	fmt.Println("Exported", format, "to", out)
	return ph
}

func openPlan(l *slog.Logger, args []string, cmd string) *storage.PlanHandle {
	if len(args) < 1 {
		fmt.Printf("%s requires <dir>\n", cmd)
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[0])
	l.Info("open plan", slog.String("root", abs))
	ph, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return ph
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
