/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"gofloorplan/internal/domain"
	"gofloorplan/internal/geom"
	"gofloorplan/internal/plan"
	"gofloorplan/internal/storage"
)

// PDFOptions controls plan-sheet PDF export.
//
// Coordinates: the model is millimeters with Y pointing down on screen; PDF
// page origin is top-left with Y down as well, so mapping is a uniform
// scale plus translation. Scale is the drawing scale denominator (100 means
// 1:100). Built-in Helvetica keeps labels vector without font embedding.
type PDFOptions struct {
	PageSize      string  // "A4" | "A3"; default A4 landscape
	Scale         float64 // default 100
	MarginMm      float64 // default 10
	IncludeLabels bool    // wall length and opening labels
}

// ExportPlanPDF exports every perimeter of the plan to a multi-page PDF at
// outPath, one sheet per perimeter.
func ExportPlanPDF(ph *storage.PlanHandle, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("plan handle is nil")
	}
	st, err := plan.LoadStore(ph.Plan.Model)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	size := opt.PageSize
	if size != "A3" {
		size = "A4"
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 100
	}
	margin := opt.MarginMm
	if margin <= 0 {
		margin = 10
	}

	pdf := gofpdf.New("L", "mm", size, "")
	pdf.SetTitle(fmt.Sprintf("%s - Plan Sheets", ph.Plan.Name), false)
	pdf.SetAuthor("GoFloorPlan", false)
	pdf.SetFont("Helvetica", "", 8)

	for _, p := range ph.Plan.Model.Perimeters {
		if err := drawPerimeterSheet(pdf, st, p, scale, margin, opt.IncludeLabels); err != nil {
			return err
		}
	}

	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPerimeterSheet(pdf *gofpdf.Fpdf, st *plan.Store, p domain.Perimeter, scale, margin float64, labels bool) error {
	pdf.AddPage()

	lo, hi := perimeterBounds(st, p)
	tx := func(pt geom.Pt) (float64, float64) {
		return (pt.X-lo.X)/scale + margin, (pt.Y-lo.Y)/scale + margin
	}

	pageW, pageH := pdf.GetPageSize()
	if (hi.X-lo.X)/scale > pageW-2*margin || (hi.Y-lo.Y)/scale > pageH-2*margin {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.Text(margin, margin/2+3, "drawing exceeds sheet at this scale")
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(220, 220, 220)
	pdf.SetLineWidth(0.3)
	for _, wid := range p.WallIDs {
		wg, err := st.WallGeometryOf(wid)
		if err != nil {
			return fmt.Errorf("wall geometry %s: %w", wid, err)
		}
		drawPolygon(pdf, wg.Polygon, tx, "FD")
		if labels {
			c := wg.Polygon.Centroid()
			x, y := tx(c)
			pdf.SetFont("Helvetica", "", 6)
			pdf.Text(x, y, fmt.Sprintf("%.0f", wg.WallLength))
		}
	}

	// openings white on top of wall fills, posts darker
	for _, wid := range p.WallIDs {
		w, err := st.Wall(wid)
		if err != nil {
			return err
		}
		for _, eid := range w.EntityIDs {
			eg, err := st.EntityGeometryOf(eid)
			if err != nil {
				return err
			}
			if domain.KindOf(eid) == domain.KindOpening {
				pdf.SetFillColor(255, 255, 255)
			} else {
				pdf.SetFillColor(120, 120, 120)
			}
			drawPolygon(pdf, eg.Polygon, tx, "FD")
		}
	}

	// title block
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin, pageH-margin/2, fmt.Sprintf("storey %s  |  1:%.0f  |  reference %s", p.StoreyID, scale, p.ReferenceSide))
	return nil
}

func drawPolygon(pdf *gofpdf.Fpdf, poly geom.Polygon, tx func(geom.Pt) (float64, float64), style string) {
	if len(poly) < 3 {
		return
	}
	pts := make([]gofpdf.PointType, 0, len(poly))
	for _, v := range poly {
		x, y := tx(v)
		pts = append(pts, gofpdf.PointType{X: x, Y: y})
	}
	pdf.Polygon(pts, style)
}

// perimeterBounds returns the bounding box over all wall polygons.
func perimeterBounds(st *plan.Store, p domain.Perimeter) (geom.Pt, geom.Pt) {
	var all geom.Polygon
	for _, wid := range p.WallIDs {
		if wg, err := st.WallGeometryOf(wid); err == nil {
			all = append(all, wg.Polygon...)
		}
	}
	return all.Bounds()
}
