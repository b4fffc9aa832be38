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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gofloorplan/internal/domain"
	"gofloorplan/internal/geom"
	"gofloorplan/internal/plan"
	"gofloorplan/internal/storage"
)

// PNGOptions controls preview PNG export. PixelsPerMeter sets the raster
// resolution (default 50, i.e. 2 cm per pixel); MarginPx pads the drawing.
type PNGOptions struct {
	PixelsPerMeter float64
	MarginPx       int
	IncludeLabels  bool
}

// ExportPlanPNGs renders each perimeter of the plan to a separate PNG file
// under outDir (resolved against the plan's exports folder when relative).
// Files are named plan-<storeyID>-<n>.png.
func ExportPlanPNGs(ph *storage.PlanHandle, outDir string, opt PNGOptions) error {
	if ph == nil {
		return fmt.Errorf("plan handle is nil")
	}
	st, err := plan.LoadStore(ph.Plan.Model)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	ppm := opt.PixelsPerMeter
	if ppm <= 0 {
		ppm = 50
	}
	marginPx := opt.MarginPx
	if marginPx <= 0 {
		marginPx = 20
	}

	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	for i, p := range ph.Plan.Model.Perimeters {
		img, err := renderPerimeter(st, p, ppm, marginPx, opt.IncludeLabels)
		if err != nil {
			return err
		}
		name := filepath.Join(outDir, fmt.Sprintf("plan-%s-%d.png", p.StoreyID, i+1))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
	}
	return nil
}

func renderPerimeter(st *plan.Store, p domain.Perimeter, ppm float64, marginPx int, labels bool) (*image.RGBA, error) {
	lo, hi := perimeterBounds(st, p)
	scale := ppm / 1000 // px per mm
	pixW := int(math.Round((hi.X-lo.X)*scale)) + 2*marginPx
	pixH := int(math.Round((hi.Y-lo.Y)*scale)) + 2*marginPx
	tx := func(pt geom.Pt) (int, int) {
		return int(math.Round((pt.X-lo.X)*scale)) + marginPx,
			int(math.Round((pt.Y-lo.Y)*scale)) + marginPx
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	wallCol := color.RGBA{30, 30, 30, 255}
	openCol := color.RGBA{0, 110, 220, 255}
	postCol := color.RGBA{180, 60, 60, 255}

	for _, wid := range p.WallIDs {
		wg, err := st.WallGeometryOf(wid)
		if err != nil {
			return nil, fmt.Errorf("wall geometry %s: %w", wid, err)
		}
		strokePolygon(img, wg.Polygon, tx, wallCol)
		if labels {
			c := wg.Polygon.Centroid()
			x, y := tx(c)
			drawLabel(img, x, y, fmt.Sprintf("%.0f", wg.WallLength), wallCol)
		}
	}
	for _, wid := range p.WallIDs {
		w, err := st.Wall(wid)
		if err != nil {
			return nil, err
		}
		for _, eid := range w.EntityIDs {
			eg, err := st.EntityGeometryOf(eid)
			if err != nil {
				return nil, err
			}
			col := postCol
			if domain.KindOf(eid) == domain.KindOpening {
				col = openCol
			}
			strokePolygon(img, eg.Polygon, tx, col)
		}
	}
	return img, nil
}

func strokePolygon(img *image.RGBA, poly geom.Polygon, tx func(geom.Pt) (int, int), col color.RGBA) {
	n := len(poly)
	for i := 0; i < n; i++ {
		x0, y0 := tx(poly[i])
		x1, y1 := tx(poly[(i+1)%n])
		strokeLine(img, x0, y0, x1, y1, col)
	}
}

// strokeLine draws a 1px line using the integer Bresenham walk.
func strokeLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawLabel renders small fixed-width text centered on (x, y).
func drawLabel(img *image.RGBA, x, y int, s string, col color.RGBA) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Round()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x-w/2, y+face.Metrics().Ascent.Round()/2),
	}
	d.DrawString(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
