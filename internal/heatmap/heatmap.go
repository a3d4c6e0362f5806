// Package heatmap renders the incident coordinates of a dataset as a PNG
// density grid with a one-line legend.
package heatmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/crimelens/internal/apperr"
	"github.com/lox/crimelens/internal/dataset"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
	MinDimension  = 100
	MaxDimension  = 2000

	cellSize     = 6
	legendHeight = 32
)

var (
	regular  *opentype.Font
	fontOnce sync.Once
	fontErr  error
)

func loadFont() {
	fontOnce.Do(func() {
		regular, fontErr = opentype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("parse goregular: %w", fontErr)
		}
	})
}

// Point is one incident location.
type Point struct {
	Lat, Lon float64
}

// Points extracts the coordinates of every row with both values present.
func Points(t *dataset.Table) []Point {
	points := make([]Point, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		lat, ok := dataset.ToFloat(t.Cell(i, dataset.ColumnLatitude))
		if !ok {
			continue
		}
		lon, ok := dataset.ToFloat(t.Cell(i, dataset.ColumnLongitude))
		if !ok {
			continue
		}
		points = append(points, Point{Lat: lat, Lon: lon})
	}
	return points
}

// Options sizes the image. Zero values take the defaults.
type Options struct {
	Width  int
	Height int
}

func (o Options) withDefaults() (Options, error) {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < MinDimension || o.Width > MaxDimension {
		return o, apperr.ClientInput("width", "width must be between %d and %d, got %d", MinDimension, MaxDimension, o.Width)
	}
	if o.Height < MinDimension || o.Height > MaxDimension {
		return o, apperr.ClientInput("height", "height must be between %d and %d, got %d", MinDimension, MaxDimension, o.Height)
	}
	return o, nil
}

// Grid is the binned density of a point set.
type Grid struct {
	Cols, Rows     int
	Counts         []int
	Max            int
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	Points         int
}

// Bin assigns points to a cols x rows grid spanning their bounding box.
// Row 0 is the northernmost.
func Bin(points []Point, cols, rows int) Grid {
	g := Grid{Cols: cols, Rows: rows, Counts: make([]int, cols*rows), Points: len(points)}
	if len(points) == 0 || cols == 0 || rows == 0 {
		return g
	}

	g.MinLat, g.MaxLat = points[0].Lat, points[0].Lat
	g.MinLon, g.MaxLon = points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		g.MinLat = math.Min(g.MinLat, p.Lat)
		g.MaxLat = math.Max(g.MaxLat, p.Lat)
		g.MinLon = math.Min(g.MinLon, p.Lon)
		g.MaxLon = math.Max(g.MaxLon, p.Lon)
	}

	for _, p := range points {
		cx := scale(p.Lon, g.MinLon, g.MaxLon, cols)
		cy := rows - 1 - scale(p.Lat, g.MinLat, g.MaxLat, rows)
		i := cy*cols + cx
		g.Counts[i]++
		if g.Counts[i] > g.Max {
			g.Max = g.Counts[i]
		}
	}
	return g
}

// scale maps v in [lo, hi] onto a bucket in [0, n).
func scale(v, lo, hi float64, n int) int {
	if hi <= lo {
		return n / 2
	}
	b := int((v - lo) / (hi - lo) * float64(n-1))
	return min(max(b, 0), n-1)
}

// Render draws points and encodes the result as PNG.
func Render(points []Point, opts Options) ([]byte, error) {
	img, err := Draw(points, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

// Draw renders the density grid above a legend strip.
func Draw(points []Point, opts Options) (*image.RGBA, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	loadFont()
	if fontErr != nil {
		return nil, fontErr
	}
	// Faces carry glyph buffers, so each render gets its own.
	face, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    14,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	plotH := opts.Height - legendHeight
	drawBackground(img, plotH)

	g := Bin(points, opts.Width/cellSize, plotH/cellSize)
	drawCells(img, g)

	legend := "no incidents with coordinates"
	if g.Points > 0 {
		legend = fmt.Sprintf("%d incidents, max %d per cell, lat %.3f..%.3f, lon %.3f..%.3f",
			g.Points, g.Max, g.MinLat, g.MaxLat, g.MinLon, g.MaxLon)
	}
	drawText(img, legend, 10, opts.Height-11, color.RGBA{220, 220, 220, 255}, face)
	return img, nil
}

func drawBackground(img *image.RGBA, plotH int) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		c := color.RGBA{12, 12, 20, 255}
		if y < plotH {
			progress := float64(y) / float64(plotH)
			c = color.RGBA{uint8(20 + progress*10), uint8(20 + progress*15), uint8(40 + progress*20), 255}
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawCells(img *image.RGBA, g Grid) {
	if g.Max == 0 {
		return
	}
	denom := math.Log1p(float64(g.Max))
	for cy := 0; cy < g.Rows; cy++ {
		for cx := 0; cx < g.Cols; cx++ {
			n := g.Counts[cy*g.Cols+cx]
			if n == 0 {
				continue
			}
			c := ramp(math.Log1p(float64(n)) / denom)
			for y := cy * cellSize; y < (cy+1)*cellSize; y++ {
				for x := cx * cellSize; x < (cx+1)*cellSize; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
}

var stops = []struct {
	at float64
	c  color.RGBA
}{
	{0, color.RGBA{40, 70, 160, 255}},
	{0.5, color.RGBA{250, 200, 40, 255}},
	{1, color.RGBA{220, 30, 30, 255}},
}

// ramp interpolates t in [0, 1] along the color stops.
func ramp(t float64) color.RGBA {
	t = math.Min(math.Max(t, 0), 1)
	for i := 1; i < len(stops); i++ {
		if t > stops[i].at {
			continue
		}
		lo, hi := stops[i-1], stops[i]
		f := (t - lo.at) / (hi.at - lo.at)
		return color.RGBA{
			R: lerp(lo.c.R, hi.c.R, f),
			G: lerp(lo.c.G, hi.c.G, f),
			B: lerp(lo.c.B, hi.c.B, f),
			A: 255,
		}
	}
	return stops[len(stops)-1].c
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f)
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
