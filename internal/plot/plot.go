// Package plot renders a power spectral density as a PNG line chart.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/emmett/supersid/internal/spectral"
	"github.com/emmett/supersid/internal/supersid"
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 30
	marginBottom = 40
	tickLen      = 5
	xTicks       = 8
	yTicks       = 6
)

var (
	backgroundColor = color.RGBA{255, 255, 255, 255}
	axisColor       = color.RGBA{40, 40, 40, 255}
	gridColor       = color.RGBA{220, 220, 220, 255}
	lineColor       = color.RGBA{20, 60, 160, 255}

	// ErrEmptySpectrum is returned for a density without samples
	ErrEmptySpectrum = errors.New("spectrum has no samples")
)

// Options controls the rendering
type Options struct {
	Width  int
	Height int
	Title  string

	// MinDB and MaxDB fix the vertical range, both zero means auto
	MinDB float64
	MaxDB float64
}

// DefaultOptions returns a 1024x600 chart with an automatic range
func DefaultOptions() Options {
	return Options{Width: 1024, Height: 600}
}

// Render draws the density in dB with a marker for every station
func Render(d *spectral.Density[float64], stations []supersid.StationConfig, opts Options) (*image.RGBA, error) {
	if d == nil || len(d.Samples) == 0 {
		return nil, ErrEmptySpectrum
	}
	if opts.Width <= marginLeft+marginRight || opts.Height <= marginTop+marginBottom {
		return nil, fmt.Errorf("image too small: %dx%d", opts.Width, opts.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)

	area := image.Rect(marginLeft, marginTop, opts.Width-marginRight, opts.Height-marginBottom)
	maxFreq := d.Samples[len(d.Samples)-1].Frequency
	if maxFreq <= 0 {
		maxFreq = 1
	}
	minDB, maxDB := dbRange(d, opts)

	x := func(freq float64) int {
		return area.Min.X + int(math.Round(freq/maxFreq*float64(area.Dx()-1)))
	}
	y := func(db float64) int {
		if math.IsInf(db, -1) || db < minDB {
			db = minDB
		}
		if db > maxDB {
			db = maxDB
		}
		return area.Max.Y - 1 - int(math.Round((db-minDB)/(maxDB-minDB)*float64(area.Dy()-1)))
	}

	// Grid and ticks
	for i := 0; i <= xTicks; i++ {
		freq := maxFreq * float64(i) / xTicks
		px := x(freq)
		vline(canvas, px, area.Min.Y, area.Max.Y, gridColor)
		vline(canvas, px, area.Max.Y, area.Max.Y+tickLen, axisColor)
		label(canvas, px-15, area.Max.Y+tickLen+13, readableFreq(freq), axisColor)
	}
	for i := 0; i <= yTicks; i++ {
		db := minDB + (maxDB-minDB)*float64(i)/yTicks
		py := y(db)
		hline(canvas, area.Min.X, area.Max.X, py, gridColor)
		hline(canvas, area.Min.X-tickLen, area.Min.X, py, axisColor)
		label(canvas, 5, py+4, fmt.Sprintf("%.0f dB", db), axisColor)
	}
	vline(canvas, area.Min.X, area.Min.Y, area.Max.Y, axisColor)
	hline(canvas, area.Min.X, area.Max.X, area.Max.Y-1, axisColor)

	// Stations
	for _, s := range stations {
		freq := float64(s.Frequency)
		if freq > maxFreq {
			continue
		}
		c := ParseColor(s.Color)
		px := x(freq)
		dashedVline(canvas, px, area.Min.Y, area.Max.Y, c)
		label(canvas, px+3, area.Min.Y+12, s.Callsign, c)
	}

	// Spectrum
	prevX, prevY := x(d.Samples[0].Frequency), y(d.Samples[0].DB())
	for _, s := range d.Samples[1:] {
		px, py := x(s.Frequency), y(s.DB())
		line(canvas, prevX, prevY, px, py, lineColor)
		prevX, prevY = px, py
	}

	if opts.Title != "" {
		label(canvas, marginLeft, marginTop-10, opts.Title, axisColor)
	}
	return canvas, nil
}

// Write renders the density as PNG to w
func Write(w io.Writer, d *spectral.Density[float64], stations []supersid.StationConfig, opts Options) error {
	img, err := Render(d, stations, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WriteFile renders the density as PNG into path, creating its directory
func WriteFile(path string, d *spectral.Density[float64], stations []supersid.StationConfig, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := Write(f, d, stations, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseColor accepts "#rrggbb" or a single letter colour code (r, g, b, c, m, y, k)
func ParseColor(s string) color.RGBA {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		if v, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
		}
	}
	switch s {
	case "r", "red":
		return color.RGBA{200, 30, 30, 255}
	case "g", "green":
		return color.RGBA{30, 150, 30, 255}
	case "b", "blue":
		return color.RGBA{30, 30, 200, 255}
	case "c", "cyan":
		return color.RGBA{0, 160, 160, 255}
	case "m", "magenta":
		return color.RGBA{170, 0, 170, 255}
	case "y", "yellow":
		return color.RGBA{200, 170, 0, 255}
	}
	return axisColor
}

func dbRange(d *spectral.Density[float64], opts Options) (float64, float64) {
	if opts.MinDB != 0 || opts.MaxDB != 0 {
		if opts.MaxDB > opts.MinDB {
			return opts.MinDB, opts.MaxDB
		}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range d.Samples {
		db := s.DB()
		if math.IsInf(db, 0) || math.IsNaN(db) {
			continue
		}
		lo = math.Min(lo, db)
		hi = math.Max(hi, db)
	}
	if math.IsInf(lo, 1) {
		return -100, 0
	}
	lo = math.Floor(lo/10) * 10
	hi = math.Ceil(hi/10) * 10
	if hi <= lo {
		hi = lo + 10
	}
	return lo, hi
}

func readableFreq(freq float64) string {
	if freq >= 1000 {
		return fmt.Sprintf("%.1fk", freq/1000)
	}
	return fmt.Sprintf("%.0f", freq)
}

func label(canvas *image.RGBA, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func vline(canvas *image.RGBA, x, y0, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		canvas.SetRGBA(x, y, c)
	}
}

func dashedVline(canvas *image.RGBA, x, y0, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		if (y/4)%2 == 0 {
			canvas.SetRGBA(x, y, c)
		}
	}
}

func hline(canvas *image.RGBA, x0, x1, y int, c color.RGBA) {
	for x := x0; x < x1; x++ {
		canvas.SetRGBA(x, y, c)
	}
}

// line draws with Bresenham's algorithm
func line(canvas *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		canvas.SetRGBA(x0, y0, c)
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
