package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrEmptyChart is returned when a config has nothing drawable.
var ErrEmptyChart = errors.New("chart has no drawable values")

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown image format %q (want png or svg)", s)
}

// SVGHook rewrites a rendered SVG document.
type SVGHook func([]byte) []byte

var fillURLRef = regexp.MustCompile(`fill="url\([^#")]*(#[^")]+)\)"`)

// FixSVGFillRefs prefixes every fill="url(#id)" reference with base, so
// gradient fills keep resolving when the document is embedded under a page
// that sets a <base> element.
func FixSVGFillRefs(base string) SVGHook {
	return func(svg []byte) []byte {
		return fillURLRef.ReplaceAllFunc(svg, func(m []byte) []byte {
			id := fillURLRef.FindSubmatch(m)[1]
			return []byte(`fill="url(` + base + string(id) + `)"`)
		})
	}
}

// Renderer draws chart configs as images.
type Renderer struct {
	Width   int
	Height  int
	Title   string
	Hooks   []SVGHook // applied in order to SVG output
	Numbers Formatter
}

// NewRenderer returns a renderer with the default size.
func NewRenderer(hooks ...SVGHook) *Renderer {
	return &Renderer{Width: 800, Height: 480, Hooks: hooks, Numbers: DefaultFormatter()}
}

// RenderBar writes the bar chart to w.
func (r *Renderer) RenderBar(w io.Writer, cfg BarChartConfig, format Format) error {
	values := cfg.Values()
	var top int64
	for _, v := range values {
		if v > top {
			top = v
		}
	}
	if cfg.IsZero() || top <= 0 {
		return ErrEmptyChart
	}

	bars := make([]chart.Value, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		if len(s.Data) == 0 {
			continue
		}
		color := drawing.ColorFromHex(s.Color)
		bars = append(bars, chart.Value{
			Label: s.Name,
			Value: float64(clamp(s.Data[0])),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	bc := chart.BarChart{
		Title:        r.Title,
		Width:        r.width(),
		Height:       r.height(),
		BarWidth:     r.width() / (2 * len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 40},
		},
		XAxis: chart.Style{FontColor: drawing.ColorFromHex(ColorForeground)},
		YAxis: chart.YAxis{
			Name:  cfg.YAxisTitle,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
			Style: chart.Style{FontColor: drawing.ColorFromHex(ColorForeground)},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return cfg.YLabel(f)
				}
				return ""
			},
		},
		Bars:     bars,
		Elements: []chart.Renderable{axisTitle(cfg.YAxisTitle)},
	}
	return r.write(w, format, bc.Render)
}

// RenderDonut writes the donut chart to w. Negative slices are drawn as empty.
func (r *Renderer) RenderDonut(w io.Writer, cfg DonutChartConfig, format Format) error {
	var total int64
	values := make([]chart.Value, 0, len(cfg.Slices))
	for _, s := range cfg.Slices {
		v := clamp(s.Value)
		total += v
		color := drawing.ColorFromHex(s.Color)
		values = append(values, chart.Value{
			Label: s.Label + " " + r.numbers().Count(s.Value),
			Value: float64(v),
			Style: chart.Style{FillColor: color, StrokeColor: drawing.ColorTransparent},
		})
	}
	if total <= 0 {
		return ErrEmptyChart
	}

	dc := chart.DonutChart{
		Title:    r.Title,
		Width:    r.width(),
		Height:   r.height(),
		Values:   values,
		Elements: []chart.Renderable{centerLabel(cfg.CenterLabel, cfg.TotalText(r.numbers()))},
	}
	return r.write(w, format, dc.Render)
}

func (r *Renderer) write(w io.Writer, format Format, render func(chart.RendererProvider, io.Writer) error) error {
	switch format {
	case FormatPNG:
		return render(chart.PNG, w)
	case FormatSVG:
		var buf bytes.Buffer
		if err := render(chart.SVG, &buf); err != nil {
			return err
		}
		out := buf.Bytes()
		for _, hook := range r.Hooks {
			if hook != nil {
				out = hook(out)
			}
		}
		_, err := w.Write(out)
		return err
	}
	return fmt.Errorf("unknown image format %q", format)
}

func (r *Renderer) width() int {
	if r.Width <= 0 {
		return 800
	}
	return r.Width
}

func (r *Renderer) height() int {
	if r.Height <= 0 {
		return 480
	}
	return r.Height
}

func (r *Renderer) numbers() Formatter {
	if r.Numbers.p == nil {
		return DefaultFormatter()
	}
	return r.Numbers
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// axisTitle draws the rotated y-axis title along the left edge.
func axisTitle(text string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if text == "" {
			return
		}
		r.SetFont(defaults.GetFont())
		r.SetFontSize(10)
		r.SetFontColor(drawing.ColorFromHex(ColorForeground))
		tb := r.MeasureText(text)
		_, cy := box.Center()
		r.SetTextRotation(chart.DegreesToRadians(270))
		r.Text(text, 14, cy+tb.Width()/2)
		r.ClearTextRotation()
	}
}

// centerLabel draws the label and value in the donut hole.
func centerLabel(label, value string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		cx, cy := box.Center()
		r.SetFont(defaults.GetFont())

		r.SetFontColor(drawing.ColorFromHex(ColorForeground))
		r.SetFontSize(12)
		lb := r.MeasureText(label)
		r.Text(label, cx-lb.Width()/2, cy-4)

		r.SetFontColor(drawing.ColorFromHex(ColorCases))
		r.SetFontSize(16)
		vb := r.MeasureText(value)
		r.Text(value, cx-vb.Width()/2, cy+vb.Height()+4)
	}
}
