package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/jonathan/creative-compliance/internal/document"
)

// lineSpacing matches the text box height document.MeasureText assigns per line
const lineSpacing = 1.16

// draw renders one element. The context is translated to the element's origin point
// and rotated about it; box coordinates are then relative to that point.
func (s *Scene) draw(dc *gg.Context, h *handle, k float64) error {
	e := h.el
	w, ht := e.Size()
	left, top := e.TopLeft()
	box := rect{
		x: (left - e.Geometry.X) * k,
		y: (top - e.Geometry.Y) * k,
		w: w * k,
		h: ht * k,
	}
	dc.Push()
	defer dc.Pop()
	dc.Translate(e.Geometry.X*k, e.Geometry.Y*k)
	if e.Geometry.Rotation != 0 {
		dc.Rotate(gg.Radians(e.Geometry.Rotation))
	}

	switch {
	case h.img != nil:
		drawImage(dc, h, box)
	case e.Kind == document.KindSafeZone:
		dc.DrawRectangle(box.x, box.y, box.w, box.h)
		dc.SetColor(parseColor(e.Paint.Fill, e.Paint.Opacity))
		dc.Fill()
	case e.Shape != nil:
		drawShape(dc, e, box, k)
	}
	if e.Text != nil {
		return s.drawText(dc, e, box, k)
	}
	return nil
}

type rect struct {
	x, y, w, h float64
}

func (r rect) cx() float64 { return r.x + r.w/2 }
func (r rect) cy() float64 { return r.y + r.h/2 }

func drawImage(dc *gg.Context, h *handle, box rect) {
	b := h.img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || box.w == 0 || box.h == 0 {
		return
	}
	dc.Push()
	dc.Translate(box.x, box.y)
	dc.Scale(box.w/float64(b.Dx()), box.h/float64(b.Dy()))
	dc.DrawImage(h.img, -b.Min.X, -b.Min.Y)
	dc.Pop()
}

func drawShape(dc *gg.Context, e *document.Element, box rect, k float64) {
	sp := e.Shape
	sx, sy := math.Abs(nonZero(e.Geometry.ScaleX))*k, math.Abs(nonZero(e.Geometry.ScaleY))*k
	switch sp.Kind {
	case document.ShapeRect:
		dc.DrawRectangle(box.x, box.y, box.w, box.h)
	case document.ShapeRoundedRect:
		dc.DrawRoundedRectangle(box.x, box.y, box.w, box.h, sp.CornerRadius*(sx+sy)/2)
	case document.ShapeCircle:
		dc.DrawCircle(box.cx(), box.cy(), math.Min(box.w, box.h)/2)
	case document.ShapeEllipse:
		dc.DrawEllipse(box.cx(), box.cy(), box.w/2, box.h/2)
	case document.ShapeTriangle:
		dc.MoveTo(box.cx(), box.y)
		dc.LineTo(box.x+box.w, box.y+box.h)
		dc.LineTo(box.x, box.y+box.h)
		dc.ClosePath()
	case document.ShapePolygon:
		dc.DrawRegularPolygon(maxInt(sp.Sides, 3), box.cx(), box.cy(), math.Min(box.w, box.h)/2, -math.Pi/2)
	case document.ShapeStar:
		drawStar(dc, maxInt(sp.Sides, 2), sp.InnerRatio, box)
	case document.ShapeLine:
		for i := 1; i < len(sp.Points); i++ {
			a, b := sp.Points[i-1], sp.Points[i]
			dc.DrawLine(box.x+a.X*sx, box.y+a.Y*sy, box.x+b.X*sx, box.y+b.Y*sy)
		}
		stroke(dc, e, k)
		return
	case document.ShapePath:
		tracePath(dc, sp.PathData, box.x, box.y, sx, sy)
	default:
		return
	}
	if e.Paint.Fill != "" {
		dc.SetColor(parseColor(e.Paint.Fill, e.Paint.Opacity))
		if e.Paint.Stroke != "" && e.Paint.StrokeWidth > 0 {
			dc.FillPreserve()
		} else {
			dc.Fill()
			return
		}
	}
	stroke(dc, e, k)
}

func stroke(dc *gg.Context, e *document.Element, k float64) {
	if e.Paint.Stroke == "" || e.Paint.StrokeWidth <= 0 {
		dc.ClearPath()
		return
	}
	dc.SetColor(parseColor(e.Paint.Stroke, e.Paint.Opacity))
	dc.SetLineWidth(e.Paint.StrokeWidth * k)
	dc.Stroke()
}

func drawStar(dc *gg.Context, points int, inner float64, box rect) {
	if inner <= 0 || inner >= 1 {
		inner = 0.5
	}
	outer := math.Min(box.w, box.h) / 2
	n := points * 2
	for i := 0; i < n; i++ {
		r := outer
		if i%2 == 1 {
			r = outer * inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/float64(points)
		x, y := box.cx()+r*math.Cos(a), box.cy()+r*math.Sin(a)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

// tracePath follows the absolute M, L and Z commands of an SVG path
func tracePath(dc *gg.Context, data string, ox, oy, sx, sy float64) {
	fields := strings.Fields(strings.NewReplacer(",", " ").Replace(data))
	var nums []float64
	cmd := ""
	flush := func() {
		for len(nums) >= 2 {
			x, y := ox+nums[0]*sx, oy+nums[1]*sy
			if cmd == "M" {
				dc.MoveTo(x, y)
				cmd = "L"
			} else {
				dc.LineTo(x, y)
			}
			nums = nums[2:]
		}
	}
	for _, f := range fields {
		switch f {
		case "M", "L":
			flush()
			cmd, nums = f, nil
		case "Z", "z":
			flush()
			dc.ClosePath()
			cmd, nums = "", nil
		default:
			if v, err := strconv.ParseFloat(f, 64); err == nil {
				nums = append(nums, v)
			}
		}
	}
	flush()
}

func (s *Scene) drawText(dc *gg.Context, e *document.Element, box rect, k float64) error {
	t := e.Text
	if t.BackgroundColor != "" {
		dc.DrawRectangle(box.x, box.y, box.w, box.h)
		dc.SetColor(parseColor(t.BackgroundColor, e.Paint.Opacity))
		dc.Fill()
	}
	if t.Content == "" || t.FontSize <= 0 {
		return nil
	}
	scale := (math.Abs(nonZero(e.Geometry.ScaleX)) + math.Abs(nonZero(e.Geometry.ScaleY))) / 2
	size := t.FontSize * scale * k
	face, err := s.faces.face(t.FontWeight == "bold", size)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(parseColor(e.Paint.Fill, e.Paint.Opacity))

	lines := strings.Split(t.Content, "\n")
	lineH := size * lineSpacing
	top := box.cy() - lineH*float64(len(lines))/2
	x, ax := box.cx(), 0.5
	switch t.TextAlign {
	case "left":
		x, ax = box.x, 0
	case "right":
		x, ax = box.x+box.w, 1
	}
	for i, line := range lines {
		dc.DrawStringAnchored(line, x, top+lineH*(float64(i)+0.5), ax, 0.5)
	}
	return nil
}

// parseColor reads #RGB or #RRGGBB; anything else is black
func parseColor(hex string, opacity float64) color.NRGBA {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	c := color.NRGBA{A: 255}
	if len(s) == 6 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
		}
	}
	if opacity >= 0 && opacity < 1 {
		c.A = uint8(math.Round(opacity * 255))
	}
	return c
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
