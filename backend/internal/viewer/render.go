package viewer

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"x-katamari/backend/internal/adapter/in/ws"
	"x-katamari/backend/internal/core/domain/entity"
)

// Символы объектов на карте
const (
	BallRune  = 'O'
	BoxRune   = '■'
	ModelRune = '◆'
	TrailRune = '·'
)

// Projection переводит координаты мира в клетки экрана.
// Вид сверху, +Z вверх экрана, +X влево: так поворот налево выглядит налево.
type Projection struct {
	CellsPerMeter float64 // по горизонтали
	Aspect        float64 // высота клетки к ширине
}

// DefaultProjection два столбца и одна строка на метр
func DefaultProjection() Projection {
	return Projection{CellsPerMeter: 2, Aspect: 2}
}

// Cell клетка для точки p при шаре в center и экране w×h
func (p Projection) Cell(pos, center ws.Vec3, w, h int) (int, int) {
	dx := pos.X - center.X
	dz := pos.Z - center.Z
	col := w/2 - int(math.Round(dx*p.CellsPerMeter))
	row := h/2 - int(math.Round(dz*p.CellsPerMeter/p.Aspect))
	return col, row
}

// Renderer рисует модель на экране tcell
type Renderer struct {
	screen tcell.Screen
	proj   Projection
}

// NewRenderer создает отрисовщик
func NewRenderer(screen tcell.Screen, proj Projection) *Renderer {
	if proj.CellsPerMeter <= 0 {
		proj = DefaultProjection()
	}
	return &Renderer{screen: screen, proj: proj}
}

// Draw перерисовывает весь экран
func (r *Renderer) Draw(m *Model) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w == 0 || h == 0 {
		return
	}

	center := m.Ball.Position
	for _, o := range m.sortedObjects() {
		col, row := r.proj.Cell(o.Position, center, w, h)
		if row < 1 || row >= h-1 || col < 0 || col >= w {
			continue
		}
		ch, style := objectGlyph(o)
		r.screen.SetContent(col, row, ch, nil, style)
	}

	r.drawBall(m, w, h)

	hud := m.HUD
	if hud == "" {
		hud = "ожидание сервера..."
	}
	r.text(0, 0, hud, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))
	r.text(0, h-1, m.LastEvent, tcell.StyleDefault.Foreground(tcell.ColorGray))

	r.screen.Show()
}

// drawBall рисует контур виртуального радиуса и центр шара
func (r *Renderer) drawBall(m *Model, w, h int) {
	cx, cy := w/2, h/2
	radius := m.Ball.VirtualRadius * r.proj.CellsPerMeter
	if radius >= 1.5 {
		ring := tcell.StyleDefault.Foreground(tcell.ColorOlive)
		steps := int(math.Ceil(2 * math.Pi * radius))
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			col := cx + int(math.Round(math.Cos(a)*radius))
			row := cy + int(math.Round(math.Sin(a)*radius/r.proj.Aspect))
			if row >= 1 && row < h-1 && col >= 0 && col < w {
				r.screen.SetContent(col, row, TrailRune, nil, ring)
			}
		}
	}
	r.screen.SetContent(cx, cy, BallRune, nil, tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))
}

func (r *Renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func objectGlyph(o ws.ObjectView) (rune, tcell.Style) {
	style := tcell.StyleDefault
	switch o.Kind {
	case entity.KindGlyph:
		if o.Glyph != nil {
			style = style.Foreground(parseColor(o.Glyph.Color, tcell.ColorWhite))
			for _, ch := range o.Glyph.Char {
				return ch, style
			}
		}
		return '?', style
	case entity.KindModel:
		return ModelRune, style.Foreground(tcell.ColorTeal)
	default:
		c := tcell.ColorSilver
		if o.Box != nil {
			c = parseColor(o.Box.Color, c)
		}
		return BoxRune, style.Foreground(c)
	}
}

func parseColor(s string, fallback tcell.Color) tcell.Color {
	if s == "" {
		return fallback
	}
	if c := tcell.GetColor(s); c != tcell.ColorDefault {
		return c
	}
	return fallback
}
