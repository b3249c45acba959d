package world

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"x-katamari/backend/internal/core/domain/entity"
)

// glyphDepthFactor толщина буквы в долях кегля при depth = 1
const glyphDepthFactor = 0.1

// ErrMissingGlyph в шрифте нет такого символа
var ErrMissingGlyph = errors.New("glyph not found in font")

// GlyphExtent горизонтальные границы глифа в долях кегля
type GlyphExtent struct {
	XMin    float64
	XMax    float64
	Advance float64
}

// Width ширина чернильной части глифа
func (g GlyphExtent) Width() float64 {
	return g.XMax - g.XMin
}

// FontMetrics размеры глифов из TrueType-шрифта
type FontMetrics struct {
	font   *sfnt.Font
	upm    float64
	ppem   fixed.Int26_6
	ascent float64

	mu  sync.Mutex // sfnt.Buffer нельзя использовать параллельно
	buf sfnt.Buffer
}

// NewFontMetrics разбирает шрифт
func NewFontMetrics(ttf []byte) (*FontMetrics, error) {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	upm := float64(f.UnitsPerEm())
	// кегль в пикселях равен числу единиц на em, так что 1 px = 1 единица шрифта
	m := &FontMetrics{font: f, upm: upm, ppem: fixed.Int26_6(upm * 64)}

	metrics, err := f.Metrics(&m.buf, m.ppem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("reading font metrics: %w", err)
	}
	m.ascent = units(metrics.Ascent) / upm
	return m, nil
}

// DefaultFontMetrics метрики встроенного шрифта Go Regular
func DefaultFontMetrics() (*FontMetrics, error) {
	return NewFontMetrics(goregular.TTF)
}

func units(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Ascent высота над базовой линией в долях кегля
func (m *FontMetrics) Ascent() float64 {
	return m.ascent
}

// Extent границы глифа символа r
func (m *FontMetrics) Extent(r rune) (GlyphExtent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.font.GlyphIndex(&m.buf, r)
	if err != nil {
		return GlyphExtent{}, err
	}
	if idx == 0 {
		return GlyphExtent{}, fmt.Errorf("%w: %q", ErrMissingGlyph, r)
	}

	bounds, advance, err := m.font.GlyphBounds(&m.buf, idx, m.ppem, font.HintingNone)
	if err != nil {
		return GlyphExtent{}, err
	}
	return GlyphExtent{
		XMin:    units(bounds.Min.X) / m.upm,
		XMax:    units(bounds.Max.X) / m.upm,
		Advance: units(advance) / m.upm,
	}, nil
}

// LetterDimensions размеры коллайдера буквы: ширина до правой границы глифа,
// высота по асценту шрифта, толщина пропорциональна кеглю
func (m *FontMetrics) LetterDimensions(r rune, fontSize, depth float64) (entity.Dimensions, error) {
	ext, err := m.Extent(r)
	if err != nil {
		return entity.Dimensions{}, err
	}
	return entity.Dimensions{
		Width:  ext.XMax * fontSize,
		Height: m.ascent * fontSize,
		Depth:  fontSize * depth * glyphDepthFactor,
	}, nil
}
