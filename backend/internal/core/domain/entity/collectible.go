package entity

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind тип собираемого объекта (определяет отрисовку и расчет объема)
type Kind string

// Константы типов собираемых объектов
const (
	KindBox   Kind = "box"
	KindGlyph Kind = "glyph"
	KindModel Kind = "model"
)

// GlyphVolumeFactor скидка объема для букв: глиф занимает лишь часть своего бокса
const GlyphVolumeFactor = 0.5

// ErrDegenerateGeometry размеры объекта непригодны для расчетов
var ErrDegenerateGeometry = errors.New("degenerate entity geometry")

// Dimensions ориентированный ограничивающий бокс в локальной системе объекта
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Depth  float64 `json:"depth" yaml:"depth"`
}

// BoxVolume объем бокса
func (d Dimensions) BoxVolume() float64 {
	return d.Width * d.Height * d.Depth
}

// Max самая длинная сторона
func (d Dimensions) Max() float64 {
	return math.Max(d.Width, math.Max(d.Height, d.Depth))
}

// HalfExtents половины сторон, как их ожидает коллайдер
func (d Dimensions) HalfExtents() mgl64.Vec3 {
	return mgl64.Vec3{d.Width / 2, d.Height / 2, d.Depth / 2}
}

// Validate проверяет, что все стороны конечны и положительны
func (d Dimensions) Validate() error {
	for _, v := range []float64{d.Width, d.Height, d.Depth} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return ErrDegenerateGeometry
		}
	}
	return nil
}

// BoxParams параметры отрисовки ящика
type BoxParams struct {
	Color string `json:"color"`
}

// GlyphParams параметры отрисовки буквы
type GlyphParams struct {
	Char     string  `json:"char"`
	FontSize float64 `json:"font_size"`
	Color    string  `json:"color"`
}

// ModelParams параметры внешней модели
type ModelParams struct {
	Path  string     `json:"path"`
	Scale mgl64.Vec3 `json:"scale"`
}

// Metadata метаданные собираемого объекта. Вариант определяется полем Kind,
// заполнен ровно один из указателей Box/Glyph/Model.
type Metadata struct {
	ID                 string
	Kind               Kind
	Dimensions         Dimensions
	InitialOrientation mgl64.Quat

	Box   *BoxParams
	Glyph *GlyphParams
	Model *ModelParams
}

// NewBoxMetadata метаданные ящика
func NewBoxMetadata(id string, dims Dimensions, initial mgl64.Quat, color string) Metadata {
	return Metadata{ID: id, Kind: KindBox, Dimensions: dims, InitialOrientation: initial, Box: &BoxParams{Color: color}}
}

// NewGlyphMetadata метаданные буквы
func NewGlyphMetadata(id string, dims Dimensions, initial mgl64.Quat, params GlyphParams) Metadata {
	return Metadata{ID: id, Kind: KindGlyph, Dimensions: dims, InitialOrientation: initial, Glyph: &params}
}

// NewModelMetadata метаданные внешней модели
func NewModelMetadata(id string, dims Dimensions, initial mgl64.Quat, params ModelParams) Metadata {
	return Metadata{ID: id, Kind: KindModel, Dimensions: dims, InitialOrientation: initial, Model: &params}
}

// Volume объем с учетом типа объекта
func (m Metadata) Volume() float64 {
	v := m.Dimensions.BoxVolume()
	if m.Kind == KindGlyph {
		return v * GlyphVolumeFactor
	}
	return v
}

// MaxDimension самая длинная сторона
func (m Metadata) MaxDimension() float64 {
	return m.Dimensions.Max()
}

// State состояние собираемого объекта
type State int

const (
	Uncollected State = iota
	Collected
)

func (s State) String() string {
	if s == Collected {
		return "collected"
	}
	return "uncollected"
}

// Collectible собираемый объект мира
type Collectible struct {
	Metadata
	Body  BodyHandle
	State State
}

// IsCollected true после поглощения шаром
func (c *Collectible) IsCollected() bool {
	return c.State == Collected
}
