package world

import (
	"fmt"
	"math"
	"unicode"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
)

// letterSpacingFactor межбуквенный интервал в долях кегля при spacing = 1
const letterSpacingFactor = 0.125

// PlacedLetter буква слова с готовой позой
type PlacedLetter struct {
	ID         string
	Char       rune
	Center     mgl64.Vec3
	Rotation   mgl64.Quat
	Dimensions entity.Dimensions
}

// LayoutWord раскладывает буквы вдоль направления слова, центрируя его в
// w.Position. Каждая буква повернута лицом поперек направления; пробелы дают
// отступ, но объектов не порождают.
func LayoutWord(w WordSpec, m *FontMetrics) ([]PlacedLetter, error) {
	chars := []rune(w.Text)
	widths := make([]float64, len(chars))
	total := 0.0
	for i, ch := range chars {
		ext, err := m.Extent(ch)
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", w.ID, err)
		}
		widths[i] = ext.Width() * w.FontSize
		if widths[i] == 0 {
			widths[i] = ext.Advance * w.FontSize
		}
		total += widths[i]
	}

	spacing := w.FontSize * letterSpacingFactor * w.Spacing
	total += spacing * float64(max(len(chars)-1, 0))

	angle := w.WordAngle + math.Pi
	dir := mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}
	rotation := entity.EulerXYZ(0, -angle+w.LetterAngle, 0)

	letters := make([]PlacedLetter, 0, len(chars))
	offset := -total / 2
	for i, ch := range chars {
		along := offset + widths[i]/2
		offset += widths[i] + spacing

		if unicode.IsSpace(ch) {
			continue
		}
		dims, err := m.LetterDimensions(ch, w.FontSize, w.Depth)
		if err != nil {
			return nil, fmt.Errorf("word %q: %w", w.ID, err)
		}
		if dims.Validate() != nil {
			continue
		}

		center := w.Position.Add(dir.Mul(along))
		center[1] += dims.Height / 2
		letters = append(letters, PlacedLetter{
			ID:         fmt.Sprintf("%s-%d", w.ID, i),
			Char:       ch,
			Center:     center,
			Rotation:   rotation,
			Dimensions: dims,
		})
	}
	return letters, nil
}
