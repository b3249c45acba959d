// Package world описывает сцену: какие объекты лежат на поле и где,
// и заселяет ими физический мир и таблицу собираемых объектов.
package world

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

//go:embed default_scene.yaml
var defaultScene []byte

// ErrInvalidScene сцена не прошла проверку
var ErrInvalidScene = errors.New("invalid scene")

// Scene содержимое поля
type Scene struct {
	Ball   BallSpec     `yaml:"ball"`
	Boxes  []BoxSpec    `yaml:"boxes"`
	Words  []WordSpec   `yaml:"words"`
	Models []ModelSpec  `yaml:"models"`
	Random *RandomField `yaml:"random"`
}

// BallSpec точка появления шара
type BallSpec struct {
	Position mgl64.Vec3 `yaml:"position"`
}

// BoxSpec ящик. Position.Y - высота основания, центр поднимается на половину высоты.
type BoxSpec struct {
	ID       string     `yaml:"id"`
	Position mgl64.Vec3 `yaml:"position"`
	Size     mgl64.Vec3 `yaml:"size"`
	Rotation mgl64.Vec3 `yaml:"rotation"` // углы Эйлера XYZ, радианы
	Color    string     `yaml:"color"`
}

// WordSpec слово из объемных букв
type WordSpec struct {
	ID          string     `yaml:"id"`
	Text        string     `yaml:"text"`
	Position    mgl64.Vec3 `yaml:"position"`
	FontSize    float64    `yaml:"font_size"`
	Depth       float64    `yaml:"depth"`
	Spacing     float64    `yaml:"spacing"`
	WordAngle   float64    `yaml:"word_angle"`
	LetterAngle float64    `yaml:"letter_angle"`
	Color       string     `yaml:"color"`
}

// ModelSpec внешняя модель с известным ограничивающим боксом
type ModelSpec struct {
	ID       string     `yaml:"id"`
	Path     string     `yaml:"path"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation mgl64.Vec3 `yaml:"rotation"`
	Bounds   mgl64.Vec3 `yaml:"bounds"` // размеры при масштабе 1
	Scale    mgl64.Vec3 `yaml:"scale"`
}

// RandomField случайно разбросанные ящики
type RandomField struct {
	Count     int     `yaml:"count"`
	Radius    float64 `yaml:"radius"`
	MinSize   float64 `yaml:"min_size"`
	MaxSize   float64 `yaml:"max_size"`
	ClearZone float64 `yaml:"clear_zone"` // вокруг точки появления шара
	Seed      int64   `yaml:"seed"`
}

// DefaultScene встроенная сцена
func DefaultScene() (*Scene, error) {
	return ParseScene(defaultScene)
}

// LoadScene читает сцену из файла; пустой путь означает встроенную сцену
func LoadScene(path string) (*Scene, error) {
	if path == "" {
		return DefaultScene()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	return ParseScene(data)
}

// ParseScene разбирает YAML и заполняет значения по умолчанию
func ParseScene(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scene) applyDefaults() {
	if s.Ball.Position == (mgl64.Vec3{}) {
		s.Ball.Position = mgl64.Vec3{0, 0.5, 0}
	}
	for i := range s.Words {
		w := &s.Words[i]
		if w.FontSize == 0 {
			w.FontSize = 1
		}
		if w.Depth == 0 {
			w.Depth = 1
		}
		if w.Spacing == 0 {
			w.Spacing = 1
		}
		if w.Color == "" {
			w.Color = "#777777"
		}
	}
	for i := range s.Models {
		if s.Models[i].Scale == (mgl64.Vec3{}) {
			s.Models[i].Scale = mgl64.Vec3{1, 1, 1}
		}
	}
	if r := s.Random; r != nil {
		if r.MinSize == 0 {
			r.MinSize = 0.1
		}
		if r.MaxSize == 0 {
			r.MaxSize = 1.0
		}
	}
}

// Validate проверяет уникальность ID и размеры
func (s *Scene) Validate() error {
	seen := make(map[string]struct{})
	claim := func(id string) error {
		if id == "" {
			return fmt.Errorf("%w: object without id", ErrInvalidScene)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidScene, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, b := range s.Boxes {
		if err := claim(b.ID); err != nil {
			return err
		}
		if b.Size[0] <= 0 || b.Size[1] <= 0 || b.Size[2] <= 0 {
			return fmt.Errorf("%w: box %q has non-positive size", ErrInvalidScene, b.ID)
		}
	}
	for _, w := range s.Words {
		if err := claim(w.ID); err != nil {
			return err
		}
		if w.Text == "" {
			return fmt.Errorf("%w: word %q is empty", ErrInvalidScene, w.ID)
		}
		if w.FontSize < 0 || w.Depth < 0 {
			return fmt.Errorf("%w: word %q has negative size", ErrInvalidScene, w.ID)
		}
	}
	for _, m := range s.Models {
		if err := claim(m.ID); err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if m.Bounds[i] <= 0 || m.Scale[i] <= 0 {
				return fmt.Errorf("%w: model %q has non-positive bounds", ErrInvalidScene, m.ID)
			}
		}
	}
	if r := s.Random; r != nil {
		if r.Count < 0 || r.Radius <= 0 || r.MinSize <= 0 || r.MaxSize < r.MinSize {
			return fmt.Errorf("%w: random field %+v", ErrInvalidScene, *r)
		}
	}
	return nil
}

// OverrideRandom задает случайное поле поверх сцены. count 0 убирает поле,
// нулевые radius и seed оставляют значения сцены.
func (s *Scene) OverrideRandom(count int, radius float64, seed int64) {
	if count <= 0 {
		s.Random = nil
		return
	}
	if s.Random == nil {
		s.Random = &RandomField{MinSize: 0.1, MaxSize: 1.0, ClearZone: 3, Radius: 25}
	}
	s.Random.Count = count
	if radius > 0 {
		s.Random.Radius = radius
	}
	if seed != 0 {
		s.Random.Seed = seed
	}
}
