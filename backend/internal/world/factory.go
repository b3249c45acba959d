package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
)

// PropWorld физический мир, в который ставятся объекты сцены
type PropWorld interface {
	AddBox(position mgl64.Vec3, orientation mgl64.Quat, halfExtents mgl64.Vec3) (entity.BodyHandle, error)
}

// Stats сколько объектов каждого типа создано
type Stats struct {
	Boxes   int
	Letters int
	Models  int
	Random  int
	Skipped int
}

// Total всего созданных объектов
func (s Stats) Total() int {
	return s.Boxes + s.Letters + s.Models + s.Random
}

// Factory создает объекты сцены в физическом мире и регистрирует их в таблице
type Factory struct {
	world   PropWorld
	table   *entity.Table
	metrics *FontMetrics
	logger  *zap.Logger
}

// NewFactory создает новый экземпляр Factory
func NewFactory(world PropWorld, table *entity.Table, metrics *FontMetrics, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{world: world, table: table, metrics: metrics, logger: logger}
}

// Populate заселяет мир объектами сцены. Отдельные некорректные объекты
// пропускаются с предупреждением, ошибка возвращается только если шрифт недоступен.
func (f *Factory) Populate(scene *Scene) (Stats, error) {
	var stats Stats

	for _, b := range scene.Boxes {
		if f.addBox(b) {
			stats.Boxes++
		} else {
			stats.Skipped++
		}
	}

	if len(scene.Words) > 0 && f.metrics == nil {
		return stats, fmt.Errorf("scene has %d words but no font metrics", len(scene.Words))
	}
	for _, w := range scene.Words {
		letters, err := LayoutWord(w, f.metrics)
		if err != nil {
			f.logger.Warn("[World] не удалось разложить слово", zap.String("word", w.ID), zap.Error(err))
			stats.Skipped++
			continue
		}
		for _, l := range letters {
			meta := entity.NewGlyphMetadata(l.ID, l.Dimensions, l.Rotation, entity.GlyphParams{
				Char:     string(l.Char),
				FontSize: w.FontSize,
				Color:    w.Color,
			})
			if f.addProp(meta, l.Center, l.Rotation) {
				stats.Letters++
			} else {
				stats.Skipped++
			}
		}
	}

	for _, m := range scene.Models {
		dims := entity.Dimensions{
			Width:  m.Bounds[0] * m.Scale[0],
			Height: m.Bounds[1] * m.Scale[1],
			Depth:  m.Bounds[2] * m.Scale[2],
		}
		rot := entity.EulerXYZ(m.Rotation[0], m.Rotation[1], m.Rotation[2])
		meta := entity.NewModelMetadata(m.ID, dims, rot, entity.ModelParams{Path: m.Path, Scale: m.Scale})
		center := m.Position.Add(mgl64.Vec3{0, dims.Height / 2, 0})
		if f.addProp(meta, center, rot) {
			stats.Models++
		} else {
			stats.Skipped++
		}
	}

	if scene.Random != nil && scene.Random.Count > 0 {
		for _, b := range RandomBoxes(*scene.Random, scene.Ball.Position) {
			if f.addBox(b) {
				stats.Random++
			} else {
				stats.Skipped++
			}
		}
	}

	f.logger.Info("[World] сцена создана",
		zap.Int("boxes", stats.Boxes),
		zap.Int("letters", stats.Letters),
		zap.Int("models", stats.Models),
		zap.Int("random", stats.Random),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (f *Factory) addBox(b BoxSpec) bool {
	dims := entity.Dimensions{Width: b.Size[0], Height: b.Size[1], Depth: b.Size[2]}
	rot := entity.EulerXYZ(b.Rotation[0], b.Rotation[1], b.Rotation[2])
	meta := entity.NewBoxMetadata(b.ID, dims, rot, b.Color)
	center := b.Position.Add(mgl64.Vec3{0, dims.Height / 2, 0})
	return f.addProp(meta, center, rot)
}

// addProp ставит статичное тело и регистрирует объект. Исходная ориентация
// тела совпадает с исходной ориентацией в метаданных.
func (f *Factory) addProp(meta entity.Metadata, center mgl64.Vec3, rot mgl64.Quat) bool {
	if err := meta.Dimensions.Validate(); err != nil {
		f.logger.Warn("[World] объект с вырожденными размерами пропущен",
			zap.String("id", meta.ID), zap.Any("dimensions", meta.Dimensions))
		return false
	}
	if _, exists := f.table.ByID(meta.ID); exists {
		f.logger.Warn("[World] повторный ID пропущен", zap.String("id", meta.ID))
		return false
	}

	body, err := f.world.AddBox(center, rot, meta.Dimensions.HalfExtents())
	if err != nil {
		f.logger.Warn("[World] не удалось создать тело", zap.String("id", meta.ID), zap.Error(err))
		return false
	}
	if _, err := f.table.Add(meta, body); err != nil {
		f.logger.Warn("[World] не удалось зарегистрировать объект", zap.String("id", meta.ID), zap.Error(err))
		return false
	}

	f.logger.Debug("[World] создан объект",
		zap.String("id", meta.ID),
		zap.String("kind", string(meta.Kind)),
		zap.Float64("x", center[0]), zap.Float64("y", center[1]), zap.Float64("z", center[2]))
	return true
}
