package accretion

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/physics"
)

// Strategy имя стратегии совместного движения
type Strategy string

const (
	StrategyFused  Strategy = "fused"
	StrategyRepose Strategy = "repose"
)

// AttachRequest все, что нужно стратегии для привязки объекта к шару
type AttachRequest struct {
	Ball       entity.BodyHandle
	Body       entity.BodyHandle
	Dimensions entity.Dimensions
	Attachment Attachment
	Initial    mgl64.Quat
}

// Synchronizer держит поглощенную геометрию жестко связанной с шаром
type Synchronizer interface {
	// Attach связывает объект с шаром в момент поглощения
	Attach(req AttachRequest) (entity.Binding, error)

	// Detach отменяет Attach (откат неудавшегося поглощения)
	Detach(ball entity.BodyHandle, b entity.Binding) error

	// Sync вызывается каждый тик после шага физики
	Sync(ball entity.Pose, records []entity.AccretionRecord)

	Strategy() Strategy
}

// NewSynchronizer создает стратегию по имени
func NewSynchronizer(s Strategy, world physics.World, shape physics.BoxShape, logger *zap.Logger) (Synchronizer, error) {
	switch s {
	case StrategyFused, "":
		return NewFusedCollider(world, shape), nil
	case StrategyRepose:
		return NewPerTickRepose(world, logger), nil
	}
	return nil, fmt.Errorf("unknown co-motion strategy %q", s)
}

// FusedCollider прикрепляет к телу шара коробчатый коллайдер в локальной позе.
// Дальше физический мир двигает его сам, покадровой работы нет.
type FusedCollider struct {
	world physics.World
	shape physics.BoxShape // трение и упругость для всех прикрепленных коллайдеров
}

// NewFusedCollider создает стратегию слитого коллайдера
func NewFusedCollider(world physics.World, shape physics.BoxShape) *FusedCollider {
	return &FusedCollider{world: world, shape: shape}
}

func (f *FusedCollider) Strategy() Strategy { return StrategyFused }

func (f *FusedCollider) Attach(req AttachRequest) (entity.Binding, error) {
	shape := f.shape
	shape.HalfExtents = req.Dimensions.HalfExtents()
	orientation := req.Attachment.LocalOrientation.Mul(req.Initial)

	handle, err := f.world.AttachCollider(req.Ball, shape, req.Attachment.LocalPosition, orientation)
	if err != nil {
		return entity.RenderOnlyBinding(), err
	}
	return entity.Binding{Mode: entity.BindingFused, Collider: handle, Body: entity.NoBody}, nil
}

func (f *FusedCollider) Detach(ball entity.BodyHandle, b entity.Binding) error {
	if b.Mode != entity.BindingFused {
		return nil
	}
	return f.world.DetachCollider(ball, b.Collider)
}

func (f *FusedCollider) Sync(entity.Pose, []entity.AccretionRecord) {}

// PerTickRepose оставляет объект отдельным отключенным телом и каждый тик
// записывает в него позу, вычисленную из позы шара и локального смещения.
type PerTickRepose struct {
	world  physics.World
	logger *zap.Logger
}

// NewPerTickRepose создает стратегию покадровой перестановки
func NewPerTickRepose(world physics.World, logger *zap.Logger) *PerTickRepose {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerTickRepose{world: world, logger: logger}
}

func (p *PerTickRepose) Strategy() Strategy { return StrategyRepose }

func (p *PerTickRepose) Attach(req AttachRequest) (entity.Binding, error) {
	if req.Body == entity.NoBody {
		return entity.RenderOnlyBinding(), fmt.Errorf("%w: no body to repose", physics.ErrUnknownBody)
	}
	return entity.Binding{Mode: entity.BindingReposed, Collider: entity.NoCollider, Body: req.Body}, nil
}

func (p *PerTickRepose) Detach(entity.BodyHandle, entity.Binding) error { return nil }

func (p *PerTickRepose) Sync(ball entity.Pose, records []entity.AccretionRecord) {
	for _, rec := range records {
		if rec.Binding.Mode != entity.BindingReposed {
			continue
		}
		pose := entity.ComposeWorldPose(ball, rec)
		if err := p.world.SetBodyTransform(rec.Binding.Body, pose.Position, pose.Orientation); err != nil {
			p.logger.Warn("[CoMotion] не удалось переставить тело",
				zap.String("entity", rec.ID), zap.Error(err))
		}
	}
}
