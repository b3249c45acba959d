package accretion

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
)

// MinAttachDistance минимальное расстояние между центрами, при котором направление определено
const MinAttachDistance = 1e-6

// ErrDegenerateDirection центры шара и объекта совпадают
var ErrDegenerateDirection = errors.New("degenerate attach direction")

// Attachment поза крепления в локальной системе шара
type Attachment struct {
	LocalPosition    mgl64.Vec3
	LocalOrientation mgl64.Quat
}

// ComputeAttachment переводит направление на объект в систему шара и ставит точку
// крепления на текущую поверхность радиуса radius. Исходный наклон объекта
// (initial) выносится за скобки и хранится отдельно.
func ComputeAttachment(ball entity.Pose, radius float64, object entity.Pose, initial mgl64.Quat) (Attachment, error) {
	dir := object.Position.Sub(ball.Position)
	dist := dir.Len()
	if !(dist >= MinAttachDistance) {
		return Attachment{}, ErrDegenerateDirection
	}

	inv := ball.Orientation.Normalize().Inverse()
	local := inv.Rotate(dir.Mul(1 / dist)).Mul(radius)

	incidental := object.Orientation.Normalize().Mul(normalizeOrIdent(initial).Inverse())
	relative := inv.Mul(incidental).Normalize()

	att := Attachment{LocalPosition: local, LocalOrientation: relative}
	if !entity.NewPose(att.LocalPosition, att.LocalOrientation).IsFinite() {
		return Attachment{}, ErrDegenerateDirection
	}
	return att, nil
}

func normalizeOrIdent(q mgl64.Quat) mgl64.Quat {
	if q.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
