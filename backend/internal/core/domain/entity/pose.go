package entity

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyHandle стабильный идентификатор тела в физическом мире (индекс в арене)
type BodyHandle uint32

// ColliderHandle идентификатор дополнительного коллайдера, прикрепленного к телу
type ColliderHandle uint32

// NoBody означает отсутствие тела
const NoBody BodyHandle = math.MaxUint32

// NoCollider означает отсутствие прикрепленного коллайдера
const NoCollider ColliderHandle = math.MaxUint32

// Pose положение и ориентация в мировой системе координат
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityPose возвращает позу в начале координат без поворота
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// NewPose создает позу из позиции и ориентации
func NewPose(position mgl64.Vec3, orientation mgl64.Quat) Pose {
	return Pose{Position: position, Orientation: orientation}
}

// IsFinite проверяет, что в позе нет NaN и бесконечностей
func (p Pose) IsFinite() bool {
	for _, v := range []float64{
		p.Position[0], p.Position[1], p.Position[2],
		p.Orientation.W, p.Orientation.V[0], p.Orientation.V[1], p.Orientation.V[2],
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// EulerXYZ строит кватернион из углов Эйлера в порядке XYZ (R = Rx·Ry·Rz)
func EulerXYZ(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(x, mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(y, mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(z, mgl64.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}
