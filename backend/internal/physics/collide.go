package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// obb ориентированный бокс в мировых координатах
type obb struct {
	center mgl64.Vec3
	orient mgl64.Quat
	half   mgl64.Vec3
}

func (b obb) axes() [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		b.orient.Rotate(mgl64.Vec3{1, 0, 0}),
		b.orient.Rotate(mgl64.Vec3{0, 1, 0}),
		b.orient.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

func (b obb) bounds() aabb {
	ax := b.axes()
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext[i] += math.Abs(ax[j][i]) * b.half[j]
		}
	}
	return aabb{min: b.center.Sub(ext), max: b.center.Add(ext)}
}

// lowest самая нижняя точка бокса
func (b obb) lowest() mgl64.Vec3 {
	p := b.center
	for i, ax := range b.axes() {
		if ax[1] > 0 {
			p = p.Sub(ax.Mul(b.half[i]))
		} else {
			p = p.Add(ax.Mul(b.half[i]))
		}
	}
	return p
}

// penetration результат пересечения: нормаль направлена от бокса к сфере
type penetration struct {
	normal mgl64.Vec3
	depth  float64
}

// sphereVsOBB проверяет пересечение сферы с ориентированным боксом
func sphereVsOBB(center mgl64.Vec3, radius float64, box obb) (penetration, bool) {
	inv := box.orient.Inverse()
	local := inv.Rotate(center.Sub(box.center))

	closest := local
	inside := true
	for i := 0; i < 3; i++ {
		if closest[i] < -box.half[i] {
			closest[i] = -box.half[i]
			inside = false
		} else if closest[i] > box.half[i] {
			closest[i] = box.half[i]
			inside = false
		}
	}

	if !inside {
		d := local.Sub(closest)
		dist := d.Len()
		if dist >= radius {
			return penetration{}, false
		}
		if dist < 1e-12 {
			return penetration{}, false
		}
		return penetration{
			normal: box.orient.Rotate(d.Mul(1 / dist)),
			depth:  radius - dist,
		}, true
	}

	// Центр внутри бокса: выталкиваем вдоль оси наименьшего проникновения
	axis, best, sign := 0, math.Inf(1), 1.0
	for i := 0; i < 3; i++ {
		gap := box.half[i] - math.Abs(local[i])
		if gap < best {
			best, axis = gap, i
			sign = 1
			if local[i] < 0 {
				sign = -1
			}
		}
	}
	var n mgl64.Vec3
	n[axis] = sign
	return penetration{normal: box.orient.Rotate(n), depth: best + radius}, true
}
