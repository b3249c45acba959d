package world

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
)

var palette = []string{"#e74c3c", "#f1c40f", "#2ecc71", "#3498db", "#9b59b6", "#e67e22", "#1abc9c"}

// RandomBoxes раскладывает ящики случайных размеров по квадрату со стороной
// 2·Radius вокруг center, не заходя в свободную зону. Результат детерминирован по Seed.
func RandomBoxes(field RandomField, center mgl64.Vec3) []BoxSpec {
	seed := uint64(field.Seed)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	boxes := make([]BoxSpec, 0, field.Count)
	for i := 0; len(boxes) < field.Count && i < field.Count*20; i++ {
		x := center[0] + (rng.Float64()*2-1)*field.Radius
		z := center[2] + (rng.Float64()*2-1)*field.Radius
		if dx, dz := x-center[0], z-center[2]; dx*dx+dz*dz < field.ClearZone*field.ClearZone {
			continue
		}

		size := func() float64 { return field.MinSize + rng.Float64()*(field.MaxSize-field.MinSize) }
		boxes = append(boxes, BoxSpec{
			ID:       fmt.Sprintf("rnd-%d", len(boxes)),
			Position: mgl64.Vec3{x, 0, z},
			Size:     mgl64.Vec3{size(), size(), size()},
			Rotation: mgl64.Vec3{0, rng.Float64() * 2 * math.Pi, 0},
			Color:    palette[rng.IntN(len(palette))],
		})
	}
	return boxes
}
