package steering

import "github.com/go-gl/mathgl/mgl64"

// Camera камера, следующая за шаром сзади и сверху
type Camera struct {
	Position mgl64.Vec3 `json:"position"`
	Target   mgl64.Vec3 `json:"target"`

	cfg    Config
	placed bool
}

// NewCamera создает камеру
func NewCamera(cfg Config) *Camera {
	return &Camera{cfg: cfg}
}

// Follow сдвигает камеру к точке за шаром. Отступ растет вместе с радиусом шара.
func (c *Camera) Follow(ball, direction mgl64.Vec3, radius float64) {
	scale := 0.5 + radius
	desired := ball.
		Sub(direction.Mul(c.cfg.CameraDistance * scale)).
		Add(Up.Mul(c.cfg.CameraHeight * scale))

	if !c.placed {
		c.Position = desired
		c.placed = true
	} else {
		c.Position = c.Position.Add(desired.Sub(c.Position).Mul(c.cfg.CameraSmoothing))
	}
	c.Target = ball.Add(direction)
}
