// Package steering переводит ввод игрока в импульсы вращения шара и ведет камеру.
package steering

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up мировая вертикаль
var Up = mgl64.Vec3{0, 1, 0}

// Config настройки управления и камеры
type Config struct {
	// TurnSpeed - скорость поворота (рад/с) при нулевой скорости шара
	TurnSpeed float64 `yaml:"turn_speed"`

	// TurnFalloff - чем быстрее шар, тем медленнее поворот
	TurnFalloff float64 `yaml:"turn_falloff"`

	TorqueFactor float64 `yaml:"torque_factor"`

	// BaseMoveForce - сила разгона на единицу массы
	BaseMoveForce float64 `yaml:"base_move_force"`

	// SpeedFalloff - разгон слабеет с ростом скорости
	SpeedFalloff float64 `yaml:"speed_falloff"`

	CameraDistance float64 `yaml:"camera_distance"`
	CameraHeight   float64 `yaml:"camera_height"`

	// CameraSmoothing - доля пути к желаемой позиции за тик
	CameraSmoothing float64 `yaml:"camera_smoothing"`
}

// DefaultConfig настройки по умолчанию
func DefaultConfig() Config {
	return Config{
		TurnSpeed:       1.5,
		TurnFalloff:     0.2,
		TorqueFactor:    0.6,
		BaseMoveForce:   0.5,
		SpeedFalloff:    0.15,
		CameraDistance:  4,
		CameraHeight:    1.6,
		CameraSmoothing: 0.05,
	}
}

// Input состояние клавиш
type Input struct {
	Forward bool `json:"forward"`
	Back    bool `json:"back"`
	Left    bool `json:"left"`
	Right   bool `json:"right"`
}

// Idle true, если ничего не нажато
func (in Input) Idle() bool {
	return !in.Forward && !in.Back && !in.Left && !in.Right
}

// Controller хранит направление движения шара
type Controller struct {
	cfg     Config
	heading float64
}

// NewController создает контроллер, смотрящий вдоль +Z
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Heading угол направления вокруг вертикали
func (c *Controller) Heading() float64 {
	return c.heading
}

// Direction единичный вектор направления в горизонтальной плоскости
func (c *Controller) Direction() mgl64.Vec3 {
	return Direction(c.heading)
}

// Direction вектор направления для угла heading
func Direction(heading float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(heading), 0, math.Cos(heading)}
}

// Update поворачивает направление и возвращает импульс вращения для шара.
// speed - текущая линейная скорость шара, mass - его масса.
func (c *Controller) Update(in Input, dt, speed, mass float64) mgl64.Vec3 {
	turn := c.cfg.TurnSpeed / (1 + c.cfg.TurnFalloff*speed) * dt
	if in.Left {
		c.heading += turn
	}
	if in.Right {
		c.heading -= turn
	}
	c.heading = math.Remainder(c.heading, 2*math.Pi)

	drive := 0.0
	if in.Forward {
		drive++
	}
	if in.Back {
		drive--
	}
	if drive == 0 {
		return mgl64.Vec3{}
	}

	magnitude := c.cfg.TorqueFactor * dt * (c.cfg.BaseMoveForce * mass) * math.Max(0, 1-c.cfg.SpeedFalloff*speed)
	axis := Up.Cross(c.Direction())
	return axis.Mul(magnitude * drive)
}
