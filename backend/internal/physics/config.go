package physics

import (
	"errors"
	"fmt"
	"math"
)

// Config содержит настройки физического мира
type Config struct {
	// Gravity - ускорение свободного падения (вниз по оси Y)
	Gravity float64 `yaml:"gravity"`

	// LinearDamping - затухание линейного движения шара
	LinearDamping float64 `yaml:"linear_damping"`

	// AngularDamping - затухание вращения шара
	AngularDamping float64 `yaml:"angular_damping"`

	// Friction - трение качения о землю и трение прикрепленных коллайдеров
	Friction float64 `yaml:"friction"`

	// Restitution - коэффициент отскока
	Restitution float64 `yaml:"restitution"`

	// GroundLevel - высота плоскости земли
	GroundLevel float64 `yaml:"ground_level"`

	// CellSize - размер ячейки пространственной сетки
	CellSize float64 `yaml:"cell_size"`

	// MaxSpeed - максимальная линейная скорость, защита от взрыва симуляции
	MaxSpeed float64 `yaml:"max_speed"`

	// StepRate - частота шага симуляции (шагов в секунду)
	StepRate int `yaml:"step_rate"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Gravity:        9.81,
		LinearDamping:  0.8,
		AngularDamping: 0.5,
		Friction:       1.5,
		Restitution:    0.1,
		GroundLevel:    0,
		CellSize:       2.0,
		MaxSpeed:       40.0,
		StepRate:       60,
	}
}

// TimeStep длительность одного шага симуляции
func (c Config) TimeStep() float64 {
	if c.StepRate <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(c.StepRate)
}

var errInvalidConfig = errors.New("invalid physics config")

// Validate проверяет диапазоны настроек
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"gravity":         c.Gravity,
		"linear_damping":  c.LinearDamping,
		"angular_damping": c.AngularDamping,
		"friction":        c.Friction,
		"restitution":     c.Restitution,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%w: %s = %v", errInvalidConfig, name, v)
		}
	}
	if c.Restitution > 1 {
		return fmt.Errorf("%w: restitution %.2f > 1", errInvalidConfig, c.Restitution)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("%w: cell size must be positive", errInvalidConfig)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("%w: max speed must be positive", errInvalidConfig)
	}
	if c.StepRate <= 0 {
		return fmt.Errorf("%w: step rate must be positive", errInvalidConfig)
	}
	return nil
}
