// Package accretion реализует поглощение объектов катящимся шаром: проверку
// пригодности, расчет точки крепления, рост шара, хранение записей и
// совместное движение прикрепленной геометрии.
package accretion

import (
	"errors"
	"fmt"
)

// Policy настройки роста. Внедряется один раз при создании сессии.
type Policy struct {
	MarginFactor  float64 // доля диаметра шара, в которую должна уместиться длинная сторона
	VolumeDivisor float64 // объект должен быть меньше V(шара)/VolumeDivisor
	CreditFactor  float64 // доля объема объекта, которая идет в рост шара
	BaseMass      float64
	InitialRadius float64
}

// DefaultPolicy настройки, на которых играется основная сцена
func DefaultPolicy() Policy {
	return Policy{
		MarginFactor:  0.9,
		VolumeDivisor: 8,
		CreditFactor:  0.5,
		BaseMass:      3,
		InitialRadius: 0.5,
	}
}

var errInvalidPolicy = errors.New("invalid accretion policy")

// Validate проверяет диапазоны настроек
func (p Policy) Validate() error {
	switch {
	case p.MarginFactor <= 0 || p.MarginFactor > 1:
		return fmt.Errorf("%w: margin factor %.3f not in (0,1]", errInvalidPolicy, p.MarginFactor)
	case p.VolumeDivisor <= 0:
		return fmt.Errorf("%w: volume divisor %.3f must be positive", errInvalidPolicy, p.VolumeDivisor)
	case p.CreditFactor <= 0 || p.CreditFactor > 1:
		return fmt.Errorf("%w: credit factor %.3f not in (0,1]", errInvalidPolicy, p.CreditFactor)
	case p.BaseMass <= 0:
		return fmt.Errorf("%w: base mass %.3f must be positive", errInvalidPolicy, p.BaseMass)
	case p.InitialRadius <= 0:
		return fmt.Errorf("%w: initial radius %.3f must be positive", errInvalidPolicy, p.InitialRadius)
	}
	return nil
}
