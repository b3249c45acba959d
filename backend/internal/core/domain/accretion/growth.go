package accretion

import "math"

// SphereVolume объем шара радиуса r
func SphereVolume(r float64) float64 {
	return (4.0 / 3.0) * math.Pi * r * r * r
}

// RadiusForVolume радиус шара заданного объема
func RadiusForVolume(v float64) float64 {
	return math.Cbrt(v / ((4.0 / 3.0) * math.Pi))
}

// Grow новый виртуальный радиус после зачисления addedVolume·credit.
// Неположительный или нечисловой вклад радиус не меняет.
func Grow(radius, addedVolume, credit float64) float64 {
	credited := addedVolume * credit
	if !(credited > 0) || math.IsInf(credited, 0) {
		return radius
	}
	return RadiusForVolume(SphereVolume(radius) + credited)
}

// MassFor масса шара радиуса r: масса растет пропорционально отношению объемов
func (p Policy) MassFor(radius float64) float64 {
	ratio := radius / p.InitialRadius
	return p.BaseMass * ratio * ratio * ratio
}
