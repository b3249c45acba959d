package entity

// Ball шар игрока. Поза принадлежит физическому миру и здесь не хранится.
type Ball struct {
	Body BodyHandle

	CoreRadius    float64 // радиус видимого "ядра", не меняется
	InitialRadius float64
	BaseMass      float64

	VirtualRadius float64
	Mass          float64
}

// NewBall создает шар с виртуальным радиусом, равным радиусу ядра
func NewBall(body BodyHandle, coreRadius, baseMass float64) *Ball {
	return &Ball{
		Body:          body,
		CoreRadius:    coreRadius,
		InitialRadius: coreRadius,
		BaseMass:      baseMass,
		VirtualRadius: coreRadius,
		Mass:          baseMass,
	}
}

// ApplyGrowth применяет новый радиус и массу. Радиус никогда не уменьшается.
func (b *Ball) ApplyGrowth(radius, mass float64) bool {
	if radius < b.VirtualRadius {
		return false
	}
	b.VirtualRadius = radius
	b.Mass = mass
	return true
}
