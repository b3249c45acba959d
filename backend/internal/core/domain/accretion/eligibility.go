package accretion

import "x-katamari/backend/internal/core/domain/entity"

// Verdict результат проверки пригодности
type Verdict int

const (
	Eligible Verdict = iota
	RejectedDuplicate
	RejectedDegenerate
	RejectedTooLong
	RejectedTooVoluminous
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case RejectedDuplicate:
		return "duplicate"
	case RejectedDegenerate:
		return "degenerate"
	case RejectedTooLong:
		return "too_long"
	case RejectedTooVoluminous:
		return "too_voluminous"
	}
	return "unknown"
}

// CollectedSet то, что проверка знает о хранилище
type CollectedSet interface {
	Has(id string) bool
}

// Evaluate решает, может ли шар радиуса radius поглотить объект.
// Уже собранные объекты отсекаются первыми, до всякой геометрии.
func (p Policy) Evaluate(meta entity.Metadata, radius float64, collected CollectedSet) Verdict {
	if collected != nil && collected.Has(meta.ID) {
		return RejectedDuplicate
	}
	if meta.Dimensions.Validate() != nil {
		return RejectedDegenerate
	}
	if !(meta.MaxDimension() < 2*radius*p.MarginFactor) {
		return RejectedTooLong
	}
	if !(meta.Volume() < SphereVolume(radius)/p.VolumeDivisor) {
		return RejectedTooVoluminous
	}
	return Eligible
}

// IsCollectable короткая форма Evaluate
func (p Policy) IsCollectable(meta entity.Metadata, radius float64, collected CollectedSet) bool {
	return p.Evaluate(meta, radius, collected) == Eligible
}
