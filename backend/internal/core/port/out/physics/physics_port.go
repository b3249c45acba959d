package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
)

// Ошибки физического мира
var (
	ErrUnknownBody     = errors.New("unknown body")
	ErrUnknownCollider = errors.New("unknown collider")
	ErrBodyDisabled    = errors.New("body is disabled")
	ErrInvalidShape    = errors.New("invalid collider shape")
	ErrInvalidMass     = errors.New("invalid mass")
)

// BoxShape описание коробчатого коллайдера
type BoxShape struct {
	HalfExtents mgl64.Vec3
	Friction    float64
	Restitution float64
}

// Contact начало контакта шара с другим телом
type Contact struct {
	Ball  entity.BodyHandle
	Other entity.BodyHandle
}

// ContactListener получает контакты в порядке, в котором их нашел физический мир
type ContactListener interface {
	OnContact(c Contact)
}

// ContactListenerFunc адаптер функции к ContactListener
type ContactListenerFunc func(c Contact)

// OnContact вызывает f(c)
func (f ContactListenerFunc) OnContact(c Contact) { f(c) }

// World минимальный контракт физического движка, нужный ядру накопления
type World interface {
	// Step продвигает симуляцию на dt секунд и сообщает о новых контактах
	Step(dt float64, listener ContactListener) error

	// BodyPose текущая поза тела
	BodyPose(body entity.BodyHandle) (entity.Pose, error)

	// LinearVelocity текущая линейная скорость тела
	LinearVelocity(body entity.BodyHandle) (mgl64.Vec3, error)

	// ApplyTorqueImpulse применяет импульс вращения
	ApplyTorqueImpulse(body entity.BodyHandle, torque mgl64.Vec3) error

	// DisableBody исключает тело из симуляции и столкновений
	DisableBody(body entity.BodyHandle) error

	// SetBodyMass устанавливает массу тела
	SetBodyMass(body entity.BodyHandle, mass float64) error

	// SetSphereRadius меняет радиус сферического коллайдера тела
	SetSphereRadius(body entity.BodyHandle, radius float64) error

	// AttachCollider прикрепляет коллайдер к телу в его локальной системе
	AttachCollider(body entity.BodyHandle, shape BoxShape, localPosition mgl64.Vec3, localOrientation mgl64.Quat) (entity.ColliderHandle, error)

	// DetachCollider снимает ранее прикрепленный коллайдер
	DetachCollider(body entity.BodyHandle, collider entity.ColliderHandle) error

	// SetBodyTransform напрямую задает позу тела (в том числе отключенного)
	SetBodyTransform(body entity.BodyHandle, position mgl64.Vec3, orientation mgl64.Quat) error
}
