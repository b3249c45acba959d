package accretion

import (
	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/physics"
)

// fakeWorld физический мир для тестов: хранит позы и запоминает вызовы
type fakeWorld struct {
	poses    map[entity.BodyHandle]entity.Pose
	disabled map[entity.BodyHandle]int
	mass     map[entity.BodyHandle]float64
	radius   map[entity.BodyHandle]float64

	attached  []entity.ColliderHandle
	detached  []entity.ColliderHandle
	attachErr error
	nextColl  entity.ColliderHandle

	transforms map[entity.BodyHandle]entity.Pose
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		poses:      make(map[entity.BodyHandle]entity.Pose),
		disabled:   make(map[entity.BodyHandle]int),
		mass:       make(map[entity.BodyHandle]float64),
		radius:     make(map[entity.BodyHandle]float64),
		transforms: make(map[entity.BodyHandle]entity.Pose),
	}
}

func (w *fakeWorld) Step(float64, physics.ContactListener) error { return nil }

func (w *fakeWorld) BodyPose(body entity.BodyHandle) (entity.Pose, error) {
	p, ok := w.poses[body]
	if !ok {
		return entity.Pose{}, physics.ErrUnknownBody
	}
	return p, nil
}

func (w *fakeWorld) LinearVelocity(entity.BodyHandle) (mgl64.Vec3, error) {
	return mgl64.Vec3{}, nil
}

func (w *fakeWorld) ApplyTorqueImpulse(entity.BodyHandle, mgl64.Vec3) error { return nil }

func (w *fakeWorld) DisableBody(body entity.BodyHandle) error {
	w.disabled[body]++
	return nil
}

func (w *fakeWorld) SetBodyMass(body entity.BodyHandle, mass float64) error {
	w.mass[body] = mass
	return nil
}

func (w *fakeWorld) SetSphereRadius(body entity.BodyHandle, radius float64) error {
	w.radius[body] = radius
	return nil
}

func (w *fakeWorld) AttachCollider(entity.BodyHandle, physics.BoxShape, mgl64.Vec3, mgl64.Quat) (entity.ColliderHandle, error) {
	if w.attachErr != nil {
		return entity.NoCollider, w.attachErr
	}
	h := w.nextColl
	w.nextColl++
	w.attached = append(w.attached, h)
	return h, nil
}

func (w *fakeWorld) DetachCollider(_ entity.BodyHandle, c entity.ColliderHandle) error {
	w.detached = append(w.detached, c)
	return nil
}

func (w *fakeWorld) SetBodyTransform(body entity.BodyHandle, pos mgl64.Vec3, q mgl64.Quat) error {
	w.transforms[body] = entity.NewPose(pos, q)
	return nil
}

// recordingFeedback запоминает звуковые и прочие сигналы
type recordingFeedback struct {
	collected []string
	rejected  []string
}

func (r *recordingFeedback) Collected(rec entity.AccretionRecord, _ entity.Ball) {
	r.collected = append(r.collected, rec.ID)
}

func (r *recordingFeedback) Rejected(id string, _ entity.Ball) {
	r.rejected = append(r.rejected, id)
}
