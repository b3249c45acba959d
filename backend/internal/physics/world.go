// Package physics реализует упрощенный физический мир внутри процесса:
// катящийся шар со слитыми коробчатыми коллайдерами, статичные объекты и земля.
package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
	portPhysics "x-katamari/backend/internal/core/port/out/physics"
)

// BodyKind тип тела
type BodyKind int

const (
	BodySphere BodyKind = iota // динамический шар
	BodyBox                    // статичный ящик
)

// inertiaFactor момент инерции сплошного шара: I = 2/5·m·r²
const inertiaFactor = 2.0 / 5.0

// contactSlop допуск, при котором тело еще считается касающимся
const contactSlop = 1e-3

type collider struct {
	handle entity.ColliderHandle
	shape  portPhysics.BoxShape
	localP mgl64.Vec3
	localQ mgl64.Quat
}

type body struct {
	handle  entity.BodyHandle
	kind    BodyKind
	pose    entity.Pose
	vel     mgl64.Vec3
	angVel  mgl64.Vec3
	mass    float64
	radius  float64    // только для шара
	half    mgl64.Vec3 // только для ящика
	enabled bool

	colliders []collider
}

func (b *body) box() obb {
	return obb{center: b.pose.Position, orient: b.pose.Orientation, half: b.half}
}

func (b *body) colliderBox(c collider) obb {
	return obb{
		center: b.pose.Position.Add(b.pose.Orientation.Rotate(c.localP)),
		orient: b.pose.Orientation.Mul(c.localQ),
		half:   c.shape.HalfExtents,
	}
}

func (b *body) inertia() float64 {
	return inertiaFactor * b.mass * b.radius * b.radius
}

type pairKey struct {
	a, b entity.BodyHandle
}

// World физический мир. Не потокобезопасен: все вызовы идут из тикера.
type World struct {
	cfg    Config
	logger *zap.Logger

	bodies   []*body
	grid     *SpatialGrid
	touching map[pairKey]struct{}

	nextCollider entity.ColliderHandle
	steps        uint64
}

var _ portPhysics.World = (*World)(nil)

// NewWorld создает пустой мир
func NewWorld(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultConfig().CellSize
	}
	return &World{
		cfg:      cfg,
		logger:   logger,
		grid:     NewSpatialGrid(cfg.CellSize),
		touching: make(map[pairKey]struct{}),
	}
}

func (w *World) get(h entity.BodyHandle) (*body, error) {
	if int(h) >= len(w.bodies) {
		return nil, fmt.Errorf("%w: %d", portPhysics.ErrUnknownBody, h)
	}
	return w.bodies[h], nil
}

func validExtents(half mgl64.Vec3) bool {
	for _, v := range half {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return true
}

func validPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// AddSphere добавляет динамический шар
func (w *World) AddSphere(position mgl64.Vec3, radius, mass float64) (entity.BodyHandle, error) {
	if !validPositive(radius) {
		return entity.NoBody, fmt.Errorf("%w: sphere radius %v", portPhysics.ErrInvalidShape, radius)
	}
	if !validPositive(mass) {
		return entity.NoBody, fmt.Errorf("%w: %v", portPhysics.ErrInvalidMass, mass)
	}

	b := &body{
		handle:  entity.BodyHandle(len(w.bodies)),
		kind:    BodySphere,
		pose:    entity.NewPose(position, mgl64.QuatIdent()),
		mass:    mass,
		radius:  radius,
		enabled: true,
	}
	w.bodies = append(w.bodies, b)
	return b.handle, nil
}

// AddBox добавляет статичный ящик
func (w *World) AddBox(position mgl64.Vec3, orientation mgl64.Quat, halfExtents mgl64.Vec3) (entity.BodyHandle, error) {
	if !validExtents(halfExtents) {
		return entity.NoBody, fmt.Errorf("%w: half extents %v", portPhysics.ErrInvalidShape, halfExtents)
	}

	b := &body{
		handle:  entity.BodyHandle(len(w.bodies)),
		kind:    BodyBox,
		pose:    entity.NewPose(position, orientation.Normalize()),
		half:    halfExtents,
		enabled: true,
	}
	w.bodies = append(w.bodies, b)
	w.grid.Insert(b.handle, b.box().bounds())
	return b.handle, nil
}

// BodyCount количество тел, включая отключенные
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Steps количество выполненных шагов
func (w *World) Steps() uint64 {
	return w.steps
}

// IsEnabled участвует ли тело в симуляции
func (w *World) IsEnabled(h entity.BodyHandle) bool {
	b, err := w.get(h)
	return err == nil && b.enabled
}

// Colliders количество прикрепленных к телу коллайдеров
func (w *World) Colliders(h entity.BodyHandle) int {
	b, err := w.get(h)
	if err != nil {
		return 0
	}
	return len(b.colliders)
}

// BodyPose реализует portPhysics.World
func (w *World) BodyPose(h entity.BodyHandle) (entity.Pose, error) {
	b, err := w.get(h)
	if err != nil {
		return entity.Pose{}, err
	}
	return b.pose, nil
}

// LinearVelocity реализует portPhysics.World
func (w *World) LinearVelocity(h entity.BodyHandle) (mgl64.Vec3, error) {
	b, err := w.get(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return b.vel, nil
}

// ApplyTorqueImpulse меняет угловую скорость шара на τ/I
func (w *World) ApplyTorqueImpulse(h entity.BodyHandle, torque mgl64.Vec3) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if !b.enabled {
		return fmt.Errorf("%w: %d", portPhysics.ErrBodyDisabled, h)
	}
	if b.kind != BodySphere {
		return fmt.Errorf("%w: torque on static body %d", portPhysics.ErrInvalidShape, h)
	}
	b.angVel = b.angVel.Add(torque.Mul(1 / b.inertia()))
	return nil
}

// DisableBody исключает тело из симуляции и широкой фазы
func (w *World) DisableBody(h entity.BodyHandle) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if !b.enabled {
		return nil
	}
	b.enabled = false
	b.vel, b.angVel = mgl64.Vec3{}, mgl64.Vec3{}
	w.grid.Remove(h)
	for k := range w.touching {
		if k.a == h || k.b == h {
			delete(w.touching, k)
		}
	}
	return nil
}

// SetBodyMass устанавливает массу шара
func (w *World) SetBodyMass(h entity.BodyHandle, mass float64) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if !validPositive(mass) {
		return fmt.Errorf("%w: %v", portPhysics.ErrInvalidMass, mass)
	}
	b.mass = mass
	return nil
}

// SetSphereRadius меняет радиус сферического коллайдера
func (w *World) SetSphereRadius(h entity.BodyHandle, radius float64) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if b.kind != BodySphere || !validPositive(radius) {
		return fmt.Errorf("%w: sphere radius %v on body %d", portPhysics.ErrInvalidShape, radius, h)
	}
	b.radius = radius
	return nil
}

// AttachCollider прикрепляет коробчатый коллайдер к шару
func (w *World) AttachCollider(h entity.BodyHandle, shape portPhysics.BoxShape, localPosition mgl64.Vec3, localOrientation mgl64.Quat) (entity.ColliderHandle, error) {
	b, err := w.get(h)
	if err != nil {
		return entity.NoCollider, err
	}
	if !b.enabled {
		return entity.NoCollider, fmt.Errorf("%w: %d", portPhysics.ErrBodyDisabled, h)
	}
	if b.kind != BodySphere || !validExtents(shape.HalfExtents) {
		return entity.NoCollider, fmt.Errorf("%w: half extents %v", portPhysics.ErrInvalidShape, shape.HalfExtents)
	}
	if !entity.NewPose(localPosition, localOrientation).IsFinite() {
		return entity.NoCollider, fmt.Errorf("%w: non-finite local transform", portPhysics.ErrInvalidShape)
	}

	c := collider{
		handle: w.nextCollider,
		shape:  shape,
		localP: localPosition,
		localQ: localOrientation.Normalize(),
	}
	w.nextCollider++
	b.colliders = append(b.colliders, c)
	return c.handle, nil
}

// DetachCollider снимает коллайдер с тела
func (w *World) DetachCollider(h entity.BodyHandle, c entity.ColliderHandle) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	for i, existing := range b.colliders {
		if existing.handle == c {
			b.colliders = append(b.colliders[:i], b.colliders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d on body %d", portPhysics.ErrUnknownCollider, c, h)
}

// SetBodyTransform задает позу тела напрямую
func (w *World) SetBodyTransform(h entity.BodyHandle, position mgl64.Vec3, orientation mgl64.Quat) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	pose := entity.NewPose(position, orientation.Normalize())
	if !pose.IsFinite() {
		return fmt.Errorf("%w: non-finite transform", portPhysics.ErrInvalidShape)
	}
	b.pose = pose
	if b.kind == BodyBox && b.enabled {
		w.grid.Insert(h, b.box().bounds())
	}
	return nil
}

// Step продвигает симуляцию на dt и сообщает о начавшихся контактах.
// Слушатель вызывается после завершения шага, так что он может менять мир.
func (w *World) Step(dt float64, listener portPhysics.ContactListener) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("invalid time step %v", dt)
	}
	w.steps++

	current := make(map[pairKey]struct{})
	for _, b := range w.bodies {
		if !b.enabled || b.kind != BodySphere {
			continue
		}
		w.integrate(b, dt)
		for _, other := range w.resolveContacts(b) {
			current[pairKey{b.handle, other}] = struct{}{}
		}
	}

	var begun []pairKey
	for k := range current {
		if _, was := w.touching[k]; !was {
			begun = append(begun, k)
		}
	}
	w.touching = current

	sort.Slice(begun, func(i, j int) bool {
		if begun[i].a != begun[j].a {
			return begun[i].a < begun[j].a
		}
		return begun[i].b < begun[j].b
	})

	if listener == nil {
		return nil
	}
	for _, k := range begun {
		listener.OnContact(portPhysics.Contact{Ball: k.a, Other: k.b})
	}
	return nil
}

func (w *World) integrate(b *body, dt float64) {
	b.vel[1] -= w.cfg.Gravity * dt

	b.vel = b.vel.Mul(1 / (1 + dt*w.cfg.LinearDamping))
	b.angVel = b.angVel.Mul(1 / (1 + dt*w.cfg.AngularDamping))

	w.supportOnGround(b, dt)

	if speed := b.vel.Len(); speed > w.cfg.MaxSpeed {
		b.vel = b.vel.Mul(w.cfg.MaxSpeed / speed)
	}

	b.pose.Position = b.pose.Position.Add(b.vel.Mul(dt))

	// q' = q + dt/2·ω·q
	spin := mgl64.Quat{W: 0, V: b.angVel}.Mul(b.pose.Orientation).Scale(0.5 * dt)
	b.pose.Orientation = b.pose.Orientation.Add(spin).Normalize()
}

// lowestPoint самая нижняя точка составного тела: сфера или один из прикрепленных ящиков
func (w *World) lowestPoint(b *body) mgl64.Vec3 {
	low := b.pose.Position.Sub(mgl64.Vec3{0, b.radius, 0})
	for _, c := range b.colliders {
		if p := b.colliderBox(c).lowest(); p[1] < low[1] {
			low = p
		}
	}
	return low
}

// supportOnGround не дает телу провалиться под землю и превращает вращение в качение
func (w *World) supportOnGround(b *body, dt float64) {
	low := w.lowestPoint(b)
	gap := low[1] - w.cfg.GroundLevel
	if gap > contactSlop {
		return
	}

	if gap < 0 {
		b.pose.Position[1] -= gap
	}
	if b.vel[1] < 0 {
		b.vel[1] = -b.vel[1] * w.cfg.Restitution
		if b.vel[1] < w.cfg.Gravity*dt {
			b.vel[1] = 0
		}
	}

	// Трение в точке опоры: гасим проскальзывание не больше, чем позволяет μ·m·g·dt
	rc := mgl64.Vec3{low[0], w.cfg.GroundLevel, low[2]}.Sub(b.pose.Position)
	slip := b.vel.Add(b.angVel.Cross(rc))
	slip[1] = 0
	slipSpeed := slip.Len()
	if slipSpeed < 1e-9 {
		return
	}
	t := slip.Mul(1 / slipSpeed)

	inertia := b.inertia()
	arm := rc.Cross(t)
	effMass := 1 / (1/b.mass + arm.Dot(arm)/inertia)

	impulse := slipSpeed * effMass
	if limit := w.cfg.Friction * b.mass * w.cfg.Gravity * dt; impulse > limit {
		impulse = limit
	}
	p := t.Mul(-impulse)

	b.vel = b.vel.Add(p.Mul(1 / b.mass))
	b.angVel = b.angVel.Add(rc.Cross(p).Mul(1 / inertia))
}

// resolveContacts выталкивает шар из статичных ящиков и возвращает тех, кого он касается
func (w *World) resolveContacts(b *body) []entity.BodyHandle {
	type probe struct {
		center mgl64.Vec3
		radius float64
	}
	probes := []probe{{b.pose.Position, b.radius}}
	reach := b.radius
	for _, c := range b.colliders {
		box := b.colliderBox(c)
		probes = append(probes, probe{box.center, c.shape.HalfExtents.Len()})
		if d := c.localP.Len() + c.shape.HalfExtents.Len(); d > reach {
			reach = d
		}
	}

	ext := mgl64.Vec3{reach, reach, reach}.Add(mgl64.Vec3{contactSlop, contactSlop, contactSlop})
	query := aabb{min: b.pose.Position.Sub(ext), max: b.pose.Position.Add(ext)}

	var touching []entity.BodyHandle
	for _, h := range w.grid.Query(query) {
		other := w.bodies[h]
		if !other.enabled || other.kind != BodyBox {
			continue
		}
		box := other.box()

		hit := false
		for i, pr := range probes {
			// для прикрепленных ящиков используем вписанную сферу по наименьшей полуоси
			r := pr.radius
			if i > 0 {
				half := b.colliders[i-1].shape.HalfExtents
				r = math.Min(half[0], math.Min(half[1], half[2]))
			}
			pen, ok := sphereVsOBB(pr.center, r+contactSlop, box)
			if !ok {
				continue
			}
			hit = true
			depth := pen.depth - contactSlop
			if depth <= 0 {
				continue
			}
			b.pose.Position = b.pose.Position.Add(pen.normal.Mul(depth))
			if vn := b.vel.Dot(pen.normal); vn < 0 {
				b.vel = b.vel.Sub(pen.normal.Mul(vn * (1 + w.cfg.Restitution)))
			}
			// позиция шара сдвинулась, обновляем центры зондов
			delta := pen.normal.Mul(depth)
			for j := range probes {
				probes[j].center = probes[j].center.Add(delta)
			}
		}
		if hit {
			touching = append(touching, h)
		}
	}
	return touching
}
