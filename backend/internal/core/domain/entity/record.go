package entity

import "github.com/go-gl/mathgl/mgl64"

// BindingMode способ совместного движения поглощенного объекта с шаром
type BindingMode string

const (
	BindingFused      BindingMode = "fused"       // коллайдер слит с телом шара
	BindingReposed    BindingMode = "reposed"     // отдельное тело переставляется каждый тик
	BindingRenderOnly BindingMode = "render_only" // только отрисовка, без физики
)

// Binding связь записи с физическим миром
type Binding struct {
	Mode     BindingMode
	Collider ColliderHandle
	Body     BodyHandle
}

// RenderOnlyBinding связь без физического представления
func RenderOnlyBinding() Binding {
	return Binding{Mode: BindingRenderOnly, Collider: NoCollider, Body: NoBody}
}

// AccretionRecord неизменяемая запись о поглощенном объекте.
// Все смещения заданы в локальной системе шара.
type AccretionRecord struct {
	ID                 string
	LocalPosition      mgl64.Vec3
	LocalOrientation   mgl64.Quat
	InitialOrientation mgl64.Quat
	Dimensions         Dimensions
	Kind               Kind
	Box                *BoxParams
	Glyph              *GlyphParams
	Model              *ModelParams
	Binding            Binding
}

// ShapeOrientation полная ориентация формы в системе шара (случайная + исходная)
func (r AccretionRecord) ShapeOrientation() mgl64.Quat {
	return r.LocalOrientation.Mul(r.InitialOrientation)
}

// ComposeWorldPose мировая поза поглощенного объекта по текущей позе шара
func ComposeWorldPose(ball Pose, r AccretionRecord) Pose {
	return Pose{
		Position:    ball.Position.Add(ball.Orientation.Rotate(r.LocalPosition)),
		Orientation: ball.Orientation.Mul(r.ShapeOrientation()),
	}
}
