package accretion

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/physics"
)

func TestNewSynchronizer(t *testing.T) {
	w := newFakeWorld()

	for _, tt := range []struct {
		in   Strategy
		want Strategy
	}{
		{"", StrategyFused},
		{StrategyFused, StrategyFused},
		{StrategyRepose, StrategyRepose},
	} {
		s, err := NewSynchronizer(tt.in, w, physics.BoxShape{}, nil)
		if err != nil {
			t.Fatalf("%q: %v", tt.in, err)
		}
		if s.Strategy() != tt.want {
			t.Errorf("%q: стратегия %v, ожидали %v", tt.in, s.Strategy(), tt.want)
		}
	}

	if _, err := NewSynchronizer("teleport", w, physics.BoxShape{}, nil); err == nil {
		t.Error("ожидали ошибку для неизвестной стратегии")
	}
}

func TestPerTickRepose_FollowsBall(t *testing.T) {
	w := newFakeWorld()
	s := NewPerTickRepose(w, nil)

	binding, err := s.Attach(AttachRequest{Ball: 0, Body: 7})
	if err != nil {
		t.Fatal(err)
	}
	rec := entity.AccretionRecord{
		ID:                 "crate",
		LocalPosition:      mgl64.Vec3{0, 0, 0.5},
		LocalOrientation:   mgl64.QuatIdent(),
		InitialOrientation: mgl64.QuatIdent(),
		Binding:            binding,
	}
	other := entity.AccretionRecord{ID: "ghost", Binding: entity.RenderOnlyBinding()}

	yaw := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	s.Sync(entity.NewPose(mgl64.Vec3{10, 1, 0}, yaw), []entity.AccretionRecord{rec, other})

	got, ok := w.transforms[7]
	if !ok {
		t.Fatal("тело не переставлено")
	}
	if !got.Position.ApproxEqualThreshold(mgl64.Vec3{10.5, 1, 0}, 1e-9) {
		t.Errorf("позиция %v, ожидали (10.5,1,0)", got.Position)
	}
	if !sameRotation(got.Orientation, yaw) {
		t.Errorf("ориентация %v, ожидали %v", got.Orientation, yaw)
	}
	if len(w.transforms) != 1 {
		t.Errorf("переставлены лишние тела: %v", w.transforms)
	}
}

func TestPerTickRepose_RequiresBody(t *testing.T) {
	s := NewPerTickRepose(newFakeWorld(), nil)
	b, err := s.Attach(AttachRequest{Ball: 0, Body: entity.NoBody})
	if err == nil || b.Mode != entity.BindingRenderOnly {
		t.Errorf("ожидали ошибку и render_only, получили %v / %v", err, b.Mode)
	}
}

func TestFusedCollider_AttachDetach(t *testing.T) {
	w := newFakeWorld()
	f := NewFusedCollider(w, physics.BoxShape{Friction: 1.5, Restitution: 0.1})

	b, err := f.Attach(AttachRequest{
		Ball:       0,
		Body:       3,
		Dimensions: entity.Dimensions{Width: 0.2, Height: 0.2, Depth: 0.2},
		Attachment: Attachment{LocalPosition: mgl64.Vec3{0.5, 0, 0}, LocalOrientation: mgl64.QuatIdent()},
		Initial:    mgl64.QuatIdent(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.Mode != entity.BindingFused || b.Body != entity.NoBody {
		t.Errorf("неожиданная привязка %+v", b)
	}
	if err := f.Detach(0, b); err != nil {
		t.Fatal(err)
	}
	if len(w.detached) != 1 || w.detached[0] != b.Collider {
		t.Errorf("коллайдер не снят: %v", w.detached)
	}

	// Sync у слитого коллайдера ничего не делает
	f.Sync(entity.IdentityPose(), []entity.AccretionRecord{{ID: "x", Binding: b}})
	if len(w.transforms) != 0 {
		t.Error("слитый коллайдер не должен переставлять тела")
	}
}
