package entity

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestComposeWorldPose(t *testing.T) {
	ball := NewPose(mgl64.Vec3{1, 2, 3}, mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0}))
	rec := AccretionRecord{
		ID:                 "a",
		LocalPosition:      mgl64.Vec3{0.5, 0, 0},
		LocalOrientation:   mgl64.QuatIdent(),
		InitialOrientation: EulerXYZ(0, math.Pi/2, 0),
	}

	got := ComposeWorldPose(ball, rec)
	if !got.Position.ApproxEqualThreshold(mgl64.Vec3{0.5, 2, 3}, 1e-9) {
		t.Errorf("позиция %v, ожидали (0.5,2,3)", got.Position)
	}

	// π + π/2 вокруг Y
	want := mgl64.QuatRotate(3*math.Pi/2, mgl64.Vec3{0, 1, 0})
	if math.Abs(got.Orientation.Dot(want)) < 1-1e-9 {
		t.Errorf("ориентация %v, ожидали %v", got.Orientation, want)
	}
}

func TestPose_IsFinite(t *testing.T) {
	if !IdentityPose().IsFinite() {
		t.Error("единичная поза должна быть конечной")
	}
	bad := NewPose(mgl64.Vec3{math.Inf(1), 0, 0}, mgl64.QuatIdent())
	if bad.IsFinite() {
		t.Error("бесконечность не обнаружена")
	}
}

func TestMetadata_Volume(t *testing.T) {
	dims := Dimensions{Width: 1, Height: 2, Depth: 0.5}
	box := NewBoxMetadata("b", dims, mgl64.QuatIdent(), "")
	glyph := NewGlyphMetadata("g", dims, mgl64.QuatIdent(), GlyphParams{Char: "A"})
	model := NewModelMetadata("m", dims, mgl64.QuatIdent(), ModelParams{Path: "duck.glb"})

	if box.Volume() != 1 || model.Volume() != 1 {
		t.Errorf("объем ящика %v, модели %v", box.Volume(), model.Volume())
	}
	if glyph.Volume() != 0.5 {
		t.Errorf("объем буквы %v, ожидали 0.5", glyph.Volume())
	}
	if box.MaxDimension() != 2 {
		t.Errorf("max %v", box.MaxDimension())
	}
}

func TestBall_ApplyGrowthNeverShrinks(t *testing.T) {
	b := NewBall(0, 0.5, 3)
	if !b.ApplyGrowth(0.6, 5.184) {
		t.Fatal("рост отклонен")
	}
	if b.ApplyGrowth(0.55, 4) {
		t.Error("уменьшение радиуса принято")
	}
	if b.VirtualRadius != 0.6 || b.CoreRadius != 0.5 {
		t.Errorf("неожиданное состояние шара %+v", b)
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	meta := NewBoxMetadata("crate", Dimensions{Width: 1, Height: 1, Depth: 1}, mgl64.QuatIdent(), "")

	if _, err := tbl.Add(meta, 4); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Add(meta, 5); !errors.Is(err, ErrDuplicateEntity) {
		t.Errorf("ожидали ErrDuplicateEntity, получили %v", err)
	}
	if c, ok := tbl.ByBody(4); !ok || c.ID != "crate" {
		t.Error("поиск по телу не работает")
	}

	if err := tbl.MarkCollected("crate"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.MarkCollected("crate"); !errors.Is(err, ErrAlreadyCollected) {
		t.Errorf("повторная отметка: %v", err)
	}
	if err := tbl.MarkCollected("nope"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("неизвестный объект: %v", err)
	}
	if len(tbl.Uncollected()) != 0 || tbl.Len() != 1 {
		t.Error("собранный объект остался в списке несобранных")
	}
}
