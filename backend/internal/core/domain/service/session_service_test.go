package service

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/accretion"
	"x-katamari/backend/internal/core/domain/entity"
	portPhysics "x-katamari/backend/internal/core/port/out/physics"
	"x-katamari/backend/internal/physics"
	"x-katamari/backend/internal/steering"
)

const dt = 1.0 / 60.0

type sessionFixture struct {
	world   *physics.World
	table   *entity.Table
	session *GameSession
	results []accretion.Result
}

func newSession(t *testing.T, strategy accretion.Strategy, boxes map[string]mgl64.Vec3) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		world: physics.NewWorld(physics.DefaultConfig(), nil),
		table: entity.NewTable(),
	}
	ballBody, err := f.world.AddSphere(mgl64.Vec3{0, 0.5, 0}, 0.5, 3)
	if err != nil {
		t.Fatal(err)
	}
	for id, pos := range boxes {
		dims := entity.Dimensions{Width: 0.3, Height: 0.3, Depth: 0.3}
		body, err := f.world.AddBox(pos, mgl64.QuatIdent(), dims.HalfExtents())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.table.Add(entity.NewBoxMetadata(id, dims, mgl64.QuatIdent(), ""), body); err != nil {
			t.Fatal(err)
		}
	}

	f.session, err = NewGameSession(SessionDeps{
		World:    f.world,
		Ball:     entity.NewBall(ballBody, 0.5, 3),
		Table:    f.table,
		Policy:   accretion.DefaultPolicy(),
		Strategy: strategy,
		Shape:    portPhysics.BoxShape{Friction: 1.5, Restitution: 0.1},
		Steering: steering.DefaultConfig(),
		Results:  func(r accretion.Result) { f.results = append(f.results, r) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestGameSession_CollectsOnContact(t *testing.T) {
	f := newSession(t, accretion.StrategyFused, map[string]mgl64.Vec3{
		"crate": {0.6, 0.15, 0},
		"far":   {10, 0.15, 10},
	})

	if err := f.session.Tick(1, dt); err != nil {
		t.Fatal(err)
	}

	snap := f.session.Snapshot()
	if snap.Collected != 1 || snap.Remaining != 1 {
		t.Fatalf("собрано %d, осталось %d", snap.Collected, snap.Remaining)
	}
	if math.Abs(snap.Ball.VirtualRadius-0.5043) > 1e-3 {
		t.Errorf("радиус %.5f", snap.Ball.VirtualRadius)
	}
	if snap.Tick != 1 {
		t.Errorf("тик %d", snap.Tick)
	}
	if len(f.results) != 1 || f.results[0].Outcome != accretion.OutcomeCollected {
		t.Errorf("результаты %+v", f.results)
	}
	if f.world.Colliders(f.session.Ball().Body) != 1 {
		t.Error("на шаре должен появиться слитый коллайдер")
	}

	scene := f.session.Scene()
	if len(scene.Records) != 1 || scene.Records[0].ID != "crate" {
		t.Errorf("записи %+v", scene.Records)
	}
	if len(scene.Uncollected) != 1 || scene.Uncollected[0].Metadata.ID != "far" {
		t.Errorf("несобранные %+v", scene.Uncollected)
	}
}

func TestGameSession_ReposeFollowsBall(t *testing.T) {
	f := newSession(t, accretion.StrategyRepose, map[string]mgl64.Vec3{
		"crate": {0.6, 0.15, 0},
	})

	f.session.SetInput(steering.Input{Forward: true})
	for tick := uint64(1); tick <= 30; tick++ {
		if err := f.session.Tick(tick, dt); err != nil {
			t.Fatal(err)
		}
	}

	c, _ := f.table.ByID("crate")
	if !c.IsCollected() {
		t.Fatal("ящик не собран")
	}
	scene := f.session.Scene()
	rec := scene.Records[0]
	if rec.Binding.Mode != entity.BindingReposed {
		t.Fatalf("привязка %v", rec.Binding.Mode)
	}

	ballPose, _ := f.world.BodyPose(f.session.Ball().Body)
	want := entity.ComposeWorldPose(ballPose, rec)
	got, _ := f.world.BodyPose(c.Body)
	if !got.Position.ApproxEqualThreshold(want.Position, 1e-9) {
		t.Errorf("тело %v, ожидали %v", got.Position, want.Position)
	}
}

func TestGameSession_InputRollsBall(t *testing.T) {
	f := newSession(t, accretion.StrategyFused, nil)

	f.session.SetInput(steering.Input{Forward: true})
	for tick := uint64(1); tick <= 120; tick++ {
		if err := f.session.Tick(tick, dt); err != nil {
			t.Fatal(err)
		}
	}

	snap := f.session.Snapshot()
	if snap.Ball.Position[2] <= 0.05 {
		t.Errorf("шар не покатился вперед: %v", snap.Ball.Position)
	}
	if snap.Camera.Position[2] >= snap.Ball.Position[2] {
		t.Errorf("камера должна быть позади шара: %v vs %v", snap.Camera.Position, snap.Ball.Position)
	}
}

func TestFormatHUD(t *testing.T) {
	if got := FormatHUD(0.5); got != "Ball Size: 1.0m / 0.5m³" {
		t.Errorf("FormatHUD(0.5) = %q", got)
	}
	if got := FormatHUD(1.26); got != "Ball Size: 2.5m / 8.4m³" {
		t.Errorf("FormatHUD(1.26) = %q", got)
	}
}

func TestNewGameSession_Validation(t *testing.T) {
	if _, err := NewGameSession(SessionDeps{}); err == nil {
		t.Error("пустые зависимости должны давать ошибку")
	}
}
