package accretion

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/physics"
)

const ballBody entity.BodyHandle = 0

type dispatcherFixture struct {
	world    *fakeWorld
	table    *entity.Table
	store    *Store
	ball     *entity.Ball
	feedback *recordingFeedback
	disp     *Dispatcher
}

func newFixture(t *testing.T, strategy Strategy) *dispatcherFixture {
	t.Helper()

	f := &dispatcherFixture{
		world:    newFakeWorld(),
		table:    entity.NewTable(),
		store:    NewStore(),
		ball:     entity.NewBall(ballBody, 0.5, 3),
		feedback: &recordingFeedback{},
	}
	f.world.poses[ballBody] = entity.NewPose(mgl64.Vec3{0, 0.5, 0}, mgl64.QuatIdent())

	sync, err := NewSynchronizer(strategy, f.world, physics.BoxShape{Friction: 1.5, Restitution: 0.1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.disp = NewDispatcher(DispatcherDeps{
		Policy:   DefaultPolicy(),
		Ball:     f.ball,
		Table:    f.table,
		Store:    f.store,
		World:    f.world,
		Sync:     sync,
		Feedback: f.feedback,
	})
	return f
}

func (f *dispatcherFixture) add(t *testing.T, meta entity.Metadata, body entity.BodyHandle, pos mgl64.Vec3) {
	t.Helper()
	if _, err := f.table.Add(meta, body); err != nil {
		t.Fatal(err)
	}
	f.world.poses[body] = entity.NewPose(pos, mgl64.QuatIdent())
}

func TestDispatcher_ConcreteScenario(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1})
	if res.Outcome != OutcomeCollected {
		t.Fatalf("ожидали collected, получили %v (%v)", res.Outcome, res.Err)
	}

	if math.Abs(f.ball.VirtualRadius-0.5043) > 1e-3 {
		t.Errorf("радиус %.5f, ожидали ≈0.5043", f.ball.VirtualRadius)
	}
	if math.Abs(f.ball.Mass-3.078) > 2e-3 {
		t.Errorf("масса %.4f, ожидали ≈3.078", f.ball.Mass)
	}
	if f.world.mass[ballBody] != f.ball.Mass || f.world.radius[ballBody] != f.ball.VirtualRadius {
		t.Error("физический мир не получил новую массу и радиус")
	}
	if f.world.disabled[1] != 1 {
		t.Errorf("тело объекта должно быть отключено один раз, отключено %d", f.world.disabled[1])
	}

	rec, ok := f.store.Get("crate")
	if !ok {
		t.Fatal("запись не сохранена")
	}
	if rec.Binding.Mode != entity.BindingFused || len(f.world.attached) != 1 {
		t.Errorf("ожидали слитый коллайдер, получили %+v", rec.Binding)
	}
	// крепление считается по радиусу до роста
	if math.Abs(rec.LocalPosition.Len()-0.5) > 1e-9 {
		t.Errorf("точка крепления на расстоянии %v, ожидали 0.5", rec.LocalPosition.Len())
	}
	if c, _ := f.table.ByID("crate"); !c.IsCollected() {
		t.Error("объект не помечен собранным")
	}
	if len(f.feedback.collected) != 1 || f.feedback.collected[0] != "crate" {
		t.Errorf("сигнал поглощения: %v", f.feedback.collected)
	}
}

func TestDispatcher_Idempotent(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	contact := physics.Contact{Ball: ballBody, Other: 1}
	if res := f.disp.Dispatch(contact); res.Outcome != OutcomeCollected {
		t.Fatalf("первый контакт: %v", res.Outcome)
	}
	radius, mass := f.ball.VirtualRadius, f.ball.Mass

	for i := 0; i < 3; i++ {
		if res := f.disp.Dispatch(contact); res.Outcome != OutcomeDuplicate {
			t.Fatalf("повторный контакт %d: %v", i, res.Outcome)
		}
	}
	if f.ball.VirtualRadius != radius || f.ball.Mass != mass {
		t.Error("повторный контакт изменил шар")
	}
	if f.store.Len() != 1 || f.world.disabled[1] != 1 || len(f.world.attached) != 1 {
		t.Error("повторный контакт изменил состояние")
	}
}

func TestDispatcher_ReversedContactOrder(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	if res := f.disp.Dispatch(physics.Contact{Ball: 1, Other: ballBody}); res.Outcome != OutcomeCollected {
		t.Fatalf("ожидали collected, получили %v", res.Outcome)
	}
}

func TestDispatcher_IgnoresForeignContacts(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	tests := []physics.Contact{
		{Ball: 5, Other: 1},        // шар не участвует
		{Ball: ballBody, Other: 9}, // тело не из таблицы (земля, стена)
	}
	for _, c := range tests {
		if res := f.disp.Dispatch(c); res.Outcome != OutcomeIgnored {
			t.Errorf("%+v: %v, ожидали ignored", c, res.Outcome)
		}
	}
}

func TestDispatcher_RejectedEmitsCue(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("boulder", 2), 1, mgl64.Vec3{2, 1, 0})

	res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1})
	if res.Outcome != OutcomeRejected || res.Verdict != RejectedTooLong {
		t.Fatalf("ожидали rejected/too_long, получили %v/%v", res.Outcome, res.Verdict)
	}
	if len(f.feedback.rejected) != 1 {
		t.Errorf("ожидали один сигнал отказа, получили %d", len(f.feedback.rejected))
	}
	if f.store.Len() != 0 || f.ball.VirtualRadius != 0.5 || f.world.disabled[1] != 0 {
		t.Error("отказ изменил состояние")
	}
}

func TestDispatcher_DegenerateDirectionDefers(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("inside", 0.1), 1, mgl64.Vec3{0, 0.5, 0})

	res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1})
	if res.Outcome != OutcomeDeferred || !errors.Is(res.Err, ErrDegenerateDirection) {
		t.Fatalf("ожидали deferred, получили %v (%v)", res.Outcome, res.Err)
	}
	if c, _ := f.table.ByID("inside"); c.IsCollected() {
		t.Error("объект должен остаться несобранным")
	}

	// после того, как объект сдвинулся, следующий контакт его собирает
	f.world.poses[1] = entity.NewPose(mgl64.Vec3{0.3, 0.5, 0}, mgl64.QuatIdent())
	if res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1}); res.Outcome != OutcomeCollected {
		t.Errorf("ожидали collected при повторном контакте, получили %v", res.Outcome)
	}
}

func TestDispatcher_AttachFailureDegradesToRenderOnly(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.world.attachErr = physics.ErrInvalidShape
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1})
	if res.Outcome != OutcomeCollected {
		t.Fatalf("ожидали collected, получили %v", res.Outcome)
	}
	rec, _ := f.store.Get("crate")
	if rec.Binding.Mode != entity.BindingRenderOnly {
		t.Errorf("ожидали render_only, получили %v", rec.Binding.Mode)
	}
	if f.ball.VirtualRadius <= 0.5 {
		t.Error("шар должен вырасти и без физического крепления")
	}
}

func TestDispatcher_InsertFailureRollsBack(t *testing.T) {
	f := newFixture(t, StrategyFused)
	// пустой ID таблица примет, а хранилище отклонит
	f.add(t, cube("", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: 1})
	if res.Outcome != OutcomeFailed {
		t.Fatalf("ожидали failed, получили %v", res.Outcome)
	}
	if len(f.world.detached) != 1 || f.world.detached[0] != f.world.attached[0] {
		t.Errorf("коллайдер не снят: attached=%v detached=%v", f.world.attached, f.world.detached)
	}
	if f.ball.VirtualRadius != 0.5 || f.ball.Mass != 3 {
		t.Error("шар изменился при откате")
	}
	if f.world.disabled[1] != 0 || len(f.feedback.collected) != 0 {
		t.Error("откат не должен отключать тело и подавать сигнал")
	}
}

func TestDispatcher_LaterContactsSeeGrownRadius(t *testing.T) {
	f := newFixture(t, StrategyFused)

	// 0.4 при r=0.5 проходит впритык; после роста проходит и 0.405
	f.add(t, cube("first", 0.4), 1, mgl64.Vec3{0.7, 0.2, 0})
	f.add(t, cube("second", 0.405), 2, mgl64.Vec3{-0.7, 0.2, 0})

	if p := DefaultPolicy(); p.IsCollectable(cube("second", 0.405), 0.5, nil) {
		t.Fatal("второй ящик не должен проходить при начальном радиусе")
	}

	for body := entity.BodyHandle(1); body <= 2; body++ {
		if res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: body}); res.Outcome != OutcomeCollected {
			t.Fatalf("тело %d: %v", body, res.Outcome)
		}
	}

	var ids []string
	f.store.Each(func(rec entity.AccretionRecord) { ids = append(ids, rec.ID) })
	if len(ids) != 2 || ids[0] != "first" || ids[1] != "second" {
		t.Errorf("порядок записей %v", ids)
	}
}

func TestDispatcher_RepeatedCollectionsGrowMonotonically(t *testing.T) {
	f := newFixture(t, StrategyRepose)

	prev := f.ball.VirtualRadius
	for i := 1; i <= 20; i++ {
		body := entity.BodyHandle(i)
		angle := float64(i) * 0.3
		f.add(t, cube(string(rune('a'+i)), 0.1), body, mgl64.Vec3{math.Cos(angle), 0.05, math.Sin(angle)})

		if res := f.disp.Dispatch(physics.Contact{Ball: ballBody, Other: body}); res.Outcome != OutcomeCollected {
			t.Fatalf("объект %d: %v", i, res.Outcome)
		}
		if f.ball.VirtualRadius <= prev {
			t.Fatalf("радиус не вырос на шаге %d", i)
		}
		prev = f.ball.VirtualRadius
	}
	if f.store.Len() != 20 {
		t.Errorf("ожидали 20 записей, получили %d", f.store.Len())
	}
}

func TestDispatcher_OnContactReportsResult(t *testing.T) {
	f := newFixture(t, StrategyFused)
	f.add(t, cube("crate", 0.3), 1, mgl64.Vec3{0.6, 0.15, 0})

	var got []Outcome
	f.disp.OnResult(func(r Result) { got = append(got, r.Outcome) })

	var listener physics.ContactListener = f.disp
	listener.OnContact(physics.Contact{Ball: ballBody, Other: 1})
	listener.OnContact(physics.Contact{Ball: ballBody, Other: 1})

	if len(got) != 2 || got[0] != OutcomeCollected || got[1] != OutcomeDuplicate {
		t.Errorf("результаты %v", got)
	}
}
