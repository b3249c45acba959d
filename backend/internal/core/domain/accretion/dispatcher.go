package accretion

import (
	"errors"

	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/feedback"
	"x-katamari/backend/internal/core/port/out/physics"
)

// Outcome чем закончилась обработка одного контакта
type Outcome int

const (
	OutcomeIgnored   Outcome = iota // тело не собираемое
	OutcomeDuplicate                // объект уже поглощен
	OutcomeRejected                 // объект слишком велик
	OutcomeDeferred                 // вырожденная геометрия, попробуем при следующем контакте
	OutcomeFailed                   // поглощение откатилось
	OutcomeCollected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRejected:
		return "rejected"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeFailed:
		return "failed"
	case OutcomeCollected:
		return "collected"
	}
	return "unknown"
}

// Result подробности обработки контакта
type Result struct {
	Outcome Outcome
	ID      string
	Verdict Verdict
	Err     error
}

// Dispatcher точка входа для контактов шара. Единственный, кто пишет в Store и Ball.
type Dispatcher struct {
	policy   Policy
	ball     *entity.Ball
	table    *entity.Table
	store    *Store
	world    physics.World
	sync     Synchronizer
	feedback feedback.Listener
	logger   *zap.Logger

	onResult func(Result)
}

// DispatcherDeps зависимости диспетчера
type DispatcherDeps struct {
	Policy   Policy
	Ball     *entity.Ball
	Table    *entity.Table
	Store    *Store
	World    physics.World
	Sync     Synchronizer
	Feedback feedback.Listener
	Logger   *zap.Logger
}

// NewDispatcher создает диспетчер контактов
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	if deps.Feedback == nil {
		deps.Feedback = feedback.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = NewStore()
	}
	return &Dispatcher{
		policy:   deps.Policy,
		ball:     deps.Ball,
		table:    deps.Table,
		store:    deps.Store,
		world:    deps.World,
		sync:     deps.Sync,
		feedback: deps.Feedback,
		logger:   deps.Logger,
	}
}

// OnResult подписывает наблюдателя на результаты обработки контактов
func (d *Dispatcher) OnResult(fn func(Result)) {
	d.onResult = fn
}

// OnContact реализует physics.ContactListener
func (d *Dispatcher) OnContact(c physics.Contact) {
	res := d.Dispatch(c)
	if d.onResult != nil {
		d.onResult(res)
	}
}

// Dispatch проводит один контакт через автомат Uncollected → Collected
func (d *Dispatcher) Dispatch(c physics.Contact) Result {
	other := c.Other
	switch d.ball.Body {
	case c.Ball:
	case c.Other:
		other = c.Ball
	default:
		return Result{Outcome: OutcomeIgnored}
	}

	ent, ok := d.table.ByBody(other)
	if !ok {
		return Result{Outcome: OutcomeIgnored}
	}
	if ent.IsCollected() || d.store.Has(ent.ID) {
		return Result{Outcome: OutcomeDuplicate, ID: ent.ID, Verdict: RejectedDuplicate}
	}

	verdict := d.policy.Evaluate(ent.Metadata, d.ball.VirtualRadius, d.store)
	switch verdict {
	case Eligible:
	case RejectedDuplicate:
		return Result{Outcome: OutcomeDuplicate, ID: ent.ID, Verdict: verdict}
	case RejectedDegenerate:
		d.logger.Warn("[Dispatcher] вырожденные размеры объекта, пропускаем",
			zap.String("entity", ent.ID), zap.Any("dimensions", ent.Dimensions))
		return Result{Outcome: OutcomeDeferred, ID: ent.ID, Verdict: verdict, Err: entity.ErrDegenerateGeometry}
	default:
		d.logger.Debug("[Dispatcher] объект слишком велик",
			zap.String("entity", ent.ID), zap.Stringer("verdict", verdict),
			zap.Float64("radius", d.ball.VirtualRadius))
		d.feedback.Rejected(ent.ID, *d.ball)
		return Result{Outcome: OutcomeRejected, ID: ent.ID, Verdict: verdict}
	}

	return d.collect(ent)
}

// collect выполняет поглощение. Все, что может не получиться, делается до
// изменения состояния шара; неудача вставки откатывает привязку.
func (d *Dispatcher) collect(ent *entity.Collectible) Result {
	res := Result{ID: ent.ID, Verdict: Eligible}

	ballPose, err := d.world.BodyPose(d.ball.Body)
	if err != nil {
		d.logger.Error("[Dispatcher] нет позы шара", zap.Error(err))
		res.Outcome, res.Err = OutcomeDeferred, err
		return res
	}
	entPose, err := d.world.BodyPose(ent.Body)
	if err != nil {
		d.logger.Warn("[Dispatcher] нет позы объекта", zap.String("entity", ent.ID), zap.Error(err))
		res.Outcome, res.Err = OutcomeDeferred, err
		return res
	}

	att, err := ComputeAttachment(ballPose, d.ball.VirtualRadius, entPose, ent.InitialOrientation)
	if err != nil {
		d.logger.Warn("[Dispatcher] центры шара и объекта совпадают, откладываем",
			zap.String("entity", ent.ID))
		res.Outcome, res.Err = OutcomeDeferred, err
		return res
	}

	newRadius := Grow(d.ball.VirtualRadius, ent.Volume(), d.policy.CreditFactor)
	newMass := d.policy.MassFor(newRadius)

	binding, err := d.sync.Attach(AttachRequest{
		Ball:       d.ball.Body,
		Body:       ent.Body,
		Dimensions: ent.Dimensions,
		Attachment: att,
		Initial:    normalizeOrIdent(ent.InitialOrientation),
	})
	if err != nil {
		// Физически не прикрепили: объект все равно считается собранным и рисуется
		d.logger.Warn("[Dispatcher] физическое крепление не удалось, только отрисовка",
			zap.String("entity", ent.ID), zap.Error(err))
		binding = entity.RenderOnlyBinding()
	}

	rec := entity.AccretionRecord{
		ID:                 ent.ID,
		LocalPosition:      att.LocalPosition,
		LocalOrientation:   att.LocalOrientation,
		InitialOrientation: normalizeOrIdent(ent.InitialOrientation),
		Dimensions:         ent.Dimensions,
		Kind:               ent.Kind,
		Box:                ent.Box,
		Glyph:              ent.Glyph,
		Model:              ent.Model,
		Binding:            binding,
	}
	if err := d.store.Insert(rec); err != nil {
		if derr := d.sync.Detach(d.ball.Body, binding); derr != nil {
			d.logger.Error("[Dispatcher] откат привязки не удался",
				zap.String("entity", ent.ID), zap.Error(derr))
		}
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}

	oldRadius := d.ball.VirtualRadius
	d.ball.ApplyGrowth(newRadius, newMass)
	if err := d.table.MarkCollected(ent.ID); err != nil && !errors.Is(err, entity.ErrAlreadyCollected) {
		d.logger.Error("[Dispatcher] не удалось отметить объект", zap.String("entity", ent.ID), zap.Error(err))
	}

	// Физика узнает о новой массе только после того, как запись точно сохранена
	if err := d.world.SetBodyMass(d.ball.Body, newMass); err != nil {
		d.logger.Warn("[Dispatcher] не удалось обновить массу шара", zap.Error(err))
	}
	if err := d.world.SetSphereRadius(d.ball.Body, newRadius); err != nil {
		d.logger.Warn("[Dispatcher] не удалось обновить радиус шара", zap.Error(err))
	}
	if err := d.world.DisableBody(ent.Body); err != nil {
		d.logger.Warn("[Dispatcher] не удалось отключить тело объекта",
			zap.String("entity", ent.ID), zap.Error(err))
	}

	d.logger.Info("[Dispatcher] объект поглощен",
		zap.String("entity", ent.ID),
		zap.String("kind", string(ent.Kind)),
		zap.String("binding", string(binding.Mode)),
		zap.Float64("radius_before", oldRadius),
		zap.Float64("radius_after", newRadius),
		zap.Float64("mass", newMass),
		zap.Int("collected", d.store.Len()))

	d.feedback.Collected(rec, *d.ball)
	res.Outcome = OutcomeCollected
	return res
}

// Ball текущее состояние шара
func (d *Dispatcher) Ball() entity.Ball {
	return *d.ball
}

// Store хранилище записей
func (d *Dispatcher) Store() *Store {
	return d.store
}
