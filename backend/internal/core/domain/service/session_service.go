package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/accretion"
	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/in/session"
	"x-katamari/backend/internal/core/port/out/feedback"
	"x-katamari/backend/internal/core/port/out/physics"
	"x-katamari/backend/internal/steering"
)

// SessionDeps зависимости игровой сессии
type SessionDeps struct {
	World    physics.World
	Ball     *entity.Ball
	Table    *entity.Table
	Policy   accretion.Policy
	Strategy accretion.Strategy
	Shape    physics.BoxShape // трение и упругость прикрепленных коллайдеров
	Steering steering.Config
	Feedback feedback.Listener
	Results  func(accretion.Result)
	Logger   *zap.Logger
}

// GameSession одна партия: шар, поле и все, что шар успел собрать.
// Tick вызывается только из игрового цикла; остальные методы безопасны
// для вызова из любых горутин.
type GameSession struct {
	mu sync.RWMutex

	world      physics.World
	ball       *entity.Ball
	table      *entity.Table
	store      *accretion.Store
	sync       accretion.Synchronizer
	dispatcher *accretion.Dispatcher
	controller *steering.Controller
	camera     *steering.Camera
	logger     *zap.Logger

	input    steering.Input
	snapshot session.Snapshot
}

var _ session.SessionPort = (*GameSession)(nil)

// NewGameSession создает сессию поверх уже заселенного мира
func NewGameSession(deps SessionDeps) (*GameSession, error) {
	if deps.World == nil || deps.Ball == nil || deps.Table == nil {
		return nil, errors.New("session requires world, ball and table")
	}
	if err := deps.Policy.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	syncer, err := accretion.NewSynchronizer(deps.Strategy, deps.World, deps.Shape, logger)
	if err != nil {
		return nil, err
	}

	// Масса шара в физике должна соответствовать политике с самого начала
	deps.Ball.Mass = deps.Policy.MassFor(deps.Ball.VirtualRadius)
	if err := deps.World.SetBodyMass(deps.Ball.Body, deps.Ball.Mass); err != nil {
		return nil, fmt.Errorf("setting ball mass: %w", err)
	}

	store := accretion.NewStore()
	s := &GameSession{
		world:      deps.World,
		ball:       deps.Ball,
		table:      deps.Table,
		store:      store,
		sync:       syncer,
		controller: steering.NewController(deps.Steering),
		camera:     steering.NewCamera(deps.Steering),
		logger:     logger,
	}
	s.dispatcher = accretion.NewDispatcher(accretion.DispatcherDeps{
		Policy:   deps.Policy,
		Ball:     deps.Ball,
		Table:    deps.Table,
		Store:    store,
		World:    deps.World,
		Sync:     syncer,
		Feedback: deps.Feedback,
		Logger:   logger,
	})
	if deps.Results != nil {
		s.dispatcher.OnResult(deps.Results)
	}

	if err := s.refreshSnapshot(0); err != nil {
		return nil, err
	}

	logger.Info("[Session] сессия создана",
		zap.String("comotion", string(syncer.Strategy())),
		zap.Int("collectibles", deps.Table.Len()),
		zap.Float64("radius", deps.Ball.VirtualRadius),
		zap.Float64("mass", deps.Ball.Mass))
	return s, nil
}

// SetInput реализует session.SessionPort
func (s *GameSession) SetInput(in steering.Input) {
	s.mu.Lock()
	s.input = in
	s.mu.Unlock()
}

// Tick выполняет один шаг игры: управление, физика, поглощения, совместное движение
func (s *GameSession) Tick(tick uint64, dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vel, err := s.world.LinearVelocity(s.ball.Body)
	if err != nil {
		return fmt.Errorf("ball velocity: %w", err)
	}
	speed := mgl64.Vec3{vel[0], 0, vel[2]}.Len()

	torque := s.controller.Update(s.input, dt, speed, s.ball.Mass)
	if torque.Len() > 0 {
		if err := s.world.ApplyTorqueImpulse(s.ball.Body, torque); err != nil {
			s.logger.Warn("[Session] не удалось применить импульс", zap.Error(err))
		}
	}

	if err := s.world.Step(dt, s.dispatcher); err != nil {
		return fmt.Errorf("physics step: %w", err)
	}

	ballPose, err := s.world.BodyPose(s.ball.Body)
	if err != nil {
		return fmt.Errorf("ball pose: %w", err)
	}
	if s.sync.Strategy() == accretion.StrategyRepose {
		s.sync.Sync(ballPose, s.store.Records())
	}

	return s.refreshSnapshot(tick)
}

// refreshSnapshot вызывается под блокировкой записи
func (s *GameSession) refreshSnapshot(tick uint64) error {
	pose, err := s.world.BodyPose(s.ball.Body)
	if err != nil {
		return err
	}
	vel, err := s.world.LinearVelocity(s.ball.Body)
	if err != nil {
		return err
	}

	s.camera.Follow(pose.Position, s.controller.Direction(), s.ball.VirtualRadius)

	s.snapshot = session.Snapshot{
		Tick: tick,
		Ball: session.BallState{
			Position:      pose.Position,
			Orientation:   pose.Orientation,
			Velocity:      vel,
			CoreRadius:    s.ball.CoreRadius,
			VirtualRadius: s.ball.VirtualRadius,
			Mass:          s.ball.Mass,
			Heading:       s.controller.Heading(),
		},
		Camera:    *s.camera,
		HUD:       FormatHUD(s.ball.VirtualRadius),
		Collected: s.store.Len(),
		Remaining: s.table.Len() - s.store.Len(),
	}
	return nil
}

// Snapshot реализует session.SessionPort
func (s *GameSession) Snapshot() session.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Scene реализует session.SessionPort
func (s *GameSession) Scene() session.SceneView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uncollected := s.table.Uncollected()
	views := make([]session.UncollectedView, 0, len(uncollected))
	for _, c := range uncollected {
		pose, err := s.world.BodyPose(c.Body)
		if err != nil {
			continue
		}
		views = append(views, session.UncollectedView{Metadata: c.Metadata, Pose: pose})
	}

	return session.SceneView{
		Snapshot:    s.snapshot,
		Uncollected: views,
		Records:     s.store.Records(),
	}
}

// Ball копия состояния шара
func (s *GameSession) Ball() entity.Ball {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.ball
}

// FormatHUD строка размера шара: диаметр и объем с одним знаком после запятой
func FormatHUD(radius float64) string {
	return fmt.Sprintf("Ball Size: %.1fm / %.1fm³", 2*radius, accretion.SphereVolume(radius))
}
