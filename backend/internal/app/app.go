// Package app собирает сервер из компонентов: физика, сцена, сессия,
// игровой цикл, звук, телеметрия и WebSocket.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	wsadapter "x-katamari/backend/internal/adapter/in/ws"
	"x-katamari/backend/internal/audio"
	"x-katamari/backend/internal/config"
	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/domain/service"
	"x-katamari/backend/internal/core/port/out/feedback"
	portPhysics "x-katamari/backend/internal/core/port/out/physics"
	"x-katamari/backend/internal/game"
	"x-katamari/backend/internal/physics"
	"x-katamari/backend/internal/telemetry"
	"x-katamari/backend/internal/world"
)

// App собранный сервер
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	World     *physics.World
	Session   *service.GameSession
	Ticker    *game.GameTicker
	Hub       *wsadapter.Hub
	Telemetry *telemetry.Manager
	Audio     *audio.Player

	adapter *wsadapter.WSAdapter
	stats   world.Stats
}

// New создает все компоненты, но ничего не запускает
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scene, err := loadScene(cfg.Scene)
	if err != nil {
		return nil, err
	}

	physWorld := physics.NewWorld(cfg.Physics, logger.Named("Physics"))
	policy := cfg.Tuning.Policy()

	ballBody, err := physWorld.AddSphere(scene.Ball.Position, policy.InitialRadius, policy.BaseMass)
	if err != nil {
		return nil, fmt.Errorf("creating ball: %w", err)
	}
	ball := entity.NewBall(ballBody, policy.InitialRadius, policy.BaseMass)

	metrics, err := world.DefaultFontMetrics()
	if err != nil {
		return nil, fmt.Errorf("loading font metrics: %w", err)
	}
	table := entity.NewTable()
	stats, err := world.NewFactory(physWorld, table, metrics, logger.Named("World")).Populate(scene)
	if err != nil {
		return nil, fmt.Errorf("populating scene: %w", err)
	}

	tm := telemetry.NewManager(200, logger.Named("Telemetry"))
	player := audio.NewPlayer(cfg.Audio.Enabled, cfg.Audio.Volume, cfg.Audio.SampleRate, logger.Named("Audio"))
	hub := wsadapter.NewHub(64, logger.Named("Hub"))

	sess, err := service.NewGameSession(service.SessionDeps{
		World:    physWorld,
		Ball:     ball,
		Table:    table,
		Policy:   policy,
		Strategy: cfg.CoMotion.Strategy,
		Shape:    portPhysics.BoxShape{Friction: cfg.Physics.Friction, Restitution: cfg.Physics.Restitution},
		Steering: cfg.Steering,
		Feedback: feedback.Multi{player, tm, hub},
		Results:  tm.RecordResult,
		Logger:   logger.Named("Session"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	ticker := game.NewGameTicker(cfg.Ticker.TargetTPS, logger.Named("GameTicker"))
	ticker.RegisterSystem(game.NewSessionSystem(sess, ticker, cfg.Physics.TimeStep()))
	ticker.RegisterSystem(game.NewNetworkSyncSystem(sess, hub, ticker, cfg.Server.StateInterval, logger.Named("NetworkSync")))
	ticker.RegisterSystem(game.NewGameMetricsSystem(ticker, sess, tm, uint64(cfg.Ticker.MetricsEvery), logger.Named("GameMetrics")))

	adapter := wsadapter.NewWSAdapter(sess, hub, wsadapter.Config{
		StaticDir:      cfg.Server.StaticDir,
		PingInterval:   cfg.Server.PingInterval,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxMessageSize: cfg.Server.MaxMessageSize,
	}, logger.Named("WSAdapter"))

	logger.Info("[App] сцена загружена",
		zap.Int("boxes", stats.Boxes),
		zap.Int("letters", stats.Letters),
		zap.Int("models", stats.Models),
		zap.Int("random", stats.Random),
		zap.Int("skipped", stats.Skipped))

	return &App{
		cfg:       cfg,
		logger:    logger,
		World:     physWorld,
		Session:   sess,
		Ticker:    ticker,
		Hub:       hub,
		Telemetry: tm,
		Audio:     player,
		adapter:   adapter,
		stats:     stats,
	}, nil
}

func loadScene(cfg config.SceneConfig) (*world.Scene, error) {
	var (
		scene *world.Scene
		err   error
	)
	if cfg.Path != "" {
		scene, err = world.LoadScene(cfg.Path)
	} else {
		scene, err = world.DefaultScene()
	}
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}
	scene.OverrideRandom(cfg.RandomBoxes, cfg.FieldRadius, cfg.Seed)
	return scene, nil
}

// SceneStats сколько объектов создано при загрузке сцены
func (a *App) SceneStats() world.Stats {
	return a.stats
}

// Handler HTTP-маршруты сервера
func (a *App) Handler() http.Handler {
	return a.adapter.Handler()
}

// Run слушает адрес из настроек до отмены ctx
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve запускает игровой цикл и HTTP-сервер на ln до отмены ctx
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Audio.Initialize(); err != nil {
		a.logger.Warn("[App] звук недоступен, продолжаем без него", zap.Error(err))
	}
	defer a.Audio.Close()

	if err := a.Ticker.Start(); err != nil {
		return err
	}
	defer a.Ticker.Stop()

	srv := &http.Server{Handler: a.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	a.logger.Info("[App] сервер запущен", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("[App] ошибка остановки HTTP-сервера", zap.Error(err))
	}
	a.Telemetry.PrintSummary()
	a.logger.Info("[App] сервер остановлен", zap.Uint64("ticks", a.Ticker.GetTickCount()))
	return nil
}
