package game

import (
	"time"

	"go.uber.org/zap"

	"x-katamari/backend/internal/core/port/in/session"
)

// SessionTicker то, что продвигает игровую сессию на один шаг
type SessionTicker interface {
	Tick(tick uint64, dt float64) error
}

// SessionSystem система шага игровой сессии: управление, физика, поглощения
type SessionSystem struct {
	name       string
	priority   int
	session    SessionTicker
	gameTicker *GameTicker
	step       float64 // фиксированный шаг симуляции в секундах
}

// NewSessionSystem создает систему шага сессии. Симуляция идет с фиксированным
// шагом step независимо от реальной задержки между тиками.
func NewSessionSystem(s SessionTicker, gameTicker *GameTicker, step float64) *SessionSystem {
	return &SessionSystem{
		name:       "SessionSystem",
		priority:   10, // Первой: все остальные системы читают результат шага
		session:    s,
		gameTicker: gameTicker,
		step:       step,
	}
}

// Update выполняет шаг сессии
func (ss *SessionSystem) Update(time.Duration) error {
	return ss.session.Tick(ss.gameTicker.GetTickCount(), ss.step)
}

// GetName возвращает имя системы
func (ss *SessionSystem) GetName() string {
	return ss.name
}

// GetPriority возвращает приоритет системы
func (ss *SessionSystem) GetPriority() int {
	return ss.priority
}

// StateBroadcaster получатель периодического состояния для клиентов
type StateBroadcaster interface {
	BroadcastState(snap session.Snapshot)
}

// SnapshotSource источник снимков состояния
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// NetworkSyncSystem система синхронизации состояния с клиентами
type NetworkSyncSystem struct {
	name          string
	priority      int
	source        SnapshotSource
	broadcaster   StateBroadcaster
	gameTicker    *GameTicker
	logger        *zap.Logger
	lastBroadcast time.Time

	broadcastInterval time.Duration
	now               func() time.Time
}

// NewNetworkSyncSystem создает систему сетевой синхронизации
func NewNetworkSyncSystem(source SnapshotSource, broadcaster StateBroadcaster, gameTicker *GameTicker, interval time.Duration, logger *zap.Logger) *NetworkSyncSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkSyncSystem{
		name:              "NetworkSyncSystem",
		priority:          100, // Отправляем в конце тика
		source:            source,
		broadcaster:       broadcaster,
		gameTicker:        gameTicker,
		logger:            logger,
		broadcastInterval: interval,
		now:               time.Now,
	}
}

// Update отправляет состояние клиентам не чаще broadcastInterval
func (nss *NetworkSyncSystem) Update(time.Duration) error {
	now := nss.now()
	if now.Sub(nss.lastBroadcast) < nss.broadcastInterval {
		return nil
	}
	nss.lastBroadcast = now

	snap := nss.source.Snapshot()
	nss.broadcaster.BroadcastState(snap)

	if nss.gameTicker.GetTickCount()%1200 == 0 {
		nss.logger.Debug("[NetworkSyncSystem] синхронизация",
			zap.Uint64("tick", snap.Tick), zap.Int("collected", snap.Collected))
	}
	return nil
}

// GetName возвращает имя системы
func (nss *NetworkSyncSystem) GetName() string {
	return nss.name
}

// GetPriority возвращает приоритет системы
func (nss *NetworkSyncSystem) GetPriority() int {
	return nss.priority
}

// SummaryPrinter периодическая сводка (телеметрия)
type SummaryPrinter interface {
	PrintSummary()
}

// GameMetricsSystem система сбора игровых метрик
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	source     SnapshotSource
	summary    SummaryPrinter
	logger     *zap.Logger

	every uint64 // период сводки в тиках
}

// NewGameMetricsSystem создает систему сбора метрик. summary может быть nil.
func NewGameMetricsSystem(gameTicker *GameTicker, source SnapshotSource, summary SummaryPrinter, every uint64, logger *zap.Logger) *GameMetricsSystem {
	if every == 0 {
		every = 600
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameMetricsSystem{
		name:       "GameMetricsSystem",
		priority:   200, // Метрики в самом конце
		gameTicker: gameTicker,
		source:     source,
		summary:    summary,
		logger:     logger,
		every:      every,
	}
}

// Update логирует метрики раз в every тиков
func (gms *GameMetricsSystem) Update(time.Duration) error {
	if gms.gameTicker.GetTickCount()%gms.every != 0 {
		return nil
	}

	stats := gms.gameTicker.GetStats()
	snap := gms.source.Snapshot()

	gms.logger.Info("[GameMetrics] сводка",
		zap.Float64("tps", stats.ActualTPS),
		zap.Int("target_tps", stats.TargetTPS),
		zap.Uint64("ticks", stats.TickCount),
		zap.Duration("avg_tick", stats.AverageTickTime),
		zap.Int("collected", snap.Collected),
		zap.Int("remaining", snap.Remaining),
		zap.Float64("radius", snap.Ball.VirtualRadius))

	if stats.ActualTPS > 0 && stats.ActualTPS < float64(stats.TargetTPS)*0.9 {
		gms.logger.Warn("[GameMetrics] TPS снижен", zap.Float64("tps", stats.ActualTPS))
	}
	if slow := gms.gameTicker.Monitor().SlowSystems(); len(slow) > 0 {
		gms.logger.Warn("[GameMetrics] медленные системы", zap.Strings("systems", slow))
	}

	if gms.summary != nil {
		gms.summary.PrintSummary()
	}
	return nil
}

// GetName возвращает имя системы
func (gms *GameMetricsSystem) GetName() string {
	return gms.name
}

// GetPriority возвращает приоритет системы
func (gms *GameMetricsSystem) GetPriority() int {
	return gms.priority
}
