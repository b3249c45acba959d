package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// GameTicker основной игровой цикл. Все системы выполняются в одной горутине,
// поэтому игровое состояние меняет только она.
type GameTicker struct {
	// Конфигурация
	targetTPS    int           // Целевая частота тиков в секунду
	tickDuration time.Duration // Длительность одного тика
	maxTickTime  time.Duration // Максимальное время на один тик

	// Состояние
	isRunning    atomic.Bool
	isPaused     atomic.Bool
	tickCount    atomic.Uint64
	startTime    time.Time
	lastTickTime time.Time

	// Системы
	systems      []TickSystem
	systemsMutex sync.RWMutex

	perfMonitor *PerformanceMonitor

	// Управление
	ctx       context.Context
	cancel    context.CancelFunc
	pauseChan chan bool
	done      chan struct{}

	// Метрики, пишутся только из игрового цикла
	metricsMutex    sync.RWMutex
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	logger           *zap.Logger
	warningThreshold time.Duration
}

// TickSystem интерфейс для всех игровых систем
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// PerformanceMonitor отслеживает производительность каждой системы
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow     int           // Количество последних тиков для усреднения
	warningThreshold  time.Duration // Порог предупреждения для системы
	criticalThreshold time.Duration
}

// SystemMetrics метрики производительности системы
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	// Скользящее окно для вычисления среднего
	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

// Stats снимок статистики игрового цикла
type Stats struct {
	TargetTPS       int           `json:"target_tps"`
	ActualTPS       float64       `json:"actual_tps"`
	TickCount       uint64        `json:"tick_count"`
	Uptime          time.Duration `json:"uptime"`
	AverageTickTime time.Duration `json:"average_tick_time"`
	MaxObservedTick time.Duration `json:"max_observed_tick"`
	SkippedTicks    uint64        `json:"skipped_ticks"`
	IsRunning       bool          `json:"is_running"`
	IsPaused        bool          `json:"is_paused"`
	SystemsCount    int           `json:"systems_count"`
}

// NewGameTicker создает игровой тикер
func NewGameTicker(targetTPS int, logger *zap.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tickDuration := time.Second / time.Duration(targetTPS)
	ctx, cancel := context.WithCancel(context.Background())

	return &GameTicker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxTickTime:      tickDuration * 2,
		systems:          make([]TickSystem, 0),
		perfMonitor:      NewPerformanceMonitor(50, tickDuration/4), // Предупреждение при 25% от тика
		ctx:              ctx,
		cancel:           cancel,
		pauseChan:        make(chan bool, 1),
		done:             make(chan struct{}),
		logger:           logger,
		warningThreshold: tickDuration / 2,
	}
}

// NewPerformanceMonitor создает новый монитор производительности
func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	return &PerformanceMonitor{
		systemMetrics:     make(map[string]*SystemMetrics),
		metricsWindow:     windowSize,
		warningThreshold:  warningThreshold,
		criticalThreshold: warningThreshold * 2,
	}
}

// Start запускает игровой цикл
func (gt *GameTicker) Start() error {
	if !gt.isRunning.CompareAndSwap(false, true) {
		return nil // Уже запущен
	}

	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime

	gt.logger.Info("[GameTicker] запуск игрового цикла",
		zap.Int("tps", gt.targetTPS), zap.Duration("tick", gt.tickDuration))

	go gt.gameLoop()
	return nil
}

// Stop останавливает игровой цикл и ждет завершения текущего тика
func (gt *GameTicker) Stop() {
	if !gt.isRunning.CompareAndSwap(true, false) {
		return
	}

	gt.cancel()
	<-gt.done

	gt.logger.Info("[GameTicker] игровой цикл остановлен", zap.Uint64("ticks", gt.tickCount.Load()))
}

// Pause приостанавливает выполнение систем
func (gt *GameTicker) Pause() {
	gt.setPaused(true)
}

// Resume возобновляет выполнение систем
func (gt *GameTicker) Resume() {
	gt.setPaused(false)
}

func (gt *GameTicker) setPaused(pause bool) {
	if gt.isPaused.Swap(pause) == pause {
		return
	}
	// Предыдущая непрочитанная команда устарела
	select {
	case <-gt.pauseChan:
	default:
	}
	gt.pauseChan <- pause
}

// RegisterSystem добавляет систему в игровой цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	gt.systems = append(gt.systems, system)

	// Сортируем по приоритету (меньше = выше приоритет)
	for i := len(gt.systems) - 1; i > 0; i-- {
		if gt.systems[i].GetPriority() < gt.systems[i-1].GetPriority() {
			gt.systems[i], gt.systems[i-1] = gt.systems[i-1], gt.systems[i]
		} else {
			break
		}
	}

	gt.perfMonitor.initSystemMetrics(system.GetName())

	gt.logger.Info("[GameTicker] зарегистрирована система",
		zap.String("system", system.GetName()), zap.Int("priority", system.GetPriority()))
}

// gameLoop основной игровой цикл
func (gt *GameTicker) gameLoop() {
	defer close(gt.done)

	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-gt.ctx.Done():
			return

		case pause := <-gt.pauseChan:
			// Ждем команды возобновления
			for pause {
				select {
				case <-gt.ctx.Done():
					return
				case pause = <-gt.pauseChan:
				}
			}
			// Пауза не должна выглядеть как пропущенные тики
			gt.lastTickTime = time.Now()

		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

// executeTick выполняет один игровой тик
func (gt *GameTicker) executeTick(tickTime time.Time) {
	tickStart := time.Now()
	deltaTime := tickTime.Sub(gt.lastTickTime)

	if deltaTime > gt.tickDuration*2 {
		gt.logger.Warn("[GameTicker] большая задержка между тиками",
			zap.Duration("delta", deltaTime), zap.Duration("expected", gt.tickDuration))
		gt.metricsMutex.Lock()
		gt.skippedTicks++
		gt.metricsMutex.Unlock()
	}

	gt.tickCount.Add(1)
	gt.lastTickTime = tickTime

	gt.executeAllSystems(deltaTime)

	totalTickTime := time.Since(tickStart)
	gt.updateTickMetrics(totalTickTime)
	gt.checkPerformance(totalTickTime)
}

// executeAllSystems выполняет все зарегистрированные системы
func (gt *GameTicker) executeAllSystems(deltaTime time.Duration) {
	gt.systemsMutex.RLock()
	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	gt.systemsMutex.RUnlock()

	for _, system := range systems {
		gt.executeSystem(system, deltaTime)
	}
}

// executeSystem выполняет одну систему с замером времени.
// Паника системы не останавливает цикл и засчитывается как ошибка.
func (gt *GameTicker) executeSystem(system TickSystem, deltaTime time.Duration) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Error("[GameTicker] паника в системе",
				zap.String("system", systemName), zap.Any("panic", r))
			gt.perfMonitor.recordError(systemName)
		}
	}()

	err := system.Update(deltaTime)
	gt.perfMonitor.recordExecution(systemName, time.Since(systemStart))

	if err != nil {
		gt.logger.Warn("[GameTicker] ошибка в системе", zap.String("system", systemName), zap.Error(err))
		gt.perfMonitor.recordError(systemName)
	}
}

// GetTickCount возвращает текущее количество тиков
func (gt *GameTicker) GetTickCount() uint64 {
	return gt.tickCount.Load()
}

// TickDuration длительность одного тика
func (gt *GameTicker) TickDuration() time.Duration {
	return gt.tickDuration
}

// GetStats возвращает статистику игрового цикла
func (gt *GameTicker) GetStats() Stats {
	gt.metricsMutex.RLock()
	defer gt.metricsMutex.RUnlock()
	gt.systemsMutex.RLock()
	defer gt.systemsMutex.RUnlock()

	ticks := gt.tickCount.Load()
	var uptime time.Duration
	var actualTPS float64
	if !gt.startTime.IsZero() {
		uptime = time.Since(gt.startTime)
		if uptime > 0 {
			actualTPS = float64(ticks) / uptime.Seconds()
		}
	}

	return Stats{
		TargetTPS:       gt.targetTPS,
		ActualTPS:       actualTPS,
		TickCount:       ticks,
		Uptime:          uptime,
		AverageTickTime: gt.averageTickTime,
		MaxObservedTick: gt.maxObservedTick,
		SkippedTicks:    gt.skippedTicks,
		IsRunning:       gt.isRunning.Load(),
		IsPaused:        gt.isPaused.Load(),
		SystemsCount:    len(gt.systems),
	}
}

// Monitor монитор производительности систем
func (gt *GameTicker) Monitor() *PerformanceMonitor {
	return gt.perfMonitor
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++
	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow
	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}
	if limit == 0 {
		return
	}

	var total time.Duration
	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}
	metrics.AverageTime = total / time.Duration(limit)
}

// SystemStats копия метрик системы
func (pm *PerformanceMonitor) SystemStats(name string) (SystemMetrics, bool) {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	m, ok := pm.systemMetrics[name]
	if !ok {
		return SystemMetrics{}, false
	}
	out := *m
	out.recentTimes = nil
	return out, true
}

// SlowSystems системы, среднее время которых выше порога предупреждения
func (pm *PerformanceMonitor) SlowSystems() []string {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	var slow []string
	for name, m := range pm.systemMetrics {
		if m.AverageTime > pm.warningThreshold {
			slow = append(slow, name)
		}
	}
	return slow
}

func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	gt.metricsMutex.Lock()
	defer gt.metricsMutex.Unlock()

	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}

	// Простое скользящее среднее
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.maxTickTime {
		gt.logger.Warn("[GameTicker] тик превысил максимальное время",
			zap.Duration("tick", tickTime), zap.Duration("max", gt.maxTickTime))
	} else if tickTime > gt.warningThreshold {
		gt.logger.Debug("[GameTicker] медленный тик",
			zap.Duration("tick", tickTime), zap.Duration("target", gt.tickDuration))
	}
}
