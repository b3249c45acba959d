// Package telemetry собирает события поглощения и счетчики исходов контактов.
package telemetry

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/accretion"
	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/feedback"
)

// EventType тип события телеметрии
type EventType string

const (
	EventCollected EventType = "collected"
	EventRejected  EventType = "rejected"
)

// Event одно событие поглощения или отказа
type Event struct {
	Timestamp  int64       `json:"timestamp"` // Время в миллисекундах
	Type       EventType   `json:"type"`
	EntityID   string      `json:"entity_id"`
	EntityKind entity.Kind `json:"entity_kind,omitempty"`
	Volume     float64     `json:"volume,omitempty"`
	Radius     float64     `json:"radius"` // радиус шара после события
	Mass       float64     `json:"mass"`
	Local      *mgl64.Vec3 `json:"local,omitempty"` // точка крепления в системе шара
}

// Manager кольцевой буфер событий и счетчики исходов
type Manager struct {
	enabled    bool
	data       []Event
	next       int
	full       bool
	mutex      sync.RWMutex
	maxEntries int

	counters      map[string]int
	lastPrint     time.Time
	printInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

var _ feedback.Listener = (*Manager)(nil)

// NewManager создает менеджер телеметрии на maxEntries последних событий
func NewManager(maxEntries int, logger *zap.Logger) *Manager {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		enabled:       true,
		data:          make([]Event, maxEntries),
		maxEntries:    maxEntries,
		counters:      make(map[string]int),
		printInterval: 10 * time.Second,
		logger:        logger,
		now:           time.Now,
	}
}

// Collected реализует feedback.Listener
func (tm *Manager) Collected(rec entity.AccretionRecord, ball entity.Ball) {
	local := rec.LocalPosition
	vol := rec.Dimensions.BoxVolume()
	if rec.Kind == entity.KindGlyph {
		vol *= entity.GlyphVolumeFactor
	}
	tm.push(Event{
		Type:       EventCollected,
		EntityID:   rec.ID,
		EntityKind: rec.Kind,
		Volume:     vol,
		Radius:     ball.VirtualRadius,
		Mass:       ball.Mass,
		Local:      &local,
	})
}

// Rejected реализует feedback.Listener
func (tm *Manager) Rejected(id string, ball entity.Ball) {
	tm.push(Event{
		Type:     EventRejected,
		EntityID: id,
		Radius:   ball.VirtualRadius,
		Mass:     ball.Mass,
	})
}

// RecordResult учитывает исход обработки контакта
func (tm *Manager) RecordResult(res accretion.Result) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	tm.counters[res.Outcome.String()]++
}

func (tm *Manager) push(e Event) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	e.Timestamp = tm.now().UnixMilli()
	tm.data[tm.next] = e
	tm.next = (tm.next + 1) % tm.maxEntries
	if tm.next == 0 {
		tm.full = true
	}
	tm.counters["event_"+string(e.Type)]++
}

// Recent возвращает последние события от старых к новым
func (tm *Manager) Recent() []Event {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.recentLocked()
}

func (tm *Manager) recentLocked() []Event {
	if !tm.full {
		out := make([]Event, tm.next)
		copy(out, tm.data[:tm.next])
		return out
	}
	out := make([]Event, 0, tm.maxEntries)
	out = append(out, tm.data[tm.next:]...)
	return append(out, tm.data[:tm.next]...)
}

// Counters копия счетчиков
func (tm *Manager) Counters() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make(map[string]int, len(tm.counters))
	for k, v := range tm.counters {
		out[k] = v
	}
	return out
}

// PrintSummary выводит сводку не чаще printInterval и сбрасывает счетчики
func (tm *Manager) PrintSummary() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	now := tm.now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return
	}
	tm.lastPrint = now

	keys := make([]string, 0, len(tm.counters))
	for k := range tm.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		fields = append(fields, zap.Int(k, tm.counters[k]))
	}
	recent := tm.recentLocked()
	fields = append(fields, zap.Int("buffered", len(recent)))
	tm.logger.Info("[Telemetry] сводка", fields...)

	if n := len(recent); n > 0 {
		last := recent[n-1]
		tm.logger.Info("[Telemetry] последнее событие",
			zap.String("type", string(last.Type)),
			zap.String("entity", last.EntityID),
			zap.Float64("radius", last.Radius),
			zap.Float64("mass", last.Mass))
	}

	tm.counters = make(map[string]int)
}

// JSON возвращает буфер событий в JSON
func (tm *Manager) JSON() (string, error) {
	events := tm.Recent()
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *Manager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	tm.enabled = enabled
	tm.mutex.Unlock()

	tm.logger.Info("[Telemetry] состояние изменено", zap.Bool("enabled", enabled))
}

// Clear очищает буфер и счетчики
func (tm *Manager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]Event, tm.maxEntries)
	tm.next = 0
	tm.full = false
	tm.counters = make(map[string]int)
}
