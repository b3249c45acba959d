package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"x-katamari/backend/internal/core/domain/entity"
	"x-katamari/backend/internal/core/port/out/feedback"
)

// Player проигрывает сигналы обратной связи через системный звук.
// Выключенный плеер молча игнорирует события.
type Player struct {
	mu          sync.Mutex
	enabled     bool
	volume      float64
	rate        beep.SampleRate
	mixer       *beep.Mixer
	initialized bool
	logger      *zap.Logger

	played map[string]int
}

var _ feedback.Listener = (*Player)(nil)

// NewPlayer создает плеер. Устройство вывода открывается в Initialize.
func NewPlayer(enabled bool, volume float64, sampleRate int, logger *zap.Logger) *Player {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{
		enabled: enabled,
		volume:  volume,
		rate:    beep.SampleRate(sampleRate),
		mixer:   &beep.Mixer{},
		logger:  logger,
		played:  make(map[string]int),
	}
}

// Initialize открывает устройство вывода, если звук включен
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.initialized {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true

	p.logger.Info("[Audio] звук включен", zap.Int("sample_rate", int(p.rate)), zap.Float64("volume", p.volume))
	return nil
}

// Close останавливает все звуки
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Collected реализует feedback.Listener
func (p *Player) Collected(entity.AccretionRecord, entity.Ball) {
	p.play("bloop", Bloop(p.rate, p.volume))
}

// Rejected реализует feedback.Listener
func (p *Player) Rejected(string, entity.Ball) {
	p.play("boop", Boop(p.rate, p.volume))
}

// play добавляет сигнал в микшер; вызывается из игрового цикла и не блокируется на воспроизведении
func (p *Player) play(name string, s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	p.played[name]++
}

// Played сколько раз проигран сигнал
func (p *Player) Played(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played[name]
}
